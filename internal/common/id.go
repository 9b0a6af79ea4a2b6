package common

import (
	"github.com/google/uuid"
)

// NewClientID generates a unique bus client identifier with the "vigil-" prefix.
// Brokers disconnect clients with duplicate ids, so each process gets its own.
func NewClientID() string {
	return "vigil-" + uuid.New().String()[:8]
}
