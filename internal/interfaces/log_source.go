package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrSourceUnavailable indicates a log source failed to return text for a
// scan window. Callers recover by synthesizing a single ERROR event for the
// entity instead of invoking the scanner.
var ErrSourceUnavailable = errors.New("log source unavailable")

// LogSource fetches the raw log text covering one polling window for an
// entity. Implementations wrap the container runtime or the kernel ring
// buffer.
type LogSource interface {
	FetchRecentText(ctx context.Context, entityID string, window time.Duration) (string, error)
}
