package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

// ContainerRuntime is the container runtime seam: inventory, logs, health,
// resource usage and privileged maintenance commands.
type ContainerRuntime interface {
	// ListContainers returns all containers, including stopped ones.
	ListContainers(ctx context.Context) ([]models.ContainerInfo, error)

	// ContainerLogs returns combined stdout/stderr text for the given
	// window. Returns ErrSourceUnavailable (wrapped) when the runtime
	// cannot produce logs for the container.
	ContainerLogs(ctx context.Context, name string, window time.Duration) (string, error)

	// ContainerState returns status, health and restart count.
	ContainerState(ctx context.Context, name string) (models.ContainerState, error)

	// ContainerStats returns one CPU/memory usage sample.
	ContainerStats(ctx context.Context, name string) (models.ContainerStats, error)

	// RunMaintenance executes a one-shot command container and returns its
	// combined output.
	RunMaintenance(ctx context.Context, spec models.MaintenanceSpec) (string, error)

	// Close releases the runtime connection.
	Close() error
}
