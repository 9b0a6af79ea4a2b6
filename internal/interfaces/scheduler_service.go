package interfaces

// SchedulerService drives the periodic monitor cycles. Jobs are registered
// before Start; the scheduler guarantees that no two jobs run concurrently,
// which upholds the tracker's single-writer-per-entity invariant.
type SchedulerService interface {
	// RegisterJob adds a job with a cron schedule. Jobs with autoStart run
	// once immediately after Start.
	RegisterJob(name, schedule, description string, autoStart bool, handler func() error) error

	// TriggerJob runs a registered job immediately in the background.
	TriggerJob(name string) error

	// Start begins cron scheduling.
	Start() error

	// Stop halts the scheduler.
	Stop() error

	// IsRunning reports whether the scheduler is active.
	IsRunning() bool
}
