package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/discovery"
	"github.com/ternarybob/vigil/internal/services/kernel"
	"github.com/ternarybob/vigil/internal/services/monitor"
	"github.com/ternarybob/vigil/internal/services/publish"
	"github.com/ternarybob/vigil/internal/services/runtime"
	"github.com/ternarybob/vigil/internal/services/scanner"
	"github.com/ternarybob/vigil/internal/services/scheduler"
	"github.com/ternarybob/vigil/internal/services/tracker"
	"github.com/ternarybob/vigil/internal/services/updates"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Publisher        interfaces.Publisher
	Runtime          interfaces.ContainerRuntime
	Tracker          *tracker.Registry
	DiscoveryService *discovery.Service
	MonitorService   *monitor.Service
	UpdatesService   *updates.Service
	SchedulerService interfaces.SchedulerService
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	publisher, err := publish.NewMQTTPublisher(cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	app.Publisher = publisher
	logger.Info().
		Str("host", cfg.MQTT.Host).
		Int("port", cfg.MQTT.Port).
		Str("topic_prefix", cfg.MQTT.TopicPrefix).
		Msg("Broker connection established")

	dockerRuntime, err := runtime.NewDockerRuntime(logger)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("failed to initialize container runtime: %w", err)
	}
	app.Runtime = dockerRuntime
	logger.Debug().Msg("Container runtime initialized")

	app.Tracker = tracker.NewRegistry(logger)
	app.DiscoveryService = discovery.NewService(publisher, cfg.MQTT.TopicPrefix, logger)

	app.MonitorService = monitor.NewService(
		dockerRuntime,
		kernel.NewSource(logger),
		app.Tracker,
		scanner.New(scanner.NewContainerRuleset(cfg.Monitor.Keywords)),
		scanner.New(scanner.NewKernelRuleset(cfg.Monitor.KernelKeywords)),
		publisher,
		app.DiscoveryService,
		cfg.Monitor.LogWindowDuration(),
		logger,
	)

	app.UpdatesService = updates.NewService(dockerRuntime, publisher, cfg.Updates.Image, logger)

	app.SchedulerService = scheduler.NewService(logger)
	if err := app.registerJobs(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// registerJobs wires every periodic check into the scheduler. All monitor
// jobs share the monitor schedule; the updates check runs on its own.
func (a *App) registerJobs() error {
	schedule := a.Config.Monitor.Schedule

	jobs := []struct {
		name        string
		schedule    string
		description string
		enabled     bool
		handler     func() error
	}{
		{"container-logs", schedule, "Scan container logs for errors", true, a.MonitorService.CheckContainerLogs},
		{"container-health", schedule, "Publish container status and health", true, a.MonitorService.CheckContainerHealth},
		{"container-stats", schedule, "Publish container CPU and memory usage", true, a.MonitorService.CheckContainerStats},
		{"container-disk", schedule, "Publish container writable layer sizes", true, a.MonitorService.CheckContainerDisk},
		{"kernel-log", schedule, "Scan kernel ring buffer for I/O errors", a.Config.Monitor.KernelEnabled, a.MonitorService.CheckKernelLog},
		{"updates-check", a.Config.Updates.Schedule, "Count upgradable host packages", a.Config.Updates.Enabled, func() error {
			return a.UpdatesService.CheckUpgradable(context.Background())
		}},
	}

	for _, job := range jobs {
		if !job.enabled {
			a.Logger.Debug().Str("job_name", job.name).Msg("Job disabled by configuration")
			continue
		}
		if err := a.SchedulerService.RegisterJob(job.name, job.schedule, job.description, true, job.handler); err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.name, err)
		}
	}

	return nil
}

// Start publishes discovery documents, subscribes to the update trigger and
// starts the scheduler.
func (a *App) Start() error {
	if err := a.DiscoveryService.PublishSystem(); err != nil {
		return fmt.Errorf("failed to publish system discovery: %w", err)
	}

	if a.Config.Updates.Enabled {
		if err := a.Publisher.Subscribe("updates/trigger", a.UpdatesService.HandleTrigger); err != nil {
			return fmt.Errorf("failed to subscribe to update trigger: %w", err)
		}
	}

	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	a.Logger.Info().Msg("Application started")
	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.Runtime != nil {
		if err := a.Runtime.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close container runtime")
		}
	}

	if a.Publisher != nil {
		a.Publisher.Close()
		a.Logger.Info().Msg("Broker connection closed")
	}

	return nil
}
