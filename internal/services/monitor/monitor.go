package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/discovery"
	"github.com/ternarybob/vigil/internal/services/kernel"
	"github.com/ternarybob/vigil/internal/services/publish"
	"github.com/ternarybob/vigil/internal/services/scanner"
	"github.com/ternarybob/vigil/internal/services/tracker"
)

// Service orchestrates scan-and-publish cycles: it pulls raw text from the
// log sources, drives the scanner and tracker, and pushes rendered state to
// the bus. The scheduler guarantees cycles never overlap.
type Service struct {
	runtime          interfaces.ContainerRuntime
	kernelSource     interfaces.LogSource
	tracker          *tracker.Registry
	containerScans   *scanner.Scanner
	kernelScans      *scanner.Scanner
	publisher        interfaces.Publisher
	discoveryService *discovery.Service
	logWindow        time.Duration
	logger           arbor.ILogger
}

// NewService wires a monitor service.
func NewService(
	runtime interfaces.ContainerRuntime,
	kernelSource interfaces.LogSource,
	registry *tracker.Registry,
	containerScans *scanner.Scanner,
	kernelScans *scanner.Scanner,
	publisher interfaces.Publisher,
	discoveryService *discovery.Service,
	logWindow time.Duration,
	logger arbor.ILogger,
) *Service {
	return &Service{
		runtime:          runtime,
		kernelSource:     kernelSource,
		tracker:          registry,
		containerScans:   containerScans,
		kernelScans:      kernelScans,
		publisher:        publisher,
		discoveryService: discoveryService,
		logWindow:        logWindow,
		logger:           logger,
	}
}

// CheckContainerLogs runs one classification pass over every container's
// log window and publishes the merged error state.
func (s *Service) CheckContainerLogs() error {
	ctx := context.Background()

	containers, err := s.runtime.ListContainers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		if err := s.discoveryService.PublishContainer(c.Name); err != nil {
			s.logger.Warn().Err(err).Str("container", c.Name).Msg("Discovery publish failed")
		}
		s.scanContainer(ctx, c.Name)
	}

	s.logger.Debug().Int("containers", len(containers)).Msg("Container log cycle completed")
	return nil
}

func (s *Service) scanContainer(ctx context.Context, name string) {
	raw, err := s.runtime.ContainerLogs(ctx, name, s.logWindow)

	var result models.ScanResult
	if err != nil {
		// Source outage: record a single synthetic ERROR event instead of scanning.
		s.logger.Warn().Err(err).Str("container", name).Msg("Log fetch failed")
		result = s.containerScans.SynthesizeFailure(name, err)
	} else {
		result = s.containerScans.Scan(name, raw)
	}

	state := s.tracker.Merge(name, models.EntityContainer, result)
	s.publishState(state)
}

// CheckKernelLog scans the kernel ring buffer for I/O errors and publishes
// the merged state. A source failure degrades to an empty window: the count
// resets to zero while sticky error state is preserved.
func (s *Service) CheckKernelLog() error {
	ctx := context.Background()

	result := models.ScanResult{EntityID: kernel.EntityID}
	raw, err := s.kernelSource.FetchRecentText(ctx, kernel.EntityID, s.logWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Kernel log fetch failed")
	} else {
		result = s.kernelScans.Scan(kernel.EntityID, raw)
	}

	state := s.tracker.Merge(kernel.EntityID, models.EntityKernel, result)
	s.publishState(state)
	return nil
}

// CheckContainerHealth publishes status, health and restart counts for all
// containers.
func (s *Service) CheckContainerHealth() error {
	ctx := context.Background()

	containers, err := s.runtime.ListContainers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		state, err := s.runtime.ContainerState(ctx, c.Name)
		if err != nil {
			s.logger.Warn().Err(err).Str("container", c.Name).Msg("Inspect failed")
			state = models.ContainerState{Status: "down", Health: "none"}
		}

		base := "containers/" + c.Name
		s.publishValue(base+"/status", state.Status)
		s.publishValue(base+"/health", state.Health)
		s.publishValue(base+"/restart_count", state.RestartCount)
	}
	return nil
}

// CheckContainerStats publishes one CPU/memory sample per running container.
func (s *Service) CheckContainerStats() error {
	ctx := context.Background()

	containers, err := s.runtime.ListContainers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		if c.State != "running" {
			continue
		}

		stats, err := s.runtime.ContainerStats(ctx, c.Name)
		if err != nil {
			s.logger.Warn().Err(err).Str("container", c.Name).Msg("Stats read failed")
			continue
		}

		base := "containers/" + c.Name
		s.publishValue(base+"/cpu_percent", stats.CPUPercent)
		s.publishValue(base+"/mem_percent", stats.MemPercent)
		s.publishValue(base+"/mem_usage", stats.MemUsage)
	}
	return nil
}

// CheckContainerDisk publishes each container's writable layer size.
func (s *Service) CheckContainerDisk() error {
	ctx := context.Background()

	containers, err := s.runtime.ListContainers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		s.publishValue("containers/"+c.Name+"/disk_size", units.HumanSize(float64(c.SizeRw)))
	}
	return nil
}

func (s *Service) publishState(state models.EntityErrorState) {
	for _, msg := range publish.Render(state) {
		s.publishValue(msg.TopicSuffix, msg.Payload)
	}
}

func (s *Service) publishValue(suffix string, payload interface{}) {
	if err := s.publisher.Publish(suffix, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic_suffix", suffix).Msg("Publish failed")
	}
}
