package updates

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Commands run chrooted into the host filesystem through a maintenance
// container, matching how the monitor is normally deployed (inside a
// container itself, with no direct apt access).
const (
	countCommand   = "chroot /host apt list --upgradable 2>/dev/null | grep -c upgradable || true"
	upgradeCommand = "export DEBIAN_FRONTEND=noninteractive && " +
		"chroot /host apt-get update && " +
		"chroot /host apt-get -o Dpkg::Options::=--force-confdef -o Dpkg::Options::=--force-conffold upgrade -y"
)

// Service checks for and applies host package updates, publishing progress
// to the bus.
type Service struct {
	runtime   interfaces.ContainerRuntime
	publisher interfaces.Publisher
	image     string
	logger    arbor.ILogger
	upgrading atomic.Bool
}

// NewService creates an updates service using the given maintenance image.
func NewService(runtime interfaces.ContainerRuntime, publisher interfaces.Publisher, image string, logger arbor.ILogger) *Service {
	return &Service{
		runtime:   runtime,
		publisher: publisher,
		image:     image,
		logger:    logger,
	}
}

// CheckUpgradable counts upgradable host packages and publishes the count.
// A failed check publishes zero rather than erroring the cycle.
func (s *Service) CheckUpgradable(ctx context.Context) error {
	out, err := s.runtime.RunMaintenance(ctx, models.MaintenanceSpec{
		Image:       s.image,
		Cmd:         []string{"bash", "-c", countCommand},
		Binds:       []string{"/:/host:ro"},
		HostNetwork: true,
	})

	count := 0
	if err != nil {
		s.logger.Warn().Err(err).Msg("Update check failed")
	} else {
		count = parseCount(out)
	}

	return s.publisher.Publish("updates/count", count)
}

// RunUpgrade performs the host package upgrade, publishing status
// transitions (running, then done or failed). Concurrent triggers are
// coalesced into the in-flight run.
func (s *Service) RunUpgrade(ctx context.Context) {
	if !s.upgrading.CompareAndSwap(false, true) {
		s.logger.Info().Msg("Upgrade already in progress, ignoring trigger")
		return
	}
	defer s.upgrading.Store(false)

	s.logger.Info().Msg("Host package upgrade started")
	s.publisher.Publish("updates/status", "running") //nolint:errcheck

	_, err := s.runtime.RunMaintenance(ctx, models.MaintenanceSpec{
		Image:       s.image,
		Cmd:         []string{"bash", "-c", upgradeCommand},
		Binds:       []string{"/:/host:rw"},
		HostNetwork: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Host package upgrade failed")
		msg := err.Error()
		if len(msg) > 200 {
			msg = msg[:200]
		}
		s.publisher.Publish("updates/status", "failed: "+msg) //nolint:errcheck
		return
	}

	s.logger.Info().Msg("Host package upgrade completed")
	s.publisher.Publish("updates/status", "done") //nolint:errcheck
}

// HandleTrigger processes an inbound trigger payload from the bus.
func (s *Service) HandleTrigger(payload string) {
	switch strings.TrimSpace(payload) {
	case "run", "1", "true":
		common.SafeGo(s.logger, "run-upgrade", func() {
			s.RunUpgrade(context.Background())
		})
	default:
		s.logger.Debug().Str("payload", payload).Msg("Ignoring unrecognized update trigger payload")
	}
}

// parseCount extracts the trailing integer from the check command output.
func parseCount(out string) int {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	count, err := strconv.Atoi(last)
	if err != nil {
		return 0
	}
	return count
}
