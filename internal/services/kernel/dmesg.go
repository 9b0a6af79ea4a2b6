package kernel

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
)

// EntityID is the tracker key for the host kernel entity.
const EntityID = "kernel"

// Source reads the kernel ring buffer via dmesg. It implements
// interfaces.LogSource for the host kernel entity; the window argument is
// ignored because dmesg always returns the full ring buffer.
type Source struct {
	logger  arbor.ILogger
	timeout time.Duration
}

// NewSource creates a kernel log source.
func NewSource(logger arbor.ILogger) *Source {
	return &Source{logger: logger, timeout: 10 * time.Second}
}

// FetchRecentText runs dmesg with human-readable timestamps and returns its
// output. Failures wrap ErrSourceUnavailable.
func (s *Source) FetchRecentText(ctx context.Context, _ string, _ time.Duration) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := exec.CommandContext(runCtx, "dmesg", "-T").Output()
	if err != nil {
		return "", fmt.Errorf("%w: dmesg: %v", interfaces.ErrSourceUnavailable, err)
	}

	s.logger.Debug().Int("bytes", len(out)).Msg("Kernel ring buffer read")
	return string(out), nil
}
