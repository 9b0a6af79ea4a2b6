package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// DockerRuntime implements interfaces.ContainerRuntime against the local
// Docker daemon.
type DockerRuntime struct {
	cli    *client.Client
	logger arbor.ILogger
}

// NewDockerRuntime creates a runtime client from the environment
// (DOCKER_HOST et al) with API version negotiation.
func NewDockerRuntime(logger arbor.ILogger) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerRuntime{cli: cli, logger: logger}, nil
}

// ListContainers returns all containers including stopped ones, with
// writable layer sizes.
func (d *DockerRuntime) ListContainers(ctx context.Context) ([]models.ContainerInfo, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{All: true, Size: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	infos := make([]models.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		infos = append(infos, models.ContainerInfo{
			ID:     c.ID,
			Name:   containerName(c),
			State:  c.State,
			SizeRw: c.SizeRw,
		})
	}
	return infos, nil
}

// ContainerLogs returns combined stdout/stderr text covering the given
// window. Failures are wrapped as ErrSourceUnavailable so callers can
// synthesize a failure event instead of scanning.
func (d *DockerRuntime) ContainerLogs(ctx context.Context, name string, window time.Duration) (string, error) {
	rc, err := d.cli.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Since:      window.String(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: docker logs for %s: %v", interfaces.ErrSourceUnavailable, name, err)
	}
	defer rc.Close()

	tty := false
	if inspect, err := d.cli.ContainerInspect(ctx, name); err == nil && inspect.Config != nil {
		tty = inspect.Config.Tty
	}

	return d.readLogStream(rc, tty), nil
}

// readLogStream drains a log stream, demultiplexing the stdout/stderr
// framing unless the container runs with a TTY (raw stream).
func (d *DockerRuntime) readLogStream(rc io.Reader, tty bool) string {
	var buf bytes.Buffer
	if tty {
		io.Copy(&buf, rc) //nolint:errcheck // partial logs are still scannable
		return buf.String()
	}

	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		d.logger.Debug().Err(err).Msg("Log stream demux ended early")
	}
	return buf.String()
}

// ContainerState returns status, health and restart count for a container.
func (d *DockerRuntime) ContainerState(ctx context.Context, name string) (models.ContainerState, error) {
	inspect, err := d.cli.ContainerInspect(ctx, name)
	if err != nil {
		return models.ContainerState{}, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}

	state := models.ContainerState{Status: "down", Health: "none"}
	if inspect.State != nil {
		if inspect.State.Status == "running" {
			state.Status = "up"
		}
		if inspect.State.Health != nil {
			switch inspect.State.Health.Status {
			case "healthy", "unhealthy", "starting":
				state.Health = inspect.State.Health.Status
			}
		}
		state.RestartCount = inspect.RestartCount
	}
	return state, nil
}

// Close releases the daemon connection.
func (d *DockerRuntime) Close() error {
	return d.cli.Close()
}

func containerName(c types.Container) string {
	if len(c.Names) == 0 {
		if len(c.ID) >= 12 {
			return c.ID[:12]
		}
		return c.ID
	}
	return strings.TrimPrefix(c.Names[0], "/")
}
