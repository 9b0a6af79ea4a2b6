package runtime

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"

	"github.com/ternarybob/vigil/internal/models"
)

// RunMaintenance executes a one-shot command container and returns its
// combined output. Used for privileged host maintenance (package update
// checks and upgrades chrooted into the host filesystem).
func (d *DockerRuntime) RunMaintenance(ctx context.Context, spec models.MaintenanceSpec) (string, error) {
	d.ensureImage(ctx, spec.Image)

	config := &container.Config{
		Image: spec.Image,
		Cmd:   spec.Cmd,
		User:  "root",
	}
	hostConfig := &container.HostConfig{Binds: spec.Binds}
	if spec.HostNetwork {
		hostConfig.NetworkMode = "host"
	}

	created, err := d.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create maintenance container: %w", err)
	}
	defer func() {
		removeCtx := context.WithoutCancel(ctx)
		if err := d.cli.ContainerRemove(removeCtx, created.ID, container.RemoveOptions{Force: true}); err != nil {
			d.logger.Warn().Err(err).Str("container_id", created.ID).Msg("Failed to remove maintenance container")
		}
	}()

	if err := d.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start maintenance container: %w", err)
	}

	waitCh, errCh := d.cli.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		return "", fmt.Errorf("failed waiting for maintenance container: %w", err)
	case status := <-waitCh:
		exitCode = status.StatusCode
	}

	output := ""
	rc, err := d.cli.ContainerLogs(ctx, created.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err == nil {
		output = d.readLogStream(rc, false)
		rc.Close()
	}

	if exitCode != 0 {
		return output, fmt.Errorf("maintenance command exited with status %d", exitCode)
	}
	return output, nil
}

// ensureImage pulls the maintenance image; a failed pull is tolerated when
// the image is already present locally.
func (d *DockerRuntime) ensureImage(ctx context.Context, ref string) {
	rc, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		d.logger.Debug().Err(err).Str("image", ref).Msg("Image pull failed, using local copy if present")
		return
	}
	defer rc.Close()
	io.Copy(io.Discard, rc) //nolint:errcheck // draining pull progress only
}
