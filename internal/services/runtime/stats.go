package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-units"

	"github.com/ternarybob/vigil/internal/models"
)

// ContainerStats returns one CPU/memory usage sample for a container. The
// daemon supplies the previous CPU sample alongside the current one, which
// is what the percentage calculation needs.
func (d *DockerRuntime) ContainerStats(ctx context.Context, name string) (models.ContainerStats, error) {
	resp, err := d.cli.ContainerStats(ctx, name, false)
	if err != nil {
		return models.ContainerStats{}, fmt.Errorf("failed to read stats for %s: %w", name, err)
	}
	defer resp.Body.Close()

	var stats container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return models.ContainerStats{}, fmt.Errorf("failed to decode stats for %s: %w", name, err)
	}

	used, limit := memoryUsage(stats)
	memPercent := 0.0
	if limit > 0 {
		memPercent = float64(used) / float64(limit) * 100
	}

	return models.ContainerStats{
		CPUPercent: round2(cpuPercent(stats)),
		MemPercent: round2(memPercent),
		MemUsage:   fmt.Sprintf("%s / %s", units.BytesSize(float64(used)), units.BytesSize(float64(limit))),
	}, nil
}

func cpuPercent(s container.StatsResponse) float64 {
	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage) - float64(s.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(s.CPUStats.SystemUsage) - float64(s.PreCPUStats.SystemUsage)
	if sysDelta <= 0 || cpuDelta < 0 {
		return 0
	}

	online := float64(s.CPUStats.OnlineCPUs)
	if online == 0 {
		online = float64(len(s.CPUStats.CPUUsage.PercpuUsage))
	}
	return cpuDelta / sysDelta * online * 100
}

// memoryUsage subtracts the page cache the way the docker CLI does: cgroup
// v2 exposes inactive_file, v1 total_inactive_file.
func memoryUsage(s container.StatsResponse) (used, limit uint64) {
	used = s.MemoryStats.Usage
	if cache, ok := s.MemoryStats.Stats["inactive_file"]; ok && cache < used {
		used -= cache
	} else if cache, ok := s.MemoryStats.Stats["total_inactive_file"]; ok && cache < used {
		used -= cache
	}
	return used, s.MemoryStats.Limit
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
