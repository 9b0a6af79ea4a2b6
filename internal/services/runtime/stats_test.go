package runtime

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
)

func statsSample(total, preTotal, sys, preSys uint64, onlineCPUs uint32) container.StatsResponse {
	var s container.StatsResponse
	s.CPUStats.CPUUsage.TotalUsage = total
	s.CPUStats.SystemUsage = sys
	s.CPUStats.OnlineCPUs = onlineCPUs
	s.PreCPUStats.CPUUsage.TotalUsage = preTotal
	s.PreCPUStats.SystemUsage = preSys
	return s
}

func TestCPUPercent(t *testing.T) {
	t.Run("half a core of four", func(t *testing.T) {
		s := statsSample(1_500_000, 1_000_000, 9_000_000, 5_000_000, 4)
		assert.InDelta(t, 50.0, cpuPercent(s), 0.01)
	})

	t.Run("no system delta yields zero", func(t *testing.T) {
		s := statsSample(2_000_000, 1_000_000, 5_000_000, 5_000_000, 4)
		assert.Zero(t, cpuPercent(s))
	})

	t.Run("falls back to percpu length", func(t *testing.T) {
		s := statsSample(1_500_000, 1_000_000, 9_000_000, 5_000_000, 0)
		s.CPUStats.CPUUsage.PercpuUsage = []uint64{1, 2}
		assert.InDelta(t, 25.0, cpuPercent(s), 0.01)
	})
}

func TestMemoryUsage(t *testing.T) {
	t.Run("subtracts inactive file cache", func(t *testing.T) {
		var s container.StatsResponse
		s.MemoryStats.Usage = 1000
		s.MemoryStats.Limit = 4000
		s.MemoryStats.Stats = map[string]uint64{"inactive_file": 300}

		used, limit := memoryUsage(s)
		assert.Equal(t, uint64(700), used)
		assert.Equal(t, uint64(4000), limit)
	})

	t.Run("cgroup v1 key", func(t *testing.T) {
		var s container.StatsResponse
		s.MemoryStats.Usage = 1000
		s.MemoryStats.Stats = map[string]uint64{"total_inactive_file": 250}

		used, _ := memoryUsage(s)
		assert.Equal(t, uint64(750), used)
	})

	t.Run("cache larger than usage is ignored", func(t *testing.T) {
		var s container.StatsResponse
		s.MemoryStats.Usage = 100
		s.MemoryStats.Stats = map[string]uint64{"inactive_file": 500}

		used, _ := memoryUsage(s)
		assert.Equal(t, uint64(100), used)
	})
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 12.35, round2(12.3456), 0.001)
	assert.InDelta(t, 12.34, round2(12.3412), 0.001)
	assert.Zero(t, round2(0))
}

func TestContainerName(t *testing.T) {
	t.Run("strips leading slash", func(t *testing.T) {
		c := types.Container{Names: []string{"/plex"}}
		assert.Equal(t, "plex", containerName(c))
	})

	t.Run("falls back to short id", func(t *testing.T) {
		c := types.Container{ID: "0123456789abcdef"}
		assert.Equal(t, "0123456789ab", containerName(c))
	})
}
