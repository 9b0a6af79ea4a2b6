package models

// ContainerInfo is a summary entry from the runtime inventory.
type ContainerInfo struct {
	ID     string
	Name   string
	State  string // "running", "exited", ...
	SizeRw int64  // writable layer size in bytes
}

// ContainerState holds the health-oriented subset of a container inspection.
type ContainerState struct {
	Status       string // "up" or "down"
	Health       string // "healthy", "unhealthy", "starting" or "none"
	RestartCount int
}

// ContainerStats holds one resource usage sample for a container.
type ContainerStats struct {
	CPUPercent float64
	MemPercent float64
	MemUsage   string // "used / limit", human readable
}

// MaintenanceSpec describes a privileged one-shot command executed through
// the container runtime (host package updates run this way, chrooted into
// the host filesystem).
type MaintenanceSpec struct {
	Image       string
	Cmd         []string
	Binds       []string
	HostNetwork bool
}
