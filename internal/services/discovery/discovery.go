package discovery

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// discoveryPrefix is the topic root the dashboard watches for discovery
// documents.
const discoveryPrefix = "homeassistant"

// errTemplate shortens error messages for display and maps the sentinel to
// a plain "none".
const errTemplate = "{{ value_json.msg[:200] if value_json.msg and value_json.msg != 'none' else 'none' }}"

// deviceInfo groups every published sensor under one dashboard device.
type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// entityConfig is one Home Assistant MQTT discovery document.
type entityConfig struct {
	Name              string     `json:"name"`
	StateTopic        string     `json:"state_topic,omitempty"`
	CommandTopic      string     `json:"command_topic,omitempty"`
	PayloadPress      string     `json:"payload_press,omitempty"`
	UniqueID          string     `json:"unique_id"`
	Icon              string     `json:"icon,omitempty"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	ValueTemplate     string     `json:"value_template,omitempty"`
	Device            deviceInfo `json:"device"`
}

// containerSensor describes one per-container sensor to announce.
type containerSensor struct {
	suffix   string
	label    string
	unit     string
	icon     string
	template string
}

var containerSensors = []containerSensor{
	{suffix: "status", label: "Status", icon: "mdi:docker"},
	{suffix: "health", label: "Health", icon: "mdi:heart-pulse"},
	{suffix: "cpu_percent", label: "CPU", unit: "%", icon: "mdi:cpu-64-bit"},
	{suffix: "mem_percent", label: "Memory", unit: "%", icon: "mdi:memory"},
	{suffix: "mem_usage", label: "Memory Usage", icon: "mdi:memory"},
	{suffix: "disk_size", label: "Disk Size", icon: "mdi:harddisk"},
	{suffix: "restart_count", label: "Restarts", icon: "mdi:restart"},
	{suffix: "error_count", label: "Errors", icon: "mdi:alert-circle"},
	{suffix: "last_error", label: "Last Error", icon: "mdi:alert", template: errTemplate},
	{suffix: "last_error_level", label: "Error Level", icon: "mdi:alert-octagram"},
}

// Service publishes Home Assistant MQTT discovery documents for containers
// and system-level sensors. Documents are retained by the broker, so each is
// published at most once per process per object.
type Service struct {
	publisher interfaces.Publisher
	prefix    string
	logger    arbor.ILogger

	mu         sync.Mutex
	discovered map[string]bool
	systemDone bool
}

// NewService creates a discovery service publishing under the given state
// topic prefix.
func NewService(publisher interfaces.Publisher, topicPrefix string, logger arbor.ILogger) *Service {
	return &Service{
		publisher:  publisher,
		prefix:     topicPrefix,
		discovered: make(map[string]bool),
		logger:     logger,
	}
}

func device() deviceInfo {
	return deviceInfo{
		Identifiers:  []string{"server_monitor"},
		Name:         "Server Monitor",
		Manufacturer: "Custom",
		Model:        "Docker Monitor",
	}
}

// PublishContainer announces the sensor set for one container. Subsequent
// calls for the same name are no-ops.
func (s *Service) PublishContainer(name string) error {
	s.mu.Lock()
	if s.discovered[name] {
		s.mu.Unlock()
		return nil
	}
	s.discovered[name] = true
	s.mu.Unlock()

	safeName := strings.NewReplacer("-", "_", ".", "_").Replace(name)

	for _, sensor := range containerSensors {
		objectID := fmt.Sprintf("container_%s_%s", safeName, sensor.suffix)
		config := entityConfig{
			Name:              fmt.Sprintf("%s %s", name, sensor.label),
			StateTopic:        fmt.Sprintf("%s/containers/%s/%s", s.prefix, name, sensor.suffix),
			UniqueID:          objectID,
			Icon:              sensor.icon,
			UnitOfMeasurement: sensor.unit,
			ValueTemplate:     sensor.template,
			Device:            device(),
		}
		if err := s.publishConfig("sensor", objectID, config); err != nil {
			return err
		}
	}

	s.logger.Debug().Str("container", name).Msg("Container discovery published")
	return nil
}

// PublishSystem announces the system-level sensors, the updates button and
// the initial values for server-wide topics. Safe to call repeatedly; only
// the first call publishes.
func (s *Service) PublishSystem() error {
	s.mu.Lock()
	if s.systemDone {
		s.mu.Unlock()
		return nil
	}
	s.systemDone = true
	s.mu.Unlock()

	systemSensors := []struct {
		objectID string
		name     string
		suffix   string
		icon     string
		template string
	}{
		{objectID: "updates_count", name: "Updates Available", suffix: "updates/count", icon: "mdi:package-up"},
		{objectID: "updates_status", name: "Update Status", suffix: "updates/status", icon: "mdi:package-check"},
		{objectID: "io_error_count", name: "IO Errors", suffix: "system/io_error_count", icon: "mdi:harddisk-remove"},
		{objectID: "last_io_error", name: "Last IO Error", suffix: "system/last_io_error", icon: "mdi:alert-octagon", template: errTemplate},
	}

	for _, sensor := range systemSensors {
		objectID := "server_" + sensor.objectID
		config := entityConfig{
			Name:          sensor.name,
			StateTopic:    fmt.Sprintf("%s/%s", s.prefix, sensor.suffix),
			UniqueID:      objectID,
			Icon:          sensor.icon,
			ValueTemplate: sensor.template,
			Device:        device(),
		}
		if err := s.publishConfig("sensor", objectID, config); err != nil {
			return err
		}
	}

	button := entityConfig{
		Name:         "Run Server Updates",
		UniqueID:     "server_run_updates",
		CommandTopic: fmt.Sprintf("%s/updates/trigger", s.prefix),
		PayloadPress: "run",
		Icon:         "mdi:update",
		Device:       device(),
	}
	if err := s.publishConfig("button", "server_run_updates", button); err != nil {
		return err
	}

	// Initial values for server-wide sensors.
	if err := s.publisher.Publish("updates/status", "idle"); err != nil {
		return err
	}
	if err := s.publisher.Publish("system/last_io_error", models.NoErrorSentinel(models.EntityKernel)); err != nil {
		return err
	}
	if err := s.publisher.Publish("system/io_error_count", 0); err != nil {
		return err
	}

	s.logger.Info().Msg("System discovery published")
	return nil
}

func (s *Service) publishConfig(component, objectID string, config entityConfig) error {
	topic := fmt.Sprintf("%s/%s/%s/config", discoveryPrefix, component, objectID)
	if err := s.publisher.PublishTopic(topic, config); err != nil {
		return fmt.Errorf("failed to publish discovery for %s: %w", objectID, err)
	}
	return nil
}
