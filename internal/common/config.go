package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	MQTT        MQTTConfig    `toml:"mqtt"`
	Monitor     MonitorConfig `toml:"monitor"`
	Updates     UpdatesConfig `toml:"updates"`
	Logging     LoggingConfig `toml:"logging"`
}

// MQTTConfig contains broker connection and publish behavior settings
type MQTTConfig struct {
	Host           string  `toml:"host" validate:"required"`
	Port           int     `toml:"port" validate:"gte=1,lte=65535"`
	Username       string  `toml:"username"`
	Password       string  `toml:"password"`
	TopicPrefix    string  `toml:"topic_prefix" validate:"required"` // e.g. "server" -> server/containers/plex/status
	ConnectTimeout string  `toml:"connect_timeout"`                  // duration string
	PublishRate    float64 `toml:"publish_rate"`                     // max retained publishes per second, 0 = unlimited
}

// MonitorConfig contains scan cycle and classification settings
type MonitorConfig struct {
	Schedule       string   `toml:"schedule" validate:"required"`   // cron spec for scan cycles, supports "@every 5m"
	LogWindow      string   `toml:"log_window" validate:"required"` // how far back container logs are fetched
	Keywords       []string `toml:"keywords"`                       // broad error-indicating keywords for container logs
	KernelKeywords []string `toml:"kernel_keywords"`                // I/O and disk error keywords for the kernel ring buffer
	KernelEnabled  bool     `toml:"kernel_enabled"`
}

// UpdatesConfig contains host package update settings
type UpdatesConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron spec for the upgradable package check
	Image    string `toml:"image"`    // maintenance image used to chroot into the host
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Keyword defaults mirror the classification rule tables; only user-facing
// settings should need overriding in vigil.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "production",
		MQTT: MQTTConfig{
			Host:           "localhost",
			Port:           1883,
			TopicPrefix:    "server",
			ConnectTimeout: "30s",
			PublishRate:    0,
		},
		Monitor: MonitorConfig{
			Schedule:  "@every 5m",
			LogWindow: "5m",
			Keywords: []string{
				"ERROR",
				"CRITICAL",
				"WARN",
				"WARNING",
				"Exception",
				"FATAL",
			},
			KernelKeywords: []string{
				"i/o error",
				"I/O error",
				"nvme",
				"NVMe",
				"critical medium error",
				"medium error",
				"blk_update_request",
				"buffer I/O error",
				"DRDY ERR",
				"reset failed",
				"timeout",
			},
			KernelEnabled: true,
		},
		Updates: UpdatesConfig{
			Enabled:  true,
			Schedule: "@every 6h",
			Image:    "ubuntu:22.04",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks field constraints and schedule/duration syntax
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := ValidateSchedule(c.Monitor.Schedule); err != nil {
		return fmt.Errorf("invalid monitor schedule: %w", err)
	}
	if c.Updates.Enabled {
		if err := ValidateSchedule(c.Updates.Schedule); err != nil {
			return fmt.Errorf("invalid updates schedule: %w", err)
		}
	}
	if _, err := time.ParseDuration(c.Monitor.LogWindow); err != nil {
		return fmt.Errorf("invalid log window %q: %w", c.Monitor.LogWindow, err)
	}
	return nil
}

// ValidateSchedule checks a cron expression (standard 5-field or @descriptor)
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule cannot be empty")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	return nil
}

// LogWindowDuration returns the parsed log window. Validate guarantees the
// value parses; the fallback covers zero-value configs in tests.
func (m MonitorConfig) LogWindowDuration() time.Duration {
	d, err := time.ParseDuration(m.LogWindow)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// ConnectTimeoutDuration returns the parsed broker connect timeout
func (m MQTTConfig) ConnectTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(m.ConnectTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VIGIL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// MQTT configuration
	if host := os.Getenv("VIGIL_MQTT_HOST"); host != "" {
		config.MQTT.Host = host
	}
	if port := os.Getenv("VIGIL_MQTT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.MQTT.Port = p
		}
	}
	if user := os.Getenv("VIGIL_MQTT_USERNAME"); user != "" {
		config.MQTT.Username = user
	}
	if password := os.Getenv("VIGIL_MQTT_PASSWORD"); password != "" {
		config.MQTT.Password = password
	}
	if prefix := os.Getenv("VIGIL_TOPIC_PREFIX"); prefix != "" {
		config.MQTT.TopicPrefix = prefix
	}
	if rate := os.Getenv("VIGIL_MQTT_PUBLISH_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.MQTT.PublishRate = r
		}
	}

	// Monitor configuration
	if schedule := os.Getenv("VIGIL_MONITOR_SCHEDULE"); schedule != "" {
		config.Monitor.Schedule = schedule
	}
	if window := os.Getenv("VIGIL_MONITOR_LOG_WINDOW"); window != "" {
		config.Monitor.LogWindow = window
	}
	if keywords := os.Getenv("VIGIL_MONITOR_KEYWORDS"); keywords != "" {
		config.Monitor.Keywords = splitCommaList(keywords)
	}
	if keywords := os.Getenv("VIGIL_MONITOR_KERNEL_KEYWORDS"); keywords != "" {
		config.Monitor.KernelKeywords = splitCommaList(keywords)
	}
	if enabled := os.Getenv("VIGIL_MONITOR_KERNEL_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Monitor.KernelEnabled = e
		}
	}

	// Updates configuration
	if enabled := os.Getenv("VIGIL_UPDATES_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Updates.Enabled = e
		}
	}
	if schedule := os.Getenv("VIGIL_UPDATES_SCHEDULE"); schedule != "" {
		config.Updates.Schedule = schedule
	}
	if image := os.Getenv("VIGIL_UPDATES_IMAGE"); image != "" {
		config.Updates.Image = image
	}

	// Logging configuration
	if level := os.Getenv("VIGIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("VIGIL_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("VIGIL_LOG_OUTPUT"); output != "" {
		if outputs := splitCommaList(output); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

func splitCommaList(value string) []string {
	parts := []string{}
	for _, p := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
