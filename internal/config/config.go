// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
//
// Process configuration covers the daemon surface (log level, metrics
// listener, settings file override). User-facing settings live in the
// versioned document owned by internal/settings.
package config

type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the Prometheus exposition listener, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// SettingsPath overrides the platform-default settings.json location.
	SettingsPath string `koanf:"settings_path"`

	// EventBufferSize bounds each event-bus subscriber channel.
	EventBufferSize int `koanf:"event_buffer_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		MetricsAddr:     ":9102",
		SettingsPath:    "",
		EventBufferSize: 256,
	}
}
