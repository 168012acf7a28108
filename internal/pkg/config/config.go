// Package config assembles the application configuration for the binaries:
// transport credentials, server addresses, and scheduler settings, all
// sourced from environment variables with optional YAML task overrides.
package config

import (
	"time"

	"alerthub/pkg/config"
)

// App holds the runtime configuration shared by the worker and API binaries.
type App struct {
	// HTTPAddr is the control API listen address.
	HTTPAddr string
	// MetricsAddr is the Prometheus scrape listen address.
	MetricsAddr string
	// Version is reported by the health endpoint.
	Version string

	// SchedulerEnabled selects the in-process scheduler. When false the
	// worker only exposes its cron entrypoints and an external scheduler
	// is expected to invoke them.
	SchedulerEnabled bool
	// TaskOverridesPath optionally points at a YAML file adjusting task
	// intervals and enablement.
	TaskOverridesPath string

	// RequestTimeout bounds control API request handling. Must cover a
	// full manually-triggered batch run.
	RequestTimeout time.Duration

	SMTP SMTPConfig
	SMS  SMSGatewayConfig
}

// SMTPConfig is the email transport configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMSGatewayConfig is the SMS gateway transport configuration. Empty URL or
// key leaves the SMS channel in not-configured mode.
type SMSGatewayConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

// Load reads the application configuration from the environment. Malformed
// values fall back to defaults with a warning; startup never fails on
// configuration alone.
func Load() *App {
	return &App{
		HTTPAddr:          config.GetEnvString("HTTP_ADDR", ":8080"),
		MetricsAddr:       config.GetEnvString("METRICS_ADDR", ":9090"),
		Version:           config.GetEnvString("APP_VERSION", "dev"),
		SchedulerEnabled:  config.GetEnvBool("ENABLE_TASK_SCHEDULER", true),
		TaskOverridesPath: config.GetEnvString("TASK_OVERRIDES_FILE", ""),
		RequestTimeout:    config.GetEnvDuration("HTTP_REQUEST_TIMEOUT", 2*time.Minute),
		SMTP: SMTPConfig{
			Host:     config.GetEnvString("SMTP_HOST", "localhost"),
			Port:     config.GetEnvInt("SMTP_PORT", 587),
			Username: config.GetEnvString("SMTP_USERNAME", ""),
			Password: config.GetEnvString("SMTP_PASSWORD", ""),
			From:     config.GetEnvString("SMTP_FROM", "alerts@example.com"),
		},
		SMS: SMSGatewayConfig{
			APIURL:  config.GetEnvString("SMS_API_URL", ""),
			APIKey:  config.GetEnvString("SMS_API_KEY", ""),
			Timeout: config.GetEnvDuration("SMS_TIMEOUT", 10*time.Second),
		},
	}
}
