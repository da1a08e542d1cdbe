// internal/workers/application/send-notification/config.go
package sendnotification

import (
	"time"

	"loan-intake/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	// Strict fails the job with a retryable error when a channel cannot deliver.
	Strict  bool
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig, nc config.NotificationConfig) *Config {
	cfg := &Config{
		EmailEnabled: nc.Enabled && nc.AWS.SES.Enabled,
		SMSEnabled:   nc.Enabled && nc.AWS.SNS.Enabled,
		Strict:       nc.Strict,
		Timeout:      30 * time.Second,
	}
	if wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}
