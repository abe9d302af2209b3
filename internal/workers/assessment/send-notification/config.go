// internal/workers/assessment/send-notification/config.go
package sendnotification

import (
	"strings"
	"time"

	"career-readiness/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	PublicURL    string
	BrandName    string
}

func LoadConfig(wcfg config.WorkerConfig, cfg *config.Config) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	brand := cfg.Report.BrandName
	if brand == "" {
		brand = "Career Readiness"
	}
	return &Config{
		Timeout:      timeout,
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		PublicURL:    strings.TrimRight(cfg.App.PublicURL, "/"),
		BrandName:    brand,
	}
}
