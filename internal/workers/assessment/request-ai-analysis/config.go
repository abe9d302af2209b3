package requestaianalysis

import (
	"time"

	"career-readiness/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int32
}

// LoadConfig keeps the job timeout above the AI client's own deadline.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	retries := int32(wcfg.MaxRetries)
	if retries <= 0 {
		retries = 3
	}
	return &Config{Timeout: timeout, MaxRetries: retries}
}
