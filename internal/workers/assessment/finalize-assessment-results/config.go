package finalizeassessmentresults

import (
	"time"

	"career-readiness/internal/common/config"
	"career-readiness/internal/scoring"
)

type Config struct {
	Timeout      time.Duration
	DefaultScore int
}

func LoadConfig(wcfg config.WorkerConfig, scfg config.ScoringConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	fallback := scfg.DefaultAIScore
	if fallback <= 0 || fallback > 100 {
		fallback = scoring.DefaultCategoryScore
	}
	return &Config{Timeout: timeout, DefaultScore: fallback}
}
