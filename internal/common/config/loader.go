package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Section names a configuration block a command depends on.
type Section string

const (
	SectionCamunda       Section = "camunda"
	SectionRedis         Section = "redis"
	SectionElasticsearch Section = "elasticsearch"
	SectionServer        Section = "server"
	SectionAIService     Section = "ai_service"
)

// Load reads configs/config.yaml, merges config.{APP_ENVIRONMENT}.yaml and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile reads a single YAML file, used by the tools and tests.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		possiblePaths = append(possiblePaths, filepath.Join(root, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Server.JWTSecret, "JWT_SECRET")
	setIfEmpty(&cfg.APIs.AIService.APIKey, "AI_SERVICE_API_KEY")
	setIfEmpty(&cfg.APIs.GoogleVision.APIKey, "GOOGLE_VISION_API_KEY")
	setIfEmpty(&cfg.APIs.GoogleVision.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setIfEmpty(&cfg.Auth.Keycloak.ClientSecret, "KEYCLOAK_CLIENT_SECRET")
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "career-readiness"
	}

	if cfg.Camunda.ProcessID == "" {
		cfg.Camunda.ProcessID = "assessment-processing"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Camunda.RegistryPath == "" {
		cfg.Camunda.RegistryPath = "configs/activity-registry.json"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "assessments"
	}
	if cfg.Database.Redis.ResultsCacheTTL == 0 {
		cfg.Database.Redis.ResultsCacheTTL = 30000
	}
	if cfg.Database.Redis.RouteCacheTTL == 0 {
		cfg.Database.Redis.RouteCacheTTL = 600000
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":3000"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploads/resumes"
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 5 << 20
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}

	if cfg.APIs.AIService.Timeout == 0 {
		cfg.APIs.AIService.Timeout = 60000
	}
	if cfg.APIs.AIService.MaxRetries == 0 {
		cfg.APIs.AIService.MaxRetries = 2
	}

	if cfg.Notifications.AWSRegion == "" {
		cfg.Notifications.AWSRegion = "us-east-1"
	}

	if cfg.Report.PDFTimeout == 0 {
		cfg.Report.PDFTimeout = 60000
	}
	if cfg.Report.BrandName == "" {
		cfg.Report.BrandName = "Career Readiness"
	}

	if cfg.Scoring.DefaultAIScore == 0 {
		cfg.Scoring.DefaultAIScore = 70
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.SampleRatio == 0 {
		cfg.Observability.SampleRatio = 1
	}
	if cfg.Observability.MetricsAddr == "" {
		cfg.Observability.MetricsAddr = ":8080"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if s := cfg.Scoring.DefaultAIScore; s < 0 || s > 100 {
		return fmt.Errorf("scoring.default_ai_score must be within 0..100, got %d", s)
	}
	return nil
}

// Require checks the sections a particular command needs beyond Postgres.
func (c *Config) Require(sections ...Section) error {
	for _, s := range sections {
		switch s {
		case SectionCamunda:
			if c.Camunda.BrokerAddress == "" {
				return fmt.Errorf("camunda.broker_address is required")
			}
		case SectionRedis:
			if c.Database.Redis.Address == "" {
				return fmt.Errorf("database.redis.address is required")
			}
		case SectionElasticsearch:
			if len(c.Database.Elasticsearch.Addresses) == 0 {
				return fmt.Errorf("database.elasticsearch.addresses is required")
			}
		case SectionServer:
			if c.Server.JWTSecret == "" {
				return fmt.Errorf("server.jwt_secret is required")
			}
		case SectionAIService:
			if c.APIs.AIService.BaseURL == "" {
				return fmt.Errorf("apis.ai_service.base_url is required")
			}
		default:
			return fmt.Errorf("unknown config section %q", s)
		}
	}
	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the worker block or a default enabled config.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
