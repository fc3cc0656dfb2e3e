package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Worker    WorkerConfig    `yaml:"worker" mapstructure:"worker"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Budget    BudgetConfig    `yaml:"budget" mapstructure:"budget"`
	Replay    ReplayConfig    `yaml:"replay" mapstructure:"replay"`
	Flags     FlagsConfig     `yaml:"flags" mapstructure:"flags"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ProvidersConfig holds per-provider search credentials and rate limits.
type ProvidersConfig struct {
	Serper SerperConfig `yaml:"serper" mapstructure:"serper"`
	Brave  BraveConfig  `yaml:"brave" mapstructure:"brave"`
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`
}

// SerperConfig configures the Serper general-web-search provider.
type SerperConfig struct {
	Key   string  `yaml:"key" mapstructure:"key"`
	QPS   float64 `yaml:"qps" mapstructure:"qps"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// BraveConfig configures the Brave Search provider.
type BraveConfig struct {
	Key   string  `yaml:"key" mapstructure:"key"`
	QPS   float64 `yaml:"qps" mapstructure:"qps"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// GitHubConfig configures the GitHub native-API provider.
type GitHubConfig struct {
	Token string  `yaml:"token" mapstructure:"token"`
	QPS   float64 `yaml:"qps" mapstructure:"qps"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// QueueConfig configures the durable job queue backend.
type QueueConfig struct {
	Backend   string `yaml:"backend" mapstructure:"backend"` // "temporal" or "local"
	HostPort  string `yaml:"host_port" mapstructure:"host_port"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue string `yaml:"task_queue" mapstructure:"task_queue"`
}

// WorkerConfig configures the worker pool that drains the queue.
type WorkerConfig struct {
	Concurrency         int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts         int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffSecs  int `yaml:"initial_backoff_secs" mapstructure:"initial_backoff_secs"`
	CompletedRetainHours int `yaml:"completed_retain_hours" mapstructure:"completed_retain_hours"`
	FailedRetainHours   int `yaml:"failed_retain_hours" mapstructure:"failed_retain_hours"`
}

// ScoringConfig holds the C4 thresholds that govern bucketing and the
// persistence gate.
type ScoringConfig struct {
	AutoMergeThreshold float64 `yaml:"auto_merge_threshold" mapstructure:"auto_merge_threshold"`
	SuggestThreshold   float64 `yaml:"suggest_threshold" mapstructure:"suggest_threshold"`
	LowThreshold       float64 `yaml:"low_threshold" mapstructure:"low_threshold"`
	MinConfidence      float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	Tier2Cap           int     `yaml:"tier2_cap" mapstructure:"tier2_cap"`
}

// BudgetConfig is the viper-sourced form of model.EnrichmentBudget.
type BudgetConfig struct {
	MaxTotalQueries           int     `yaml:"max_total_queries" mapstructure:"max_total_queries"`
	MaxPlatforms              int     `yaml:"max_platforms" mapstructure:"max_platforms"`
	MaxIdentitiesPerPlatform  int     `yaml:"max_identities_per_platform" mapstructure:"max_identities_per_platform"`
	OverallTimeoutSecs        int     `yaml:"overall_timeout_secs" mapstructure:"overall_timeout_secs"`
	MaxParallelPlatforms      int     `yaml:"max_parallel_platforms" mapstructure:"max_parallel_platforms"`
	MinConfidenceForEarlyStop float64 `yaml:"min_confidence_for_early_stop" mapstructure:"min_confidence_for_early_stop"`
}

// ReplayConfig configures the deterministic fixture-backed search transport
// used by the offline evaluation harness.
type ReplayConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	FixtureDir string `yaml:"fixture_dir" mapstructure:"fixture_dir"`
}

// FlagsConfig holds operator-controlled feature flags.
type FlagsConfig struct {
	CommitEvidence bool `yaml:"commit_evidence" mapstructure:"commit_evidence"`
}

// ServerConfig configures the HTTP API (enqueue, session, progress stream, health).
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks required configuration fields based on run mode.
// Supported modes: "worker", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "worker":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
		if c.Queue.Backend == "temporal" && c.Queue.HostPort == "" {
			errs = append(errs, "queue.host_port is required when queue.backend=temporal")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Worker.Concurrency < 1 || c.Worker.Concurrency > 100 {
		errs = append(errs, "worker.concurrency must be between 1 and 100")
	}
	if c.Scoring.AutoMergeThreshold < 0 || c.Scoring.AutoMergeThreshold > 1 {
		errs = append(errs, "scoring.auto_merge_threshold must be between 0.0 and 1.0")
	}
	if c.Scoring.MinConfidence < 0 || c.Scoring.MinConfidence > 1 {
		errs = append(errs, "scoring.min_confidence must be between 0.0 and 1.0")
	}
	if c.Budget.MaxTotalQueries < 1 {
		errs = append(errs, "budget.max_total_queries must be >= 1")
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: validation failed: %s", strings.Join(errs, "; ")))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("IDRESOLVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("providers.serper.qps", 5.0)
	v.SetDefault("providers.serper.burst", 5)
	v.SetDefault("providers.brave.qps", 1.0)
	v.SetDefault("providers.brave.burst", 2)
	v.SetDefault("providers.github.qps", 1.0)
	v.SetDefault("providers.github.burst", 3)

	v.SetDefault("queue.backend", "temporal")
	v.SetDefault("queue.host_port", "localhost:7233")
	v.SetDefault("queue.namespace", "default")
	v.SetDefault("queue.task_queue", "identity-resolution")

	v.SetDefault("worker.concurrency", 3)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.initial_backoff_secs", 5)
	v.SetDefault("worker.completed_retain_hours", 24)
	v.SetDefault("worker.failed_retain_hours", 168)

	v.SetDefault("scoring.auto_merge_threshold", 0.90)
	v.SetDefault("scoring.suggest_threshold", 0.70)
	v.SetDefault("scoring.low_threshold", 0.35)
	v.SetDefault("scoring.min_confidence", 0.25)
	v.SetDefault("scoring.tier2_cap", 3)

	v.SetDefault("budget.max_total_queries", 30)
	v.SetDefault("budget.max_platforms", 10)
	v.SetDefault("budget.max_identities_per_platform", 5)
	v.SetDefault("budget.overall_timeout_secs", 60)
	v.SetDefault("budget.max_parallel_platforms", 3)
	v.SetDefault("budget.min_confidence_for_early_stop", 0.90)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.fixture_dir", "internal/search/testdata")

	v.SetDefault("flags.commit_evidence", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
