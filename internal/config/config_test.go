package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "temporal", cfg.Queue.Backend)
	assert.Equal(t, "identity-resolution", cfg.Queue.TaskQueue)
	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.Equal(t, 3, cfg.Worker.MaxAttempts)
	assert.InDelta(t, 0.90, cfg.Scoring.AutoMergeThreshold, 0.001)
	assert.Equal(t, 3, cfg.Scoring.Tier2Cap)
	assert.Equal(t, 30, cfg.Budget.MaxTotalQueries)
	assert.Equal(t, 5, cfg.Budget.MaxIdentitiesPerPlatform)
	assert.InDelta(t, 0.90, cfg.Budget.MinConfidenceForEarlyStop, 0.001)
	assert.False(t, cfg.Replay.Enabled)
	assert.False(t, cfg.Flags.CommitEvidence)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
worker:
  concurrency: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Budget.MaxTotalQueries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("IDRESOLVER_STORE_DRIVER", "postgres")
	t.Setenv("IDRESOLVER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("IDRESOLVER_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Worker.Concurrency = 3
	cfg.Scoring.AutoMergeThreshold = 0.9
	cfg.Scoring.MinConfidence = 0.25
	cfg.Budget.MaxTotalQueries = 30
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateWorker_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.Queue.Backend = "local"

	assert.NoError(t, cfg.Validate("worker"))
}

func TestValidateWorker_MissingFields(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("worker")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateWorker_TemporalRequiresHostPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.Queue.Backend = "temporal"

	err := cfg.Validate("worker")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "queue.host_port")
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.Queue.Backend = "local"

	cfg.Worker.Concurrency = 0
	err := cfg.Validate("worker")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "worker.concurrency must be between 1 and 100")

	cfg.Worker.Concurrency = 101
	err = cfg.Validate("worker")
	assert.Error(t, err)

	cfg.Worker.Concurrency = 3
	assert.NoError(t, cfg.Validate("worker"))
}

func TestValidateScoringThresholds(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.Queue.Backend = "local"

	cfg.Scoring.AutoMergeThreshold = -0.1
	err := cfg.Validate("worker")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "auto_merge_threshold")

	cfg.Scoring.AutoMergeThreshold = 0.9
	cfg.Scoring.MinConfidence = 1.5
	err = cfg.Validate("worker")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_confidence")
}
