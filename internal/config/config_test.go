package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, int32(1), cfg.Store.MinConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://api.propertyradar.com/v1", cfg.PropertyRadar.BaseURL)
	assert.Equal(t, 4, cfg.PropertyRadar.IngestBatchLimit)
	assert.Equal(t, "https://api.peopledatalabs.com/v5", cfg.PDL.BaseURL)
	assert.Equal(t, 3, cfg.PDL.MinLikelihood)
	assert.Equal(t, "https://api.millionverifier.com/api/v3", cfg.MillionVerifier.BaseURL)
	assert.Equal(t, "https://api.neverbounce.com/v4", cfg.NeverBounce.BaseURL)
	assert.Equal(t, 50, cfg.Worker.BatchSize)
	assert.Equal(t, 300, cfg.Worker.IdleSleepSecs)
	assert.Equal(t, 60, cfg.Worker.ReadErrorBackoffSecs)
	assert.Equal(t, 1500, cfg.Worker.EnrichPaceMs)
	assert.Equal(t, 1000, cfg.Worker.VerifyPaceMs)
	assert.Equal(t, 500, cfg.Worker.IngestPaceMs)
	assert.Equal(t, 1, cfg.Worker.Concurrency)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.Equal(t, 60, cfg.Circuit.ResetTimeoutSecs)
	assert.Empty(t, cfg.PDL.Key)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: outreach.db
log:
  level: debug
  format: console
propertyradar:
  list_id: "1234"
worker:
  batch_size: 10
  concurrency: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "outreach.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "1234", cfg.PropertyRadar.ListID)
	assert.Equal(t, 10, cfg.Worker.BatchSize)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 300, cfg.Worker.IdleSleepSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("OUTREACH_STORE_DRIVER", "postgres")
	t.Setenv("OUTREACH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("OUTREACH_WORKER_BATCH_SIZE", "25")
	t.Setenv("OUTREACH_PDL_KEY", "pdl-secret")
	t.Setenv("OUTREACH_NEVERBOUNCE_KEY", "nb-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Worker.BatchSize)
	assert.Equal(t, "pdl-secret", cfg.PDL.Key)
	assert.Equal(t, "nb-secret", cfg.NeverBounce.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [driver"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestWorkerDurations(t *testing.T) {
	w := WorkerConfig{
		IdleSleepSecs:        300,
		ReadErrorBackoffSecs: 60,
		EnrichPaceMs:         1500,
		VerifyPaceMs:         1000,
		IngestPaceMs:         500,
	}
	assert.Equal(t, 5*time.Minute, w.IdleSleep())
	assert.Equal(t, time.Minute, w.ReadErrorBackoff())
	assert.Equal(t, 1500*time.Millisecond, w.EnrichPace())
	assert.Equal(t, time.Second, w.VerifyPace())
	assert.Equal(t, 500*time.Millisecond, w.IngestPace())
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

// validDefaults returns a Config with the worker defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/outreach"
	cfg.PropertyRadar.IngestBatchLimit = 4
	cfg.Worker.BatchSize = 50
	cfg.Worker.Concurrency = 1
	return cfg
}

func TestValidateIngest_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.PropertyRadar.Key = "pr-key"
	cfg.PropertyRadar.ListID = "1234"

	assert.NoError(t, cfg.Validate("ingest"))
}

func TestValidateIngest_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "propertyradar.key is required")
	assert.Contains(t, err.Error(), "propertyradar.list_id is required")
}

func TestValidateLists_NeedsKeyOnly(t *testing.T) {
	cfg := validDefaults()
	cfg.PropertyRadar.Key = "pr-key"

	assert.NoError(t, cfg.Validate("lists"))
}

func TestValidateEnrich(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdl.key is required")

	cfg.PDL.Key = "pdl-key"
	assert.NoError(t, cfg.Validate("enrich"))
}

func TestValidateVerify_KeysOptional(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("verify"))
}

func TestValidateSQLiteNeedsNoURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = ""

	assert.NoError(t, cfg.Validate("verify"))
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store.driver "mysql"`)
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateWorkerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Worker.BatchSize = 0
	err := cfg.Validate("verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker.batch_size must be > 0")

	cfg.Worker.BatchSize = 50
	cfg.Worker.Concurrency = 0
	err = cfg.Validate("verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker.concurrency must be between 1 and 16")

	cfg.Worker.Concurrency = 17
	assert.Error(t, cfg.Validate("verify"))

	cfg.Worker.Concurrency = 16
	assert.NoError(t, cfg.Validate("verify"))
}
