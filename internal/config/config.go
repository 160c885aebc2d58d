package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store           StoreConfig         `yaml:"store" mapstructure:"store"`
	PropertyRadar   PropertyRadarConfig `yaml:"propertyradar" mapstructure:"propertyradar"`
	PDL             PDLConfig           `yaml:"pdl" mapstructure:"pdl"`
	MillionVerifier VerifierConfig      `yaml:"millionverifier" mapstructure:"millionverifier"`
	NeverBounce     VerifierConfig      `yaml:"neverbounce" mapstructure:"neverbounce"`
	Worker          WorkerConfig        `yaml:"worker" mapstructure:"worker"`
	Circuit         CircuitConfig       `yaml:"circuit" mapstructure:"circuit"`
	Log             LogConfig           `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PropertyRadarConfig holds the property data API credentials and the list
// ingest reads from.
type PropertyRadarConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	ListID           string  `yaml:"list_id" mapstructure:"list_id"`
	IngestBatchLimit int     `yaml:"ingest_batch_limit" mapstructure:"ingest_batch_limit"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// PDLConfig holds People Data Labs credentials.
type PDLConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	MinLikelihood int    `yaml:"min_likelihood" mapstructure:"min_likelihood"`
}

// VerifierConfig holds credentials for one email verification provider.
type VerifierConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WorkerConfig controls batch size, pacing and polling sleeps.
type WorkerConfig struct {
	BatchSize            int `yaml:"batch_size" mapstructure:"batch_size"`
	IdleSleepSecs        int `yaml:"idle_sleep_secs" mapstructure:"idle_sleep_secs"`
	ReadErrorBackoffSecs int `yaml:"read_error_backoff_secs" mapstructure:"read_error_backoff_secs"`
	EnrichPaceMs         int `yaml:"enrich_pace_ms" mapstructure:"enrich_pace_ms"`
	VerifyPaceMs         int `yaml:"verify_pace_ms" mapstructure:"verify_pace_ms"`
	IngestPaceMs         int `yaml:"ingest_pace_ms" mapstructure:"ingest_pace_ms"`
	Concurrency          int `yaml:"concurrency" mapstructure:"concurrency"`
}

// IdleSleep is how long a worker waits after an empty batch.
func (w WorkerConfig) IdleSleep() time.Duration {
	return time.Duration(w.IdleSleepSecs) * time.Second
}

// ReadErrorBackoff is how long a worker waits after a failed batch read.
func (w WorkerConfig) ReadErrorBackoff() time.Duration {
	return time.Duration(w.ReadErrorBackoffSecs) * time.Second
}

// EnrichPace is the delay between owners in the enrich stage.
func (w WorkerConfig) EnrichPace() time.Duration {
	return time.Duration(w.EnrichPaceMs) * time.Millisecond
}

// VerifyPace is the delay between owners in the verify stage.
func (w WorkerConfig) VerifyPace() time.Duration {
	return time.Duration(w.VerifyPaceMs) * time.Millisecond
}

// IngestPace is the delay between properties in the ingest stage.
func (w WorkerConfig) IngestPace() time.Duration {
	return time.Duration(w.IngestPaceMs) * time.Millisecond
}

// CircuitConfig configures the verification provider circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the settings a stage cannot run without and reports every
// problem at once. Verification keys are optional: a provider without a key
// reports every address as uncertain.
func (c *Config) Validate(stage string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}

	switch stage {
	case "ingest":
		if c.PropertyRadar.Key == "" {
			errs = append(errs, "propertyradar.key is required")
		}
		if c.PropertyRadar.ListID == "" {
			errs = append(errs, "propertyradar.list_id is required")
		}
		if c.PropertyRadar.IngestBatchLimit <= 0 {
			errs = append(errs, "propertyradar.ingest_batch_limit must be > 0")
		}
	case "lists":
		if c.PropertyRadar.Key == "" {
			errs = append(errs, "propertyradar.key is required")
		}
	case "enrich":
		if c.PDL.Key == "" {
			errs = append(errs, "pdl.key is required")
		}
	case "verify":
	default:
		return eris.Errorf("config: unknown mode %q", stage)
	}

	if c.Worker.BatchSize <= 0 {
		errs = append(errs, "worker.batch_size must be > 0")
	}
	if c.Worker.Concurrency < 1 || c.Worker.Concurrency > 16 {
		errs = append(errs, "worker.concurrency must be between 1 and 16")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Empty defaults register keys so env-only values unmarshal.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("propertyradar.key", "")
	v.SetDefault("propertyradar.base_url", "https://api.propertyradar.com/v1")
	v.SetDefault("propertyradar.list_id", "")
	v.SetDefault("propertyradar.ingest_batch_limit", 4)
	v.SetDefault("propertyradar.rate_limit", 0)
	v.SetDefault("pdl.key", "")
	v.SetDefault("pdl.base_url", "https://api.peopledatalabs.com/v5")
	v.SetDefault("pdl.min_likelihood", 3)
	v.SetDefault("millionverifier.key", "")
	v.SetDefault("millionverifier.base_url", "https://api.millionverifier.com/api/v3")
	v.SetDefault("neverbounce.key", "")
	v.SetDefault("neverbounce.base_url", "https://api.neverbounce.com/v4")
	v.SetDefault("worker.batch_size", 50)
	v.SetDefault("worker.idle_sleep_secs", 300)
	v.SetDefault("worker.read_error_backoff_secs", 60)
	v.SetDefault("worker.enrich_pace_ms", 1500)
	v.SetDefault("worker.verify_pace_ms", 1000)
	v.SetDefault("worker.ingest_pace_ms", 500)
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
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
