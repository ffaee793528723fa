// Package config loads service configuration from a YAML file and
// ARGUS-prefixed environment variables, with validated defaults for every
// setting.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// StoreKind selects the result persistence backend.
type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreSQLite StoreKind = "sqlite"
	StoreRedis  StoreKind = "redis"
	StoreNone   StoreKind = "none"
)

// Config holds all configuration for the analysis service.
type Config struct {
	Pipeline struct {
		// ConcurrencyLimit bounds batch worker goroutines
		ConcurrencyLimit int `mapstructure:"concurrency_limit" validate:"gte=1,lte=256"`
	} `mapstructure:"pipeline"`

	Extraction struct {
		// CacheSize is the number of analyses kept in the content-digest
		// cache; 0 disables caching
		CacheSize int `mapstructure:"cache_size" validate:"gte=0"`
		// KeywordRecognizer selects "vocabulary" or "noop"
		KeywordRecognizer string `mapstructure:"keyword_recognizer" validate:"oneof=vocabulary noop"`
		// EntityWeights overrides individual risk weights by entity kind
		EntityWeights map[string]float64 `mapstructure:"entity_weights" validate:"dive,gte=0,lte=1"`
	} `mapstructure:"extraction"`

	Classification struct {
		// ModelPath is the trained model file (ARGUS_MODEL_PATH). Empty or
		// missing degrades classification to rule-plus-default mode.
		ModelPath string `mapstructure:"model_path"`
		// DecisionThreshold is the model probability above which a document
		// is labeled malicious
		DecisionThreshold float64 `mapstructure:"decision_threshold" validate:"gt=0,lt=1"`
	} `mapstructure:"classification"`

	Generation struct {
		// Enabled controls whether the network backend is used at all;
		// disabled means template-only analyses
		Enabled bool   `mapstructure:"enabled"`
		BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
		// APIKey comes from ARGUS_GENERATION_API_KEY; never put it in the
		// config file
		APIKey         string        `mapstructure:"api_key"`
		Model          string        `mapstructure:"model"`
		Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
		MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
		RequestsPerSec float64       `mapstructure:"requests_per_sec" validate:"gt=0"`
	} `mapstructure:"generation"`

	Intel struct {
		// FeedFiles are YAML or JSON indicator files loaded at startup
		FeedFiles []string `mapstructure:"feed_files"`
	} `mapstructure:"intel"`

	Storage struct {
		Kind StoreKind `mapstructure:"kind" validate:"oneof=file sqlite redis none"`
		// OutputDir holds JSON results for the file store
		OutputDir string `mapstructure:"output_dir"`
		// SQLitePath is the database file for the sqlite store
		SQLitePath string `mapstructure:"sqlite_path"`
		Redis      struct {
			Addr     string        `mapstructure:"addr"`
			Password string        `mapstructure:"password"`
			DB       int           `mapstructure:"db" validate:"gte=0,lte=15"`
			PoolSize int           `mapstructure:"pool_size" validate:"gte=0"`
			TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
		} `mapstructure:"redis"`
	} `mapstructure:"storage"`

	Logging struct {
		// Level is a zap level string: debug, info, warn, error
		Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
		// Development switches to the human-readable console encoder
		Development bool `mapstructure:"development"`
	} `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.concurrency_limit", 4)

	v.SetDefault("extraction.cache_size", 256)
	v.SetDefault("extraction.keyword_recognizer", "vocabulary")

	v.SetDefault("classification.model_path", "")
	v.SetDefault("classification.decision_threshold", 0.5)

	v.SetDefault("generation.enabled", false)
	v.SetDefault("generation.base_url", "https://api.openai.com/v1")
	v.SetDefault("generation.model", "gpt-4o-mini")
	v.SetDefault("generation.timeout", 30*time.Second)
	v.SetDefault("generation.max_retries", 2)
	v.SetDefault("generation.requests_per_sec", 2.0)

	v.SetDefault("storage.kind", string(StoreFile))
	v.SetDefault("storage.output_dir", "./results")
	v.SetDefault("storage.sqlite_path", "./argus.db")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.ttl", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("ARGUS")
	v.AutomaticEnv()

	// Short names for the settings most often set per-deployment
	_ = v.BindEnv("generation.api_key", "ARGUS_GENERATION_API_KEY")
	_ = v.BindEnv("generation.base_url", "ARGUS_GENERATION_BASE_URL")
	_ = v.BindEnv("classification.model_path", "ARGUS_MODEL_PATH")
	_ = v.BindEnv("storage.output_dir", "ARGUS_OUTPUT_DIR")
	_ = v.BindEnv("storage.kind", "ARGUS_STORE")
	_ = v.BindEnv("storage.redis.addr", "ARGUS_REDIS_ADDR")
	_ = v.BindEnv("logging.level", "ARGUS_LOG_LEVEL")
}

// Load reads configuration from the named file (empty means the default
// search of ./config.yaml and ./config/config.yaml), overlays environment
// variables and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file in the search path means defaults plus env vars
		// apply; a file that exists but fails to parse must surface.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every constraint tag and the cross-field rules the tags
// cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch cfg.Storage.Kind {
	case StoreFile:
		if cfg.Storage.OutputDir == "" {
			return fmt.Errorf("config validation failed: storage.output_dir required for the file store")
		}
	case StoreSQLite:
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("config validation failed: storage.sqlite_path required for the sqlite store")
		}
	case StoreRedis:
		if cfg.Storage.Redis.Addr == "" {
			return fmt.Errorf("config validation failed: storage.redis.addr required for the redis store")
		}
	}

	if cfg.Generation.Enabled && cfg.Generation.APIKey == "" {
		return fmt.Errorf("config validation failed: generation.api_key required when generation is enabled (set ARGUS_GENERATION_API_KEY)")
	}

	return nil
}
