// Package bootstrap assembles the analysis pipeline from configuration:
// logger, threat-intel store, extractor, classifier, generator, result store
// and the orchestrator that ties them together.
package bootstrap

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"argus/classify"
	"argus/config"
	"argus/core"
	"argus/extract"
	"argus/intel"
	"argus/pipeline"
	"argus/recommend"
	"argus/storage"
)

// App holds one fully wired pipeline instance.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Sugar        *zap.SugaredLogger
	Intel        *intel.Store
	Orchestrator *pipeline.Orchestrator

	store storage.ResultStore
}

// NewApp loads configuration from configPath (empty means the default
// search path) and wires every component.
func NewApp(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := InitLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	sugar := logger.Sugar()

	app := &App{Config: cfg, Logger: logger, Sugar: sugar}

	app.Intel = intel.NewStore(sugar)
	if err := app.loadIntelFeeds(); err != nil {
		logger.Sync()
		return nil, err
	}

	store, err := initStore(cfg, sugar)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	app.store = store

	app.Orchestrator = pipeline.NewOrchestrator(&pipeline.Config{
		Extractor:        initExtractor(cfg, sugar),
		Agent:            initAgent(cfg, sugar),
		Generator:        initGenerator(cfg, sugar),
		Intel:            app.Intel,
		Store:            store,
		ModelPath:        cfg.Classification.ModelPath,
		ConcurrencyLimit: cfg.Pipeline.ConcurrencyLimit,
		Logger:           sugar,
	})

	sugar.Infow("pipeline ready",
		"store", cfg.Storage.Kind,
		"generation_enabled", cfg.Generation.Enabled,
		"concurrency_limit", cfg.Pipeline.ConcurrencyLimit)
	return app, nil
}

// Close releases the result store and flushes the logger.
func (a *App) Close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	_ = a.Logger.Sync()
	return err
}

// InitLogger builds the console logger at the configured level.
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Logging.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Logging.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func (a *App) loadIntelFeeds() error {
	for _, path := range a.Config.Intel.FeedFiles {
		update, err := intel.LoadFeedFile(path)
		if err != nil {
			return fmt.Errorf("load intel feed %s: %w", path, err)
		}
		snap := a.Intel.Update(update)
		a.Sugar.Infow("intel feed loaded", "path", path, "version", snap.Version)
	}
	return nil
}

func initExtractor(cfg *config.Config, sugar *zap.SugaredLogger) *extract.Extractor {
	var recognizer extract.KeywordRecognizer
	switch cfg.Extraction.KeywordRecognizer {
	case "noop":
		recognizer = extract.NoopRecognizer{}
	default:
		recognizer = extract.NewVocabularyRecognizer(nil)
	}

	weights := extract.DefaultWeights()
	if len(cfg.Extraction.EntityWeights) > 0 {
		overrides := make(map[core.EntityKind]float64, len(cfg.Extraction.EntityWeights))
		for name, weight := range cfg.Extraction.EntityWeights {
			kind := core.EntityKind(name)
			if !kind.IsValid() {
				sugar.Warnw("ignoring weight override for unknown entity kind", "kind", name)
				continue
			}
			overrides[kind] = weight
		}
		weights = weights.Merge(overrides)
	}

	return extract.NewExtractor(&extract.Config{
		Weights:    weights,
		Recognizer: recognizer,
		CacheSize:  cfg.Extraction.CacheSize,
		Logger:     sugar,
	})
}

func initAgent(cfg *config.Config, sugar *zap.SugaredLogger) *classify.Agent {
	return classify.NewAgent(&classify.AgentConfig{
		ModelPath:         cfg.Classification.ModelPath,
		DecisionThreshold: cfg.Classification.DecisionThreshold,
		Logger:            sugar,
	})
}

func initGenerator(cfg *config.Config, sugar *zap.SugaredLogger) *recommend.Generator {
	var backend recommend.Backend
	if cfg.Generation.Enabled {
		backend = recommend.NewHTTPBackend(&recommend.HTTPBackendConfig{
			BaseURL:        cfg.Generation.BaseURL,
			APIKey:         cfg.Generation.APIKey,
			Model:          cfg.Generation.Model,
			Timeout:        cfg.Generation.Timeout,
			RequestsPerSec: cfg.Generation.RequestsPerSec,
		})
	}

	return recommend.NewGenerator(&recommend.GeneratorConfig{
		Backend:        backend,
		MaxRetries:     cfg.Generation.MaxRetries,
		AttemptTimeout: cfg.Generation.Timeout + 5*time.Second,
		Logger:         sugar,
	})
}

func initStore(cfg *config.Config, sugar *zap.SugaredLogger) (storage.ResultStore, error) {
	switch cfg.Storage.Kind {
	case config.StoreFile:
		return storage.NewFileStore(cfg.Storage.OutputDir, sugar)
	case config.StoreSQLite:
		return storage.NewSQLiteStore(cfg.Storage.SQLitePath, sugar)
	case config.StoreRedis:
		return storage.NewRedisStore(&storage.RedisStoreConfig{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			PoolSize: cfg.Storage.Redis.PoolSize,
			TTL:      cfg.Storage.Redis.TTL,
			Logger:   sugar,
		})
	case config.StoreNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.Storage.Kind)
	}
}
