package commands

import (
	"fmt"
	"time"

	"github.com/wonny/futurescan/internal/catalog"
	"github.com/wonny/futurescan/internal/engine"
	"github.com/wonny/futurescan/internal/ledger"
	"github.com/wonny/futurescan/internal/prober"
	"github.com/wonny/futurescan/internal/ranking"
	"github.com/wonny/futurescan/internal/validation"
	"github.com/wonny/futurescan/internal/vision"
	"github.com/wonny/futurescan/pkg/config"
	"github.com/wonny/futurescan/pkg/database"
	"github.com/wonny/futurescan/pkg/httputil"
	"github.com/wonny/futurescan/pkg/logger"
	"github.com/wonny/futurescan/pkg/redis"
)

// app bundles the wired components every command builds on.
// ⭐ SSOT: component wiring happens here only.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	cache  *redis.Client
	store  *ledger.Store
	vision *vision.Client

	catalog    *catalog.Catalog
	prober     *prober.BatchProber
	validator  *validation.Validator
	rankings   *ranking.Generator
	engine     *engine.Engine
	backfiller *engine.Backfiller
}

// newApp loads configuration, runs migrations, and wires every component.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	if err := ledger.RunMigrations(cfg.Database.URL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	cache, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	httpClient := httputil.New(log, cfg.Probe.Timeout, cfg.Probe.Workers)
	if cfg.Probe.RateLimit > 0 {
		httpClient = httpClient.WithRateLimiter(cfg.Probe.RateLimit)
	}

	visionClient := vision.NewClient(httpClient, log, cfg.Vision)
	exchangeInfo := vision.NewExchangeInfoClient(httpClient, log, cfg.Vision)

	store := ledger.NewStore(db, log)
	symbolCatalog := catalog.New(visionClient, store, redis.NewCache(cache, "futurescan"), log)
	batchProber := prober.NewBatchProber(visionClient, log, cfg.Probe)
	validator := validation.NewValidator(store, exchangeInfo, log, cfg.Validation)
	rankings := ranking.NewGenerator(store, log, cfg.Validation.HistoryStartDate())

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		cache:      cache,
		store:      store,
		vision:     visionClient,
		catalog:    symbolCatalog,
		prober:     batchProber,
		validator:  validator,
		rankings:   rankings,
		engine:     engine.New(symbolCatalog, batchProber, store, rankings, validator, log, cfg),
		backfiller: engine.NewBackfiller(visionClient, store, log),
	}, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// parseDateFlag parses a YYYY-MM-DD flag value.
func parseDateFlag(name, value string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return d, nil
}

// Close releases database and cache connections.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
