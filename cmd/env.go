package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gardenscape/plant-import/internal/config"
	"github.com/gardenscape/plant-import/internal/cost"
	"github.com/gardenscape/plant-import/internal/db"
	"github.com/gardenscape/plant-import/internal/enrich"
	"github.com/gardenscape/plant-import/internal/importer"
	"github.com/gardenscape/plant-import/internal/metrics"
	"github.com/gardenscape/plant-import/internal/nomenclature"
	"github.com/gardenscape/plant-import/internal/source"
	"github.com/gardenscape/plant-import/internal/store"
	"github.com/gardenscape/plant-import/pkg/anthropic"
	"github.com/gardenscape/plant-import/pkg/gbif"
	"github.com/gardenscape/plant-import/pkg/inaturalist"
	"github.com/gardenscape/plant-import/pkg/perenual"
	"github.com/gardenscape/plant-import/pkg/perplexity"
)

// appEnv holds the wired dependencies shared by commands.
type appEnv struct {
	Store      store.Store
	Importer   *importer.Importer
	Normalizer *nomenclature.Normalizer
	Sources    source.Registry
	Tracker    *cost.Tracker
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
}

// Close releases the store, if one was opened.
func (e *appEnv) Close() {
	if e.Store == nil {
		return
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// initEnv wires the import pipeline from cfg. withStore opens and migrates
// the configured store; commands that never persist pass false.
func initEnv(ctx context.Context, c *config.Config, withStore bool) (*appEnv, error) {
	reg := prometheus.NewRegistry()
	met, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	norm, err := initNormalizer(c.Nomenclature)
	if err != nil {
		return nil, err
	}

	tracker := cost.NewTracker(cost.NewCalculator(c.Pricing))

	perenualAdapter := source.NewPerenual(
		perenual.NewClient(c.Perenual.Key,
			perenual.WithBaseURL(c.Perenual.BaseURL),
			perenual.WithRateLimit(limitFor(c.Perenual.RPS), 1),
		),
		source.WithMaxPages(c.Perenual.MaxPages),
		source.WithPageFanOut(c.Perenual.FanOut),
	)
	gbifAdapter := source.NewGBIF(
		gbif.NewClient(
			gbif.WithBaseURL(c.GBIF.BaseURL),
			gbif.WithRateLimit(limitFor(c.GBIF.RPS), 1),
		),
		c.GBIF.Rank,
	)
	inatAdapter := source.NewINaturalist(
		inaturalist.NewClient(
			inaturalist.WithBaseURL(c.INaturalist.BaseURL),
			inaturalist.WithRateLimit(limitFor(c.INaturalist.RPS), 1),
		),
		c.INaturalist.Rank,
	)
	sources := source.NewRegistry(perenualAdapter, gbifAdapter, inatAdapter)

	stages := []enrich.Stage{
		enrich.GBIFStage(gbifAdapter),
		enrich.INaturalistStage(inatAdapter),
		enrich.DimensionStage(perenualAdapter),
	}
	if completer := initCompleter(c, tracker); completer != nil {
		stages = append(stages, enrich.ValidatorStage(completer))
	}
	enricher := enrich.New(stages,
		enrich.WithCache(c.Enrich.CacheTTL),
		enrich.WithMetrics(met),
	)

	env := &appEnv{
		Normalizer: norm,
		Sources:    sources,
		Tracker:    tracker,
		Metrics:    met,
		Registry:   reg,
	}

	if withStore {
		st, err := initStore(ctx, c.Store)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		env.Store = st
	}

	env.Importer = importer.New(env.Store, norm, enricher, sources, met)
	return env, nil
}

// limitFor converts a requests-per-second setting; 0 disables pacing.
func limitFor(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}

func initNormalizer(c config.NomenclatureConfig) (*nomenclature.Normalizer, error) {
	if c.RulesPath == "" {
		return nomenclature.New(nil), nil
	}
	rules, err := nomenclature.LoadRulesFile(c.RulesPath)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded nomenclature rules", zap.String("path", c.RulesPath), zap.Int("version", rules.Version))
	return nomenclature.New(rules), nil
}

// initCompleter returns the validator backend, or nil when the validator
// is disabled.
func initCompleter(c *config.Config, tracker *cost.Tracker) enrich.Completer {
	if !c.Validator.Enabled {
		return nil
	}
	switch c.Validator.Provider {
	case "anthropic":
		client := anthropic.NewClient(c.Anthropic.Key, anthropic.WithModel(c.Anthropic.Model))
		return enrich.NewAnthropicCompleter(client, tracker, c.Anthropic.Model)
	default:
		client := perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		)
		return enrich.NewPerplexityCompleter(client, tracker, enrich.ValidatorSchema)
	}
}

func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	switch c.Driver {
	case "sqlite":
		dsn := c.DatabaseURL
		if dsn == "" {
			dsn = "plants.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.DatabaseURL, db.PoolConfig{
			MaxConns: c.MaxConns,
			MinConns: c.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
}

// logCost reports accumulated vendor spend.
func logCost(t *cost.Tracker) {
	lines, total := t.Summary()
	if len(lines) == 0 {
		return
	}
	fields := []zap.Field{zap.Float64("total_usd", total)}
	for _, l := range lines {
		fields = append(fields, zap.Float64(l.Provider+"_usd", l.USD), zap.Int(l.Provider+"_calls", l.Calls))
	}
	zap.L().Info("estimated cost", fields...)
}
