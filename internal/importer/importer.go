// Package importer turns source candidates into stored plants: normalize,
// enrich, dedupe by scientific name, insert.
package importer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gardenscape/plant-import/internal/metrics"
	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/nomenclature"
	"github.com/gardenscape/plant-import/internal/source"
	"github.com/gardenscape/plant-import/internal/store"
)

// ErrNoScientificName marks a candidate that still has no name after
// normalization and enrichment.
var ErrNoScientificName = eris.New("importer: candidate has no scientific name")

// Defaults applied to fields a candidate leaves empty.
const (
	DefaultWatering       = "moderate"
	DefaultMaintenance    = "low"
	DefaultHardinessZones = "5-9"
	DefaultCycle          = "perennial"
	DefaultGrowthRate     = "moderate"
)

// DefaultSunlight returns the default sunlight list.
func DefaultSunlight() []string { return []string{"full sun"} }

// DefaultSoil returns the default soil list.
func DefaultSoil() []string { return []string{"well-drained"} }

// Enricher fills empty candidate fields.
type Enricher interface {
	Enrich(ctx context.Context, c model.Candidate) model.Candidate
}

// Result counts the outcome of an import batch.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Total returns the number of candidates processed.
func (r Result) Total() int { return r.Imported + r.Skipped + r.Failed }

// Importer runs the per-candidate import pipeline.
type Importer struct {
	store      store.Store
	normalizer *nomenclature.Normalizer
	enricher   Enricher
	sources    source.Registry
	metrics    *metrics.Metrics
}

// New creates an Importer. enricher and m may be nil.
func New(st store.Store, norm *nomenclature.Normalizer, enricher Enricher, sources source.Registry, m *metrics.Metrics) *Importer {
	if norm == nil {
		norm = nomenclature.New(nil)
	}
	return &Importer{
		store:      st,
		normalizer: norm,
		enricher:   enricher,
		sources:    sources,
		metrics:    m,
	}
}

// Search queries one source and returns its candidates normalized.
func (im *Importer) Search(ctx context.Context, kind model.Source, query string) ([]model.Candidate, error) {
	adapter, err := im.sources.Get(kind)
	if err != nil {
		return nil, err
	}
	cands, err := adapter.Search(ctx, query)
	im.metrics.ObserveSearch(string(kind), len(cands), err)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: search %s", kind)
	}
	for i := range cands {
		im.normalizer.Normalize(&cands[i])
	}
	return cands, nil
}

// Enrich normalizes and enriches a single candidate without storing it.
func (im *Importer) Enrich(ctx context.Context, c model.Candidate) model.Candidate {
	im.normalizer.Normalize(&c)
	if im.enricher != nil {
		c = im.enricher.Enrich(ctx, c)
	}
	im.normalizer.Normalize(&c)
	return c
}

// ImportPlants imports candidates one at a time. A candidate that fails is
// logged and counted; the batch continues. An error is returned only when
// ctx ends before the batch is done, together with the counts so far.
func (im *Importer) ImportPlants(ctx context.Context, cands []model.Candidate) (Result, error) {
	start := time.Now()
	defer im.metrics.ObserveBatch(start)

	var res Result
	for i, c := range cands {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrapf(err, "importer: stopped after %d of %d candidates", i, len(cands))
		}

		outcome, err := im.importOne(ctx, c)
		im.metrics.ObserveRecord(outcome)
		switch outcome {
		case metrics.OutcomeImported:
			res.Imported++
		case metrics.OutcomeSkipped:
			res.Skipped++
		default:
			res.Failed++
			zap.L().Warn("importer: candidate failed",
				zap.Int("index", i),
				zap.String("scientific_name", c.ScientificName),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("importer: batch complete",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (im *Importer) importOne(ctx context.Context, c model.Candidate) (string, error) {
	c = im.Enrich(ctx, c)
	if strings.TrimSpace(c.ScientificName) == "" {
		return metrics.OutcomeFailed, ErrNoScientificName
	}

	existing, err := im.store.FindPlantByScientificName(ctx, c.ScientificName)
	if err != nil {
		return metrics.OutcomeFailed, eris.Wrap(err, "importer: lookup existing plant")
	}
	if existing != nil {
		zap.L().Debug("importer: plant exists, skipping",
			zap.String("scientific_name", c.ScientificName),
			zap.String("id", existing.ID),
		)
		return metrics.OutcomeSkipped, nil
	}

	p := ToPlant(c)
	p.ID = uuid.New().String()
	if err := im.store.InsertPlant(ctx, p); err != nil {
		return metrics.OutcomeFailed, eris.Wrap(err, "importer: insert plant")
	}
	return metrics.OutcomeImported, nil
}

// ImportQuery searches kind for query, imports up to limit candidates
// (0 = all) and records the attempt as an import run.
func (im *Importer) ImportQuery(ctx context.Context, kind model.Source, query string, limit int) (*model.ImportRun, error) {
	return im.recordRun(ctx, kind, query, func(ctx context.Context) ([]model.Candidate, error) {
		cands, err := im.Search(ctx, kind, query)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(cands) > limit {
			cands = cands[:limit]
		}
		return cands, nil
	})
}

// ImportNames imports hand-entered plant names as manual candidates and
// records the attempt as an import run labelled label.
func (im *Importer) ImportNames(ctx context.Context, label string, names []string) (*model.ImportRun, error) {
	return im.recordRun(ctx, model.SourceManual, label, func(context.Context) ([]model.Candidate, error) {
		cands := make([]model.Candidate, 0, len(names))
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				cands = append(cands, model.Candidate{ScientificName: n, Source: model.SourceManual})
			}
		}
		return cands, nil
	})
}

func (im *Importer) recordRun(ctx context.Context, kind model.Source, query string, collect func(context.Context) ([]model.Candidate, error)) (*model.ImportRun, error) {
	run, err := im.store.CreateRun(ctx, kind, query)
	if err != nil {
		return nil, eris.Wrap(err, "importer: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("source", string(kind)), zap.String("query", query))

	cands, err := collect(ctx)
	if err != nil {
		im.finishRun(ctx, run, Result{}, err)
		return run, err
	}
	log.Info("importer: importing candidates", zap.Int("candidates", len(cands)))

	res, err := im.ImportPlants(ctx, cands)
	im.finishRun(ctx, run, res, err)
	return run, err
}

func (im *Importer) finishRun(ctx context.Context, run *model.ImportRun, res Result, runErr error) {
	run.Imported, run.Skipped, run.Failed = res.Imported, res.Skipped, res.Failed
	run.Status = model.RunStatusComplete
	if runErr != nil {
		run.Status = model.RunStatusFailed
		run.Error = runErr.Error()
	}
	if err := im.store.CompleteRun(context.WithoutCancel(ctx), run); err != nil {
		zap.L().Error("importer: complete run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// ToPlant maps a candidate onto the plants row, substituting defaults for
// empty values.
func ToPlant(c model.Candidate) *model.Plant {
	d := c.Dimensions
	d.DeriveInches()
	return &model.Plant{
		ScientificName:     c.ScientificName,
		CommonName:         c.CommonName,
		Family:             c.Family,
		Genus:              c.Genus,
		Species:            c.Species,
		Cultivar:           c.Cultivar,
		Description:        c.Description,
		Cycle:              orDefault(c.Cycle, DefaultCycle),
		Watering:           orDefault(c.Watering, DefaultWatering),
		Sunlight:           listOrDefault(c.Sunlight, DefaultSunlight),
		Soil:               listOrDefault(c.Soil, DefaultSoil),
		Maintenance:        orDefault(c.Maintenance, DefaultMaintenance),
		HardinessZones:     orDefault(c.HardinessZones, DefaultHardinessZones),
		GrowthRate:         orDefault(c.GrowthRate, DefaultGrowthRate),
		FlowerColor:        c.FlowerColor,
		FloweringSeason:    c.FloweringSeason,
		PoisonousToPets:    c.PoisonousToPets != nil && *c.PoisonousToPets,
		PoisonousToHumans:  c.PoisonousToHumans != nil && *c.PoisonousToHumans,
		HeightMinCM:        d.HeightMinCM,
		HeightMaxCM:        d.HeightMaxCM,
		HeightMinInches:    d.HeightMinInches,
		HeightMaxInches:    d.HeightMaxInches,
		SpreadMinCM:        d.SpreadMinCM,
		SpreadMaxCM:        d.SpreadMaxCM,
		SpreadMinInches:    d.SpreadMinInches,
		SpreadMaxInches:    d.SpreadMaxInches,
		ConservationStatus: c.ConservationStatus,
		NativeRegion:       c.NativeRegion,
		ImageURL:           c.ImageURL,
		Source:             sourceOrManual(c.Source),
		ExternalID:         c.ExternalID,
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func listOrDefault(v []string, def func() []string) []string {
	if len(v) == 0 {
		return def()
	}
	return append([]string(nil), v...)
}

func sourceOrManual(s model.Source) model.Source {
	if s == "" {
		return model.SourceManual
	}
	return s
}
