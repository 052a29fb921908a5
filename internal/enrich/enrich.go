// Package enrich fills empty candidate fields from external sources and an
// LLM validator. Enrichment is fill-only and never fails a record.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/gardenscape/plant-import/internal/metrics"
	"github.com/gardenscape/plant-import/internal/model"
)

// Stage is one enrichment step.
type Stage interface {
	// Name labels the stage in logs and metrics.
	Name() string
	// Needed reports whether c has anything this stage could fill.
	Needed(c model.Candidate) bool
	// CacheKey identifies the lookup for c. An empty key disables caching.
	CacheKey(c model.Candidate) string
	// Lookup returns the values the stage found. Its result is merged
	// fill-only into the candidate.
	Lookup(ctx context.Context, c model.Candidate) (model.Candidate, error)
}

// Enricher runs stages in order over a candidate.
type Enricher struct {
	stages  []Stage
	cache   *cache.Cache
	metrics *metrics.Metrics
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithCache keeps stage results for ttl so repeated names in a batch do not
// repeat identical lookups.
func WithCache(ttl time.Duration) Option {
	return func(e *Enricher) {
		if ttl > 0 {
			e.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// WithMetrics records stage outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enricher) {
		e.metrics = m
	}
}

// New creates an Enricher. Stages run in the order given; earlier stages
// win when two sources disagree.
func New(stages []Stage, opts ...Option) *Enricher {
	e := &Enricher{stages: stages}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enrich returns c with empty fields filled from each stage. Values already
// present are never overwritten. A stage that fails is logged and skipped.
func (e *Enricher) Enrich(ctx context.Context, c model.Candidate) model.Candidate {
	out := c
	log := zap.L().With(zap.String("scientific_name", c.ScientificName))

	for _, s := range e.stages {
		if ctx.Err() != nil {
			log.Debug("enrich: context done, stopping", zap.Error(ctx.Err()))
			break
		}
		if !s.Needed(out) {
			continue
		}

		found, err := e.lookup(ctx, s, out)
		if err != nil {
			log.Warn("enrich: stage failed",
				zap.String("stage", s.Name()),
				zap.Error(err),
			)
			e.metrics.ObserveStage(s.Name(), 0, err)
			continue
		}

		filled := out.Fill(found)
		e.metrics.ObserveStage(s.Name(), len(filled), nil)
		if len(filled) > 0 {
			log.Debug("enrich: fields filled",
				zap.String("stage", s.Name()),
				zap.Strings("fields", filled),
			)
		}
	}
	return out
}

func (e *Enricher) lookup(ctx context.Context, s Stage, c model.Candidate) (model.Candidate, error) {
	key := ""
	if e.cache != nil {
		if k := s.CacheKey(c); k != "" {
			key = s.Name() + "|" + strings.ToLower(k)
		}
	}
	if key != "" {
		if v, ok := e.cache.Get(key); ok {
			e.metrics.CacheHit(s.Name())
			return v.(model.Candidate), nil
		}
	}

	found, err := s.Lookup(ctx, c)
	if err != nil {
		return model.Candidate{}, err
	}
	if key != "" {
		e.cache.Set(key, found, cache.DefaultExpiration)
	}
	return found, nil
}
