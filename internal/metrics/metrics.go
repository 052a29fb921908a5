// Package metrics holds the Prometheus collectors of the import pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "plant_import"

// Outcome labels for import records.
const (
	OutcomeImported = "imported"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Metrics contains the collectors for searches, enrichment and imports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SearchResults  *prometheus.CounterVec
	SearchErrors   *prometheus.CounterVec
	StageCalls     *prometheus.CounterVec
	StageErrors    *prometheus.CounterVec
	FieldsFilled   *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec
	ImportRecords  *prometheus.CounterVec
	ImportDuration prometheus.Histogram
	ImagesWritten  prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SearchResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Candidates returned by source searches after filtering",
		}, []string{"source"}),
		SearchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_errors_total",
			Help:      "Source searches that failed",
		}, []string{"source"}),
		StageCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_stage_calls_total",
			Help:      "Enrichment stage lookups performed",
		}, []string{"stage"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_stage_errors_total",
			Help:      "Enrichment stage lookups that failed and were skipped",
		}, []string{"stage"}),
		FieldsFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_fields_filled_total",
			Help:      "Empty fields filled by an enrichment stage",
		}, []string{"stage"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_cache_hits_total",
			Help:      "Enrichment lookups answered from the in-process cache",
		}, []string{"stage"}),
		ImportRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Import candidates by outcome",
		}, []string{"outcome"}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of an import batch",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		ImagesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_written_total",
			Help:      "Generated plant images written to disk",
		}),
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, eris.Wrap(err, "metrics: register collector")
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SearchResults, m.SearchErrors, m.StageCalls, m.StageErrors,
		m.FieldsFilled, m.CacheHits, m.ImportRecords, m.ImportDuration, m.ImagesWritten,
	}
}

// ObserveSearch records the outcome of one source search.
func (m *Metrics) ObserveSearch(source string, results int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SearchErrors.WithLabelValues(source).Inc()
		return
	}
	m.SearchResults.WithLabelValues(source).Add(float64(results))
}

// ObserveStage records one enrichment stage lookup.
func (m *Metrics) ObserveStage(stage string, filled int, err error) {
	if m == nil {
		return
	}
	m.StageCalls.WithLabelValues(stage).Inc()
	if err != nil {
		m.StageErrors.WithLabelValues(stage).Inc()
		return
	}
	m.FieldsFilled.WithLabelValues(stage).Add(float64(filled))
}

// CacheHit records a cached stage lookup.
func (m *Metrics) CacheHit(stage string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(stage).Inc()
}

// ObserveRecord records the outcome of one import candidate.
func (m *Metrics) ObserveRecord(outcome string) {
	if m == nil {
		return
	}
	m.ImportRecords.WithLabelValues(outcome).Inc()
}

// ObserveBatch records the duration of an import batch started at start.
func (m *Metrics) ObserveBatch(start time.Time) {
	if m == nil {
		return
	}
	m.ImportDuration.Observe(time.Since(start).Seconds())
}

// ImageWritten counts a generated image.
func (m *Metrics) ImageWritten() {
	if m == nil {
		return
	}
	m.ImagesWritten.Inc()
}
