// Package cost estimates the spend of validator and image generation calls.
package cost

import (
	"sort"
	"sync"
)

// Provider names used by the Tracker.
const (
	ProviderAnthropic  = "anthropic"
	ProviderPerplexity = "perplexity"
	ProviderRunware    = "runware"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic  map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityRate       `yaml:"perplexity" mapstructure:"perplexity"`
	Runware    RunwareRate          `yaml:"runware" mapstructure:"runware"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// PerplexityRate holds Perplexity pricing.
type PerplexityRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
	PerMTok  float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// RunwareRate holds the fallback price of one image when the API does not
// report a cost.
type RunwareRate struct {
	PerImage float64 `yaml:"per_image" mapstructure:"per_image"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for a Claude API call. Unknown models cost 0.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Perplexity returns the request fee plus token cost of one query.
func (c *Calculator) Perplexity(tokens int) float64 {
	return c.rates.Perplexity.PerQuery + (float64(tokens)/1e6)*c.rates.Perplexity.PerMTok
}

// RunwareImage returns reported if the API sent one, else the configured rate.
func (c *Calculator) RunwareImage(reported float64) float64 {
	if reported > 0 {
		return reported
	}
	return c.rates.Runware.PerImage
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
		Perplexity: PerplexityRate{PerQuery: 0.005, PerMTok: 1.00},
		Runware:    RunwareRate{PerImage: 0.0013},
	}
}

// Tracker accumulates spend per provider. Safe for concurrent use; a nil
// *Tracker records nothing.
type Tracker struct {
	calc *Calculator

	mu     sync.Mutex
	totals map[string]float64
	calls  map[string]int
}

// NewTracker creates a Tracker pricing calls with calc.
func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{
		calc:   calc,
		totals: make(map[string]float64),
		calls:  make(map[string]int),
	}
}

// Calculator returns the tracker's pricing.
func (t *Tracker) Calculator() *Calculator {
	if t == nil {
		return NewCalculator(Rates{})
	}
	return t.calc
}

// Add records one call to provider costing usd.
func (t *Tracker) Add(provider string, usd float64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals[provider] += usd
	t.calls[provider]++
}

// Line is one provider row of a Summary.
type Line struct {
	Provider string  `json:"provider"`
	Calls    int     `json:"calls"`
	USD      float64 `json:"usd"`
}

// Summary returns the per-provider totals sorted by provider and the grand
// total.
func (t *Tracker) Summary() ([]Line, float64) {
	if t == nil {
		return nil, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := make([]Line, 0, len(t.calls))
	var total float64
	for p, n := range t.calls {
		lines = append(lines, Line{Provider: p, Calls: n, USD: t.totals[p]})
		total += t.totals[p]
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Provider < lines[j].Provider })
	return lines, total
}
