package source

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/nomenclature"
	"github.com/gardenscape/plant-import/pkg/perenual"
)

const (
	// DefaultMaxPages caps species-list pagination (2000 rows at 100 per page).
	DefaultMaxPages   = 20
	defaultPageFanOut = 5
)

// Perenual searches the Perenual species list.
type Perenual struct {
	client   perenual.Client
	maxPages int
	fanOut   int
}

// PerenualOption configures the Perenual adapter.
type PerenualOption func(*Perenual)

// WithMaxPages caps the number of species-list pages fetched per search.
func WithMaxPages(n int) PerenualOption {
	return func(p *Perenual) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// WithPageFanOut bounds how many pages are fetched at once.
func WithPageFanOut(n int) PerenualOption {
	return func(p *Perenual) {
		if n > 0 {
			p.fanOut = n
		}
	}
}

// NewPerenual creates the Perenual adapter.
func NewPerenual(client perenual.Client, opts ...PerenualOption) *Perenual {
	p := &Perenual{client: client, maxPages: DefaultMaxPages, fanOut: defaultPageFanOut}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Kind implements Adapter.
func (p *Perenual) Kind() model.Source { return model.SourcePerenual }

// Search fetches the first page to learn the page count, then the remaining
// pages concurrently. A failed later page is logged and contributes nothing;
// a failed first page is returned.
func (p *Perenual) Search(ctx context.Context, query string) ([]model.Candidate, error) {
	first, err := p.client.SpeciesList(ctx, query, 1)
	if err != nil {
		return nil, eris.Wrap(err, "source: perenual search")
	}

	last := min(first.LastPage, p.maxPages)
	pages := make([][]perenual.Species, max(last, 1))
	pages[0] = first.Data

	if last > 1 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.fanOut)

		var mu sync.Mutex
		failed := 0
		for page := 2; page <= last; page++ {
			g.Go(func() error {
				resp, err := p.client.SpeciesList(gCtx, query, page)
				if err != nil {
					zap.L().Warn("source: perenual page failed",
						zap.String("query", query),
						zap.Int("page", page),
						zap.Error(err),
					)
					mu.Lock()
					failed++
					mu.Unlock()
					return nil
				}
				pages[page-1] = resp.Data
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "source: perenual search")
		}
		if failed > 0 {
			zap.L().Info("source: perenual search finished with missing pages",
				zap.String("query", query),
				zap.Int("pages", last),
				zap.Int("failed_pages", failed),
			)
		}
	}

	var out []model.Candidate
	for _, rows := range pages {
		for _, row := range rows {
			if c, ok := perenualCandidate(row); ok {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// Details fetches and maps the detail record of a species.
func (p *Perenual) Details(ctx context.Context, id int) (model.Candidate, error) {
	d, err := p.client.SpeciesDetails(ctx, id)
	if err != nil {
		return model.Candidate{}, eris.Wrapf(err, "source: perenual details %d", id)
	}
	return perenualDetailsCandidate(d), nil
}

// Dimensions looks name up in the species list and returns a candidate that
// carries only the height and spread of the best matching species.
func (p *Perenual) Dimensions(ctx context.Context, name string) (model.Candidate, error) {
	query := nomenclature.Binomial(name)
	if query == "" {
		return model.Candidate{}, nil
	}
	list, err := p.client.SpeciesList(ctx, query, 1)
	if err != nil {
		return model.Candidate{}, eris.Wrap(err, "source: perenual dimensions")
	}

	id, ok := bestPerenualMatch(list.Data, name, query)
	if !ok {
		return model.Candidate{}, nil
	}
	details, err := p.Details(ctx, id)
	if err != nil {
		return model.Candidate{}, eris.Wrap(err, "source: perenual dimensions")
	}
	return model.Candidate{Dimensions: details.Dimensions}, nil
}

// bestPerenualMatch prefers an exact name match, then a binomial match.
func bestPerenualMatch(rows []perenual.Species, name, binomial string) (int, bool) {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(s, `"`, "'")), " "))
	}
	for _, want := range []string{norm(name), norm(binomial)} {
		for _, row := range rows {
			for _, sn := range row.ScientificName {
				if norm(sn) == want {
					return row.ID, true
				}
			}
		}
	}
	return 0, false
}

func perenualCandidate(s perenual.Species) (model.Candidate, bool) {
	c := model.Candidate{
		ScientificName: s.ScientificName.First(),
		CommonName:     strings.TrimSpace(s.CommonName),
		Cycle:          strings.ToLower(strings.TrimSpace(s.Cycle)),
		Watering:       strings.ToLower(strings.TrimSpace(s.Watering)),
		Sunlight:       lowerAll(s.Sunlight),
		Source:         model.SourcePerenual,
		ExternalID:     strconv.Itoa(s.ID),
	}
	if s.DefaultImage != nil {
		c.ImageURL = s.DefaultImage.MediumURL
	}
	return c, accept(model.SourcePerenual, c)
}

func perenualDetailsCandidate(d *perenual.SpeciesDetails) model.Candidate {
	c := model.Candidate{
		ScientificName:  d.ScientificName.First(),
		CommonName:      strings.TrimSpace(d.CommonName),
		Family:          strings.TrimSpace(d.Family),
		Genus:           strings.TrimSpace(d.Genus),
		Description:     strings.TrimSpace(d.Description),
		Cycle:           strings.ToLower(strings.TrimSpace(d.Cycle)),
		Watering:        strings.ToLower(strings.TrimSpace(d.Watering)),
		Sunlight:        lowerAll(d.Sunlight),
		Soil:            lowerAll(d.Soil),
		Maintenance:     strings.ToLower(strings.TrimSpace(firstNonBlank(d.Maintenance, d.CareLevel))),
		HardinessZones:  d.Hardiness.Zones(),
		GrowthRate:      strings.ToLower(strings.TrimSpace(d.GrowthRate)),
		FlowerColor:     strings.TrimSpace(d.FlowerColor),
		FloweringSeason: strings.TrimSpace(d.FloweringSeason),
		NativeRegion:    strings.Join(d.Origin, ", "),
		Dimensions:      dimensionsFromDetails(d),
		Source:          model.SourcePerenual,
		ExternalID:      strconv.Itoa(d.ID),
	}
	if d.PoisonousToHumans != nil {
		c.PoisonousToHumans = model.Bool(bool(*d.PoisonousToHumans))
	}
	if d.PoisonousToPets != nil {
		c.PoisonousToPets = model.Bool(bool(*d.PoisonousToPets))
	}
	if d.DefaultImage != nil {
		c.ImageURL = d.DefaultImage.MediumURL
	}
	return c
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
