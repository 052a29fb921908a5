package source

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/nomenclature"
	"github.com/gardenscape/plant-import/pkg/gbif"
)

// GBIF searches the GBIF backbone taxonomy.
type GBIF struct {
	client gbif.Client
	rank   string
}

// NewGBIF creates the GBIF adapter. rank narrows searches ("SPECIES",
// "GENUS"); empty searches all ranks.
func NewGBIF(client gbif.Client, rank string) *GBIF {
	return &GBIF{client: client, rank: strings.ToUpper(rank)}
}

// Kind implements Adapter.
func (g *GBIF) Kind() model.Source { return model.SourceGBIF }

// Search returns accepted Plantae name usages matching query.
func (g *GBIF) Search(ctx context.Context, query string) ([]model.Candidate, error) {
	resp, err := g.client.Search(ctx, gbif.SearchParams{Query: query, Rank: g.rank})
	if err != nil {
		return nil, eris.Wrap(err, "source: gbif search")
	}

	var out []model.Candidate
	for _, s := range resp.Results {
		if !strings.EqualFold(s.Kingdom, gbif.KingdomPlantae) {
			continue
		}
		c := gbifCandidate(s)
		if accept(model.SourceGBIF, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Match resolves name against the backbone and returns the taxonomy and
// IUCN status it finds. An unmatched or non-plant name yields an empty
// candidate.
func (g *GBIF) Match(ctx context.Context, name string) (model.Candidate, error) {
	query := nomenclature.Binomial(name)
	if query == "" {
		return model.Candidate{}, nil
	}
	m, err := g.client.Match(ctx, query)
	if err != nil {
		return model.Candidate{}, eris.Wrap(err, "source: gbif match")
	}
	if !m.Found() || !strings.EqualFold(m.Kingdom, gbif.KingdomPlantae) {
		return model.Candidate{}, nil
	}

	c := model.Candidate{
		Family:     m.Family,
		Genus:      m.Genus,
		Species:    epithet(m.Species, m.Genus),
		Source:     model.SourceGBIF,
		ExternalID: strconv.Itoa(m.UsageKey),
	}

	cat, err := g.client.IUCNCategory(ctx, m.UsageKey)
	if err != nil {
		// Taxonomy is still useful without a red-list status.
		zap.L().Warn("source: gbif iucn lookup failed",
			zap.String("scientific_name", query),
			zap.Int("usage_key", m.UsageKey),
			zap.Error(err),
		)
		return c, nil
	}
	if cat != nil {
		c.ConservationStatus = iucnLabel(cat)
	}
	return c, nil
}

func gbifCandidate(s gbif.Species) model.Candidate {
	name := s.CanonicalName
	if name == "" {
		name = s.ScientificName
	}
	c := model.Candidate{
		ScientificName: name,
		Family:         s.Family,
		Genus:          s.Genus,
		Species:        epithet(s.Species, s.Genus),
		Source:         model.SourceGBIF,
		ExternalID:     strconv.Itoa(s.Key),
	}
	for _, vn := range s.VernacularNames {
		if vn.Language == "eng" || vn.Language == "en" {
			c.CommonName = vn.VernacularName
			break
		}
	}
	return c
}

// iucnLabel renders "LEAST_CONCERN"/"LC" as "Least Concern (LC)".
func iucnLabel(cat *gbif.IUCNCategory) string {
	label := titleWords(strings.ReplaceAll(cat.Category, "_", " "))
	switch {
	case label == "":
		return cat.Code
	case cat.Code == "":
		return label
	}
	return label + " (" + cat.Code + ")"
}
