package enrich

import (
	"context"
	"strings"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/nomenclature"
)

// Stage names.
const (
	StageGBIF        = "gbif"
	StageINaturalist = "inaturalist"
	StageDimensions  = "perenual_dimensions"
	StageValidator   = "validator"
)

// TaxonomyMatcher resolves a name to its taxonomy (source.GBIF).
type TaxonomyMatcher interface {
	Match(ctx context.Context, name string) (model.Candidate, error)
}

// TaxonLooker finds common name, status and region for a name
// (source.INaturalist).
type TaxonLooker interface {
	Lookup(ctx context.Context, name string) (model.Candidate, error)
}

// DimensionLooker finds the size ranges of a plant (source.Perenual).
type DimensionLooker interface {
	Dimensions(ctx context.Context, name string) (model.Candidate, error)
}

type gbifStage struct{ m TaxonomyMatcher }

// GBIFStage fills family, genus, species and conservation status.
func GBIFStage(m TaxonomyMatcher) Stage { return gbifStage{m: m} }

func (gbifStage) Name() string { return StageGBIF }

func (gbifStage) Needed(c model.Candidate) bool {
	return hasName(c) && anyBlank(c.Family, c.Genus, c.Species, c.ConservationStatus)
}

func (gbifStage) CacheKey(c model.Candidate) string {
	return nomenclature.Binomial(c.ScientificName)
}

func (s gbifStage) Lookup(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	return s.m.Match(ctx, c.ScientificName)
}

type inatStage struct{ l TaxonLooker }

// INaturalistStage fills common name, conservation status, native region
// and image.
func INaturalistStage(l TaxonLooker) Stage { return inatStage{l: l} }

func (inatStage) Name() string { return StageINaturalist }

func (inatStage) Needed(c model.Candidate) bool {
	return hasName(c) && anyBlank(c.CommonName, c.ConservationStatus, c.NativeRegion, c.ImageURL)
}

func (inatStage) CacheKey(c model.Candidate) string {
	return nomenclature.Binomial(c.ScientificName)
}

func (s inatStage) Lookup(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	return s.l.Lookup(ctx, c.ScientificName)
}

type dimensionStage struct{ l DimensionLooker }

// DimensionStage fills height and spread ranges.
func DimensionStage(l DimensionLooker) Stage { return dimensionStage{l: l} }

func (dimensionStage) Name() string { return StageDimensions }

func (dimensionStage) Needed(c model.Candidate) bool {
	d := c.Dimensions
	return hasName(c) && (d.HeightMinCM == nil || d.HeightMaxCM == nil || d.SpreadMinCM == nil || d.SpreadMaxCM == nil)
}

func (dimensionStage) CacheKey(c model.Candidate) string {
	return c.ScientificName
}

func (s dimensionStage) Lookup(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	found, err := s.l.Dimensions(ctx, c.ScientificName)
	if err != nil {
		return model.Candidate{}, err
	}
	return model.Candidate{Dimensions: found.Dimensions}, nil
}

func hasName(c model.Candidate) bool {
	return strings.TrimSpace(c.ScientificName) != ""
}

func anyBlank(vals ...string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
