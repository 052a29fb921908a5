package source

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/nomenclature"
	"github.com/gardenscape/plant-import/pkg/inaturalist"
)

// INaturalist searches iNaturalist taxa.
type INaturalist struct {
	client inaturalist.Client
	rank   string
}

// NewINaturalist creates the iNaturalist adapter. rank narrows searches
// ("species", "genus"); empty searches all ranks.
func NewINaturalist(client inaturalist.Client, rank string) *INaturalist {
	return &INaturalist{client: client, rank: strings.ToLower(rank)}
}

// Kind implements Adapter.
func (n *INaturalist) Kind() model.Source { return model.SourceINaturalist }

// Search returns plant taxa matching query.
func (n *INaturalist) Search(ctx context.Context, query string) ([]model.Candidate, error) {
	resp, err := n.client.Autocomplete(ctx, query, n.rank)
	if err != nil {
		return nil, eris.Wrap(err, "source: inaturalist search")
	}

	var out []model.Candidate
	for _, tx := range resp.Results {
		if tx.IconicTaxonName != inaturalist.IconicPlantae {
			continue
		}
		c := inatCandidate(tx)
		if accept(model.SourceINaturalist, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Lookup finds the taxon for name and returns its common name, status,
// region and photo. An unknown name yields an empty candidate.
func (n *INaturalist) Lookup(ctx context.Context, name string) (model.Candidate, error) {
	query := nomenclature.Binomial(name)
	if query == "" {
		return model.Candidate{}, nil
	}
	resp, err := n.client.Autocomplete(ctx, query, "")
	if err != nil {
		return model.Candidate{}, eris.Wrap(err, "source: inaturalist lookup")
	}

	var fallback *inaturalist.Taxon
	for i := range resp.Results {
		tx := &resp.Results[i]
		if tx.IconicTaxonName != inaturalist.IconicPlantae {
			continue
		}
		if strings.EqualFold(tx.Name, query) {
			c := inatCandidate(*tx)
			c.ScientificName = ""
			return c, nil
		}
		if fallback == nil {
			fallback = tx
		}
	}
	if fallback == nil || !strings.HasPrefix(strings.ToLower(fallback.Name), strings.ToLower(strings.Fields(query)[0])) {
		return model.Candidate{}, nil
	}
	c := inatCandidate(*fallback)
	c.ScientificName = ""
	return c, nil
}

func inatCandidate(tx inaturalist.Taxon) model.Candidate {
	c := model.Candidate{
		ScientificName: strings.TrimSpace(tx.Name),
		CommonName:     titleWords(tx.PreferredCommonName),
		Source:         model.SourceINaturalist,
		ExternalID:     strconv.Itoa(tx.ID),
	}
	if tx.DefaultPhoto != nil {
		c.ImageURL = tx.DefaultPhoto.MediumURL
	}
	if cs := tx.ConservationStatus; cs != nil {
		c.ConservationStatus = cs.StatusName
		if c.ConservationStatus == "" {
			c.ConservationStatus = cs.Status
		}
		if cs.Place != nil {
			c.NativeRegion = cs.Place.DisplayName
		}
	}
	return c
}

// titleWords capitalizes each word of a common name ("purple coneflower").
func titleWords(s string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
