// Package source adapts the external plant APIs to model.Candidate.
package source

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gardenscape/plant-import/internal/model"
)

// Adapter searches one external catalogue.
type Adapter interface {
	Kind() model.Source
	Search(ctx context.Context, query string) ([]model.Candidate, error)
}

// Registry maps a source kind to its adapter.
type Registry map[model.Source]Adapter

// NewRegistry indexes adapters by kind.
func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		if a != nil {
			r[a.Kind()] = a
		}
	}
	return r
}

// Get returns the adapter for kind.
func (r Registry) Get(kind model.Source) (Adapter, error) {
	a, ok := r[kind]
	if !ok {
		return nil, eris.Errorf("source: no adapter for %q", kind)
	}
	return a, nil
}

var (
	vagueAbbrevRe   = regexp.MustCompile(`(?i)(^|\s)(sp|spp|cvs|agg)\.(\s|$)`)
	vagueComplexRe  = regexp.MustCompile(`(?i)\bcomplex\s*$`)
	vagueCultivarRe = regexp.MustCompile(`(?i)\bcultivars\b`)
)

// IsVague reports whether name refers to an unspecific group of plants
// ("Rosa spp.", "Quercus cvs.", "Rubus fruticosus agg.", "... complex",
// "Hosta cultivars").
func IsVague(name string) bool {
	return vagueAbbrevRe.MatchString(name) ||
		vagueComplexRe.MatchString(name) ||
		vagueCultivarRe.MatchString(name)
}

// accept applies the shared boundary checks: a usable, specific name.
func accept(kind model.Source, c model.Candidate) bool {
	name := strings.TrimSpace(c.ScientificName)
	if name == "" {
		zap.L().Debug("source: dropping record without a name",
			zap.String("source", string(kind)),
			zap.String("external_id", c.ExternalID),
		)
		return false
	}
	if IsVague(name) {
		zap.L().Debug("source: dropping vague record",
			zap.String("source", string(kind)),
			zap.String("scientific_name", name),
		)
		return false
	}
	return true
}

// epithet returns the second word of a binomial such as "Helianthus annuus".
func epithet(binomial, genus string) string {
	fields := strings.Fields(binomial)
	if len(fields) < 2 {
		return ""
	}
	if genus != "" && !strings.EqualFold(fields[0], genus) {
		return ""
	}
	if fields[1] == "×" && len(fields) > 2 {
		return "× " + fields[2]
	}
	return fields[1]
}
