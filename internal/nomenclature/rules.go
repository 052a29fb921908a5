package nomenclature

import (
	_ "embed"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// SpeciesCorrection maps a known cultivar of a genus to its species epithet.
type SpeciesCorrection struct {
	Genus       string   `yaml:"genus"`
	Cultivar    string   `yaml:"cultivar"`
	Species     string   `yaml:"species"`
	CommonNames []string `yaml:"common_names"`
}

// Rules is a versioned table of nomenclature corrections.
type Rules struct {
	Version            int                 `yaml:"version"`
	SeriesBrands       []string            `yaml:"series_brands"`
	SpeciesCorrections []SpeciesCorrection `yaml:"species_corrections"`
	CultivarTypos      map[string]string   `yaml:"cultivar_typos"`

	brands    map[string]string
	bySpecies map[string]SpeciesCorrection
	cultivars map[string]map[string]string
	typos     map[string]string
}

var (
	defaultOnce  sync.Once
	defaultRules *Rules
)

// DefaultRules returns the embedded rules table. It panics if the embedded
// table is invalid, which the package tests guard against.
func DefaultRules() *Rules {
	defaultOnce.Do(func() {
		r, err := ParseRules(defaultRulesYAML)
		if err != nil {
			panic(err)
		}
		defaultRules = r
	})
	return defaultRules
}

// LoadRulesFile reads a rules table from a YAML file.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "nomenclature: read rules %s", path)
	}
	return ParseRules(data)
}

// ParseRules decodes and indexes a YAML rules table.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "nomenclature: decode rules")
	}
	if r.Version <= 0 {
		return nil, eris.New("nomenclature: rules version must be positive")
	}

	r.brands = make(map[string]string, len(r.SeriesBrands))
	for _, b := range r.SeriesBrands {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		r.brands[strings.ToLower(b)] = b
	}

	r.bySpecies = make(map[string]SpeciesCorrection)
	r.cultivars = make(map[string]map[string]string)
	for i, sc := range r.SpeciesCorrections {
		if sc.Genus == "" || sc.Cultivar == "" || sc.Species == "" {
			return nil, eris.Errorf("nomenclature: species correction %d needs genus, cultivar and species", i)
		}
		genus := strings.ToLower(sc.Genus)
		r.bySpecies[lookupKey(sc.Genus, sc.Cultivar)] = sc
		for _, cn := range sc.CommonNames {
			r.bySpecies[lookupKey(sc.Genus, cn)] = sc
		}
		if r.cultivars[genus] == nil {
			r.cultivars[genus] = make(map[string]string)
		}
		r.cultivars[genus][strings.ToLower(sc.Cultivar)] = sc.Cultivar
	}

	r.typos = make(map[string]string, len(r.CultivarTypos))
	for k, v := range r.CultivarTypos {
		r.typos[strings.ToLower(strings.TrimSpace(k))] = v
	}

	return &r, nil
}

// brand returns the canonical spelling of a series brand token.
func (r *Rules) brand(token string) (string, bool) {
	b, ok := r.brands[strings.ToLower(strings.Trim(token, `'"`))]
	return b, ok
}

// species looks up a correction by genus and cultivar or common name.
func (r *Rules) species(genus, name string) (SpeciesCorrection, bool) {
	if genus == "" || name == "" {
		return SpeciesCorrection{}, false
	}
	sc, ok := r.bySpecies[lookupKey(genus, name)]
	if !ok {
		sc, ok = r.bySpecies[lookupKey(genus, r.fixTypo(name))]
	}
	return sc, ok
}

// knownCultivar reports whether words name a cultivar of genus in the table,
// returning its canonical spelling.
func (r *Rules) knownCultivar(genus, words string) (string, bool) {
	byName := r.cultivars[strings.ToLower(genus)]
	if byName == nil {
		return "", false
	}
	if c, ok := byName[strings.ToLower(words)]; ok {
		return c, true
	}
	c, ok := byName[strings.ToLower(r.fixTypo(words))]
	return c, ok
}

// fixTypo returns the corrected spelling of a cultivar name, or the input.
func (r *Rules) fixTypo(cultivar string) string {
	if fixed, ok := r.typos[strings.ToLower(strings.TrimSpace(cultivar))]; ok {
		return fixed
	}
	return cultivar
}

func lookupKey(genus, name string) string {
	return strings.ToLower(strings.TrimSpace(genus) + " " + strings.Join(strings.Fields(name), " "))
}
