package nomenclature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gardenscape/plant-import/internal/model"
)

func TestNormalizeName(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"all caps known cultivar", "HELIANTHUS CAPENOCH STAR", "Helianthus decapetalus 'Capenoch Star'"},
		{"series brand", "Helianthus Sunfiniti Yellow Dark Center", "Helianthus Sunfiniti Series 'Yellow Dark Center'"},
		{"all caps series brand", "HELIANTHUS SUNFINITY YELLOW", "Helianthus Sunfinity Series 'Yellow'"},
		{"implicit cultivar", "Helianthus Lemon Queen", "Helianthus pauciflorus 'Lemon Queen'"},
		{"trailing known cultivar", "Echinacea purpurea Magnus", "Echinacea purpurea 'Magnus'"},
		{"caps typo", "HELIANTHUS CAPENOR STAR", "Helianthus decapetalus 'Capenoch Star'"},
		{"quoted typo", "Rudbeckia 'Goldstrum'", "Rudbeckia fulgida 'Goldsturm'"},
		{"hybrid marker", "Nepeta x faassenii 'Six Hills Giant'", "Nepeta × faassenii 'Six Hills Giant'"},
		{"caps hybrid", "NEPETA X FAASSENII", "Nepeta × faassenii"},
		{"caps with quoted cultivar", "SALVIA NEMOROSA 'MAY NIGHT'", "Salvia nemorosa 'May Night'"},
		{"curly quotes", "Salvia nemorosa ‘May Night’", "Salvia nemorosa 'May Night'"},
		{"extra whitespace", "  Acer   palmatum  ", "Acer palmatum"},
		{"plain binomial", "Helianthus annuus", "Helianthus annuus"},
		{"infraspecific rank", "Acer palmatum var. dissectum", "Acer palmatum var. dissectum"},
		{"unknown cultivar kept", "Rosa 'Peace'", "Rosa 'Peace'"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.NormalizeName(tt.in))
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	n := New(nil)

	inputs := []string{
		"HELIANTHUS CAPENOCH STAR",
		"Helianthus Sunfiniti Yellow Dark Center",
		"Helianthus Lemon Queen",
		"Nepeta x faassenii 'Six Hills Giant'",
		"SALVIA NEMOROSA 'MAY NIGHT'",
		"Echinacea purpurea Magnus",
		"Acer palmatum var. dissectum",
		"Hydrangea Annabelle",
		"Leucanthemum Becky",
		"Rosa",
	}
	for _, in := range inputs {
		once := n.NormalizeName(in)
		assert.Equal(t, once, n.NormalizeName(once), "input %q", in)
	}
}

func TestNormalize_KnownSpeciesFromCultivar(t *testing.T) {
	n := New(nil)

	c := model.Candidate{Genus: "Helianthus", Cultivar: "Lemon Queen"}
	n.Normalize(&c)

	assert.Equal(t, "pauciflorus", c.Species)
	assert.Equal(t, "Helianthus pauciflorus 'Lemon Queen'", c.ScientificName)

	c2 := model.Candidate{ScientificName: "Helianthus", Genus: "helianthus", Cultivar: "'Lemon Queen'"}
	n.Normalize(&c2)
	assert.Equal(t, "Helianthus", c2.Genus)
	assert.Equal(t, "Lemon Queen", c2.Cultivar)
	assert.Equal(t, "Helianthus pauciflorus 'Lemon Queen'", c2.ScientificName)
}

func TestNormalize_SpeciesFromCommonName(t *testing.T) {
	n := New(nil)

	c := model.Candidate{
		ScientificName: "Hydrangea 'Incrediball'",
		CommonName:     "Smooth Hydrangea",
	}
	n.Normalize(&c)

	assert.Equal(t, "Hydrangea", c.Genus)
	assert.Equal(t, "Incrediball", c.Cultivar)
	assert.Equal(t, "arborescens", c.Species)
	assert.Equal(t, "Hydrangea arborescens 'Incrediball'", c.ScientificName)
}

func TestNormalize_SeriesFields(t *testing.T) {
	n := New(nil)

	c := model.Candidate{ScientificName: "Helianthus Sunfiniti Yellow Dark Center"}
	n.Normalize(&c)

	assert.Equal(t, "Helianthus", c.Genus)
	assert.Equal(t, "Sunfiniti", c.Series)
	assert.Equal(t, "Yellow Dark Center", c.Cultivar)
	assert.Empty(t, c.Species)
}

func TestNormalize_LowercaseNameHasNoGenus(t *testing.T) {
	n := New(nil)

	c := model.Candidate{ScientificName: "helianthus capenor star"}
	n.Normalize(&c)

	assert.Equal(t, "helianthus capenor star", c.ScientificName)
	assert.Empty(t, c.Genus)
	assert.Empty(t, c.Cultivar)
	assert.Equal(t, "capenor", c.Species)
	assert.Equal(t, c.ScientificName, n.NormalizeName(c.ScientificName))
}

func TestNormalize_KeepsProvidedSpecies(t *testing.T) {
	n := New(nil)

	c := model.Candidate{ScientificName: "Echinacea 'Magnus'", Species: "angustifolia"}
	n.Normalize(&c)

	assert.Equal(t, "angustifolia", c.Species)
	assert.Equal(t, "Echinacea 'Magnus'", c.ScientificName)
}

func TestNormalize_CustomRules(t *testing.T) {
	rules, err := ParseRules([]byte(`
version: 1
series_brands: [Kismet]
species_corrections:
  - genus: Rosa
    cultivar: Peace
    species: × hybrida
`))
	if err != nil {
		t.Fatal(err)
	}
	n := New(rules)

	assert.Equal(t, 1, n.RulesVersion())
	assert.Equal(t, "Rosa × hybrida 'Peace'", n.NormalizeName("Rosa 'Peace'"))
	// Default-table entries are absent.
	assert.Equal(t, "Helianthus 'Lemon Queen'", n.NormalizeName("Helianthus Lemon Queen"))
}

func TestBinomial(t *testing.T) {
	assert.Equal(t, "Helianthus decapetalus", Binomial("Helianthus decapetalus 'Capenoch Star'"))
	assert.Equal(t, "Helianthus", Binomial("Helianthus Sunfiniti Series 'Yellow'"))
	assert.Equal(t, "Nepeta × faassenii", Binomial("Nepeta × faassenii 'Six Hills Giant'"))
	assert.Equal(t, "Acer palmatum", Binomial("Acer palmatum var. dissectum"))
	assert.Equal(t, "", Binomial("  "))
}

func TestNeedsRecase(t *testing.T) {
	assert.True(t, needsRecase("ACER PALMATUM"))
	assert.True(t, needsRecase("Acer PALMATUM"))
	assert.False(t, needsRecase("Acer palmatum 'Bloodgood'"))
	assert.False(t, needsRecase("Acer palmatum 'RED'"))
	assert.False(t, needsRecase(""))
}
