package nomenclature

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	require.NotNil(t, r)
	assert.Positive(t, r.Version)
	assert.NotEmpty(t, r.SeriesBrands)
	assert.Same(t, r, DefaultRules())

	b, ok := r.brand("SUNFINITI")
	assert.True(t, ok)
	assert.Equal(t, "Sunfiniti", b)

	sc, ok := r.species("helianthus", "lemon  queen")
	require.True(t, ok)
	assert.Equal(t, "pauciflorus", sc.Species)

	sc, ok = r.species("Helianthus", "Lemon Queen Sunflower")
	require.True(t, ok)
	assert.Equal(t, "Lemon Queen", sc.Cultivar)

	c, ok := r.knownCultivar("Acer", "bloodgod")
	assert.True(t, ok)
	assert.Equal(t, "Bloodgood", c)

	_, ok = r.knownCultivar("Quercus", "bloodgood")
	assert.False(t, ok)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing version", "series_brands: [Kismet]\n"},
		{"negative version", "version: -1\n"},
		{"missing species", "version: 1\nspecies_corrections:\n  - genus: Rosa\n    cultivar: Peace\n"},
		{"malformed", "version: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 7\ncultivar_typos:\n  Pece: Peace\n"), 0o644))

	r, err := LoadRulesFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Version)
	assert.Equal(t, "Peace", r.fixTypo("pece"))
	assert.Equal(t, "Unknown", r.fixTypo("Unknown"))

	_, err = LoadRulesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
