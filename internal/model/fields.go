package model

import (
	"math"
	"strings"
)

// CentimetersPerInch converts between the two dimension units.
const CentimetersPerInch = 2.54

// candidateField describes one enrichable field of a Candidate.
type candidateField struct {
	name  string
	empty func(c *Candidate) bool
	fill  func(dst, src *Candidate) bool
}

// enrichableFields lists the fields enrichment stages may fill, in prompt order.
var enrichableFields = []candidateField{
	strField("common_name", func(c *Candidate) *string { return &c.CommonName }),
	strField("family", func(c *Candidate) *string { return &c.Family }),
	strField("genus", func(c *Candidate) *string { return &c.Genus }),
	strField("species", func(c *Candidate) *string { return &c.Species }),
	strField("description", func(c *Candidate) *string { return &c.Description }),
	strField("cycle", func(c *Candidate) *string { return &c.Cycle }),
	strField("watering", func(c *Candidate) *string { return &c.Watering }),
	listField("sunlight", func(c *Candidate) *[]string { return &c.Sunlight }),
	listField("soil", func(c *Candidate) *[]string { return &c.Soil }),
	strField("maintenance", func(c *Candidate) *string { return &c.Maintenance }),
	strField("hardiness_zones", func(c *Candidate) *string { return &c.HardinessZones }),
	strField("growth_rate", func(c *Candidate) *string { return &c.GrowthRate }),
	strField("flower_color", func(c *Candidate) *string { return &c.FlowerColor }),
	strField("flowering_season", func(c *Candidate) *string { return &c.FloweringSeason }),
	boolField("poisonous_to_pets", func(c *Candidate) **bool { return &c.PoisonousToPets }),
	boolField("poisonous_to_humans", func(c *Candidate) **bool { return &c.PoisonousToHumans }),
	floatField("height_min_cm", func(c *Candidate) **float64 { return &c.Dimensions.HeightMinCM }),
	floatField("height_max_cm", func(c *Candidate) **float64 { return &c.Dimensions.HeightMaxCM }),
	floatField("spread_min_cm", func(c *Candidate) **float64 { return &c.Dimensions.SpreadMinCM }),
	floatField("spread_max_cm", func(c *Candidate) **float64 { return &c.Dimensions.SpreadMaxCM }),
	strField("conservation_status", func(c *Candidate) *string { return &c.ConservationStatus }),
	strField("native_region", func(c *Candidate) *string { return &c.NativeRegion }),
}

// passiveFields are merged fill-only but never requested from enrichment.
var passiveFields = []candidateField{
	strField("scientific_name", func(c *Candidate) *string { return &c.ScientificName }),
	strField("series", func(c *Candidate) *string { return &c.Series }),
	strField("cultivar", func(c *Candidate) *string { return &c.Cultivar }),
	floatField("height_min_inches", func(c *Candidate) **float64 { return &c.Dimensions.HeightMinInches }),
	floatField("height_max_inches", func(c *Candidate) **float64 { return &c.Dimensions.HeightMaxInches }),
	floatField("spread_min_inches", func(c *Candidate) **float64 { return &c.Dimensions.SpreadMinInches }),
	floatField("spread_max_inches", func(c *Candidate) **float64 { return &c.Dimensions.SpreadMaxInches }),
	strField("image_url", func(c *Candidate) *string { return &c.ImageURL }),
}

// EnrichableFieldNames returns the names of all fields enrichment may fill.
func EnrichableFieldNames() []string {
	names := make([]string, len(enrichableFields))
	for i, f := range enrichableFields {
		names[i] = f.name
	}
	return names
}

// EmptyFields returns the enrichable fields that have no value yet.
func (c *Candidate) EmptyFields() []string {
	var out []string
	for _, f := range enrichableFields {
		if f.empty(c) {
			out = append(out, f.name)
		}
	}
	return out
}

// Fill copies values from src into fields of c that are empty. A field that
// already holds a value is never overwritten. Returns the names of the
// fields that were filled.
func (c *Candidate) Fill(src Candidate) []string {
	var filled []string
	for _, group := range [][]candidateField{enrichableFields, passiveFields} {
		for _, f := range group {
			if f.fill(c, &src) {
				filled = append(filled, f.name)
			}
		}
	}
	c.Dimensions.DeriveInches()
	return filled
}

// DeriveInches fills missing inch values from centimeter values.
func (d *Dimensions) DeriveInches() {
	derive := func(cm *float64, in **float64) {
		if cm != nil && *in == nil {
			*in = Float(round1(*cm / CentimetersPerInch))
		}
	}
	derive(d.HeightMinCM, &d.HeightMinInches)
	derive(d.HeightMaxCM, &d.HeightMaxInches)
	derive(d.SpreadMinCM, &d.SpreadMinInches)
	derive(d.SpreadMaxCM, &d.SpreadMaxInches)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func strField(name string, get func(*Candidate) *string) candidateField {
	return candidateField{
		name:  name,
		empty: func(c *Candidate) bool { return strings.TrimSpace(*get(c)) == "" },
		fill: func(dst, src *Candidate) bool {
			d, s := get(dst), strings.TrimSpace(*get(src))
			if strings.TrimSpace(*d) != "" || s == "" {
				return false
			}
			*d = s
			return true
		},
	}
}

func listField(name string, get func(*Candidate) *[]string) candidateField {
	return candidateField{
		name:  name,
		empty: func(c *Candidate) bool { return len(*get(c)) == 0 },
		fill: func(dst, src *Candidate) bool {
			d, s := get(dst), *get(src)
			if len(*d) > 0 || len(s) == 0 {
				return false
			}
			*d = append([]string(nil), s...)
			return true
		},
	}
}

func boolField(name string, get func(*Candidate) **bool) candidateField {
	return candidateField{
		name:  name,
		empty: func(c *Candidate) bool { return *get(c) == nil },
		fill: func(dst, src *Candidate) bool {
			d, s := get(dst), *get(src)
			if *d != nil || s == nil {
				return false
			}
			*d = Bool(*s)
			return true
		},
	}
}

func floatField(name string, get func(*Candidate) **float64) candidateField {
	return candidateField{
		name:  name,
		empty: func(c *Candidate) bool { return *get(c) == nil },
		fill: func(dst, src *Candidate) bool {
			d, s := get(dst), *get(src)
			if *d != nil || s == nil {
				return false
			}
			*d = Float(*s)
			return true
		},
	}
}
