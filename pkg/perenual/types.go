package perenual

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SpeciesListResponse is the response from GET /api/species-list.
type SpeciesListResponse struct {
	Data        []Species `json:"data"`
	To          int       `json:"to"`
	PerPage     int       `json:"per_page"`
	CurrentPage int       `json:"current_page"`
	From        int       `json:"from"`
	LastPage    int       `json:"last_page"`
	Total       int       `json:"total"`
}

// Species is one row of the species list.
type Species struct {
	ID             int         `json:"id"`
	CommonName     string      `json:"common_name"`
	ScientificName StringList  `json:"scientific_name"`
	OtherName      StringList  `json:"other_name"`
	Cycle          string      `json:"cycle"`
	Watering       string      `json:"watering"`
	Sunlight       StringList  `json:"sunlight"`
	DefaultImage   *ImageLinks `json:"default_image"`
}

// SpeciesDetails is the response from GET /api/species/details/{id}.
type SpeciesDetails struct {
	ID                int           `json:"id"`
	CommonName        string        `json:"common_name"`
	ScientificName    StringList    `json:"scientific_name"`
	Family            string        `json:"family"`
	Genus             string        `json:"genus"`
	Origin            StringList    `json:"origin"`
	Type              string        `json:"type"`
	Dimension         string        `json:"dimension"`
	Dimensions        DimensionList `json:"dimensions"`
	Cycle             string        `json:"cycle"`
	Watering          string        `json:"watering"`
	Sunlight          StringList    `json:"sunlight"`
	Soil              StringList    `json:"soil"`
	GrowthRate        string        `json:"growth_rate"`
	Maintenance       string        `json:"maintenance"`
	CareLevel         string        `json:"care_level"`
	PoisonousToHumans *Flag         `json:"poisonous_to_humans"`
	PoisonousToPets   *Flag         `json:"poisonous_to_pets"`
	Hardiness         Hardiness     `json:"hardiness"`
	FloweringSeason   string        `json:"flowering_season"`
	FlowerColor       string        `json:"flower_color"`
	Description       string        `json:"description"`
	DefaultImage      *ImageLinks   `json:"default_image"`
}

// Dimension is one structured size measurement.
type Dimension struct {
	Type     string   `json:"type"`
	MinValue *float64 `json:"min_value"`
	MaxValue *float64 `json:"max_value"`
	Unit     string   `json:"unit"`
}

// Hardiness is the USDA zone range.
type Hardiness struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Zones renders the range as "min-max", or a single zone when both ends match.
func (h Hardiness) Zones() string {
	lo, hi := strings.TrimSpace(h.Min), strings.TrimSpace(h.Max)
	switch {
	case lo == "" && hi == "":
		return ""
	case lo == "" || lo == hi:
		return hi
	case hi == "":
		return lo
	}
	return lo + "-" + hi
}

// ImageLinks holds the image URLs of a species.
type ImageLinks struct {
	OriginalURL  string `json:"original_url"`
	RegularURL   string `json:"regular_url"`
	MediumURL    string `json:"medium_url"`
	SmallURL     string `json:"small_url"`
	ThumbnailURL string `json:"thumbnail"`
}

// StringList accepts a JSON array of strings, a single string, or null.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if v == "" {
			*s = nil
			return nil
		}
		*s = StringList{v}
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return err
	}
	*s = vs
	return nil
}

// First returns the first non-blank entry.
func (s StringList) First() string {
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// DimensionList accepts either a single dimension object or an array of them.
type DimensionList []Dimension

// UnmarshalJSON implements json.Unmarshaler.
func (d *DimensionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = nil
		return nil
	}
	if data[0] == '{' {
		var one Dimension
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*d = DimensionList{one}
		return nil
	}
	var many []Dimension
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*d = many
	return nil
}

// Flag is a boolean the API encodes as true/false, 0/1 or "0"/"1".
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = false
		return nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		*f = Flag(b)
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = n != 0
	return nil
}
