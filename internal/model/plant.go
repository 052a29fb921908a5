package model

import (
	"time"
)

// Source identifies the external catalogue a plant record came from.
type Source string

const (
	SourcePerenual    Source = "perenual"
	SourceGBIF        Source = "gbif"
	SourceINaturalist Source = "inaturalist"
	SourceManual      Source = "manual"
)

// ParseSource maps a user-supplied source name to a Source.
func ParseSource(s string) (Source, bool) {
	switch Source(s) {
	case SourcePerenual, SourceGBIF, SourceINaturalist, SourceManual:
		return Source(s), true
	case "inat":
		return SourceINaturalist, true
	}
	return "", false
}

// Candidate is a flattened plant record produced by a source adapter and
// refined by the normalizer and the enrichment stages before it is persisted.
type Candidate struct {
	ScientificName string `json:"scientific_name,omitempty"`
	CommonName     string `json:"common_name,omitempty"`
	Family         string `json:"family,omitempty"`
	Genus          string `json:"genus,omitempty"`
	Species        string `json:"species,omitempty"`
	Series         string `json:"series,omitempty"`
	Cultivar       string `json:"cultivar,omitempty"`
	Description    string `json:"description,omitempty"`

	Cycle          string   `json:"cycle,omitempty"`
	Watering       string   `json:"watering,omitempty"`
	Sunlight       []string `json:"sunlight,omitempty"`
	Soil           []string `json:"soil,omitempty"`
	Maintenance    string   `json:"maintenance,omitempty"`
	HardinessZones string   `json:"hardiness_zones,omitempty"`
	GrowthRate     string   `json:"growth_rate,omitempty"`

	FlowerColor     string `json:"flower_color,omitempty"`
	FloweringSeason string `json:"flowering_season,omitempty"`

	PoisonousToPets   *bool `json:"poisonous_to_pets,omitempty"`
	PoisonousToHumans *bool `json:"poisonous_to_humans,omitempty"`

	Dimensions Dimensions `json:"dimensions"`

	ConservationStatus string `json:"conservation_status,omitempty"`
	NativeRegion       string `json:"native_region,omitempty"`
	ImageURL           string `json:"image_url,omitempty"`

	Source     Source `json:"source,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// Dimensions holds height and spread ranges in both metric and imperial units.
// A nil pointer means the value is unknown.
type Dimensions struct {
	HeightMinCM     *float64 `json:"height_min_cm,omitempty"`
	HeightMaxCM     *float64 `json:"height_max_cm,omitempty"`
	HeightMinInches *float64 `json:"height_min_inches,omitempty"`
	HeightMaxInches *float64 `json:"height_max_inches,omitempty"`
	SpreadMinCM     *float64 `json:"spread_min_cm,omitempty"`
	SpreadMaxCM     *float64 `json:"spread_max_cm,omitempty"`
	SpreadMinInches *float64 `json:"spread_min_inches,omitempty"`
	SpreadMaxInches *float64 `json:"spread_max_inches,omitempty"`
}

// Plant is a row of the plants table.
type Plant struct {
	ID             string `json:"id"`
	ScientificName string `json:"scientific_name"`
	CommonName     string `json:"common_name"`
	Family         string `json:"family"`
	Genus          string `json:"genus"`
	Species        string `json:"species"`
	Cultivar       string `json:"cultivar"`
	Description    string `json:"description"`

	Cycle          string   `json:"cycle"`
	Watering       string   `json:"watering"`
	Sunlight       []string `json:"sunlight"`
	Soil           []string `json:"soil"`
	Maintenance    string   `json:"maintenance"`
	HardinessZones string   `json:"hardiness_zones"`
	GrowthRate     string   `json:"growth_rate"`

	FlowerColor     string `json:"flower_color"`
	FloweringSeason string `json:"flowering_season"`

	PoisonousToPets   bool `json:"poisonous_to_pets"`
	PoisonousToHumans bool `json:"poisonous_to_humans"`

	HeightMinCM     *float64 `json:"height_min_cm,omitempty"`
	HeightMaxCM     *float64 `json:"height_max_cm,omitempty"`
	HeightMinInches *float64 `json:"height_min_inches,omitempty"`
	HeightMaxInches *float64 `json:"height_max_inches,omitempty"`
	SpreadMinCM     *float64 `json:"spread_min_cm,omitempty"`
	SpreadMaxCM     *float64 `json:"spread_max_cm,omitempty"`
	SpreadMinInches *float64 `json:"spread_min_inches,omitempty"`
	SpreadMaxInches *float64 `json:"spread_max_inches,omitempty"`

	ConservationStatus string `json:"conservation_status"`
	NativeRegion       string `json:"native_region"`
	ImageURL           string `json:"image_url"`

	Source     Source    `json:"source"`
	ExternalID string    `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunStatus represents the state of an import run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// ImportRun records a single invocation of the import pipeline.
type ImportRun struct {
	ID          string     `json:"id"`
	Source      Source     `json:"source"`
	Query       string     `json:"query"`
	Status      RunStatus  `json:"status"`
	Imported    int        `json:"imported"`
	Skipped     int        `json:"skipped"`
	Failed      int        `json:"failed"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
