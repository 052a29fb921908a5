// Package store persists plants and import runs.
package store

import (
	"context"

	"github.com/gardenscape/plant-import/internal/model"
)

// PlantFilter specifies criteria for listing plants.
type PlantFilter struct {
	Query  string       `json:"query,omitempty"`
	Family string       `json:"family,omitempty"`
	Source model.Source `json:"source,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

// RunFilter specifies criteria for listing import runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Source model.Source    `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface of the import pipeline.
type Store interface {
	// Plants
	FindPlantByScientificName(ctx context.Context, name string) (*model.Plant, error)
	GetPlant(ctx context.Context, id string) (*model.Plant, error)
	InsertPlant(ctx context.Context, p *model.Plant) error
	ListPlants(ctx context.Context, filter PlantFilter) ([]model.Plant, error)
	CountPlants(ctx context.Context, filter PlantFilter) (int, error)

	// Runs
	CreateRun(ctx context.Context, source model.Source, query string) (*model.ImportRun, error)
	CompleteRun(ctx context.Context, run *model.ImportRun) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.ImportRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// plantColumns is the column order used by every plant INSERT and SELECT.
const plantColumns = `id, scientific_name, common_name, family, genus, species, cultivar, description,
	cycle, watering, sunlight, soil, maintenance, hardiness_zones, growth_rate,
	flower_color, flowering_season, poisonous_to_pets, poisonous_to_humans,
	height_min_cm, height_max_cm, height_min_inches, height_max_inches,
	spread_min_cm, spread_max_cm, spread_min_inches, spread_max_inches,
	conservation_status, native_region, image_url, source, external_id, created_at`

const runColumns = `id, source, query, status, imported, skipped, failed, error, created_at, completed_at`

func limitOrDefault(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
