package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gardenscape/plant-import/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// scientific_name is indexed but not unique: duplicates are prevented by the
// importer's lookup, not by the schema.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS plants (
	id                  TEXT PRIMARY KEY,
	scientific_name     TEXT NOT NULL,
	common_name         TEXT NOT NULL DEFAULT '',
	family              TEXT NOT NULL DEFAULT '',
	genus               TEXT NOT NULL DEFAULT '',
	species             TEXT NOT NULL DEFAULT '',
	cultivar            TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	cycle               TEXT NOT NULL DEFAULT '',
	watering            TEXT NOT NULL DEFAULT '',
	sunlight            TEXT NOT NULL DEFAULT '[]',
	soil                TEXT NOT NULL DEFAULT '[]',
	maintenance         TEXT NOT NULL DEFAULT '',
	hardiness_zones     TEXT NOT NULL DEFAULT '',
	growth_rate         TEXT NOT NULL DEFAULT '',
	flower_color        TEXT NOT NULL DEFAULT '',
	flowering_season    TEXT NOT NULL DEFAULT '',
	poisonous_to_pets   INTEGER NOT NULL DEFAULT 0,
	poisonous_to_humans INTEGER NOT NULL DEFAULT 0,
	height_min_cm       REAL,
	height_max_cm       REAL,
	height_min_inches   REAL,
	height_max_inches   REAL,
	spread_min_cm       REAL,
	spread_max_cm       REAL,
	spread_min_inches   REAL,
	spread_max_inches   REAL,
	conservation_status TEXT NOT NULL DEFAULT '',
	native_region       TEXT NOT NULL DEFAULT '',
	image_url           TEXT NOT NULL DEFAULT '',
	source              TEXT NOT NULL DEFAULT '',
	external_id         TEXT NOT NULL DEFAULT '',
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS import_runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	query        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'running',
	imported     INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_plants_scientific_name ON plants(scientific_name);
CREATE INDEX IF NOT EXISTS idx_plants_family ON plants(family);
CREATE INDEX IF NOT EXISTS idx_import_runs_status ON import_runs(status);
CREATE INDEX IF NOT EXISTS idx_import_runs_created_at ON import_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FindPlantByScientificName returns the first plant whose name matches
// exactly (case-sensitive), or nil if there is none.
func (s *SQLiteStore) FindPlantByScientificName(ctx context.Context, name string) (*model.Plant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE scientific_name = ? ORDER BY created_at LIMIT 1`,
		name,
	)
	p, err := scanSQLitePlant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find plant %q", name)
	}
	return p, nil
}

func (s *SQLiteStore) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = ?`, id)
	p, err := scanSQLitePlant(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("plant not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get plant %s", id)
	}
	return p, nil
}

func (s *SQLiteStore) InsertPlant(ctx context.Context, p *model.Plant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	sunlight, err := json.Marshal(nonNil(p.Sunlight))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sunlight")
	}
	soil, err := json.Marshal(nonNil(p.Soil))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal soil")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plants (`+plantColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ScientificName, p.CommonName, p.Family, p.Genus, p.Species, p.Cultivar, p.Description,
		p.Cycle, p.Watering, string(sunlight), string(soil), p.Maintenance, p.HardinessZones, p.GrowthRate,
		p.FlowerColor, p.FloweringSeason, p.PoisonousToPets, p.PoisonousToHumans,
		p.HeightMinCM, p.HeightMaxCM, p.HeightMinInches, p.HeightMaxInches,
		p.SpreadMinCM, p.SpreadMaxCM, p.SpreadMinInches, p.SpreadMaxInches,
		p.ConservationStatus, p.NativeRegion, p.ImageURL, string(p.Source), p.ExternalID, p.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert plant %q", p.ScientificName)
}

func (s *SQLiteStore) ListPlants(ctx context.Context, filter PlantFilter) ([]model.Plant, error) {
	where, args := sqlitePlantWhere(filter)
	query := `SELECT ` + plantColumns + ` FROM plants` + where + ` ORDER BY scientific_name LIMIT ?`
	args = append(args, limitOrDefault(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plants")
	}
	defer rows.Close()

	var plants []model.Plant
	for rows.Next() {
		p, err := scanSQLitePlant(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan plant")
		}
		plants = append(plants, *p)
	}
	return plants, eris.Wrap(rows.Err(), "sqlite: list plants iterate")
}

func (s *SQLiteStore) CountPlants(ctx context.Context, filter PlantFilter) (int, error) {
	where, args := sqlitePlantWhere(filter)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plants`+where, args...).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count plants")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, source model.Source, query string) (*model.ImportRun, error) {
	run := &model.ImportRun{
		ID:        uuid.New().String(),
		Source:    source,
		Query:     query,
		Status:    model.RunStatusRunning,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, source, query, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Source), run.Query, string(run.Status), run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, run *model.ImportRun) error {
	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE import_runs SET status = ?, imported = ?, skipped = ?, failed = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(run.Status), run.Imported, run.Skipped, run.Failed, run.Error, *run.CompletedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	return checkRowsAffected(res, "run", run.ID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOrDefault(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.ImportRun
	for rows.Next() {
		var r model.ImportRun
		if err := rows.Scan(&r.ID, &r.Source, &r.Query, &r.Status, &r.Imported, &r.Skipped, &r.Failed,
			&r.Error, &r.CreatedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func sqlitePlantWhere(f PlantFilter) (string, []any) {
	var clauses []string
	var args []any
	if q := strings.TrimSpace(f.Query); q != "" {
		clauses = append(clauses, `(scientific_name LIKE ? OR common_name LIKE ?)`)
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if f.Family != "" {
		clauses = append(clauses, `family = ? COLLATE NOCASE`)
		args = append(args, f.Family)
	}
	if f.Source != "" {
		clauses = append(clauses, `source = ?`)
		args = append(args, string(f.Source))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLitePlant(row scannable) (*model.Plant, error) {
	var p model.Plant
	var sunlight, soil string
	err := row.Scan(
		&p.ID, &p.ScientificName, &p.CommonName, &p.Family, &p.Genus, &p.Species, &p.Cultivar, &p.Description,
		&p.Cycle, &p.Watering, &sunlight, &soil, &p.Maintenance, &p.HardinessZones, &p.GrowthRate,
		&p.FlowerColor, &p.FloweringSeason, &p.PoisonousToPets, &p.PoisonousToHumans,
		&p.HeightMinCM, &p.HeightMaxCM, &p.HeightMinInches, &p.HeightMaxInches,
		&p.SpreadMinCM, &p.SpreadMaxCM, &p.SpreadMinInches, &p.SpreadMaxInches,
		&p.ConservationStatus, &p.NativeRegion, &p.ImageURL, &p.Source, &p.ExternalID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sunlight), &p.Sunlight); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal sunlight")
	}
	if err := json.Unmarshal([]byte(soil), &p.Soil); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal soil")
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
