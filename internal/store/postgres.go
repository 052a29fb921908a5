package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/gardenscape/plant-import/internal/db"
	"github.com/gardenscape/plant-import/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

const (
	pgFindPlantSQL   = `SELECT ` + plantColumns + ` FROM plants WHERE scientific_name = $1 ORDER BY created_at LIMIT 1`
	pgGetPlantSQL    = `SELECT ` + plantColumns + ` FROM plants WHERE id = $1`
	pgInsertPlantSQL = `INSERT INTO plants (` + plantColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)`
	pgInsertRunSQL   = `INSERT INTO import_runs (id, source, query, status, created_at) VALUES ($1, $2, $3, $4, $5)`
	pgCompleteRunSQL = `UPDATE import_runs SET status = $1, imported = $2, skipped = $3, failed = $4, error = $5, completed_at = $6 WHERE id = $7`
)

// preparedStatements are prepared on each new connection; they run once per
// import candidate.
var preparedStatements = map[string]string{
	"find_plant":   pgFindPlantSQL,
	"insert_plant": pgInsertPlantSQL,
	"insert_run":   pgInsertRunSQL,
	"complete_run": pgCompleteRunSQL,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg, preparedStatements)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS plants (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	scientific_name     TEXT NOT NULL,
	common_name         TEXT NOT NULL DEFAULT '',
	family              TEXT NOT NULL DEFAULT '',
	genus               TEXT NOT NULL DEFAULT '',
	species             TEXT NOT NULL DEFAULT '',
	cultivar            TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	cycle               TEXT NOT NULL DEFAULT '',
	watering            TEXT NOT NULL DEFAULT '',
	sunlight            TEXT[] NOT NULL DEFAULT '{}',
	soil                TEXT[] NOT NULL DEFAULT '{}',
	maintenance         TEXT NOT NULL DEFAULT '',
	hardiness_zones     TEXT NOT NULL DEFAULT '',
	growth_rate         TEXT NOT NULL DEFAULT '',
	flower_color        TEXT NOT NULL DEFAULT '',
	flowering_season    TEXT NOT NULL DEFAULT '',
	poisonous_to_pets   BOOLEAN NOT NULL DEFAULT false,
	poisonous_to_humans BOOLEAN NOT NULL DEFAULT false,
	height_min_cm       DOUBLE PRECISION,
	height_max_cm       DOUBLE PRECISION,
	height_min_inches   DOUBLE PRECISION,
	height_max_inches   DOUBLE PRECISION,
	spread_min_cm       DOUBLE PRECISION,
	spread_max_cm       DOUBLE PRECISION,
	spread_min_inches   DOUBLE PRECISION,
	spread_max_inches   DOUBLE PRECISION,
	conservation_status TEXT NOT NULL DEFAULT '',
	native_region       TEXT NOT NULL DEFAULT '',
	image_url           TEXT NOT NULL DEFAULT '',
	source              TEXT NOT NULL DEFAULT '',
	external_id         TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS import_runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source       TEXT NOT NULL,
	query        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'running',
	imported     INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_plants_scientific_name ON plants(scientific_name);
CREATE INDEX IF NOT EXISTS idx_plants_family ON plants(lower(family));
CREATE INDEX IF NOT EXISTS idx_import_runs_status ON import_runs(status);
CREATE INDEX IF NOT EXISTS idx_import_runs_created_at ON import_runs(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FindPlantByScientificName(ctx context.Context, name string) (*model.Plant, error) {
	p, err := scanPostgresPlant(s.pool.QueryRow(ctx, pgFindPlantSQL, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find plant %q", name)
	}
	return p, nil
}

func (s *PostgresStore) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	p, err := scanPostgresPlant(s.pool.QueryRow(ctx, pgGetPlantSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("plant not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get plant %s", id)
	}
	return p, nil
}

func (s *PostgresStore) InsertPlant(ctx context.Context, p *model.Plant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, pgInsertPlantSQL,
		p.ID, p.ScientificName, p.CommonName, p.Family, p.Genus, p.Species, p.Cultivar, p.Description,
		p.Cycle, p.Watering, nonNil(p.Sunlight), nonNil(p.Soil), p.Maintenance, p.HardinessZones, p.GrowthRate,
		p.FlowerColor, p.FloweringSeason, p.PoisonousToPets, p.PoisonousToHumans,
		p.HeightMinCM, p.HeightMaxCM, p.HeightMinInches, p.HeightMaxInches,
		p.SpreadMinCM, p.SpreadMaxCM, p.SpreadMinInches, p.SpreadMaxInches,
		p.ConservationStatus, p.NativeRegion, p.ImageURL, string(p.Source), p.ExternalID, p.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert plant %q", p.ScientificName)
}

func (s *PostgresStore) ListPlants(ctx context.Context, filter PlantFilter) ([]model.Plant, error) {
	where, args := postgresPlantWhere(filter)
	query := `SELECT ` + plantColumns + ` FROM plants` + where + ` ORDER BY scientific_name`

	args = append(args, limitOrDefault(filter.Limit))
	query += fmt.Sprintf(` LIMIT $%d`, len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list plants")
	}
	defer rows.Close()

	var plants []model.Plant
	for rows.Next() {
		p, err := scanPostgresPlant(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan plant")
		}
		plants = append(plants, *p)
	}
	return plants, eris.Wrap(rows.Err(), "postgres: list plants iterate")
}

func (s *PostgresStore) CountPlants(ctx context.Context, filter PlantFilter) (int, error) {
	where, args := postgresPlantWhere(filter)
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM plants`+where, args...).Scan(&n)
	return n, eris.Wrap(err, "postgres: count plants")
}

func (s *PostgresStore) CreateRun(ctx context.Context, source model.Source, query string) (*model.ImportRun, error) {
	run := &model.ImportRun{
		ID:        uuid.New().String(),
		Source:    source,
		Query:     query,
		Status:    model.RunStatusRunning,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, pgInsertRunSQL,
		run.ID, string(run.Source), run.Query, string(run.Status), run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, run *model.ImportRun) error {
	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	tag, err := s.pool.Exec(ctx, pgCompleteRunSQL,
		string(run.Status), run.Imported, run.Skipped, run.Failed, run.Error, *run.CompletedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Source != "" {
		args = append(args, string(filter.Source))
		query += fmt.Sprintf(` AND source = $%d`, len(args))
	}
	args = append(args, limitOrDefault(filter.Limit))
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ImportRun
	for rows.Next() {
		var r model.ImportRun
		var source, status string
		if err := rows.Scan(&r.ID, &source, &r.Query, &status, &r.Imported, &r.Skipped, &r.Failed,
			&r.Error, &r.CreatedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Source = model.Source(source)
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func postgresPlantWhere(f PlantFilter) (string, []any) {
	var clauses []string
	var args []any
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		clauses = append(clauses, fmt.Sprintf(`(scientific_name ILIKE $%d OR common_name ILIKE $%d)`, len(args), len(args)))
	}
	if f.Family != "" {
		args = append(args, f.Family)
		clauses = append(clauses, fmt.Sprintf(`lower(family) = lower($%d)`, len(args)))
	}
	if f.Source != "" {
		args = append(args, string(f.Source))
		clauses = append(clauses, fmt.Sprintf(`source = $%d`, len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanPostgresPlant(row pgx.Row) (*model.Plant, error) {
	var p model.Plant
	var source string
	err := row.Scan(
		&p.ID, &p.ScientificName, &p.CommonName, &p.Family, &p.Genus, &p.Species, &p.Cultivar, &p.Description,
		&p.Cycle, &p.Watering, &p.Sunlight, &p.Soil, &p.Maintenance, &p.HardinessZones, &p.GrowthRate,
		&p.FlowerColor, &p.FloweringSeason, &p.PoisonousToPets, &p.PoisonousToHumans,
		&p.HeightMinCM, &p.HeightMaxCM, &p.HeightMinInches, &p.HeightMaxInches,
		&p.SpreadMinCM, &p.SpreadMaxCM, &p.SpreadMinInches, &p.SpreadMaxInches,
		&p.ConservationStatus, &p.NativeRegion, &p.ImageURL, &source, &p.ExternalID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Source = model.Source(source)
	return &p, nil
}
