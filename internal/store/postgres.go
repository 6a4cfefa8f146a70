package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"monument/internal/models"
)

// Pool is the subset of *pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const postgresSchema = `CREATE TABLE IF NOT EXISTS monuments (
	id            TEXT PRIMARY KEY,
	official_id   TEXT,
	type          TEXT NOT NULL,
	address       TEXT,
	url           TEXT,
	lat           DOUBLE PRECISION,
	lng           DOUBLE PRECISION,
	entry_date    DATE,
	deletion_date DATE,
	CHECK ((lat IS NULL) = (lng IS NULL))
)`

var (
	selectColumns = strings.Join(columns, ", ")

	postgresUpsert = fmt.Sprintf(
		"INSERT INTO monuments (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (id) DO UPDATE SET %s",
		selectColumns, excludedSet())
	postgresList = "SELECT " + selectColumns + " FROM monuments ORDER BY id"
	postgresGet  = "SELECT " + selectColumns + " FROM monuments WHERE id = $1"
)

func excludedSet() string {
	set := make([]string, 0, len(columns)-1)
	for _, c := range columns[1:] {
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	return strings.Join(set, ", ")
}

// PostgresStore keeps monuments in PostgreSQL.
type PostgresStore struct {
	pool  Pool
	close func()
}

// OpenPostgres connects a pgx pool to databaseURL and verifies it.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}
	zap.L().Info("connected to postgres")
	return &PostgresStore{pool: pool, close: pool.Close}, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, close: func() {}}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "store: create monuments table")
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, records []models.EnrichedRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if _, err := tx.Exec(ctx, postgresUpsert, toRecord(r).args()...); err != nil {
			return eris.Wrapf(err, "store: upsert monument %s", r.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "store: commit tx")
	}
	zap.L().Info("stored monuments", zap.Int("records", len(records)))
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.EnrichedRecord, error) {
	rows, err := s.pool.Query(ctx, postgresList)
	if err != nil {
		return nil, eris.Wrap(err, "store: list monuments")
	}
	defer rows.Close()

	var out []models.EnrichedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan monument")
		}
		out = append(out, rec.model())
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate monuments")
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.EnrichedRecord, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, postgresGet, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EnrichedRecord{}, ErrNotFound
	}
	if err != nil {
		return models.EnrichedRecord{}, eris.Wrapf(err, "store: get monument %s", id)
	}
	return rec.model(), nil
}

func (s *PostgresStore) Close() error {
	s.close()
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (record, error) {
	var rec record
	err := row.Scan(&rec.ID, &rec.OfficialID, &rec.Type, &rec.Address, &rec.URL,
		&rec.Lat, &rec.Lng, &rec.EntryDate, &rec.DeletionDate)
	return rec, err
}
