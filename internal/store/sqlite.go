package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"monument/internal/models"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS monuments (
	id            TEXT PRIMARY KEY,
	official_id   TEXT,
	type          TEXT NOT NULL,
	address       TEXT,
	url           TEXT,
	lat           REAL,
	lng           REAL,
	entry_date    TEXT,
	deletion_date TEXT,
	CHECK ((lat IS NULL) = (lng IS NULL))
)`

var (
	sqliteUpsert = fmt.Sprintf(
		"INSERT INTO monuments (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO UPDATE SET %s",
		selectColumns, excludedSet())
	sqliteList = "SELECT " + selectColumns + " FROM monuments ORDER BY id"
	sqliteGet  = "SELECT " + selectColumns + " FROM monuments WHERE id = ?"
)

// SQLiteStore keeps monuments in an embedded SQLite database. Dates are
// stored as YYYY-MM-DD text.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "store: create directory for %s", path)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open sqlite %s", path)
	}
	// a single connection serialises writers
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrapf(err, "store: ping sqlite %s", path)
	}
	zap.L().Info("opened sqlite database", zap.String("path", path))
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "store: create monuments table")
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, records []models.EnrichedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return eris.Wrap(err, "store: prepare upsert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, sqliteArgs(r)...); err != nil {
			return eris.Wrapf(err, "store: upsert monument %s", r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "store: commit tx")
	}
	zap.L().Info("stored monuments", zap.Int("records", len(records)))
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.EnrichedRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteList)
	if err != nil {
		return nil, eris.Wrap(err, "store: list monuments")
	}
	defer rows.Close()

	var out []models.EnrichedRecord
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan monument")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate monuments")
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (models.EnrichedRecord, error) {
	rec, err := scanSQLite(s.db.QueryRowContext(ctx, sqliteGet, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.EnrichedRecord{}, ErrNotFound
	}
	if err != nil {
		return models.EnrichedRecord{}, eris.Wrapf(err, "store: get monument %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqliteArgs(r models.EnrichedRecord) []any {
	args := toRecord(r).args()
	args[7] = nullString(r.EntryDate.String())
	args[8] = nullString(r.DeletionDate.String())
	return args
}

func scanSQLite(row scanner) (models.EnrichedRecord, error) {
	var (
		rec             record
		entry, deletion *string
	)
	err := row.Scan(&rec.ID, &rec.OfficialID, &rec.Type, &rec.Address, &rec.URL,
		&rec.Lat, &rec.Lng, &entry, &deletion)
	if err != nil {
		return models.EnrichedRecord{}, err
	}
	out := rec.model()
	out.EntryDate = models.ParseDate(deref(entry))
	out.DeletionDate = models.ParseDate(deref(deletion))
	return out, nil
}
