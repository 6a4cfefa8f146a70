// Package store persists enriched monument records for the serving layer.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"monument/internal/config"
	"monument/internal/models"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("store: monument not found")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store reads and writes the monuments table.
type Store interface {
	// EnsureSchema creates the monuments table if it does not exist.
	EnsureSchema(ctx context.Context) error
	// Upsert inserts or replaces records in one transaction: either every
	// record is stored or none is.
	Upsert(ctx context.Context, records []models.EnrichedRecord) error
	// List returns all monuments ordered by id.
	List(ctx context.Context) ([]models.EnrichedRecord, error)
	Get(ctx context.Context, id string) (models.EnrichedRecord, error)
	Close() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case DriverSQLite:
		return OpenSQLite(ctx, sqlitePath(cfg.DatabaseURL))
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// sqlitePath accepts both a bare path and a sqlite:// URL.
func sqlitePath(url string) string {
	for _, prefix := range []string{"sqlite:///", "sqlite://", "sqlite:", "file:"} {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

// columns are the monuments table columns in insert and select order.
var columns = []string{
	"id", "official_id", "type", "address", "url", "lat", "lng", "entry_date", "deletion_date",
}

// record is the nullable column form of an EnrichedRecord.
type record struct {
	ID           string
	OfficialID   *string
	Type         string
	Address      *string
	URL          *string
	Lat          *float64
	Lng          *float64
	EntryDate    *time.Time
	DeletionDate *time.Time
}

func toRecord(r models.EnrichedRecord) record {
	rec := record{
		ID:           r.ID,
		OfficialID:   nullString(r.OfficialNumber),
		Type:         r.Category,
		Address:      nullString(r.Address),
		URL:          nullString(r.DetailURL),
		EntryDate:    r.EntryDate.Ptr(),
		DeletionDate: r.DeletionDate.Ptr(),
	}
	if r.Coordinate != nil {
		lat, lng := r.Coordinate.Lat, r.Coordinate.Lng
		rec.Lat, rec.Lng = &lat, &lng
	}
	return rec
}

func (rec record) args() []any {
	return []any{rec.ID, rec.OfficialID, rec.Type, rec.Address, rec.URL, rec.Lat, rec.Lng, rec.EntryDate, rec.DeletionDate}
}

func (rec record) model() models.EnrichedRecord {
	out := models.EnrichedRecord{
		SourceRecord: models.SourceRecord{
			ID:             rec.ID,
			OfficialNumber: deref(rec.OfficialID),
			Category:       rec.Type,
			Address:        deref(rec.Address),
			DetailURL:      deref(rec.URL),
		},
	}
	if rec.EntryDate != nil {
		out.EntryDate = models.NewDate(*rec.EntryDate)
	}
	if rec.DeletionDate != nil {
		out.DeletionDate = models.NewDate(*rec.DeletionDate)
	}
	// both or neither
	if rec.Lat != nil && rec.Lng != nil {
		if c, err := models.NewCoordinate(*rec.Lat, *rec.Lng); err == nil {
			out.Coordinate = &c
		}
	}
	return out
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
