package store

import (
	"time"

	"go.uber.org/zap"

	"monument/internal/models"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func ptr[T any](v T) *T { return &v }

func fixtures() []models.EnrichedRecord {
	return []models.EnrichedRecord{
		{
			SourceRecord: models.SourceRecord{
				ID:             "2",
				OfficialNumber: "A 0815",
				Category:       "Baudenkmal",
				Address:        "Domhof 1",
				DetailURL:      "https://example.test/denkmal/2",
				EntryDate:      models.ParseDate("1985-06-14"),
			},
			Coordinate: &models.Coordinate{Lat: 50.774722, Lng: 6.083889},
		},
		{
			SourceRecord: models.SourceRecord{
				ID:           "10",
				Category:     "Bodendenkmal",
				DetailURL:    "https://example.test/denkmal/10",
				DeletionDate: models.ParseDate("2001-12-31"),
			},
		},
	}
}

func day(s string) *time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}
