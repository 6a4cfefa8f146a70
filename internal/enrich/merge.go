package enrich

import (
	"errors"

	"monument/internal/models"
)

// Merge collects results in input order and derives the run report counts.
// Failures are tallied by kind; records that never started are counted as
// without coordinates and mark the report aborted.
func Merge(results []Result) ([]models.EnrichedRecord, models.RunReport) {
	records := make([]models.EnrichedRecord, len(results))
	report := models.RunReport{
		TotalRecords: len(results),
		Failures:     make(map[models.Kind]int),
	}

	for i, r := range results {
		records[i] = r.Record
		if r.Record.HasCoordinate() {
			report.WithCoordinates++
			continue
		}
		report.WithoutCoordinates++
		switch {
		case errors.Is(r.Err, ErrNotStarted):
			report.Aborted = true
		case r.Err != nil:
			report.Failures[models.KindOf(r.Err)]++
		}
	}
	return records, report
}
