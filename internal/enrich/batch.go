package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"monument/internal/dataset"
	"monument/internal/models"
)

// ErrAborted is returned by Batch.Run for a cancelled run. No dataset is
// written in that case.
var ErrAborted = errors.New("enrichment run aborted")

// Batch runs one enrichment from a loaded dataset to the output file.
type Batch struct {
	Orchestrator *Orchestrator
	OutputPath   string

	Now   func() time.Time
	NewID func() string
}

// Run enriches ds and writes the output dataset. The returned report is
// always filled in, also when the run is aborted or the write fails; its
// Outcome tells those cases apart.
func (b *Batch) Run(ctx context.Context, ds *dataset.Dataset) (models.RunReport, error) {
	now := b.Now
	if now == nil {
		now = time.Now
	}
	newID := b.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	runID := newID()
	started := now().UTC()
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("enrichment run started", zap.Int("records", len(ds.Records)))

	results, runErr := b.Orchestrator.Run(ctx, ds.Records)
	records, report := Merge(results)
	report.RunID = runID
	report.StartedAt = started
	report.FinishedAt = now().UTC()
	if runErr != nil {
		report.Aborted = true
	}

	if report.Aborted {
		report.Outcome = models.OutcomeAborted
		log.Warn("enrichment run aborted, no dataset written", reportFields(report)...)
		if runErr == nil {
			runErr = context.Canceled
		}
		return report, fmt.Errorf("%w: %w", ErrAborted, runErr)
	}

	if err := dataset.Write(b.OutputPath, ds.Header, records); err != nil {
		report.Outcome = models.OutcomeWriteFailed
		log.Error("writing dataset failed", zap.String("path", b.OutputPath), zap.Error(err))
		return report, err
	}

	report.Outcome = models.OutcomeCompleted
	log.Info("enrichment run finished", append(reportFields(report), zap.String("path", b.OutputPath))...)
	return report, nil
}

func reportFields(r models.RunReport) []zap.Field {
	return []zap.Field{
		zap.Int("total", r.TotalRecords),
		zap.Int("with_coordinates", r.WithCoordinates),
		zap.Int("without_coordinates", r.WithoutCoordinates),
		zap.Int("fetch_failures", r.Failures[models.KindFetch]),
		zap.Int("parse_failures", r.Failures[models.KindParse]),
		zap.Int("transform_failures", r.Failures[models.KindTransform]),
		zap.Duration("elapsed", r.FinishedAt.Sub(r.StartedAt)),
	}
}
