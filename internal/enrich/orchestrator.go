package enrich

import (
	"bytes"
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"monument/internal/models"
	"monument/pkg/detailpage"
)

// ErrCoordinatesNotFound means the detail page has no labelled coordinate
// cell. It is an expected outcome for some records.
var ErrCoordinatesNotFound = errors.New("coordinate field not found on detail page")

// PageFetcher downloads one detail page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// Projection converts a projected point to geographic degrees.
type Projection interface {
	Inverse(easting, northing float64) (lat, lon float64, err error)
}

type Options struct {
	Fetcher    PageFetcher
	Projection Projection
	Locator    detailpage.Locator // defaults to detailpage.FindLabeledValue
	Label      string             // defaults to detailpage.CoordinatesLabel
	AxisOrder  models.AxisOrder   // defaults to models.EastingNorthing
	Workers    int
}

// Result is the outcome of one record: the enriched record and, when it has
// no coordinate, the typed error that explains why.
type Result struct {
	Record models.EnrichedRecord
	Err    error
}

// Orchestrator drives fetch, parse and transform for every record. It holds
// only read-only collaborators and may be reused across runs.
type Orchestrator struct {
	opts     Options
	pipeline *Pipeline[item]
}

// item carries one record through the pipeline stages.
type item struct {
	record models.SourceRecord
	body   []byte
	point  models.ProjectedPoint
	coord  *models.Coordinate
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Locator == nil {
		opts.Locator = detailpage.FindLabeledValue
	}
	if opts.Label == "" {
		opts.Label = detailpage.CoordinatesLabel
	}
	if opts.AxisOrder == "" {
		opts.AxisOrder = models.EastingNorthing
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	o := &Orchestrator{opts: opts}
	o.pipeline = NewPipeline(
		NewStage("fetch", o.fetch),
		NewStage("parse", o.parse),
		NewStage("transform", o.transform),
	)
	return o
}

// Run enriches records and returns one Result per record in input order.
// Per-record failures are contained in their Result. The returned error is
// non-nil only when ctx was cancelled before the run completed; the results
// are then incomplete.
func (o *Orchestrator) Run(ctx context.Context, records []models.SourceRecord) ([]Result, error) {
	items := make([]*item, len(records))
	for i := range records {
		items[i] = &item{record: records[i]}
	}

	zap.L().Info("enriching records",
		zap.Int("records", len(records)),
		zap.Int("workers", o.opts.Workers),
		zap.String("axis_order", string(o.opts.AxisOrder)))

	errs := o.pipeline.RunAll(ctx, items, o.opts.Workers)

	results := make([]Result, len(items))
	for i, it := range items {
		results[i] = Result{
			Record: models.EnrichedRecord{SourceRecord: it.record, Coordinate: it.coord},
			Err:    errs[i],
		}
		// A failed item never carries a partial coordinate.
		if errs[i] != nil {
			results[i].Record.Coordinate = nil
			logFailure(it.record, errs[i])
		}
	}

	if err := ctx.Err(); err != nil {
		return results, eris.Wrap(err, "enrichment cancelled")
	}
	return results, nil
}

func (o *Orchestrator) fetch(ctx context.Context, it *item) error {
	body, err := o.opts.Fetcher.Fetch(ctx, it.record.DetailURL)
	if err != nil {
		return models.NewError(models.KindFetch, err)
	}
	it.body = body
	return nil
}

func (o *Orchestrator) parse(_ context.Context, it *item) error {
	doc, err := detailpage.Parse(bytes.NewReader(it.body))
	it.body = nil
	if err != nil {
		return models.NewError(models.KindParse, eris.Wrap(err, "parse detail page"))
	}

	raw, ok := o.opts.Locator(doc.Selection, o.opts.Label)
	if !ok {
		return models.NewError(models.KindParse, ErrCoordinatesNotFound)
	}
	first, second, err := detailpage.ExtractPair(raw)
	if err != nil {
		return models.NewError(models.KindParse, eris.Wrapf(err, "coordinate text %q", raw))
	}
	it.point = o.opts.AxisOrder.Point(first, second)
	return nil
}

func (o *Orchestrator) transform(_ context.Context, it *item) error {
	lat, lng, err := o.opts.Projection.Inverse(it.point.Easting, it.point.Northing)
	if err != nil {
		return models.NewError(models.KindTransform,
			eris.Wrapf(err, "easting %v northing %v", it.point.Easting, it.point.Northing))
	}
	c, err := models.NewCoordinate(lat, lng)
	if err != nil {
		return models.NewError(models.KindTransform, err)
	}
	it.coord = &c
	return nil
}

func logFailure(rec models.SourceRecord, err error) {
	if errors.Is(err, ErrNotStarted) {
		return
	}
	fields := []zap.Field{
		zap.String("id", rec.ID),
		zap.String("url", rec.DetailURL),
		zap.String("kind", string(models.KindOf(err))),
		zap.Error(err),
	}
	if errors.Is(err, ErrCoordinatesNotFound) {
		zap.L().Info("no coordinates on detail page", fields...)
		return
	}
	zap.L().Warn("record left without coordinates", fields...)
}
