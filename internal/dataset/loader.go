// Package dataset reads the heritage registry CSV and writes the enriched
// dataset derived from it.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"monument/internal/models"
)

// Column names of the registry export.
const (
	ColumnID       = "FID"
	ColumnCategory = "denkmalart"
	ColumnLink     = "link"
	ColumnLat      = "lat"
	ColumnLng      = "lng"
)

var requiredColumns = []string{ColumnID, ColumnCategory, ColumnLink}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset is a loaded registry in input order. Header lists the source
// columns without any lat/lng columns; every record's Fields lines up with it.
type Dataset struct {
	Header  []string
	Records []models.SourceRecord
}

type row struct {
	models.SourceRecord
	Lat string `csv:"lat"`
	Lng string `csv:"lng"`
}

// Load reads the registry at path. Any failure is a load error: there is no
// partial result.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewError(models.KindLoad, eris.Wrapf(err, "dataset: open %s", path))
	}
	defer f.Close()

	header, rows, err := decode(f)
	if err != nil {
		return nil, models.NewError(models.KindLoad, eris.Wrapf(err, "dataset: load %s", path))
	}

	ds := &Dataset{Header: header, Records: make([]models.SourceRecord, len(rows))}
	for i, r := range rows {
		ds.Records[i] = r.SourceRecord
	}
	warnDuplicateIDs(ds.Records)
	return ds, nil
}

// LoadEnriched reads a dataset previously produced by Write. Rows whose lat or
// lng is missing or unparseable get no coordinate.
func LoadEnriched(r io.Reader) (header []string, records []models.EnrichedRecord, err error) {
	header, rows, err := decode(r)
	if err != nil {
		return nil, nil, models.NewError(models.KindLoad, eris.Wrap(err, "dataset: load enriched"))
	}
	records = make([]models.EnrichedRecord, len(rows))
	for i, r := range rows {
		records[i] = models.EnrichedRecord{
			SourceRecord: r.SourceRecord,
			Coordinate:   parseCoordinate(r.Lat, r.Lng),
		}
	}
	return header, records, nil
}

func decode(r io.Reader) ([]string, []row, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	dec, err := csvutil.NewDecoder(csv.NewReader(br))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, eris.New("missing header row")
		}
		return nil, nil, eris.Wrap(err, "read header")
	}

	header := dec.Header()
	for _, col := range requiredColumns {
		if !slices.Contains(header, col) {
			return nil, nil, eris.Errorf("missing required column %q", col)
		}
	}

	var keep []int
	for i, col := range header {
		if col != ColumnLat && col != ColumnLng {
			keep = append(keep, i)
		}
	}
	sourceHeader := pick(header, keep)

	var rows []row
	for {
		var r row
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, eris.Wrapf(err, "decode row %d", len(rows)+1)
		}
		r.Fields = pick(dec.Record(), keep)
		rows = append(rows, r)
	}
	return sourceHeader, rows, nil
}

func pick(values []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func parseCoordinate(lat, lng string) *models.Coordinate {
	if lat == "" || lng == "" {
		return nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil
	}
	c, err := models.NewCoordinate(la, lo)
	if err != nil {
		return nil
	}
	return &c
}

func warnDuplicateIDs(records []models.SourceRecord) {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if first, ok := seen[r.ID]; ok {
			zap.L().Warn("duplicate record id",
				zap.String("id", r.ID),
				zap.Int("first_row", first+1),
				zap.Int("row", i+1),
			)
			continue
		}
		seen[r.ID] = i
	}
}
