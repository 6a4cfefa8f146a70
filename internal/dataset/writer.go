package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"

	"monument/internal/models"
)

// Write stores records at path as CSV: header plus lat and lng. The file is
// written to a temporary sibling and renamed into place, so path either keeps
// its previous content or holds the complete new dataset.
func Write(path string, header []string, records []models.EnrichedRecord) error {
	if err := write(path, header, records); err != nil {
		return models.NewError(models.KindWrite, err)
	}
	return nil
}

func write(path string, header []string, records []models.EnrichedRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "dataset: create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "dataset: create temp file")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Encode(tmp, header, records); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return eris.Wrap(err, "dataset: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "dataset: close temp file")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrap(err, "dataset: chmod temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "dataset: rename into %s", path)
	}
	committed = true
	return nil
}

// Encode writes the CSV form of records to w.
func Encode(w io.Writer, header []string, records []models.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(slices.Clone(header), ColumnLat, ColumnLng)); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}
	for i, r := range records {
		if len(r.Fields) != len(header) {
			return eris.Errorf("dataset: record %d (id %q) has %d fields, header has %d", i, r.ID, len(r.Fields), len(header))
		}
		line := append(slices.Clone(r.Fields), "", "")
		if c := r.Coordinate; c != nil {
			line[len(header)] = formatDegrees(c.Lat)
			line[len(header)+1] = formatDegrees(c.Lng)
		}
		if err := cw.Write(line); err != nil {
			return eris.Wrapf(err, "dataset: write record %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "dataset: flush")
	}
	return nil
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
