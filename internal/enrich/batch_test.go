package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monument/internal/dataset"
	"monument/internal/fetch"
	"monument/internal/models"
	"monument/pkg/utm"
)

// registryServer serves a detail page for /denkmal/<n>. Page 5 fails with a
// server error and page 7 has no coordinate field.
func registryServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/denkmal/5":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/denkmal/7":
			fmt.Fprint(w, `<table><tr><th>Lage</th><td>Markt</td></tr></table>`)
		default:
			fmt.Fprint(w, aachenPage)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func registryCSV(t *testing.T, baseURL string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("FID,denkmalnummer,denkmalart,lage,link,eintragungsdatum,geloescht\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%d,A %d,Baudenkmal,Markt %d,%s/denkmal/%d,1990-01-0%d,\n", i, i, i, baseURL, i, i%9+1)
	}
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func newBatch(out string, workers int) *Batch {
	f := fetch.New(fetch.Options{Timeout: 5 * time.Second})
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &Batch{
		Orchestrator: NewOrchestrator(Options{Fetcher: f, Projection: utm.Zone32N(), Workers: workers}),
		OutputPath:   out,
		Now:          func() time.Time { return clock },
		NewID:        func() string { return "run-1" },
	}
}

func TestBatch_Run(t *testing.T) {
	srv, hits := registryServer(t)
	ds, err := dataset.Load(registryCSV(t, srv.URL, 10))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out", "monuments.csv")
	r, err := newBatch(out, 4).Run(context.Background(), ds)
	require.NoError(t, err)
	assert.EqualValues(t, 10, hits.Load())

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, 10, r.TotalRecords)
	assert.Equal(t, 8, r.WithCoordinates)
	assert.Equal(t, 2, r.WithoutCoordinates)
	assert.Equal(t, 1, r.Failures[models.KindFetch])
	assert.Equal(t, 1, r.Failures[models.KindParse])
	assert.False(t, r.Aborted)
	assert.Equal(t, models.OutcomeCompleted, r.Outcome)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	header, written, err := dataset.LoadEnriched(f)
	require.NoError(t, err)
	assert.Equal(t, ds.Header, header)
	require.Len(t, written, 10)
	for i, rec := range written {
		assert.Equal(t, fmt.Sprint(i+1), rec.ID)
		assert.Equal(t, i != 4 && i != 6, rec.HasCoordinate(), "record %s", rec.ID)
	}
}

func TestBatch_Run_Idempotent(t *testing.T) {
	srv, _ := registryServer(t)
	ds, err := dataset.Load(registryCSV(t, srv.URL, 12))
	require.NoError(t, err)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	_, err = newBatch(first, 1).Run(context.Background(), ds)
	require.NoError(t, err)
	_, err = newBatch(second, 6).Run(context.Background(), ds)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestBatch_Run_AbortedWritesNothing(t *testing.T) {
	srv, _ := registryServer(t)
	ds, err := dataset.Load(registryCSV(t, srv.URL, 3))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "monuments.csv")
	report, err := newBatch(out, 2).Run(ctx, ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)
	assert.True(t, report.Aborted)
	assert.Equal(t, models.OutcomeAborted, report.Outcome)
	assert.Equal(t, 3, report.TotalRecords)

	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no dataset on abort")
}

func TestBatch_Run_WriteFailure(t *testing.T) {
	srv, _ := registryServer(t)
	ds, err := dataset.Load(registryCSV(t, srv.URL, 2))
	require.NoError(t, err)

	// the destination is an existing directory
	out := t.TempDir()
	report, err := newBatch(out, 2).Run(context.Background(), ds)
	require.Error(t, err)
	assert.Equal(t, models.KindWrite, models.KindOf(err))
	assert.Equal(t, 2, report.TotalRecords)
	assert.False(t, report.Aborted)
	assert.Equal(t, models.OutcomeWriteFailed, report.Outcome)
}
