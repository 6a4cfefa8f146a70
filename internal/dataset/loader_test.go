package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monument/internal/models"
)

const registryCSV = `FID,denkmalnummer,denkmalart,lage,eintragungsdatum,geloescht,link
1,A-0001,Baudenkmal,Domhof 1,1990-05-02,,https://example.org/denkmal/1
2,A-0002,Bodendenkmal,"Markt 3, Rathaus",,2001-01-31,https://example.org/denkmal/2
3,A-0003,Baudenkmal,,not-a-date,,https://example.org/denkmal/3
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	ds, err := Load(writeFile(t, "registry.csv", registryCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"FID", "denkmalnummer", "denkmalart", "lage", "eintragungsdatum", "geloescht", "link"}, ds.Header)
	require.Len(t, ds.Records, 3)

	first := ds.Records[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "A-0001", first.OfficialNumber)
	assert.Equal(t, "Baudenkmal", first.Category)
	assert.Equal(t, "Domhof 1", first.Address)
	assert.Equal(t, "https://example.org/denkmal/1", first.DetailURL)
	require.True(t, first.EntryDate.Valid())
	assert.Equal(t, time.Date(1990, 5, 2, 0, 0, 0, 0, time.UTC), *first.EntryDate.Ptr())
	assert.False(t, first.DeletionDate.Valid())
	assert.Equal(t, []string{"1", "A-0001", "Baudenkmal", "Domhof 1", "1990-05-02", "", "https://example.org/denkmal/1"}, first.Fields)

	assert.Equal(t, "Markt 3, Rathaus", ds.Records[1].Address)
	assert.Equal(t, "2001-01-31", ds.Records[1].DeletionDate.String())

	// unparseable dates are absent, not fatal
	assert.False(t, ds.Records[2].EntryDate.Valid())
	assert.Equal(t, "not-a-date", ds.Records[2].Fields[4])
}

func TestLoad_OptionalColumnsMissing(t *testing.T) {
	ds, err := Load(writeFile(t, "minimal.csv", "link,FID,denkmalart\nhttps://example.org/9,9,Baudenkmal\n"))
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)

	r := ds.Records[0]
	assert.Equal(t, "9", r.ID)
	assert.Equal(t, "https://example.org/9", r.DetailURL)
	assert.Empty(t, r.OfficialNumber)
	assert.Empty(t, r.Address)
	assert.False(t, r.EntryDate.Valid())
}

func TestLoad_StripsExistingCoordinateColumns(t *testing.T) {
	content := "FID,denkmalart,link,lat,lng\n1,Baudenkmal,https://example.org/1,50.77,6.08\n"
	ds, err := Load(writeFile(t, "enriched.csv", content))
	require.NoError(t, err)

	assert.Equal(t, []string{"FID", "denkmalart", "link"}, ds.Header)
	assert.Equal(t, []string{"1", "Baudenkmal", "https://example.org/1"}, ds.Records[0].Fields)
}

func TestLoad_ByteOrderMark(t *testing.T) {
	ds, err := Load(writeFile(t, "bom.csv", "\xEF\xBB\xBFFID,denkmalart,link\n1,Baudenkmal,https://example.org/1\n"))
	require.NoError(t, err)
	assert.Equal(t, "FID", ds.Header[0])
	assert.Equal(t, "1", ds.Records[0].ID)
}

func TestLoad_MalformedURLIsNotValidated(t *testing.T) {
	ds, err := Load(writeFile(t, "url.csv", "FID,denkmalart,link\n1,Baudenkmal,::not a url\n"))
	require.NoError(t, err)
	assert.Equal(t, "::not a url", ds.Records[0].DetailURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   func(t *testing.T) string
		errMsg string
	}{
		{
			name:   "missing file",
			path:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
			errMsg: "open",
		},
		{
			name:   "empty file",
			path:   func(t *testing.T) string { return writeFile(t, "empty.csv", "") },
			errMsg: "missing header row",
		},
		{
			name:   "missing link column",
			path:   func(t *testing.T) string { return writeFile(t, "nolink.csv", "FID,denkmalart\n1,Baudenkmal\n") },
			errMsg: `missing required column "link"`,
		},
		{
			name:   "missing id column",
			path:   func(t *testing.T) string { return writeFile(t, "noid.csv", "denkmalart,link\nBaudenkmal,x\n") },
			errMsg: `missing required column "FID"`,
		},
		{
			name:   "ragged row",
			path:   func(t *testing.T) string { return writeFile(t, "ragged.csv", "FID,denkmalart,link\n1,Baudenkmal\n") },
			errMsg: "decode row 1",
		},
		{
			name:   "directory instead of file",
			path:   func(t *testing.T) string { return t.TempDir() },
			errMsg: "load",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Load(tt.path(t))
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.Equal(t, models.KindLoad, models.KindOf(err))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadEnriched(t *testing.T) {
	content := `FID,denkmalart,link,lat,lng
1,Baudenkmal,https://example.org/1,50.774722,6.083889
2,Baudenkmal,https://example.org/2,,
3,Baudenkmal,https://example.org/3,50.1,
4,Baudenkmal,https://example.org/4,95,6.0
`
	header, records, err := LoadEnriched(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"FID", "denkmalart", "link"}, header)
	require.Len(t, records, 4)
	require.NotNil(t, records[0].Coordinate)
	assert.InDelta(t, 50.774722, records[0].Coordinate.Lat, 1e-9)
	assert.InDelta(t, 6.083889, records[0].Coordinate.Lng, 1e-9)
	assert.Nil(t, records[1].Coordinate)
	assert.Nil(t, records[2].Coordinate, "a lone latitude is dropped")
	assert.Nil(t, records[3].Coordinate, "out-of-range latitude is dropped")
}
