package detailpage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLabeledValue(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		want      string
		wantFound bool
	}{
		{
			name:      "sibling value cell",
			html:      `<table><tr><th>Koordinaten</th><td>300000 5631000</td></tr></table>`,
			want:      "300000 5631000",
			wantFound: true,
		},
		{
			name:      "label with surrounding text and whitespace",
			html:      `<table><tr><th>  Koordinaten (UTM32) </th><td> 293000,5  5631000,25 </td></tr></table>`,
			want:      "293000,5 5631000,25",
			wantFound: true,
		},
		{
			name:      "nearest following sibling wins",
			html:      `<table><tr><td>before</td><th>Koordinaten</th><td>1 2</td><td>3 4</td></tr></table>`,
			want:      "1 2",
			wantFound: true,
		},
		{
			name:      "falls back to first value cell in row",
			html:      `<table><tr><td>5 6</td><th>Koordinaten</th></tr></table>`,
			want:      "5 6",
			wantFound: true,
		},
		{
			name:      "line break inside value cell separates numbers",
			html:      `<table><tr><th>Koordinaten</th><td>300000<br>5631000</td></tr></table>`,
			want:      "300000 5631000",
			wantFound: true,
		},
		{
			name: "first matching header in document order",
			html: `<table>
				<tr><th>Denkmalnummer</th><td>1234</td></tr>
				<tr><th>Koordinaten</th><td>10 20</td></tr>
				<tr><th>Koordinaten</th><td>30 40</td></tr>
			</table>`,
			want:      "10 20",
			wantFound: true,
		},
		{
			name: "header without value cell is skipped",
			html: `<table>
				<tr><th>Koordinaten</th></tr>
				<tr><th>Koordinaten</th><td>7 8</td></tr>
			</table>`,
			want:      "7 8",
			wantFound: true,
		},
		{
			name:      "no such header",
			html:      `<table><tr><th>Lage</th><td>Domhof 1</td></tr></table>`,
			wantFound: false,
		},
		{
			name:      "label only in a value cell",
			html:      `<table><tr><td>Koordinaten</td><td>300000 5631000</td></tr></table>`,
			wantFound: false,
		},
		{
			name:      "empty document",
			html:      ``,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(strings.NewReader(tt.html))
			require.NoError(t, err)

			got, found := FindLabeledValue(doc.Selection, CoordinatesLabel)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindLabeledValue_IsLocator(t *testing.T) {
	var loc Locator = FindLabeledValue
	doc, err := Parse(strings.NewReader(`<table><tr><th>Koordinaten</th><td>1 2</td></tr></table>`))
	require.NoError(t, err)

	got, found := loc(doc.Selection, "Koordinaten")
	assert.True(t, found)
	assert.Equal(t, "1 2", got)
}
