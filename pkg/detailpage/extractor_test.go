package detailpage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPair(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		first   float64
		second  float64
		wantErr bool
	}{
		{name: "space separated", text: "300000 5631000", first: 300000, second: 5631000},
		{name: "comma decimals", text: "300000,00 5631000,00", first: 300000, second: 5631000},
		{name: "dot decimals", text: "293123.45 5631987.6", first: 293123.45, second: 5631987.6},
		{name: "only first two kept", text: "1 2 3", first: 1, second: 2},
		{name: "irregular whitespace", text: "\n\t 300000  \n  5631000 \t", first: 300000, second: 5631000},
		{name: "words between numbers", text: "Rechtswert 300000 Hochwert 5631000", first: 300000, second: 5631000},
		{name: "negative values parse", text: "-1 -2", first: -1, second: -2},
		{name: "letters only", text: "abc", wantErr: true},
		{name: "single number", text: "300000", wantErr: true},
		{name: "empty", text: "", wantErr: true},
		{name: "nan is not a number here", text: "NaN 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, second, err := ExtractPair(tt.text)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoPair)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.first, first, 1e-9)
			assert.InDelta(t, tt.second, second, 1e-9)
		})
	}
}
