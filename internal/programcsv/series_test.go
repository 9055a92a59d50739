package programcsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeries_Valid(t *testing.T) {
	entries, err := ParseSeries("[(12-10-2);(10-8-1)]")
	require.NoError(t, err)
	assert.Equal(t, []SeriesEntry{
		{Peso: 12, Repeticiones: 10, Series: 2},
		{Peso: 10, Repeticiones: 8, Series: 1},
	}, entries)
}

func TestParseSeries_EmptyForms(t *testing.T) {
	for _, in := range []string{"", "   ", "[]", "[  ]"} {
		entries, err := ParseSeries(in)
		require.NoError(t, err, in)
		assert.Empty(t, entries, in)
	}
}

func TestParseSeries_Whitespace(t *testing.T) {
	entries, err := ParseSeries(" [ ( 2.5 - 12 - 3 ) ; (0-1-1) ] ")
	require.NoError(t, err)
	assert.Equal(t, []SeriesEntry{{2.5, 12, 3}, {0, 1, 1}}, entries)
}

func TestParseSeries_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		entry int
		msg   string
	}{
		{"no brackets", "(12-10-2)", 0, "formato debe estar entre corchetes"},
		{"missing close", "[(12-10-2)", 0, "formato debe estar entre corchetes"},
		{"missing field", "[(12-10)]", 1, "entrada 1 debe tener el formato (peso-repeticiones-series)"},
		{"no parens", "[(1-1-1);2-2-2]", 2, "entrada 2 debe estar entre paréntesis"},
		{"bad weight", "[(x-10-2)]", 1, "entrada 1: peso inválido 'x'"},
		{"negative weight", "[(-5-10-2)]", 1, "entrada 1 debe tener el formato (peso-repeticiones-series)"},
		{"zero reps", "[(5-0-2)]", 1, "entrada 1: repeticiones inválidas '0'"},
		{"fractional reps", "[(5-1.5-2)]", 1, "entrada 1: repeticiones inválidas '1.5'"},
		{"zero sets", "[(5-10-0)]", 1, "entrada 1: series inválidas '0'"},
		{"first error wins", "[(1-1-1);(a-b-c);(1-1)]", 2, "entrada 2: peso inválido 'a'"},
		{"nan weight", "[(NaN-1-1)]", 1, "entrada 1: peso inválido 'NaN'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ParseSeries(tt.input)
			require.Error(t, err)
			assert.Nil(t, entries)

			var serr *SeriesError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.entry, serr.Entry)
			assert.Equal(t, tt.msg, serr.Error())
		})
	}
}

func TestFormatSeries_RoundTrip(t *testing.T) {
	cases := [][]SeriesEntry{
		{},
		{{Peso: 0, Repeticiones: 1, Series: 1}},
		{{Peso: 12, Repeticiones: 10, Series: 2}, {Peso: 10, Repeticiones: 8, Series: 1}},
		{{Peso: 22.75, Repeticiones: 5, Series: 5}, {Peso: 100.125, Repeticiones: 3, Series: 10}},
		{{Peso: 1e-3, Repeticiones: 99, Series: 7}},
	}

	for _, want := range cases {
		formatted := FormatSeries(want)
		got, err := ParseSeries(formatted)
		require.NoError(t, err, formatted)
		assert.Equal(t, want, got, formatted)
	}
}

func TestFormatSeries(t *testing.T) {
	assert.Equal(t, "[]", FormatSeries(nil))
	assert.Equal(t, "[(12.5-10-2);(10-8-1)]", FormatSeries([]SeriesEntry{{12.5, 10, 2}, {10, 8, 1}}))
}
