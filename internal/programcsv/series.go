package programcsv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SeriesEntry is one weight-reps-sets triple of a "detalle de series" cell.
type SeriesEntry struct {
	Peso         float64 `json:"peso"`
	Repeticiones int     `json:"repeticiones"`
	Series       int     `json:"series"`
}

// SeriesError reports the first problem found in a series string. Entry is
// 1-based and zero when the problem is not tied to one entry.
type SeriesError struct {
	Entry   int
	Message string
}

func (e *SeriesError) Error() string {
	return e.Message
}

// ParseSeries parses the "[(w-r-s);(w-r-s)]" notation. Blank input and "[]"
// are valid and yield no entries. Parsing stops at the first error.
func ParseSeries(s string) ([]SeriesEntry, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []SeriesEntry{}, nil
	}

	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") || len(s) < 2 {
		return nil, &SeriesError{Message: "formato debe estar entre corchetes"}
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []SeriesEntry{}, nil
	}

	segments := strings.Split(inner, ";")
	entries := make([]SeriesEntry, 0, len(segments))
	for i, seg := range segments {
		entry, err := parseSeriesEntry(i+1, strings.TrimSpace(seg))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseSeriesEntry(n int, seg string) (SeriesEntry, error) {
	if !strings.HasPrefix(seg, "(") || !strings.HasSuffix(seg, ")") || len(seg) < 2 {
		return SeriesEntry{}, &SeriesError{
			Entry:   n,
			Message: fmt.Sprintf("entrada %d debe estar entre paréntesis", n),
		}
	}

	parts := strings.Split(seg[1:len(seg)-1], "-")
	if len(parts) != 3 {
		return SeriesEntry{}, &SeriesError{
			Entry:   n,
			Message: fmt.Sprintf("entrada %d debe tener el formato (peso-repeticiones-series)", n),
		}
	}

	rawPeso := strings.TrimSpace(parts[0])
	peso, err := strconv.ParseFloat(rawPeso, 64)
	if err != nil || peso < 0 || math.IsNaN(peso) || math.IsInf(peso, 0) {
		return SeriesEntry{}, &SeriesError{
			Entry:   n,
			Message: fmt.Sprintf("entrada %d: peso inválido '%s'", n, rawPeso),
		}
	}

	rawReps := strings.TrimSpace(parts[1])
	reps, err := strconv.Atoi(rawReps)
	if err != nil || reps <= 0 {
		return SeriesEntry{}, &SeriesError{
			Entry:   n,
			Message: fmt.Sprintf("entrada %d: repeticiones inválidas '%s'", n, rawReps),
		}
	}

	rawSets := strings.TrimSpace(parts[2])
	sets, err := strconv.Atoi(rawSets)
	if err != nil || sets <= 0 {
		return SeriesEntry{}, &SeriesError{
			Entry:   n,
			Message: fmt.Sprintf("entrada %d: series inválidas '%s'", n, rawSets),
		}
	}

	return SeriesEntry{Peso: peso, Repeticiones: reps, Series: sets}, nil
}

// FormatSeries renders entries in the notation ParseSeries accepts.
func FormatSeries(entries []SeriesEntry) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "(%s-%d-%d)", strconv.FormatFloat(e.Peso, 'f', -1, 64), e.Repeticiones, e.Series)
	}
	b.WriteByte(']')
	return b.String()
}
