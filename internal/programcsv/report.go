package programcsv

import "fmt"

// maxReportMessages bounds the error and warning samples kept in a report.
const maxReportMessages = 10

// ValidationReport summarizes a parse. Counts cover every row; the message
// lists keep only the first ten samples each.
type ValidationReport struct {
	TotalRows   int      `json:"totalRows"`
	ValidRows   int      `json:"validRows"`
	InvalidRows int      `json:"invalidRows"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Sealed      bool     `json:"sealed"`
}

// NewValidationReport returns an empty, open report.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{Errors: []string{}, Warnings: []string{}}
}

// Add folds one validated row into the report. Adding to a sealed report is a
// no-op.
func (r *ValidationReport) Add(v ValidatedRow) {
	if r.Sealed {
		return
	}
	r.TotalRows++
	if v.Valid {
		r.ValidRows++
	} else {
		r.InvalidRows++
	}
	r.Errors = appendCapped(r.Errors, v.Row, v.Errors)
	r.Warnings = appendCapped(r.Warnings, v.Row, v.Warnings)
}

// Seal freezes the report.
func (r *ValidationReport) Seal() {
	if len(r.Errors) > maxReportMessages {
		r.Errors = r.Errors[:maxReportMessages]
	}
	if len(r.Warnings) > maxReportMessages {
		r.Warnings = r.Warnings[:maxReportMessages]
	}
	r.Sealed = true
}

// Clone returns a deep copy safe to hand to another goroutine.
func (r *ValidationReport) Clone() *ValidationReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Errors = copyStrings(r.Errors)
	out.Warnings = copyStrings(r.Warnings)
	return &out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func appendCapped(dst []string, row int, msgs []string) []string {
	for _, m := range msgs {
		if len(dst) >= maxReportMessages {
			break
		}
		dst = append(dst, fmt.Sprintf("Fila %d: %s", row, m))
	}
	return dst
}
