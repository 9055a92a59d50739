package programcsv

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"
)

const (
	maxExampleRows = 5

	defaultProgressInterval = 300 * time.Millisecond
	defaultProgressEvery    = 200
)

// UploadMode decides whether an upload wipes the activity's rows first.
type UploadMode string

const (
	ModeReplace UploadMode = "replace"
	ModeAppend  UploadMode = "append"
)

// ParseUploadMode accepts "replace" or "append"; empty means append.
func ParseUploadMode(s string) (UploadMode, error) {
	switch UploadMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown upload mode %q", s))
	}
}

// Operation is everything the executor needs to persist a previewed file.
// The validated rows themselves are not kept; File is parsed again on commit.
type Operation struct {
	Type     ProgramType       `json:"type"`
	File     string            `json:"-"`
	FileName string            `json:"fileName"`
	Mode     UploadMode        `json:"mode"`
	Report   *ValidationReport `json:"validationReport"`
}

// Preview is the progressive state of an ingest.
type Preview struct {
	Type            ProgramType       `json:"type"`
	Columns         []string          `json:"columns"`
	Report          *ValidationReport `json:"validationReport"`
	ValidExamples   []ValidatedRow    `json:"validExamples"`
	InvalidExamples []ValidatedRow    `json:"invalidExamples"`
	Done            bool              `json:"done"`
}

func newPreview() *Preview {
	return &Preview{
		Columns:         []string{},
		Report:          NewValidationReport(),
		ValidExamples:   []ValidatedRow{},
		InvalidExamples: []ValidatedRow{},
	}
}

// Clone returns a deep copy of the preview.
func (p *Preview) Clone() *Preview {
	if p == nil {
		return nil
	}
	out := *p
	out.Columns = copyStrings(p.Columns)
	out.Report = p.Report.Clone()
	out.ValidExamples = append(make([]ValidatedRow, 0, len(p.ValidExamples)), p.ValidExamples...)
	out.InvalidExamples = append(make([]ValidatedRow, 0, len(p.InvalidExamples)), p.InvalidExamples...)
	return &out
}

// RowFunc receives each data row with its 1-based index.
type RowFunc func(header []string, row RawRow, index int) error

// ReadRows streams a CSV with a header row, calling fn once per data row.
// Only one record is held at a time. A UTF-8 BOM before the header is ignored.
// It returns the header, which is empty only when the input is empty.
func ReadRows(ctx context.Context, r io.Reader, fn RowFunc) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	record, err := reader.Read()
	if err == io.EOF {
		return nil, errors.ValidationError("el archivo CSV está vacío")
	}
	if err != nil {
		return nil, csvError(err)
	}

	header := make([]string, len(record))
	for i, col := range record {
		header[i] = strings.TrimSpace(col)
	}
	if len(header) > 0 {
		header[0] = strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff"))
	}

	index := 0
	for {
		if err := ctx.Err(); err != nil {
			return header, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			return header, nil
		}
		if err != nil {
			return header, csvError(err)
		}

		index++
		row := make(RawRow, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if _, seen := row[col]; seen {
				continue
			}
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}

		if err := fn(header, row, index); err != nil {
			return header, err
		}
	}
}

func csvError(err error) error {
	var parseErr *csv.ParseError
	if stderrors.As(err, &parseErr) {
		return &errors.AppError{
			Type:    errors.ErrTypeValidation,
			Message: fmt.Sprintf("CSV inválido en la línea %d", parseErr.Line),
			Cause:   err,
		}
	}
	return errors.InternalError("failed to read CSV", err)
}

// ProgressFunc receives throttled snapshots while a file is being ingested.
type ProgressFunc func(*Preview)

// IngestorConfig tunes progress throttling.
type IngestorConfig struct {
	ProgressInterval time.Duration
	ProgressEvery    int
}

// DefaultIngestorConfig emits progress at most every 300ms or 200 rows.
func DefaultIngestorConfig() IngestorConfig {
	return IngestorConfig{
		ProgressInterval: defaultProgressInterval,
		ProgressEvery:    defaultProgressEvery,
	}
}

// Ingestor validates a CSV in a single streaming pass.
type Ingestor struct {
	config IngestorConfig
	logger logging.Logger
	now    func() time.Time
}

// NewIngestor creates an ingestor; zero config values fall back to defaults.
func NewIngestor(config IngestorConfig, logger logging.Logger) *Ingestor {
	defaults := DefaultIngestorConfig()
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = defaults.ProgressInterval
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = defaults.ProgressEvery
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Ingestor{config: config, logger: logger, now: time.Now}
}

// Ingest parses r, detecting the program type from the header unless override
// is set, and returns the sealed preview. progress may be nil.
func (in *Ingestor) Ingest(ctx context.Context, r io.Reader, override ProgramType, progress ProgressFunc) (*Preview, error) {
	preview := newPreview()
	preview.Type = override

	lastEmit := in.now()
	sinceEmit := 0

	header, err := ReadRows(ctx, r, func(header []string, row RawRow, index int) error {
		if preview.Type == "" {
			preview.Type = DetectSchema(header)
		}
		if len(preview.Columns) == 0 {
			preview.Columns = copyStrings(header)
		}

		v := ValidateRow(row, index, preview.Type)
		preview.Report.Add(v)
		if v.Valid && len(preview.ValidExamples) < maxExampleRows {
			preview.ValidExamples = append(preview.ValidExamples, v)
		}
		if !v.Valid && len(preview.InvalidExamples) < maxExampleRows {
			preview.InvalidExamples = append(preview.InvalidExamples, v)
		}

		sinceEmit++
		if progress != nil {
			now := in.now()
			if sinceEmit >= in.config.ProgressEvery || now.Sub(lastEmit) >= in.config.ProgressInterval {
				progress(preview.Clone())
				lastEmit = now
				sinceEmit = 0
			}
		}
		return nil
	})
	if err != nil {
		in.logger.Warn("CSV ingest stopped",
			logging.Int("rows", preview.Report.TotalRows),
			logging.Err(err),
		)
		return nil, err
	}

	// A header without data rows still gets a type and column list.
	if preview.Type == "" {
		preview.Type = DetectSchema(header)
	}
	if len(preview.Columns) == 0 {
		preview.Columns = copyStrings(header)
	}

	preview.Report.Seal()
	preview.Done = true
	if progress != nil {
		progress(preview.Clone())
	}

	in.logger.Debug("CSV ingested",
		logging.String("type", string(preview.Type)),
		logging.Int("total_rows", preview.Report.TotalRows),
		logging.Int("valid_rows", preview.Report.ValidRows),
		logging.Int("invalid_rows", preview.Report.InvalidRows),
	)
	return preview, nil
}
