// Package upload persists a previewed program CSV.
package upload

import (
	"context"
	"fmt"
	"os"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"
	"coach-hub/internal/programcsv"
)

// Target identifies whose program rows an upload writes.
type Target struct {
	ActivityID string
	CoachID    string
}

// InsertMode is what the insert call asks the store to do. Replace semantics
// come from the separate delete, so inserts are always appends.
const InsertMode = "append"

// ProgramStore is the persistence contract for program rows.
type ProgramStore interface {
	// DeletePrograms removes the rows of (activity, program type, coach).
	DeletePrograms(ctx context.Context, target Target, programType programcsv.ProgramType) error
	// InsertPrograms appends rows for the activity in one batch.
	InsertPrograms(ctx context.Context, target Target, programType programcsv.ProgramType, rows []programcsv.ProgramRow) error
}

// Result is the outcome reported to the caller. Message carries the store's
// error text verbatim on failure.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	// PriorRowsDeleted is set when replace mode deleted the old rows but the
	// insert failed, leaving the activity without a program.
	PriorRowsDeleted bool `json:"priorRowsDeleted,omitempty"`
}

// Executor runs upload operations against a ProgramStore.
type Executor struct {
	store  ProgramStore
	logger logging.Logger
}

// NewExecutor creates an executor
func NewExecutor(store ProgramStore, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Executor{store: store, logger: logger}
}

// Execute parses op.File again, drops rows the row validator rejects, and
// writes the rest. In replace mode the scoped delete runs first and its
// failure aborts before any insert.
func (e *Executor) Execute(ctx context.Context, op programcsv.Operation, target Target) Result {
	log := e.logger.WithContext(ctx).WithFields(
		logging.String("activity_id", target.ActivityID),
		logging.String("program_type", string(op.Type)),
		logging.String("mode", string(op.Mode)),
	)

	if target.ActivityID == "" || target.CoachID == "" {
		return Result{Message: "Faltan la actividad o el coach de destino"}
	}

	rows, skipped, err := e.collectRows(ctx, op)
	if err != nil {
		log.Error("Failed to re-read upload", err)
		return Result{Message: errors.UserMessage(err)}
	}

	if op.Mode == programcsv.ModeReplace {
		if err := e.store.DeletePrograms(ctx, target, op.Type); err != nil {
			log.Error("Replace delete failed, nothing inserted", err)
			return Result{Message: errors.UserMessage(err), Skipped: skipped}
		}
	}

	if len(rows) == 0 {
		log.Warn("Upload contained no valid rows", logging.Int("skipped", skipped))
		return Result{
			Success: true,
			Message: "No había filas válidas para subir",
			Skipped: skipped,
		}
	}

	if err := e.store.InsertPrograms(ctx, target, op.Type, rows); err != nil {
		res := Result{Message: errors.UserMessage(err), Skipped: skipped}
		if op.Mode == programcsv.ModeReplace {
			res.PriorRowsDeleted = true
			log.Error("Insert failed after replace delete; previous program rows are gone", err,
				logging.Int("rows", len(rows)),
			)
		} else {
			log.Error("Insert failed", err, logging.Int("rows", len(rows)))
		}
		return res
	}

	log.Info("Program rows uploaded",
		logging.Int("inserted", len(rows)),
		logging.Int("skipped", skipped),
	)
	return Result{
		Success:  true,
		Message:  fmt.Sprintf("%d filas subidas", len(rows)),
		Inserted: len(rows),
		Skipped:  skipped,
	}
}

func (e *Executor) collectRows(ctx context.Context, op programcsv.Operation) ([]programcsv.ProgramRow, int, error) {
	f, err := os.Open(op.File)
	if err != nil {
		return nil, 0, errors.PreconditionError("El archivo ya no está disponible, vuelve a seleccionarlo")
	}
	defer f.Close()

	table := programcsv.Synonyms(op.Type)
	rows := make([]programcsv.ProgramRow, 0)
	skipped := 0

	_, err = programcsv.ReadRows(ctx, f, func(_ []string, raw programcsv.RawRow, index int) error {
		if v := programcsv.ValidateRow(raw, index, op.Type); !v.Valid {
			skipped++
			return nil
		}
		rows = append(rows, table.ToStorage(table.Resolve(raw)))
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, skipped, nil
}
