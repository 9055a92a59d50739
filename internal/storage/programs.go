package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"coach-hub/internal/programcsv"
	"coach-hub/internal/upload"
)

// DeletePrograms implements upload.ProgramStore
func (s *Store) DeletePrograms(ctx context.Context, target upload.Target, programType programcsv.ProgramType) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM program_rows WHERE activity_id = ? AND program_type = ? AND coach_id = ?`),
		target.ActivityID, string(programType), target.CoachID)
	if err != nil {
		return dbError("delete programs", err)
	}
	return nil
}

// InsertPrograms implements upload.ProgramStore. The batch is atomic on its
// own; it never deletes existing rows.
func (s *Store) InsertPrograms(ctx context.Context, target upload.Target, programType programcsv.ProgramType, rows []programcsv.ProgramRow) error {
	if len(rows) == 0 {
		return nil
	}
	const op = "insert programs"

	var next int
	if err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COALESCE(MAX(position), 0) FROM program_rows WHERE activity_id = ? AND program_type = ? AND coach_id = ?`),
		target.ActivityID, string(programType), target.CoachID,
	).Scan(&next); err != nil {
		return dbError(op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		s.rebind(`INSERT INTO program_rows (activity_id, coach_id, program_type, position, data) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return dbError(op, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return dbError(op, fmt.Errorf("row %d: %w", i+1, err))
		}
		next++
		if _, err := stmt.ExecContext(ctx, target.ActivityID, target.CoachID, string(programType), next, string(data)); err != nil {
			return dbError(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(op, err)
	}
	return nil
}

// ListPrograms returns the stored rows of (activity, type, coach) in upload order.
func (s *Store) ListPrograms(ctx context.Context, target upload.Target, programType programcsv.ProgramType) ([]programcsv.ProgramRow, error) {
	const op = "list programs"

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT data FROM program_rows WHERE activity_id = ? AND program_type = ? AND coach_id = ? ORDER BY position`),
		target.ActivityID, string(programType), target.CoachID)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	var out []programcsv.ProgramRow
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, dbError(op, err)
		}
		row := programcsv.ProgramRow{}
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, dbError(op, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}
	return out, nil
}

var _ upload.ProgramStore = (*Store)(nil)
