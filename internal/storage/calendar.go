package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"coach-hub/internal/notifications"
)

const (
	participantSelect = `SELECT event_id, user_id, rsvp_status, updated_at,
		COALESCE(invited_by_user_id, ''), COALESCE(invited_by_role, '')
		FROM calendar_event_participants`
	eventSelect = `SELECT id, title, start_time, end_time, COALESCE(meet_link, ''),
		COALESCE(coach_id, ''), COALESCE(event_type, ''), COALESCE(created_by_user_id, ''), COALESCE(status, '')
		FROM calendar_events`
	rescheduleSelect = `SELECT event_id, from_start_time, from_end_time, to_start_time, to_end_time,
		COALESCE(note, ''), status, created_at, COALESCE(requested_by_user_id, '')
		FROM calendar_event_reschedule_requests`
)

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (s *Store) queryParticipants(ctx context.Context, op, where string, args ...interface{}) ([]notifications.Participant, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(participantSelect+" WHERE "+where), args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	var out []notifications.Participant
	for rows.Next() {
		var p notifications.Participant
		if err := rows.Scan(&p.EventID, &p.UserID, &p.RSVPStatus, &p.UpdatedAt, &p.InvitedByUserID, &p.InvitedByRole); err != nil {
			return nil, dbError(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}
	return out, nil
}

func (s *Store) queryEvents(ctx context.Context, op, where string, args ...interface{}) ([]notifications.Event, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(eventSelect+" WHERE "+where), args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	var out []notifications.Event
	for rows.Next() {
		var (
			e   notifications.Event
			end sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.StartTime, &end, &e.MeetLink,
			&e.CoachID, &e.EventType, &e.CreatedByUserID, &e.Status); err != nil {
			return nil, dbError(op, err)
		}
		e.EndTime = nullTime(end)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}
	return out, nil
}

// ParticipantsForUser implements notifications.Store
func (s *Store) ParticipantsForUser(ctx context.Context, userID string) ([]notifications.Participant, error) {
	return s.queryParticipants(ctx, "participants for user", "user_id = ?", userID)
}

// ParticipantsForEvents implements notifications.Store
func (s *Store) ParticipantsForEvents(ctx context.Context, eventIDs []string) ([]notifications.Participant, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	return s.queryParticipants(ctx, "participants for events",
		"event_id IN ("+placeholders(len(eventIDs))+")", stringArgs(eventIDs)...)
}

// EventsByIDs implements notifications.Store
func (s *Store) EventsByIDs(ctx context.Context, ids []string) ([]notifications.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryEvents(ctx, "events by id", "id IN ("+placeholders(len(ids))+")", stringArgs(ids)...)
}

// EventsCreatedBy implements notifications.Store
func (s *Store) EventsCreatedBy(ctx context.Context, userID string) ([]notifications.Event, error) {
	return s.queryEvents(ctx, "events by creator", "created_by_user_id = ?", userID)
}

// ConsultationEventsForCoach implements notifications.Store
func (s *Store) ConsultationEventsForCoach(ctx context.Context, coachID string) ([]notifications.Event, error) {
	return s.queryEvents(ctx, "coach consultations", "coach_id = ? AND event_type = ?", coachID, "consultation")
}

// RescheduleRequests implements notifications.Store. Rows come newest first.
func (s *Store) RescheduleRequests(ctx context.Context, eventIDs []string, pendingOnly bool) ([]notifications.RescheduleRequest, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	const op = "reschedule requests"

	where := []string{"event_id IN (" + placeholders(len(eventIDs)) + ")"}
	args := stringArgs(eventIDs)
	if pendingOnly {
		where = append(where, "status = ?")
		args = append(args, notifications.ReschedulePending)
	}
	query := rescheduleSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	var out []notifications.RescheduleRequest
	for rows.Next() {
		var (
			r              notifications.RescheduleRequest
			fromEnd, toEnd sql.NullTime
		)
		if err := rows.Scan(&r.EventID, &r.FromStartTime, &fromEnd, &r.ToStartTime, &toEnd,
			&r.Note, &r.Status, &r.CreatedAt, &r.RequestedByUserID); err != nil {
			return nil, dbError(op, err)
		}
		r.FromEndTime = nullTime(fromEnd)
		r.ToEndTime = nullTime(toEnd)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}
	return out, nil
}

// Profiles implements notifications.Store
func (s *Store) Profiles(ctx context.Context, ids []string) ([]notifications.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const op = "profiles"

	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT id, full_name FROM profiles WHERE id IN ("+placeholders(len(ids))+")"),
		stringArgs(ids)...)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	var out []notifications.Profile
	for rows.Next() {
		var p notifications.Profile
		if err := rows.Scan(&p.ID, &p.FullName); err != nil {
			return nil, dbError(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}
	return out, nil
}

// UpdateParticipantStatus implements notifications.Store
func (s *Store) UpdateParticipantStatus(ctx context.Context, eventID, userID, status string) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE calendar_event_participants SET rsvp_status = ?, updated_at = ? WHERE event_id = ? AND user_id = ?`),
		status, s.now().UTC(), eventID, userID)
	if err != nil {
		return dbError("update participant status", err)
	}
	return nil
}

// UpdateEvent implements notifications.Store
func (s *Store) UpdateEvent(ctx context.Context, eventID string, patch notifications.EventPatch) error {
	var (
		sets []string
		args []interface{}
	)
	if patch.Status != "" {
		sets = append(sets, "status = ?")
		args = append(args, patch.Status)
	}
	if patch.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, patch.StartTime.UTC())
	}
	if patch.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, patch.EndTime.UTC())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, eventID)

	_, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE calendar_events SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return dbError("update event", err)
	}
	return nil
}

// UpdatePendingReschedule implements notifications.Store
func (s *Store) UpdatePendingReschedule(ctx context.Context, eventID, status string) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE calendar_event_reschedule_requests SET status = ? WHERE event_id = ? AND status = ?`),
		status, eventID, notifications.ReschedulePending)
	if err != nil {
		return dbError("update reschedule request", err)
	}
	return nil
}

var _ notifications.Store = (*Store)(nil)
