package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"coach-hub/internal/notifications"
)

const (
	tableParticipants = "calendar_event_participants"
	tableEvents       = "calendar_events"
	tableReschedules  = "calendar_event_reschedule_requests"
	tableProfiles     = "profiles"
)

const (
	participantColumns = "event_id,user_id,rsvp_status,updated_at,invited_by_user_id,invited_by_role"
	eventColumns       = "id,title,start_time,end_time,google_meet_data,coach_id,event_type,created_by_user_id,status"
	rescheduleColumns  = "event_id,from_start_time,from_end_time,to_start_time,to_end_time,note,status,created_at,requested_by_user_id"
)

// eventRow is the stored event shape; the meet link lives in a JSON column.
type eventRow struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	GoogleMeetData *struct {
		MeetLink string `json:"meet_link"`
	} `json:"google_meet_data"`
	CoachID         *string `json:"coach_id"`
	EventType       *string `json:"event_type"`
	CreatedByUserID *string `json:"created_by_user_id"`
	Status          *string `json:"status"`
}

func (r eventRow) toEvent() notifications.Event {
	e := notifications.Event{
		ID:              r.ID,
		Title:           r.Title,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		CoachID:         deref(r.CoachID),
		EventType:       deref(r.EventType),
		CreatedByUserID: deref(r.CreatedByUserID),
		Status:          deref(r.Status),
	}
	if r.GoogleMeetData != nil {
		e.MeetLink = r.GoogleMeetData.MeetLink
	}
	return e
}

type participantRow struct {
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	RSVPStatus      string    `json:"rsvp_status"`
	UpdatedAt       time.Time `json:"updated_at"`
	InvitedByUserID *string   `json:"invited_by_user_id"`
	InvitedByRole   *string   `json:"invited_by_role"`
}

type rescheduleRow struct {
	EventID           string     `json:"event_id"`
	FromStartTime     time.Time  `json:"from_start_time"`
	FromEndTime       *time.Time `json:"from_end_time"`
	ToStartTime       time.Time  `json:"to_start_time"`
	ToEndTime         *time.Time `json:"to_end_time"`
	Note              *string    `json:"note"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	RequestedByUserID *string    `json:"requested_by_user_id"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (c *Client) selectRows(ctx context.Context, table, columns string, filters url.Values, out interface{}) error {
	q := url.Values{"select": {columns}}
	for k, v := range filters {
		q[k] = v
	}
	return c.do(ctx, request{method: http.MethodGet, path: restPrefix + table, query: q, out: out})
}

func (c *Client) participants(ctx context.Context, filters url.Values) ([]notifications.Participant, error) {
	var rows []participantRow
	if err := c.selectRows(ctx, tableParticipants, participantColumns, filters, &rows); err != nil {
		return nil, err
	}
	out := make([]notifications.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, notifications.Participant{
			EventID:         r.EventID,
			UserID:          r.UserID,
			RSVPStatus:      r.RSVPStatus,
			UpdatedAt:       r.UpdatedAt,
			InvitedByUserID: deref(r.InvitedByUserID),
			InvitedByRole:   deref(r.InvitedByRole),
		})
	}
	return out, nil
}

func (c *Client) events(ctx context.Context, filters url.Values) ([]notifications.Event, error) {
	var rows []eventRow
	if err := c.selectRows(ctx, tableEvents, eventColumns, filters, &rows); err != nil {
		return nil, err
	}
	out := make([]notifications.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEvent())
	}
	return out, nil
}

// ParticipantsForUser implements notifications.Store
func (c *Client) ParticipantsForUser(ctx context.Context, userID string) ([]notifications.Participant, error) {
	return c.participants(ctx, url.Values{"user_id": {eq(userID)}})
}

// ParticipantsForEvents implements notifications.Store
func (c *Client) ParticipantsForEvents(ctx context.Context, eventIDs []string) ([]notifications.Participant, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	return c.participants(ctx, url.Values{"event_id": {in(eventIDs)}})
}

// EventsByIDs implements notifications.Store
func (c *Client) EventsByIDs(ctx context.Context, ids []string) ([]notifications.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return c.events(ctx, url.Values{"id": {in(ids)}})
}

// EventsCreatedBy implements notifications.Store
func (c *Client) EventsCreatedBy(ctx context.Context, userID string) ([]notifications.Event, error) {
	return c.events(ctx, url.Values{"created_by_user_id": {eq(userID)}})
}

// ConsultationEventsForCoach implements notifications.Store
func (c *Client) ConsultationEventsForCoach(ctx context.Context, coachID string) ([]notifications.Event, error) {
	return c.events(ctx, url.Values{
		"coach_id":   {eq(coachID)},
		"event_type": {eq("consultation")},
	})
}

// RescheduleRequests implements notifications.Store. Rows come newest first.
func (c *Client) RescheduleRequests(ctx context.Context, eventIDs []string, pendingOnly bool) ([]notifications.RescheduleRequest, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	filters := url.Values{
		"event_id": {in(eventIDs)},
		"order":    {"created_at.desc"},
	}
	if pendingOnly {
		filters.Set("status", eq(notifications.ReschedulePending))
	}

	var rows []rescheduleRow
	if err := c.selectRows(ctx, tableReschedules, rescheduleColumns, filters, &rows); err != nil {
		return nil, err
	}
	out := make([]notifications.RescheduleRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, notifications.RescheduleRequest{
			EventID:           r.EventID,
			FromStartTime:     r.FromStartTime,
			FromEndTime:       r.FromEndTime,
			ToStartTime:       r.ToStartTime,
			ToEndTime:         r.ToEndTime,
			Note:              deref(r.Note),
			Status:            r.Status,
			CreatedAt:         r.CreatedAt,
			RequestedByUserID: deref(r.RequestedByUserID),
		})
	}
	return out, nil
}

// Profiles implements notifications.Store
func (c *Client) Profiles(ctx context.Context, ids []string) ([]notifications.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []struct {
		ID       string  `json:"id"`
		FullName *string `json:"full_name"`
	}
	if err := c.selectRows(ctx, tableProfiles, "id,full_name", url.Values{"id": {in(ids)}}, &rows); err != nil {
		return nil, err
	}
	out := make([]notifications.Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, notifications.Profile{ID: r.ID, FullName: deref(r.FullName)})
	}
	return out, nil
}

func (c *Client) patch(ctx context.Context, table string, filters url.Values, body interface{}) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   restPrefix + table,
		query:  filters,
		body:   body,
		prefer: "return=minimal",
	})
}

// UpdateParticipantStatus implements notifications.Store
func (c *Client) UpdateParticipantStatus(ctx context.Context, eventID, userID, status string) error {
	return c.patch(ctx, tableParticipants,
		url.Values{"event_id": {eq(eventID)}, "user_id": {eq(userID)}},
		map[string]interface{}{"rsvp_status": status},
	)
}

// UpdateEvent implements notifications.Store
func (c *Client) UpdateEvent(ctx context.Context, eventID string, patch notifications.EventPatch) error {
	body := map[string]interface{}{}
	if patch.Status != "" {
		body["status"] = patch.Status
	}
	if patch.StartTime != nil {
		body["start_time"] = patch.StartTime.UTC().Format(time.RFC3339)
	}
	if patch.EndTime != nil {
		body["end_time"] = patch.EndTime.UTC().Format(time.RFC3339)
	}
	if len(body) == 0 {
		return nil
	}
	return c.patch(ctx, tableEvents, url.Values{"id": {eq(eventID)}}, body)
}

// UpdatePendingReschedule implements notifications.Store
func (c *Client) UpdatePendingReschedule(ctx context.Context, eventID, status string) error {
	return c.patch(ctx, tableReschedules,
		url.Values{"event_id": {eq(eventID)}, "status": {eq(notifications.ReschedulePending)}},
		map[string]interface{}{"status": status},
	)
}

var _ notifications.Store = (*Client)(nil)
