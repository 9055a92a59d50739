// Package notifications builds the meet-notification feed from calendar
// events, participant RSVPs and reschedule requests.
package notifications

import (
	"time"
)

// Role is who is looking at the feed.
type Role string

const (
	RoleClient Role = "client"
	RoleCoach  Role = "coach"
)

// Actor identifies the feed owner. CoachID is required for coaches only.
type Actor struct {
	Role    Role
	UserID  string
	CoachID string
}

// Complete reports whether the actor carries enough identity to fetch a feed.
func (a Actor) Complete() bool {
	switch a.Role {
	case RoleClient:
		return a.UserID != ""
	case RoleCoach:
		return a.UserID != "" && a.CoachID != ""
	default:
		return false
	}
}

// Stored RSVP vocabulary.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusConfirmed = "confirmed"
	StatusDeclined  = "declined"
	StatusCancelled = "cancelled"
)

// Reschedule request statuses as shown to users. Storage writes "declined"
// where users see "rejected".
const (
	ReschedulePending  = "pending"
	RescheduleAccepted = "accepted"
	RescheduleRejected = "rejected"
)

const (
	eventTypeConsultation = "consultation"
	eventTypeWorkshop     = "workshop"
)

// Participant is one invited user's row for an event.
type Participant struct {
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	RSVPStatus      string    `json:"rsvp_status"`
	UpdatedAt       time.Time `json:"updated_at"`
	InvitedByUserID string    `json:"invited_by_user_id,omitempty"`
	InvitedByRole   string    `json:"invited_by_role,omitempty"`
}

// Event is a calendar event row.
type Event struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	MeetLink        string     `json:"meet_link,omitempty"`
	CoachID         string     `json:"coach_id,omitempty"`
	EventType       string     `json:"event_type,omitempty"`
	CreatedByUserID string     `json:"created_by_user_id,omitempty"`
	Status          string     `json:"status,omitempty"`
}

// EffectiveEnd is the end time, or the start time when the event has no end.
func (e Event) EffectiveEnd() time.Time {
	if e.EndTime != nil {
		return *e.EndTime
	}
	return e.StartTime
}

// RescheduleRequest is a proposed move of an event, as stored.
type RescheduleRequest struct {
	EventID           string     `json:"event_id"`
	FromStartTime     time.Time  `json:"from_start_time"`
	FromEndTime       *time.Time `json:"from_end_time,omitempty"`
	ToStartTime       time.Time  `json:"to_start_time"`
	ToEndTime         *time.Time `json:"to_end_time,omitempty"`
	Note              string     `json:"note,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	RequestedByUserID string     `json:"requested_by_user_id,omitempty"`
}

// Profile carries a user's display name.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// EventPatch is a partial update of an event. Nil fields are left alone.
type EventPatch struct {
	Status    string
	StartTime *time.Time
	EndTime   *time.Time
}

// Kind separates items waiting for an answer from plain updates.
type Kind string

const (
	KindInvitation   Kind = "invitation"
	KindStatusUpdate Kind = "status_update"
)

// RescheduleInfo is the reschedule attached to an item.
type RescheduleInfo struct {
	ToStartTime       time.Time  `json:"toStartTime"`
	ToEndTime         *time.Time `json:"toEndTime,omitempty"`
	FromStartTime     time.Time  `json:"fromStartTime"`
	FromEndTime       *time.Time `json:"fromEndTime,omitempty"`
	Note              string     `json:"note,omitempty"`
	RequestedByUserID string     `json:"requestedByUserId,omitempty"`
	Status            string     `json:"status,omitempty"`
}

// Item is one entry of the feed; there is exactly one per event.
type Item struct {
	ID                string          `json:"id"`
	Kind              Kind            `json:"kind"`
	EventID           string          `json:"eventId"`
	EventType         string          `json:"eventType,omitempty"`
	Title             string          `json:"title"`
	StartTime         time.Time       `json:"startTime"`
	EndTime           *time.Time      `json:"endTime,omitempty"`
	ReschedulePending *RescheduleInfo `json:"reschedulePending,omitempty"`
	MeetLink          string          `json:"meetLink,omitempty"`
	OtherUserID       string          `json:"otherUserId,omitempty"`
	OtherUserName     string          `json:"otherUserName"`
	RSVPStatus        string          `json:"rsvpStatus"`
	InvitedByRole     string          `json:"invitedByRole,omitempty"`
	InvitedByUserID   string          `json:"invitedByUserId,omitempty"`
	IsCreator         bool            `json:"isCreator"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
