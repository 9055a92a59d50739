package notifications

import (
	"context"
)

// Store is the persistence contract the feed reads and mutates.
type Store interface {
	// ParticipantsForUser returns the participant rows of one user.
	ParticipantsForUser(ctx context.Context, userID string) ([]Participant, error)
	// ParticipantsForEvents returns every participant row of the given events.
	ParticipantsForEvents(ctx context.Context, eventIDs []string) ([]Participant, error)
	// EventsByIDs returns the events with the given ids.
	EventsByIDs(ctx context.Context, ids []string) ([]Event, error)
	// EventsCreatedBy returns the events a user created.
	EventsCreatedBy(ctx context.Context, userID string) ([]Event, error)
	// ConsultationEventsForCoach returns the consultation events of a coach.
	ConsultationEventsForCoach(ctx context.Context, coachID string) ([]Event, error)
	// RescheduleRequests returns reschedule rows of the given events, only
	// pending ones when pendingOnly is set.
	RescheduleRequests(ctx context.Context, eventIDs []string, pendingOnly bool) ([]RescheduleRequest, error)
	// Profiles returns display names for the given user ids.
	Profiles(ctx context.Context, ids []string) ([]Profile, error)

	// UpdateParticipantStatus sets rsvp_status of (event, user).
	UpdateParticipantStatus(ctx context.Context, eventID, userID, status string) error
	// UpdateEvent applies a partial update to an event.
	UpdateEvent(ctx context.Context, eventID string, patch EventPatch) error
	// UpdatePendingReschedule sets the status of the event's pending request.
	UpdatePendingReschedule(ctx context.Context, eventID, status string) error
}
