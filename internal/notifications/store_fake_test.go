package notifications

import (
	"context"
	"sync"
	"time"
)

// memStore is an in-memory Store for tests. Every method records its name in
// calls; failOn makes the named method return err.
type memStore struct {
	mu           sync.Mutex
	participants []Participant
	events       []Event
	reschedules  []RescheduleRequest
	profiles     []Profile

	calls  []string
	failOn map[string]error
	block  chan struct{}

	participantUpdates []string
	eventPatches       map[string]EventPatch
	rescheduleUpdates  map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		failOn:            make(map[string]error),
		eventPatches:      make(map[string]EventPatch),
		rescheduleUpdates: make(map[string]string),
	}
}

func (m *memStore) record(name string) error {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	err := m.failOn[name]
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (m *memStore) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *memStore) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func inSet(id string, ids []string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (m *memStore) ParticipantsForUser(ctx context.Context, userID string) ([]Participant, error) {
	if err := m.record("ParticipantsForUser"); err != nil {
		return nil, err
	}
	var out []Participant
	for _, p := range m.participants {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ParticipantsForEvents(ctx context.Context, eventIDs []string) ([]Participant, error) {
	if err := m.record("ParticipantsForEvents"); err != nil {
		return nil, err
	}
	var out []Participant
	for _, p := range m.participants {
		if inSet(p.EventID, eventIDs) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) EventsByIDs(ctx context.Context, ids []string) ([]Event, error) {
	if err := m.record("EventsByIDs"); err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range m.events {
		if inSet(e.ID, ids) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) EventsCreatedBy(ctx context.Context, userID string) ([]Event, error) {
	if err := m.record("EventsCreatedBy"); err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range m.events {
		if e.CreatedByUserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ConsultationEventsForCoach(ctx context.Context, coachID string) ([]Event, error) {
	if err := m.record("ConsultationEventsForCoach"); err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range m.events {
		if e.CoachID == coachID && e.EventType == eventTypeConsultation {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) RescheduleRequests(ctx context.Context, eventIDs []string, pendingOnly bool) ([]RescheduleRequest, error) {
	if err := m.record("RescheduleRequests"); err != nil {
		return nil, err
	}
	var out []RescheduleRequest
	for _, r := range m.reschedules {
		if !inSet(r.EventID, eventIDs) {
			continue
		}
		if pendingOnly && r.Status != ReschedulePending {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) Profiles(ctx context.Context, ids []string) ([]Profile, error) {
	if err := m.record("Profiles"); err != nil {
		return nil, err
	}
	var out []Profile
	for _, p := range m.profiles {
		if inSet(p.ID, ids) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) UpdateParticipantStatus(ctx context.Context, eventID, userID, status string) error {
	if err := m.record("UpdateParticipantStatus"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participantUpdates = append(m.participantUpdates, eventID+":"+userID+":"+status)
	for i := range m.participants {
		if m.participants[i].EventID == eventID && m.participants[i].UserID == userID {
			m.participants[i].RSVPStatus = status
			m.participants[i].UpdatedAt = m.participants[i].UpdatedAt.Add(time.Minute)
		}
	}
	return nil
}

func (m *memStore) UpdateEvent(ctx context.Context, eventID string, patch EventPatch) error {
	if err := m.record("UpdateEvent"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventPatches[eventID] = patch
	for i := range m.events {
		if m.events[i].ID != eventID {
			continue
		}
		if patch.Status != "" {
			m.events[i].Status = patch.Status
		}
		if patch.StartTime != nil {
			m.events[i].StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			end := *patch.EndTime
			m.events[i].EndTime = &end
		}
	}
	return nil
}

func (m *memStore) UpdatePendingReschedule(ctx context.Context, eventID, status string) error {
	if err := m.record("UpdatePendingReschedule"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rescheduleUpdates[eventID] = status
	for i := range m.reschedules {
		if m.reschedules[i].EventID == eventID && m.reschedules[i].Status == ReschedulePending {
			m.reschedules[i].Status = status
		}
	}
	return nil
}
