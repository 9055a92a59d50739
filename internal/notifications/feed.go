package notifications

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"
)

const (
	rsvpFailedMessage       = "No se pudo actualizar tu respuesta"
	rescheduleFailedMessage = "No se pudo responder a la reprogramación"
)

// Cache keeps reconciled feeds between loads. Implementations must tolerate
// actors that were never cached.
type Cache interface {
	Get(ctx context.Context, actor Actor) ([]Item, bool, error)
	Set(ctx context.Context, actor Actor, items []Item) error
	Invalidate(ctx context.Context, actors ...Actor) error
}

// Feed is one actor's notification list. Mutations never patch the list;
// they write through the store and reload.
type Feed struct {
	actor      Actor
	reconciler *Reconciler
	store      Store
	cache      Cache
	logger     logging.Logger

	loading atomic.Bool

	mu       sync.RWMutex
	items    []Item
	lastErr  string
	loadedAt time.Time
}

// NewFeed creates an empty feed. cache may be nil.
func NewFeed(actor Actor, reconciler *Reconciler, store Store, cache Cache, logger logging.Logger) *Feed {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Feed{
		actor:      actor,
		reconciler: reconciler,
		store:      store,
		cache:      cache,
		logger: logger.WithFields(
			logging.String("role", string(actor.Role)),
			logging.String("user_id", actor.UserID),
		),
		items: []Item{},
	}
}

// Actor returns the feed owner.
func (f *Feed) Actor() Actor {
	return f.actor
}

// Loading reports whether a load is in flight.
func (f *Feed) Loading() bool {
	return f.loading.Load()
}

// Items returns a copy of the current list.
func (f *Feed) Items() []Item {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Item, len(f.items))
	copy(out, f.items)
	return out
}

// Error returns the user-facing message of the last failed operation.
func (f *Feed) Error() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastErr
}

// LoadedAt is when the list was last replaced.
func (f *Feed) LoadedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loadedAt
}

// Load replaces the list with a fresh reconciliation, or with the cached one
// when available. It returns false without fetching when the actor is
// incomplete or another Load is already running.
func (f *Feed) Load(ctx context.Context) (bool, error) {
	if !f.actor.Complete() {
		return false, nil
	}
	if !f.loading.CompareAndSwap(false, true) {
		return false, nil
	}
	defer f.loading.Store(false)

	if f.cache != nil {
		items, ok, err := f.cache.Get(ctx, f.actor)
		if err != nil {
			f.logger.Warn("Feed cache read failed", logging.Err(err))
		} else if ok {
			f.replace(items)
			return true, nil
		}
	}

	items, err := f.reconciler.Reconcile(ctx, f.actor)
	if err != nil {
		f.setError(errors.UserMessage(err))
		return true, err
	}
	f.replace(items)

	if f.cache != nil {
		if err := f.cache.Set(ctx, f.actor, items); err != nil {
			f.logger.Warn("Feed cache write failed", logging.Err(err))
		}
	}
	return true, nil
}

func (f *Feed) replace(items []Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
	f.lastErr = ""
	f.loadedAt = time.Now()
}

func (f *Feed) setError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = msg
}

func (f *Feed) find(eventID string) (Item, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, it := range f.items {
		if it.EventID == eventID {
			return it, true
		}
	}
	return Item{}, false
}

// own returns the actor's feed item for eventID, loading the feed when the
// event is not in it yet.
func (f *Feed) own(ctx context.Context, eventID string) (Item, bool, error) {
	if item, ok := f.find(eventID); ok {
		return item, true, nil
	}
	if _, err := f.Load(ctx); err != nil {
		return Item{}, false, err
	}
	item, ok := f.find(eventID)
	return item, ok, nil
}

// canAnswerInvitation holds for an invitation still pending that the actor
// did not send.
func canAnswerInvitation(item Item, actor Actor) bool {
	item.ReschedulePending = nil
	return ShowActions(item, actor.Role, actor.UserID)
}

// canAnswerReschedule holds for a pending request made by the other party.
func canAnswerReschedule(item Item, actor Actor) bool {
	rr := item.ReschedulePending
	if rr == nil || rr.Status != ReschedulePending {
		return false
	}
	return rr.RequestedByUserID != "" && rr.RequestedByUserID != actor.UserID
}

// UpdateRSVP answers an invitation with "confirmed" or "declined". Accepting
// anything but a workshop also confirms the event.
func (f *Feed) UpdateRSVP(ctx context.Context, eventID, status string) error {
	var stored string
	switch status {
	case StatusConfirmed:
		stored = StatusAccepted
	case StatusDeclined:
		stored = StatusDeclined
	default:
		return errors.ValidationError("status must be confirmed or declined")
	}
	if !f.actor.Complete() || eventID == "" {
		return nil
	}

	item, ok, err := f.own(ctx, eventID)
	if err != nil {
		return err
	}
	if !ok || !canAnswerInvitation(item, f.actor) {
		f.logger.Warn("RSVP without a pending invitation ignored", logging.String("event_id", eventID), logging.String("user_id", f.actor.UserID))
		return nil
	}

	if err := f.store.UpdateParticipantStatus(ctx, eventID, f.actor.UserID, stored); err != nil {
		return f.fail(ctx, rsvpFailedMessage, err, eventID)
	}
	if stored == StatusAccepted && item.EventType != eventTypeWorkshop {
		if err := f.store.UpdateEvent(ctx, eventID, EventPatch{Status: StatusConfirmed}); err != nil {
			return f.fail(ctx, rsvpFailedMessage, err, eventID)
		}
	}

	f.logger.Info("RSVP updated", logging.String("event_id", eventID), logging.String("status", stored))
	return f.refresh(ctx, item)
}

// RespondToReschedule accepts or rejects the event's pending reschedule.
// Accepting moves the event to the proposed times and confirms it. Without a
// pending request nothing happens.
func (f *Feed) RespondToReschedule(ctx context.Context, eventID, response string) error {
	var stored string
	switch response {
	case RescheduleAccepted:
		stored = RescheduleAccepted
	case RescheduleRejected:
		stored = StatusDeclined
	default:
		return errors.ValidationError("response must be accepted or rejected")
	}
	if !f.actor.Complete() || eventID == "" {
		return nil
	}

	item, ok, err := f.own(ctx, eventID)
	if err != nil {
		return err
	}
	if !ok || !canAnswerReschedule(item, f.actor) {
		f.logger.Warn("Reschedule answer without a pending request ignored", logging.String("event_id", eventID), logging.String("user_id", f.actor.UserID))
		return nil
	}
	pending := item.ReschedulePending

	if err := f.store.UpdatePendingReschedule(ctx, eventID, stored); err != nil {
		return f.fail(ctx, rescheduleFailedMessage, err, eventID)
	}
	if stored == RescheduleAccepted {
		start := pending.ToStartTime
		patch := EventPatch{Status: StatusConfirmed, StartTime: &start, EndTime: pending.ToEndTime}
		if err := f.store.UpdateEvent(ctx, eventID, patch); err != nil {
			return f.fail(ctx, rescheduleFailedMessage, err, eventID)
		}
	}

	f.logger.Info("Reschedule answered", logging.String("event_id", eventID), logging.String("status", stored))
	if item.OtherUserID == "" {
		item.OtherUserID = pending.RequestedByUserID
	}
	return f.refresh(ctx, item)
}

func (f *Feed) fail(ctx context.Context, msg string, err error, eventID string) error {
	f.logger.WithContext(ctx).Error(msg, err, logging.String("event_id", eventID))
	f.setError(msg)
	return errors.UpstreamError(msg, err)
}

// refresh drops cached feeds of both parties and reloads this one.
func (f *Feed) refresh(ctx context.Context, item Item) error {
	if f.cache != nil {
		actors := []Actor{f.actor}
		if item.OtherUserID != "" && item.OtherUserID != f.actor.UserID {
			actors = append(actors, Actor{Role: counterpartRole(f.actor.Role), UserID: item.OtherUserID})
		}
		if err := f.cache.Invalidate(ctx, actors...); err != nil {
			f.logger.Warn("Feed cache invalidation failed", logging.Err(err))
		}
	}
	_, err := f.Load(ctx)
	return err
}

func counterpartRole(r Role) Role {
	if r == RoleCoach {
		return RoleClient
	}
	return RoleCoach
}

// FeedSet hands out one Feed per actor so that the loading flag is shared by
// every request of that actor.
type FeedSet struct {
	mu         sync.Mutex
	feeds      map[string]*Feed
	reconciler *Reconciler
	store      Store
	cache      Cache
	logger     logging.Logger
}

// NewFeedSet creates an empty set. cache may be nil.
func NewFeedSet(store Store, cache Cache, logger logging.Logger) *FeedSet {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &FeedSet{
		feeds:      make(map[string]*Feed),
		reconciler: NewReconciler(store, logger),
		store:      store,
		cache:      cache,
		logger:     logger,
	}
}

// For returns the actor's feed, creating it on first use.
func (s *FeedSet) For(actor Actor) *Feed {
	key := string(actor.Role) + ":" + actor.UserID + ":" + actor.CoachID

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.feeds[key]; ok {
		return f
	}
	f := NewFeed(actor, s.reconciler, s.store, s.cache, s.logger)
	s.feeds[key] = f
	return f
}

// Forget drops the idle feeds of (role, user) so the next request starts
// from the store or cache. Feeds with a load in flight are kept.
func (s *FeedSet) Forget(role Role, userID string) int {
	prefix := string(role) + ":" + userID + ":"

	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for key, f := range s.feeds {
		if strings.HasPrefix(key, prefix) && !f.Loading() {
			delete(s.feeds, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of feeds held.
func (s *FeedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feeds)
}
