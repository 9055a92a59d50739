package notifications

import (
	"context"
	"sort"
	"strings"
	"time"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/common/logging"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxItems bounds the feed length.
	MaxItems = 30
	// coachLookback keeps recently finished consultations visible to coaches.
	coachLookback = 10 * 24 * time.Hour

	loadFailedMessage = "No se pudieron cargar las notificaciones"
)

// Reconciler merges store records into a feed. It holds no per-actor state.
type Reconciler struct {
	store  Store
	logger logging.Logger
	now    func() time.Time
}

// NewReconciler creates a reconciler reading from store.
func NewReconciler(store Store, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Reconciler{store: store, logger: logger, now: time.Now}
}

// Reconcile builds the feed for actor: at most one item per event, newest
// first, at most MaxItems. An incomplete actor yields an empty feed without
// touching the store.
func (r *Reconciler) Reconcile(ctx context.Context, actor Actor) ([]Item, error) {
	if !actor.Complete() {
		return []Item{}, nil
	}

	var (
		items []Item
		err   error
	)
	switch actor.Role {
	case RoleCoach:
		items, err = r.coachFeed(ctx, actor)
	default:
		items, err = r.clientFeed(ctx, actor)
	}
	if err != nil {
		r.logger.WithContext(ctx).Error("Failed to reconcile notifications", err,
			logging.String("role", string(actor.Role)),
			logging.String("user_id", actor.UserID),
		)
		return nil, errors.UpstreamError(loadFailedMessage, err)
	}
	return items, nil
}

func (r *Reconciler) clientFeed(ctx context.Context, actor Actor) ([]Item, error) {
	var (
		own     []Participant
		created []Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		own, err = r.store.ParticipantsForUser(gctx, actor.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		created, err = r.store.EventsCreatedBy(gctx, actor.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idSet := make(map[string]struct{}, len(own)+len(created))
	for _, p := range own {
		idSet[p.EventID] = struct{}{}
	}
	for _, e := range created {
		idSet[e.ID] = struct{}{}
	}
	ids := sortedKeys(idSet)
	if len(ids) == 0 {
		return []Item{}, nil
	}

	var (
		events       []Event
		participants []Participant
		reschedules  []RescheduleRequest
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = r.store.EventsByIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = r.store.ParticipantsForEvents(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		reschedules, err = r.store.RescheduleRequests(gctx, ids, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := r.now()
	live := make([]Event, 0, len(events)+len(created))
	for _, e := range append(events, created...) {
		if e.EffectiveEnd().Before(now) {
			continue
		}
		live = append(live, e)
	}

	return r.assemble(ctx, actor, live, append(participants, own...), reschedules, true)
}

func (r *Reconciler) coachFeed(ctx context.Context, actor Actor) ([]Item, error) {
	events, err := r.store.ConsultationEventsForCoach(ctx, actor.CoachID)
	if err != nil {
		return nil, err
	}

	cutoff := r.now().Add(-coachLookback)
	live := make([]Event, 0, len(events))
	for _, e := range events {
		if e.EffectiveEnd().Before(cutoff) {
			continue
		}
		live = append(live, e)
	}
	if len(live) == 0 {
		return []Item{}, nil
	}

	idSet := make(map[string]struct{}, len(live))
	for _, e := range live {
		idSet[e.ID] = struct{}{}
	}
	ids := sortedKeys(idSet)

	var (
		participants []Participant
		reschedules  []RescheduleRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = r.store.ParticipantsForEvents(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		reschedules, err = r.store.RescheduleRequests(gctx, ids, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return r.assemble(ctx, actor, live, participants, reschedules, false)
}

// assemble turns filtered events and their rows into sorted, capped items.
// pendingOnly restricts attached reschedules to pending ones.
func (r *Reconciler) assemble(ctx context.Context, actor Actor, events []Event, participants []Participant, reschedules []RescheduleRequest, pendingOnly bool) ([]Item, error) {
	rowsByEvent := make(map[string][]Participant)
	seenRow := make(map[string]struct{})
	for _, p := range participants {
		key := p.EventID + "\x00" + p.UserID
		if _, dup := seenRow[key]; dup {
			continue
		}
		seenRow[key] = struct{}{}
		rowsByEvent[p.EventID] = append(rowsByEvent[p.EventID], p)
	}

	latest := latestReschedules(reschedules, pendingOnly)

	byEvent := make(map[string]Item, len(events))
	for _, e := range events {
		byEvent[e.ID] = r.buildItem(actor, e, rowsByEvent[e.ID], latest[e.ID])
	}

	otherIDs := make(map[string]struct{})
	for _, it := range byEvent {
		if it.OtherUserID != "" {
			otherIDs[it.OtherUserID] = struct{}{}
		}
	}
	names := make(map[string]string, len(otherIDs))
	if len(otherIDs) > 0 {
		profiles, err := r.store.Profiles(ctx, sortedKeys(otherIDs))
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			if name := strings.TrimSpace(p.FullName); name != "" {
				names[p.ID] = name
			}
		}
	}

	items := make([]Item, 0, len(byEvent))
	for _, it := range byEvent {
		it.OtherUserName = displayName(actor.Role, it.OtherUserID, names)
		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].EventID < items[j].EventID
	})
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	return items, nil
}

func (r *Reconciler) buildItem(actor Actor, e Event, rows []Participant, resched *RescheduleRequest) Item {
	own, counterpart := splitRows(rows, actor.UserID)

	// A client answers with their own row; a coach watches the client's.
	row := own
	if actor.Role == RoleCoach || row == nil {
		if counterpart != nil {
			row = counterpart
		}
	}

	item := Item{
		ID:        e.ID,
		EventID:   e.ID,
		EventType: e.EventType,
		Title:     e.Title,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		MeetLink:  e.MeetLink,
		IsCreator: e.CreatedByUserID != "" && e.CreatedByUserID == actor.UserID,
	}

	if row != nil {
		item.RSVPStatus = row.RSVPStatus
		item.InvitedByUserID = row.InvitedByUserID
		item.InvitedByRole = row.InvitedByRole
		item.UpdatedAt = row.UpdatedAt
	} else {
		item.RSVPStatus = statusFromEvent(e.Status)
		item.UpdatedAt = e.StartTime
	}

	switch {
	case counterpart != nil:
		item.OtherUserID = counterpart.UserID
	case own != nil && own.InvitedByUserID != "" && own.InvitedByUserID != actor.UserID:
		item.OtherUserID = own.InvitedByUserID
	case e.CreatedByUserID != "" && e.CreatedByUserID != actor.UserID:
		item.OtherUserID = e.CreatedByUserID
	}

	if resched != nil {
		item.ReschedulePending = &RescheduleInfo{
			ToStartTime:       resched.ToStartTime,
			ToEndTime:         resched.ToEndTime,
			FromStartTime:     resched.FromStartTime,
			FromEndTime:       resched.FromEndTime,
			Note:              resched.Note,
			RequestedByUserID: resched.RequestedByUserID,
			Status:            rescheduleStatusForUI(resched.Status),
		}
		if resched.CreatedAt.After(item.UpdatedAt) {
			item.UpdatedAt = resched.CreatedAt
		}
	}

	if item.RSVPStatus == StatusPending {
		item.Kind = KindInvitation
	} else {
		item.Kind = KindStatusUpdate
	}
	return item
}

// splitRows returns the actor's own row and the most recently updated row of
// anyone else.
func splitRows(rows []Participant, userID string) (own, counterpart *Participant) {
	for i := range rows {
		p := &rows[i]
		if p.UserID == userID {
			own = p
			continue
		}
		if counterpart == nil || p.UpdatedAt.After(counterpart.UpdatedAt) {
			counterpart = p
		}
	}
	return own, counterpart
}

func latestReschedules(rows []RescheduleRequest, pendingOnly bool) map[string]*RescheduleRequest {
	latest := make(map[string]*RescheduleRequest)
	for i := range rows {
		rr := &rows[i]
		if pendingOnly && rr.Status != ReschedulePending {
			continue
		}
		if cur, ok := latest[rr.EventID]; !ok || rr.CreatedAt.After(cur.CreatedAt) {
			latest[rr.EventID] = rr
		}
	}
	return latest
}

func statusFromEvent(status string) string {
	switch status {
	case StatusConfirmed, StatusCancelled:
		return status
	default:
		return StatusPending
	}
}

// rescheduleStatusForUI maps stored statuses to the user-facing vocabulary.
func rescheduleStatusForUI(status string) string {
	if status == StatusDeclined {
		return RescheduleRejected
	}
	return status
}

func displayName(role Role, otherID string, names map[string]string) string {
	if otherID == "" {
		return "Participante"
	}
	if name, ok := names[otherID]; ok {
		return name
	}
	if role == RoleClient {
		return "Coach"
	}
	return "Cliente"
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
