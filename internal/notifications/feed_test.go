package notifications

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "coach-hub/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu          sync.Mutex
	feeds       map[string][]Item
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{feeds: make(map[string][]Item)}
}

func cacheKey(a Actor) string { return string(a.Role) + ":" + a.UserID }

func (c *memCache) Get(ctx context.Context, actor Actor) ([]Item, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.feeds[cacheKey(actor)]
	return items, ok, nil
}

func (c *memCache) Set(ctx context.Context, actor Actor, items []Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeds[cacheKey(actor)] = items
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, actors ...Actor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range actors {
		delete(c.feeds, cacheKey(a))
		c.invalidated = append(c.invalidated, cacheKey(a))
	}
	return nil
}

func invitationStore(eventType string) *memStore {
	store := newMemStore()
	store.events = []Event{{ID: "e1", Title: "Sesión", StartTime: at(24 * time.Hour), EventType: eventType, CreatedByUserID: "coach-user"}}
	store.participants = []Participant{
		{EventID: "e1", UserID: "client-1", RSVPStatus: StatusPending, UpdatedAt: at(-time.Hour), InvitedByUserID: "coach-user", InvitedByRole: "coach"},
	}
	store.profiles = []Profile{{ID: "coach-user", FullName: "Ana"}}
	return store
}

func newTestFeed(store *memStore, actor Actor, cache Cache) *Feed {
	return NewFeed(actor, newTestReconciler(store), store, cache, nil)
}

func TestFeed_Load(t *testing.T) {
	store := invitationStore("consultation")
	feed := newTestFeed(store, clientActor(), nil)

	loaded, err := feed.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded)
	require.Len(t, feed.Items(), 1)
	assert.Equal(t, "Ana", feed.Items()[0].OtherUserName)
	assert.False(t, feed.Loading())
	assert.False(t, feed.LoadedAt().IsZero())
}

func TestFeed_LoadIncompleteActor(t *testing.T) {
	store := invitationStore("consultation")
	feed := newTestFeed(store, Actor{Role: RoleCoach, UserID: "coach-user"}, nil)

	loaded, err := feed.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, 0, store.totalCalls())
}

func TestFeed_ConcurrentLoadIsSkipped(t *testing.T) {
	store := invitationStore("consultation")
	store.block = make(chan struct{})
	feed := newTestFeed(store, clientActor(), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = feed.Load(context.Background())
	}()

	require.Eventually(t, feed.Loading, time.Second, time.Millisecond)
	loaded, err := feed.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded, "second load must return while the first is in flight")

	store.mu.Lock()
	block := store.block
	store.block = nil
	store.mu.Unlock()
	close(block)
	<-done

	assert.Equal(t, 1, store.callCount("ParticipantsForUser"))
	assert.Len(t, feed.Items(), 1)
}

func TestFeed_LoadFailureKeepsItems(t *testing.T) {
	store := invitationStore("consultation")
	feed := newTestFeed(store, clientActor(), nil)
	_, err := feed.Load(context.Background())
	require.NoError(t, err)

	store.failOn["EventsByIDs"] = fmt.Errorf("boom")
	_, err = feed.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, loadFailedMessage, feed.Error())
	assert.Len(t, feed.Items(), 1)
}

func TestFeed_UpdateRSVPAcceptConfirmsEvent(t *testing.T) {
	store := invitationStore("consultation")
	feed := newTestFeed(store, clientActor(), nil)
	_, err := feed.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, feed.UpdateRSVP(context.Background(), "e1", StatusConfirmed))

	assert.Equal(t, []string{"e1:client-1:accepted"}, store.participantUpdates)
	assert.Equal(t, EventPatch{Status: StatusConfirmed}, store.eventPatches["e1"])
	require.Len(t, feed.Items(), 1)
	assert.Equal(t, StatusAccepted, feed.Items()[0].RSVPStatus, "feed reloads after mutation")
	assert.Equal(t, KindStatusUpdate, feed.Items()[0].Kind)
}

func TestFeed_UpdateRSVPWorkshopLeavesEvent(t *testing.T) {
	store := invitationStore("workshop")
	feed := newTestFeed(store, clientActor(), nil)
	_, err := feed.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, feed.UpdateRSVP(context.Background(), "e1", StatusConfirmed))
	assert.Equal(t, 0, store.callCount("UpdateEvent"))
}

func TestFeed_UpdateRSVPDecline(t *testing.T) {
	store := invitationStore("consultation")
	feed := newTestFeed(store, clientActor(), nil)

	require.NoError(t, feed.UpdateRSVP(context.Background(), "e1", StatusDeclined))
	assert.Equal(t, []string{"e1:client-1:declined"}, store.participantUpdates)
	assert.Equal(t, 0, store.callCount("UpdateEvent"))
	assert.Equal(t, 1, store.callCount("ParticipantsForUser"), "feed loaded to find the invitation")
}

func TestFeed_UpdateRSVPNeedsOwnInvitation(t *testing.T) {
	tests := []struct {
		name  string
		store func() *memStore
		actor Actor
	}{
		{
			name:  "not a participant",
			store: func() *memStore { return invitationStore("consultation") },
			actor: Actor{Role: RoleClient, UserID: "client-9"},
		},
		{
			name: "invitation sent by the actor",
			store: func() *memStore {
				store := invitationStore("consultation")
				store.participants[0].InvitedByUserID = "client-1"
				store.participants[0].InvitedByRole = "client"
				return store
			},
			actor: clientActor(),
		},
		{
			name: "already answered",
			store: func() *memStore {
				store := invitationStore("consultation")
				store.participants[0].RSVPStatus = StatusDeclined
				return store
			},
			actor: clientActor(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store()
			feed := newTestFeed(store, tt.actor, nil)

			require.NoError(t, feed.UpdateRSVP(context.Background(), "e1", StatusConfirmed))
			assert.Equal(t, 0, store.callCount("UpdateParticipantStatus"))
			assert.Equal(t, 0, store.callCount("UpdateEvent"))
			assert.Empty(t, store.eventPatches)
		})
	}
}

func TestFeed_UpdateRSVPRejectsUnknownStatus(t *testing.T) {
	store := invitationStore("consultation")
	feed := newTestFeed(store, clientActor(), nil)

	err := feed.UpdateRSVP(context.Background(), "e1", "maybe")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.Equal(t, 0, store.totalCalls())
}

func TestFeed_UpdateRSVPFailureIsGeneric(t *testing.T) {
	store := invitationStore("consultation")
	store.failOn["UpdateParticipantStatus"] = fmt.Errorf("row level security violation")
	feed := newTestFeed(store, clientActor(), nil)
	_, err := feed.Load(context.Background())
	require.NoError(t, err)

	err = feed.UpdateRSVP(context.Background(), "e1", StatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, rsvpFailedMessage, apperrors.UserMessage(err))
	assert.Equal(t, rsvpFailedMessage, feed.Error())
	assert.Equal(t, 0, store.callCount("UpdateEvent"))
	assert.Equal(t, StatusPending, feed.Items()[0].RSVPStatus)
}

func rescheduleStore() *memStore {
	store := invitationStore("consultation")
	store.participants[0].RSVPStatus = StatusAccepted
	store.reschedules = []RescheduleRequest{{
		EventID:           "e1",
		Status:            ReschedulePending,
		CreatedAt:         at(-time.Minute),
		FromStartTime:     at(24 * time.Hour),
		ToStartTime:       at(30 * time.Hour),
		ToEndTime:         ptr(at(31 * time.Hour)),
		RequestedByUserID: "coach-user",
	}}
	return store
}

func TestFeed_RespondToRescheduleAccept(t *testing.T) {
	store := rescheduleStore()
	feed := newTestFeed(store, clientActor(), nil)
	_, err := feed.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, feed.Items()[0].ReschedulePending)

	require.NoError(t, feed.RespondToReschedule(context.Background(), "e1", RescheduleAccepted))

	assert.Equal(t, RescheduleAccepted, store.rescheduleUpdates["e1"])
	patch := store.eventPatches["e1"]
	assert.Equal(t, StatusConfirmed, patch.Status)
	require.NotNil(t, patch.StartTime)
	assert.Equal(t, at(30*time.Hour), *patch.StartTime)
	require.NotNil(t, patch.EndTime)
	assert.Equal(t, at(31*time.Hour), *patch.EndTime)

	items := feed.Items()
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ReschedulePending, "accepted request is no longer pending for the client")
	assert.Equal(t, at(30*time.Hour), items[0].StartTime)
}

func TestFeed_RespondToRescheduleReject(t *testing.T) {
	store := rescheduleStore()
	feed := newTestFeed(store, clientActor(), nil)

	require.NoError(t, feed.RespondToReschedule(context.Background(), "e1", RescheduleRejected))
	assert.Equal(t, StatusDeclined, store.rescheduleUpdates["e1"])
	assert.Equal(t, 0, store.callCount("UpdateEvent"))
}

func TestFeed_RespondToOwnRescheduleIsIgnored(t *testing.T) {
	store := rescheduleStore()
	store.reschedules[0].RequestedByUserID = "client-1"
	feed := newTestFeed(store, clientActor(), nil)

	require.NoError(t, feed.RespondToReschedule(context.Background(), "e1", RescheduleAccepted))
	assert.Empty(t, store.rescheduleUpdates)
	assert.Equal(t, 0, store.callCount("UpdatePendingReschedule"))
	assert.Equal(t, 0, store.callCount("UpdateEvent"))
}

func TestFeed_RespondToRescheduleOutsideFeedIsIgnored(t *testing.T) {
	store := rescheduleStore()
	feed := newTestFeed(store, Actor{Role: RoleClient, UserID: "client-9"}, nil)

	require.NoError(t, feed.RespondToReschedule(context.Background(), "e1", RescheduleAccepted))
	assert.Empty(t, store.rescheduleUpdates)
	assert.Empty(t, store.eventPatches)
}

func TestFeed_RespondWithoutPendingIsNoop(t *testing.T) {
	store := invitationStore("consultation")
	feed := newTestFeed(store, clientActor(), nil)

	require.NoError(t, feed.RespondToReschedule(context.Background(), "e1", RescheduleAccepted))
	assert.Equal(t, 0, store.callCount("UpdatePendingReschedule"))
	assert.Equal(t, 0, store.callCount("UpdateEvent"))
}

func TestFeed_RespondFailureIsGeneric(t *testing.T) {
	store := rescheduleStore()
	store.failOn["UpdateEvent"] = fmt.Errorf("timeout")
	feed := newTestFeed(store, clientActor(), nil)

	err := feed.RespondToReschedule(context.Background(), "e1", RescheduleAccepted)
	require.Error(t, err)
	assert.Equal(t, rescheduleFailedMessage, apperrors.UserMessage(err))
}

func TestFeed_CacheHitAndInvalidation(t *testing.T) {
	store := invitationStore("consultation")
	cache := newMemCache()
	feed := newTestFeed(store, clientActor(), cache)

	_, err := feed.Load(context.Background())
	require.NoError(t, err)
	_, err = feed.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.callCount("ParticipantsForUser"), "second load served from cache")

	require.NoError(t, feed.UpdateRSVP(context.Background(), "e1", StatusDeclined))
	assert.Equal(t, []string{"client:client-1", "coach:coach-user"}, cache.invalidated)
	assert.Equal(t, 2, store.callCount("ParticipantsForUser"))
	assert.Equal(t, StatusDeclined, feed.Items()[0].RSVPStatus)
}

func TestFeedSet_SharesFeedPerActor(t *testing.T) {
	set := NewFeedSet(newMemStore(), nil, nil)
	a := set.For(clientActor())
	assert.Same(t, a, set.For(clientActor()))
	assert.NotSame(t, a, set.For(coachActor()))
	assert.Equal(t, clientActor(), a.Actor())
}

func TestFeedSet_Forget(t *testing.T) {
	set := NewFeedSet(newMemStore(), nil, nil)
	a := set.For(clientActor())
	set.For(coachActor())
	require.Equal(t, 2, set.Len())

	assert.Equal(t, 1, set.Forget(RoleClient, clientActor().UserID))
	assert.Equal(t, 1, set.Len())
	assert.NotSame(t, a, set.For(clientActor()), "a forgotten feed is rebuilt")

	assert.Zero(t, set.Forget(RoleClient, "nobody"))
}
