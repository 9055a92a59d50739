package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"coach-hub/internal/common/logging"
	"coach-hub/internal/notifications"
)

const (
	feedKeyPrefix = "notifications"
	// InvalidationChannel carries one message per invalidated actor.
	InvalidationChannel = "notifications:invalidated"
)

// Invalidation is the message published when an actor's feed is dropped.
type Invalidation struct {
	Role   notifications.Role `json:"role"`
	UserID string             `json:"userId"`
}

// FeedCache implements notifications.Cache on Redis.
type FeedCache struct {
	client *Client
	ttl    time.Duration
	logger logging.Logger
}

// NewFeedCache creates a cache whose entries expire after ttl.
func NewFeedCache(client *Client, ttl time.Duration, logger logging.Logger) *FeedCache {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &FeedCache{client: client, ttl: ttl, logger: logger}
}

// FeedKey is the cache key of an actor's feed.
func FeedKey(role notifications.Role, userID string) string {
	return fmt.Sprintf("%s:%s:%s", feedKeyPrefix, role, userID)
}

// Get returns the cached feed, ok=false on a miss.
func (c *FeedCache) Get(ctx context.Context, actor notifications.Actor) ([]notifications.Item, bool, error) {
	var items []notifications.Item
	err := c.client.GetJSON(ctx, FeedKey(actor.Role, actor.UserID), &items)
	if stderrors.Is(err, ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if items == nil {
		items = []notifications.Item{}
	}
	return items, true, nil
}

// Set stores the feed with the configured TTL.
func (c *FeedCache) Set(ctx context.Context, actor notifications.Actor, items []notifications.Item) error {
	if items == nil {
		items = []notifications.Item{}
	}
	return c.client.SetJSON(ctx, FeedKey(actor.Role, actor.UserID), items, c.ttl)
}

// Invalidate deletes the feeds and announces each actor on InvalidationChannel.
func (c *FeedCache) Invalidate(ctx context.Context, actors ...notifications.Actor) error {
	if len(actors) == 0 {
		return nil
	}
	keys := make([]string, 0, len(actors))
	for _, a := range actors {
		keys = append(keys, FeedKey(a.Role, a.UserID))
	}
	if err := c.client.Delete(ctx, keys...); err != nil {
		return err
	}
	for _, a := range actors {
		if err := c.client.Publish(ctx, InvalidationChannel, Invalidation{Role: a.Role, UserID: a.UserID}); err != nil {
			return err
		}
	}
	return nil
}

// WatchInvalidations calls fn for every invalidation published by any
// instance until ctx is done.
func (c *FeedCache) WatchInvalidations(ctx context.Context, fn func(Invalidation)) error {
	sub := c.client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", InvalidationChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var inv Invalidation
			if err := json.Unmarshal([]byte(msg.Payload), &inv); err != nil {
				c.logger.Warn("Ignoring malformed invalidation message",
					logging.Err(err),
					logging.String("payload", msg.Payload),
				)
				continue
			}
			fn(inv)
		}
	}
}

var _ notifications.Cache = (*FeedCache)(nil)
