package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/BitGladiator/Vistagram/internal/feed"
	"github.com/BitGladiator/Vistagram/internal/metrics"
)

// Consumer subscribes to the social events topic and deletes the cache keys a
// given event invalidates. A failed deletion is retried in place and the
// offset is committed only once it succeeded, so invalidation is
// at-least-once; deleting an absent key is a no-op, which keeps redelivery
// harmless.
type Consumer struct {
	reader  *kafka.Reader
	cache   feed.Cache
	pages   int
	backoff time.Duration
}

type ConsumerOption func(*Consumer)

// WithProfilePages bounds the profile page range invalidated on like events.
func WithProfilePages(n int) ConsumerOption {
	return func(c *Consumer) { c.pages = n }
}

func WithBackoff(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.backoff = d }
}

func NewConsumer(brokers, groupID, topic string, cache feed.Cache, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  strings.Split(brokers, ","),
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 10e3,
			MaxBytes: 10e6,
			MaxWait:  2 * time.Second,
		}),
		cache:   cache,
		pages:   10,
		backoff: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		_ = c.reader.Close()
	}()

	log.Printf("[Kafka] invalidation consumer started | group=%s | topic=%s",
		c.reader.Config().GroupID, c.reader.Config().Topic)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("[Kafka] invalidation consumer shutting down")
				return nil
			}
			log.Printf("[Kafka] fetch error: %v", err)
			c.sleep(ctx)
			continue
		}

		if err := c.process(ctx, m.Value); err != nil {
			// shutdown mid-retry; the offset stays uncommitted, so the
			// message is redelivered on the next start
			log.Println("[Kafka] invalidation consumer shutting down")
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			log.Printf("[Kafka] commit error: %v", err)
		}
	}
}

// process applies one message's invalidation, retrying the same message in
// place until it sticks. Group commits are cumulative per partition, so
// fetching past a failed message and committing a later one would acknowledge
// the failed one too; the loop therefore never moves on while the context
// lives.
func (c *Consumer) process(ctx context.Context, value []byte) error {
	for {
		err := c.Handle(ctx, value)
		if err == nil {
			return nil
		}
		metrics.EventsFailed.Inc()
		log.Printf("[Kafka] invalidation failed, retrying: %v", err)
		c.sleep(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Handle processes one raw event. A malformed payload returns nil so the
// message is dropped; retrying it forever would be worse than a bounded
// staleness window. A cache failure returns the error so the offset stays
// uncommitted.
func (c *Consumer) Handle(ctx context.Context, value []byte) error {
	var ev Event
	if err := json.Unmarshal(value, &ev); err != nil {
		log.Printf("[Kafka] malformed event dropped: %v", err)
		return nil
	}

	keys, patterns := c.keysFor(ev)
	if len(keys) == 0 && len(patterns) == 0 {
		log.Printf("[Kafka] event %q carries nothing to invalidate, dropped", ev.Type)
		return nil
	}

	if err := c.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate %s: %w", ev.Type, err)
	}
	for _, p := range patterns {
		if _, err := c.cache.DeleteMatching(ctx, p); err != nil {
			return fmt.Errorf("invalidate %s (%s): %w", ev.Type, p, err)
		}
	}
	metrics.EventsProcessed.WithLabelValues(string(ev.Type)).Inc()
	return nil
}

func (c *Consumer) keysFor(ev Event) (keys []string, patterns []string) {
	switch ev.Type {
	case UserFollowed, UserUnfollowed:
		if ev.Data.FollowerID == "" {
			return nil, nil
		}
		return []string{feed.HomeKey(ev.Data.FollowerID)}, nil

	case PostLiked, PostUnliked:
		if ev.Data.PostID != "" {
			keys = append(keys, feed.PostKey(ev.Data.PostID))
		}
		if actor := ev.Data.ActorID; actor != "" {
			keys = append(keys, feed.HomeKey(actor), feed.ExploreKey(actor))
			for p := 1; p <= c.pages; p++ {
				keys = append(keys, feed.UserKey(actor, p))
			}
		}
		return keys, nil

	case PostCreated:
		// a new post can surface in anyone's explore pool
		return nil, []string{feed.ExplorePattern()}
	}
	return nil, nil
}

func (c *Consumer) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.backoff):
	}
}
