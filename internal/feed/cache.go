package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyHomeFmt    = "feed:home:%s"
	keyExploreFmt = "feed:explore:%s"
	keyUserFmt    = "feed:user:%s:%d"
	keyPostFmt    = "feed:post:%s"

	keyExplorePattern = "feed:explore:*"
)

func HomeKey(viewerID string) string { return fmt.Sprintf(keyHomeFmt, viewerID) }

func ExploreKey(viewerID string) string { return fmt.Sprintf(keyExploreFmt, viewerID) }

func UserKey(subjectID string, page int) string { return fmt.Sprintf(keyUserFmt, subjectID, page) }

func PostKey(postID string) string { return fmt.Sprintf(keyPostFmt, postID) }

// ExplorePattern matches every cached explore entry; a new post can appear in
// anyone's explore pool.
func ExplorePattern() string { return keyExplorePattern }

// Cache is the feed cache contract. Entries only ever exist or not; there is
// no partial update, only delete-and-regenerate. Delete of an absent key is a
// no-op.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, bool, error)
	Set(ctx context.Context, key string, entry *CacheEntry, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteMatching(ctx context.Context, pattern string) (int, error)
}

type redisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) Cache { return &redisCache{rdb: rdb} }

func (c *redisCache) Get(ctx context.Context, key string) (*CacheEntry, bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entry CacheEntry
	if err := json.Unmarshal([]byte(s), &entry); err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, entry *CacheEntry, ttl time.Duration) error {
	b, err := json.Marshal(stripViewerState(entry))
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *redisCache) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	var deleted int
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// stripViewerState copies the entry without per-viewer like state so that a
// cached payload can never leak one viewer's state to another.
func stripViewerState(entry *CacheEntry) *CacheEntry {
	out := &CacheEntry{
		Items: make([]RankedPost, len(entry.Items)),
		Total: entry.Total,
	}
	copy(out.Items, entry.Items)
	for i := range out.Items {
		out.Items[i].IsLikedByViewer = false
	}
	return out
}
