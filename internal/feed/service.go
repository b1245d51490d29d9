package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/BitGladiator/Vistagram/internal/metrics"
	"github.com/BitGladiator/Vistagram/internal/posts"
	"github.com/BitGladiator/Vistagram/internal/ranking"
	"github.com/BitGladiator/Vistagram/internal/shared/httpx"
)

// placeholderName renders when identity resolution is degraded; the feed must
// still serve.
const placeholderName = "unknown"

var errNoCandidates = errors.New("no candidates")

// PostStore is the posts database seen through the candidate-fetch contract.
type PostStore interface {
	RecentByAuthors(ctx context.Context, authorIDs []string, window time.Duration, cap int) ([]posts.Post, error)
	Trending(ctx context.Context, window time.Duration, cap int) ([]posts.Post, error)
	ByAuthor(ctx context.Context, authorID string, limit, offset int) ([]posts.Post, int64, error)
}

// SocialStore is the social-graph database: follow set, like state, affinity inputs.
type SocialStore interface {
	Followees(ctx context.Context, viewerID string) ([]string, error)
	LikedAmong(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	LikeTotals(ctx context.Context, viewerID string) (int64, map[string]int64, error)
}

// IdentityResolver batch-resolves display names from the user service.
type IdentityResolver interface {
	ResolveUsernames(ctx context.Context, ids []string) (map[string]string, error)
}

type Service interface {
	HomeFeed(ctx context.Context, viewerID string, page, limit int) (*FeedPage, error)
	ExploreFeed(ctx context.Context, viewerID string, page, limit int) (*FeedPage, error)
	UserFeed(ctx context.Context, viewerID, subjectID string, page, limit int) (*FeedPage, error)
	ClearViewerCache(ctx context.Context, viewerID string) error
}

type service struct {
	cache    Cache
	posts    PostStore
	social   SocialStore
	identity IdentityResolver

	params        ranking.Params
	homeWindow    time.Duration
	exploreWindow time.Duration
	poolSize      int
	homeTTL       time.Duration
	profileTTL    time.Duration

	now func() time.Time
	sf  singleflight.Group
}

type Option func(*service)

func WithParams(p ranking.Params) Option {
	return func(s *service) { s.params = p }
}

func WithWindows(home, explore time.Duration) Option {
	return func(s *service) { s.homeWindow, s.exploreWindow = home, explore }
}

func WithPoolSize(n int) Option {
	return func(s *service) { s.poolSize = n }
}

func WithTTLs(home, profile time.Duration) Option {
	return func(s *service) { s.homeTTL, s.profileTTL = home, profile }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(cache Cache, postStore PostStore, socialStore SocialStore, identity IdentityResolver, opts ...Option) Service {
	s := &service{
		cache:         cache,
		posts:         postStore,
		social:        socialStore,
		identity:      identity,
		params:        ranking.DefaultParams(),
		homeWindow:    30 * 24 * time.Hour,
		exploreWindow: 48 * time.Hour,
		poolSize:      100,
		homeTTL:       300 * time.Second,
		profileTTL:    600 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) HomeFeed(ctx context.Context, viewerID string, page, limit int) (*FeedPage, error) {
	return s.rankedFeed(ctx, KindHome, viewerID, page, limit)
}

func (s *service) ExploreFeed(ctx context.Context, viewerID string, page, limit int) (*FeedPage, error) {
	return s.rankedFeed(ctx, KindExplore, viewerID, page, limit)
}

// rankedFeed drives the home/explore state machine: cache lookup, then on a
// miss the slow path of fetch, enrich, rank and a best-effort cache write.
// A home feed without candidates falls back to explore exactly once.
func (s *service) rankedFeed(ctx context.Context, kind Kind, viewerID string, page, limit int) (*FeedPage, error) {
	key := HomeKey(viewerID)
	if kind == KindExplore {
		key = ExploreKey(viewerID)
	}

	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		// cache down is a permanent miss, never a request failure
		log.Printf("feed: cache get %s: %v", key, err)
	}
	if ok {
		metrics.CacheHits.WithLabelValues(string(kind)).Inc()
		return s.pageOf(ctx, viewerID, entry, page, limit, SourceCache), nil
	}
	metrics.CacheMisses.WithLabelValues(string(kind)).Inc()

	entry, err = s.buildShared(ctx, key, kind, viewerID)
	if errors.Is(err, errNoCandidates) {
		if kind == KindHome {
			metrics.Fallbacks.Inc()
			return s.rankedFeed(ctx, KindExplore, viewerID, page, limit)
		}
		entry = &CacheEntry{Items: []RankedPost{}}
	} else if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, entry, s.homeTTL); err != nil {
		log.Printf("feed: cache set %s: %v", key, err)
	}
	return s.pageOf(ctx, viewerID, entry, page, limit, SourceDatabase), nil
}

// buildTimeout bounds a detached feed build.
const buildTimeout = 15 * time.Second

// buildShared coalesces concurrent misses on the same key into one computation.
// The build is detached from the initiating request's context: coalesced
// callers must not fail because the first one disconnected mid-build.
func (s *service) buildShared(ctx context.Context, key string, kind Kind, viewerID string) (*CacheEntry, error) {
	v, err, _ := s.sf.Do(key, func() (any, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		return s.build(bctx, kind, viewerID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CacheEntry), nil
}

func (s *service) build(ctx context.Context, kind Kind, viewerID string) (*CacheEntry, error) {
	var candidates []posts.Post
	switch kind {
	case KindHome:
		followees, err := s.social.Followees(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("%w: list followees: %v", httpx.ErrUpstream, err)
		}
		if len(followees) == 0 {
			return nil, errNoCandidates
		}
		candidates, err = s.posts.RecentByAuthors(ctx, followees, s.homeWindow, s.poolSize)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch candidates: %v", httpx.ErrUpstream, err)
		}
		if len(candidates) == 0 {
			return nil, errNoCandidates
		}
	case KindExplore:
		var err error
		candidates, err = s.posts.Trending(ctx, s.exploreWindow, s.poolSize)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch trending: %v", httpx.ErrUpstream, err)
		}
	}

	names, vctx := s.enrich(ctx, viewerID, candidates)
	metrics.FeedBuilds.WithLabelValues(string(kind)).Inc()
	return s.rank(candidates, vctx, names), nil
}

// enrich resolves display identity and the viewer's affinity inputs in one
// concurrent pass. Both lookups are independent reads and both are non-fatal:
// identity degrades to a placeholder, affinity to its default.
func (s *service) enrich(ctx context.Context, viewerID string, candidates []posts.Post) (map[string]string, ranking.ViewerContext) {
	var names map[string]string
	vctx := ranking.ViewerContext{ViewerID: viewerID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.identity.ResolveUsernames(gctx, authorIDs(candidates))
		if err != nil {
			log.Printf("feed: identity resolution degraded: %v", err)
			return nil
		}
		names = m
		return nil
	})
	g.Go(func() error {
		total, perCreator, err := s.social.LikeTotals(gctx, viewerID)
		if err != nil {
			log.Printf("feed: affinity lookup degraded: %v", err)
			return nil
		}
		vctx.TotalInteractions = total
		vctx.CreatorInteractions = perCreator
		return nil
	})
	_ = g.Wait()
	return names, vctx
}

func (s *service) rank(candidates []posts.Post, vctx ranking.ViewerContext, names map[string]string) *CacheEntry {
	now := s.now()
	items := make([]RankedPost, 0, len(candidates))
	for _, p := range candidates {
		score, breakdown := s.params.Score(p, vctx, now)
		name := names[p.AuthorID]
		if name == "" {
			name = placeholderName
		}
		items = append(items, RankedPost{
			Post:              p,
			Score:             score,
			ScoreBreakdown:    breakdown,
			AuthorDisplayName: name,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return &CacheEntry{Items: items, Total: int64(len(items))}
}

func (s *service) UserFeed(ctx context.Context, viewerID, subjectID string, page, limit int) (*FeedPage, error) {
	key := UserKey(subjectID, page)

	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("feed: cache get %s: %v", key, err)
	}
	if ok {
		metrics.CacheHits.WithLabelValues(string(KindUser)).Inc()
		return s.storedPage(ctx, viewerID, entry, page, limit, SourceCache), nil
	}
	metrics.CacheMisses.WithLabelValues(string(KindUser)).Inc()

	offset := (page - 1) * limit
	items, total, err := s.posts.ByAuthor(ctx, subjectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch author posts: %v", httpx.ErrUpstream, err)
	}

	// Scored with a neutral context and kept in store order (newest first):
	// profile entries are shared across viewers, so nothing viewer-specific
	// may influence what gets cached.
	names, _ := s.enrichIdentityOnly(ctx, items)
	now := s.now()
	ranked := make([]RankedPost, 0, len(items))
	for _, p := range items {
		score, breakdown := s.params.Score(p, ranking.ViewerContext{}, now)
		name := names[p.AuthorID]
		if name == "" {
			name = placeholderName
		}
		ranked = append(ranked, RankedPost{
			Post:              p,
			Score:             score,
			ScoreBreakdown:    breakdown,
			AuthorDisplayName: name,
		})
	}
	entry = &CacheEntry{Items: ranked, Total: total}

	if err := s.cache.Set(ctx, key, entry, s.profileTTL); err != nil {
		log.Printf("feed: cache set %s: %v", key, err)
	}
	return s.storedPage(ctx, viewerID, entry, page, limit, SourceDatabase), nil
}

func (s *service) enrichIdentityOnly(ctx context.Context, candidates []posts.Post) (map[string]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	names, err := s.identity.ResolveUsernames(ctx, authorIDs(candidates))
	if err != nil {
		log.Printf("feed: identity resolution degraded: %v", err)
		return nil, err
	}
	return names, nil
}

func (s *service) ClearViewerCache(ctx context.Context, viewerID string) error {
	err := s.cache.Delete(ctx, HomeKey(viewerID), ExploreKey(viewerID))
	if err != nil {
		return fmt.Errorf("%w: clear feed cache: %v", httpx.ErrUpstream, err)
	}
	return nil
}

// pageOf slices one page out of a full ranked pool, then overlays the viewer's
// like state. The slice is copied first; cached entries are immutable.
func (s *service) pageOf(ctx context.Context, viewerID string, entry *CacheEntry, page, limit int, source string) *FeedPage {
	offset := (page - 1) * limit
	items := []RankedPost{}
	if offset < len(entry.Items) {
		end := offset + limit
		if end > len(entry.Items) {
			end = len(entry.Items)
		}
		items = append(items, entry.Items[offset:end]...)
	}
	s.markLiked(ctx, viewerID, items)
	return &FeedPage{
		Items: items,
		Pagination: Pagination{
			Page:    page,
			Limit:   limit,
			Total:   entry.Total,
			HasMore: int64(offset+limit) < entry.Total,
		},
		Source: source,
	}
}

// storedPage serves a profile entry, which already holds exactly one
// store-paginated page. HasMore is derived from what the entry actually
// consumed: the entry may have been built under a different limit than the
// current requester's, since the key carries only the page number.
func (s *service) storedPage(ctx context.Context, viewerID string, entry *CacheEntry, page, limit int, source string) *FeedPage {
	items := append([]RankedPost{}, entry.Items...)
	s.markLiked(ctx, viewerID, items)
	offset := (page - 1) * limit
	return &FeedPage{
		Items: items,
		Pagination: Pagination{
			Page:    page,
			Limit:   limit,
			Total:   entry.Total,
			HasMore: int64(offset+len(items)) < entry.Total,
		},
		Source: source,
	}
}

// markLiked overlays is_liked_by_viewer on a page. Failure defaults every post
// to false; worst case the viewer sees an unfilled heart until the next
// successful read.
func (s *service) markLiked(ctx context.Context, viewerID string, items []RankedPost) {
	if viewerID == "" || len(items) == 0 {
		return
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	liked, err := s.social.LikedAmong(ctx, viewerID, ids)
	if err != nil {
		log.Printf("feed: like-state lookup degraded: %v", err)
		return
	}
	for i := range items {
		items[i].IsLikedByViewer = liked[items[i].ID]
	}
}

func authorIDs(candidates []posts.Post) []string {
	seen := make(map[string]struct{}, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}
	return ids
}
