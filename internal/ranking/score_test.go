package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitGladiator/Vistagram/internal/posts"
)

func makePost(age time.Duration, likes, comments int64, now time.Time) posts.Post {
	return posts.Post{
		ID:           "p1",
		AuthorID:     "a1",
		LikeCount:    likes,
		CommentCount: comments,
		MediaType:    "image",
		CreatedAt:    now.Add(-age),
	}
}

func TestScoreWithinUnitRange(t *testing.T) {
	p := DefaultParams()
	now := time.Now()

	cases := []posts.Post{
		makePost(0, 0, 0, now),
		makePost(time.Hour, 10, 2, now),
		makePost(72*time.Hour, 5000, 900, now),
		makePost(30*24*time.Hour, 0, 0, now),
	}
	for _, post := range cases {
		score, breakdown := p.Score(post, ViewerContext{}, now)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
		for name, sub := range breakdown {
			assert.GreaterOrEqual(t, sub, 0.0, name)
			assert.LessOrEqual(t, sub, 1.0, name)
		}
	}
}

func TestScoreMonotonicInAge(t *testing.T) {
	p := DefaultParams()
	now := time.Now()

	prev := 2.0
	for _, age := range []time.Duration{0, time.Hour, 4 * time.Hour, 24 * time.Hour, 7 * 24 * time.Hour} {
		score, _ := p.Score(makePost(age, 10, 2, now), ViewerContext{}, now)
		assert.LessOrEqual(t, score, prev, "score must not increase with age %s", age)
		prev = score
	}
}

func TestFutureTimestampDoesNotInflateRecency(t *testing.T) {
	p := DefaultParams()
	now := time.Now()

	// clock skew: post "created" an hour from now
	_, breakdown := p.Score(makePost(-time.Hour, 0, 0, now), ViewerContext{}, now)
	assert.Equal(t, 1.0, breakdown["recency"])
}

func TestZeroEngagementIsFloored(t *testing.T) {
	p := DefaultParams()
	now := time.Now()

	_, breakdown := p.Score(makePost(time.Hour, 0, 0, now), ViewerContext{}, now)
	assert.Equal(t, 0.0, breakdown["engagement"], "log must be fed 1, not 0")
}

func TestEngagementClampedAtCap(t *testing.T) {
	p := DefaultParams()
	now := time.Now()

	_, breakdown := p.Score(makePost(time.Hour, 100000, 5000, now), ViewerContext{}, now)
	assert.Equal(t, 1.0, breakdown["engagement"])
}

func TestDegenerateEngagementCapStaysFinite(t *testing.T) {
	now := time.Now()
	post := makePost(time.Hour, 50, 0, now)
	want, _ := DefaultParams().Score(post, ViewerContext{}, now)

	for _, cap := range []float64{0, 0.5, 1} {
		p := DefaultParams()
		p.EngagementCap = cap
		score, breakdown := p.Score(post, ViewerContext{}, now)
		require.False(t, math.IsNaN(score), "cap %v", cap)
		require.False(t, math.IsInf(score, 0), "cap %v", cap)
		assert.GreaterOrEqual(t, breakdown["engagement"], 0.0)
		assert.LessOrEqual(t, breakdown["engagement"], 1.0)
		assert.Equal(t, want, score, "a degenerate cap falls back to the default")
	}
}

func TestEngagementWeighsCommentsAndShares(t *testing.T) {
	p := DefaultParams()
	now := time.Now()

	likesOnly := makePost(time.Hour, 6, 0, now)
	comments := makePost(time.Hour, 0, 3, now)
	_, bLikes := p.Score(likesOnly, ViewerContext{}, now)
	_, bComments := p.Score(comments, ViewerContext{}, now)
	assert.InDelta(t, bLikes["engagement"], bComments["engagement"], 1e-9,
		"6 likes and 3 comments carry the same raw engagement")

	shares := likesOnly
	shares.ShareCount = 2
	_, bShares := p.Score(shares, ViewerContext{}, now)
	assert.Greater(t, bShares["engagement"], bLikes["engagement"])
}

func TestAffinity(t *testing.T) {
	p := DefaultParams()
	now := time.Now()
	post := makePost(time.Hour, 1, 0, now)

	_, unknown := p.Score(post, ViewerContext{}, now)
	assert.Equal(t, p.AffinityDefault, unknown["affinity"], "unknown viewers get the default, not zero")

	ctx := ViewerContext{
		TotalInteractions:   10,
		CreatorInteractions: map[string]int64{"a1": 4},
	}
	_, known := p.Score(post, ctx, now)
	assert.InDelta(t, 0.4, known["affinity"], 1e-9)

	ctx.CreatorInteractions = map[string]int64{"someone-else": 4}
	_, none := p.Score(post, ctx, now)
	assert.Equal(t, 0.0, none["affinity"])
}

func TestContentPreference(t *testing.T) {
	p := DefaultParams()
	now := time.Now()
	post := makePost(time.Hour, 0, 0, now)

	_, neutral := p.Score(post, ViewerContext{}, now)
	assert.Equal(t, p.ContentDefault, neutral["content"])

	ctx := ViewerContext{Preferences: map[string]float64{"image": 0.7, "video": 0.3}}
	_, img := p.Score(post, ctx, now)
	assert.Equal(t, 0.7, img["content"])

	post.MediaType = "video"
	_, vid := p.Score(post, ctx, now)
	assert.Equal(t, 0.3, vid["content"])
}

func TestScoreDeterministic(t *testing.T) {
	p := DefaultParams()
	now := time.Now()
	post := makePost(3*time.Hour, 42, 7, now)
	ctx := ViewerContext{
		TotalInteractions:   5,
		CreatorInteractions: map[string]int64{"a1": 2},
	}

	s1, b1 := p.Score(post, ctx, now)
	s2, b2 := p.Score(post, ctx, now)
	require.Equal(t, s1, s2)
	require.Equal(t, b1, b2)
}

func TestEngagementCanOutweighRecencyDecay(t *testing.T) {
	// Three posts an hour apart, equal engagement: newest wins. Give the
	// oldest 50 likes and it overtakes at the default weights.
	p := DefaultParams()
	now := time.Now()

	oldest := makePost(3*time.Hour, 0, 0, now)
	newest := makePost(time.Hour, 0, 0, now)

	sOld, _ := p.Score(oldest, ViewerContext{}, now)
	sNew, _ := p.Score(newest, ViewerContext{}, now)
	assert.Less(t, sOld, sNew)

	oldest.LikeCount = 50
	sBoosted, _ := p.Score(oldest, ViewerContext{}, now)
	assert.Greater(t, sBoosted, sNew)
}
