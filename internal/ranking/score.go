// Package ranking implements the feed scoring function:
// score = 0.5*recency + 0.3*engagement + 0.1*affinity + 0.1*content_preference
package ranking

import (
	"math"
	"time"

	"github.com/BitGladiator/Vistagram/internal/posts"
)

// Params carries the scoring weights and constants. The defaults are a design
// choice, not a learned policy; everything here is configurable.
type Params struct {
	WeightRecency    float64
	WeightEngagement float64
	WeightAffinity   float64
	WeightContent    float64

	// DecayPerHour is the recency decay constant; 0.15 halves influence
	// roughly every 4.6 hours.
	DecayPerHour float64

	// EngagementCap normalizes the log-engagement term to [0,1].
	EngagementCap float64

	// AffinityDefault is used when the viewer has no interaction history.
	AffinityDefault float64

	// ContentDefault is the neutral preference for unknown media types.
	ContentDefault float64
}

func DefaultParams() Params {
	return Params{
		WeightRecency:    0.5,
		WeightEngagement: 0.3,
		WeightAffinity:   0.1,
		WeightContent:    0.1,
		DecayPerHour:     0.15,
		EngagementCap:    1000,
		AffinityDefault:  0.1,
		ContentDefault:   0.5,
	}
}

// ViewerContext is the viewer-side input to scoring.
type ViewerContext struct {
	ViewerID            string
	TotalInteractions   int64
	CreatorInteractions map[string]int64
	Preferences         map[string]float64
}

// Score computes a post's rank value and its named sub-scores. It is pure and
// deterministic given identical inputs and the same now reading.
func (p Params) Score(post posts.Post, ctx ViewerContext, now time.Time) (float64, map[string]float64) {
	recency := p.recency(post.CreatedAt, now)
	engagement := p.engagement(post.LikeCount, post.CommentCount, post.ShareCount)
	affinity := p.affinity(ctx, post.AuthorID)
	content := p.contentPreference(post.MediaType, ctx.Preferences)

	final := p.WeightRecency*recency +
		p.WeightEngagement*engagement +
		p.WeightAffinity*affinity +
		p.WeightContent*content

	return final, map[string]float64{
		"recency":    recency,
		"engagement": engagement,
		"affinity":   affinity,
		"content":    content,
	}
}

func (p Params) recency(createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		// clock skew / future timestamp must not inflate the score
		hours = 0
	}
	return math.Exp(-p.DecayPerHour * hours)
}

func (p Params) engagement(likes, comments, shares int64) float64 {
	raw := float64(likes + 2*comments + 3*shares)
	if raw < 1 {
		raw = 1
	}
	cap := p.EngagementCap
	if cap <= 1 {
		// log(cap) would be zero or negative and the score no longer finite
		cap = DefaultParams().EngagementCap
	}
	v := math.Log(raw) / math.Log(cap)
	if v > 1 {
		v = 1
	}
	return v
}

func (p Params) affinity(ctx ViewerContext, creatorID string) float64 {
	if ctx.TotalInteractions <= 0 {
		return p.AffinityDefault
	}
	return float64(ctx.CreatorInteractions[creatorID]) / float64(ctx.TotalInteractions)
}

func (p Params) contentPreference(mediaType string, prefs map[string]float64) float64 {
	if w, ok := prefs[mediaType]; ok {
		return w
	}
	return p.ContentDefault
}
