package feed

import (
	"github.com/BitGladiator/Vistagram/internal/posts"
)

type Kind string

const (
	KindHome    Kind = "home"
	KindExplore Kind = "explore"
	KindUser    Kind = "user"
)

// RankedPost is a scored, enriched feed candidate. IsLikedByViewer is
// viewer-specific and never survives a cache write.
type RankedPost struct {
	posts.Post
	Score             float64            `json:"score"`
	ScoreBreakdown    map[string]float64 `json:"score_breakdown"`
	AuthorDisplayName string             `json:"author_display_name,omitempty"`
	IsLikedByViewer   bool               `json:"is_liked_by_viewer"`
}

// CacheEntry holds the entire ranked candidate pool for a cache key; pages are
// sliced from it at read time. Total may exceed len(Items) for profile feeds,
// where the store paginates.
type CacheEntry struct {
	Items []RankedPost `json:"items"`
	Total int64        `json:"total"`
}

type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

type FeedPage struct {
	Items      []RankedPost `json:"items"`
	Pagination Pagination   `json:"pagination"`
	Source     string       `json:"source"`
}
