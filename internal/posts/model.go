package posts

import "time"

// Post is a feed candidate. The pipeline treats it as immutable except for the
// counters, which are eventually-consistent snapshots taken at fetch time.
type Post struct {
	ID           string    `gorm:"column:post_id;primaryKey" json:"post_id"`
	AuthorID     string    `gorm:"column:author_id;index" json:"author_id"`
	Caption      string    `json:"caption"`
	Location     string    `json:"location,omitempty"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	ShareCount   int64     `json:"share_count"`
	MediaURL     string    `json:"media_url,omitempty"`
	MediaType    string    `json:"media_type"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	IsDeleted    bool      `json:"-"`
}

func (Post) TableName() string { return "posts" }
