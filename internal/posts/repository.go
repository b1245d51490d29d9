package posts

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// RecentByAuthors returns posts by the given authors within the window,
	// newest first, capped to keep the ranking cost bounded.
	RecentByAuthors(ctx context.Context, authorIDs []string, window time.Duration, cap int) ([]Post, error)

	// Trending returns global posts within the window, pre-ordered by a cheap
	// engagement heuristic (likes + 2*comments) before capping. Final order is
	// decided downstream by the scoring function.
	Trending(ctx context.Context, window time.Duration, cap int) ([]Post, error)

	// ByAuthor returns a single author's posts newest first with store-level
	// pagination, plus the author's total post count.
	ByAuthor(ctx context.Context, authorID string, limit, offset int) ([]Post, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository { return &repository{db: db} }

func (r *repository) RecentByAuthors(ctx context.Context, authorIDs []string, window time.Duration, cap int) ([]Post, error) {
	var out []Post
	since := time.Now().Add(-window)
	err := r.db.WithContext(ctx).
		Where("author_id IN ? AND is_deleted = ? AND created_at > ?", authorIDs, false, since).
		Order("created_at DESC").
		Limit(cap).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Trending(ctx context.Context, window time.Duration, cap int) ([]Post, error) {
	var out []Post
	since := time.Now().Add(-window)
	err := r.db.WithContext(ctx).
		Where("is_deleted = ? AND created_at > ?", false, since).
		Order("like_count + comment_count * 2 DESC").
		Order("created_at DESC").
		Limit(cap).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ByAuthor(ctx context.Context, authorID string, limit, offset int) ([]Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&Post{}).
		Where("author_id = ? AND is_deleted = ?", authorID, false)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []Post
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
