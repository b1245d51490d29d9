package social

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Followees lists the IDs the viewer follows.
	Followees(ctx context.Context, viewerID string) ([]string, error)

	// LikedAmong returns which of the given posts the viewer has liked, in a
	// single batched round trip.
	LikedAmong(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)

	// LikeTotals returns the viewer's total historic like count and the
	// per-creator breakdown used as an affinity proxy.
	LikeTotals(ctx context.Context, viewerID string) (int64, map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository { return &repository{db: db} }

func (r *repository) Followees(ctx context.Context, viewerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ?", viewerID).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) LikedAmong(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&Like{}).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *repository) LikeTotals(ctx context.Context, viewerID string) (int64, map[string]int64, error) {
	type row struct {
		CreatorID string
		N         int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&Like{}).
		Select("creator_id, COUNT(*) AS n").
		Where("user_id = ?", viewerID).
		Group("creator_id").
		Scan(&rows).Error
	if err != nil {
		return 0, nil, err
	}
	var total int64
	perCreator := make(map[string]int64, len(rows))
	for _, rw := range rows {
		total += rw.N
		perCreator[rw.CreatorID] = rw.N
	}
	return total, perCreator, nil
}
