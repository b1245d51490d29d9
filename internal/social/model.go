package social

import "time"

type Follow struct {
	FollowerID string `gorm:"column:follower_id;primaryKey"`
	FolloweeID string `gorm:"column:followee_id;primaryKey"`
	CreatedAt  time.Time
}

func (Follow) TableName() string { return "follows" }

type Like struct {
	UserID    string `gorm:"column:user_id;primaryKey"`
	PostID    string `gorm:"column:post_id;primaryKey"`
	CreatorID string `gorm:"column:creator_id;index"`
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }
