package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Follow{}, &Like{}))
	return db
}

func TestFollowees(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, followee := range []string{"alice", "bob"} {
		require.NoError(t, db.Create(&Follow{FollowerID: "viewer", FolloweeID: followee, CreatedAt: time.Now()}).Error)
	}
	require.NoError(t, db.Create(&Follow{FollowerID: "someone", FolloweeID: "carol", CreatedAt: time.Now()}).Error)

	got, err := repo.Followees(ctx, "viewer")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, got)

	empty, err := repo.Followees(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLikedAmong(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&Like{UserID: "viewer", PostID: "p1", CreatorID: "alice", CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&Like{UserID: "viewer", PostID: "p3", CreatorID: "bob", CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&Like{UserID: "other", PostID: "p2", CreatorID: "alice", CreatedAt: time.Now()}).Error)

	got, err := repo.LikedAmong(ctx, "viewer", []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	assert.True(t, got["p1"])
	assert.False(t, got["p2"], "another viewer's like must not leak")
	assert.True(t, got["p3"])

	none, err := repo.LikedAmong(ctx, "viewer", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLikeTotals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	likes := []Like{
		{UserID: "viewer", PostID: "p1", CreatorID: "alice"},
		{UserID: "viewer", PostID: "p2", CreatorID: "alice"},
		{UserID: "viewer", PostID: "p3", CreatorID: "bob"},
		{UserID: "other", PostID: "p4", CreatorID: "alice"},
	}
	for i := range likes {
		likes[i].CreatedAt = time.Now()
		require.NoError(t, db.Create(&likes[i]).Error)
	}

	total, perCreator, err := repo.LikeTotals(ctx, "viewer")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.EqualValues(t, 2, perCreator["alice"])
	assert.EqualValues(t, 1, perCreator["bob"])

	total, perCreator, err = repo.LikeTotals(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, perCreator)
}
