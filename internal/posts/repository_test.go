package posts

import (
	"context"
	"fmt"
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
	require.NoError(t, db.AutoMigrate(&Post{}))
	return db
}

func seedPost(t *testing.T, db *gorm.DB, id, author string, age time.Duration, likes, comments int64) Post {
	t.Helper()
	p := Post{
		ID:           id,
		AuthorID:     author,
		Caption:      "caption " + id,
		LikeCount:    likes,
		CommentCount: comments,
		MediaType:    "image",
		CreatedAt:    time.Now().Add(-age),
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestRecentByAuthors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedPost(t, db, "p1", "alice", time.Hour, 1, 0)
	seedPost(t, db, "p2", "alice", 40*24*time.Hour, 1, 0) // outside window
	seedPost(t, db, "p3", "bob", 2*time.Hour, 1, 0)
	seedPost(t, db, "p4", "carol", time.Minute, 1, 0) // not followed

	deleted := seedPost(t, db, "p5", "bob", time.Hour, 1, 0)
	require.NoError(t, db.Model(&Post{}).Where("post_id = ?", deleted.ID).Update("is_deleted", true).Error)

	got, err := repo.RecentByAuthors(ctx, []string{"alice", "bob"}, 30*24*time.Hour, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID, "newest first")
	assert.Equal(t, "p3", got[1].ID)
}

func TestRecentByAuthorsCapped(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	for i := 0; i < 10; i++ {
		seedPost(t, db, fmt.Sprintf("p%d", i), "alice", time.Duration(i)*time.Minute, 0, 0)
	}

	got, err := repo.RecentByAuthors(context.Background(), []string{"alice"}, 24*time.Hour, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "p0", got[0].ID, "cap keeps the newest")
}

func TestTrendingPrefilterOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	seedPost(t, db, "low", "alice", time.Hour, 1, 0)    // heuristic 1
	seedPost(t, db, "mid", "bob", time.Hour, 4, 0)      // heuristic 4
	seedPost(t, db, "high", "carol", 2*time.Hour, 2, 3) // heuristic 8
	seedPost(t, db, "stale", "dave", 72*time.Hour, 100, 100)

	got, err := repo.Trending(context.Background(), 48*time.Hour, 100)
	require.NoError(t, err)
	require.Len(t, got, 3, "stale post is outside the trending window")
	assert.Equal(t, "high", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "low", got[2].ID)
}

func TestByAuthorPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedPost(t, db, fmt.Sprintf("p%d", i), "alice", time.Duration(i)*time.Hour, 0, 0)
	}
	seedPost(t, db, "other", "bob", time.Hour, 0, 0)

	page1, total, err := repo.ByAuthor(ctx, "alice", 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "p0", page1[0].ID)
	assert.Equal(t, "p1", page1[1].ID)

	page3, total, err := repo.ByAuthor(ctx, "alice", 2, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page3, 1)
	assert.Equal(t, "p4", page3[0].ID)
}
