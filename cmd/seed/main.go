// Seeds the posts and social databases with fake data and emits sample social
// events, for local development of the feed pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/BitGladiator/Vistagram/configs"
	"github.com/BitGladiator/Vistagram/internal/events"
	"github.com/BitGladiator/Vistagram/internal/posts"
	"github.com/BitGladiator/Vistagram/internal/shared/db"
	"github.com/BitGladiator/Vistagram/internal/social"
)

const (
	numUsers       = 20
	postsPerUser   = 5
	followsPerUser = 5
	likesPerUser   = 10
)

func main() {
	gofakeit.Seed(time.Now().UnixNano())
	cfg := configs.LoadConfig()
	ctx := context.Background()

	postsDB, err := db.Open(cfg.PostsDSN())
	if err != nil {
		log.Fatalf("posts db: %v", err)
	}
	socialDB, err := db.Open(cfg.SocialDSN())
	if err != nil {
		log.Fatalf("social db: %v", err)
	}
	if err := postsDB.AutoMigrate(&posts.Post{}); err != nil {
		log.Fatalf("migrate posts: %v", err)
	}
	if err := socialDB.AutoMigrate(&social.Follow{}, &social.Like{}); err != nil {
		log.Fatalf("migrate social: %v", err)
	}

	pub := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() { _ = pub.Close() }()

	userIDs := make([]string, numUsers)
	for i := range userIDs {
		userIDs[i] = uuid.NewString()
	}

	var allPosts []posts.Post
	for _, uid := range userIDs {
		for j := 0; j < postsPerUser; j++ {
			mediaType := "image"
			if gofakeit.Bool() {
				mediaType = "video"
			}
			p := posts.Post{
				ID:           uuid.NewString(),
				AuthorID:     uid,
				Caption:      gofakeit.Sentence(8),
				Location:     gofakeit.City(),
				LikeCount:    int64(gofakeit.Number(0, 500)),
				CommentCount: int64(gofakeit.Number(0, 50)),
				MediaURL:     fmt.Sprintf("https://media.vistagram.local/%s.jpg", uuid.NewString()),
				MediaType:    mediaType,
				CreatedAt:    time.Now().Add(-time.Duration(gofakeit.Number(0, 72)) * time.Hour),
			}
			if err := postsDB.Create(&p).Error; err != nil {
				log.Fatalf("seed post: %v", err)
			}
			allPosts = append(allPosts, p)
		}
	}
	log.Printf("seeded %d posts for %d users", len(allPosts), numUsers)

	for i, uid := range userIDs {
		for j := 1; j <= followsPerUser; j++ {
			followee := userIDs[(i+j)%numUsers]
			f := social.Follow{FollowerID: uid, FolloweeID: followee, CreatedAt: time.Now()}
			if err := socialDB.Create(&f).Error; err != nil {
				log.Fatalf("seed follow: %v", err)
			}
			if err := pub.Publish(ctx, events.UserFollowed, events.Payload{
				FollowerID: uid,
				FolloweeID: followee,
			}); err != nil {
				log.Printf("publish follow event: %v", err)
			}
		}
	}
	log.Printf("seeded %d follows", numUsers*followsPerUser)

	var likes int
	for _, uid := range userIDs {
		for j := 0; j < likesPerUser; j++ {
			p := allPosts[gofakeit.Number(0, len(allPosts)-1)]
			l := social.Like{UserID: uid, PostID: p.ID, CreatorID: p.AuthorID, CreatedAt: time.Now()}
			if err := socialDB.Create(&l).Error; err != nil {
				// duplicate like on a random pick; skip
				continue
			}
			likes++
			if err := pub.Publish(ctx, events.PostLiked, events.Payload{
				PostID:  p.ID,
				ActorID: uid,
			}); err != nil {
				log.Printf("publish like event: %v", err)
			}
		}
	}
	log.Printf("seeded %d likes, done", likes)
}
