package events

import "time"

type Type string

const (
	UserFollowed   Type = "user_followed"
	UserUnfollowed Type = "user_unfollowed"
	PostLiked      Type = "post_liked"
	PostUnliked    Type = "post_unliked"
	PostCreated    Type = "post_created"
)

// Payload carries the actor/subject identifiers of a social event. Fields not
// relevant to an event type are left empty.
type Payload struct {
	FollowerID string `json:"follower_id,omitempty"`
	FolloweeID string `json:"followee_id,omitempty"`
	PostID     string `json:"post_id,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
}

type Event struct {
	ID        string    `json:"event_id,omitempty"`
	Type      Type      `json:"event_type"`
	Data      Payload   `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
