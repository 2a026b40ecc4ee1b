package bus

import (
	"time"

	"github.com/walk-app/walk-profile/internal/db"
)

// Wire forms for bus events. Ids travel as strings, enums as their
// string value, timestamps as ISO-8601 (RFC 3339).

type LikeEvent struct {
	LikeID      string    `json:"like_id"`
	UserID      string    `json:"user_id"`
	LikedUserID string    `json:"liked_user_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type MatchEvent struct {
	MatchID   string    `json:"match_id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewLikeEvent(like *db.Like) LikeEvent {
	return LikeEvent{
		LikeID:      like.LikeID,
		UserID:      like.UserID,
		LikedUserID: like.LikedUserID,
		Status:      string(like.Status),
		CreatedAt:   like.CreatedAt,
	}
}

func NewMatchEvent(match *db.Match) MatchEvent {
	return MatchEvent{
		MatchID:   match.MatchID,
		User1ID:   match.User1ID,
		User2ID:   match.User2ID,
		Status:    string(match.Status),
		CreatedAt: match.CreatedAt,
	}
}
