package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

type LikeStatus string

const (
	LikeStatusNew   LikeStatus = "new"
	LikeStatusSeen  LikeStatus = "seen"
	LikeStatusMatch LikeStatus = "match"
)

type MatchStatus string

const (
	MatchStatusNew     MatchStatus = "new"
	MatchStatusSeen    MatchStatus = "seen"
	MatchStatusDeleted MatchStatus = "deleted"
)

// User table. Profiles are created from Telegram login data and filled
// in later, so everything beyond telegram_id/name is nullable.
type User struct {
	UserID     string    `gorm:"primaryKey;size:36"`
	TelegramID int64     `gorm:"uniqueIndex;not null"`
	Name       string    `gorm:"size:128;not null"`
	Age        *int      `gorm:""`
	Sex        Sex       `gorm:"size:1"`
	Bio        string    `gorm:"size:1024"`
	PhotoURL   string    `gorm:"size:512"`
	Interests  []string  `gorm:"serializer:json;type:text"`
	City       string    `gorm:"size:128"`
	Zodiac     string    `gorm:"size:16"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Like is a directed expression of interest from UserID to LikedUserID.
//
// Unique on (user_id, liked_user_id): a user may like another at most
// once. Status moves new → seen when the liked user reads their likes
// (advisory) and to match when the match detector confirms mutuality.
// Rows are never deleted.
type Like struct {
	LikeID      string     `gorm:"primaryKey;size:36"`
	UserID      string     `gorm:"size:36;not null;uniqueIndex:uq_user_liked_user,priority:1"`
	LikedUserID string     `gorm:"size:36;not null;uniqueIndex:uq_user_liked_user,priority:2"`
	Status      LikeStatus `gorm:"size:8;not null;default:new"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
}

// Match is a confirmed mutual like, unique per unordered user pair.
//
// The pair is stored with fixed column order, so uniqueness is declared
// in both orders. The repository additionally writes the pair in
// canonical order (smaller id first), which makes uq_user_pair the sole
// arbiter when both directions race to create the same match.
type Match struct {
	MatchID   string      `gorm:"primaryKey;size:36"`
	User1ID   string      `gorm:"size:36;not null;uniqueIndex:uq_user_pair,priority:1;uniqueIndex:uq_user_pair_reversed,priority:2"`
	User2ID   string      `gorm:"size:36;not null;uniqueIndex:uq_user_pair,priority:2;uniqueIndex:uq_user_pair_reversed,priority:1"`
	Status    MatchStatus `gorm:"size:8;not null;default:new"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	return nil
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.LikeID == "" {
		l.LikeID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = LikeStatusNew
	}
	return nil
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.MatchID == "" {
		m.MatchID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MatchStatusNew
	}
	return nil
}
