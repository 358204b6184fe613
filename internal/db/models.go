package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale      Gender = "MALE"
	GenderFemale    Gender = "FEMALE"
	GenderNonBinary Gender = "NON_BINARY"
)

type Orientation string

const (
	OrientationMen      Orientation = "MEN"
	OrientationWomen    Orientation = "WOMEN"
	OrientationEveryone Orientation = "EVERYONE"
)

type SwipeAction string

const (
	ActionLike      SwipeAction = "LIKE"
	ActionPass      SwipeAction = "PASS"
	ActionSuperLike SwipeAction = "SUPER_LIKE"
)

// Positive reports whether the action counts towards a match.
func (a SwipeAction) Positive() bool {
	return a == ActionLike || a == ActionSuperLike
}

// Valid reports whether a is one of the three known actions. Matching is exact.
func (a SwipeAction) Valid() bool {
	switch a {
	case ActionLike, ActionPass, ActionSuperLike:
		return true
	}
	return false
}

// PositiveActions lists the actions that count as interest.
var PositiveActions = []SwipeAction{ActionLike, ActionSuperLike}

// User is a member profile. Only the fields the matching core reads or
// projects are modelled here; auth, uploads and presence own the rest.
type User struct {
	ID               string                      `gorm:"primaryKey;size:36"`
	Email            string                      `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash     string                      `gorm:"size:255;not null"`
	FirstName        string                      `gorm:"size:64;not null"`
	LastName         string                      `gorm:"size:64;not null"`
	Birthday         time.Time                   `gorm:"not null"`
	Gender           Gender                      `gorm:"size:16;not null;index:idx_users_discovery,priority:2"`
	Orientation      Orientation                 `gorm:"size:16;not null;index:idx_users_discovery,priority:3"`
	MinAge           int                         `gorm:"not null;default:18"`
	MaxAge           int                         `gorm:"not null;default:99"`
	Nationality      string                      `gorm:"size:64"`
	Location         string                      `gorm:"size:128"`
	Bio              string                      `gorm:"type:text"`
	CulturalJourney  string                      `gorm:"type:text"`
	Photos           datatypes.JSONSlice[string] `gorm:"type:json"`
	Interests        datatypes.JSONSlice[string] `gorm:"type:json"`
	Languages        datatypes.JSONSlice[string] `gorm:"type:json"`
	ProfileCompleted bool                        `gorm:"not null;default:false;index:idx_users_discovery,priority:1"`
	IsOnline         bool                        `gorm:"not null;default:false"`
	LastSeen         *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// FullName is "first last".
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// FirstPhoto returns the primary photo or "".
func (u *User) FirstPhoto() string {
	if len(u.Photos) == 0 {
		return ""
	}
	return u.Photos[0]
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Swipe is a single, immutable reaction of one user to another.
//
// Composite PK: (FromUserID, ToUserID)
//   - At most one swipe per ordered pair; a second insert fails with a
//     duplicate-key error.
//
// Indexes:
//   - idx_swipes_to_action_created(to_user_id, action, created_at DESC, from_user_id)
//     Serves the reciprocal lookup and the "who liked me" inbox with pagination.
type Swipe struct {
	FromUserID string      `gorm:"primaryKey;size:36"`
	ToUserID   string      `gorm:"primaryKey;size:36;index:idx_swipes_to_action_created,priority:1"`
	Action     SwipeAction `gorm:"size:16;not null;index:idx_swipes_to_action_created,priority:2"`
	CreatedAt  time.Time   `gorm:"autoCreateTime;index:idx_swipes_to_action_created,priority:3,sort:desc"`
}

// Match links two users that liked each other.
//
// PairKey is "lo:hi" of the two ids and carries a unique index, so the
// storage layer admits at most one match per unordered pair no matter who
// swiped last.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36"`
	User1ID   string    `gorm:"size:36;not null;index"`
	User2ID   string    `gorm:"size:36;not null;index"`
	PairKey   string    `gorm:"size:80;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (m *Match) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.PairKey == "" {
		m.PairKey = PairKey(m.User1ID, m.User2ID)
	}
	return nil
}

// Involves reports whether userID is one of the two participants.
func (m *Match) Involves(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// PairKey orders two ids so (a,b) and (b,a) produce the same key.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36"`
	MatchID   string    `gorm:"size:36;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type ConversationParticipant struct {
	ID             string `gorm:"primaryKey;size:36"`
	ConversationID string `gorm:"size:36;not null;uniqueIndex:idx_participant_conv_user,priority:1"`
	UserID         string `gorm:"size:36;not null;uniqueIndex:idx_participant_conv_user,priority:2;index"`
	UnreadCount    int    `gorm:"not null;default:0"`
	LastReadAt     *time.Time
}

func (p *ConversationParticipant) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Message is owned by the messaging collaborator; the matching core only
// reads the latest one per conversation and deletes them on unmatch.
type Message struct {
	ID             string    `gorm:"primaryKey;size:36"`
	ConversationID string    `gorm:"size:36;not null;index:idx_messages_conv_created,priority:1"`
	SenderID       string    `gorm:"size:36;not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_messages_conv_created,priority:2"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AllModels is the migration set.
func AllModels() []any {
	return []any{
		&User{},
		&Swipe{},
		&Match{},
		&Conversation{},
		&ConversationParticipant{},
		&Message{},
	}
}
