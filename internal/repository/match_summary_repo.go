package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// MatchSummaryRow is one line of a user's match list, already joined with
// the other participant, the caller's unread counter and the last message.
type MatchSummaryRow struct {
	MatchID        string         `db:"match_id"`
	MatchCreatedAt time.Time      `db:"match_created_at"`
	OtherUserID    string         `db:"other_user_id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	PhotosJSON     sql.NullString `db:"photos"`
	Nationality    sql.NullString `db:"nationality"`
	IsOnline       bool           `db:"is_online"`
	ConversationID sql.NullString `db:"conversation_id"`
	UnreadCount    sql.NullInt64  `db:"unread_count"`
	LastMessage    sql.NullString `db:"last_message"`
	LastMessageAt  sql.NullTime   `db:"last_message_at"`
}

// Photos decodes the JSON photo list. Broken or empty values yield nil.
func (r MatchSummaryRow) Photos() []string {
	if !r.PhotosJSON.Valid || r.PhotosJSON.String == "" {
		return nil
	}
	var photos []string
	if err := json.Unmarshal([]byte(r.PhotosJSON.String), &photos); err != nil {
		return nil
	}
	return photos
}

const matchSummaryQuery = `
SELECT
	m.id          AS match_id,
	m.created_at  AS match_created_at,
	u.id          AS other_user_id,
	u.first_name  AS first_name,
	u.last_name   AS last_name,
	u.photos      AS photos,
	u.nationality AS nationality,
	u.is_online   AS is_online,
	c.id          AS conversation_id,
	p.unread_count AS unread_count,
	lm.content    AS last_message,
	lm.created_at AS last_message_at
FROM matches m
JOIN users u
	ON u.id = CASE WHEN m.user1_id = ? THEN m.user2_id ELSE m.user1_id END
LEFT JOIN conversations c
	ON c.match_id = m.id
LEFT JOIN conversation_participants p
	ON p.conversation_id = c.id AND p.user_id = ?
LEFT JOIN messages lm
	ON lm.id = (
		SELECT m2.id FROM messages m2
		WHERE m2.conversation_id = c.id
		ORDER BY m2.created_at DESC, m2.id DESC
		LIMIT 1
	)
WHERE m.user1_id = ? OR m.user2_id = ?
ORDER BY m.created_at DESC, m.id DESC`

// MatchSummaryRepository serves the match list read model with hand-written
// SQL over the same connection pool gorm uses.
type MatchSummaryRepository struct {
	db *sqlx.DB
}

// NewMatchSummaryRepository wraps gorm's *sql.DB with sqlx, picking the
// bind style from the gorm dialect.
func NewMatchSummaryRepository(gdb *gorm.DB) (*MatchSummaryRepository, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return &MatchSummaryRepository{db: sqlx.NewDb(sqlDB, sqlxDriverName(gdb.Dialector.Name()))}, nil
}

// ListForUser returns userID's matches, newest first.
func (r *MatchSummaryRepository) ListForUser(ctx context.Context, userID string) ([]MatchSummaryRow, error) {
	rows := []MatchSummaryRow{}
	query := r.db.Rebind(matchSummaryQuery)
	if err := r.db.SelectContext(ctx, &rows, query, userID, userID, userID, userID); err != nil {
		return nil, fmt.Errorf("list match summaries: %w", err)
	}
	return rows, nil
}

func sqlxDriverName(dialect string) string {
	switch dialect {
	case "postgres":
		return "pgx"
	case "sqlite":
		return "sqlite3"
	default:
		return dialect
	}
}
