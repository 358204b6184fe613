package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/h1bee-match/internal/db"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(database *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

// CreateForMatch creates the match conversation and one participant per user,
// each with an unread count of zero.
func (r *ConversationRepository) CreateForMatch(ctx context.Context, matchID string, userIDs ...string) (*db.Conversation, error) {
	conv := db.Conversation{MatchID: matchID}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}

	parts := make([]db.ConversationParticipant, 0, len(userIDs))
	for _, id := range userIDs {
		parts = append(parts, db.ConversationParticipant{ConversationID: conv.ID, UserID: id})
	}
	if len(parts) > 0 {
		if err := r.db.WithContext(ctx).Create(&parts).Error; err != nil {
			return nil, err
		}
	}
	return &conv, nil
}

// FindByMatch returns gorm.ErrRecordNotFound when the match has no conversation.
func (r *ConversationRepository) FindByMatch(ctx context.Context, matchID string) (*db.Conversation, error) {
	var c db.Conversation
	if err := r.db.WithContext(ctx).Where("match_id = ?", matchID).Take(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteByMatch removes the conversation of matchID with its participants and
// messages. A match without a conversation is not an error.
func (r *ConversationRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	conv, err := r.FindByMatch(ctx, matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	tx := r.db.WithContext(ctx)
	if err := tx.Where("conversation_id = ?", conv.ID).Delete(&db.Message{}).Error; err != nil {
		return err
	}
	if err := tx.Where("conversation_id = ?", conv.ID).Delete(&db.ConversationParticipant{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", conv.ID).Delete(&db.Conversation{}).Error
}

// MarkRead resets userID's unread counter in the conversation.
// Returns gorm.ErrRecordNotFound when userID is not a participant.
func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&db.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]any{"unread_count": 0, "last_read_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
