package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the gorm repositories bound to one connection or transaction.
type Store struct {
	db *gorm.DB

	Users         *UserRepository
	Swipes        *SwipeRepository
	Matches       *MatchRepository
	Conversations *ConversationRepository
}

// NewStore binds every repository to database.
func NewStore(database *gorm.DB) *Store {
	return &Store{
		db:            database,
		Users:         NewUserRepository(database),
		Swipes:        NewSwipeRepository(database),
		Matches:       NewMatchRepository(database),
		Conversations: NewConversationRepository(database),
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB { return s.db }

// WithTx runs fn inside a transaction. The Store passed to fn is bound to the
// transaction; fn must not touch the outer Store or it will run outside the tx.
// Returning an error rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
