package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/h1bee-match/internal/db"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts a match between a and b. The pair key unique index turns a
// second match for the same pair into a duplicate-key error.
func (r *MatchRepository) Create(ctx context.Context, a, b string) (*db.Match, error) {
	m := db.Match{User1ID: a, User2ID: b, PairKey: db.PairKey(a, b)}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByID returns gorm.ErrRecordNotFound when the match does not exist.
func (r *MatchRepository) FindByID(ctx context.Context, id string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByPair looks up the match between a and b regardless of order.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).Where("pair_key = ?", db.PairKey(a, b)).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes the match row. Returns gorm.ErrRecordNotFound when nothing
// was deleted, so a concurrent unmatch loses cleanly.
func (r *MatchRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Match{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
