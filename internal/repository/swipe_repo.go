package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/h1bee-match/internal/db"
	"github.com/oggyb/h1bee-match/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to likes/passes between users.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Create inserts a swipe made by from -> to.
//
// Behavior:
//   - Swipes are immutable: a second swipe on the same ordered pair fails on
//     the composite primary key (surfaced as a duplicate-key error).
//
// Example:
//
//	repo.Create(ctx, "u1", "u2", db.ActionLike) // u1 liked u2
func (r *SwipeRepository) Create(ctx context.Context, from, to string, action db.SwipeAction) (*db.Swipe, error) {
	s := db.Swipe{
		FromUserID: from,
		ToUserID:   to,
		Action:     action,
	}
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Exists reports whether from already swiped on to, whatever the action.
func (r *SwipeRepository) Exists(ctx context.Context, from, to string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("from_user_id = ? AND to_user_id = ?", from, to).
		Count(&count).Error
	return count > 0, err
}

// HasLiked checks whether from has a positive (LIKE or SUPER_LIKE) swipe on to.
//
// Example:
//
//	repo.HasLiked(ctx, "u2", "u1") // -> true if u2 liked u1
func (r *SwipeRepository) HasLiked(ctx context.Context, from, to string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("from_user_id = ? AND to_user_id = ? AND action IN ?", from, to, db.PositiveActions).
		Count(&count).Error
	return count > 0, err
}

// DeletePair removes the swipes between a and b in both directions.
func (r *SwipeRepository) DeletePair(ctx context.Context, a, b string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		Delete(&db.Swipe{})
	return res.RowsAffected, res.Error
}

// GetLikers returns the positive swipes received by recipientID.
//
// Behavior:
//   - Only swipes where to_user_id = X and action is LIKE/SUPER_LIKE are returned.
//   - Excludes users that the recipient explicitly passed.
//   - Ordered by created_at DESC, from_user_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, "u42", nil, 20) // first 20 people who liked u42
func (r *SwipeRepository) GetLikers(
	ctx context.Context,
	recipientID string,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	query := r.likersQuery(ctx, recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.from_user_id = ?
				  AND s2.to_user_id = s.from_user_id
				  AND s2.action = ?
			)`, recipientID, db.ActionPass)

	return r.page(query, paginationToken, limit)
}

// GetNewLikers returns positive swipes received by recipientID that the
// recipient has not answered yet.
//
// Behavior:
//   - Same base set as GetLikers.
//   - Excludes every user the recipient already swiped on (like or pass),
//     so mutual likes and passes both drop out.
//   - Supports cursor-based pagination.
func (r *SwipeRepository) GetNewLikers(
	ctx context.Context,
	recipientID string,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	answered := r.db.Session(&gorm.Session{NewDB: true}).
		Table("swipes s2").
		Select("1").
		Where("s2.from_user_id = s.to_user_id AND s2.to_user_id = s.from_user_id")

	query := r.likersQuery(ctx, recipientID).
		Where("NOT EXISTS (?)", answered)

	return r.page(query, paginationToken, limit)
}

// CountLikers returns how many users liked the given recipient.
//
// Behavior:
//   - Same set as GetLikers, without pagination.
//   - Used in conjunction with Redis cache (DB is fallback).
func (r *SwipeRepository) CountLikers(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.likersQuery(ctx, recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.from_user_id = ?
				  AND s2.to_user_id = s.from_user_id
				  AND s2.action = ?
			)`, recipientID, db.ActionPass).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SwipeRepository) likersQuery(ctx context.Context, recipientID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.to_user_id = ? AND s.action IN ?", recipientID, db.PositiveActions)
}

// page applies the keyset cursor, fetches limit+1 rows and builds the next token.
func (r *SwipeRepository) page(query *gorm.DB, paginationToken *string, limit int) ([]db.Swipe, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}
	limit = pagination.ClampLimit(limit)

	if !cursor.IsZero() {
		ts := cursor.CreatedAt()
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.from_user_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	var swipes []db.Swipe
	err = query.
		Select("s.from_user_id, s.to_user_id, s.action, s.created_at").
		Order("s.created_at DESC, s.from_user_id DESC").
		Limit(limit + 1).
		Find(&swipes).Error
	if err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.FromUserID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
