package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/h1bee-match/internal/db"
)

// GenderRule admits candidates of Gender (any gender when empty) whose
// orientation is one of Orientations.
type GenderRule struct {
	Gender       db.Gender
	Orientations []db.Orientation
}

// CandidateFilter describes a discovery query.
type CandidateFilter struct {
	RequesterID string
	Rules       []GenderRule
	Limit       int
}

// UserRepository reads profiles. The matching core never writes users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindByID returns gorm.ErrRecordNotFound when the user does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByIDs returns the users keyed by id. Missing ids are simply absent.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*db.User, error) {
	out := make(map[string]*db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// LockPair takes row locks on both users in ascending id order and returns
// them as (a, b) in argument order.
//
// Behavior:
//   - Must run inside a transaction.
//   - Ascending order keeps two swipes on the same pair from deadlocking.
//   - SQLite ignores the locking clause; its single writer gives the same
//     serialization.
//   - Returns gorm.ErrRecordNotFound if either user is missing.
func (r *UserRepository) LockPair(ctx context.Context, a, b string) (*db.User, *db.User, error) {
	ids := []string{a, b}
	sort.Strings(ids)

	locked := make(map[string]*db.User, 2)
	for _, id := range ids {
		var u db.User
		err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&u).Error
		if err != nil {
			return nil, nil, err
		}
		locked[id] = &u
	}
	return locked[a], locked[b], nil
}

// ListCandidates returns completed profiles that satisfy the filter.
//
// Behavior:
//   - Excludes the requester and everyone the requester already swiped on.
//     The exclusion is a subquery, so the bind count stays constant however
//     long the swipe history grows.
//   - A candidate must satisfy at least one GenderRule; no rules means no candidates.
//   - At most Limit rows, newest profiles first.
//
// Example:
//
//	repo.ListCandidates(ctx, CandidateFilter{RequesterID: "u1", Rules: rules, Limit: 50})
func (r *UserRepository) ListCandidates(ctx context.Context, f CandidateFilter) ([]db.User, error) {
	if len(f.Rules) == 0 {
		return []db.User{}, nil
	}

	base := r.db.Session(&gorm.Session{NewDB: true})

	var group *gorm.DB
	for _, rule := range f.Rules {
		cond := base.Where("orientation IN ?", rule.Orientations)
		if rule.Gender != "" {
			cond = cond.Where("gender = ?", rule.Gender)
		}
		if group == nil {
			group = base.Where(cond)
		} else {
			group = group.Or(cond)
		}
	}

	swiped := base.Model(&db.Swipe{}).
		Select("to_user_id").
		Where("from_user_id = ?", f.RequesterID)

	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("profile_completed = ?", true).
		Where("id <> ?", f.RequesterID).
		Where("id NOT IN (?)", swiped).
		Where(group)

	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var users []db.User
	if err := query.Order("created_at DESC, id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
