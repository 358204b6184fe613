package explore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oggyb/h1bee-match/internal/app"
	"github.com/oggyb/h1bee-match/internal/db"
	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	"github.com/oggyb/h1bee-match/internal/repository"
	"github.com/oggyb/h1bee-match/internal/utils/pagination"
)

// LikerStore is the swipe read side of the likes inbox.
type LikerStore interface {
	GetLikers(ctx context.Context, recipientID string, paginationToken *string, limit int) ([]db.Swipe, *string, error)
	GetNewLikers(ctx context.Context, recipientID string, paginationToken *string, limit int) ([]db.Swipe, *string, error)
	CountLikers(ctx context.Context, recipientID string) (int64, error)
}

// ProfileStore resolves liker profiles in one round trip.
type ProfileStore interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*db.User, error)
}

// CountCache is the cache-first side of CountLikedYou. UpdateLikeCount only
// writes when the version read before the recount is still current.
type CountCache interface {
	GetLikeCount(ctx context.Context, userID string) (int64, bool, error)
	LikeCountVersion(ctx context.Context, userID string) (int64, error)
	UpdateLikeCount(ctx context.Context, userID string, count, version int64) (bool, error)
}

// Liker is one entry of the likes inbox.
type Liker struct {
	UserID  string         `json:"userId"`
	Name    string         `json:"name"`
	Photo   string         `json:"photo"`
	Action  db.SwipeAction `json:"action"`
	LikedAt time.Time      `json:"likedAt"`
}

// LikersPage is a page of likers plus the token for the next one.
type LikersPage struct {
	Likers              []Liker `json:"likers"`
	NextPaginationToken *string `json:"nextPaginationToken"`
}

// Service implements the likes inbox on top of the swipe store and the
// Redis like counters.
type Service struct {
	likers   LikerStore
	profiles ProfileStore
	counts   CountCache
	pageSize int
	logger   *slog.Logger
}

func New(likers LikerStore, profiles ProfileStore, counts CountCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		likers:   likers,
		profiles: profiles,
		counts:   counts,
		pageSize: pagination.DefaultPageSize,
		logger:   logger,
	}
}

// NewExploreService creates the likes inbox with dependencies from AppContext:
//   - DB connection (via SwipeRepository and UserRepository)
//   - RedisCache for counters, when configured
func NewExploreService(appCtx *app.AppContext) *Service {
	store := repository.NewStore(appCtx.DB)
	var counts CountCache
	if appCtx.RedisCache != nil {
		counts = appCtx.RedisCache
	}
	return New(store.Swipes, store.Users, counts, appCtx.Logger)
}

// ListLikedYou returns users who liked or super liked the recipient.
//
// Behavior:
//   - Excludes users that the recipient explicitly passed.
//   - Newest first, cursor-based pagination with paginationToken.
//   - Likers whose profile is gone are skipped.
//
// Example:
//
//	svc.ListLikedYou(ctx, "u42", nil)
func (s *Service) ListLikedYou(ctx context.Context, recipientID string, paginationToken *string) (*LikersPage, error) {
	s.logger.Debug("ListLikedYou called", "recipient", recipientID, "token", paginationToken != nil)

	swipes, nextToken, err := s.likers.GetLikers(ctx, recipientID, paginationToken, s.pageSize)
	if err != nil {
		return nil, s.mapListErr("GetLikers", err)
	}
	return s.buildPage(ctx, swipes, nextToken)
}

// ListNewLikedYou returns likers the recipient has not answered yet.
//
// Behavior:
//   - Same base set as ListLikedYou.
//   - Drops everyone the recipient already swiped on, so matches and passes
//     never show up here.
func (s *Service) ListNewLikedYou(ctx context.Context, recipientID string, paginationToken *string) (*LikersPage, error) {
	s.logger.Debug("ListNewLikedYou called", "recipient", recipientID)

	swipes, nextToken, err := s.likers.GetNewLikers(ctx, recipientID, paginationToken, s.pageSize)
	if err != nil {
		return nil, s.mapListErr("GetNewLikers", err)
	}
	return s.buildPage(ctx, swipes, nextToken)
}

// CountLikedYou returns how many users liked the recipient.
// Cache-first strategy:
//  1. Reads likes:count:<id> from Redis, refreshing its TTL.
//  2. On a miss, notes the counter version and counts in the DB.
//  3. Stores the DB count with a 1h TTL, unless a swipe or unmatch
//     invalidated the counter in the meantime.
//
// Redis errors fall back to the DB and skip the write-back.
func (s *Service) CountLikedYou(ctx context.Context, recipientID string) (int64, error) {
	writeBack := s.counts != nil
	var version int64

	if s.counts != nil {
		n, ok, err := s.counts.GetLikeCount(ctx, recipientID)
		if err != nil {
			s.logger.Warn("like count cache read failed", "recipient", recipientID, "err", err)
		} else if ok {
			return n, nil
		}

		version, err = s.counts.LikeCountVersion(ctx, recipientID)
		if err != nil {
			s.logger.Warn("like count version read failed", "recipient", recipientID, "err", err)
			writeBack = false
		}
	}

	count, err := s.likers.CountLikers(ctx, recipientID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	if writeBack {
		stored, err := s.counts.UpdateLikeCount(ctx, recipientID, count, version)
		if err != nil {
			s.logger.Warn("like count cache write failed", "recipient", recipientID, "err", err)
		} else if !stored {
			s.logger.Debug("like count changed during recount, not cached", "recipient", recipientID)
		}
	}
	return count, nil
}

func (s *Service) buildPage(ctx context.Context, swipes []db.Swipe, nextToken *string) (*LikersPage, error) {
	ids := make([]string, 0, len(swipes))
	for _, sw := range swipes {
		ids = append(ids, sw.FromUserID)
	}

	users, err := s.profiles.FindByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	page := &LikersPage{Likers: make([]Liker, 0, len(swipes)), NextPaginationToken: nextToken}
	for _, sw := range swipes {
		u, ok := users[sw.FromUserID]
		if !ok {
			continue
		}
		page.Likers = append(page.Likers, Liker{
			UserID:  u.ID,
			Name:    u.FullName(),
			Photo:   u.FirstPhoto(),
			Action:  sw.Action,
			LikedAt: sw.CreatedAt,
		})
	}
	return page, nil
}

func (s *Service) mapListErr(op string, err error) error {
	if errors.Is(err, pagination.ErrInvalidToken) {
		return svcErr.InvalidArgument("invalid pagination token")
	}
	s.logger.Error(op+" failed", "err", err)
	return svcErr.Map(err)
}
