package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/oggyb/h1bee-match/internal/app"
	"github.com/oggyb/h1bee-match/internal/db"
	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	"github.com/oggyb/h1bee-match/internal/notify"
	"github.com/oggyb/h1bee-match/internal/observability"
	"github.com/oggyb/h1bee-match/internal/repository"
)

const (
	// DefaultNotifyTimeout bounds the post-commit notification.
	DefaultNotifyTimeout = 2 * time.Second

	// DefaultLastMessage is shown for a conversation without messages.
	DefaultLastMessage = "Say hi! 👋"

	// UnmatchMessage is returned to the client after a successful unmatch.
	UnmatchMessage = "Unmatched successfully. You may see this person again in discover."

	defaultNationality = "American"
)

// MatchLister is the read model behind the match list.
type MatchLister interface {
	ListForUser(ctx context.Context, userID string) ([]repository.MatchSummaryRow, error)
}

// LikeCountCache drops cached like counters after a swipe or unmatch.
type LikeCountCache interface {
	InvalidateLikeCount(ctx context.Context, userIDs ...string) error
}

// SwipeOutcome is the result of a swipe. MatchID is nil unless IsMatch.
type SwipeOutcome struct {
	Success bool           `json:"success"`
	IsMatch bool           `json:"isMatch"`
	MatchID *string        `json:"matchId"`
	Action  db.SwipeAction `json:"action"`
}

// MatchSummary is one entry of GET /matches.
type MatchSummary struct {
	ID              string    `json:"id"`
	MatchID         string    `json:"matchId"`
	OtherUserID     string    `json:"otherUserId"`
	Name            string    `json:"name"`
	Photo           string    `json:"photo"`
	Nationality     string    `json:"nationality"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	UnreadCount     int       `json:"unreadCount"`
	IsOnline        bool      `json:"isOnline"`
	ConversationID  *string   `json:"conversationId"`
}

type Dependencies struct {
	Store         *repository.Store
	Matches       MatchLister
	Notifier      notify.Notifier
	LikeCache     LikeCountCache
	NotifyTimeout time.Duration
	Now           func() time.Time
	Logger        *slog.Logger
}

// Service is the match lifecycle manager: swipes, matches and unmatches.
type Service struct {
	store         *repository.Store
	matches       MatchLister
	notifier      notify.Notifier
	likeCache     LikeCountCache
	notifyTimeout time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

func New(deps Dependencies) *Service {
	s := &Service{
		store:         deps.Store,
		matches:       deps.Matches,
		notifier:      deps.Notifier,
		likeCache:     deps.LikeCache,
		notifyTimeout: deps.NotifyTimeout,
		now:           deps.Now,
		logger:        deps.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = notify.NewNoopNotifier(s.logger, "not configured")
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = DefaultNotifyTimeout
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// NewMatchService wires the service from AppContext.
func NewMatchService(appCtx *app.AppContext) (*Service, error) {
	summaries, err := repository.NewMatchSummaryRepository(appCtx.DB)
	if err != nil {
		return nil, fmt.Errorf("match summaries: %w", err)
	}

	deps := Dependencies{
		Store:         repository.NewStore(appCtx.DB),
		Matches:       summaries,
		Notifier:      appCtx.Notifier,
		NotifyTimeout: appCtx.Config.Notify.Timeout,
		Now:           appCtx.Now,
		Logger:        appCtx.Logger,
	}
	if appCtx.RedisCache != nil {
		deps.LikeCache = appCtx.RedisCache
	}
	return New(deps), nil
}

// Swipe records actorID's reaction to targetID and creates a match when the
// reaction is positive and reciprocated.
//
// Behavior:
//   - action must be exactly LIKE, PASS or SUPER_LIKE.
//   - Self swipes and a missing toUserId are validation errors.
//   - NotFound when either user does not exist.
//   - Conflict when actor already swiped on target, whatever the action.
//   - Swipe, Match, Conversation and both Participants commit together.
//   - A reciprocated like on a pair that still has a match row reports that
//     match and creates nothing new.
//   - After commit, a new match notifies target. Notification failures are
//     logged and counted, never returned.
//
// Example:
//
//	svc.Swipe(ctx, "u1", "u2", db.ActionLike)
func (s *Service) Swipe(ctx context.Context, actorID, targetID string, action db.SwipeAction) (*SwipeOutcome, error) {
	ctx, span := observability.Tracer("match").Start(ctx, "match.Swipe")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", actorID),
		attribute.String("swipe.target", targetID),
		attribute.String("swipe.action", string(action)),
	)

	if !action.Valid() {
		return nil, svcErr.InvalidArgument("Invalid action")
	}
	if targetID == "" {
		return nil, svcErr.InvalidArgument("toUserId is required")
	}
	if actorID == targetID {
		return nil, svcErr.InvalidArgument("Cannot swipe on yourself")
	}

	var (
		actor, target *db.User
		created       *db.Match
		existing      *db.Match
		conv          *db.Conversation
	)

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		a, t, err := tx.Users.LockPair(ctx, actorID, targetID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("User not found")
		}
		if err != nil {
			return err
		}
		actor, target = a, t

		exists, err := tx.Swipes.Exists(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		if exists {
			return svcErr.AlreadyExists("Already swiped on this user")
		}

		if _, err := tx.Swipes.Create(ctx, actorID, targetID, action); err != nil {
			if svcErr.IsDuplicateKey(err) {
				return svcErr.AlreadyExists("Already swiped on this user")
			}
			return err
		}

		if !action.Positive() {
			return nil
		}

		reciprocated, err := tx.Swipes.HasLiked(ctx, targetID, actorID)
		if err != nil || !reciprocated {
			return err
		}

		prior, err := tx.Matches.FindByPair(ctx, actorID, targetID)
		if err == nil {
			existing = prior
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		m, err := tx.Matches.Create(ctx, actorID, targetID)
		if err != nil {
			if svcErr.IsDuplicateKey(err) {
				return svcErr.AlreadyExists("Match already exists")
			}
			return err
		}
		c, err := tx.Conversations.CreateForMatch(ctx, m.ID, actorID, targetID)
		if err != nil {
			return err
		}
		created, conv = m, c
		return nil
	})
	if err != nil {
		mapped := svcErr.Map(err)
		if svcErr.Is(mapped, svcErr.KindInternal) {
			span.SetStatus(codes.Error, err.Error())
			s.logger.Error("swipe failed", "actor", actorID, "target", targetID, "err", err)
		}
		return nil, mapped
	}

	observability.IncSwipe(string(action))
	s.invalidateLikeCounts(ctx, actorID, targetID)

	out := &SwipeOutcome{Success: true, Action: action}
	if created != nil {
		observability.IncMatchCreated()
		out.IsMatch = true
		out.MatchID = &created.ID
		span.SetAttributes(attribute.String("match.id", created.ID))

		s.notifyMatch(ctx, actor, target, created, conv)
	} else if existing != nil {
		out.IsMatch = true
		out.MatchID = &existing.ID
		span.SetAttributes(attribute.String("match.id", existing.ID))
		s.logger.Warn("swipe reused existing match", "match_id", existing.ID, "actor", actorID, "target", targetID)
	}

	s.logger.Debug("swipe recorded", "actor", actorID, "target", targetID, "action", action, "is_match", out.IsMatch)
	return out, nil
}

// notifyMatch tells target about the match. It never fails the caller.
func (s *Service) notifyMatch(ctx context.Context, actor, target *db.User, m *db.Match, conv *db.Conversation) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	payload := notify.MatchPayload{
		MatchID:        m.ID,
		ConversationID: conv.ID,
		User:           summarize(actor),
		Recipient:      summarize(target),
	}

	if err := s.notifier.NotifyMatch(nctx, target.ID, payload); err != nil {
		observability.IncNotifyFailure(notify.Mode(s.notifier))
		s.logger.Warn("match notification failed", "match_id", m.ID, "user_id", target.ID, "err", err)
	}
}

func summarize(u *db.User) notify.UserSummary {
	return notify.UserSummary{
		ID:    u.ID,
		Name:  u.FullName(),
		Photo: u.FirstPhoto(),
		Bio:   u.Bio,
	}
}

// Unmatch dissolves matchID on behalf of requesterID.
//
// Behavior:
//   - NotFound when the match does not exist (also on a repeated call).
//   - Forbidden when requesterID is not one of the two users.
//   - Deletes the match, both swipes, the conversation with its
//     participants and messages in one transaction, so the pair shows up
//     in each other's discovery again.
func (s *Service) Unmatch(ctx context.Context, requesterID, matchID string) error {
	ctx, span := observability.Tracer("match").Start(ctx, "match.Unmatch")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", requesterID), attribute.String("match.id", matchID))

	var pair *db.Match
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		m, err := tx.Matches.FindByID(ctx, matchID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("Match not found")
		}
		if err != nil {
			return err
		}
		if !m.Involves(requesterID) {
			return svcErr.Forbidden("Not authorized")
		}

		if err := tx.Matches.Delete(ctx, m.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return svcErr.NotFound("Match not found")
			}
			return err
		}
		if _, err := tx.Swipes.DeletePair(ctx, m.User1ID, m.User2ID); err != nil {
			return err
		}
		if err := tx.Conversations.DeleteByMatch(ctx, m.ID); err != nil {
			return err
		}
		pair = m
		return nil
	})
	if err != nil {
		mapped := svcErr.Map(err)
		if svcErr.Is(mapped, svcErr.KindInternal) {
			span.SetStatus(codes.Error, err.Error())
			s.logger.Error("unmatch failed", "match_id", matchID, "err", err)
		}
		return mapped
	}

	observability.IncUnmatch()
	s.invalidateLikeCounts(ctx, pair.User1ID, pair.User2ID)
	s.logger.Debug("unmatched", "match_id", matchID, "by", requesterID)
	return nil
}

// ListMatches returns userID's matches, newest first, with the last message
// preview and the caller's unread counter.
func (s *Service) ListMatches(ctx context.Context, userID string) ([]MatchSummary, error) {
	ctx, span := observability.Tracer("match").Start(ctx, "match.ListMatches")
	defer span.End()

	rows, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, svcErr.Map(err)
	}

	out := make([]MatchSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, toSummary(r))
	}
	return out, nil
}

func toSummary(r repository.MatchSummaryRow) MatchSummary {
	sum := MatchSummary{
		ID:              r.MatchID,
		MatchID:         r.MatchID,
		OtherUserID:     r.OtherUserID,
		Name:            r.FirstName + " " + r.LastName,
		Nationality:     r.Nationality.String,
		LastMessage:     DefaultLastMessage,
		LastMessageTime: r.MatchCreatedAt,
		UnreadCount:     int(r.UnreadCount.Int64),
		IsOnline:        r.IsOnline,
	}
	if photos := r.Photos(); len(photos) > 0 {
		sum.Photo = photos[0]
	}
	if sum.Nationality == "" {
		sum.Nationality = defaultNationality
	}
	if r.LastMessage.Valid && r.LastMessage.String != "" {
		sum.LastMessage = r.LastMessage.String
	}
	if r.LastMessageAt.Valid {
		sum.LastMessageTime = r.LastMessageAt.Time
	}
	if r.ConversationID.Valid {
		id := r.ConversationID.String
		sum.ConversationID = &id
	}
	return sum
}

// MarkRead resets userID's unread counter in conversationID.
// NotFound when userID does not take part in the conversation.
func (s *Service) MarkRead(ctx context.Context, userID, conversationID string) error {
	err := s.store.Conversations.MarkRead(ctx, conversationID, userID, s.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Conversation not found")
	}
	return svcErr.Map(err)
}

func (s *Service) invalidateLikeCounts(ctx context.Context, userIDs ...string) {
	if s.likeCache == nil {
		return
	}
	if err := s.likeCache.InvalidateLikeCount(ctx, userIDs...); err != nil {
		s.logger.Warn("like count invalidation failed", "users", userIDs, "err", err)
	}
}
