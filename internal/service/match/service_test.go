package match_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/h1bee-match/internal/db"
	"github.com/oggyb/h1bee-match/internal/db/dbtest"
	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	"github.com/oggyb/h1bee-match/internal/logger"
	"github.com/oggyb/h1bee-match/internal/mocks"
	"github.com/oggyb/h1bee-match/internal/notify"
	"github.com/oggyb/h1bee-match/internal/repository"
	"github.com/oggyb/h1bee-match/internal/service/discovery"
	"github.com/oggyb/h1bee-match/internal/service/match"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *match.Service
	gdb      *gorm.DB
	notifier *mocks.NotifierMock
}

// setupService wires a match Service over an in-memory SQLite DB with a mock
// notifier. Users "john" (MALE/WOMEN) and "sofia" (FEMALE/MEN) exist.
func setupService(t *testing.T) *fixture {
	t.Helper()

	gdb := dbtest.New(t)
	summaries, err := repository.NewMatchSummaryRepository(gdb)
	require.NoError(t, err)

	notifier := new(mocks.NotifierMock)
	svc := match.New(match.Dependencies{
		Store:    repository.NewStore(gdb),
		Matches:  summaries,
		Notifier: notifier,
		Now:      func() time.Time { return fixedNow },
		Logger:   logger.Discard(),
	})

	dbtest.CreateUser(t, gdb, "john", dbtest.WithGender(db.GenderMale, db.OrientationWomen))
	dbtest.CreateUser(t, gdb, "sofia", dbtest.WithGender(db.GenderFemale, db.OrientationMen))

	return &fixture{svc: svc, gdb: gdb, notifier: notifier}
}

func countRows(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func TestSwipe_Validation(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	cases := []struct {
		name   string
		target string
		action db.SwipeAction
	}{
		{"unknown action", "sofia", "MAYBE"},
		{"lowercase action", "sofia", "like"},
		{"missing target", "", db.ActionLike},
		{"self swipe", "john", db.ActionLike},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Swipe(ctx, "john", tc.target, tc.action)
			require.Error(t, err)
			assert.True(t, svcErr.Is(err, svcErr.KindValidation))
		})
	}
	assert.Zero(t, countRows(t, f.gdb, &db.Swipe{}))
}

func TestSwipe_UnknownTarget(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.Swipe(context.Background(), "john", "ghost", db.ActionLike)
	require.Error(t, err)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
	assert.Zero(t, countRows(t, f.gdb, &db.Swipe{}))
}

func TestSwipe_OneWayLikeDoesNotMatch(t *testing.T) {
	f := setupService(t)

	out, err := f.svc.Swipe(context.Background(), "john", "sofia", db.ActionLike)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.False(t, out.IsMatch)
	assert.Nil(t, out.MatchID)
	assert.Equal(t, db.ActionLike, out.Action)

	assert.Zero(t, countRows(t, f.gdb, &db.Match{}))
	f.notifier.AssertNotCalled(t, "NotifyMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestSwipe_SecondSwipeIsConflict(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	_, err := f.svc.Swipe(ctx, "john", "sofia", db.ActionPass)
	require.NoError(t, err)

	// any action counts, a PASS cannot be turned into a LIKE
	_, err = f.svc.Swipe(ctx, "john", "sofia", db.ActionLike)
	require.Error(t, err)
	assert.True(t, svcErr.Is(err, svcErr.KindConflict))

	var s db.Swipe
	require.NoError(t, f.gdb.First(&s, "from_user_id = ? AND to_user_id = ?", "john", "sofia").Error)
	assert.Equal(t, db.ActionPass, s.Action)
}

func TestSwipe_ReciprocalLikeCreatesMatch(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	var got notify.MatchPayload
	f.notifier.On("NotifyMatch", mock.Anything, "john", mock.AnythingOfType("notify.MatchPayload")).
		Run(func(args mock.Arguments) { got = args.Get(2).(notify.MatchPayload) }).
		Return(nil).Once()

	_, err := f.svc.Swipe(ctx, "john", "sofia", db.ActionLike)
	require.NoError(t, err)

	out, err := f.svc.Swipe(ctx, "sofia", "john", db.ActionSuperLike)
	require.NoError(t, err)
	require.True(t, out.IsMatch)
	require.NotNil(t, out.MatchID)
	assert.Equal(t, db.ActionSuperLike, out.Action)

	var m db.Match
	require.NoError(t, f.gdb.First(&m, "id = ?", *out.MatchID).Error)
	assert.Equal(t, "john:sofia", m.PairKey)

	var conv db.Conversation
	require.NoError(t, f.gdb.First(&conv, "match_id = ?", m.ID).Error)
	assert.Equal(t, int64(2), countRows(t, f.gdb, &db.ConversationParticipant{}))

	// target gets the actor's summary
	f.notifier.AssertExpectations(t)
	assert.Equal(t, m.ID, got.MatchID)
	assert.Equal(t, conv.ID, got.ConversationID)
	assert.Equal(t, "sofia", got.User.ID)
	assert.Equal(t, "Sofia Test", got.User.Name)
	assert.Equal(t, "https://img.example.com/sofia.jpg", got.User.Photo)
	assert.Equal(t, "john", got.Recipient.ID)
}

func TestSwipe_PassThenLikeNeverMatches(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	_, err := f.svc.Swipe(ctx, "john", "sofia", db.ActionPass)
	require.NoError(t, err)

	out, err := f.svc.Swipe(ctx, "sofia", "john", db.ActionLike)
	require.NoError(t, err)
	assert.False(t, out.IsMatch)
	assert.Zero(t, countRows(t, f.gdb, &db.Match{}))
}

func TestSwipe_NotificationFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	f.notifier.On("NotifyMatch", mock.Anything, "sofia", mock.Anything).
		Return(errors.New("broker down")).Once()

	_, err := f.svc.Swipe(ctx, "sofia", "john", db.ActionLike)
	require.NoError(t, err)

	out, err := f.svc.Swipe(ctx, "john", "sofia", db.ActionLike)
	require.NoError(t, err)
	assert.True(t, out.IsMatch)
	assert.Equal(t, int64(1), countRows(t, f.gdb, &db.Match{}))
	f.notifier.AssertExpectations(t)
}

func TestSwipe_ReciprocalLikeReusesLeftoverMatch(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	// a match row that outlived its swipes
	leftover := db.Match{User1ID: "sofia", User2ID: "john"}
	require.NoError(t, f.gdb.Create(&leftover).Error)
	require.NoError(t, f.gdb.Create(&db.Swipe{FromUserID: "sofia", ToUserID: "john", Action: db.ActionLike}).Error)

	out, err := f.svc.Swipe(ctx, "john", "sofia", db.ActionLike)
	require.NoError(t, err)
	assert.True(t, out.IsMatch)
	require.NotNil(t, out.MatchID)
	assert.Equal(t, leftover.ID, *out.MatchID)

	assert.Equal(t, int64(1), countRows(t, f.gdb, &db.Match{}))
	assert.Equal(t, int64(2), countRows(t, f.gdb, &db.Swipe{}))
	assert.Zero(t, countRows(t, f.gdb, &db.Conversation{}))
	f.notifier.AssertNotCalled(t, "NotifyMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestSwipe_InvalidatesLikeCounts(t *testing.T) {
	gdb := dbtest.New(t)
	dbtest.CreateUser(t, gdb, "john")
	dbtest.CreateUser(t, gdb, "sofia", dbtest.WithGender(db.GenderFemale, db.OrientationMen))

	likeCache := new(mocks.LikeCountCacheMock)
	likeCache.On("InvalidateLikeCount", mock.Anything, []string{"john", "sofia"}).Return(errors.New("redis gone")).Once()

	svc := match.New(match.Dependencies{
		Store:     repository.NewStore(gdb),
		LikeCache: likeCache,
		Logger:    logger.Discard(),
	})

	_, err := svc.Swipe(context.Background(), "john", "sofia", db.ActionLike)
	require.NoError(t, err)
	likeCache.AssertExpectations(t)
}

// The SQLite pool has one connection, so these concurrent swipes run one
// transaction at a time. Row-lock contention in LockPair is covered by
// lock_integration_test.go on MySQL or Postgres.
func TestSwipe_ConcurrentReciprocalLikesMatchOnce(t *testing.T) {
	f := setupService(t)
	f.notifier.On("NotifyMatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []*match.SwipeOutcome
	)
	start := make(chan struct{})
	for _, pair := range [][2]string{{"john", "sofia"}, {"sofia", "john"}} {
		wg.Add(1)
		go func(actor, target string) {
			defer wg.Done()
			<-start
			out, err := f.svc.Swipe(context.Background(), actor, target, db.ActionLike)
			assert.NoError(t, err)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
		}(pair[0], pair[1])
	}
	close(start)
	wg.Wait()

	matched := 0
	for _, out := range outcomes {
		if out != nil && out.IsMatch {
			matched++
		}
	}
	assert.Equal(t, 1, matched)
	assert.Equal(t, int64(1), countRows(t, f.gdb, &db.Match{}))
	assert.Equal(t, int64(1), countRows(t, f.gdb, &db.Conversation{}))
	f.notifier.AssertNumberOfCalls(t, "NotifyMatch", 1)
}

func TestSwipe_ConcurrentDuplicatesSucceedOnce(t *testing.T) {
	f := setupService(t)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Swipe(context.Background(), "john", "sofia", db.ActionLike)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case svcErr.Is(err, svcErr.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, int64(1), countRows(t, f.gdb, &db.Swipe{}))
}

// createMatch swipes both ways and returns the new match id.
func createMatch(t *testing.T, f *fixture) string {
	t.Helper()
	ctx := context.Background()
	f.notifier.On("NotifyMatch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	_, err := f.svc.Swipe(ctx, "john", "sofia", db.ActionLike)
	require.NoError(t, err)
	out, err := f.svc.Swipe(ctx, "sofia", "john", db.ActionLike)
	require.NoError(t, err)
	require.True(t, out.IsMatch)
	return *out.MatchID
}

func TestUnmatch_RemovesEverything(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	matchID := createMatch(t, f)

	var conv db.Conversation
	require.NoError(t, f.gdb.First(&conv, "match_id = ?", matchID).Error)
	require.NoError(t, f.gdb.Create(&db.Message{ConversationID: conv.ID, SenderID: "john", Content: "hey"}).Error)

	require.NoError(t, f.svc.Unmatch(ctx, "sofia", matchID))

	assert.Zero(t, countRows(t, f.gdb, &db.Match{}))
	assert.Zero(t, countRows(t, f.gdb, &db.Swipe{}))
	assert.Zero(t, countRows(t, f.gdb, &db.Conversation{}))
	assert.Zero(t, countRows(t, f.gdb, &db.ConversationParticipant{}))
	assert.Zero(t, countRows(t, f.gdb, &db.Message{}))

	err := f.svc.Unmatch(ctx, "sofia", matchID)
	require.Error(t, err)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestUnmatch_Forbidden(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	dbtest.CreateUser(t, f.gdb, "kenji")
	matchID := createMatch(t, f)

	err := f.svc.Unmatch(ctx, "kenji", matchID)
	require.Error(t, err)
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))
	assert.Equal(t, int64(1), countRows(t, f.gdb, &db.Match{}))
}

func TestUnmatch_UnknownMatch(t *testing.T) {
	f := setupService(t)

	err := f.svc.Unmatch(context.Background(), "john", "nope")
	require.Error(t, err)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestUnmatch_PairIsDiscoverableAgain(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	matchID := createMatch(t, f)

	store := repository.NewStore(f.gdb)
	disc := discovery.New(discovery.Dependencies{
		Users:    store.Users,
		Shuffler: discovery.NoShuffle,
		Logger:   logger.Discard(),
	})

	deck, err := disc.Discover(ctx, "john")
	require.NoError(t, err)
	assert.Empty(t, deck)

	require.NoError(t, f.svc.Unmatch(ctx, "john", matchID))

	deck, err = disc.Discover(ctx, "john")
	require.NoError(t, err)
	require.Len(t, deck, 1)
	assert.Equal(t, "sofia", deck[0].ID)

	deck, err = disc.Discover(ctx, "sofia")
	require.NoError(t, err)
	require.Len(t, deck, 1)
	assert.Equal(t, "john", deck[0].ID)
}

func TestListMatches_Summaries(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	matchID := createMatch(t, f)

	list, err := f.svc.ListMatches(ctx, "john")
	require.NoError(t, err)
	require.Len(t, list, 1)

	sum := list[0]
	assert.Equal(t, matchID, sum.ID)
	assert.Equal(t, matchID, sum.MatchID)
	assert.Equal(t, "sofia", sum.OtherUserID)
	assert.Equal(t, "Sofia Test", sum.Name)
	assert.Equal(t, "https://img.example.com/sofia.jpg", sum.Photo)
	assert.Equal(t, "Brazilian", sum.Nationality)
	assert.Equal(t, match.DefaultLastMessage, sum.LastMessage)
	assert.Equal(t, 0, sum.UnreadCount)
	require.NotNil(t, sum.ConversationID)

	at := time.Now().UTC().Add(time.Minute).Truncate(time.Millisecond)
	require.NoError(t, f.gdb.Create(&db.Message{
		ConversationID: *sum.ConversationID,
		SenderID:       "sofia",
		Content:        "Olá!",
		CreatedAt:      at,
	}).Error)

	list, err = f.svc.ListMatches(ctx, "john")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Olá!", list[0].LastMessage)
	assert.True(t, at.Equal(list[0].LastMessageTime))

	empty, err := f.svc.ListMatches(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	dbtest.CreateUser(t, f.gdb, "kenji")
	matchID := createMatch(t, f)

	var conv db.Conversation
	require.NoError(t, f.gdb.First(&conv, "match_id = ?", matchID).Error)
	require.NoError(t, f.gdb.Model(&db.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conv.ID, "john").
		Update("unread_count", 3).Error)

	require.NoError(t, f.svc.MarkRead(ctx, "john", conv.ID))

	var p db.ConversationParticipant
	require.NoError(t, f.gdb.First(&p, "conversation_id = ? AND user_id = ?", conv.ID, "john").Error)
	assert.Equal(t, 0, p.UnreadCount)
	require.NotNil(t, p.LastReadAt)
	assert.True(t, fixedNow.Equal(*p.LastReadAt))

	err := f.svc.MarkRead(ctx, "kenji", conv.ID)
	require.Error(t, err)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}
