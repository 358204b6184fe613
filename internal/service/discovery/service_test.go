package discovery_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/h1bee-match/internal/db"
	"github.com/oggyb/h1bee-match/internal/db/dbtest"
	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	"github.com/oggyb/h1bee-match/internal/logger"
	"github.com/oggyb/h1bee-match/internal/repository"
	"github.com/oggyb/h1bee-match/internal/service/discovery"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// setupService spins up an in-memory SQLite DB and wires a discovery
// Service with a frozen clock and no shuffling.
func setupService(t *testing.T, candidateCap int) (*discovery.Service, *gorm.DB) {
	t.Helper()

	gdb := dbtest.New(t)
	store := repository.NewStore(gdb)

	svc := discovery.New(discovery.Dependencies{
		Users:        store.Users,
		Shuffler:     discovery.NoShuffle,
		Now:          func() time.Time { return fixedNow },
		CandidateCap: candidateCap,
		Logger:       logger.Discard(),
	})
	return svc, gdb
}

func candidateIDs(cs []discovery.Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestDiscover_UnknownRequester(t *testing.T) {
	svc, _ := setupService(t, 0)

	_, err := svc.Discover(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestDiscover_StraightMaleSeesOnlyWomenWhoLikeMen(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t, 0)

	dbtest.CreateUser(t, gdb, "john", dbtest.WithGender(db.GenderMale, db.OrientationWomen))
	dbtest.CreateUser(t, gdb, "sofia", dbtest.WithGender(db.GenderFemale, db.OrientationMen))
	dbtest.CreateUser(t, gdb, "amara", dbtest.WithGender(db.GenderFemale, db.OrientationEveryone))
	dbtest.CreateUser(t, gdb, "lena", dbtest.WithGender(db.GenderFemale, db.OrientationWomen))
	dbtest.CreateUser(t, gdb, "kenji", dbtest.WithGender(db.GenderMale, db.OrientationWomen))
	dbtest.CreateUser(t, gdb, "alex", dbtest.WithGender(db.GenderNonBinary, db.OrientationEveryone))
	dbtest.CreateUser(t, gdb, "draft", dbtest.WithGender(db.GenderFemale, db.OrientationMen), dbtest.Incomplete())

	got, err := svc.Discover(ctx, "john")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sofia", "amara"}, candidateIDs(got))
}

func TestDiscover_ExcludesSwipedUsers(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t, 0)

	dbtest.CreateUser(t, gdb, "john", dbtest.WithGender(db.GenderMale, db.OrientationWomen))
	dbtest.CreateUser(t, gdb, "sofia", dbtest.WithGender(db.GenderFemale, db.OrientationMen))
	dbtest.CreateUser(t, gdb, "priya", dbtest.WithGender(db.GenderFemale, db.OrientationMen))
	dbtest.CreateUser(t, gdb, "maria", dbtest.WithGender(db.GenderFemale, db.OrientationMen))

	require.NoError(t, gdb.Create(&db.Swipe{FromUserID: "john", ToUserID: "sofia", Action: db.ActionLike}).Error)
	require.NoError(t, gdb.Create(&db.Swipe{FromUserID: "john", ToUserID: "priya", Action: db.ActionPass}).Error)
	// being swiped on does not hide anyone
	require.NoError(t, gdb.Create(&db.Swipe{FromUserID: "maria", ToUserID: "john", Action: db.ActionLike}).Error)

	got, err := svc.Discover(ctx, "john")
	require.NoError(t, err)
	assert.Equal(t, []string{"maria"}, candidateIDs(got))
}

func TestDiscover_AgeWindowBoundaries(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t, 0)

	dbtest.CreateUser(t, gdb, "john",
		dbtest.WithGender(db.GenderMale, db.OrientationWomen),
		dbtest.WithAgeWindow(25, 30),
	)

	at := func(age int) time.Time { return dbtest.Birthday(fixedNow, age) }

	// exactly minAge today
	dbtest.CreateUser(t, gdb, "min", dbtest.WithGender(db.GenderFemale, db.OrientationMen), dbtest.WithBirthday(at(25)))
	// turns 25 tomorrow, still 24
	dbtest.CreateUser(t, gdb, "young", dbtest.WithGender(db.GenderFemale, db.OrientationMen), dbtest.WithBirthday(at(25).AddDate(0, 0, 1)))
	// turned 30 today, maxAge is inclusive
	dbtest.CreateUser(t, gdb, "max", dbtest.WithGender(db.GenderFemale, db.OrientationMen), dbtest.WithBirthday(at(30)))
	// turns 31 today
	dbtest.CreateUser(t, gdb, "old", dbtest.WithGender(db.GenderFemale, db.OrientationMen), dbtest.WithBirthday(at(31)))
	// turns 31 tomorrow, still 30
	dbtest.CreateUser(t, gdb, "almost", dbtest.WithGender(db.GenderFemale, db.OrientationMen), dbtest.WithBirthday(at(31).AddDate(0, 0, 1)))

	got, err := svc.Discover(ctx, "john")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"min", "max", "almost"}, candidateIDs(got))
}

func TestDiscover_ScoredCard(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t, 0)

	dbtest.CreateUser(t, gdb, "john",
		dbtest.WithGender(db.GenderMale, db.OrientationWomen),
		dbtest.WithInterests("Travel", "Music", "Hiking"),
		dbtest.WithLanguages("English", "Spanish"),
	)
	sofia := dbtest.CreateUser(t, gdb, "sofia",
		dbtest.WithGender(db.GenderFemale, db.OrientationMen),
		dbtest.WithBirthday(dbtest.Birthday(fixedNow, 23)),
		dbtest.WithInterests("Travel", "Music", "Salsa"),
		dbtest.WithLanguages("English", "Portuguese"),
	)
	require.NoError(t, gdb.Model(sofia).Update("nationality", "").Error)

	got, err := svc.Discover(ctx, "john")
	require.NoError(t, err)
	require.Len(t, got, 1)

	card := got[0]
	assert.Equal(t, "Sofia Test", card.Name)
	assert.Equal(t, 23, card.Age)
	assert.Equal(t, 77, card.Compatibility)
	assert.Equal(t, "Energetic & Fun", card.Vibe)
	assert.Equal(t, "American", card.Nationality)
	assert.Equal(t, []string{"Travel", "Music", "Salsa"}, card.Interests)
	assert.Equal(t, []string{"https://img.example.com/sofia.jpg"}, card.Photos)
}

func TestDiscover_CapAppliesBeforeAgeFilter(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t, 3)

	dbtest.CreateUser(t, gdb, "john", dbtest.WithGender(db.GenderMale, db.OrientationWomen))
	for i := 0; i < 6; i++ {
		dbtest.CreateUser(t, gdb, fmt.Sprintf("w%d", i), dbtest.WithGender(db.GenderFemale, db.OrientationMen))
	}

	got, err := svc.Discover(ctx, "john")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestDiscover_EmptyDeckIsValid(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t, 0)

	dbtest.CreateUser(t, gdb, "loner", dbtest.WithGender(db.GenderMale, db.OrientationWomen))

	got, err := svc.Discover(ctx, "loner")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// failingCandidates resolves the requester but fails the candidate query.
type failingCandidates struct {
	discovery.UserStore
}

func (failingCandidates) ListCandidates(context.Context, repository.CandidateFilter) ([]db.User, error) {
	return nil, errors.New("connection reset")
}

func TestDiscover_StorageErrorIsInternal(t *testing.T) {
	gdb := dbtest.New(t)
	store := repository.NewStore(gdb)
	dbtest.CreateUser(t, gdb, "john")

	svc := discovery.New(discovery.Dependencies{
		Users:  failingCandidates{UserStore: store.Users},
		Logger: logger.Discard(),
	})

	_, err := svc.Discover(context.Background(), "john")
	require.Error(t, err)
	assert.True(t, svcErr.Is(err, svcErr.KindInternal))
}
