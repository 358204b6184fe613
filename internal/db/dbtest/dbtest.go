// Package dbtest opens isolated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/h1bee-match/internal/db"
)

// New returns a migrated in-memory SQLite database private to t.
//
// The pool is pinned to one connection so concurrent transactions queue
// up instead of failing with SQLITE_BUSY. Code running inside a transaction
// must therefore only use the tx handle. Transactions never overlap here,
// so SELECT ... FOR UPDATE contention is only exercised by the
// integration-tagged tests against MySQL or Postgres.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// Birthday returns a birthday that makes the user exactly age years old at now.
func Birthday(now time.Time, age int) time.Time {
	return time.Date(now.Year()-age, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// UserOpt tweaks a fixture user.
type UserOpt func(*db.User)

func WithGender(g db.Gender, o db.Orientation) UserOpt {
	return func(u *db.User) {
		u.Gender = g
		u.Orientation = o
	}
}

func WithAgeWindow(minAge, maxAge int) UserOpt {
	return func(u *db.User) {
		u.MinAge = minAge
		u.MaxAge = maxAge
	}
}

func WithBirthday(b time.Time) UserOpt {
	return func(u *db.User) { u.Birthday = b }
}

func WithInterests(in ...string) UserOpt {
	return func(u *db.User) { u.Interests = in }
}

func WithLanguages(langs ...string) UserOpt {
	return func(u *db.User) { u.Languages = langs }
}

func Incomplete() UserOpt {
	return func(u *db.User) { u.ProfileCompleted = false }
}

// CreateUser inserts a completed profile with sensible defaults: a 28 year
// old straight man accepting ages 18..99.
func CreateUser(t *testing.T, gdb *gorm.DB, id string, opts ...UserOpt) *db.User {
	t.Helper()

	u := &db.User{
		ID:               id,
		Email:            id + "@example.com",
		PasswordHash:     "x",
		FirstName:        strings.ToUpper(id[:1]) + id[1:],
		LastName:         "Test",
		Birthday:         Birthday(time.Now().UTC(), 28),
		Gender:           db.GenderMale,
		Orientation:      db.OrientationWomen,
		MinAge:           18,
		MaxAge:           99,
		Nationality:      "Brazilian",
		Location:         "Miami, FL",
		Photos:           []string{"https://img.example.com/" + id + ".jpg"},
		Interests:        []string{},
		Languages:        []string{},
		ProfileCompleted: true,
	}
	for _, opt := range opts {
		opt(u)
	}

	require.NoError(t, gdb.Create(u).Error)
	return u
}
