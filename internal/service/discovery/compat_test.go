package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/h1bee-match/internal/db"
)

func user(g db.Gender, o db.Orientation) *db.User {
	return &db.User{Gender: g, Orientation: o}
}

func TestCompatible_Table(t *testing.T) {
	genders := []db.Gender{db.GenderMale, db.GenderFemale, db.GenderNonBinary}
	orientations := []db.Orientation{db.OrientationMen, db.OrientationWomen, db.OrientationEveryone}

	// requester -> set of "GENDER/ORIENTATION" candidates that must be visible
	want := map[string]map[string]bool{
		"MALE/MEN":            {"MALE/MEN": true, "MALE/EVERYONE": true},
		"FEMALE/MEN":          {"MALE/WOMEN": true, "MALE/EVERYONE": true},
		"NON_BINARY/MEN":      {"MALE/EVERYONE": true},
		"MALE/WOMEN":          {"FEMALE/MEN": true, "FEMALE/EVERYONE": true},
		"FEMALE/WOMEN":        {"FEMALE/WOMEN": true, "FEMALE/EVERYONE": true},
		"NON_BINARY/WOMEN":    {"FEMALE/EVERYONE": true},
		"MALE/EVERYONE":       {"MALE/MEN": true, "MALE/EVERYONE": true, "FEMALE/MEN": true, "FEMALE/EVERYONE": true, "NON_BINARY/EVERYONE": true},
		"FEMALE/EVERYONE":     {"MALE/WOMEN": true, "MALE/EVERYONE": true, "FEMALE/WOMEN": true, "FEMALE/EVERYONE": true, "NON_BINARY/EVERYONE": true},
		"NON_BINARY/EVERYONE": {"MALE/EVERYONE": true, "FEMALE/EVERYONE": true, "NON_BINARY/EVERYONE": true},
	}

	for _, rg := range genders {
		for _, ro := range orientations {
			reqKey := string(rg) + "/" + string(ro)
			for _, cg := range genders {
				for _, co := range orientations {
					candKey := string(cg) + "/" + string(co)
					got := Compatible(user(rg, ro), user(cg, co))
					assert.Equal(t, want[reqKey][candKey], got, "%s sees %s", reqKey, candKey)
				}
			}
		}
	}
}

func TestCompatible_UnknownValues(t *testing.T) {
	assert.False(t, Compatible(user("ROBOT", db.OrientationEveryone), user(db.GenderMale, db.OrientationEveryone)))
	assert.False(t, Compatible(user(db.GenderMale, "ANY"), user(db.GenderFemale, db.OrientationMen)))
	assert.Nil(t, Rules("", ""))
}

func TestAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, Age(time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC), now), "birthday today")
	assert.Equal(t, 29, Age(time.Date(1995, 6, 16, 0, 0, 0, 0, time.UTC), now), "birthday tomorrow")
	assert.Equal(t, 30, Age(time.Date(1995, 5, 31, 0, 0, 0, 0, time.UTC), now), "earlier month")
	assert.Equal(t, 29, Age(time.Date(1995, 7, 1, 0, 0, 0, 0, time.UTC), now), "later month")
}

func TestInAgeWindow_Inclusive(t *testing.T) {
	assert.True(t, InAgeWindow(25, 25, 35))
	assert.True(t, InAgeWindow(35, 25, 35))
	assert.False(t, InAgeWindow(24, 25, 35))
	assert.False(t, InAgeWindow(36, 25, 35))
}

func TestScore(t *testing.T) {
	cases := []struct {
		name   string
		mine   *db.User
		theirs *db.User
		want   int
	}{
		{
			name:   "nothing shared is the floor",
			mine:   &db.User{Interests: []string{"Travel"}, Languages: []string{"English"}},
			theirs: &db.User{Interests: []string{"Chess"}, Languages: []string{"French"}},
			want:   70,
		},
		{
			name:   "two interests and one language",
			mine:   &db.User{Interests: []string{"Travel", "Music", "Hiking"}, Languages: []string{"English", "Spanish"}},
			theirs: &db.User{Interests: []string{"Travel", "Music", "Chess"}, Languages: []string{"English", "Portuguese"}},
			want:   77,
		},
		{
			name: "everything shared is capped",
			mine: &db.User{
				Interests: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"},
				Languages: []string{"en", "es", "pt", "fr", "de"},
			},
			theirs: &db.User{
				Interests: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"},
				Languages: []string{"en", "es", "pt", "fr", "de"},
			},
			want: 99,
		},
		{
			name:   "nil lists",
			mine:   &db.User{},
			theirs: &db.User{},
			want:   70,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.mine, tc.theirs)
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, got, 70)
			assert.LessOrEqual(t, got, 99)
		})
	}
}

func TestVibe(t *testing.T) {
	assert.Equal(t, "Energetic & Fun", Vibe(24))
	assert.Equal(t, "Adventurous & Open", Vibe(25))
	assert.Equal(t, "Adventurous & Open", Vibe(34))
	assert.Equal(t, "Thoughtful & Mature", Vibe(35))
}

func TestRandShufflerIsDeterministicPerSeed(t *testing.T) {
	a := []int{1, 2, 3, 4, 5, 6, 7, 8}
	b := []int{1, 2, 3, 4, 5, 6, 7, 8}

	NewRandShuffler(42).Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
	NewRandShuffler(42).Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })

	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, a)
}
