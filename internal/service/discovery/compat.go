package discovery

import (
	"slices"
	"time"

	"github.com/oggyb/h1bee-match/internal/db"
	"github.com/oggyb/h1bee-match/internal/repository"
)

const (
	baseScore          = 70
	maxScore           = 99
	interestPoints     = 2
	maxInterestPoints  = 20
	languagePoints     = 3
	maxLanguagePoints  = 10
	defaultNationality = "American"
)

var (
	likesMen   = []db.Orientation{db.OrientationMen, db.OrientationEveryone}
	likesWomen = []db.Orientation{db.OrientationWomen, db.OrientationEveryone}
	openToAll  = []db.Orientation{db.OrientationEveryone}
)

// Rules returns who a requester of gender g and orientation o may see.
// Both sides must be interested in each other: a straight man sees women
// who like men (or everyone), never women who only like women.
func Rules(g db.Gender, o db.Orientation) []repository.GenderRule {
	// candidates must accept the requester's gender
	var accepts []db.Orientation
	switch g {
	case db.GenderMale:
		accepts = likesMen
	case db.GenderFemale:
		accepts = likesWomen
	case db.GenderNonBinary:
		accepts = openToAll
	default:
		return nil
	}

	switch o {
	case db.OrientationMen:
		return []repository.GenderRule{{Gender: db.GenderMale, Orientations: accepts}}
	case db.OrientationWomen:
		return []repository.GenderRule{{Gender: db.GenderFemale, Orientations: accepts}}
	case db.OrientationEveryone:
		if g == db.GenderNonBinary {
			return []repository.GenderRule{{Orientations: openToAll}}
		}
		return []repository.GenderRule{
			{Gender: db.GenderMale, Orientations: accepts},
			{Gender: db.GenderFemale, Orientations: accepts},
			{Gender: db.GenderNonBinary, Orientations: openToAll},
		}
	default:
		return nil
	}
}

// Compatible reports whether candidate passes requester's rule table.
func Compatible(requester, candidate *db.User) bool {
	for _, rule := range Rules(requester.Gender, requester.Orientation) {
		if rule.Gender != "" && rule.Gender != candidate.Gender {
			continue
		}
		if slices.Contains(rule.Orientations, candidate.Orientation) {
			return true
		}
	}
	return false
}

// Age is the number of full years between birthday and now.
func Age(birthday, now time.Time) int {
	age := now.Year() - birthday.Year()
	if now.Month() < birthday.Month() || (now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		age--
	}
	return age
}

// InAgeWindow checks minAge <= age <= maxAge.
func InAgeWindow(age, minAge, maxAge int) bool {
	return age >= minAge && age <= maxAge
}

// Score rates a candidate in [70, 99] from shared interests and languages.
func Score(requester, candidate *db.User) int {
	score := baseScore
	score += min(interestPoints*shared(requester.Interests, candidate.Interests), maxInterestPoints)
	score += min(languagePoints*shared(requester.Languages, candidate.Languages), maxLanguagePoints)
	return min(score, maxScore)
}

// shared counts entries of theirs that also appear in mine.
func shared(mine, theirs []string) int {
	if len(mine) == 0 || len(theirs) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(mine))
	for _, v := range mine {
		set[v] = struct{}{}
	}
	n := 0
	for _, v := range theirs {
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}

// Vibe labels an age bracket.
func Vibe(age int) string {
	switch {
	case age < 25:
		return "Energetic & Fun"
	case age < 35:
		return "Adventurous & Open"
	default:
		return "Thoughtful & Mature"
	}
}
