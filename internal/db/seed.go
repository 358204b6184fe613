package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedProfile struct {
	first, last, email string
	birthday           string
	gender             Gender
	orientation        Orientation
	nationality        string
	location           string
	bio                string
	journey            string
	interests          []string
	languages          []string
	minAge, maxAge     int
}

var demoProfiles = []seedProfile{
	{"John", "Smith", "john@example.com", "1995-05-15", GenderMale, OrientationWomen, "", "San Francisco, CA",
		"Software engineer who loves exploring different cultures.",
		"Growing up in a diverse city taught me to appreciate different perspectives.",
		[]string{"Travel", "Technology", "Food Adventures", "Hiking", "Music"}, []string{"English", "Spanish"}, 22, 35},
	{"Sofia", "Rodriguez", "sofia@example.com", "1996-08-22", GenderFemale, OrientationMen, "Brazilian", "Miami, FL",
		"Marketing professional who loves salsa dancing.",
		"Growing up in São Paulo taught me the best conversations happen over good food.",
		[]string{"Salsa Dancing", "Food Adventures", "Beach Volleyball", "Live Music", "Travel"}, []string{"Portuguese", "English", "Spanish"}, 25, 38},
	{"Priya", "Sharma", "priya@example.com", "1998-03-10", GenderFemale, OrientationMen, "Indian", "San Francisco, CA",
		"Data scientist and classical dancer.",
		"Moving from Mumbai to California opened my eyes to how food connects people.",
		[]string{"Bollywood", "Yoga", "Cooking", "Technology", "Travel"}, []string{"Hindi", "English", "Gujarati"}, 24, 32},
	{"Kenji", "Nakamura", "kenji@example.com", "1995-11-28", GenderMale, OrientationWomen, "Japanese", "Los Angeles, CA",
		"Architect with a soft spot for ramen and vinyl.",
		"Tokyo taught me precision, Los Angeles taught me to improvise.",
		[]string{"Architecture", "Music", "Food Adventures", "Photography"}, []string{"Japanese", "English"}, 23, 35},
	{"Maria", "Garcia", "maria@example.com", "1997-06-18", GenderFemale, OrientationMen, "Mexican", "Austin, TX",
		"Teacher, runner, taco critic.",
		"Family dinners in Guadalajara are where I learned to listen.",
		[]string{"Running", "Cooking", "Live Music", "Travel"}, []string{"Spanish", "English"}, 25, 35},
	{"Alex", "Kim", "alex@example.com", "1993-01-09", GenderNonBinary, OrientationEveryone, "Korean", "Seattle, WA",
		"Product designer and board game hoarder.",
		"Third culture kid, at home everywhere and nowhere.",
		[]string{"Board Games", "Design", "Hiking", "Travel"}, []string{"Korean", "English"}, 25, 40},
	{"Lucas", "Moreau", "lucas@example.com", "1990-09-30", GenderMale, OrientationEveryone, "French", "New York, NY",
		"Chef turned food writer.",
		"Lyon to Brooklyn, one bakery at a time.",
		[]string{"Cooking", "Food Adventures", "Wine", "Music"}, []string{"French", "English", "Italian"}, 25, 45},
	{"Amara", "Okafor", "amara@example.com", "1999-12-02", GenderFemale, OrientationEveryone, "Nigerian", "Houston, TX",
		"Med student with an afrobeats playlist for every mood.",
		"Lagos energy, Texas hospitality.",
		[]string{"Dancing", "Live Music", "Fitness", "Travel"}, []string{"English", "Yoruba"}, 22, 34},
}

// SeedTestData resets the matching tables and populates them with demo
// profiles and a few swipes.
//
// Behavior:
//  1. Clears messages, participants, conversations, matches, swipes and users.
//  2. Creates the demo profiles with bcrypt-hashed "password123".
//  3. Generates random swipes (~70% likes); every 3rd pair gets a reciprocal
//     like so that some matches exist out of the box.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "conversation_participants", "conversations", "matches", "swipes", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	slog.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]User, 0, len(demoProfiles))
	for _, p := range demoProfiles {
		birthday, err := time.Parse(time.DateOnly, p.birthday)
		if err != nil {
			return fmt.Errorf("bad birthday for %s: %w", p.email, err)
		}
		u := User{
			Email:            p.email,
			PasswordHash:     string(hash),
			FirstName:        p.first,
			LastName:         p.last,
			Birthday:         birthday,
			Gender:           p.gender,
			Orientation:      p.orientation,
			MinAge:           p.minAge,
			MaxAge:           p.maxAge,
			Nationality:      p.nationality,
			Location:         p.location,
			Bio:              p.bio,
			CulturalJourney:  p.journey,
			Interests:        p.interests,
			Languages:        p.languages,
			Photos:           []string{fmt.Sprintf("https://images.example.com/%s.jpg", p.first)},
			ProfileCompleted: true,
			IsOnline:         r.Intn(2) == 0,
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, u)
	}
	slog.Info("seeded users", "count", len(users))

	// --- Seed swipes ---
	counter := 0
	matches := 0
	for i := range users {
		for j := range users {
			if i == j || r.Intn(100) < 50 {
				continue
			}
			actor, target := users[i], users[j]

			var existing int64
			db.Model(&Swipe{}).Where("from_user_id = ? AND to_user_id = ?", actor.ID, target.ID).Count(&existing)
			if existing > 0 {
				continue
			}

			action := ActionPass
			if r.Intn(100) < 70 {
				action = ActionLike
			}

			// guarantee a mutual like every 3rd pair
			mutual := counter%3 == 0
			if mutual {
				action = ActionLike
			}

			if err := db.Create(&Swipe{FromUserID: actor.ID, ToUserID: target.ID, Action: action}).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}
			counter++

			if !mutual {
				continue
			}
			var recip Swipe
			if err := db.Where(Swipe{FromUserID: target.ID, ToUserID: actor.ID}).
				Attrs(Swipe{Action: ActionLike}).
				FirstOrCreate(&recip).Error; err != nil {
				return fmt.Errorf("failed to seed reciprocal swipe: %w", err)
			}
			if !recip.Action.Positive() {
				continue
			}
			if err := seedMatch(db, actor.ID, target.ID); err != nil {
				return err
			}
			matches++
		}
	}
	slog.Info("seeded swipes", "count", counter, "matches", matches)

	return nil
}

func seedMatch(db *gorm.DB, a, b string) error {
	var existing int64
	db.Model(&Match{}).Where("pair_key = ?", PairKey(a, b)).Count(&existing)
	if existing > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		m := Match{User1ID: a, User2ID: b}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to seed match: %w", err)
		}
		c := Conversation{MatchID: m.ID}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("failed to seed conversation: %w", err)
		}
		parts := []ConversationParticipant{
			{ConversationID: c.ID, UserID: a},
			{ConversationID: c.ID, UserID: b},
		}
		return tx.Create(&parts).Error
	})
}
