package main

import (
	"flag"
	"os"
	"time"

	"github.com/oggyb/h1bee-match/internal/auth"
	"github.com/oggyb/h1bee-match/internal/config"
	"github.com/oggyb/h1bee-match/internal/db"
	"github.com/oggyb/h1bee-match/internal/logger"
)

func main() {
	tokens := flag.Bool("tokens", false, "print a 24h bearer token for every seeded user")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed")

	if !*tokens {
		return
	}
	if cfg.Auth.JWTSecret == "" {
		log.Error("JWT_SECRET is required to print tokens")
		os.Exit(1)
	}

	var users []db.User
	if err := database.Order("first_name").Find(&users).Error; err != nil {
		log.Error("failed to list users", "err", err)
		os.Exit(1)
	}
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	for _, u := range users {
		token, err := verifier.Sign(u.ID, 24*time.Hour)
		if err != nil {
			log.Error("failed to sign token", "user_id", u.ID, "err", err)
			os.Exit(1)
		}
		log.Info("seed user", "name", u.FullName(), "email", u.Email, "user_id", u.ID, "token", token)
	}
}
