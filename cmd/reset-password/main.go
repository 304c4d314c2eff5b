// Command reset-password sets a new password for one account and signs it out
// everywhere. It talks to the database directly and is meant for operators.
//
//	go run ./cmd/reset-password -email admin@printshop.local -password 'n3w-secret'
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"printshop-api/internal/config"
	"printshop-api/internal/repository"
	"printshop-api/pkg/database"
	"printshop-api/pkg/logger"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "new password, at least 8 characters")
	flag.Parse()

	log := logger.Init(logger.Options{Pretty: true})

	if *email == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Config and database
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer database.Close(db)

	ctx := context.Background()
	users := repository.NewUserRepo(db)

	// 2. Find the account
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		log.Error().Err(err).Str("email", *email).Msg("user lookup failed")
		os.Exit(1)
	}

	// 3. Hash and store, revoking every outstanding token
	if err := user.SetPassword(*password); err != nil {
		log.Error().Err(err).Msg("hash password")
		os.Exit(1)
	}
	version := user.RotateTokenVersion()
	if err := users.UpdatePassword(ctx, user.ID, user.PasswordHash, version); err != nil {
		log.Error().Err(err).Msg("update password")
		os.Exit(1)
	}

	log.Info().Str("email", user.Email).Msg("password reset, existing sessions revoked")
}
