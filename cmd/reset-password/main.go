package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"

	"salon-inventory/internal/repository"
	"salon-inventory/internal/service"
	"salon-inventory/pkg/config"
	"salon-inventory/pkg/database"
	"salon-inventory/pkg/logger"

	"github.com/rs/zerolog"
)

func checkArgs(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

func main() {
	email := flag.String("email", "", "email of the account to reset")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Options{ServiceName: "reset-password", Level: cfg.App.LogLevel, Format: "console"})

	if err := checkArgs(*email, *password); err != nil {
		log.Fatal().Err(err).Msg("usage: reset-password -email <email> -password <new password>")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DB, false)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer database.Close(db)

	// 3. Reset through the user service so the session is ended as well
	users := service.NewUserService(repository.NewUserRepo(db), repository.NewPrivilegeRepo(db), repository.NewRoleRepo(db), log)
	if err := users.ResetPasswordByEmail(context.Background(), *email, *password); err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("reset password")
	}

	log.Info().Str("email", *email).Msg("password reset, existing sessions ended")
}
