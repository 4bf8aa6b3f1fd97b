package main

import (
	"context"
	"flag"
	"os"
	"time"

	"farmer-admin/internal/config"
	"farmer-admin/internal/repository"
	"farmer-admin/internal/service"
	"farmer-admin/pkg/database"
	"farmer-admin/pkg/jwt"
	"farmer-admin/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "admin@example.com", "email of the user to reset")
	password := flag.String("password", "", "new password (at least 6 characters)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	if *password == "" {
		log.Error("a new password is required: -password <value>")
		os.Exit(2)
	}

	db, err := database.Connect(cfg.Database, log, "silent")
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}

	authService := service.NewAuthService(
		repository.NewUserRepo(db),
		jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer),
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := authService.ResetPassword(ctx, *email, *password); err != nil {
		log.Fatal("reset password", zap.String("email", *email), zap.Error(err))
	}

	log.Info("password reset, existing sessions revoked", zap.String("email", *email))
}
