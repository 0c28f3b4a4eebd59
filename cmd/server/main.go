package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studioperennis/auth-api/internal/api"
	"github.com/studioperennis/auth-api/internal/core/service"
	"github.com/studioperennis/auth-api/internal/core/token"
	"github.com/studioperennis/auth-api/internal/infrastructure/db/postgres"
	"github.com/studioperennis/auth-api/internal/infrastructure/mail"
	"github.com/studioperennis/auth-api/internal/pkg/config"
	"github.com/studioperennis/auth-api/pkg/logger"
)

const (
	mailWorkers     = 4
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet; write straight to stderr and bail.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env != config.EnvProduction,
	})

	// Outside production a missing reset secret falls back to the session
	// secret. That collapses the purpose separation between the two token
	// kinds, so it is loudly flagged and never allowed in production
	// (config.Validate rejects it there).
	resetSecret := cfg.JWTResetSecret
	if resetSecret == "" {
		log.Warn().Msg("JWT_RESET_SECRET unset; falling back to JWT_SECRET (development only)")
		resetSecret = cfg.JWTSecret
	}

	db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	mailer, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("smtp client setup failed")
	}

	dispatcher := mail.NewDispatcher(mailWorkers, mailer, log)
	dispatcher.Start(ctx)

	tokens := token.NewProvider(cfg.JWTSecret, resetSecret, cfg.SessionTTL, cfg.ResetTTL)
	repo := postgres.NewUserRepository(db)
	authService := service.NewAuthService(repo, service.NewBcryptHasher(), tokens, dispatcher, cfg.FrontendURL, log)

	e := api.NewRouter(db, authService, tokens, cfg, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
