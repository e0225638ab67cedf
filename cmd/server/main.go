package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shrot8546/EventVgo/internal/auth"
	"github.com/Shrot8546/EventVgo/internal/clerk"
	"github.com/Shrot8546/EventVgo/internal/config"
	"github.com/Shrot8546/EventVgo/internal/httpapi"
	"github.com/Shrot8546/EventVgo/internal/logging"
	"github.com/Shrot8546/EventVgo/internal/mongodb"
	"github.com/Shrot8546/EventVgo/internal/server"
	"github.com/Shrot8546/EventVgo/internal/user"
	"github.com/Shrot8546/EventVgo/internal/webhook"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("user-sync-service")

	conn := mongodb.NewConnector(cfg.MongoURI, cfg.MongoDatabase, user.EnsureIndexes)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	userRepo := user.NewMongoRepository(conn)
	userService := user.NewService(userRepo)

	whVerifier, err := webhook.NewVerifier(cfg.WebhookSecret)
	if err != nil {
		panic(fmt.Errorf("webhook verifier error: %w", err))
	}

	var metadata webhook.MetadataWriter
	if cfg.ClerkSecretKey != "" {
		metadata = clerk.NewClient(cfg.ClerkSecretKey)
	} else {
		logger.Warn("CLERK_SECRET_KEY not set; internal ids will not be written back to Clerk")
	}
	dispatcher := webhook.NewDispatcher(userService, metadata, logger)

	sessionVerifier, err := auth.NewVerifier(auth.Config{
		Mode:     auth.Mode(cfg.Auth.Mode),
		JWKSURL:  cfg.Auth.JWKSURL,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := server.NewRouter("user-sync-service", func(r chi.Router) {
		httpapi.RegisterWebhookRoutes(r, whVerifier, dispatcher, logger)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(sessionVerifier))
			httpapi.RegisterUserRoutes(r, userService, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
