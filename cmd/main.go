package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/gab-cat/auth-gateway/config"
	"github.com/gab-cat/auth-gateway/db"
	"github.com/gab-cat/auth-gateway/internal/auth/guard"
	"github.com/gab-cat/auth-gateway/internal/auth/handler"
	repo "github.com/gab-cat/auth-gateway/internal/auth/repository/postgres"
	"github.com/gab-cat/auth-gateway/internal/auth/service"
	"github.com/gab-cat/auth-gateway/internal/auth/throttle"
	"github.com/gab-cat/auth-gateway/internal/logger"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	bus := logger.NewBroadcaster(logger.DefaultBacklogCapacity)
	log.SetEmitter(bus)

	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("Failed to connect to database", logger.Fields{"error": err.Error()}, "main")
		os.Exit(1)
	}
	defer dbPool.Close()

	userRepo := repo.NewPostgresRepository(dbPool)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	loginThrottle := throttle.New(cfg.MaxFailedAttempts, cfg.FailedLoginWindow(), cfg.FailedLoginBlock())
	userService := service.NewUserService(userRepo, tokenService, loginThrottle)
	oauthService := service.NewOAuthService(cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL, userService)

	authGuard := guard.New(tokenService, userRepo, loginThrottle)
	authHandler := handler.NewAuthHandler(userService, oauthService, log,
		cfg.AuthUIRedirect, cfg.Env == "production")

	stream := logger.NewStreamHandler(bus, log,
		logger.NewTokenStrategy(tokenService, userRepo, guard.AccessTokenCookie),
		logger.NewBasicStrategy(userService),
	)

	app := fiber.New()
	app.Use(logger.RequestLogger(log))
	handler.RegisterRoutes(app, authHandler, authGuard, stream)

	log.Info("Server starting", logger.Fields{"port": cfg.Port, "env": cfg.Env}, "main")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("Server stopped", logger.Fields{"error": err.Error()}, "main")
		os.Exit(1)
	}
}
