package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
	"github.com/gab-cat/auth-gateway/internal/auth/guard"
	"github.com/gab-cat/auth-gateway/internal/logger"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, g *guard.Guard, stream *logger.StreamHandler) {
	api := app.Group("/api/v1")

	api.Post("/users", h.Register)
	api.Get("/users", g.RequireAccess, g.RequireRoles(domain.RoleAdmin, domain.RoleStaff), h.GetUsers)

	api.Post("/auth/login", g.Throttle, h.Login)
	api.Post("/auth/refresh", g.RequireRefresh, h.Refresh)
	api.Post("/auth/logout", g.RequireAccess, h.Logout)
	api.Get("/auth/google", h.GoogleLogin)
	api.Get("/auth/google/callback", h.GoogleCallback)

	app.Get("/logs/stream", stream.Upgrade, stream.Handler())
}
