// Package guard holds the request-time gates: access/refresh token
// validation, role membership, and the failed-login throttle pre-check.
// Required role sets are declared explicitly at route registration, never
// discovered at runtime.
package guard

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
	"github.com/gab-cat/auth-gateway/internal/auth/service"
	"github.com/gab-cat/auth-gateway/internal/auth/throttle"
)

const (
	// Cookie names match what the transport layer sets on login.
	AccessTokenCookie  = "Authentication"
	RefreshTokenCookie = "Refresh"

	localsUserKey = "user"
)

type Guard struct {
	tokens   service.TokenGenerator
	repo     domain.UserRepository
	throttle *throttle.Throttle
}

func New(tokens service.TokenGenerator, repo domain.UserRepository, throttle *throttle.Throttle) *Guard {
	return &Guard{tokens: tokens, repo: repo, throttle: throttle}
}

// RequireAccess validates the access-token cookie, loads the full user
// record (current roles, not cached claims) and attaches it to the
// request. Rejections are deliberately uniform.
func (g *Guard) RequireAccess(c *fiber.Ctx) error {
	return g.requireToken(c, AccessTokenCookie, g.tokens.VerifyAccessToken)
}

// RequireRefresh mirrors RequireAccess for the refresh-token cookie.
func (g *Guard) RequireRefresh(c *fiber.Ctx) error {
	return g.requireToken(c, RefreshTokenCookie, g.tokens.VerifyRefreshToken)
}

func (g *Guard) requireToken(c *fiber.Ctx, cookieName string,
	verify func(string) (*service.JWTCustomClaims, error)) error {
	token := c.Cookies(cookieName)
	if token == "" {
		return unauthorized(c)
	}

	claims, err := verify(token)
	if err != nil {
		return unauthorized(c)
	}

	user, err := g.repo.GetByID(c.UserContext(), claims.UserID)
	if err != nil || user == nil {
		return unauthorized(c)
	}

	c.Locals(localsUserKey, user)

	return c.Next()
}

// RequireRoles gates on role membership. It must run after RequireAccess
// or RequireRefresh. An empty role set means no restriction. The response
// never names the roles that were required.
func (g *Guard) RequireRoles(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return unauthorized(c)
		}

		if !user.HasAnyRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You do not have permission to access this resource",
			})
		}

		return c.Next()
	}
}

// Throttle rejects requests from a currently blocked client key before
// credential verification can run.
func (g *Guard) Throttle(c *fiber.Ctx) error {
	if !g.throttle.Allow(ClientKey(c)) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Too many failed login attempts. Please try again later.",
		})
	}

	return c.Next()
}

// CurrentUser returns the user a guard attached, or nil.
func CurrentUser(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals(localsUserKey).(*domain.User)
	return user
}

// ClientKey derives the throttle bucket for a request. The chain exists
// because the service usually sits behind reverse proxies: first
// X-Forwarded-For entry, then X-Real-IP, then the peer address, then a
// loopback default.
func ClientKey(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := c.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if ip := c.IP(); ip != "" {
		return ip
	}

	return "127.0.0.1"
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "authentication required",
	})
}
