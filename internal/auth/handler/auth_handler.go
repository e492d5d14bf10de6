package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
	"github.com/gab-cat/auth-gateway/internal/auth/dto"
	"github.com/gab-cat/auth-gateway/internal/auth/guard"
	"github.com/gab-cat/auth-gateway/internal/auth/service"
	autherror "github.com/gab-cat/auth-gateway/internal/errors"
	"github.com/gab-cat/auth-gateway/internal/logger"
)

const oauthStateCookie = "OAuthState"

type AuthHandler struct {
	userService  *service.UserService
	oauthService *service.OAuthService
	log          *logger.Logger

	authUIRedirect string
	secureCookies  bool
}

func NewAuthHandler(userService *service.UserService, oauthService *service.OAuthService,
	log *logger.Logger, authUIRedirect string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		oauthService:   oauthService,
		log:            log,
		authUIRedirect: authUIRedirect,
		secureCookies:  secureCookies,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil || input.Email == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	user, err := h.userService.Register(c.UserContext(), input)
	if err != nil {
		if errors.Is(err, autherror.ErrEmailAlreadyInUse) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	h.log.Info("User registered", logger.Fields{"email": user.Email}, "AuthHandler")

	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{
		Message:    "User created successfully",
		StatusCode: fiber.StatusCreated,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	input.ClientKey = guard.ClientKey(c)

	pair, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		if errors.Is(err, autherror.ErrTooManyLoginAttempts) {
			h.log.Warn("Login blocked by throttle",
				logger.Fields{"clientKey": input.ClientKey}, "AuthHandler")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	h.setAuthCookies(c, pair)
	h.log.Info("Login successful", logger.Fields{"email": input.Email}, "AuthHandler")

	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{
		Message:    "Login successful",
		StatusCode: fiber.StatusCreated,
	})
}

// Refresh runs behind the refresh guard; by the time it executes the
// identity is already attached to the request.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	user := guard.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	pair, err := h.userService.IssueTokens(c.UserContext(), user)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	h.setAuthCookies(c, pair)

	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{
		Message:    "Token refreshed successfully",
		StatusCode: fiber.StatusOK,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := guard.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	if err := h.userService.Logout(c.UserContext(), user.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "logout failed"})
	}

	h.clearAuthCookies(c)
	h.log.Info("Logout successful", logger.Fields{"email": user.Email}, "AuthHandler")

	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{
		Message:    "Logout successful",
		StatusCode: fiber.StatusOK,
	})
}

func (h *AuthHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list users"})
	}

	out := make([]dto.UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserOutput{
			ID:              u.ID,
			Email:           u.Email,
			Roles:           u.Roles,
			HasRefreshToken: u.RefreshTokenHash != "",
			CreatedAt:       u.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

// GoogleLogin redirects to the consent screen with a single-use CSRF
// state bound to a short-lived cookie.
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	if h.oauthService == nil || !h.oauthService.Enabled() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "oauth login is not configured"})
	}

	state := uuid.New().String()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	return c.Redirect(h.oauthService.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// GoogleCallback exchanges the code for a verified profile and funnels it
// into the same issuance path a password login uses.
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	if h.oauthService == nil || !h.oauthService.Enabled() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "oauth login is not configured"})
	}

	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid oauth state"})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization code"})
	}

	user, pair, err := h.oauthService.HandleCallback(c.UserContext(), code)
	if err != nil {
		h.log.Warn("OAuth callback failed", logger.Fields{"error": err.Error()}, "AuthHandler")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "oauth login failed"})
	}

	h.setAuthCookies(c, pair)
	h.log.Info("OAuth login successful", logger.Fields{"email": user.Email}, "AuthHandler")

	return c.Redirect(h.authUIRedirect, fiber.StatusFound)
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, pair *domain.TokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     guard.AccessTokenCookie,
		Value:    pair.AccessToken,
		Expires:  pair.AccessExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     guard.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Expires:  pair.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	for _, name := range []string{guard.AccessTokenCookie, guard.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  expired,
			HTTPOnly: true,
			Secure:   h.secureCookies,
			SameSite: fiber.CookieSameSiteLaxMode,
			Path:     "/",
		})
	}
}
