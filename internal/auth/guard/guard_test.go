package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
	"github.com/gab-cat/auth-gateway/internal/auth/guard"
	"github.com/gab-cat/auth-gateway/internal/auth/service"
	"github.com/gab-cat/auth-gateway/internal/auth/throttle"
	"github.com/gab-cat/auth-gateway/internal/mocks"
)

func newTokenService() *service.TokenService {
	return service.NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "user-123",
		Email: "test@example.com",
		Roles: []domain.Role{domain.RoleUser},
	}
}

type fixture struct {
	app    *fiber.App
	guard  *guard.Guard
	repo   *mocks.MockUserRepository
	tokens *service.TokenService
	th     *throttle.Throttle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockUserRepository(ctrl)
	tokens := newTokenService()
	th := throttle.New(5, 15*time.Minute, 15*time.Minute)

	return &fixture{
		app:    fiber.New(),
		guard:  guard.New(tokens, repo, th),
		repo:   repo,
		tokens: tokens,
		th:     th,
	}
}

func okHandler(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func (f *fixture) request(t *testing.T, cookies map[string]string, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestGuard_RequireAccess(t *testing.T) {
	t.Run("valid cookie attaches user", func(t *testing.T) {
		f := newFixture(t)
		user := testUser()

		f.app.Get("/protected", f.guard.RequireAccess, func(c *fiber.Ctx) error {
			current := guard.CurrentUser(c)
			require.NotNil(t, current)
			assert.Equal(t, user.ID, current.ID)
			return c.SendStatus(fiber.StatusOK)
		})

		pair, err := f.tokens.Generate(user)
		require.NoError(t, err)

		f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

		resp := f.request(t, map[string]string{guard.AccessTokenCookie: pair.AccessToken}, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("missing cookie", func(t *testing.T) {
		f := newFixture(t)
		f.app.Get("/protected", f.guard.RequireAccess, okHandler)

		resp := f.request(t, nil, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newFixture(t)
		f.app.Get("/protected", f.guard.RequireAccess, okHandler)

		resp := f.request(t, map[string]string{guard.AccessTokenCookie: "not-a-jwt"}, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("refresh token in access cookie is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.app.Get("/protected", f.guard.RequireAccess, okHandler)

		pair, err := f.tokens.Generate(testUser())
		require.NoError(t, err)

		resp := f.request(t, map[string]string{guard.AccessTokenCookie: pair.RefreshToken}, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("user deleted after token issuance", func(t *testing.T) {
		f := newFixture(t)
		f.app.Get("/protected", f.guard.RequireAccess, okHandler)

		pair, err := f.tokens.Generate(testUser())
		require.NoError(t, err)

		f.repo.EXPECT().GetByID(gomock.Any(), "user-123").Return(nil, nil)

		resp := f.request(t, map[string]string{guard.AccessTokenCookie: pair.AccessToken}, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestGuard_RequireRefresh(t *testing.T) {
	t.Run("valid refresh cookie", func(t *testing.T) {
		f := newFixture(t)
		user := testUser()
		f.app.Get("/protected", f.guard.RequireRefresh, okHandler)

		pair, err := f.tokens.Generate(user)
		require.NoError(t, err)

		f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

		resp := f.request(t, map[string]string{guard.RefreshTokenCookie: pair.RefreshToken}, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("access token in refresh cookie is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.app.Get("/protected", f.guard.RequireRefresh, okHandler)

		pair, err := f.tokens.Generate(testUser())
		require.NoError(t, err)

		resp := f.request(t, map[string]string{guard.RefreshTokenCookie: pair.AccessToken}, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestGuard_RequireRoles(t *testing.T) {
	cases := []struct {
		name     string
		roles    []domain.Role
		required []domain.Role
		want     int
	}{
		{"member passes", []domain.Role{domain.RoleAdmin}, []domain.Role{domain.RoleAdmin, domain.RoleStaff}, fiber.StatusOK},
		{"non-member forbidden", []domain.Role{domain.RoleUser}, []domain.Role{domain.RoleAdmin, domain.RoleStaff}, fiber.StatusForbidden},
		{"empty requirement passes anyone", []domain.Role{domain.RoleUser}, nil, fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			user := testUser()
			user.Roles = tc.roles

			f.app.Get("/protected", f.guard.RequireAccess, f.guard.RequireRoles(tc.required...), okHandler)

			pair, err := f.tokens.Generate(user)
			require.NoError(t, err)

			f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

			resp := f.request(t, map[string]string{guard.AccessTokenCookie: pair.AccessToken}, nil)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}

	t.Run("no guard ran first", func(t *testing.T) {
		f := newFixture(t)
		f.app.Get("/protected", f.guard.RequireRoles(domain.RoleAdmin), okHandler)

		resp := f.request(t, nil, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestGuard_Throttle(t *testing.T) {
	f := newFixture(t)
	f.app.Get("/protected", f.guard.Throttle, okHandler)

	resp := f.request(t, nil, map[string]string{"X-Real-IP": "10.0.0.5"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for i := 0; i < 5; i++ {
		f.th.RecordFailure("10.0.0.5")
	}

	resp = f.request(t, nil, map[string]string{"X-Real-IP": "10.0.0.5"})
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	// Other clients stay unaffected.
	resp = f.request(t, nil, map[string]string{"X-Real-IP": "10.0.0.6"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestClientKey(t *testing.T) {
	app := fiber.New()

	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = guard.ClientKey(c)
		return c.SendStatus(fiber.StatusOK)
	})

	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded-for wins", map[string]string{
			"X-Forwarded-For": "203.0.113.7, 10.0.0.1",
			"X-Real-IP":       "10.0.0.9",
		}, "203.0.113.7"},
		{"forwarded-for entry is trimmed", map[string]string{
			"X-Forwarded-For": "  203.0.113.7  ,10.0.0.1",
		}, "203.0.113.7"},
		{"real-ip fallback", map[string]string{
			"X-Real-IP": "10.0.0.9",
		}, "10.0.0.9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for name, value := range tc.headers {
				req.Header.Set(name, value)
			}

			_, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("peer address fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEmpty(t, got)
	})
}
