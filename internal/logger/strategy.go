package logger

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
	"github.com/gab-cat/auth-gateway/internal/auth/service"
	autherror "github.com/gab-cat/auth-gateway/internal/errors"
)

// Handshake carries the raw headers from a websocket upgrade request.
// Strategies are pure functions over it and share no state.
type Handshake struct {
	CookieHeader  string
	Authorization string
}

// Strategy is one way for an observer to prove its identity. Strategies
// are tried in order; first success wins.
type Strategy interface {
	Authenticate(ctx context.Context, hs Handshake) (*domain.User, error)
}

type AccessVerifier interface {
	VerifyAccessToken(tokenString string) (*service.JWTCustomClaims, error)
}

type IdentityLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type CredentialVerifier interface {
	VerifyUser(ctx context.Context, email, password string) (*domain.User, error)
}

// TokenStrategy authenticates with the same access-token cookie the
// browser session already holds.
type TokenStrategy struct {
	verifier   AccessVerifier
	users      IdentityLoader
	cookieName string
}

func NewTokenStrategy(verifier AccessVerifier, users IdentityLoader, cookieName string) *TokenStrategy {
	return &TokenStrategy{verifier: verifier, users: users, cookieName: cookieName}
}

func (s *TokenStrategy) Authenticate(ctx context.Context, hs Handshake) (*domain.User, error) {
	token := parseCookies(hs.CookieHeader)[s.cookieName]
	if token == "" {
		return nil, autherror.ErrObserverAuthFailed
	}

	claims, err := s.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	return user, nil
}

// BasicStrategy lets cookie-less tooling authenticate with raw
// credentials via an HTTP Basic header.
type BasicStrategy struct {
	verifier CredentialVerifier
}

func NewBasicStrategy(verifier CredentialVerifier) *BasicStrategy {
	return &BasicStrategy{verifier: verifier}
}

func (s *BasicStrategy) Authenticate(ctx context.Context, hs Handshake) (*domain.User, error) {
	const prefix = "Basic "

	if !strings.HasPrefix(hs.Authorization, prefix) {
		return nil, autherror.ErrObserverAuthFailed
	}

	decoded, err := base64.StdEncoding.DecodeString(hs.Authorization[len(prefix):])
	if err != nil {
		return nil, autherror.ErrObserverAuthFailed
	}

	email, password, found := strings.Cut(string(decoded), ":")
	if !found || email == "" || password == "" {
		return nil, autherror.ErrObserverAuthFailed
	}

	return s.verifier.VerifyUser(ctx, email, password)
}

func parseCookies(cookieHeader string) map[string]string {
	cookies := make(map[string]string)
	if cookieHeader == "" {
		return cookies
	}

	for _, part := range strings.Split(cookieHeader, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || key == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		cookies[key] = value
	}

	return cookies
}
