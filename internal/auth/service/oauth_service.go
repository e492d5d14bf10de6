package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
	autherror "github.com/gab-cat/auth-gateway/internal/errors"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthService exchanges an authorization code for a verified Google
// profile and funnels it into the regular login path. Provider specifics
// end here; everything downstream sees an ordinary user.
type OAuthService struct {
	oauthConfig *oauth2.Config
	users       *UserService

	userInfoURL string
}

type googleProfile struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
}

func NewOAuthService(clientID, clientSecret, redirectURL string, users *UserService) *OAuthService {
	return &OAuthService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		},
		users:       users,
		userInfoURL: googleUserInfoURL,
	}
}

// Enabled reports whether OAuth credentials were configured.
func (s *OAuthService) Enabled() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != ""
}

// AuthCodeURL builds the consent-screen redirect for the given CSRF state.
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// HandleCallback exchanges the code, fetches the profile and returns the
// matching (or freshly created) user together with a new token pair.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (*domain.User, *domain.TokenPair, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("oauth code exchange failed: %w", err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	if profile.Email == "" || !profile.VerifiedEmail {
		return nil, nil, fmt.Errorf("oauth profile has no verified email: %w", autherror.ErrInvalidCredentials)
	}

	user, err := s.users.GetOrCreateByEmail(ctx, profile.Email)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.users.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

func (s *OAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	client := s.oauthConfig.Client(ctx, token)

	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oauth profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth profile endpoint returned %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode oauth profile: %w", err)
	}

	return &profile, nil
}
