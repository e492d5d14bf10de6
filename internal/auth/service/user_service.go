package service

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/gab-cat/auth-gateway/internal/auth/domain UserRepository

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gab-cat/auth-gateway/internal/auth/domain"
	"github.com/gab-cat/auth-gateway/internal/auth/dto"
	"github.com/gab-cat/auth-gateway/internal/auth/throttle"
	autherror "github.com/gab-cat/auth-gateway/internal/errors"
)

type UserService struct {
	repo         domain.UserRepository
	tokenService TokenGenerator
	throttle     *throttle.Throttle
}

func NewUserService(repo domain.UserRepository, tokenService TokenGenerator, throttle *throttle.Throttle) *UserService {
	return &UserService{
		repo:         repo,
		tokenService: tokenService,
		throttle:     throttle,
	}
}

// VerifyUser checks email+password against the repository. It is
// side-effect free and never distinguishes an unknown email from a wrong
// password; throttle bookkeeping belongs to the caller.
func (s *UserService) VerifyUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, autherror.ErrInvalidCredentials
	}

	return user, nil
}

// Login runs the full pipeline: throttle pre-check, credential
// verification, throttle bookkeeping, token issuance. Failure recording
// runs on every verifier error, repository errors included, so the caller
// learns nothing beyond "invalid credentials".
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*domain.TokenPair, error) {
	if !s.throttle.Allow(input.ClientKey) {
		return nil, s.throttledError(input.ClientKey)
	}

	user, err := s.VerifyUser(ctx, input.Email, input.Password)
	if err != nil {
		count := s.throttle.RecordFailure(input.ClientKey)

		if count >= s.throttle.MaxAttempts() {
			return nil, s.throttledError(input.ClientKey)
		}

		return nil, fmt.Errorf("%w. %d attempts remaining before temporary lockout",
			autherror.ErrInvalidCredentials, s.throttle.MaxAttempts()-count)
	}

	s.throttle.RecordSuccess(input.ClientKey)

	return s.IssueTokens(ctx, user)
}

// IssueTokens mints a fresh pair and overwrites the stored refresh-token
// hash. The previous refresh token stays cryptographically valid until its
// own expiry; only the reference is replaced.
func (s *UserService) IssueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	pair, err := s.tokenService.Generate(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRefreshTokenHash(ctx, user.ID, hashToken(pair.RefreshToken)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token hash: %w", err)
	}

	return pair, nil
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	existingUser, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Roles:        []domain.Role{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetOrCreateByEmail funnels an OAuth-verified profile into the same user
// record a password login would use. A user created this way gets a random
// unguessable password so the account stays OAuth-only until a password
// reset.
func (s *UserService) GetOrCreateByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	return s.Register(ctx, dto.RegisterInput{
		Email:    email,
		Password: uuid.New().String(),
	})
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// Logout clears the stored refresh-token hash. Cookie clearing is the
// transport layer's job.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.repo.UpdateRefreshTokenHash(ctx, userID, "")
}

func (s *UserService) throttledError(clientKey string) error {
	minutes := int(math.Ceil(s.throttle.RemainingBlockTime(clientKey).Minutes()))
	return fmt.Errorf("%w. Account temporarily locked for %d minutes",
		autherror.ErrTooManyLoginAttempts, minutes)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
