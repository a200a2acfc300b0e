package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

type AuthService struct {
	userRepo   ports.UserRepository
	issuer     *TokenIssuer
	bcryptCost int
}

func NewAuthService(userRepo ports.UserRepository, issuer *TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		issuer:     issuer,
		bcryptCost: bcryptCost,
	}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: passwordHash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh trades a presented refresh token for a new token pair. The stored
// token is replaced, so each refresh token is usable exactly once; a token
// that never existed and one already rotated out fail identically.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResult, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByRefreshTokenHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user)
}

// Logout clears the stored refresh token. Best effort: an unknown token
// is not an error, the client's cookies are cleared either way.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	user, err := s.userRepo.GetByRefreshTokenHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if user == nil {
		return nil
	}

	return s.userRepo.SetRefreshTokenHash(ctx, user.ID, nil)
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*ports.AuthResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.issuer.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	tokenHash := HashRefreshToken(refreshToken)
	if err := s.userRepo.SetRefreshTokenHash(ctx, user.ID, &tokenHash); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &ports.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func validateRegistration(input ports.RegisterInput) error {
	if strings.TrimSpace(input.Username) == "" {
		return fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	if len(input.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}
	return nil
}
