package ports

import (
	"context"

	"github.com/taskhub/api/internal/core/domain"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult carries the outcome of a successful register, login or
// refresh: the user plus a freshly minted token pair.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
}
