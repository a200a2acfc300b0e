package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByRefreshTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, tokenHash *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
