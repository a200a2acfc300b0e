package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
)

type UpdateUserInput struct {
	Username string
	Email    string
	Password string
}

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
