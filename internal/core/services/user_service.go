package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

type UserService struct {
	repo       ports.UserRepository
	bcryptCost int
}

func NewUserService(repo ports.UserRepository, bcryptCost int) *UserService {
	return &UserService{repo: repo, bcryptCost: bcryptCost}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update changes profile fields. The password is re-hashed only when a
// new one is supplied; an empty password leaves the stored hash alone.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if input.Username != "" {
		user.Username = input.Username
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return nil, fmt.Errorf("%w: invalid email address", domain.ErrValidation)
		}
		user.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if input.Password != "" {
		if len(input.Password) < 6 {
			return nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
		}
		hash, err := HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return s.repo.Delete(ctx, id)
}
