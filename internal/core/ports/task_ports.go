package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
)

type TaskRepository interface {
	// Save inserts the task and its initial assignments in a single
	// transaction so a partial failure leaves no orphaned task.
	Save(ctx context.Context, task *domain.Task, assigneeIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, q ListTasksQuery) ([]*domain.Task, int, error)
	Search(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error)
	IsAssigned(ctx context.Context, taskID, userID uuid.UUID) (bool, error)
	Assign(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	Unassign(ctx context.Context, taskID, userID uuid.UUID) error
	ListAssignees(ctx context.Context, taskID uuid.UUID) ([]*domain.User, error)
}

type ListTasksQuery struct {
	Page      int
	Size      int
	SortBy    string
	SortOrder string
}

type CreateTaskInput struct {
	Title       string
	Description string
	StartAt     time.Time
	EndAt       time.Time
	Location    string
	AssigneeIDs []uuid.UUID
}

type UpdateTaskInput struct {
	Title       string
	Description string
	StartAt     time.Time
	EndAt       time.Time
	Location    string
}

type TaskPage struct {
	Items      []*domain.Task
	Page       int
	Size       int
	TotalItems int
	TotalPages int
	SortBy     string
	SortOrder  string
}

type TaskService interface {
	Create(ctx context.Context, creatorID uuid.UUID, input CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, taskID, userID uuid.UUID, input UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, taskID, userID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, q ListTasksQuery) (*TaskPage, error)
	Search(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error)
	Assign(ctx context.Context, taskID, actorID uuid.UUID, userIDs []uuid.UUID) error
	Unassign(ctx context.Context, taskID, actorID, userID uuid.UUID) error
	ListAssignees(ctx context.Context, taskID, actorID uuid.UUID) ([]*domain.User, error)
}
