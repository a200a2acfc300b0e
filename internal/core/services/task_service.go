package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type taskService struct {
	repo ports.TaskRepository
}

func NewTaskService(repo ports.TaskRepository) ports.TaskService {
	return &taskService{repo: repo}
}

// Create validates the input and writes the task together with its initial
// assignments. When no explicit assignee list is given the creator alone is
// assigned; an explicit list is taken as-is, deduplicated.
func (s *taskService) Create(ctx context.Context, creatorID uuid.UUID, input ports.CreateTaskInput) (*domain.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if input.StartAt.IsZero() || input.EndAt.IsZero() {
		return nil, fmt.Errorf("%w: start_at and end_at are required", domain.ErrValidation)
	}
	if input.EndAt.Before(input.StartAt) {
		return nil, fmt.Errorf("%w: end_at must not precede start_at", domain.ErrValidation)
	}

	assignees := input.AssigneeIDs
	if len(assignees) == 0 {
		assignees = []uuid.UUID{creatorID}
	}
	assignees = dedupeIDs(assignees)

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
		Location:    input.Location,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Save(ctx, task, assignees); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	if err := s.requireAssigned(ctx, taskID, userID); err != nil {
		return nil, err
	}
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, taskID, userID uuid.UUID, input ports.UpdateTaskInput) (*domain.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if input.EndAt.Before(input.StartAt) {
		return nil, fmt.Errorf("%w: end_at must not precede start_at", domain.ErrValidation)
	}

	if err := s.requireAssigned(ctx, taskID, userID); err != nil {
		return nil, err
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = input.Title
	task.Description = input.Description
	task.StartAt = input.StartAt
	task.EndAt = input.EndAt
	task.Location = input.Location
	task.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// Delete removes the task; assignment rows go with it via the storage
// layer's cascade.
func (s *taskService) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	if err := s.requireAssigned(ctx, taskID, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, taskID)
}

func (s *taskService) ListForUser(ctx context.Context, userID uuid.UUID, q ports.ListTasksQuery) (*ports.TaskPage, error) {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = defaultPageSize
	}
	if q.Size > maxPageSize {
		q.Size = maxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = "start_at"
	}
	if q.SortOrder != "desc" {
		q.SortOrder = "asc"
	}

	items, total, err := s.repo.ListForUser(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	totalPages := total / q.Size
	if total%q.Size > 0 {
		totalPages++
	}

	return &ports.TaskPage{
		Items:      items,
		Page:       q.Page,
		Size:       q.Size,
		TotalItems: total,
		TotalPages: totalPages,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}, nil
}

func (s *taskService) Search(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error) {
	return s.repo.Search(ctx, userID, query)
}

func (s *taskService) Assign(ctx context.Context, taskID, actorID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return fmt.Errorf("%w: user_ids is required", domain.ErrValidation)
	}
	if err := s.requireAssigned(ctx, taskID, actorID); err != nil {
		return err
	}
	return s.repo.Assign(ctx, taskID, dedupeIDs(userIDs))
}

func (s *taskService) Unassign(ctx context.Context, taskID, actorID, userID uuid.UUID) error {
	if err := s.requireAssigned(ctx, taskID, actorID); err != nil {
		return err
	}
	return s.repo.Unassign(ctx, taskID, userID)
}

func (s *taskService) ListAssignees(ctx context.Context, taskID, actorID uuid.UUID) ([]*domain.User, error) {
	if err := s.requireAssigned(ctx, taskID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListAssignees(ctx, taskID)
}

// requireAssigned gates every per-task operation. Callers outside the
// assignment set get ErrTaskNotFound, so existence is never leaked.
func (s *taskService) requireAssigned(ctx context.Context, taskID, userID uuid.UUID) error {
	assigned, err := s.repo.IsAssigned(ctx, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return domain.ErrTaskNotFound
	}
	return nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
