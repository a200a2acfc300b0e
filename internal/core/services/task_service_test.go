package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

type fakeTaskRepo struct {
	tasks       map[uuid.UUID]*domain.Task
	assignments map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks:       make(map[uuid.UUID]*domain.Task),
		assignments: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (r *fakeTaskRepo) Save(_ context.Context, task *domain.Task, assigneeIDs []uuid.UUID) error {
	copied := *task
	r.tasks[task.ID] = &copied
	r.assignments[task.ID] = make(map[uuid.UUID]bool)
	for _, userID := range assigneeIDs {
		r.assignments[task.ID][userID] = true
	}
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	delete(r.assignments, id)
	return nil
}

func (r *fakeTaskRepo) ListForUser(_ context.Context, userID uuid.UUID, q ports.ListTasksQuery) ([]*domain.Task, int, error) {
	var all []*domain.Task
	for taskID, users := range r.assignments {
		if users[userID] {
			copied := *r.tasks[taskID]
			all = append(all, &copied)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartAt.Before(all[j].StartAt) })

	total := len(all)
	start := q.Page * q.Size
	if start > total {
		start = total
	}
	end := start + q.Size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *fakeTaskRepo) Search(_ context.Context, userID uuid.UUID, _ string) ([]*domain.Task, error) {
	items, _, err := r.ListForUser(context.Background(), userID, ports.ListTasksQuery{Size: 100})
	return items, err
}

func (r *fakeTaskRepo) IsAssigned(_ context.Context, taskID, userID uuid.UUID) (bool, error) {
	return r.assignments[taskID][userID], nil
}

func (r *fakeTaskRepo) Assign(_ context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	for _, userID := range userIDs {
		r.assignments[taskID][userID] = true
	}
	return nil
}

func (r *fakeTaskRepo) Unassign(_ context.Context, taskID, userID uuid.UUID) error {
	delete(r.assignments[taskID], userID)
	return nil
}

func (r *fakeTaskRepo) ListAssignees(_ context.Context, taskID uuid.UUID) ([]*domain.User, error) {
	var users []*domain.User
	for userID := range r.assignments[taskID] {
		users = append(users, &domain.User{ID: userID})
	}
	return users, nil
}

func validTaskInput() ports.CreateTaskInput {
	return ports.CreateTaskInput{
		Title:   "standup",
		StartAt: time.Now(),
		EndAt:   time.Now().Add(30 * time.Minute),
	}
}

func TestCreateTaskDefaultsAssigneeToCreator(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo)
	creator := uuid.New()

	task, err := svc.Create(ctx, creator, validTaskInput())
	require.NoError(t, err)
	assert.Equal(t, creator, task.CreatedBy)

	assignees := repo.assignments[task.ID]
	assert.Len(t, assignees, 1)
	assert.True(t, assignees[creator])
}

func TestCreateTaskExplicitAssignees(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo)
	alice, bob := uuid.New(), uuid.New()

	input := validTaskInput()
	input.AssigneeIDs = []uuid.UUID{alice, bob, bob}

	task, err := svc.Create(ctx, alice, input)
	require.NoError(t, err)

	assignees := repo.assignments[task.ID]
	assert.Len(t, assignees, 2)
	assert.True(t, assignees[alice])
	assert.True(t, assignees[bob])
}

func TestCreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewTaskService(newFakeTaskRepo())
	creator := uuid.New()

	t.Run("missing title", func(t *testing.T) {
		input := validTaskInput()
		input.Title = ""
		_, err := svc.Create(ctx, creator, input)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing dates", func(t *testing.T) {
		input := validTaskInput()
		input.StartAt = time.Time{}
		_, err := svc.Create(ctx, creator, input)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("end before start", func(t *testing.T) {
		input := validTaskInput()
		input.EndAt = input.StartAt.Add(-time.Hour)
		_, err := svc.Create(ctx, creator, input)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestTaskAccessRequiresAssignment(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo)
	alice, carol := uuid.New(), uuid.New()

	task, err := svc.Create(ctx, alice, validTaskInput())
	require.NoError(t, err)

	// Assigned user can read.
	_, err = svc.Get(ctx, task.ID, alice)
	require.NoError(t, err)

	// Unassigned users are told the task does not exist.
	_, err = svc.Get(ctx, task.ID, carol)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = svc.Update(ctx, task.ID, carol, ports.UpdateTaskInput{
		Title: "hijack", StartAt: task.StartAt, EndAt: task.EndAt,
	})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = svc.Delete(ctx, task.ID, carol)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = svc.Assign(ctx, task.ID, carol, []uuid.UUID{carol})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = svc.ListAssignees(ctx, task.ID, carol)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo)
	alice := uuid.New()

	task, err := svc.Create(ctx, alice, validTaskInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, task.ID, alice, ports.UpdateTaskInput{
		Title:    "planning",
		StartAt:  task.StartAt,
		EndAt:    task.EndAt,
		Location: "room 2",
	})
	require.NoError(t, err)
	assert.Equal(t, "planning", updated.Title)
	assert.Equal(t, "room 2", updated.Location)
}

func TestAssignUnassign(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo)
	alice, bob := uuid.New(), uuid.New()

	task, err := svc.Create(ctx, alice, validTaskInput())
	require.NoError(t, err)

	require.NoError(t, svc.Assign(ctx, task.ID, alice, []uuid.UUID{bob}))

	// Bob now has full access.
	_, err = svc.Get(ctx, task.ID, bob)
	require.NoError(t, err)

	require.NoError(t, svc.Unassign(ctx, task.ID, alice, bob))
	_, err = svc.Get(ctx, task.ID, bob)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestListForUserPagination(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo)
	alice := uuid.New()

	for i := 0; i < 7; i++ {
		input := validTaskInput()
		input.StartAt = time.Now().Add(time.Duration(i) * time.Hour)
		input.EndAt = input.StartAt.Add(time.Hour)
		_, err := svc.Create(ctx, alice, input)
		require.NoError(t, err)
	}

	page, err := svc.ListForUser(ctx, alice, ports.ListTasksQuery{Page: 0, Size: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 7, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)

	last, err := svc.ListForUser(ctx, alice, ports.ListTasksQuery{Page: 2, Size: 3})
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)

	// Defaults kick in for a zero-value query.
	defaults, err := svc.ListForUser(ctx, alice, ports.ListTasksQuery{})
	require.NoError(t, err)
	assert.Equal(t, 10, defaults.Size)
	assert.Equal(t, "start_at", defaults.SortBy)
	assert.Equal(t, "asc", defaults.SortOrder)
}
