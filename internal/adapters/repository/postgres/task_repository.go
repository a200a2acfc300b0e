package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

// sortColumns whitelists the columns a task list may be ordered by;
// anything else falls back to start_at.
var sortColumns = map[string]string{
	"title":      "title",
	"start_at":   "start_at",
	"end_at":     "end_at",
	"created_at": "created_at",
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) ports.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task, assigneeIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryTask := `
		INSERT INTO tasks (id, title, description, start_at, end_at, location, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, queryTask,
		task.ID, task.Title, task.Description, task.StartAt, task.EndAt, task.Location, task.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	queryAssignment := `
		INSERT INTO task_users (task_id, user_id)
		VALUES ($1, $2)
	`
	stmt, err := tx.PrepareContext(ctx, queryAssignment)
	if err != nil {
		return fmt.Errorf("failed to prepare assignment statement: %w", err)
	}
	defer stmt.Close()

	for _, userID := range assigneeIDs {
		if _, err := stmt.ExecContext(ctx, task.ID, userID); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, title, description, start_at, end_at, location, created_by, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	var task domain.Task
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.Title, &task.Description, &task.StartAt, &task.EndAt,
		&task.Location, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, start_at = $4, end_at = $5, location = $6, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.StartAt, task.EndAt, task.Location)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete removes the task row; task_users rows cascade at the schema level.
func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) ListForUser(ctx context.Context, userID uuid.UUID, q ports.ListTasksQuery) ([]*domain.Task, int, error) {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "start_at"
	}
	order := "ASC"
	if strings.EqualFold(q.SortOrder, "desc") {
		order = "DESC"
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM tasks t
		JOIN task_users tu ON tu.task_id = t.id
		WHERE tu.user_id = $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT t.id, t.title, t.description, t.start_at, t.end_at, t.location, t.created_by, t.created_at, t.updated_at
		FROM tasks t
		JOIN task_users tu ON tu.task_id = t.id
		WHERE tu.user_id = $1
		ORDER BY t.%s %s
		LIMIT $2 OFFSET $3
	`, column, order)

	rows, err := r.db.QueryContext(ctx, query, userID, q.Size, q.Page*q.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepository) Search(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error) {
	q := `
		SELECT t.id, t.title, t.description, t.start_at, t.end_at, t.location, t.created_by, t.created_at, t.updated_at
		FROM tasks t
		JOIN task_users tu ON tu.task_id = t.id
		WHERE tu.user_id = $1 AND (t.title ILIKE $2 OR t.description ILIKE $2)
		ORDER BY t.start_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q, userID, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *taskRepository) IsAssigned(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM task_users WHERE task_id = $1 AND user_id = $2)`
	var assigned bool
	if err := r.db.QueryRowContext(ctx, query, taskID, userID).Scan(&assigned); err != nil {
		return false, err
	}
	return assigned, nil
}

func (r *taskRepository) Assign(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO task_users (task_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare assignment statement: %w", err)
	}
	defer stmt.Close()

	for _, userID := range userIDs {
		if _, err := stmt.ExecContext(ctx, taskID, userID); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *taskRepository) Unassign(ctx context.Context, taskID, userID uuid.UUID) error {
	query := `DELETE FROM task_users WHERE task_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, taskID, userID)
	return err
}

func (r *taskRepository) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.created_at, u.updated_at
		FROM users u
		JOIN task_users tu ON tu.user_id = u.id
		WHERE tu.task_id = $1
		ORDER BY tu.created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignees: %w", err)
	}
	return users, nil
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		var task domain.Task
		err := rows.Scan(
			&task.ID, &task.Title, &task.Description, &task.StartAt, &task.EndAt,
			&task.Location, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}
