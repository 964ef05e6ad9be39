package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
)

const selectTasks = `
	SELECT
		t.id,
		t.title,
		t.description,
		t.due_date,
		t.priority,
		t.status,
		t.created_at,
		t.updated_at,
		t.version,
		ta.user_id
	FROM tasks t
	LEFT JOIN task_assignees ta ON t.id = ta.task_id
`

// buildTaskQuery turns filter into the WHERE clause of selectTasks. Assignee
// matching uses a sub-select so the join still returns every assignee of a
// matching task.
func buildTaskQuery(filter domain.TaskFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AssignedTo != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM task_assignees f WHERE f.task_id = t.id AND f.user_id = "+arg(filter.AssignedTo)+")")
	}
	if filter.Status != "" {
		conds = append(conds, "t.status = "+arg(string(filter.Status)))
	}
	if filter.Priority != "" {
		conds = append(conds, "t.priority = "+arg(string(filter.Priority)))
	}
	if filter.DueFrom != nil {
		conds = append(conds, "t.due_date >= "+arg(*filter.DueFrom))
	}
	if filter.DueTo != nil {
		conds = append(conds, "t.due_date <= "+arg(*filter.DueTo))
	}

	query := selectTasks
	if len(conds) > 0 {
		query += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	query += "ORDER BY t.due_date, t.id, ta.position"

	return query, args
}

// collectTasks folds the one-row-per-assignee join back into tasks, keeping
// the order the rows arrived in.
func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	byID := make(map[string]*domain.Task)

	for rows.Next() {
		var (
			task     domain.Task
			assignee sql.NullString
		)

		dst := []any{
			&task.ID,
			&task.Title,
			&task.Description,
			&task.DueDate,
			&task.Priority,
			&task.Status,
			&task.CreatedAt,
			&task.UpdatedAt,
			&task.Version,
			&assignee,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		current, exists := byID[task.ID]
		if !exists {
			task.AssignedTo = make([]string, 0)
			current = &task
			byID[task.ID] = current
			tasks = append(tasks, current)
		}

		// a task without assignees comes back as a single row with NULL
		if assignee.Valid {
			current.AssignedTo = append(current.AssignedTo, assignee.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *Repository) FindTasks(filter domain.TaskFilter) ([]*domain.Task, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query, args := buildTaskQuery(filter)

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *Repository) GetTaskByID(id string) (*domain.Task, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := selectTasks + "WHERE t.id = $1 ORDER BY ta.position"

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, domain.ErrNotFound
	}

	return tasks[0], nil
}

func (r *Repository) CreateTask(task *domain.Task) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO tasks (title, description, due_date, priority, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at, version
	`
	args := []any{task.Title, task.Description, task.DueDate, string(task.Priority), string(task.Status)}
	dst := []any{&task.ID, &task.CreatedAt, &task.UpdatedAt, &task.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	if err := insertAssignees(ctx, tx, task.ID, task.AssignedTo); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateTask overwrites every column and the assignee set. The version is
// bumped but not compared, so the last writer wins.
func (r *Repository) UpdateTask(task *domain.Task) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE tasks
		SET
			title = $1,
			description = $2,
			due_date = $3,
			priority = $4,
			status = $5,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $6
		RETURNING updated_at, version
	`
	args := []any{task.Title, task.Description, task.DueDate, string(task.Priority), string(task.Status), task.ID}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&task.UpdatedAt, &task.Version); err != nil {
		return translate(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, task.ID); err != nil {
		return err
	}
	if err := insertAssignees(ctx, tx, task.ID, task.AssignedTo); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteTask returns the row as it was just before deletion.
func (r *Repository) DeleteTask(id string) (*domain.Task, error) {
	task, err := r.GetTaskByID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.queryContext()
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}

	return task, nil
}

func insertAssignees(ctx context.Context, tx *sql.Tx, taskID string, userIDs []string) error {
	for i, userID := range userIDs {
		query := `
			INSERT INTO task_assignees (task_id, user_id, position)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, taskID, userID, i); err != nil {
			return err
		}
	}
	return nil
}
