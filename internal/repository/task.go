package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spinloot_backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type taskRow struct {
	TaskID         string         `db:"task_id"`
	Title          string         `db:"title"`
	Description    string         `db:"description"`
	Points         int            `db:"points"`
	MaxCompletions int            `db:"max_completions"`
	Type           string         `db:"type"`
	Action         string         `db:"action"`
	Link           string         `db:"link"`
	IsActive       bool           `db:"is_active"`
	Category       string         `db:"category"`
	Requirements   pq.StringArray `db:"requirements"`
	StartDate      time.Time      `db:"start_date"`
	EndDate        *time.Time     `db:"end_date"`
	Order          int            `db:"sort_order"`
}

func (row *taskRow) toModel() *model.Task {
	return &model.Task{
		TaskID:         row.TaskID,
		Title:          row.Title,
		Description:    row.Description,
		Points:         row.Points,
		MaxCompletions: row.MaxCompletions,
		Type:           model.TaskType(row.Type),
		Action:         row.Action,
		Link:           row.Link,
		IsActive:       row.IsActive,
		Category:       model.TaskCategory(row.Category),
		Requirements:   row.Requirements,
		StartDate:      row.StartDate,
		EndDate:        row.EndDate,
		Order:          row.Order,
	}
}

// GetActiveTasks lists active catalog entries whose window has not
// closed, in display order.
func (r *Repository) GetActiveTasks(ctx context.Context) ([]*model.Task, error) {
	query, args, err := squirrel.
		Select("*").
		From("tasks").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Or{
			squirrel.Eq{"end_date": nil},
			squirrel.Gt{"end_date": time.Now().UTC()},
		}).
		OrderBy("sort_order").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []taskRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tasks: %w", err)
	}

	tasks := make([]*model.Task, len(rows))
	for i := range rows {
		tasks[i] = rows[i].toModel()
	}

	return tasks, nil
}

func (r *Repository) GetTaskByID(ctx context.Context, taskID string) (*model.Task, error) {
	query, args, err := squirrel.
		Select("*").
		From("tasks").
		Where(squirrel.Eq{"task_id": taskID, "is_active": true}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row taskRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func upsertTaskSQL(task *model.Task) (string, []interface{}, error) {
	return squirrel.
		Insert("tasks").
		SetMap(map[string]interface{}{
			"task_id":         task.TaskID,
			"title":           task.Title,
			"description":     task.Description,
			"points":          task.Points,
			"max_completions": task.MaxCompletions,
			"type":            string(task.Type),
			"action":          task.Action,
			"link":            task.Link,
			"is_active":       task.IsActive,
			"category":        string(task.Category),
			"requirements":    pq.StringArray(task.Requirements),
			"start_date":      task.StartDate,
			"end_date":        task.EndDate,
			"sort_order":      task.Order,
		}).
		Suffix(`ON CONFLICT (task_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			points = EXCLUDED.points,
			max_completions = EXCLUDED.max_completions,
			type = EXCLUDED.type,
			action = EXCLUDED.action,
			link = EXCLUDED.link,
			is_active = EXCLUDED.is_active,
			category = EXCLUDED.category,
			requirements = EXCLUDED.requirements,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			sort_order = EXCLUDED.sort_order`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

// UpsertTask inserts or replaces a single catalog entry.
func (r *Repository) UpsertTask(ctx context.Context, task *model.Task) error {
	query, args, err := upsertTaskSQL(task)
	if err != nil {
		return fmt.Errorf("failed to build task upsert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}

	return nil
}

// SeedTasks writes the whole catalog in one transaction so a partial
// seed never goes live.
func (r *Repository) SeedTasks(ctx context.Context, tasks []model.Task) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		for i := range tasks {
			query, args, err := upsertTaskSQL(&tasks[i])
			if err != nil {
				return fmt.Errorf("failed to build task upsert query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to upsert task %q: %w", tasks[i].TaskID, err)
			}
		}
		return nil
	})
}
