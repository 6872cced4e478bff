package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/persistence"
)

// WorkflowRepository handles workflow database operations. The workflow
// document (tasks, field values, performers) is stored as JSONB; status and
// resume_at are duplicated as columns so the migrator and the delay sweeper
// can filter without decoding documents.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT
			data
		FROM workflows
		WHERE id = $1
	`

	var data []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, fmt.Errorf("failed to query workflow: %w", err))
	}

	var workflow models.Workflow

	err = json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, fmt.Errorf("failed to decode workflow: %w", err))
	}

	return &workflow, nil
}

func (r *WorkflowRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Workflow, error) {
	query := `
		SELECT
			data
		FROM workflows
		WHERE account_id = $1
		ORDER BY date_created DESC
	`

	return r.queryWorkflows(ctx, query, accountID)
}

func (r *WorkflowRepository) ListRunningByTemplate(ctx context.Context, templateID string) ([]*models.Workflow, error) {
	query := `
		SELECT
			data
		FROM workflows
		WHERE template_id = $1
		  AND status IN ($2, $3)
		ORDER BY date_created
	`

	return r.queryWorkflows(ctx, query, templateID, models.WorkflowStatusActive, models.WorkflowStatusDelayed)
}

func (r *WorkflowRepository) ListDelayedBefore(ctx context.Context, t time.Time) ([]*models.Workflow, error) {
	query := `
		SELECT
			data
		FROM workflows
		WHERE status = $1
		  AND resume_at IS NOT NULL
		  AND resume_at <= $2
		ORDER BY resume_at
	`

	return r.queryWorkflows(ctx, query, models.WorkflowStatusDelayed, t)
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	data, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to encode workflow: %w", err))
	}

	query := `
		INSERT INTO workflows (id, account_id, template_id, status, resume_at, data, date_created, date_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			resume_at = EXCLUDED.resume_at,
			data = EXCLUDED.data,
			date_completed = EXCLUDED.date_completed
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.AccountID,
		workflow.TemplateID,
		workflow.Status,
		workflow.ResumeAt,
		data,
		workflow.DateCreated,
		workflow.DateCompleted,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to save workflow: %w", err))
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, fmt.Errorf("failed to delete workflow: %w", err))
	}

	return nil
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		var data []byte

		err := rows.Scan(&data)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		var workflow models.Workflow

		err = json.Unmarshal(data, &workflow)
		if err != nil {
			return nil, fmt.Errorf("failed to decode workflow: %w", err)
		}

		workflows = append(workflows, &workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}
