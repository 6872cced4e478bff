package file

import (
	"context"
	"path/filepath"
	"time"

	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/persistence"
)

// WorkflowRepository stores running workflows as JSON documents under
// workflows/.
type WorkflowRepository struct {
	store *store
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	var wf models.Workflow

	found, err := r.store.read(filepath.Join("workflows", id+".json"), &wf)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	if !found {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return &wf, nil
}

func (r *WorkflowRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Workflow, error) {
	return r.listWhere(ctx, func(wf *models.Workflow) bool {
		return wf.AccountID == accountID
	})
}

func (r *WorkflowRepository) ListRunningByTemplate(ctx context.Context, templateID string) ([]*models.Workflow, error) {
	return r.listWhere(ctx, func(wf *models.Workflow) bool {
		return wf.TemplateID == templateID && !wf.Status.IsTerminal()
	})
}

func (r *WorkflowRepository) ListDelayedBefore(ctx context.Context, t time.Time) ([]*models.Workflow, error) {
	return r.listWhere(ctx, func(wf *models.Workflow) bool {
		return wf.Status == models.WorkflowStatusDelayed && wf.ResumeAt != nil && !wf.ResumeAt.After(t)
	})
}

func (r *WorkflowRepository) Save(_ context.Context, wf *models.Workflow) error {
	if err := r.store.write(filepath.Join("workflows", wf.ID+".json"), wf); err != nil {
		return persistence.NewWorkflowError("Save", wf.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	if err := r.store.remove(filepath.Join("workflows", id+".json")); err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

func (r *WorkflowRepository) listWhere(ctx context.Context, keep func(*models.Workflow) bool) ([]*models.Workflow, error) {
	ids, err := r.store.list("workflows")
	if err != nil {
		return nil, persistence.NewWorkflowError("List", "", err)
	}

	var out []*models.Workflow

	for _, id := range ids {
		wf, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if keep(wf) {
			out = append(out, wf)
		}
	}

	return out, nil
}
