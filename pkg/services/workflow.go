package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowlineio/flowline/pkg/engine"
	"github.com/flowlineio/flowline/pkg/eventbus"
	"github.com/flowlineio/flowline/pkg/events"
	"github.com/flowlineio/flowline/pkg/locker"
	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/otelhelper"
	"github.com/flowlineio/flowline/pkg/persistence"
)

// Workflow drives running workflows: starting them from the latest template
// version and serializing every mutation under the workflow's lock.
type Workflow struct {
	persistence persistence.Persistence
	runner      *engine.Runner
	publisher   eventbus.EventPublisher
	locker      locker.Locker
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(
	p persistence.Persistence,
	publisher eventbus.EventPublisher,
	l locker.Locker,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		persistence: p,
		runner:      engine.NewRunner(logger),
		publisher:   publisher,
		locker:      l,
		tracer:      tracer,
		logger:      logger,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// RunRequest starts a workflow from a template.
type RunRequest struct {
	TemplateID string
	StarterID  string
	Name       string
	Kickoff    models.FieldValues
}

// Run starts a new workflow from the latest published version of the
// template.
func (s *Workflow) Run(ctx context.Context, req RunRequest) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "workflow.run",
		attribute.String(otelhelper.TemplateIDKey, req.TemplateID),
		attribute.String(otelhelper.UserIDKey, req.StarterID),
	)
	defer span.End()

	tpl, err := s.persistence.Templates().GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	if !tpl.IsActive {
		return nil, ErrTemplateInactive
	}

	v, err := s.persistence.Templates().LatestVersion(ctx, tpl.ID)
	if err != nil {
		if persistence.IsVersionNotFound(err) {
			return nil, ErrNoVersions
		}

		return nil, err
	}

	_, env, err := directory(ctx, s.persistence, tpl.AccountID)
	if err != nil {
		return nil, err
	}

	wf := &models.Workflow{
		ID:         uuid.NewString(),
		AccountID:  tpl.AccountID,
		TemplateID: tpl.ID,
		Name:       req.Name,
		Version:    v.Version,
		StarterID:  req.StarterID,
		Fields:     make(models.FieldValues),
	}

	evs, err := s.runner.Start(wf, v.Data, req.Kickoff, env)
	if err != nil {
		return nil, err
	}

	if err := s.persistence.Workflows().Save(ctx, wf); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, wf.ID, evs)

	s.logger.InfoContext(ctx, "Started workflow",
		"workflow_id", wf.ID, "template_id", tpl.ID, "version", v.Version)

	return wf, nil
}

// CompleteTask records a performer's completion of the workflow's current
// task and advances the workflow.
func (s *Workflow) CompleteTask(ctx context.Context, workflowID, userID string, values models.FieldValues) (*models.Workflow, error) {
	return s.mutate(ctx, "workflow.complete_task", workflowID,
		func(wf *models.Workflow, env engine.Env) ([]events.Event, error) {
			return s.runner.CompleteTaskForUser(wf, userID, values, env)
		})
}

// ReturnTo moves the workflow back to an earlier completed task.
func (s *Workflow) ReturnTo(ctx context.Context, workflowID, targetAPIName, userID string) (*models.Workflow, error) {
	return s.mutate(ctx, "workflow.return_to", workflowID,
		func(wf *models.Workflow, env engine.Env) ([]events.Event, error) {
			return s.runner.ReturnTo(wf, targetAPIName, userID, env)
		})
}

// MarkChecklistItem marks one required checklist item of the workflow's
// current task on behalf of a performer.
func (s *Workflow) MarkChecklistItem(ctx context.Context, workflowID, userID, item string) (*models.Workflow, error) {
	return s.mutate(ctx, "workflow.mark_checklist_item", workflowID,
		func(wf *models.Workflow, env engine.Env) ([]events.Event, error) {
			return s.runner.MarkChecklistItem(wf, userID, item, env)
		})
}

// Revert moves the workflow back along the current task's revert edge.
func (s *Workflow) Revert(ctx context.Context, workflowID, userID string) (*models.Workflow, error) {
	return s.mutate(ctx, "workflow.revert", workflowID,
		func(wf *models.Workflow, env engine.Env) ([]events.Event, error) {
			return s.runner.Revert(wf, userID, env)
		})
}

// Resume re-enters a delayed workflow once its resume time has passed. The
// sweeper calls this; it is also exposed for manual resumption.
func (s *Workflow) Resume(ctx context.Context, workflowID string) (*models.Workflow, error) {
	return s.mutate(ctx, "workflow.resume", workflowID,
		func(wf *models.Workflow, env engine.Env) ([]events.Event, error) {
			return s.runner.Resume(wf, env)
		})
}

// FetchByID retrieves a workflow by its ID.
func (s *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.Workflows().GetByID(ctx, id)
}

// List retrieves all workflows of an account.
func (s *Workflow) List(ctx context.Context, accountID string) ([]*models.Workflow, error) {
	return s.persistence.Workflows().ListByAccount(ctx, accountID)
}

// ListDelayedBefore returns delayed workflows that are due to resume.
func (s *Workflow) ListDelayedBefore(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.Workflows().ListDelayedBefore(ctx, time.Now().UTC())
}

// mutate loads the workflow under its lock, applies the engine operation and
// saves the result. Events are published only after the save succeeds.
func (s *Workflow) mutate(
	ctx context.Context,
	op, workflowID string,
	fn func(wf *models.Workflow, env engine.Env) ([]events.Event, error),
) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, op,
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	release, err := s.locker.Acquire(ctx, workflowID, lockTTL)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := release(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to release workflow lock",
				"workflow_id", workflowID, "error", err)
		}
	}()

	wf, err := s.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	_, env, err := directory(ctx, s.persistence, wf.AccountID)
	if err != nil {
		return nil, err
	}

	evs, err := fn(wf, env)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := s.persistence.Workflows().Save(ctx, wf); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, wf.ID, evs)

	return wf, nil
}

func (s *Workflow) publishEvents(ctx context.Context, key string, evs []events.Event) {
	if s.publisher == nil {
		return
	}

	for _, event := range evs {
		if err := s.publisher.Publish(ctx, key, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish event",
				"event_type", event.GetType(), "key", key, "error", err)
		}
	}
}
