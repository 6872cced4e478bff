package services

import (
	"context"
	"fmt"
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
	"github.com/flowlineio/flowline/pkg/validation"
	"github.com/flowlineio/flowline/pkg/version"
)

const lockTTL = 30 * time.Second

// Template handles template authoring, version publishing and live migration
// of running workflows onto the new version.
type Template struct {
	persistence persistence.Persistence
	validator   *validation.Validator
	migrator    *version.Migrator
	publisher   eventbus.EventPublisher
	locker      locker.Locker
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewTemplate creates a new template service.
func NewTemplate(
	p persistence.Persistence,
	publisher eventbus.EventPublisher,
	l locker.Locker,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Template {
	return &Template{
		persistence: p,
		validator:   validation.New(),
		migrator:    version.NewMigrator(logger),
		publisher:   publisher,
		locker:      l,
		tracer:      tracer,
		logger:      logger,
	}
}

// Create validates and saves a new template and publishes its first version.
func (s *Template) Create(ctx context.Context, tpl *models.Template) (*models.Template, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "template.create",
		attribute.String(otelhelper.AccountIDKey, tpl.AccountID),
	)
	defer span.End()

	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}

	tpl.Version = 0

	if _, err := s.publish(ctx, tpl); err != nil {
		return nil, err
	}

	return tpl, nil
}

// Update validates and saves a template edit as a new immutable version, then
// migrates every running workflow of the template onto it.
func (s *Template) Update(ctx context.Context, templateID string, tpl *models.Template) (*models.Template, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "template.update",
		attribute.String(otelhelper.TemplateIDKey, templateID),
	)
	defer span.End()

	existing, err := s.persistence.Templates().GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	tpl.ID = existing.ID
	tpl.AccountID = existing.AccountID
	tpl.Version = existing.Version
	tpl.CreatedAt = existing.CreatedAt

	v, err := s.publish(ctx, tpl)
	if err != nil {
		return nil, err
	}

	if err := s.migrateRunning(ctx, tpl, v); err != nil {
		return nil, err
	}

	return tpl, nil
}

// publish runs validation, snapshots the template into the next version and
// persists both. The template's Version field ends up at the new snapshot.
func (s *Template) publish(ctx context.Context, tpl *models.Template) (*models.TemplateVersion, error) {
	account, _, err := directory(ctx, s.persistence, tpl.AccountID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateTemplate(tpl, account); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	v, err := version.Snapshot(tpl, now)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot template: %w", err)
	}

	tpl.Version = v.Version

	if err := s.persistence.Templates().Save(ctx, tpl); err != nil {
		return nil, err
	}

	v.TemplateID = tpl.ID

	if err := s.persistence.Templates().SaveVersion(ctx, v); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, tpl.ID, events.TemplateVersionPublished{
		BaseEvent: events.BaseEvent{
			ID:        uuid.NewString(),
			Type:      events.TemplateVersionPublishedEvent,
			Timestamp: now,
			AccountID: tpl.AccountID,
		},
		TemplateID: tpl.ID,
		Version:    v.Version,
	})

	s.logger.InfoContext(ctx, "Published template version",
		"template_id", tpl.ID, "version", v.Version)

	return v, nil
}

// migrateRunning applies the new version to every non-terminal workflow of
// the template, one workflow at a time under its lock. A failed workflow is
// logged and skipped so one bad run never blocks the publish.
func (s *Template) migrateRunning(ctx context.Context, tpl *models.Template, v *models.TemplateVersion) error {
	running, err := s.persistence.Workflows().ListRunningByTemplate(ctx, tpl.ID)
	if err != nil {
		return fmt.Errorf("failed to list running workflows: %w", err)
	}

	_, env, err := directory(ctx, s.persistence, tpl.AccountID)
	if err != nil {
		return err
	}

	for _, stale := range running {
		err := s.migrateOne(ctx, stale.ID, v, env)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to migrate workflow",
				"workflow_id", stale.ID, "version", v.Version, "error", err)
		}
	}

	return nil
}

func (s *Template) migrateOne(ctx context.Context, workflowID string, v *models.TemplateVersion, env engine.Env) error {
	release, err := s.locker.Acquire(ctx, workflowID, lockTTL)
	if err != nil {
		return err
	}

	defer func() {
		if err := release(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to release workflow lock",
				"workflow_id", workflowID, "error", err)
		}
	}()

	wf, err := s.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return err
	}

	evs, err := s.migrator.UpdateFromVersion(wf, v, env)
	if err != nil {
		return err
	}

	if err := s.persistence.Workflows().Save(ctx, wf); err != nil {
		return err
	}

	s.publishEvents(ctx, wf.ID, evs)

	return nil
}

// FetchByID retrieves a template by its ID.
func (s *Template) FetchByID(ctx context.Context, id string) (*models.Template, error) {
	return s.persistence.Templates().GetByID(ctx, id)
}

// List retrieves all templates of an account.
func (s *Template) List(ctx context.Context, accountID string) ([]*models.Template, error) {
	return s.persistence.Templates().ListByAccount(ctx, accountID)
}

// Delete removes a template. Running workflows keep their materialized tasks
// and finish on the version they already hold.
func (s *Template) Delete(ctx context.Context, id string) error {
	if _, err := s.persistence.Templates().GetByID(ctx, id); err != nil {
		return err
	}

	return s.persistence.Templates().Delete(ctx, id)
}

func (s *Template) publishEvent(ctx context.Context, key string, event events.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}

func (s *Template) publishEvents(ctx context.Context, key string, evs []events.Event) {
	for _, event := range evs {
		s.publishEvent(ctx, key, event)
	}
}
