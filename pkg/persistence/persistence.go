// Package persistence provides the data storage abstraction for templates,
// template versions, workflows and the account directory.
package persistence

import (
	"context"
	"time"

	"github.com/flowlineio/flowline/pkg/models"
)

type Persistence interface {
	Templates() TemplateRepository
	Workflows() WorkflowRepository
	Accounts() AccountRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type TemplateRepository interface {
	GetByID(ctx context.Context, id string) (*models.Template, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Template, error)
	Save(ctx context.Context, template *models.Template) error
	Delete(ctx context.Context, id string) error

	// SaveVersion stores an immutable snapshot. Versions are append-only.
	SaveVersion(ctx context.Context, v *models.TemplateVersion) error
	VersionByNumber(ctx context.Context, templateID string, number int) (*models.TemplateVersion, error)
	LatestVersion(ctx context.Context, templateID string) (*models.TemplateVersion, error)
}

type WorkflowRepository interface {
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Workflow, error)

	// ListRunningByTemplate returns workflows of the template whose status is
	// not terminal; live migration iterates exactly this set.
	ListRunningByTemplate(ctx context.Context, templateID string) ([]*models.Workflow, error)

	// ListDelayedBefore returns delayed workflows whose resume time has
	// passed; the sweeper re-enters the state machine for each.
	ListDelayedBefore(ctx context.Context, t time.Time) ([]*models.Workflow, error)

	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

type AccountRepository interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	UsersByAccount(ctx context.Context, accountID string) ([]*models.User, error)
	GroupsByAccount(ctx context.Context, accountID string) ([]*models.Group, error)
	SaveUser(ctx context.Context, user *models.User) error
	SaveGroup(ctx context.Context, group *models.Group) error
}
