package file

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/persistence"
)

// TemplateRepository stores templates and their version snapshots as JSON
// documents under templates/ and versions/<template_id>/.
type TemplateRepository struct {
	store *store
}

func (r *TemplateRepository) GetByID(_ context.Context, id string) (*models.Template, error) {
	var tpl models.Template

	found, err := r.store.read(filepath.Join("templates", id+".json"), &tpl)
	if err != nil {
		return nil, persistence.NewTemplateError("GetByID", id, err)
	}

	if !found {
		return nil, persistence.NewTemplateError("GetByID", id, persistence.ErrTemplateNotFound)
	}

	return &tpl, nil
}

func (r *TemplateRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Template, error) {
	ids, err := r.store.list("templates")
	if err != nil {
		return nil, persistence.NewTemplateError("ListByAccount", accountID, err)
	}

	var out []*models.Template

	for _, id := range ids {
		tpl, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if tpl.AccountID == accountID {
			out = append(out, tpl)
		}
	}

	return out, nil
}

func (r *TemplateRepository) Save(_ context.Context, tpl *models.Template) error {
	if err := r.store.write(filepath.Join("templates", tpl.ID+".json"), tpl); err != nil {
		return persistence.NewTemplateError("Save", tpl.ID, err)
	}

	return nil
}

func (r *TemplateRepository) Delete(_ context.Context, id string) error {
	if err := r.store.remove(filepath.Join("templates", id+".json")); err != nil {
		return persistence.NewTemplateError("Delete", id, err)
	}

	return nil
}

func (r *TemplateRepository) SaveVersion(_ context.Context, v *models.TemplateVersion) error {
	path := filepath.Join("versions", v.TemplateID, fmt.Sprintf("%d.json", v.Version))

	if err := r.store.write(path, v); err != nil {
		return persistence.NewTemplateError("SaveVersion", v.TemplateID, err)
	}

	return nil
}

func (r *TemplateRepository) VersionByNumber(_ context.Context, templateID string, number int) (*models.TemplateVersion, error) {
	var v models.TemplateVersion

	path := filepath.Join("versions", templateID, fmt.Sprintf("%d.json", number))

	found, err := r.store.read(path, &v)
	if err != nil {
		return nil, persistence.NewTemplateError("VersionByNumber", templateID, err)
	}

	if !found {
		return nil, persistence.NewTemplateError("VersionByNumber", templateID, persistence.ErrVersionNotFound)
	}

	return &v, nil
}

func (r *TemplateRepository) LatestVersion(ctx context.Context, templateID string) (*models.TemplateVersion, error) {
	tpl, err := r.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if tpl.Version == 0 {
		return nil, persistence.NewTemplateError("LatestVersion", templateID, persistence.ErrVersionNotFound)
	}

	return r.VersionByNumber(ctx, templateID, tpl.Version)
}
