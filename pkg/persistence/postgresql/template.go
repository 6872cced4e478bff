package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/persistence"
)

// TemplateRepository handles template and template version database
// operations. The full template document is stored as JSONB; a few columns
// are duplicated for indexing.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	query := `
		SELECT
			data
		FROM templates
		WHERE id = $1 AND deleted_at IS NULL
	`

	var data []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewTemplateError("GetByID", id, persistence.ErrTemplateNotFound)
		}

		return nil, persistence.NewTemplateError("GetByID", id, fmt.Errorf("failed to query template: %w", err))
	}

	var template models.Template

	err = json.Unmarshal(data, &template)
	if err != nil {
		return nil, persistence.NewTemplateError("GetByID", id, fmt.Errorf("failed to decode template: %w", err))
	}

	return &template, nil
}

func (r *TemplateRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Template, error) {
	query := `
		SELECT
			data
		FROM templates
		WHERE account_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	templates := make([]*models.Template, 0)

	for rows.Next() {
		var data []byte

		err := rows.Scan(&data)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		var template models.Template

		err = json.Unmarshal(data, &template)
		if err != nil {
			return nil, fmt.Errorf("failed to decode template: %w", err)
		}

		templates = append(templates, &template)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.Template) error {
	now := time.Now().UTC()

	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	if template.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate template ID: %w", err)
		}

		template.ID = id.String()
	}

	data, err := json.Marshal(template)
	if err != nil {
		return persistence.NewTemplateError("Save", template.ID, fmt.Errorf("failed to encode template: %w", err))
	}

	query := `
		INSERT INTO templates (id, account_id, name, version, is_active, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			name = EXCLUDED.name,
			version = EXCLUDED.version,
			is_active = EXCLUDED.is_active,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		template.ID,
		template.AccountID,
		template.Name,
		template.Version,
		template.IsActive,
		data,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return persistence.NewTemplateError("Save", template.ID, fmt.Errorf("failed to save template: %w", err))
	}

	return nil
}

// Delete soft deletes a template by setting deleted_at.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE templates SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewTemplateError("Delete", id, fmt.Errorf("failed to delete template: %w", err))
	}

	return nil
}

func (r *TemplateRepository) SaveVersion(ctx context.Context, v *models.TemplateVersion) error {
	data, err := json.Marshal(v.Data)
	if err != nil {
		return persistence.NewTemplateError("SaveVersion", v.TemplateID, fmt.Errorf("failed to encode version data: %w", err))
	}

	query := `
		INSERT INTO template_versions (template_id, version, data, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.db.ExecContext(ctx, query, v.TemplateID, v.Version, data, v.CreatedAt)
	if err != nil {
		return persistence.NewTemplateError("SaveVersion", v.TemplateID, fmt.Errorf("failed to save version %d: %w", v.Version, err))
	}

	return nil
}

func (r *TemplateRepository) VersionByNumber(ctx context.Context, templateID string, number int) (*models.TemplateVersion, error) {
	query := `
		SELECT
			data
		  , created_at
		FROM template_versions
		WHERE template_id = $1 AND version = $2
	`

	return r.scanVersion(r.db.QueryRowContext(ctx, query, templateID, number), templateID, number)
}

func (r *TemplateRepository) LatestVersion(ctx context.Context, templateID string) (*models.TemplateVersion, error) {
	query := `
		SELECT
			version
		FROM template_versions
		WHERE template_id = $1
		ORDER BY version DESC
		LIMIT 1
	`

	var number int

	err := r.db.QueryRowContext(ctx, query, templateID).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewTemplateError("LatestVersion", templateID, persistence.ErrVersionNotFound)
		}

		return nil, persistence.NewTemplateError("LatestVersion", templateID, fmt.Errorf("failed to query latest version: %w", err))
	}

	return r.VersionByNumber(ctx, templateID, number)
}

func (r *TemplateRepository) scanVersion(row *sql.Row, templateID string, number int) (*models.TemplateVersion, error) {
	var (
		data      []byte
		createdAt time.Time
	)

	err := row.Scan(&data, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewTemplateError("VersionByNumber", templateID, persistence.ErrVersionNotFound)
		}

		return nil, persistence.NewTemplateError("VersionByNumber", templateID, fmt.Errorf("failed to scan version: %w", err))
	}

	version := models.TemplateVersion{
		TemplateID: templateID,
		Version:    number,
		CreatedAt:  createdAt,
	}

	err = json.Unmarshal(data, &version.Data)
	if err != nil {
		return nil, persistence.NewTemplateError("VersionByNumber", templateID, fmt.Errorf("failed to decode version data: %w", err))
	}

	return &version, nil
}
