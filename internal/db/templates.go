package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/applytrack/internal/types"
)

const templateColumns = `id, name, COALESCE(description, ''), content, created_at, updated_at`

// CreateTemplate stores a new cover letter template.
func (db *DB) CreateTemplate(ctx context.Context, in types.TemplateInput) (*types.Template, error) {
	var t types.Template
	err := db.pool.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO cover_letter_templates (name, description, content)
		 VALUES ($1, NULLIF($2, ''), $3)
		 RETURNING %s`, templateColumns),
		in.Name, in.Description, in.Content,
	).Scan(&t.ID, &t.Name, &t.Description, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return &t, nil
}

// GetTemplate retrieves a template by id.
func (db *DB) GetTemplate(ctx context.Context, templateID uuid.UUID) (*types.Template, error) {
	var t types.Template
	err := db.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM cover_letter_templates WHERE id = $1`, templateColumns),
		templateID,
	).Scan(&t.ID, &t.Name, &t.Description, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &t, nil
}

// ListTemplates retrieves all templates ordered by name.
func (db *DB) ListTemplates(ctx context.Context) ([]types.Template, error) {
	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM cover_letter_templates ORDER BY name`, templateColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []types.Template
	for rows.Next() {
		var t types.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// UpdateTemplate replaces a template's fields.
func (db *DB) UpdateTemplate(ctx context.Context, templateID uuid.UUID, in types.TemplateInput) (*types.Template, error) {
	var t types.Template
	err := db.pool.QueryRow(ctx, fmt.Sprintf(
		`UPDATE cover_letter_templates
		 SET name = $1, description = NULLIF($2, ''), content = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING %s`, templateColumns),
		in.Name, in.Description, in.Content, templateID,
	).Scan(&t.ID, &t.Name, &t.Description, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return &t, nil
}

// DeleteTemplate removes a template. Templates never participate in the
// document deletion policy.
func (db *DB) DeleteTemplate(ctx context.Context, templateID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM cover_letter_templates WHERE id = $1`, templateID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
