package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
	"bizmail_server/pkg/apperr"
)

// ContextAdapter implements out.ContextRepository using PostgreSQL.
type ContextAdapter struct {
	db *sqlx.DB
}

var _ out.ContextRepository = (*ContextAdapter)(nil)

func NewContextAdapter(db *sqlx.DB) *ContextAdapter {
	return &ContextAdapter{db: db}
}

type contextRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	ContextText string         `db:"context_text"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *contextRow) toEntity() *domain.CompanyContext {
	return &domain.CompanyContext{
		ID:          r.ID,
		Name:        r.Name,
		ContextText: r.ContextText,
		Description: r.Description.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (a *ContextAdapter) Create(ctx context.Context, c *domain.CompanyContext) error {
	query := `
		INSERT INTO company_contexts (name, context_text, description)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id, created_at, updated_at
	`

	err := a.db.QueryRowxContext(ctx, query, c.Name, c.ContextText, c.Description).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return apperr.DatabaseError("create context", err)
	}
	return nil
}

func (a *ContextAdapter) Update(ctx context.Context, c *domain.CompanyContext) error {
	query := `
		UPDATE company_contexts SET
			name = $1,
			context_text = $2,
			description = NULLIF($3, ''),
			updated_at = NOW()
		WHERE id = $4
		RETURNING created_at, updated_at
	`

	err := a.db.QueryRowxContext(ctx, query, c.Name, c.ContextText, c.Description, c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return notFoundOr(err, "context", "update context")
	}
	return nil
}

func (a *ContextAdapter) Delete(ctx context.Context, id int64) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM company_contexts WHERE id = $1`, id)
	if err != nil {
		return apperr.DatabaseError("delete context", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("context")
	}
	return nil
}

func (a *ContextAdapter) GetByID(ctx context.Context, id int64) (*domain.CompanyContext, error) {
	query := `SELECT id, name, context_text, description, created_at, updated_at FROM company_contexts WHERE id = $1`

	var row contextRow
	if err := a.db.QueryRowxContext(ctx, query, id).StructScan(&row); err != nil {
		return nil, notFoundOr(err, "context", "get context")
	}
	return row.toEntity(), nil
}

// List returns contexts ordered by name.
func (a *ContextAdapter) List(ctx context.Context) ([]*domain.CompanyContext, error) {
	query := `SELECT id, name, context_text, description, created_at, updated_at FROM company_contexts ORDER BY name, id`

	var rows []contextRow
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperr.DatabaseError("list contexts", err)
	}

	contexts := make([]*domain.CompanyContext, len(rows))
	for i := range rows {
		contexts[i] = rows[i].toEntity()
	}
	return contexts, nil
}
