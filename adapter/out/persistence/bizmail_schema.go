package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"bizmail_server/pkg/apperr"
)

// Schema creates the tables used by the thread and context repositories.
const Schema = `
CREATE TABLE IF NOT EXISTS company_contexts (
	id           BIGSERIAL PRIMARY KEY,
	name         VARCHAR(255) NOT NULL,
	context_text TEXT NOT NULL,
	description  TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_company_contexts_name ON company_contexts (name);

CREATE TABLE IF NOT EXISTS email_threads (
	id                 BIGSERIAL PRIMARY KEY,
	subject            VARCHAR(500) NOT NULL,
	company_context_id BIGINT REFERENCES company_contexts (id) ON DELETE SET NULL,
	extra_directives   TEXT[],
	custom_prompt      TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_email_threads_updated_at ON email_threads (updated_at DESC);

CREATE TABLE IF NOT EXISTS email_messages (
	id                      BIGSERIAL PRIMARY KEY,
	thread_id               BIGINT NOT NULL REFERENCES email_threads (id) ON DELETE CASCADE,
	message_type            VARCHAR(20) NOT NULL CHECK (message_type IN ('incoming', 'outgoing')),
	subject                 VARCHAR(500) NOT NULL,
	body                    TEXT NOT NULL,
	sender_name             VARCHAR(255),
	sender_position         VARCHAR(255),
	generation_time_seconds DOUBLE PRECISION,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_email_messages_thread ON email_messages (thread_id, created_at);
`

// Migrate applies Schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return apperr.DatabaseError("migrate", err)
	}
	return nil
}

// notFoundOr maps sql.ErrNoRows to a NOT_FOUND error for resource.
func notFoundOr(err error, resource, operation string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(resource)
	}
	return apperr.DatabaseError(operation, err)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
