package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
	"bizmail_server/pkg/apperr"
)

// ThreadAdapter implements out.ThreadRepository using PostgreSQL.
type ThreadAdapter struct {
	db *sqlx.DB
}

var _ out.ThreadRepository = (*ThreadAdapter)(nil)

func NewThreadAdapter(db *sqlx.DB) *ThreadAdapter {
	return &ThreadAdapter{db: db}
}

// =============================================================================
// Row Mapping
// =============================================================================

type threadRow struct {
	ID               int64          `db:"id"`
	Subject          string         `db:"subject"`
	CompanyContextID sql.NullInt64  `db:"company_context_id"`
	ExtraDirectives  pq.StringArray `db:"extra_directives"`
	CustomPrompt     sql.NullString `db:"custom_prompt"`
	MessageCount     int            `db:"message_count"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *threadRow) toEntity() *domain.Thread {
	thread := &domain.Thread{
		ID:              r.ID,
		Subject:         r.Subject,
		ExtraDirectives: r.ExtraDirectives,
		MessageCount:    r.MessageCount,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.CompanyContextID.Valid {
		id := r.CompanyContextID.Int64
		thread.CompanyContextID = &id
	}
	if r.CustomPrompt.Valid {
		thread.CustomPrompt = r.CustomPrompt.String
	}
	return thread
}

type messageRow struct {
	ID                    int64           `db:"id"`
	ThreadID              int64           `db:"thread_id"`
	MessageType           string          `db:"message_type"`
	Subject               string          `db:"subject"`
	Body                  string          `db:"body"`
	SenderName            sql.NullString  `db:"sender_name"`
	SenderPosition        sql.NullString  `db:"sender_position"`
	GenerationTimeSeconds sql.NullFloat64 `db:"generation_time_seconds"`
	CreatedAt             time.Time       `db:"created_at"`
}

func (r *messageRow) toEntity() domain.ThreadMessage {
	msg := domain.ThreadMessage{
		ID:             r.ID,
		ThreadID:       r.ThreadID,
		Type:           domain.MessageType(r.MessageType),
		Subject:        r.Subject,
		Body:           r.Body,
		SenderName:     r.SenderName.String,
		SenderPosition: r.SenderPosition.String,
		CreatedAt:      r.CreatedAt,
	}
	if r.GenerationTimeSeconds.Valid {
		seconds := r.GenerationTimeSeconds.Float64
		msg.GenerationTimeSeconds = &seconds
	}
	return msg
}

const threadColumns = `
	t.id, t.subject, t.company_context_id, t.extra_directives, t.custom_prompt,
	t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM email_messages m WHERE m.thread_id = t.id) AS message_count`

// =============================================================================
// Threads
// =============================================================================

func (a *ThreadAdapter) Create(ctx context.Context, thread *domain.Thread) error {
	query := `
		INSERT INTO email_threads (subject, company_context_id, extra_directives, custom_prompt)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at, updated_at
	`

	err := a.db.QueryRowxContext(ctx, query,
		thread.Subject,
		thread.CompanyContextID,
		directivesArray(thread.ExtraDirectives),
		strings.TrimSpace(thread.CustomPrompt),
	).Scan(&thread.ID, &thread.CreatedAt, &thread.UpdatedAt)
	if err != nil {
		return apperr.DatabaseError("create thread", err)
	}
	return nil
}

func (a *ThreadAdapter) GetByID(ctx context.Context, id int64) (*domain.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM email_threads t WHERE t.id = $1`

	var row threadRow
	if err := a.db.QueryRowxContext(ctx, query, id).StructScan(&row); err != nil {
		return nil, notFoundOr(err, "thread", "get thread")
	}
	return row.toEntity(), nil
}

func (a *ThreadAdapter) List(ctx context.Context, query *out.ThreadListQuery) ([]*domain.Thread, error) {
	if query == nil {
		query = &out.ThreadListQuery{}
	}
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 100
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	sqlQuery := `SELECT ` + threadColumns + `
		FROM email_threads t
		ORDER BY t.updated_at DESC
		LIMIT $1 OFFSET $2`

	var rows []threadRow
	if err := a.db.SelectContext(ctx, &rows, sqlQuery, query.Limit, query.Offset); err != nil {
		return nil, apperr.DatabaseError("list threads", err)
	}

	threads := make([]*domain.Thread, len(rows))
	for i := range rows {
		threads[i] = rows[i].toEntity()
	}
	return threads, nil
}

func (a *ThreadAdapter) UpdateDirectives(ctx context.Context, id int64, extraDirectives []string, customPrompt *string) (*domain.Thread, error) {
	query := `
		UPDATE email_threads SET
			extra_directives = CASE WHEN $1 THEN $2::text[] ELSE extra_directives END,
			custom_prompt = CASE WHEN $3 THEN NULLIF($4, '') ELSE custom_prompt END,
			updated_at = NOW()
		WHERE id = $5
	`

	prompt := ""
	if customPrompt != nil {
		prompt = strings.TrimSpace(*customPrompt)
	}

	result, err := a.db.ExecContext(ctx, query,
		extraDirectives != nil,
		directivesArray(extraDirectives),
		customPrompt != nil,
		prompt,
		id,
	)
	if err != nil {
		return nil, apperr.DatabaseError("update thread directives", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, apperr.NotFound("thread")
	}

	return a.GetByID(ctx, id)
}

// =============================================================================
// Messages
// =============================================================================

// AddMessage stores msg and bumps the thread's updated_at.
func (a *ThreadAdapter) AddMessage(ctx context.Context, msg *domain.ThreadMessage) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.DatabaseError("begin", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO email_messages (
			thread_id, message_type, subject, body,
			sender_name, sender_position, generation_time_seconds
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		RETURNING id, created_at
	`
	err = tx.QueryRowxContext(ctx, query,
		msg.ThreadID,
		string(msg.Type),
		msg.Subject,
		msg.Body,
		msg.SenderName,
		msg.SenderPosition,
		msg.GenerationTimeSeconds,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.NotFound("thread")
		}
		return apperr.DatabaseError("add message", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE email_threads SET updated_at = NOW() WHERE id = $1`, msg.ThreadID); err != nil {
		return apperr.DatabaseError("touch thread", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.DatabaseError("commit", err)
	}
	return nil
}

func (a *ThreadAdapter) Messages(ctx context.Context, threadID int64) ([]domain.ThreadMessage, error) {
	query := `
		SELECT id, thread_id, message_type, subject, body,
			sender_name, sender_position, generation_time_seconds, created_at
		FROM email_messages
		WHERE thread_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var rows []messageRow
	if err := a.db.SelectContext(ctx, &rows, query, threadID); err != nil {
		return nil, apperr.DatabaseError("list messages", err)
	}

	messages := make([]domain.ThreadMessage, len(rows))
	for i := range rows {
		messages[i] = rows[i].toEntity()
	}
	return messages, nil
}

// directivesArray stores an empty list as NULL.
func directivesArray(directives []string) any {
	kept := make([]string, 0, len(directives))
	for _, d := range directives {
		if d = strings.TrimSpace(d); d != "" {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return pq.Array(kept)
}
