package out

import (
	"context"

	"bizmail_server/core/domain"
)

// ThreadListQuery pages through threads, most recently updated first.
type ThreadListQuery struct {
	Limit  int
	Offset int
}

// ThreadRepository stores conversations and their messages.
type ThreadRepository interface {
	Create(ctx context.Context, thread *domain.Thread) error
	GetByID(ctx context.Context, id int64) (*domain.Thread, error)
	List(ctx context.Context, query *ThreadListQuery) ([]*domain.Thread, error)
	// UpdateDirectives leaves a nil argument unchanged; an empty value clears it.
	UpdateDirectives(ctx context.Context, id int64, extraDirectives []string, customPrompt *string) (*domain.Thread, error)

	AddMessage(ctx context.Context, msg *domain.ThreadMessage) error
	// Messages returns the thread's messages oldest first.
	Messages(ctx context.Context, threadID int64) ([]domain.ThreadMessage, error)
}

// ContextRepository stores reusable company contexts.
type ContextRepository interface {
	Create(ctx context.Context, c *domain.CompanyContext) error
	Update(ctx context.Context, c *domain.CompanyContext) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.CompanyContext, error)
	List(ctx context.Context) ([]*domain.CompanyContext, error)
}
