package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/docucompare/backend/internal/core/domain"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026052102)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations(user_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversations (id, user_id, created_at, updated_at)
VALUES ($1,$2,$3,$4)
`,
		conversation.ID, conversation.UserID, conversation.CreatedAt, conversation.UpdatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrMetadataWrite, "insert conversation", err)
	}
	return nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, created_at, updated_at
FROM conversations
WHERE id = $1
`, id)

	var conversation domain.Conversation
	err := row.Scan(&conversation.ID, &conversation.UserID, &conversation.CreatedAt, &conversation.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConversationNotFound, "get conversation", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return &conversation, nil
}
