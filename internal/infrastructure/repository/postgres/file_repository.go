package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/docucompare/backend/internal/core/domain"
)

// listFilesCap bounds ListByConversation. There is no cursoring yet;
// callers needing more must page explicitly.
const listFilesCap = 100

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *FileRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026052101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	blob_path TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	extracted_text TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_conversation_id ON files(conversation_id);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Create is an upsert by id: replaying the same file_id overwrites, which
// callers avoid by always minting a fresh id.
func (r *FileRepository) Create(ctx context.Context, record *domain.FileRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO files (
	id, user_id, conversation_id, file_name, file_size, blob_path, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
	user_id = EXCLUDED.user_id,
	conversation_id = EXCLUDED.conversation_id,
	file_name = EXCLUDED.file_name,
	file_size = EXCLUDED.file_size,
	blob_path = EXCLUDED.blob_path,
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at
`,
		record.ID, record.UserID, record.ConversationID, record.FileName, record.FileSize,
		record.BlobPath, string(record.Status), record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrMetadataWrite, "insert file", err)
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, conversation_id, file_name, file_size, blob_path, status, created_at, updated_at
FROM files
WHERE id = $1
`, id)

	record, err := scanFileRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFileNotFound, "get file", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return record, nil
}

// UpdateStatus stamps updated_at with the caller's timestamp alongside the
// status. A false return means the id does not exist; callers treat that
// as a logic error.
func (r *FileRepository) UpdateStatus(ctx context.Context, id string, status domain.FileStatus, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
UPDATE files
SET status = $2, updated_at = $3
WHERE id = $1
`, id, string(status), at)
	if err != nil {
		return false, domain.WrapError(domain.ErrMetadataWrite, "update file status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *FileRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, conversation_id, file_name, file_size, blob_path, status, created_at, updated_at
FROM files
WHERE conversation_id = $1
LIMIT $2
`, conversationID, listFilesCap)
	if err != nil {
		return nil, fmt.Errorf("query files by conversation: %w", err)
	}
	defer rows.Close()

	var records []domain.FileRecord
	for rows.Next() {
		record, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return records, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return false, domain.WrapError(domain.ErrMetadataWrite, "delete file", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *FileRepository) SaveExtractedText(ctx context.Context, id, text string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE files
SET extracted_text = $2, updated_at = $3
WHERE id = $1
`, id, text, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrMetadataWrite, "save extracted text", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrFileNotFound, "save extracted text", fmt.Errorf("id %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileRecord(row rowScanner) (*domain.FileRecord, error) {
	var record domain.FileRecord
	var status string
	err := row.Scan(
		&record.ID, &record.UserID, &record.ConversationID, &record.FileName, &record.FileSize,
		&record.BlobPath, &status, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Status = domain.FileStatus(status)
	return &record, nil
}
