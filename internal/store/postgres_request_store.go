package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/dunamismax/easyconvert/internal/domain"
)

const requestSchemaSQL = `
CREATE TABLE IF NOT EXISTS request_logs (
	id TEXT PRIMARY KEY,
	chat_id BIGINT NOT NULL,
	source_kind TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	declared_size BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	failure_kind TEXT NOT NULL DEFAULT '',
	input_bytes BIGINT NOT NULL DEFAULT 0,
	output_bytes BIGINT NOT NULL DEFAULT 0,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	compute_time_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS request_logs_chat_created_idx ON request_logs (chat_id, created_at DESC);
`

const requestColumns = `id, chat_id, source_kind, mime_type, declared_size, status, failure_kind,
	input_bytes, output_bytes, width, height, compute_time_ms, created_at`

type PostgresRequestStore struct {
	db *sql.DB
}

func NewPostgresRequestStore(ctx context.Context, dsn string) (*PostgresRequestStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresRequestStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresRequestStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, requestSchemaSQL); err != nil {
		return fmt.Errorf("ensure request_logs schema: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) Close() error {
	return s.db.Close()
}

func (s *PostgresRequestStore) Record(ctx context.Context, entry domain.RequestLog) error {
	if strings.TrimSpace(entry.ID) == "" {
		return ErrInvalidRequestLog
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO request_logs (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			failure_kind = EXCLUDED.failure_kind,
			input_bytes = EXCLUDED.input_bytes,
			output_bytes = EXCLUDED.output_bytes,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			compute_time_ms = EXCLUDED.compute_time_ms`,
		entry.ID,
		entry.ChatID,
		string(entry.SourceKind),
		entry.MimeType,
		entry.DeclaredSize,
		entry.Status,
		entry.FailureKind,
		entry.InputBytes,
		entry.OutputBytes,
		entry.Width,
		entry.Height,
		entry.ComputeTimeMS,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) Get(ctx context.Context, id string) (domain.RequestLog, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM request_logs WHERE id = $1`, id)
	entry, err := scanRequestLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RequestLog{}, false, nil
		}
		return domain.RequestLog{}, false, fmt.Errorf("query request log: %w", err)
	}
	return entry, true, nil
}

func (s *PostgresRequestStore) ListByChat(ctx context.Context, chatID int64, limit int) ([]domain.RequestLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+requestColumns+` FROM request_logs
		 WHERE chat_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		chatID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query request logs: %w", err)
	}
	defer rows.Close()

	var out []domain.RequestLog
	for rows.Next() {
		entry, err := scanRequestLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request log: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request logs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequestLog(row rowScanner) (domain.RequestLog, error) {
	var (
		entry      domain.RequestLog
		sourceKind string
	)
	err := row.Scan(
		&entry.ID,
		&entry.ChatID,
		&sourceKind,
		&entry.MimeType,
		&entry.DeclaredSize,
		&entry.Status,
		&entry.FailureKind,
		&entry.InputBytes,
		&entry.OutputBytes,
		&entry.Width,
		&entry.Height,
		&entry.ComputeTimeMS,
		&entry.CreatedAt,
	)
	entry.SourceKind = domain.SourceKind(sourceKind)
	return entry, err
}
