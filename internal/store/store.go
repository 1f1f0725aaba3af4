package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"mprs/internal/domain"
)

// historyKey is the single blob under which the whole requisition
// history lives, as a JSON array ordered most-recently-submitted first.
const historyKey = "mprs_history"

// Store reads and writes the full requisition history. Every Load
// returns a freshly deserialized copy; callers never share slices with
// the store.
type Store interface {
	Load(ctx context.Context) ([]domain.Requisition, error)
	Save(ctx context.Context, history []domain.Requisition) error
}

// DBStore keeps the history blob in the workspace SQLite database.
type DBStore struct {
	DB  *sql.DB
	Log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *DBStore {
	return &DBStore{DB: db, Log: log}
}

func (s *DBStore) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

// Load returns the stored history. A missing blob (first run) and an
// unparsable blob (corrupted write) both yield an empty history, never
// an error; the unreadable value stays in place until the next Save.
func (s *DBStore) Load(ctx context.Context) ([]domain.Requisition, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key=?`, historyKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history blob: %w", err)
	}
	var history []domain.Requisition
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.logger().Warn("history blob unreadable, treating as empty", zap.Error(err))
		return nil, nil
	}
	return history, nil
}

// Save rewrites the full history blob.
func (s *DBStore) Save(ctx context.Context, history []domain.Requisition) error {
	if history == nil {
		history = []domain.Requisition{}
	}
	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO blobs(key,value) VALUES (?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value`, historyKey, string(payload))
	if err != nil {
		return fmt.Errorf("write history blob: %w", err)
	}
	return nil
}
