// Package docstore persists one JSON document per logical key. It is the
// whole-document read/write primitive underneath the play-state stores; all
// merge semantics live in the stores built on top of it.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/sqlite"
)

var (
	// ErrNotFound is returned when no document exists under the requested key.
	ErrNotFound = errors.NewSentinel("document not found")
	// ErrQuota is returned when writing a document would exceed the storage budget.
	ErrQuota = errors.NewSentinel("storage quota exceeded")
)

type Store struct {
	db     *sqlite.Database
	logger *slog.Logger
	// quotaBytes caps the total size of stored document bodies. Zero disables the cap.
	quotaBytes int64
}

func New(db *sqlite.Database, quotaBytes int64, logger *slog.Logger) *Store {
	return &Store{
		db:         db,
		logger:     logger.With("source", "docstore"),
		quotaBytes: quotaBytes,
	}
}

// Get returns the raw document stored under key or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var body string
	stmt := `SELECT body FROM documents WHERE key = ?`
	if err := s.db.ReadOnly.GetContext(ctx, &body, stmt, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "get document", slog.String("key", key))
		}
		return nil, errors.Wrap(err, "get document", slog.String("key", key))
	}
	return json.RawMessage(body), nil
}

// GetInto unmarshals the document stored under key into v.
func (s *Store) GetInto(ctx context.Context, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "unmarshal document", slog.String("key", key))
	}
	return nil
}

// Put marshals v and stores it under key, replacing any previous document.
// The write fails with ErrQuota when it would push the total stored size over
// the byte budget.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal document", slog.String("key", key))
	}

	if s.quotaBytes > 0 {
		var otherBytes int64
		// The read-write connection is serialized, so the size check and the
		// write cannot interleave with another writer.
		stmt := `SELECT COALESCE(SUM(LENGTH(body)), 0) FROM documents WHERE key != ?`
		if err = s.db.ReadWrite.GetContext(ctx, &otherBytes, stmt, key); err != nil {
			return errors.Wrap(err, "sum document sizes")
		}
		if otherBytes+int64(len(body)) > s.quotaBytes {
			return errors.Wrap(ErrQuota, "put document",
				slog.String("key", key),
				slog.Int64("quotaBytes", s.quotaBytes),
				slog.Int64("wouldStoreBytes", otherBytes+int64(len(body))))
		}
	}

	stmt := `INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
	ON CONFLICT (key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
	if _, err = s.db.ReadWrite.ExecContext(ctx, stmt, key, string(body), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return errors.Wrap(err, "put document", slog.String("key", key))
	}
	return nil
}

// Delete removes the document under key. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	stmt := `DELETE FROM documents WHERE key = ?`
	if _, err := s.db.ReadWrite.ExecContext(ctx, stmt, key); err != nil {
		return errors.Wrap(err, "delete document", slog.String("key", key))
	}
	return nil
}

// Keys returns the stored keys matching prefix in lexical order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	stmt := `SELECT key FROM documents WHERE key LIKE ? || '%' ORDER BY key`
	if err := s.db.ReadOnly.SelectContext(ctx, &keys, stmt, prefix); err != nil {
		return nil, errors.Wrap(err, "list document keys", slog.String("prefix", prefix))
	}
	return keys, nil
}

// TotalBytes reports the summed size of all stored document bodies.
func (s *Store) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	stmt := `SELECT COALESCE(SUM(LENGTH(body)), 0) FROM documents`
	if err := s.db.ReadOnly.GetContext(ctx, &total, stmt); err != nil {
		return 0, errors.Wrap(err, "sum document sizes")
	}
	return total, nil
}
