// Package rules keeps the free-text house rules document. The narrative
// generator receives it verbatim as extra system guidance; nothing here
// interprets the text.
package rules

import (
	"context"
	"log/slog"

	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/errors"
)

const rulesKey = "additional_rules"

type Store struct {
	docs   *docstore.Store
	logger *slog.Logger
}

func NewStore(docs *docstore.Store, logger *slog.Logger) *Store {
	return &Store{
		docs:   docs,
		logger: logger.With("source", "RulesStore"),
	}
}

// Get returns the stored rules text, empty when none has been saved.
func (s *Store) Get(ctx context.Context) (string, error) {
	var content string
	if err := s.docs.GetInto(ctx, rulesKey, &content); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "load additional rules")
	}
	return content, nil
}

// Put replaces the rules text as a whole document.
func (s *Store) Put(ctx context.Context, content string) error {
	if err := s.docs.Put(ctx, rulesKey, content); err != nil {
		return errors.Wrap(err, "save additional rules")
	}
	return nil
}
