// Package archive persists retired conversation transcripts. Archives have a
// lifecycle independent of adventures: clearing a live conversation never
// deletes the archive already produced from it.
package archive

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/models"
)

const archivesKey = "chat_archives"

// evictionKeepCount is how many archives survive an eviction pass when the
// storage quota is hit.
const evictionKeepCount = 50

// ErrEmptyArchive is returned when there is nothing to archive.
var ErrEmptyArchive = errors.NewSentinel("no messages to archive")

// Options carries the optional linkage recorded on an archive.
type Options struct {
	Name                 string
	AdventureID          string
	SavePointID          string
	SavePointDescription string
}

type Store struct {
	docs   *docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewStore(docs *docstore.Store, logger *slog.Logger) *Store {
	return &Store{
		docs:   docs,
		logger: logger.With("source", "ChatArchive"),
		now:    time.Now,
	}
}

// List returns all archives, oldest first.
func (s *Store) List(ctx context.Context) ([]models.ArchivedChat, error) {
	var archives []models.ArchivedChat
	if err := s.docs.GetInto(ctx, archivesKey, &archives); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return []models.ArchivedChat{}, nil
		}
		return nil, errors.Wrap(err, "load archives")
	}
	return archives, nil
}

// Get returns the archive with the given id or nil when unknown.
func (s *Store) Get(ctx context.Context, id string) (*models.ArchivedChat, error) {
	archives, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range archives {
		if archives[i].ID == id {
			return &archives[i], nil
		}
	}
	return nil, nil
}

// ArchiveChat stores a transcript as a new immutable archive. Messages are
// stamped with the archive time since only conversation-level timing existed
// at the source. When the storage quota rejects the write, the oldest
// archives are evicted down to the newest fifty and the write retried once.
func (s *Store) ArchiveChat(ctx context.Context, messages []models.ChatMessage, opts Options) (*models.ArchivedChat, error) {
	if len(messages) == 0 {
		return nil, errors.Wrap(ErrEmptyArchive, "archive chat")
	}

	now := s.now().UTC()
	stamped := make([]models.ChatMessage, len(messages))
	for i, msg := range messages {
		msg.Timestamp = now
		stamped[i] = msg
	}

	archived := models.ArchivedChat{
		ID:                   strconv.FormatInt(now.UnixMilli(), 10),
		Timestamp:            now,
		Name:                 opts.Name,
		AdventureID:          opts.AdventureID,
		SavePointID:          opts.SavePointID,
		SavePointDescription: opts.SavePointDescription,
		Messages:             stamped,
	}

	archives, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	archives = append(archives, archived)

	if err = s.docs.Put(ctx, archivesKey, archives); err != nil {
		if !errors.Is(err, docstore.ErrQuota) || len(archives) <= evictionKeepCount {
			return nil, errors.Wrap(err, "persist archives")
		}
		evicted := len(archives) - evictionKeepCount
		archives = archives[evicted:]
		s.logger.LogAttrs(ctx, slog.LevelWarn, "storage quota hit, evicted oldest archives",
			slog.Int("evicted", evicted))
		if err = s.docs.Put(ctx, archivesKey, archives); err != nil {
			return nil, errors.Wrap(err, "persist archives after eviction")
		}
	}
	return &archived, nil
}

// RestoreArchive returns the archived messages for id, dropping messages
// whose content is empty or whitespace. Returns nil for an unknown id or
// when nothing survives the filtering.
func (s *Store) RestoreArchive(ctx context.Context, id string) ([]models.ChatMessage, error) {
	archived, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if archived == nil {
		return nil, nil
	}

	var restored []models.ChatMessage
	for _, msg := range archived.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		restored = append(restored, msg)
	}
	return restored, nil
}

// Delete removes one archive as a whole record.
func (s *Store) Delete(ctx context.Context, id string) error {
	archives, err := s.List(ctx)
	if err != nil {
		return err
	}
	for i := range archives {
		if archives[i].ID == id {
			archives = append(archives[:i], archives[i+1:]...)
			if err = s.docs.Put(ctx, archivesKey, archives); err != nil {
				return errors.Wrap(err, "persist archives")
			}
			return nil
		}
	}
	return nil
}
