// Package adventure persists save-point history and the running conversation
// of each adventure.
package adventure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/models"
)

const (
	adventuresKey = "adventures"
	currentKey    = "current_adventure_id"
)

// maxConversationMessages caps the live conversation to keep turn requests
// from bloating. A leading system message survives the trim.
const maxConversationMessages = 50

var (
	ErrNoAdventure = errors.NewSentinel("adventure not found")
	ErrNoSavePoint = errors.NewSentinel("save point not found")
)

type Store struct {
	docs   *docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewStore(docs *docstore.Store, logger *slog.Logger) *Store {
	return &Store{
		docs:   docs,
		logger: logger.With("source", "AdventureStore"),
		now:    time.Now,
	}
}

// List returns all stored adventures.
func (s *Store) List(ctx context.Context) ([]models.Adventure, error) {
	var adventures []models.Adventure
	if err := s.docs.GetInto(ctx, adventuresKey, &adventures); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return []models.Adventure{}, nil
		}
		return nil, errors.Wrap(err, "load adventures")
	}
	return adventures, nil
}

// Get resolves one adventure by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Adventure, error) {
	adventures, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range adventures {
		if adventures[i].ID == id {
			return &adventures[i], nil
		}
	}
	return nil, errors.Wrap(ErrNoAdventure, "get adventure", slog.String("id", id))
}

// CurrentAdventure returns the adventure the current pointer names, or nil
// when no pointer is set.
func (s *Store) CurrentAdventure(ctx context.Context) (*models.Adventure, error) {
	var id string
	if err := s.docs.GetInto(ctx, currentKey, &id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load current adventure pointer")
	}
	if id == "" {
		return nil, nil
	}
	return s.Get(ctx, id)
}

// SetCurrentAdventure repoints the current adventure. An empty id clears the pointer.
func (s *Store) SetCurrentAdventure(ctx context.Context, id string) error {
	if id == "" {
		if err := s.docs.Delete(ctx, currentKey); err != nil {
			return errors.Wrap(err, "clear current adventure pointer")
		}
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.docs.Put(ctx, currentKey, id); err != nil {
		return errors.Wrap(err, "set current adventure pointer")
	}
	return nil
}

// SaveAdventure upserts the adventure into the stored list by id.
func (s *Store) SaveAdventure(ctx context.Context, a *models.Adventure) error {
	adventures, err := s.List(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range adventures {
		if adventures[i].ID == a.ID {
			adventures[i] = *a
			replaced = true
			break
		}
	}
	if !replaced {
		adventures = append(adventures, *a)
	}
	if err = s.docs.Put(ctx, adventuresKey, adventures); err != nil {
		return errors.Wrap(err, "save adventures")
	}
	return nil
}

// CreateAdventure stores a new adventure and makes it current.
func (s *Store) CreateAdventure(ctx context.Context, name, description, notes string) (*models.Adventure, error) {
	a := &models.Adventure{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  description,
		Notes:        notes,
		History:      []models.SavePoint{},
		Conversation: []models.ChatMessage{},
	}
	if err := s.SaveAdventure(ctx, a); err != nil {
		return nil, err
	}
	if err := s.SetCurrentAdventure(ctx, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

// AppendUserMessage appends the outgoing player message to the adventure's
// live conversation. This runs before the narrative generator call so an
// aborted turn still shows the unanswered message.
func (s *Store) AppendUserMessage(ctx context.Context, adventureID, content string) error {
	a, err := s.Get(ctx, adventureID)
	if err != nil {
		return err
	}
	a.Conversation = append(a.Conversation, models.ChatMessage{
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: s.now().UTC(),
	})
	a.Conversation = trimConversation(a.Conversation)
	return s.SaveAdventure(ctx, a)
}

// AppendSystemMessage appends a system-role message, used to surface
// transport failures in the transcript.
func (s *Store) AppendSystemMessage(ctx context.Context, adventureID, content string) error {
	a, err := s.Get(ctx, adventureID)
	if err != nil {
		return err
	}
	a.Conversation = append(a.Conversation, models.ChatMessage{
		Role:      models.RoleSystem,
		Content:   content,
		Timestamp: s.now().UTC(),
	})
	return s.SaveAdventure(ctx, a)
}

// AddSavePoint snapshots the adventure's live conversation (or the supplied
// one) into an immutable copy, appends the save point to the history, and
// repoints the current save point at it.
func (s *Store) AddSavePoint(
	ctx context.Context,
	adventureID, description, narrative string,
	gameState json.RawMessage,
	conversation []models.ChatMessage,
) (*models.SavePoint, error) {
	a, err := s.Get(ctx, adventureID)
	if err != nil {
		return nil, err
	}

	if conversation == nil {
		conversation = a.Conversation
	}
	now := s.now().UTC()
	sp := models.SavePoint{
		// Time-derived ids order the history for display; collisions within
		// the same millisecond are an accepted edge case.
		ID:           strconv.FormatInt(now.UnixMilli(), 10),
		Timestamp:    now,
		Description:  description,
		Narrative:    narrative,
		GameState:    append(json.RawMessage(nil), gameState...),
		Conversation: append([]models.ChatMessage(nil), conversation...),
	}
	a.History = append(a.History, sp)
	a.CurrentSavePointID = sp.ID
	if err = s.SaveAdventure(ctx, a); err != nil {
		return nil, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "added save point",
		slog.String("adventureId", adventureID), slog.String("savePointId", sp.ID))
	return &sp, nil
}

// UpdateAdventureState records a completed turn: the optional user message
// and the assistant narrative append to the live conversation, the running
// state updates, and a current save point (if set) gets its narrative and
// game state patched in place. The save point's frozen conversation snapshot
// is never touched here.
func (s *Store) UpdateAdventureState(
	ctx context.Context,
	adventureID, narrative string,
	gameState json.RawMessage,
	userMessage, audioURL string,
) (*models.Adventure, error) {
	a, err := s.Get(ctx, adventureID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if userMessage != "" {
		a.Conversation = append(a.Conversation, models.ChatMessage{
			Role:      models.RoleUser,
			Content:   userMessage,
			Timestamp: now,
		})
	}
	a.Conversation = append(a.Conversation, models.ChatMessage{
		Role:      models.RoleAssistant,
		Content:   narrative,
		Timestamp: now,
		AudioURL:  audioURL,
	})
	a.Conversation = trimConversation(a.Conversation)

	a.CurrentNarrative = narrative
	if gameState != nil {
		a.CurrentGameState = append(json.RawMessage(nil), gameState...)
	}

	if a.CurrentSavePointID != "" {
		if i := a.FindSavePoint(a.CurrentSavePointID); i >= 0 {
			a.History[i].Narrative = narrative
			if gameState != nil {
				a.History[i].GameState = append(json.RawMessage(nil), gameState...)
			}
		}
	}

	if err = s.SaveAdventure(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateSavePointDescription renames a save point. Descriptions are the only
// user-editable part of a save point besides notes.
func (s *Store) UpdateSavePointDescription(ctx context.Context, adventureID, savePointID, description string) error {
	return s.patchSavePoint(ctx, adventureID, savePointID, func(sp *models.SavePoint) {
		sp.Description = description
	})
}

// UpdateSavePointNotes replaces a save point's notes.
func (s *Store) UpdateSavePointNotes(ctx context.Context, adventureID, savePointID, notes string) error {
	return s.patchSavePoint(ctx, adventureID, savePointID, func(sp *models.SavePoint) {
		sp.Notes = notes
	})
}

func (s *Store) patchSavePoint(ctx context.Context, adventureID, savePointID string, patch func(*models.SavePoint)) error {
	a, err := s.Get(ctx, adventureID)
	if err != nil {
		return err
	}
	i := a.FindSavePoint(savePointID)
	if i < 0 {
		return errors.Wrap(ErrNoSavePoint, "patch save point", slog.String("savePointId", savePointID))
	}
	patch(&a.History[i])
	return s.SaveAdventure(ctx, a)
}

// DeleteSavePoint removes a save point from the history, clearing the
// current pointer when it pointed at the deleted entry.
func (s *Store) DeleteSavePoint(ctx context.Context, adventureID, savePointID string) error {
	a, err := s.Get(ctx, adventureID)
	if err != nil {
		return err
	}
	i := a.FindSavePoint(savePointID)
	if i < 0 {
		return errors.Wrap(ErrNoSavePoint, "delete save point", slog.String("savePointId", savePointID))
	}
	a.History = append(a.History[:i], a.History[i+1:]...)
	if a.CurrentSavePointID == savePointID {
		a.CurrentSavePointID = ""
	}
	return s.SaveAdventure(ctx, a)
}

// ClearConversation empties the adventure's live conversation and returns
// the messages that were cleared so the caller can archive them first.
func (s *Store) ClearConversation(ctx context.Context, adventureID string) ([]models.ChatMessage, error) {
	a, err := s.Get(ctx, adventureID)
	if err != nil {
		return nil, err
	}
	cleared := a.Conversation
	a.Conversation = []models.ChatMessage{}
	if err = s.SaveAdventure(ctx, a); err != nil {
		return nil, err
	}
	return cleared, nil
}

// trimConversation drops the oldest messages beyond the cap, keeping a
// leading system message in place.
func trimConversation(messages []models.ChatMessage) []models.ChatMessage {
	if len(messages) <= maxConversationMessages {
		return messages
	}
	if messages[0].Role == models.RoleSystem {
		keep := maxConversationMessages - 1
		trimmed := append([]models.ChatMessage{messages[0]}, messages[len(messages)-keep:]...)
		return trimmed
	}
	return messages[len(messages)-maxConversationMessages:]
}
