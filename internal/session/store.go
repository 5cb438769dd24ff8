// Package session persists the transient turn-to-turn view exchanged with
// the narrative generator.
package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/models"
)

const stateKey = "session_state"

// Keys whose values replace wholesale on update; everything else either
// shallow-merges at the top level or, for the two map-valued keys below,
// merges recursively.
const (
	keyWorldState     = "world_state"
	keyPartyInventory = "party_inventory"
)

type Store struct {
	docs   *docstore.Store
	logger *slog.Logger
}

func NewStore(docs *docstore.Store, logger *slog.Logger) *Store {
	return &Store{
		docs:   docs,
		logger: logger.With("source", "SessionStateStore"),
	}
}

// Load returns the persisted session state or nil when none exists.
func (s *Store) Load(ctx context.Context) (*models.SessionState, error) {
	raw, err := s.docs.Get(ctx, stateKey)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load session state")
	}
	state, err := models.DecodeSessionState(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode stored session state")
	}
	return state, nil
}

// Save persists the session state.
func (s *Store) Save(ctx context.Context, state *models.SessionState) error {
	if err := s.docs.Put(ctx, stateKey, state); err != nil {
		return errors.Wrap(err, "save session state")
	}
	return nil
}

// Clear removes the session state.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.docs.Delete(ctx, stateKey); err != nil {
		return errors.Wrap(err, "clear session state")
	}
	return nil
}

// Update merges a partial state document into the stored state and persists
// the result. Top-level fields merge shallowly with incoming values winning;
// world_state and party_inventory merge recursively key-wise; party,
// quest_log, and notes replace wholesale when supplied and are retained
// otherwise.
func (s *Store) Update(ctx context.Context, partial json.RawMessage) (*models.SessionState, error) {
	existing, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = &models.SessionState{}
	}

	existingJSON, err := json.Marshal(existing)
	if err != nil {
		return nil, errors.Wrap(err, "marshal session state")
	}
	var existingFields map[string]json.RawMessage
	if err = json.Unmarshal(existingJSON, &existingFields); err != nil {
		return nil, errors.Wrap(err, "explode session state")
	}

	var partialFields map[string]json.RawMessage
	if err = json.Unmarshal(partial, &partialFields); err != nil {
		return nil, errors.Wrap(models.ErrFormat, "decode session state update")
	}

	for field, value := range partialFields {
		if field == keyWorldState || field == keyPartyInventory {
			mergedMap, mergeErr := mergeRawMaps(existingFields[field], value)
			if mergeErr != nil {
				return nil, errors.Wrap(mergeErr, "merge session state map", slog.String("field", field))
			}
			existingFields[field] = mergedMap
			continue
		}
		existingFields[field] = value
	}

	mergedJSON, err := json.Marshal(existingFields)
	if err != nil {
		return nil, errors.Wrap(err, "marshal merged session state")
	}
	merged, err := models.DecodeSessionState(mergedJSON)
	if err != nil {
		return nil, err
	}

	if err = s.Save(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// ApplyTurnGameState reconciles the stored state against the game-state delta
// a turn returned: returned fields are preferred, prior values kept where the
// delta is silent. When no state exists yet, fallback seeds one so the next
// turn starts from the campaign's identity fields.
func (s *Store) ApplyTurnGameState(
	ctx context.Context,
	delta models.GameStateDelta,
	fallback *models.SessionState,
) (*models.SessionState, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		if fallback != nil {
			state = fallback
		} else {
			state = &models.SessionState{}
		}
	}

	if delta.Location != nil {
		state.CurrentLocation = *delta.Location
	}
	if delta.ActiveEncounter != nil {
		state.ActiveEncounter = *delta.ActiveEncounter
	}
	if delta.Party != nil {
		state.Party = delta.Party
	}
	if delta.QuestLog != nil {
		state.QuestLog = delta.QuestLog
	}
	state.WorldState = MergeStateMaps(state.WorldState, delta.WorldState)
	state.PartyInventory = MergeStateMaps(state.PartyInventory, delta.PartyInventory)

	if err = s.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// MergeStateMaps unions two state maps key-wise with incoming values winning.
// Nested maps merge recursively; any other value type overwrites.
func MergeStateMaps(existing, incoming map[string]any) map[string]any {
	if existing == nil {
		existing = map[string]any{}
	}
	for key, incomingValue := range incoming {
		existingChild, existingIsMap := existing[key].(map[string]any)
		incomingChild, incomingIsMap := incomingValue.(map[string]any)
		if existingIsMap && incomingIsMap {
			existing[key] = MergeStateMaps(existingChild, incomingChild)
			continue
		}
		existing[key] = incomingValue
	}
	return existing
}

func mergeRawMaps(existing, incoming json.RawMessage) (json.RawMessage, error) {
	existingMap := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &existingMap); err != nil {
			return nil, errors.Wrap(err, "decode existing map")
		}
	}
	incomingMap := map[string]any{}
	if len(incoming) > 0 {
		if err := json.Unmarshal(incoming, &incomingMap); err != nil {
			return nil, errors.Wrap(models.ErrFormat, "decode incoming map")
		}
	}
	merged, err := json.Marshal(MergeStateMaps(existingMap, incomingMap))
	if err != nil {
		return nil, errors.Wrap(err, "marshal merged map")
	}
	return merged, nil
}
