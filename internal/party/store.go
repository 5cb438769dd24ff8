// Package party persists the character roster and owns the turn-merge rules
// that keep user edits intact when the narrative generator sends partial
// character updates.
package party

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/models"
)

const rosterKey = "party_roster"

type Store struct {
	docs   *docstore.Store
	logger *slog.Logger
}

func NewStore(docs *docstore.Store, logger *slog.Logger) *Store {
	return &Store{
		docs:   docs,
		logger: logger.With("source", "PartyStore"),
	}
}

// Save persists the roster, stamping its last-updated time.
func (s *Store) Save(ctx context.Context, roster *models.PartyRoster) error {
	roster.LastUpdated = time.Now().UTC()
	if err := s.docs.Put(ctx, rosterKey, roster); err != nil {
		return errors.Wrap(err, "save roster")
	}
	return nil
}

// Load returns the persisted roster or nil when none has been saved yet.
func (s *Store) Load(ctx context.Context) (*models.PartyRoster, error) {
	var roster models.PartyRoster
	if err := s.docs.GetInto(ctx, rosterKey, &roster); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load roster")
	}
	if roster.Characters == nil {
		roster.Characters = map[string]models.Character{}
	}
	return &roster, nil
}

// Import validates an external roster document and replaces the stored
// roster with it. On a format failure the stored roster is untouched.
func (s *Store) Import(ctx context.Context, doc json.RawMessage) (*models.PartyRoster, error) {
	roster, err := models.DecodeRosterDocument(doc)
	if err != nil {
		return nil, errors.Wrap(err, "import roster")
	}
	if err = s.Save(ctx, roster); err != nil {
		return nil, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "imported roster", slog.Int("characters", len(roster.Characters)))
	return roster, nil
}

// Export serializes the stored roster in the same shape Import accepts.
func (s *Store) Export(ctx context.Context) (json.RawMessage, error) {
	roster, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if roster == nil {
		roster = models.NewPartyRoster()
	}
	out, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "export roster")
	}
	return out, nil
}

// MergeTurnUpdate merges the narrative generator's partial character updates
// into an existing roster. For each character present in partial, incoming
// fields win and omitted fields keep their prior values; characters absent
// from partial stay untouched; unknown names are inserted as new characters.
//
// The generator emits only changed fields (often just current_hp), so a blind
// replacement here would destroy unrelated user edits.
func MergeTurnUpdate(existing *models.PartyRoster, partial map[string]json.RawMessage) (*models.PartyRoster, error) {
	merged := models.NewPartyRoster()
	if existing != nil {
		merged.LastUpdated = existing.LastUpdated
		for name, c := range existing.Characters {
			merged.Characters[name] = c
		}
	}

	for name, rawUpdate := range partial {
		prior, ok := merged.Characters[name]
		if !ok {
			c, err := decodeNewCharacter(name, rawUpdate)
			if err != nil {
				return nil, err
			}
			merged.Characters[name] = c
			continue
		}

		c, err := overlayCharacter(prior, rawUpdate)
		if err != nil {
			return nil, errors.Wrap(err, "merge character update", slog.String("name", name))
		}
		merged.Characters[name] = c
	}

	return merged, nil
}

// ApplyTurnUpdate loads the roster, merges the partial update into it, and
// persists the result. A nil or empty partial leaves the stored roster as is.
func (s *Store) ApplyTurnUpdate(ctx context.Context, partial map[string]json.RawMessage) (*models.PartyRoster, error) {
	existing, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(partial) == 0 {
		return existing, nil
	}

	merged, err := MergeTurnUpdate(existing, partial)
	if err != nil {
		return nil, err
	}
	if err = s.Save(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func decodeNewCharacter(name string, raw json.RawMessage) (models.Character, error) {
	var c models.Character
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Character{}, errors.Wrap(models.ErrFormat, "decode new character", slog.String("name", name))
	}
	if c.Name == "" {
		c.Name = name
	}
	return models.NormalizeCharacter(c), nil
}

// overlayCharacter performs the field-level union: the prior sheet is turned
// into a JSON object, the update's keys are laid over it, and the result is
// decoded back into a character.
func overlayCharacter(prior models.Character, rawUpdate json.RawMessage) (models.Character, error) {
	priorJSON, err := json.Marshal(prior)
	if err != nil {
		return models.Character{}, errors.Wrap(err, "marshal prior character")
	}

	var priorFields map[string]json.RawMessage
	if err = json.Unmarshal(priorJSON, &priorFields); err != nil {
		return models.Character{}, errors.Wrap(err, "explode prior character")
	}

	var updateFields map[string]json.RawMessage
	if err = json.Unmarshal(rawUpdate, &updateFields); err != nil {
		return models.Character{}, errors.Wrap(models.ErrFormat, "decode character update")
	}

	for field, value := range updateFields {
		priorFields[field] = value
	}

	mergedJSON, err := json.Marshal(priorFields)
	if err != nil {
		return models.Character{}, errors.Wrap(err, "marshal merged character")
	}

	var merged models.Character
	if err = json.Unmarshal(mergedJSON, &merged); err != nil {
		return models.Character{}, errors.Wrap(models.ErrFormat, "decode merged character")
	}
	return merged, nil
}
