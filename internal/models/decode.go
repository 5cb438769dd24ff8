package models

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/jlaasanen/dmvault/internal/errors"
)

// ErrFormat is returned when an imported document does not match any accepted
// shape. The source store is left unchanged on format failures.
var ErrFormat = errors.NewSentinel("malformed document")

// DecodeCharacter validates and default-fills a single character object.
// A character must at least carry a non-empty name.
func DecodeCharacter(raw json.RawMessage) (Character, error) {
	var c Character
	if err := json.Unmarshal(raw, &c); err != nil {
		return Character{}, errors.Wrap(ErrFormat, "decode character")
	}
	if c.Name == "" {
		return Character{}, errors.Wrap(ErrFormat, "character missing name")
	}
	return NormalizeCharacter(c), nil
}

// NormalizeCharacter fills the defaults a sparse character sheet omits:
// level 1, ability scores of 10, proficiency bonus +2, empty collections.
func NormalizeCharacter(c Character) Character {
	if c.Level == 0 {
		c.Level = 1
	}
	if c.ProficiencyBonus == 0 {
		c.ProficiencyBonus = 2
	}
	if (c.Abilities == AbilityScores{}) {
		c.Abilities = DefaultAbilityScores()
	}
	if c.Skills == nil {
		c.Skills = map[string]bool{}
	}
	if c.Inventory == nil {
		c.Inventory = []string{}
	}
	if c.Conditions == nil {
		c.Conditions = []string{}
	}
	return c
}

// DecodeRosterDocument accepts the three import shapes: a roster wrapper
// `{"characters": {...}}`, a bare character array, or a single character
// object. Anything else fails with ErrFormat.
func DecodeRosterDocument(raw json.RawMessage) (*PartyRoster, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.Wrap(ErrFormat, "empty roster document")
	}

	switch trimmed[0] {
	case '{':
		var wrapper struct {
			Characters map[string]json.RawMessage `json:"characters"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, errors.Wrap(ErrFormat, "decode roster document")
		}
		if wrapper.Characters != nil {
			roster := NewPartyRoster()
			for name, rawCharacter := range wrapper.Characters {
				c, err := DecodeCharacter(rawCharacter)
				if err != nil {
					return nil, errors.Wrap(err, "decode roster character", slog.String("name", name))
				}
				if c.Name == "" {
					c.Name = name
				}
				roster.Characters[name] = c
			}
			return roster, nil
		}
		// A single character object.
		c, err := DecodeCharacter(trimmed)
		if err != nil {
			return nil, err
		}
		roster := NewPartyRoster()
		roster.Characters[c.Name] = c
		return roster, nil

	case '[':
		var rawCharacters []json.RawMessage
		if err := json.Unmarshal(trimmed, &rawCharacters); err != nil {
			return nil, errors.Wrap(ErrFormat, "decode character array")
		}
		roster := NewPartyRoster()
		for _, rawCharacter := range rawCharacters {
			c, err := DecodeCharacter(rawCharacter)
			if err != nil {
				return nil, err
			}
			roster.Characters[c.Name] = c
		}
		return roster, nil

	default:
		return nil, errors.Wrap(ErrFormat, "roster document is neither object nor array")
	}
}

// DecodeQuestLogEntry validates a quest entry, defaulting an absent status to
// not_started and rejecting unknown statuses.
func DecodeQuestLogEntry(raw json.RawMessage) (QuestLogEntry, error) {
	var entry QuestLogEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return QuestLogEntry{}, errors.Wrap(ErrFormat, "decode quest log entry")
	}
	if entry.Name == "" {
		return QuestLogEntry{}, errors.Wrap(ErrFormat, "quest log entry missing name")
	}
	if entry.Status == "" {
		entry.Status = QuestNotStarted
	}
	if !entry.Status.Valid() {
		return QuestLogEntry{}, errors.Wrap(ErrFormat, "unknown quest status",
			slog.String("status", string(entry.Status)))
	}
	return entry, nil
}

// DecodeSessionState validates and default-fills a session state document.
func DecodeSessionState(raw json.RawMessage) (*SessionState, error) {
	var state SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, errors.Wrap(ErrFormat, "decode session state")
	}
	if state.Party == nil {
		state.Party = []string{}
	}
	if state.QuestLog == nil {
		state.QuestLog = []SessionQuestEntry{}
	}
	if state.WorldState == nil {
		state.WorldState = map[string]any{}
	}
	if state.PartyInventory == nil {
		state.PartyInventory = map[string]any{}
	}
	for i := range state.QuestLog {
		if state.QuestLog[i].Status == "" {
			state.QuestLog[i].Status = QuestNotStarted
		}
		if !state.QuestLog[i].Status.Valid() {
			return nil, errors.Wrap(ErrFormat, "unknown quest status",
				slog.String("status", string(state.QuestLog[i].Status)))
		}
	}
	return &state, nil
}
