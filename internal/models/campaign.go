package models

import "time"

// Campaign is the durable, authoritative per-adventure play-state record.
// Multiple campaigns may exist for one adventure across sessions; exactly one
// "current" campaign pointer exists at a time.
type Campaign struct {
	ID              string          `json:"id"`
	AdventureID     string          `json:"adventure_id"`
	Name            string          `json:"name"`
	SessionNumber   int             `json:"session_number"`
	DateStarted     time.Time       `json:"date_started"`
	LastPlayed      time.Time       `json:"last_played"`
	CurrentLocation string          `json:"current_location,omitempty"`
	ActiveEncounter string          `json:"active_encounter,omitempty"`
	Party           []string        `json:"party"`
	QuestLog        []QuestLogEntry `json:"quest_log"`
	WorldState      map[string]any  `json:"world_state"`
	PartyInventory  map[string]any  `json:"party_inventory"`
	Notes           string          `json:"notes,omitempty"`
}

// FindQuest resolves a quest log entry by id first, then by case-insensitive
// exact name. Returns the index or -1.
func (c *Campaign) FindQuest(id, name string) int {
	if id != "" {
		for i := range c.QuestLog {
			if c.QuestLog[i].ID == id {
				return i
			}
		}
	}
	if name != "" {
		for i := range c.QuestLog {
			if QuestNamesEqual(c.QuestLog[i].Name, name) {
				return i
			}
		}
	}
	return -1
}

// SessionState is the transient turn-to-turn view exchanged with the
// narrative generator. It derives from Campaign but mutates independently
// during a turn and is reconciled back after it.
type SessionState struct {
	Campaign        string              `json:"campaign,omitempty"`
	SessionNumber   int                 `json:"session_number"`
	DateStarted     time.Time           `json:"date_started"`
	CurrentLocation string              `json:"current_location,omitempty"`
	ActiveEncounter string              `json:"active_encounter,omitempty"`
	Party           []string            `json:"party"`
	QuestLog        []SessionQuestEntry `json:"quest_log"`
	WorldState      map[string]any      `json:"world_state"`
	PartyInventory  map[string]any      `json:"party_inventory"`
	Notes           string              `json:"notes,omitempty"`
}

// SessionStateFromCampaign derives the transient view from the durable record.
func SessionStateFromCampaign(c *Campaign) *SessionState {
	questLog := make([]SessionQuestEntry, 0, len(c.QuestLog))
	for _, entry := range c.QuestLog {
		questLog = append(questLog, SessionQuestEntry{
			Name:        entry.Name,
			Status:      entry.Status,
			Description: entry.Description,
			Notes:       entry.Notes,
		})
	}
	return &SessionState{
		Campaign:        c.Name,
		SessionNumber:   c.SessionNumber,
		DateStarted:     c.DateStarted,
		CurrentLocation: c.CurrentLocation,
		ActiveEncounter: c.ActiveEncounter,
		Party:           append([]string(nil), c.Party...),
		QuestLog:        questLog,
		WorldState:      copyAnyMap(c.WorldState),
		PartyInventory:  copyAnyMap(c.PartyInventory),
		Notes:           c.Notes,
	}
}

func copyAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
