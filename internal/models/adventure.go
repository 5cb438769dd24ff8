package models

import (
	"encoding/json"
	"time"
)

// ChatMessage is one conversation entry. Role follows the chat convention of
// user/assistant/system.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	AudioURL  string    `json:"audio_url,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// SavePoint is a named snapshot enabling resumption from that moment. Its
// conversation snapshot is frozen at creation time; only description and
// notes may change afterwards.
type SavePoint struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description"`
	Notes       string          `json:"notes,omitempty"`
	Narrative   string          `json:"narrative,omitempty"`
	GameState   json.RawMessage `json:"game_state,omitempty"`
	// Conversation is the immutable transcript copy taken when the save
	// point was created. The adventure's live conversation keeps growing
	// without affecting it.
	Conversation []ChatMessage `json:"conversation_history"`
}

// Adventure groups the prompt material, the append-only save point history,
// and the running conversation for one adventure module.
type Adventure struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	History            []SavePoint     `json:"history"`
	CurrentSavePointID string          `json:"current_save_point,omitempty"`
	Conversation       []ChatMessage   `json:"conversation_history"`
	CurrentNarrative   string          `json:"current_narrative,omitempty"`
	CurrentGameState   json.RawMessage `json:"current_game_state,omitempty"`
}

// FindSavePoint returns the index of the save point with the given id or -1.
func (a *Adventure) FindSavePoint(id string) int {
	for i := range a.History {
		if a.History[i].ID == id {
			return i
		}
	}
	return -1
}

// ArchivedChat is a retired conversation transcript, detached from the live
// adventure. Immutable once created except for whole-record deletion.
type ArchivedChat struct {
	ID                   string        `json:"id"`
	Timestamp            time.Time     `json:"timestamp"`
	Name                 string        `json:"name,omitempty"`
	AdventureID          string        `json:"adventure_id,omitempty"`
	SavePointID          string        `json:"save_point_id,omitempty"`
	SavePointDescription string        `json:"save_point_description,omitempty"`
	Messages             []ChatMessage `json:"messages"`
}
