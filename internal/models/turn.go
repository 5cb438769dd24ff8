package models

import "encoding/json"

// AdventureContext is the prompt material identifying the adventure in a
// turn request.
type AdventureContext struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// TurnSessionState is the session state sent to the narrative generator,
// extended with the full character sheets so the generator always sees the
// current party even when the transient view is stale.
type TurnSessionState struct {
	SessionState
	PartyMembers []Character `json:"party_members,omitempty"`
}

// TurnRequest is one player action sent to the narrative generator.
type TurnRequest struct {
	Message          string            `json:"message"`
	Voice            bool              `json:"voice"`
	ContextType      string            `json:"context_type,omitempty"`
	AdventureContext *AdventureContext `json:"adventure_context,omitempty"`
	SessionState     *TurnSessionState `json:"session_state,omitempty"`
}

// GameStateDelta carries only the fields the narrative generator changed
// this turn. Character entries are partial objects; absent fields mean
// "unchanged", which is why they stay raw until the merge.
type GameStateDelta struct {
	Characters      map[string]json.RawMessage `json:"characters,omitempty"`
	Location        *string                    `json:"location,omitempty"`
	ActiveEncounter *string                    `json:"active_encounter,omitempty"`
	Party           []string                   `json:"party,omitempty"`
	QuestLog        []SessionQuestEntry        `json:"quest_log,omitempty"`
	WorldState      map[string]any             `json:"world_state,omitempty"`
	PartyInventory  map[string]any             `json:"party_inventory,omitempty"`
}

// TurnResponse is the narrative generator's reply to one player action.
type TurnResponse struct {
	Narrative    string           `json:"narrative"`
	AudioURL     string           `json:"audio_url,omitempty"`
	GameState    GameStateDelta   `json:"game_state"`
	QuestUpdates []QuestUpdate    `json:"quest_updates,omitempty"`
	ToolResults  []map[string]any `json:"tool_results"`
	Cost         map[string]int   `json:"cost,omitempty"`
}
