package models

import (
	"strings"
	"time"
)

// QuestStatus is the lifecycle state of a quest log entry. Completed and
// failed are terminal; a quest only reaches them by explicit action.
type QuestStatus string

const (
	QuestNotStarted QuestStatus = "not_started"
	QuestInProgress QuestStatus = "in_progress"
	QuestCompleted  QuestStatus = "completed"
	QuestFailed     QuestStatus = "failed"
)

// Valid reports whether the status is one of the known values.
func (s QuestStatus) Valid() bool {
	switch s {
	case QuestNotStarted, QuestInProgress, QuestCompleted, QuestFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s QuestStatus) Terminal() bool {
	return s == QuestCompleted || s == QuestFailed
}

// QuestLogEntry is a durable campaign quest record. The id is the primary key
// once assigned; name matching is the fallback for updates that arrive
// without an id.
type QuestLogEntry struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Status      QuestStatus `json:"status"`
	Description string      `json:"description,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Created     time.Time   `json:"created"`
	Updated     time.Time   `json:"updated"`
}

// SessionQuestEntry is the denormalized quest view exchanged with the
// narrative generator. It carries no id.
type SessionQuestEntry struct {
	Name        string      `json:"name"`
	Status      QuestStatus `json:"status"`
	Description string      `json:"description,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// QuestNamesEqual implements the only dedup strategy for quests: exact name
// match ignoring case. Near-duplicate names (punctuation, typos) are distinct
// quests on purpose.
func QuestNamesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// QuestAction is a structured quest mutation returned by the narrative generator.
type QuestAction string

const (
	QuestActionCreate   QuestAction = "create"
	QuestActionUpdate   QuestAction = "update"
	QuestActionComplete QuestAction = "complete"
	QuestActionFail     QuestAction = "fail"
)

// QuestUpdate is one entry of a turn response's quest_updates list.
type QuestUpdate struct {
	Action      QuestAction `json:"action"`
	QuestID     string      `json:"quest_id,omitempty"`
	Name        string      `json:"name"`
	Status      QuestStatus `json:"status,omitempty"`
	Description string      `json:"description,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}
