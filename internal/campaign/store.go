// Package campaign persists the durable per-adventure play-state records and
// owns the quest-log upsert and session-state reconciliation rules.
package campaign

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/models"
)

const (
	campaignsKey = "campaigns"
	currentKey   = "current_campaign_id"
)

// ErrNoCampaign is returned when a campaign id cannot be resolved.
var ErrNoCampaign = errors.NewSentinel("campaign not found")

type Store struct {
	docs   *docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewStore(docs *docstore.Store, logger *slog.Logger) *Store {
	return &Store{
		docs:   docs,
		logger: logger.With("source", "CampaignStore"),
		now:    time.Now,
	}
}

// List returns all stored campaigns.
func (s *Store) List(ctx context.Context) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	if err := s.docs.GetInto(ctx, campaignsKey, &campaigns); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return []models.Campaign{}, nil
		}
		return nil, errors.Wrap(err, "load campaigns")
	}
	return campaigns, nil
}

// Get resolves one campaign by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Campaign, error) {
	campaigns, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].ID == id {
			return &campaigns[i], nil
		}
	}
	return nil, errors.Wrap(ErrNoCampaign, "get campaign", slog.String("id", id))
}

// CurrentCampaign returns the campaign the current pointer names, or nil when
// no pointer is set.
func (s *Store) CurrentCampaign(ctx context.Context) (*models.Campaign, error) {
	var id string
	if err := s.docs.GetInto(ctx, currentKey, &id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load current campaign pointer")
	}
	if id == "" {
		return nil, nil
	}
	return s.Get(ctx, id)
}

// SetCurrentCampaign repoints the current campaign. An empty id clears the pointer.
func (s *Store) SetCurrentCampaign(ctx context.Context, id string) error {
	if id == "" {
		if err := s.docs.Delete(ctx, currentKey); err != nil {
			return errors.Wrap(err, "clear current campaign pointer")
		}
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.docs.Put(ctx, currentKey, id); err != nil {
		return errors.Wrap(err, "set current campaign pointer")
	}
	return nil
}

// SaveCampaign upserts the campaign into the stored list by id.
func (s *Store) SaveCampaign(ctx context.Context, c *models.Campaign) error {
	campaigns, err := s.List(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range campaigns {
		if campaigns[i].ID == c.ID {
			campaigns[i] = *c
			replaced = true
			break
		}
	}
	if !replaced {
		campaigns = append(campaigns, *c)
	}
	if err = s.docs.Put(ctx, campaignsKey, campaigns); err != nil {
		return errors.Wrap(err, "save campaigns")
	}
	return nil
}

// CampaignForAdventure returns the most recently played campaign for the
// adventure, or nil when the adventure has none.
func (s *Store) CampaignForAdventure(ctx context.Context, adventureID string) (*models.Campaign, error) {
	campaigns, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var latest *models.Campaign
	for i := range campaigns {
		if campaigns[i].AdventureID != adventureID {
			continue
		}
		if latest == nil || campaigns[i].LastPlayed.After(latest.LastPlayed) {
			latest = &campaigns[i]
		}
	}
	return latest, nil
}

// CreateCampaign starts a fresh campaign record for the adventure and makes
// it current.
func (s *Store) CreateCampaign(ctx context.Context, adventureID, name string) (*models.Campaign, error) {
	now := s.now().UTC()
	c := &models.Campaign{
		ID:             uuid.NewString(),
		AdventureID:    adventureID,
		Name:           name,
		SessionNumber:  1,
		DateStarted:    now,
		LastPlayed:     now,
		Party:          []string{},
		QuestLog:       []models.QuestLogEntry{},
		WorldState:     map[string]any{},
		PartyInventory: map[string]any{},
	}
	if err := s.SaveCampaign(ctx, c); err != nil {
		return nil, err
	}
	if err := s.SetCurrentCampaign(ctx, c.ID); err != nil {
		return nil, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "created campaign",
		slog.String("id", c.ID), slog.String("adventureId", adventureID))
	return c, nil
}

// StartNewSession increments the current campaign's session number and stamps
// its last-played time. The session number never decreases.
func (s *Store) StartNewSession(ctx context.Context) (*models.Campaign, error) {
	c, err := s.CurrentCampaign(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.Wrap(ErrNoCampaign, "start new session without current campaign")
	}
	c.SessionNumber++
	c.LastPlayed = s.now().UTC()
	if err = s.SaveCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuestLog upserts one quest entry into the campaign's quest log.
// The target resolves by id first, then by case-insensitive exact name. A
// resolved entry is replaced in place with its creation timestamp preserved
// and a fresh updated timestamp; an unresolved entry is appended as new.
//
// Turn responses may reference quests by display name without knowing the
// internal id, hence the dual-key resolution.
func (s *Store) UpdateQuestLog(ctx context.Context, campaignID string, entry models.QuestLogEntry) (*models.Campaign, error) {
	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if entry.Status == "" {
		entry.Status = models.QuestNotStarted
	}
	if !entry.Status.Valid() {
		return nil, errors.Wrap(models.ErrFormat, "unknown quest status",
			slog.String("status", string(entry.Status)))
	}

	if i := c.FindQuest(entry.ID, entry.Name); i >= 0 {
		entry.ID = c.QuestLog[i].ID
		entry.Created = c.QuestLog[i].Created
		entry.Updated = now
		c.QuestLog[i] = entry
	} else {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.Created = now
		entry.Updated = now
		c.QuestLog = append(c.QuestLog, entry)
	}

	if err = s.SaveCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyQuestUpdate maps a structured quest update from a turn response onto
// the quest log. Complete and fail force their terminal status; update merges
// status, description, and notes over the existing entry; create appends when
// the name is unknown and otherwise behaves like update.
func (s *Store) ApplyQuestUpdate(ctx context.Context, campaignID string, update models.QuestUpdate) (*models.Campaign, error) {
	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	entry := models.QuestLogEntry{
		ID:          update.QuestID,
		Name:        update.Name,
		Status:      update.Status,
		Description: update.Description,
		Notes:       update.Notes,
	}
	if i := c.FindQuest(update.QuestID, update.Name); i >= 0 {
		prior := c.QuestLog[i]
		entry.ID = prior.ID
		entry.Name = prior.Name
		if entry.Status == "" {
			entry.Status = prior.Status
		}
		if entry.Description == "" {
			entry.Description = prior.Description
		}
		if entry.Notes == "" {
			entry.Notes = prior.Notes
		}
	}

	switch update.Action {
	case models.QuestActionComplete:
		entry.Status = models.QuestCompleted
	case models.QuestActionFail:
		entry.Status = models.QuestFailed
	case models.QuestActionCreate:
		if entry.Status == "" {
			entry.Status = models.QuestNotStarted
		}
	case models.QuestActionUpdate:
		// Fields already merged above.
	default:
		return nil, errors.Wrap(models.ErrFormat, "unknown quest action",
			slog.String("action", string(update.Action)))
	}

	return s.UpdateQuestLog(ctx, campaignID, entry)
}

// SyncWithSessionState reconciles the current campaign against the transient
// session state: location, encounter, and party copy over; the quest log is
// name-upserted with ids, notes, and timestamps preserved; a larger session
// number is adopted. The sync is one-directional and idempotent.
func (s *Store) SyncWithSessionState(ctx context.Context, state *models.SessionState) (*models.Campaign, error) {
	c, err := s.CurrentCampaign(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		// Nothing to reconcile into; the gap resolves on the next campaign switch.
		s.logger.LogAttrs(ctx, slog.LevelDebug, "sync skipped, no current campaign")
		return nil, nil
	}

	c.CurrentLocation = state.CurrentLocation
	c.ActiveEncounter = state.ActiveEncounter
	if state.Party != nil {
		c.Party = append([]string(nil), state.Party...)
	}

	now := s.now().UTC()
	for _, sessionEntry := range state.QuestLog {
		if i := c.FindQuest("", sessionEntry.Name); i >= 0 {
			c.QuestLog[i].Status = sessionEntry.Status
			if sessionEntry.Description != "" {
				c.QuestLog[i].Description = sessionEntry.Description
			}
			continue
		}
		c.QuestLog = append(c.QuestLog, models.QuestLogEntry{
			ID:          uuid.NewString(),
			Name:        sessionEntry.Name,
			Status:      sessionEntry.Status,
			Description: sessionEntry.Description,
			Notes:       sessionEntry.Notes,
			Created:     now,
			Updated:     now,
		})
	}

	// The session number only moves forward, either by starting a new
	// session or by adopting a larger number reported by the session state.
	if state.SessionNumber > c.SessionNumber {
		c.SessionNumber = state.SessionNumber
	}

	if err = s.SaveCampaign(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
