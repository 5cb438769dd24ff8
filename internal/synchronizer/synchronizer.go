// Package synchronizer runs the once-per-turn reconciliation across the five
// play-state stores and the narrative generator. It is the only place where
// the stores are composed; each of them stays ignorant of the others.
package synchronizer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jlaasanen/dmvault/internal/adventure"
	"github.com/jlaasanen/dmvault/internal/broker"
	"github.com/jlaasanen/dmvault/internal/campaign"
	"github.com/jlaasanen/dmvault/internal/dm"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/logging"
	"github.com/jlaasanen/dmvault/internal/models"
	"github.com/jlaasanen/dmvault/internal/party"
	"github.com/jlaasanen/dmvault/internal/questscan"
	"github.com/jlaasanen/dmvault/internal/session"
)

// ErrTurnInFlight is returned when a turn starts while another one has not
// resolved. Exactly one turn may be in flight; overlapping turns are rejected
// rather than queued so the caller can tell the player to wait.
var ErrTurnInFlight = errors.NewSentinel("a turn is already in flight")

// Broker topics, one per store view.
const (
	TopicParty      = "party"
	TopicSession    = "session_state"
	TopicCampaigns  = "campaigns"
	TopicAdventures = "adventures"
	TopicArchives   = "chat_archives"
)

// ChangeEvent announces that a store view changed and should be re-read.
type ChangeEvent struct {
	View string    `json:"view"`
	At   time.Time `json:"at"`
}

// Broker fans store change events out to listeners such as the SSE endpoint.
type Broker = broker.Fanout[string, ChangeEvent]

// Generator is the narrative generation boundary. Its reasoning is opaque;
// only the request/response contract matters.
type Generator interface {
	Action(ctx context.Context, turn models.TurnRequest) (*models.TurnResponse, error)
}

// ActiveSessionContext identifies the adventure and campaign a turn runs
// under. It is threaded explicitly instead of living in process-wide
// "current id" state so concurrent surfaces cannot disagree about it.
type ActiveSessionContext struct {
	AdventureID string
	CampaignID  string
}

// TurnResult is the reconciled state after a completed turn.
type TurnResult struct {
	Narrative    string               `json:"narrative"`
	AudioURL     string               `json:"audio_url,omitempty"`
	Adventure    *models.Adventure    `json:"adventure,omitempty"`
	Campaign     *models.Campaign     `json:"campaign,omitempty"`
	SessionState *models.SessionState `json:"session_state,omitempty"`
	Roster       *models.PartyRoster  `json:"roster,omitempty"`
	QuestUpdates []models.QuestUpdate `json:"quest_updates,omitempty"`
}

type Synchronizer struct {
	parties    *party.Store
	sessions   *session.Store
	campaigns  *campaign.Store
	adventures *adventure.Store
	generator  Generator
	broker     *Broker
	logger     *slog.Logger
	inFlight   atomic.Bool
}

func New(
	parties *party.Store,
	sessions *session.Store,
	campaigns *campaign.Store,
	adventures *adventure.Store,
	generator Generator,
	b *Broker,
	logger *slog.Logger,
) *Synchronizer {
	return &Synchronizer{
		parties:    parties,
		sessions:   sessions,
		campaigns:  campaigns,
		adventures: adventures,
		generator:  generator,
		broker:     b,
		logger:     logger.With("source", "Synchronizer"),
	}
}

// RunTurn executes one player action against the narrative generator and
// reconciles all stores with the response. The generator call is the sole
// hard-fail boundary: a transport failure aborts the turn with ErrTransport
// and leaves no state behind beyond the already-appended user message. Every
// step after it persists independently and degrades to log-and-continue, so
// a failure mid-sequence keeps prior steps durable.
func (s *Synchronizer) RunTurn(
	ctx context.Context,
	active ActiveSessionContext,
	message string,
	voice bool,
) (*TurnResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, errors.Wrap(ErrTurnInFlight, "run turn",
			slog.String("adventureId", active.AdventureID))
	}
	defer s.inFlight.Store(false)

	ctx = logging.WithAttrs(ctx, slog.String("adventureId", active.AdventureID))

	// Step 1: the outgoing user message becomes part of the transcript before
	// anything can fail, so a lost turn still shows what the player said.
	if err := s.adventures.AppendUserMessage(ctx, active.AdventureID, message); err != nil {
		return nil, errors.Wrap(err, "append user message")
	}
	s.publish(TopicAdventures)

	adv, err := s.adventures.Get(ctx, active.AdventureID)
	if err != nil {
		return nil, errors.Wrap(err, "load adventure")
	}

	camp, err := s.activeCampaign(ctx, active)
	if err != nil {
		return nil, err
	}

	// Step 2: build the request. The campaign's quest log layers over the
	// session's so the generator always sees the authoritative quest state
	// even when the transient view is stale.
	turn, err := s.buildTurnRequest(ctx, message, voice, adv, camp)
	if err != nil {
		return nil, err
	}

	// Step 3: the only suspension point and the only hard failure.
	response, err := s.generator.Action(ctx, turn)
	if err != nil {
		if ctx.Err() == nil {
			// A cancelled turn must stay a clean no-op, so the failure notice
			// goes into the transcript only when the caller is still there.
			if appendErr := s.adventures.AppendSystemMessage(ctx, active.AdventureID,
				"The storyteller could not be reached. Your action was not resolved; try again."); appendErr != nil {
				s.logger.LogAttrs(ctx, slog.LevelError, "failed to record transport failure",
					errors.SlogError(appendErr))
			}
			s.publish(TopicAdventures)
		}
		return nil, errors.Wrap(err, "narrative generator turn")
	}

	result := &TurnResult{
		Narrative:    response.Narrative,
		AudioURL:     response.AudioURL,
		QuestUpdates: response.QuestUpdates,
	}

	// Steps 4 and 7: narrative into the transcript, running state and current
	// save point updated. The user message went in at step 1 already.
	gameState, err := json.Marshal(response.GameState)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to encode game state", errors.SlogError(err))
		gameState = nil
	}
	if result.Adventure, err = s.adventures.UpdateAdventureState(
		ctx, active.AdventureID, response.Narrative, gameState, "", response.AudioURL,
	); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to persist adventure state", errors.SlogError(err))
	}
	s.publish(TopicAdventures)

	// Step 5: character deltas merge field-wise into the roster. No deltas,
	// no write.
	if len(response.GameState.Characters) > 0 {
		if result.Roster, err = s.parties.ApplyTurnUpdate(ctx, response.GameState.Characters); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to merge roster update", errors.SlogError(err))
		}
		s.publish(TopicParty)
	}

	// Step 6: structured quest updates, falling back to scanning the
	// narrative when the generator sent none.
	delta := response.GameState
	if camp != nil {
		updates := response.QuestUpdates
		if len(updates) == 0 {
			updates = questscan.Scan(response.Narrative, camp.QuestLog)
			result.QuestUpdates = updates
		}
		for _, update := range updates {
			updated, updateErr := s.campaigns.ApplyQuestUpdate(ctx, camp.ID, update)
			if updateErr != nil {
				s.logger.LogAttrs(ctx, slog.LevelError, "failed to apply quest update",
					slog.String("quest", update.Name), errors.SlogError(updateErr))
				continue
			}
			camp = updated
		}
		if len(updates) > 0 {
			s.publish(TopicCampaigns)
		}
		// The campaign is authoritative for quests, so its freshly updated
		// log replaces whatever quest view the generator returned.
		delta.QuestLog = sessionQuestLog(camp.QuestLog)
	}

	// Step 8: reconcile the transient view, then fold it back into the
	// campaign so the next turn starts from agreed state.
	var fallback *models.SessionState
	if camp != nil {
		fallback = models.SessionStateFromCampaign(camp)
	}
	if result.SessionState, err = s.sessions.ApplyTurnGameState(ctx, delta, fallback); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to reconcile session state", errors.SlogError(err))
	}
	s.publish(TopicSession)

	if result.SessionState != nil {
		if result.Campaign, err = s.campaigns.SyncWithSessionState(ctx, result.SessionState); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to sync campaign", errors.SlogError(err))
		}
		s.publish(TopicCampaigns)
	} else {
		result.Campaign = camp
	}

	return result, nil
}

// activeCampaign resolves the campaign the turn runs under and makes it the
// current one. A missing campaign is not an error; campaign-backed steps are
// skipped for the turn.
func (s *Synchronizer) activeCampaign(ctx context.Context, active ActiveSessionContext) (*models.Campaign, error) {
	if active.CampaignID == "" {
		c, err := s.campaigns.CurrentCampaign(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load current campaign")
		}
		return c, nil
	}
	c, err := s.campaigns.Get(ctx, active.CampaignID)
	if err != nil {
		if errors.Is(err, campaign.ErrNoCampaign) {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "active campaign not found",
				slog.String("campaignId", active.CampaignID))
			return nil, nil
		}
		return nil, errors.Wrap(err, "load active campaign")
	}
	if err = s.campaigns.SetCurrentCampaign(ctx, c.ID); err != nil {
		return nil, errors.Wrap(err, "activate campaign")
	}
	return c, nil
}

func (s *Synchronizer) buildTurnRequest(
	ctx context.Context,
	message string,
	voice bool,
	adv *models.Adventure,
	camp *models.Campaign,
) (models.TurnRequest, error) {
	state, err := s.sessions.Load(ctx)
	if err != nil {
		return models.TurnRequest{}, errors.Wrap(err, "load session state")
	}
	if state == nil {
		if camp != nil {
			state = models.SessionStateFromCampaign(camp)
		} else {
			state = &models.SessionState{}
		}
	}
	if camp != nil {
		state.QuestLog = layerQuestLogs(camp.QuestLog, state.QuestLog)
	}

	turnState := models.TurnSessionState{SessionState: *state}

	roster, err := s.parties.Load(ctx)
	if err != nil {
		return models.TurnRequest{}, errors.Wrap(err, "load roster")
	}
	if roster != nil {
		turnState.PartyMembers = roster.Members()
		turnState.Party = roster.Names()
	}

	turn := models.TurnRequest{
		Message:      message,
		Voice:        voice,
		ContextType:  dm.DetectContext(message, state.ActiveEncounter != ""),
		SessionState: &turnState,
	}
	if adv != nil {
		turn.AdventureContext = &models.AdventureContext{
			ID:          adv.ID,
			Name:        adv.Name,
			Description: adv.Description,
			Notes:       adv.Notes,
		}
	}
	return turn, nil
}

func (s *Synchronizer) publish(topic string) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(topic, ChangeEvent{View: topic, At: time.Now().UTC()})
}

// layerQuestLogs overlays the authoritative quest entries on the session's:
// same-name session entries are replaced, session-only entries survive.
func layerQuestLogs(authoritative []models.QuestLogEntry, transient []models.SessionQuestEntry) []models.SessionQuestEntry {
	layered := append([]models.SessionQuestEntry(nil), transient...)
	for _, entry := range authoritative {
		replaced := false
		for i := range layered {
			if models.QuestNamesEqual(layered[i].Name, entry.Name) {
				layered[i] = sessionQuestEntry(entry)
				replaced = true
				break
			}
		}
		if !replaced {
			layered = append(layered, sessionQuestEntry(entry))
		}
	}
	return layered
}

func sessionQuestEntry(entry models.QuestLogEntry) models.SessionQuestEntry {
	return models.SessionQuestEntry{
		Name:        entry.Name,
		Status:      entry.Status,
		Description: entry.Description,
		Notes:       entry.Notes,
	}
}

func sessionQuestLog(entries []models.QuestLogEntry) []models.SessionQuestEntry {
	log := make([]models.SessionQuestEntry, 0, len(entries))
	for _, entry := range entries {
		log = append(log, sessionQuestEntry(entry))
	}
	return log
}
