package main

import (
	"net/http"
	"strings"

	"github.com/jlaasanen/dmvault/internal/adventure"
	"github.com/jlaasanen/dmvault/internal/dm"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/synchronizer"
)

type actionRequest struct {
	Message     string `json:"message"`
	Voice       bool   `json:"voice"`
	AdventureID string `json:"adventure_id,omitempty"`
	CampaignID  string `json:"campaign_id,omitempty"`
}

// action runs one player turn. The adventure defaults to the current one;
// the campaign resolution is left to the synchronizer.
func (app *application) action(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		app.clientError(w, r, http.StatusBadRequest, "message must not be empty")
		return
	}

	if req.AdventureID == "" {
		current, err := app.adventures.CurrentAdventure(r.Context())
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		if current == nil {
			app.clientError(w, r, http.StatusConflict, "no adventure selected")
			return
		}
		req.AdventureID = current.ID
	}

	result, err := app.synchronizer.RunTurn(r.Context(), synchronizer.ActiveSessionContext{
		AdventureID: req.AdventureID,
		CampaignID:  req.CampaignID,
	}, req.Message, req.Voice)
	if err != nil {
		switch {
		case errors.Is(err, synchronizer.ErrTurnInFlight):
			app.clientError(w, r, http.StatusConflict, "a turn is already in flight")
		case errors.Is(err, adventure.ErrNoAdventure):
			app.clientError(w, r, http.StatusNotFound, "adventure not found")
		case errors.Is(err, dm.ErrTransport):
			app.clientError(w, r, http.StatusBadGateway, "narrative generator unavailable")
		default:
			app.serverError(w, r, err)
		}
		return
	}

	app.writeJSON(w, http.StatusOK, result)
}
