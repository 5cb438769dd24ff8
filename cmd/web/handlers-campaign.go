package main

import (
	"net/http"
	"strings"

	"github.com/jlaasanen/dmvault/internal/campaign"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/synchronizer"
)

func (app *application) listCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := app.campaigns.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, campaigns)
}

func (app *application) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdventureID string `json:"adventure_id"`
		Name        string `json:"name"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		app.clientError(w, r, http.StatusBadRequest, "name must not be empty")
		return
	}
	created, err := app.campaigns.CreateCampaign(r.Context(), req.AdventureID, req.Name)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicCampaigns)
	app.writeJSON(w, http.StatusCreated, created)
}

func (app *application) currentCampaign(w http.ResponseWriter, r *http.Request) {
	current, err := app.campaigns.CurrentCampaign(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if current == nil {
		app.clientError(w, r, http.StatusNotFound, "no current campaign")
		return
	}
	app.writeJSON(w, http.StatusOK, current)
}

// setCurrentCampaign repoints the current campaign. An empty id clears the
// pointer.
func (app *application) setCurrentCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if err := app.campaigns.SetCurrentCampaign(r.Context(), req.ID); err != nil {
		if errors.Is(err, campaign.ErrNoCampaign) {
			app.clientError(w, r, http.StatusNotFound, "campaign not found")
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicCampaigns)
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) getCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := app.campaigns.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, campaign.ErrNoCampaign) {
			app.clientError(w, r, http.StatusNotFound, "campaign not found")
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, c)
}

// newSession activates the campaign and starts its next session.
func (app *application) newSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := app.campaigns.SetCurrentCampaign(ctx, r.PathValue("id")); err != nil {
		if errors.Is(err, campaign.ErrNoCampaign) {
			app.clientError(w, r, http.StatusNotFound, "campaign not found")
			return
		}
		app.serverError(w, r, err)
		return
	}
	c, err := app.campaigns.StartNewSession(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicCampaigns)
	app.writeJSON(w, http.StatusOK, c)
}
