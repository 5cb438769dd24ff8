package main

import (
	"net/http"
	"strings"

	"github.com/jlaasanen/dmvault/internal/adventure"
	"github.com/jlaasanen/dmvault/internal/archive"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/synchronizer"
)

func (app *application) listAdventures(w http.ResponseWriter, r *http.Request) {
	adventures, err := app.adventures.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, adventures)
}

func (app *application) createAdventure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Notes       string `json:"notes"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		app.clientError(w, r, http.StatusBadRequest, "name must not be empty")
		return
	}
	created, err := app.adventures.CreateAdventure(r.Context(), req.Name, req.Description, req.Notes)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicAdventures)
	app.writeJSON(w, http.StatusCreated, created)
}

func (app *application) currentAdventure(w http.ResponseWriter, r *http.Request) {
	current, err := app.adventures.CurrentAdventure(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if current == nil {
		app.clientError(w, r, http.StatusNotFound, "no current adventure")
		return
	}
	app.writeJSON(w, http.StatusOK, current)
}

func (app *application) setCurrentAdventure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if err := app.adventures.SetCurrentAdventure(r.Context(), req.ID); err != nil {
		app.adventureError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicAdventures)
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) getAdventure(w http.ResponseWriter, r *http.Request) {
	a, err := app.adventures.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		app.adventureError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, a)
}

func (app *application) addSavePoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		Narrative   string `json:"narrative"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	sp, err := app.adventures.AddSavePoint(r.Context(), r.PathValue("id"), req.Description, req.Narrative, nil, nil)
	if err != nil {
		app.adventureError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicAdventures)
	app.writeJSON(w, http.StatusCreated, sp)
}

// patchSavePoint updates the editable save point fields. Narrative and game
// state are owned by the turn path and cannot be patched here.
func (app *application) patchSavePoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description *string `json:"description,omitempty"`
		Notes       *string `json:"notes,omitempty"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	adventureID, savePointID := r.PathValue("id"), r.PathValue("savePointID")
	if req.Description != nil {
		if err := app.adventures.UpdateSavePointDescription(ctx, adventureID, savePointID, *req.Description); err != nil {
			app.adventureError(w, r, err)
			return
		}
	}
	if req.Notes != nil {
		if err := app.adventures.UpdateSavePointNotes(ctx, adventureID, savePointID, *req.Notes); err != nil {
			app.adventureError(w, r, err)
			return
		}
	}
	app.publish(synchronizer.TopicAdventures)
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) deleteSavePoint(w http.ResponseWriter, r *http.Request) {
	if err := app.adventures.DeleteSavePoint(r.Context(), r.PathValue("id"), r.PathValue("savePointID")); err != nil {
		app.adventureError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicAdventures)
	w.WriteHeader(http.StatusNoContent)
}

// clearConversation empties the live transcript, optionally archiving it
// first so nothing is lost by accident.
func (app *application) clearConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Archive bool   `json:"archive"`
		Name    string `json:"name"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	adventureID := r.PathValue("id")

	cleared, err := app.adventures.ClearConversation(ctx, adventureID)
	if err != nil {
		app.adventureError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicAdventures)

	response := struct {
		ClearedMessages int    `json:"cleared_messages"`
		ArchiveID       string `json:"archive_id,omitempty"`
	}{ClearedMessages: len(cleared)}

	if req.Archive && len(cleared) > 0 {
		archived, archiveErr := app.archives.ArchiveChat(ctx, cleared, archive.Options{
			Name:        req.Name,
			AdventureID: adventureID,
		})
		if archiveErr != nil {
			app.storeError(w, r, archiveErr)
			return
		}
		app.publish(synchronizer.TopicArchives)
		response.ArchiveID = archived.ID
	}

	app.writeJSON(w, http.StatusOK, response)
}

func (app *application) adventureError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, adventure.ErrNoAdventure):
		app.clientError(w, r, http.StatusNotFound, "adventure not found")
	case errors.Is(err, adventure.ErrNoSavePoint):
		app.clientError(w, r, http.StatusNotFound, "save point not found")
	default:
		app.serverError(w, r, err)
	}
}
