package main

import (
	"net/http"

	"github.com/jlaasanen/dmvault/internal/archive"
	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/models"
	"github.com/jlaasanen/dmvault/internal/synchronizer"
)

func (app *application) listArchives(w http.ResponseWriter, r *http.Request) {
	archives, err := app.archives.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, archives)
}

func (app *application) createArchive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages             []models.ChatMessage `json:"messages"`
		Name                 string               `json:"name"`
		AdventureID          string               `json:"adventure_id"`
		SavePointID          string               `json:"save_point_id"`
		SavePointDescription string               `json:"save_point_description"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	archived, err := app.archives.ArchiveChat(r.Context(), req.Messages, archive.Options{
		Name:                 req.Name,
		AdventureID:          req.AdventureID,
		SavePointID:          req.SavePointID,
		SavePointDescription: req.SavePointDescription,
	})
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrEmptyArchive):
			app.clientError(w, r, http.StatusBadRequest, "no messages to archive")
		case errors.Is(err, docstore.ErrQuota):
			app.clientError(w, r, http.StatusInsufficientStorage, "storage quota exceeded")
		default:
			app.serverError(w, r, err)
		}
		return
	}
	app.publish(synchronizer.TopicArchives)
	app.writeJSON(w, http.StatusCreated, archived)
}

// restoreArchive returns the archived messages with blank entries filtered
// out. Restoring never mutates the archive itself.
func (app *application) restoreArchive(w http.ResponseWriter, r *http.Request) {
	messages, err := app.archives.RestoreArchive(r.Context(), r.PathValue("id"))
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if messages == nil {
		app.clientError(w, r, http.StatusNotFound, "nothing to restore")
		return
	}
	app.writeJSON(w, http.StatusOK, messages)
}

func (app *application) deleteArchive(w http.ResponseWriter, r *http.Request) {
	if err := app.archives.Delete(r.Context(), r.PathValue("id")); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicArchives)
	w.WriteHeader(http.StatusNoContent)
}
