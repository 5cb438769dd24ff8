package main

import (
	"io"
	"net/http"
	"time"

	"github.com/jlaasanen/dmvault/internal/models"
	"github.com/jlaasanen/dmvault/internal/synchronizer"
)

func (app *application) getParty(w http.ResponseWriter, r *http.Request) {
	roster, err := app.parties.Load(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if roster == nil {
		roster = models.NewPartyRoster()
	}
	app.writeJSON(w, http.StatusOK, roster)
}

// putParty replaces the roster wholesale. Per-field merging belongs to the
// turn path only; a manual save is authoritative.
func (app *application) putParty(w http.ResponseWriter, r *http.Request) {
	var roster models.PartyRoster
	if !app.decodeJSON(w, r, &roster) {
		return
	}
	if roster.Characters == nil {
		roster.Characters = map[string]models.Character{}
	}
	for name, c := range roster.Characters {
		if c.Name == "" {
			c.Name = name
		}
		roster.Characters[name] = models.NormalizeCharacter(c)
	}
	if err := app.parties.Save(r.Context(), &roster); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicParty)
	app.writeJSON(w, http.StatusOK, roster)
}

// importParty accepts the flexible external document shapes and validates
// them before anything is stored.
func (app *application) importParty(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(r.Body)
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "unreadable body")
		return
	}
	roster, err := app.parties.Import(r.Context(), doc)
	if err != nil {
		app.storeError(w, r, err)
		return
	}
	app.publish(synchronizer.TopicParty)
	app.writeJSON(w, http.StatusOK, roster)
}

func (app *application) exportParty(w http.ResponseWriter, r *http.Request) {
	doc, err := app.parties.Export(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="party_roster.json"`)
	_, _ = w.Write(doc)
}

func (app *application) publish(topic string) {
	app.broker.Publish(topic, synchronizer.ChangeEvent{View: topic, At: time.Now().UTC()})
}
