package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	api := alice.New(app.jsonResponse)

	mux.Handle("GET /api/healthy", api.ThenFunc(app.healthy))

	mux.Handle("POST /api/action", api.ThenFunc(app.action))
	mux.Handle("GET /api/events", http.HandlerFunc(app.events))

	mux.Handle("GET /api/party", api.ThenFunc(app.getParty))
	mux.Handle("PUT /api/party", api.ThenFunc(app.putParty))
	mux.Handle("POST /api/party/import", api.ThenFunc(app.importParty))
	mux.Handle("GET /api/party/export", api.ThenFunc(app.exportParty))

	mux.Handle("GET /api/campaigns", api.ThenFunc(app.listCampaigns))
	mux.Handle("POST /api/campaigns", api.ThenFunc(app.createCampaign))
	mux.Handle("GET /api/campaigns/current", api.ThenFunc(app.currentCampaign))
	mux.Handle("PUT /api/campaigns/current", api.ThenFunc(app.setCurrentCampaign))
	mux.Handle("GET /api/campaigns/{id}", api.ThenFunc(app.getCampaign))
	mux.Handle("POST /api/campaigns/{id}/new-session", api.ThenFunc(app.newSession))

	mux.Handle("GET /api/adventures", api.ThenFunc(app.listAdventures))
	mux.Handle("POST /api/adventures", api.ThenFunc(app.createAdventure))
	mux.Handle("GET /api/adventures/current", api.ThenFunc(app.currentAdventure))
	mux.Handle("PUT /api/adventures/current", api.ThenFunc(app.setCurrentAdventure))
	mux.Handle("GET /api/adventures/{id}", api.ThenFunc(app.getAdventure))
	mux.Handle("POST /api/adventures/{id}/save-points", api.ThenFunc(app.addSavePoint))
	mux.Handle("PATCH /api/adventures/{id}/save-points/{savePointID}", api.ThenFunc(app.patchSavePoint))
	mux.Handle("DELETE /api/adventures/{id}/save-points/{savePointID}", api.ThenFunc(app.deleteSavePoint))
	mux.Handle("POST /api/adventures/{id}/clear-conversation", api.ThenFunc(app.clearConversation))

	mux.Handle("GET /api/archives", api.ThenFunc(app.listArchives))
	mux.Handle("POST /api/archives", api.ThenFunc(app.createArchive))
	mux.Handle("POST /api/archives/{id}/restore", api.ThenFunc(app.restoreArchive))
	mux.Handle("DELETE /api/archives/{id}", api.ThenFunc(app.deleteArchive))

	mux.Handle("GET /api/additional-rules", api.ThenFunc(app.getAdditionalRules))
	mux.Handle("PUT /api/additional-rules", api.ThenFunc(app.putAdditionalRules))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
