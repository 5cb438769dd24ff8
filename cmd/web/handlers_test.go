package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/jlaasanen/dmvault/internal/models"
	"github.com/stretchr/testify/require"
)

func noGenerator(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		t.Error("narrative generator should not be called")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func TestHealthy(t *testing.T) {
	server, _ := newTestServer(t, noGenerator(t))

	resp, err := http.Get(server.URL + "/api/healthy")
	require.NoError(t, err)
	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestPartyRoundTrip(t *testing.T) {
	server, _ := newTestServer(t, noGenerator(t))

	roster := models.NewPartyRoster()
	roster.Characters["Elara"] = models.Character{Name: "Elara", CurrentHP: 20, MaxHP: 20}
	resp := doJSON(t, http.MethodPut, server.URL+"/api/party", roster)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	getResp, err := http.Get(server.URL + "/api/party")
	require.NoError(t, err)
	loaded := decodeBody[models.PartyRoster](t, getResp)
	require.Contains(t, loaded.Characters, "Elara")
	require.Equal(t, 20, loaded.Characters["Elara"].MaxHP)
	// Defaults filled in on save.
	require.Equal(t, 1, loaded.Characters["Elara"].Level)
}

func TestPartyImportRejectsMalformedDocument(t *testing.T) {
	server, _ := newTestServer(t, noGenerator(t))

	resp := postJSON(t, server.URL+"/api/party/import", "not a roster")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// The stored roster is untouched by the failed import.
	getResp, err := http.Get(server.URL + "/api/party")
	require.NoError(t, err)
	loaded := decodeBody[models.PartyRoster](t, getResp)
	require.Empty(t, loaded.Characters)
}

func TestCampaignLifecycle(t *testing.T) {
	server, _ := newTestServer(t, noGenerator(t))

	created := decodeBody[models.Campaign](t, postJSON(t, server.URL+"/api/campaigns", map[string]string{
		"name": "Phandelver run",
	}))
	require.NotEmpty(t, created.ID)
	require.Equal(t, 1, created.SessionNumber)

	current, err := http.Get(server.URL + "/api/campaigns/current")
	require.NoError(t, err)
	require.Equal(t, created.ID, decodeBody[models.Campaign](t, current).ID)

	bumped := decodeBody[models.Campaign](t, postJSON(t, server.URL+"/api/campaigns/"+created.ID+"/new-session", map[string]string{}))
	require.Equal(t, 2, bumped.SessionNumber)

	missing, err := http.Get(server.URL + "/api/campaigns/nonexistent")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
	require.NoError(t, missing.Body.Close())
}

func TestActionRunsTurn(t *testing.T) {
	generatorHandler := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"narrative": "You step into the tavern.", "game_state": {}, "tool_results": []}`))
	}
	server, app := newTestServer(t, generatorHandler)

	adv := decodeBody[models.Adventure](t, postJSON(t, server.URL+"/api/adventures", map[string]string{
		"name": "Lost Mine",
	}))

	result := decodeBody[map[string]any](t, postJSON(t, server.URL+"/api/action", map[string]any{
		"message":      "I enter the tavern",
		"adventure_id": adv.ID,
	}))
	require.Equal(t, "You step into the tavern.", result["narrative"])

	stored, err := app.adventures.Get(context.Background(), adv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Conversation, 2)
}

func TestActionWithoutAdventure(t *testing.T) {
	server, _ := newTestServer(t, noGenerator(t))

	resp := postJSON(t, server.URL+"/api/action", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestActionGeneratorDown(t *testing.T) {
	generatorHandler := func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}
	server, app := newTestServer(t, generatorHandler)

	adv := decodeBody[models.Adventure](t, postJSON(t, server.URL+"/api/adventures", map[string]string{
		"name": "Lost Mine",
	}))

	resp := postJSON(t, server.URL+"/api/action", map[string]any{
		"message":      "I enter the tavern",
		"adventure_id": adv.ID,
	})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// The user message and the failure notice are in the transcript.
	stored, err := app.adventures.Get(context.Background(), adv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Conversation, 2)
	require.Equal(t, models.RoleSystem, stored.Conversation[1].Role)
}

func TestArchiveEndpoints(t *testing.T) {
	server, _ := newTestServer(t, noGenerator(t))

	archived := decodeBody[models.ArchivedChat](t, postJSON(t, server.URL+"/api/archives", map[string]any{
		"name": "First session",
		"messages": []map[string]string{
			{"role": "user", "content": "hello"},
			{"role": "assistant", "content": "well met"},
		},
	}))
	require.NotEmpty(t, archived.ID)

	restored := decodeBody[[]models.ChatMessage](t, postJSON(t, server.URL+"/api/archives/"+archived.ID+"/restore", map[string]string{}))
	require.Len(t, restored, 2)

	empty := postJSON(t, server.URL+"/api/archives", map[string]any{"messages": []map[string]string{}})
	require.Equal(t, http.StatusBadRequest, empty.StatusCode)
	require.NoError(t, empty.Body.Close())

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/archives/"+archived.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestAdditionalRules(t *testing.T) {
	server, _ := newTestServer(t, noGenerator(t))

	resp := doJSON(t, http.MethodPut, server.URL+"/api/additional-rules", map[string]string{
		"content": "Flanking grants advantage.",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	getResp, err := http.Get(server.URL + "/api/additional-rules")
	require.NoError(t, err)
	body := decodeBody[map[string]string](t, getResp)
	require.Equal(t, "Flanking grants advantage.", body["content"])
}
