package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jlaasanen/dmvault/internal/adventure"
	"github.com/jlaasanen/dmvault/internal/archive"
	"github.com/jlaasanen/dmvault/internal/broker"
	"github.com/jlaasanen/dmvault/internal/campaign"
	"github.com/jlaasanen/dmvault/internal/dm"
	"github.com/jlaasanen/dmvault/internal/docstore"
	"github.com/jlaasanen/dmvault/internal/party"
	"github.com/jlaasanen/dmvault/internal/rules"
	"github.com/jlaasanen/dmvault/internal/session"
	"github.com/jlaasanen/dmvault/internal/sqlite"
	"github.com/jlaasanen/dmvault/internal/synchronizer"
	"github.com/jlaasanen/dmvault/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the full application against an in-memory database and
// the given fake narrative generator.
func newTestServer(t *testing.T, generatorHandler http.HandlerFunc) (*httptest.Server, *application) {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	db, err := sqlite.NewDatabase(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	docs := docstore.New(db, 0, logger)

	generatorServer := httptest.NewServer(generatorHandler)
	t.Cleanup(generatorServer.Close)

	events := broker.NewFanout[string, synchronizer.ChangeEvent]()
	go events.Start()
	t.Cleanup(events.Stop)

	app := &application{
		logger:     logger,
		parties:    party.NewStore(docs, logger),
		sessions:   session.NewStore(docs, logger),
		campaigns:  campaign.NewStore(docs, logger),
		adventures: adventure.NewStore(docs, logger),
		archives:   archive.NewStore(docs, logger),
		rules:      rules.NewStore(docs, logger),
		broker:     events,
	}
	generator := dm.NewClient(generatorServer.URL, 5*time.Second, logger)
	app.synchronizer = synchronizer.New(
		app.parties, app.sessions, app.campaigns, app.adventures, generator, events, logger,
	)

	server := httptest.NewServer(app.routes())
	t.Cleanup(server.Close)
	return server, app
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() {
		require.NoError(t, resp.Body.Close())
	}()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
