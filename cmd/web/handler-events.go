package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jlaasanen/dmvault/internal/synchronizer"
)

// events streams store change notifications over SSE. Clients re-read the
// store a change names instead of receiving the data inline, so a dropped
// event costs one stale render at most.
func (app *application) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		app.clientError(w, r, http.StatusBadRequest, "streaming unsupported")
		return
	}

	topics := r.URL.Query()["topic"]
	if len(topics) == 0 {
		topics = []string{
			synchronizer.TopicParty,
			synchronizer.TopicSession,
			synchronizer.TopicCampaigns,
			synchronizer.TopicAdventures,
			synchronizer.TopicArchives,
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	merged := make(chan synchronizer.ChangeEvent)
	for _, topic := range topics {
		channel := app.broker.Subscribe(topic)
		defer app.broker.Unsubscribe(topic, channel)
		go func() {
			for event := range channel {
				select {
				case merged <- event:
				case <-r.Context().Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-merged:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.View, payload)
			flusher.Flush()
		}
	}
}
