package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jlaasanen/dmvault/internal/errors"
	"github.com/jlaasanen/dmvault/internal/models"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Debug(message, "method", method, "uri", uri, "status", status)
	app.writeError(w, status, message)
}

func (app *application) writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (app *application) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.Error("failed to encode response", errors.SlogError(err))
	}
}

// decodeJSON reads the request body into v. A malformed body is the caller's
// fault and maps to 400.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

// storeError maps store failures onto HTTP statuses: format problems are the
// client's, everything else is ours.
func (app *application) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrFormat) {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	app.serverError(w, r, err)
}
