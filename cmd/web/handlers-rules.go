package main

import "net/http"

func (app *application) getAdditionalRules(w http.ResponseWriter, r *http.Request) {
	content, err := app.rules.Get(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (app *application) putAdditionalRules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if err := app.rules.Put(r.Context(), req.Content); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
