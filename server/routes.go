package main

import (
	"net/http"

	"siboltech/hydroponics/server/ui"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.FileServerFS(ui.Files))
	mux.HandleFunc("GET /ping", ping)

	// The device API. The shared key travels in the request body, so these
	// stay outside the session/CSRF chain.
	mux.HandleFunc("POST /api/ingest", app.apiIngest)
	mux.HandleFunc("GET /api/relay/pending", app.apiRelayPending)
	mux.HandleFunc("POST /api/relay/set", app.apiRelaySet)
	mux.HandleFunc("GET /api/latest", app.apiLatest)
	mux.HandleFunc("GET /api/readings", app.apiReadings)
	mux.HandleFunc("GET /api/db_status", app.apiDBStatus)

	dynamic := alice.New(app.sessionManager.LoadAndSave, app.noSurf, app.authenticate)
	mux.Handle("GET /user/login", dynamic.ThenFunc(app.userLogin))
	mux.Handle("POST /user/login", dynamic.ThenFunc(app.userLoginPost))

	protected := dynamic.Append(app.requireAuthentication)
	mux.Handle("GET /{$}", protected.ThenFunc(app.home))
	mux.Handle("POST /relay", protected.ThenFunc(app.relayPost))
	mux.Handle("POST /user/logout", protected.ThenFunc(app.userLogoutPost))

	standard := alice.New(app.recoverPanic, app.logRequest, app.securityHeaders, app.enableCORS)
	return standard.Then(mux)
}
