package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)

	standard := alice.New()
	mux.Handle("GET /api/schools", standard.ThenFunc(app.listSchools))
	mux.Handle("GET /api/schools/{urn}", standard.ThenFunc(app.getSchool))
	mux.Handle("GET /api/schools/names", standard.ThenFunc(app.schoolNames))
	mux.Handle("GET /api/schools/top", standard.ThenFunc(app.topSchools))
	mux.Handle("GET /api/local-authorities", standard.ThenFunc(app.localAuthorities))
	mux.Handle("GET /api/stats", standard.ThenFunc(app.stats))
	mux.Handle("POST /api/refresh", standard.ThenFunc(app.refresh))
	mux.Handle("POST /api/schools/{urn}/analyze", standard.ThenFunc(app.analyze))
	mux.Handle("POST /api/schools/{urn}/analyze-ofsted", standard.ThenFunc(app.analyzeWithOfsted))

	// The shortlist lives in the caller's session.
	session := alice.New(app.sessionManager.LoadAndSave)
	mux.Handle("GET /api/shortlist", session.ThenFunc(app.getShortlist))
	mux.Handle("POST /api/shortlist/{urn}", session.ThenFunc(app.addToShortlist))
	mux.Handle("DELETE /api/shortlist/{urn}", session.ThenFunc(app.removeFromShortlist))
	mux.Handle("GET /api/shortlist/export", session.ThenFunc(app.exportShortlist))

	return app.recoverPanic(app.logRequest(secureHeaders(noSurf(mux))))
}
