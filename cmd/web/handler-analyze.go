package main

import (
	"net/http"
	"strconv"

	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/intel"
)

// analyzeParams reads the shared query parameters of the analysis endpoints.
// count is how many financial starters to request; force skips the cache.
func analyzeParams(r *http.Request) (count int, force bool) {
	if raw := r.URL.Query().Get("count"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			count = parsed
		}
	}
	force = r.URL.Query().Get("force") == "true"
	return count, force
}

// analyze generates conversation starters from the dataset channels. The
// response can carry both starters and a non-empty error field: channel
// failures degrade the result rather than failing the request.
func (app *application) analyze(w http.ResponseWriter, r *http.Request) {
	count, force := analyzeParams(r)
	analysis, err := app.service.Analyze(r.Context(), r.PathValue("urn"), count, force)
	if err != nil {
		if errors.Is(err, intel.ErrSchoolNotFound) {
			app.notFound(w, r, "school not found")
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, analysis)
}

// analyzeWithOfsted additionally runs the inspection-report pipeline. When no
// report can be found the ofsted field stays null and the error field says
// why; the dataset channels still contribute starters.
func (app *application) analyzeWithOfsted(w http.ResponseWriter, r *http.Request) {
	count, force := analyzeParams(r)
	analysis, err := app.service.AnalyzeWithOfsted(r.Context(), r.PathValue("urn"), count, force)
	if err != nil {
		if errors.Is(err, intel.ErrSchoolNotFound) {
			app.notFound(w, r, "school not found")
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, analysis)
}
