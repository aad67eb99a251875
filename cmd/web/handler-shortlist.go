package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/justinas/nosurf"

	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/export"
	"github.com/hmiddleton/schoolpitch/internal/intel"
	"github.com/hmiddleton/schoolpitch/internal/models"
)

// getShortlist returns the session's shortlisted schools along with the CSRF
// token the mutating shortlist endpoints require.
func (app *application) getShortlist(w http.ResponseWriter, r *http.Request) {
	schools := app.shortlistSchools(r)
	app.writeJSON(w, r, http.StatusOK, map[string]any{
		"csrf_token": nosurf.Token(r),
		"count":      len(schools),
		"limit":      maxShortlistSize,
		"schools":    schools,
	})
}

func (app *application) addToShortlist(w http.ResponseWriter, r *http.Request) {
	urn := r.PathValue("urn")
	school, err := app.service.ByURN(urn)
	if err != nil {
		if errors.Is(err, intel.ErrSchoolNotFound) {
			app.notFound(w, r, "school not found")
			return
		}
		app.serverError(w, r, err)
		return
	}

	if !app.addShortlistURN(r.Context(), school.URN) {
		app.clientError(w, r, http.StatusConflict,
			fmt.Sprintf("shortlist is full (limit %d)", maxShortlistSize))
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{
		"urn":   school.URN,
		"count": len(app.shortlistURNs(r.Context())),
	})
}

func (app *application) removeFromShortlist(w http.ResponseWriter, r *http.Request) {
	urn := r.PathValue("urn")
	if !app.removeShortlistURN(r.Context(), urn) {
		app.notFound(w, r, "school not in shortlist")
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{
		"urn":   urn,
		"count": len(app.shortlistURNs(r.Context())),
	})
}

// exportShortlist streams the shortlist as a two-sheet spreadsheet. Schools
// with a cached analysis export with their conversation starters.
func (app *application) exportShortlist(w http.ResponseWriter, r *http.Request) {
	schools := app.shortlistSchools(r)

	workbook, err := export.Workbook(schools)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	filename := fmt.Sprintf("school_shortlist_%s.xlsx", time.Now().Format("20060102_1504"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	if _, err := w.Write(workbook); err != nil {
		app.logger.Warn("write workbook response", errors.SlogError(err))
	}
}

// shortlistSchools resolves the session's URNs against the current dataset,
// dropping any that a refresh has removed.
func (app *application) shortlistSchools(r *http.Request) []*models.School {
	urns := app.shortlistURNs(r.Context())
	schools := make([]*models.School, 0, len(urns))
	for _, urn := range urns {
		school, err := app.service.AnalyzedSchool(urn)
		if err != nil {
			continue
		}
		schools = append(schools, school)
	}
	return schools
}
