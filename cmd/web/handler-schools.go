package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/intel"
	"github.com/hmiddleton/schoolpitch/internal/models"
)

// listSchools searches by name substring with ?q= or narrows to a local
// authority with ?la=, then filters by ?priority=. Without parameters it
// returns every school.
func (app *application) listSchools(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	la := r.URL.Query().Get("la")

	var schools []*models.School
	switch {
	case query != "":
		schools = app.service.Search(query)
	case la != "":
		schools = app.service.ByLocalAuthority(la)
	default:
		schools = app.service.All()
	}

	if priority := r.URL.Query().Get("priority"); priority != "" {
		var filtered []*models.School
		for _, school := range schools {
			if string(school.SalesPriority()) == priority {
				filtered = append(filtered, school)
			}
		}
		schools = filtered
	}

	app.writeJSON(w, r, http.StatusOK, map[string]any{
		"count":   len(schools),
		"schools": schools,
	})
}

func (app *application) getSchool(w http.ResponseWriter, r *http.Request) {
	school, err := app.service.ByURN(r.PathValue("urn"))
	if err != nil {
		if errors.Is(err, intel.ErrSchoolNotFound) {
			app.notFound(w, r, "school not found")
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, school)
}

// schoolNames serves the autocompletion list.
func (app *application) schoolNames(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, app.service.Names())
}

func (app *application) localAuthorities(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, app.service.LocalAuthorities())
}

// topSchools ranks schools by staffing spend (default) or SEND score.
func (app *application) topSchools(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var schools []*models.School
	switch by := r.URL.Query().Get("by"); by {
	case "", "spend":
		schools = app.service.TopSpenders(limit)
	case "send":
		schools = app.service.TopSENDSchools(limit)
	default:
		app.clientError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown ranking %q", by))
		return
	}

	app.writeJSON(w, r, http.StatusOK, map[string]any{
		"count":   len(schools),
		"schools": schools,
	})
}

func (app *application) stats(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, app.service.Statistics())
}

// refresh rebuilds the dataset from the source files. The previous snapshot
// keeps serving reads if the rebuild fails.
func (app *application) refresh(w http.ResponseWriter, r *http.Request) {
	stats, err := app.service.Refresh()
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, stats)
}
