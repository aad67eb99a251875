package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestSchoolEndpoints(t *testing.T) {
	t.Parallel()
	server := startTestServer(t, io.Discard, testLookupEnv(t))

	t.Run("healthy", func(t *testing.T) {
		resp := server.Get(t, "/api/healthy")
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("search by name", func(t *testing.T) {
		resp := server.Get(t, "/api/schools?q=test+primary")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Count   int `json:"count"`
			Schools []struct {
				URN  string `json:"urn"`
				Name string `json:"school_name"`
			} `json:"schools"`
		}
		decodeJSON(t, resp, &body)
		require.Equal(t, 1, body.Count)
		require.Equal(t, "100001", body.Schools[0].URN)
		require.Equal(t, "Test Primary", body.Schools[0].Name)
	})

	t.Run("filter by priority", func(t *testing.T) {
		resp := server.Get(t, "/api/schools?priority=HIGH")
		var body struct {
			Count int `json:"count"`
		}
		decodeJSON(t, resp, &body)
		require.Equal(t, 1, body.Count)
	})

	t.Run("get by urn merges all three sources", func(t *testing.T) {
		resp := server.Get(t, "/api/schools/100001")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var school struct {
			Name   string `json:"school_name"`
			LAName string `json:"la_name"`
			Phone  string `json:"phone"`
			SEND   *struct {
				EHCPlan *int `json:"ehc_plan"`
			} `json:"send"`
		}
		decodeJSON(t, resp, &school)
		require.Equal(t, "Test Primary", school.Name)
		require.Equal(t, "Camden", school.LAName)
		require.Equal(t, "020 7123 4567", school.Phone)
		require.NotNil(t, school.SEND)
		require.Equal(t, 10, *school.SEND.EHCPlan)
	})

	t.Run("unknown urn is 404", func(t *testing.T) {
		resp := server.Get(t, "/api/schools/999999")
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("names for autocompletion", func(t *testing.T) {
		resp := server.Get(t, "/api/schools/names")
		var names []string
		decodeJSON(t, resp, &names)
		require.Len(t, names, 3)
		require.IsIncreasing(t, names)
	})

	t.Run("local authorities", func(t *testing.T) {
		resp := server.Get(t, "/api/local-authorities")
		var las []string
		decodeJSON(t, resp, &las)
		require.Equal(t, []string{"Camden", "Islington"}, las)
	})

	t.Run("filter by local authority", func(t *testing.T) {
		resp := server.Get(t, "/api/schools?la=camden")
		var body struct {
			Count int `json:"count"`
		}
		decodeJSON(t, resp, &body)
		require.Equal(t, 1, body.Count)
	})

	t.Run("top spenders", func(t *testing.T) {
		resp := server.Get(t, "/api/schools/top?limit=1")
		var body struct {
			Schools []struct {
				URN string `json:"urn"`
			} `json:"schools"`
		}
		decodeJSON(t, resp, &body)
		require.Len(t, body.Schools, 1)
		require.Equal(t, "100001", body.Schools[0].URN)
	})

	t.Run("unknown ranking is rejected", func(t *testing.T) {
		resp := server.Get(t, "/api/schools/top?by=fame")
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("stats", func(t *testing.T) {
		resp := server.Get(t, "/api/stats")
		var stats struct {
			TotalSchools    int `json:"total_schools"`
			HighPriority    int `json:"high_priority"`
			MediumPriority  int `json:"medium_priority"`
			UnknownPriority int `json:"unknown_priority"`
		}
		decodeJSON(t, resp, &stats)
		// The failed-scrape row is dropped; the directory-only school has no
		// financial figures.
		require.Equal(t, 3, stats.TotalSchools)
		require.Equal(t, 1, stats.HighPriority)
		require.Equal(t, 1, stats.MediumPriority)
		require.Equal(t, 1, stats.UnknownPriority)
	})

	t.Run("refresh rebuilds the dataset", func(t *testing.T) {
		resp := server.Do(t, http.MethodPost, "/api/refresh", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var stats struct {
			TotalSchools int `json:"total_schools"`
		}
		decodeJSON(t, resp, &stats)
		require.Equal(t, 3, stats.TotalSchools)
	})
}

func TestAnalyzeEndpoints(t *testing.T) {
	t.Parallel()
	server := startTestServer(t, io.Discard, testLookupEnv(t))

	type analysis struct {
		Starters []struct {
			Topic  string `json:"topic"`
			Source string `json:"source"`
		} `json:"conversation_starters"`
		SalesPriority string          `json:"sales_priority"`
		Ofsted        json.RawMessage `json:"ofsted"`
		Error         string          `json:"error"`
	}

	t.Run("analyze degrades without a generation key", func(t *testing.T) {
		resp := server.Do(t, http.MethodPost, "/api/schools/100001/analyze", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body analysis
		decodeJSON(t, resp, &body)

		require.Equal(t, "HIGH", body.SalesPriority)
		require.NotEmpty(t, body.Error)
		// The SEND templates fire without any remote service: the SEN unit,
		// the ten EHC plans and the thirty SEND pupils in total.
		require.Len(t, body.Starters, 3)
		for _, starter := range body.Starters {
			require.Equal(t, "DfE SEND Data", starter.Source)
		}
	})

	t.Run("report discovery failure leaves ofsted null", func(t *testing.T) {
		resp := server.Do(t, http.MethodPost, "/api/schools/100001/analyze-ofsted", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body analysis
		decodeJSON(t, resp, &body)

		require.Empty(t, body.Ofsted)
		require.NotEmpty(t, body.Error)
		require.Len(t, body.Starters, 3)
	})

	t.Run("analyze unknown school is 404", func(t *testing.T) {
		resp := server.Do(t, http.MethodPost, "/api/schools/999999/analyze", "")
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestShortlist(t *testing.T) {
	t.Parallel()
	server := startTestServer(t, io.Discard, testLookupEnv(t))

	fetchShortlist := func(t *testing.T) (csrfToken string, count int) {
		t.Helper()
		resp := server.Get(t, "/api/shortlist")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			CSRFToken string `json:"csrf_token"`
			Count     int    `json:"count"`
		}
		decodeJSON(t, resp, &body)
		require.NotEmpty(t, body.CSRFToken)
		return body.CSRFToken, body.Count
	}

	token, count := fetchShortlist(t)
	require.Zero(t, count)

	t.Run("mutation without a token is rejected", func(t *testing.T) {
		resp := server.Do(t, http.MethodPost, "/api/shortlist/100001", "")
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("add, list and remove", func(t *testing.T) {
		resp := server.Do(t, http.MethodPost, "/api/shortlist/100001", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		// Adding again does not grow the list.
		resp = server.Do(t, http.MethodPost, "/api/shortlist/100001", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		_, count := fetchShortlist(t)
		require.Equal(t, 1, count)

		resp = server.Do(t, http.MethodDelete, "/api/shortlist/100001", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		_, count = fetchShortlist(t)
		require.Zero(t, count)
	})

	t.Run("unknown school cannot be shortlisted", func(t *testing.T) {
		resp := server.Do(t, http.MethodPost, "/api/shortlist/999999", token)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("export produces the two-sheet workbook", func(t *testing.T) {
		resp := server.Do(t, http.MethodPost, "/api/shortlist/100001", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, resp.Body.Close())

		resp = server.Get(t, "/api/shortlist/export")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			resp.Header.Get("Content-Type"))
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer func() { require.NoError(t, f.Close()) }()

		rows, err := f.GetRows("School Summary")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, "Test Primary", rows[1][0])

		// No starters were generated in this session, so the starters sheet
		// carries the placeholder note.
		starterRows, err := f.GetRows("Conversation Starters")
		require.NoError(t, err)
		require.Equal(t, "Note", starterRows[0][0])
	})
}
