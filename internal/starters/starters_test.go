package starters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmiddleton/schoolpitch/internal/models"
	"github.com/hmiddleton/schoolpitch/internal/starters"
)

type stubCompleter struct {
	completion string
	err        error
	lastSystem string
	lastUser   string
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.lastSystem = system
	s.lastUser = user
	return s.completion, s.err
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestFinancialStarters(t *testing.T) {
	school := &models.School{
		URN:  "100001",
		Name: "Test Primary",
		Financial: &models.FinancialData{
			TotalTeachingSupportCosts: floatPtr(550_000),
		},
	}

	t.Run("decodes starters and recomputes priority", func(t *testing.T) {
		stub := &stubCompleter{completion: `Here you go: {
			"conversation_starters": [
				{"topic": "Staffing Budget", "detail": "You spend a lot.", "relevance_score": 0.9}
			],
			"summary": "A large primary with a big staffing budget.",
			"sales_priority": "LOW"
		}`}
		generator := starters.NewGenerator(stub)

		result, err := generator.Financial(context.Background(), school, 0)
		require.NoError(t, err)
		require.Len(t, result.Starters, 1)
		require.Equal(t, "Financial Data", result.Starters[0].Source)
		require.False(t, result.Starters[0].FromReport())
		// The data says HIGH regardless of what came back.
		require.Equal(t, models.PriorityHigh, result.SalesPriority)
		require.Contains(t, stub.lastUser, "Test Primary")
		require.Contains(t, stub.lastUser, "generate 5 personalized")
	})

	t.Run("propagates generation failure", func(t *testing.T) {
		stub := &stubCompleter{completion: "no json here"}
		generator := starters.NewGenerator(stub)
		_, err := generator.Financial(context.Background(), school, 3)
		require.Error(t, err)
	})
}

func TestFromOfsted(t *testing.T) {
	reportURL := "https://files.ofsted.gov.uk/v1/file/50012345.pdf"

	t.Run("nil analysis yields nothing", func(t *testing.T) {
		require.Empty(t, starters.FromOfsted(nil))
	})

	t.Run("full analysis fires every template", func(t *testing.T) {
		analysis := &models.OfstedAnalysis{
			ReportURL: reportURL,
			MainImprovements: []models.MainImprovement{
				{Area: "Mathematics", Description: "Outcomes in KS2 maths"},
			},
			SubjectImprovements: map[string]models.SubjectImprovement{
				"mathematics": {Urgency: "HIGH", YearGroupsAffected: []string{"Year 6"}},
				"english":     {Urgency: "MEDIUM"},
			},
			OtherKeyImprovements: map[string][]string{
				"send":       {"SEND pupils need better support"},
				"leadership": {"Middle leadership is underdeveloped"},
			},
			PriorityOrder: []string{"1. Mathematics", "2. SEND"},
		}

		out := starters.FromOfsted(analysis)
		require.Len(t, out, 6)
		wantScores := []float64{1.0, 0.95, 0.92, 0.93, 0.88, 0.90}
		for i, starter := range out {
			require.Equal(t, reportURL, starter.Source)
			require.True(t, starter.FromReport())
			require.InDelta(t, wantScores[i], starter.RelevanceScore, 0.001)
		}
		require.Equal(t, "Mathematics Support", out[0].Topic)
		require.Contains(t, out[1].Detail, "Year 6")
	})

	t.Run("templates gate on urgency", func(t *testing.T) {
		analysis := &models.OfstedAnalysis{
			ReportURL: reportURL,
			SubjectImprovements: map[string]models.SubjectImprovement{
				"mathematics": {Urgency: "MEDIUM"},
				"english":     {Urgency: "LOW"},
			},
			PriorityOrder: []string{"1. Only one"},
		}
		require.Empty(t, starters.FromOfsted(analysis))
	})
}

func TestFromSEND(t *testing.T) {
	t.Run("nil profile yields nothing", func(t *testing.T) {
		require.Empty(t, starters.FromSEND(nil))
	})

	t.Run("modest profile yields nothing", func(t *testing.T) {
		send := &models.SENDData{
			EHCPlan:    intPtr(9),
			SENSupport: intPtr(5),
			EHCASD:     intPtr(2),
			EHCSEMH:    intPtr(2),
		}
		require.Empty(t, starters.FromSEND(send))
	})

	t.Run("each threshold fires its template", func(t *testing.T) {
		send := &models.SENDData{
			HasSENUnit: true,
			EHCPlan:    intPtr(10),
			SENSupport: intPtr(5),
			EHCASD:     intPtr(3),
			EHCSEMH:    intPtr(3),
		}
		out := starters.FromSEND(send)
		require.Len(t, out, 5)
		require.Contains(t, out[0].Detail, "SEN unit")
		require.Contains(t, out[1].Detail, "10 pupils with EHC plans")
		require.Contains(t, out[4].Detail, "15 SEND pupils")
		for _, starter := range out {
			require.False(t, starter.FromReport())
			require.Equal(t, "DfE SEND Data", starter.Source)
		}
	})

	t.Run("resourced provision names the facility", func(t *testing.T) {
		send := &models.SENDData{HasResourcedProvision: true}
		out := starters.FromSEND(send)
		require.Len(t, out, 1)
		require.Contains(t, out[0].Detail, "resourced provision")
	})
}
