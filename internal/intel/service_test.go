package intel_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmiddleton/schoolpitch/internal/dataset"
	"github.com/hmiddleton/schoolpitch/internal/intel"
	"github.com/hmiddleton/schoolpitch/internal/models"
	"github.com/hmiddleton/schoolpitch/internal/ofsted"
	"github.com/hmiddleton/schoolpitch/internal/starters"
	"github.com/hmiddleton/schoolpitch/internal/testhelpers"
)

const financialCSV = `urn,school_name,status,total_teaching_support_costs,total_pupils,total_expenditure
100001,Test Primary,success,550000,100,900000
100002,Small School,success,150000,50,200000
`

const sendCSV = `URN,Total pupils,SEN support,EHC plan,SEN unit,Resourced provision
100001,100,20,10,0,0
`

type stubCompleter struct {
	completion string
	err        error
	calls      int
}

func (s *stubCompleter) Complete(context.Context, string, string) (string, error) {
	s.calls++
	return s.completion, s.err
}

const starterCompletion = `{
	"conversation_starters": [
		{"topic": "Staffing Budget", "detail": "A £550,000 staffing budget is serious investment.", "source": "Financial Data", "relevance_score": 0.9}
	],
	"summary": "Large primary with significant staffing spend.",
	"sales_priority": "HIGH"
}`

func newService(t *testing.T, completer *stubCompleter) *intel.Service {
	t.Helper()
	dir := t.TempDir()
	logger := testhelpers.NewLogger(io.Discard)

	financialPath := filepath.Join(dir, "financial.csv")
	require.NoError(t, os.WriteFile(financialPath, []byte(financialCSV), 0o644))
	sendPath := filepath.Join(dir, "send.csv")
	require.NoError(t, os.WriteFile(sendPath, []byte(sendCSV), 0o644))

	loader := dataset.NewLoader(logger, financialPath, filepath.Join(dir, "missing.csv"), sendPath)

	// Both report endpoints point at a closed port, so report discovery
	// always fails fast.
	locator := ofsted.NewLocator(logger, ofsted.LocatorConfig{
		SearchURL: "http://127.0.0.1:1/search",
	})
	analyzer := ofsted.NewAnalyzer(logger, locator, ofsted.NewExtractor(logger), completer)

	service := intel.NewService(logger, loader, analyzer, starters.NewGenerator(completer))
	require.NoError(t, service.LoadAll())
	return service
}

func TestServiceLookups(t *testing.T) {
	service := newService(t, &stubCompleter{completion: starterCompletion})

	t.Run("load produces the merged dataset", func(t *testing.T) {
		require.Equal(t, 2, service.Statistics().TotalSchools)
	})

	t.Run("by urn", func(t *testing.T) {
		school, err := service.ByURN("100001")
		require.NoError(t, err)
		require.Equal(t, "Test Primary", school.Name)
		require.Equal(t, models.PriorityHigh, school.SalesPriority())
	})

	t.Run("unknown urn is a sentinel", func(t *testing.T) {
		_, err := service.ByURN("999999")
		require.ErrorIs(t, err, intel.ErrSchoolNotFound)
	})

	t.Run("by name and search", func(t *testing.T) {
		school, err := service.ByName("test primary")
		require.NoError(t, err)
		require.Equal(t, "100001", school.URN)
		require.Len(t, service.Search("school"), 1)
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("combines financial and SEND channels", func(t *testing.T) {
		stub := &stubCompleter{completion: starterCompletion}
		service := newService(t, stub)

		analysis, err := service.Analyze(context.Background(), "100001", 0, false)
		require.NoError(t, err)
		require.Empty(t, analysis.Error)
		require.Equal(t, models.PriorityHigh, analysis.SalesPriority)
		require.Equal(t, "Large primary with significant staffing spend.", analysis.Summary)

		// One financial starter from the stub, then the EHC and SENCO cover
		// templates from the SEND profile (20 support + 10 EHC).
		require.Len(t, analysis.Starters, 3)
		require.Equal(t, "Staffing Budget", analysis.Starters[0].Topic)
		require.Equal(t, analysis.Starters, analysis.School.ConversationStarters)
	})

	t.Run("generation failure degrades to template channels", func(t *testing.T) {
		stub := &stubCompleter{completion: "not json"}
		service := newService(t, stub)

		analysis, err := service.Analyze(context.Background(), "100001", 0, false)
		require.NoError(t, err)
		require.NotEmpty(t, analysis.Error)
		require.Len(t, analysis.Starters, 2)
		for _, starter := range analysis.Starters {
			require.Equal(t, "DfE SEND Data", starter.Source)
		}
	})

	t.Run("results are cached until forced", func(t *testing.T) {
		stub := &stubCompleter{completion: starterCompletion}
		service := newService(t, stub)

		first, err := service.Analyze(context.Background(), "100001", 0, false)
		require.NoError(t, err)
		again, err := service.Analyze(context.Background(), "100001", 0, false)
		require.NoError(t, err)
		require.Same(t, first, again)
		require.Equal(t, 1, stub.calls)

		forced, err := service.Analyze(context.Background(), "100001", 0, true)
		require.NoError(t, err)
		require.NotSame(t, first, forced)
		require.Equal(t, 2, stub.calls)
	})

	t.Run("unknown school fails", func(t *testing.T) {
		service := newService(t, &stubCompleter{completion: starterCompletion})
		_, err := service.Analyze(context.Background(), "999999", 0, false)
		require.ErrorIs(t, err, intel.ErrSchoolNotFound)
	})
}

func TestAnalyzeWithOfsted(t *testing.T) {
	t.Run("report discovery failure leaves the rest intact", func(t *testing.T) {
		stub := &stubCompleter{completion: starterCompletion}
		service := newService(t, stub)

		analysis, err := service.AnalyzeWithOfsted(context.Background(), "100001", 0, false)
		require.NoError(t, err)
		require.Nil(t, analysis.Ofsted)
		require.NotEmpty(t, analysis.Error)
		require.Nil(t, analysis.School.Ofsted)

		// Dataset channels still contribute.
		require.Len(t, analysis.Starters, 3)
	})

	t.Run("cached separately from the dataset-only analysis", func(t *testing.T) {
		stub := &stubCompleter{completion: starterCompletion}
		service := newService(t, stub)

		plain, err := service.Analyze(context.Background(), "100001", 0, false)
		require.NoError(t, err)
		withReport, err := service.AnalyzeWithOfsted(context.Background(), "100001", 0, false)
		require.NoError(t, err)
		require.NotSame(t, plain, withReport)
	})
}

func TestRefresh(t *testing.T) {
	stub := &stubCompleter{completion: starterCompletion}
	service := newService(t, stub)

	_, err := service.Analyze(context.Background(), "100001", 0, false)
	require.NoError(t, err)

	stats, err := service.Refresh()
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalSchools)

	// The cache was dropped, so analysis runs again.
	_, err = service.Analyze(context.Background(), "100001", 0, false)
	require.NoError(t, err)
	require.Equal(t, 2, stub.calls)
}
