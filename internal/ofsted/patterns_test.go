package ofsted_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmiddleton/schoolpitch/internal/ofsted"
)

const sampleReport = `Test Primary School Inspection dates: 14 and 15 March 2023
Overall effectiveness: Requires improvement
The quality of education requires improvement.

What does the school need to do to improve?
Leaders should improve the teaching of mathematics so that pupils in key
stage 2 build fluency. Progress in maths is below national expectations.
The school should strengthen provision for pupils with SEND so that they
are better supported in lessons. Leaders must improve attendance, which
remains below the national average. Governors should strengthen middle
leadership across the school.`

func TestExtractImprovements(t *testing.T) {
	improvements := ofsted.ExtractImprovements(sampleReport)
	require.NotEmpty(t, improvements)

	categories := make(map[string]bool)
	seen := make(map[string]bool)
	for _, imp := range improvements {
		categories[imp.Category] = true

		key := imp.Category + ":" + imp.Match
		if len(imp.Match) > 30 {
			key = imp.Category + ":" + imp.Match[:30]
		}
		require.False(t, seen[key], "duplicate finding: %s", key)
		seen[key] = true

		require.NotEmpty(t, imp.Context)
		require.LessOrEqual(t, len(imp.Context), 150)
	}
	require.True(t, categories["Mathematics"])
	require.True(t, categories["SEND Provision"])
	require.True(t, categories["Behaviour/Attendance"])
	require.True(t, categories["Leadership"])
}

func TestExtractImprovementsDeduplicates(t *testing.T) {
	repeated := sampleReport + " " + sampleReport
	once := ofsted.ExtractImprovements(sampleReport)
	twice := ofsted.ExtractImprovements(repeated)
	require.Equal(t, len(once), len(twice), "repeated text must not multiply findings")
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"improve the teaching of mathematics", "Mathematics"},
		{"raise standards in reading and writing", "English/Literacy"},
		{"strengthen provision for pupils with SEND", "SEND Provision"},
		{"improve attendance", "Behaviour/Attendance"},
		{"develop middle leaders", "Leadership"},
		{"improve the consistency of teaching", "Teaching Quality"},
		{"improve the curriculum planning", "Curriculum"},
		{"strengthen safeguarding procedures", "Safeguarding"},
		{"improve outcomes in early years", "Early Years"},
		{"sort out the car park", "General Improvement"},
		// Specific subjects outrank the broader pedagogy buckets.
		{"improve the teaching of maths", "Mathematics"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, ofsted.Categorize(tt.text))
		})
	}
}

func TestExtractRating(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "overall effectiveness", text: "Overall effectiveness: Good", want: "Good"},
		{name: "requires improvement", text: "Overall effectiveness: Requires improvement overall", want: "Requires Improvement"},
		{name: "judged to be", text: "The school was judged to be Outstanding by inspectors", want: "Outstanding"},
		{name: "continues to be", text: "The school continues to be good.", want: "Good"},
		{name: "plain mention near the top", text: "This inadequate provision concerned inspectors", want: "Inadequate"},
		{name: "nothing recognisable", text: "A report about something else entirely", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ofsted.ExtractRating(tt.text))
		})
	}
}

func TestExtractInspectionDate(t *testing.T) {
	require.Equal(t, "14 and 15 March 2023", ofsted.ExtractInspectionDate(sampleReport))
	require.Equal(t, "", ofsted.ExtractInspectionDate("no dates here"))

	// Dates beyond the report header are ignored.
	buried := strings.Repeat("x ", 600) + "Inspection dates: 1 May 2022"
	require.Equal(t, "", ofsted.ExtractInspectionDate(buried))
}

func TestExtractSubjectIssues(t *testing.T) {
	issues := ofsted.ExtractSubjectIssues(sampleReport)
	require.Contains(t, issues, "mathematics")
	for subject, found := range issues {
		require.LessOrEqual(t, len(found), 3, "subject %s", subject)
		for _, issue := range found {
			require.Greater(t, len(issue), 20)
		}
	}
}

func TestImprovementExcerpt(t *testing.T) {
	t.Run("prefers the recommendations section", func(t *testing.T) {
		excerpt := ofsted.ImprovementExcerpt(sampleReport)
		require.True(t, strings.HasPrefix(excerpt, "What does the school need to do to improve"))
	})

	t.Run("falls back to the middle of the document", func(t *testing.T) {
		text := strings.Repeat("a", 4000) + "MIDDLE" + strings.Repeat("b", 4000)
		excerpt := ofsted.ImprovementExcerpt(text)
		require.Contains(t, excerpt, "MIDDLE")
		require.LessOrEqual(t, len(excerpt), 3000)
	})
}
