package ofsted

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hmiddleton/schoolpitch/internal/ai"
	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/models"
)

const analysisSystemPrompt = `You are an expert at analyzing Ofsted school inspection reports.
Extract BROAD, ACTIONABLE improvements that would require staffing solutions.

Focus on:
- Subject areas needing improvement (maths, English, science)
- Key stage or year group issues
- SEND provision problems
- Behaviour or attendance issues
- Leadership weaknesses
- Teaching quality issues

DO NOT include facility-specific issues unless they directly impact teaching.

Return valid JSON only, no markdown.`

const analysisUserPrompt = `Analyze this Ofsted report for %s.

Current rating: %s
Inspection date: %s

IMPROVEMENTS FOUND BY PATTERN MATCHING:
%s

SUBJECT ISSUES:
%s

REPORT EXCERPT:
%s

Return as JSON:
{
    "main_improvements": [
        {"area": "Subject/Area name", "description": "What needs improving", "specifics": "Specific details"}
    ],
    "subject_improvements": {
        "mathematics": {"issues": ["issue1"], "year_groups_affected": ["Year 6"], "urgency": "HIGH"},
        "english": {"issues": ["issue1"], "year_groups_affected": ["KS2"], "urgency": "MEDIUM"}
    },
    "other_key_improvements": {
        "send": ["SEND issues"],
        "behaviour": ["Behaviour issues"],
        "leadership": ["Leadership issues"],
        "teaching_quality": ["Teaching issues"]
    },
    "priority_order": ["1. Top priority", "2. Second priority"]
}`

// Analyzer runs the full report pipeline: find the document, extract its
// text, scan it with the pattern tables, then have the text-generation
// service structure the findings.
type Analyzer struct {
	logger    *slog.Logger
	locator   *Locator
	extractor *Extractor
	completer ai.Completer
}

func NewAnalyzer(logger *slog.Logger, locator *Locator, extractor *Extractor, completer ai.Completer) *Analyzer {
	return &Analyzer{
		logger:    logger,
		locator:   locator,
		extractor: extractor,
		completer: completer,
	}
}

// Analyze produces the structured improvement summary for a school. It fails
// only when no report can be found or read; a text-generation failure
// degrades to the pattern-matched findings instead.
func (a *Analyzer) Analyze(ctx context.Context, schoolName string) (*models.OfstedAnalysis, error) {
	reportURL, err := a.locator.Locate(ctx, schoolName)
	if err != nil {
		return nil, errors.Wrap(err, "find inspection report", slog.String("school", schoolName))
	}

	text, err := a.extractor.Extract(ctx, reportURL)
	if err != nil {
		return nil, errors.Wrap(err, "extract inspection report", slog.String("school", schoolName))
	}

	analysis := &models.OfstedAnalysis{
		Rating:         ExtractRating(text),
		InspectionDate: ExtractInspectionDate(text),
		ReportURL:      reportURL,
	}

	improvements := ExtractImprovements(text)
	subjectIssues := ExtractSubjectIssues(text)
	a.logger.Info("pattern scan complete",
		slog.String("school", schoolName),
		slog.Int("improvements", len(improvements)),
		slog.Int("subjects", len(subjectIssues)))

	structured, err := a.structure(ctx, schoolName, text, analysis, improvements, subjectIssues)
	if err != nil {
		a.logger.Warn("text-generation unavailable, using pattern findings",
			slog.String("school", schoolName),
			errors.SlogError(err))
		structured = fallbackStructure(improvements, subjectIssues)
	}
	analysis.MainImprovements = structured.MainImprovements
	analysis.SubjectImprovements = structured.SubjectImprovements
	analysis.OtherKeyImprovements = structured.OtherKeyImprovements
	analysis.PriorityOrder = structured.PriorityOrder
	return analysis, nil
}

type structuredFindings struct {
	MainImprovements     []models.MainImprovement             `json:"main_improvements"`
	SubjectImprovements  map[string]models.SubjectImprovement `json:"subject_improvements"`
	OtherKeyImprovements map[string][]string                  `json:"other_key_improvements"`
	PriorityOrder        []string                             `json:"priority_order"`
}

func (a *Analyzer) structure(ctx context.Context, schoolName, text string,
	analysis *models.OfstedAnalysis, improvements []Improvement,
	subjectIssues map[string][]string) (structuredFindings, error) {

	var findings structuredFindings

	improvementLines := make([]string, 0, 10)
	for _, imp := range improvements {
		if len(improvementLines) == 10 {
			break
		}
		improvementLines = append(improvementLines, fmt.Sprintf("- %s: %s", imp.Category, imp.Context))
	}
	improvementsText := strings.Join(improvementLines, "\n")
	if improvementsText == "" {
		improvementsText = "No specific improvements found"
	}

	var subjectLines []string
	for _, subject := range subjectKeywords {
		issues := subjectIssues[subject.subject]
		if len(issues) == 0 {
			continue
		}
		if len(issues) > 2 {
			issues = issues[:2]
		}
		subjectLines = append(subjectLines,
			fmt.Sprintf("%s: %s", strings.ToUpper(subject.subject), strings.Join(issues, "; ")))
	}
	subjectText := strings.Join(subjectLines, "\n")
	if subjectText == "" {
		subjectText = "No subject issues found"
	}

	excerpt := truncate(ImprovementExcerpt(text), 2500)
	prompt := fmt.Sprintf(analysisUserPrompt,
		schoolName,
		orDefault(analysis.Rating, "Unknown"),
		orDefault(analysis.InspectionDate, "Unknown"),
		improvementsText,
		subjectText,
		excerpt)

	completion, err := a.completer.Complete(ctx, analysisSystemPrompt, prompt)
	if err != nil {
		return findings, err
	}
	if err := ai.DecodeJSON(completion, &findings); err != nil {
		return findings, err
	}
	return findings, nil
}

// fallbackStructure turns the raw pattern hits into main improvement areas,
// one per category, so a report still yields findings without the
// text-generation service.
func fallbackStructure(improvements []Improvement, subjectIssues map[string][]string) structuredFindings {
	var findings structuredFindings
	seen := make(map[string]struct{})
	for _, imp := range improvements {
		if _, dup := seen[imp.Category]; dup {
			continue
		}
		seen[imp.Category] = struct{}{}
		findings.MainImprovements = append(findings.MainImprovements, models.MainImprovement{
			Area:        imp.Category,
			Description: imp.Context,
		})
	}
	if len(subjectIssues) > 0 {
		findings.SubjectImprovements = make(map[string]models.SubjectImprovement, len(subjectIssues))
		for subject, issues := range subjectIssues {
			findings.SubjectImprovements[subject] = models.SubjectImprovement{
				Issues:  issues,
				Urgency: "MEDIUM",
			}
		}
	}
	return findings
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
