package ofsted

import (
	"regexp"
	"strings"
)

// Inspection reports phrase their recommendations in a small number of
// recurring forms, so a fixed pattern table finds most of them without any
// remote calls. The tables below are data; changing what gets detected means
// editing a table, not the extraction code.

var improvementPatterns = compileAll(
	// Subject-specific forms.
	`(?:improve|develop|strengthen|raise standards in|enhance) (?:the )?(?:teaching of |provision for |outcomes in |progress in |achievement in )?(?:mathematics|maths|numeracy)`,
	`(?:improve|develop|strengthen|raise standards in|enhance) (?:the )?(?:teaching of |provision for |outcomes in |progress in |achievement in )?(?:english|literacy|reading|writing|phonics)`,
	`(?:improve|develop|strengthen|raise standards in|enhance) (?:the )?(?:teaching of |provision for |outcomes in |progress in |achievement in )?(?:science)`,

	// Key stage and assessment forms.
	`(?:improve|raise|increase) (?:outcomes|results|achievement|progress|attainment) (?:in|at|for) (?:key stage \d|KS\d|year \d|early years|EYFS)`,
	`(?:improve|raise) (?:SATs|GCSE|A-level|examination) results`,
	`(?:ensure|improve) (?:more|all) pupils (?:achieve|reach|attain) (?:expected|higher) standards`,

	// SEND forms.
	`(?:improve|develop|strengthen|enhance) (?:provision for |support for |outcomes for )?(?:SEND pupils|pupils with SEND|special educational needs)`,
	`(?:ensure|improve) (?:SEND|SEN) (?:pupils|children|students) (?:make better progress|achieve better|are better supported)`,

	// Behaviour and attendance.
	`(?:improve|address|tackle) (?:behaviour|attendance|punctuality|persistent absence)`,
	`(?:reduce|address) (?:exclusions|fixed-term exclusions|persistent absence)`,

	// Leadership.
	`(?:strengthen|improve|develop) (?:leadership|middle leadership|subject leadership|senior leadership)`,
	`(?:develop|improve) (?:the effectiveness of |capacity in )?(?:leaders|leadership team|middle leaders)`,

	// Teaching quality.
	`(?:improve|ensure) (?:the quality of |consistency of |effectiveness of )?teaching`,
	`(?:ensure|improve) (?:all )?teachers (?:provide|deliver|use) (?:high-quality|effective|consistent)`,

	// Curriculum.
	`(?:improve|develop|strengthen) (?:the )?curriculum (?:in|for|planning|implementation)`,
	`(?:ensure|improve) (?:curriculum|subjects) (?:are|is) (?:well-sequenced|properly planned|effectively delivered)`,

	// Assessment.
	`(?:improve|develop|strengthen) (?:assessment|tracking|monitoring) (?:systems|of pupil progress|procedures)`,

	// Safeguarding.
	`(?:strengthen|improve|address) (?:safeguarding|child protection|safer recruitment)`,
)

// categoryRules maps matched text to a category label. First match wins, so
// specific subjects must come before the broader pedagogy buckets.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{"Mathematics", []string{"mathematics", "maths", "numeracy"}},
	{"English/Literacy", []string{"english", "literacy", "reading", "writing", "phonics"}},
	{"Science", []string{"science"}},
	{"SEND Provision", []string{"send", "special educational"}},
	{"Behaviour/Attendance", []string{"behaviour", "attendance", "exclusion"}},
	{"Leadership", []string{"leadership", "leaders", "management"}},
	{"Teaching Quality", []string{"teaching", "teachers", "pedagogy"}},
	{"Curriculum", []string{"curriculum", "planning", "sequencing"}},
	{"Assessment", []string{"assessment", "tracking", "progress"}},
	{"Safeguarding", []string{"safeguarding", "safety", "protection"}},
	{"Early Years", []string{"early years", "eyfs", "reception"}},
}

// subjectKeywords drives the per-subject issue scan. Order fixes the output
// order of the subject map keys fed to the text-generation prompt.
var subjectKeywords = []struct {
	subject  string
	keywords []string
}{
	{"mathematics", []string{"mathematics", "maths", "numeracy", "calculation", "arithmetic"}},
	{"english", []string{"english", "literacy", "reading", "writing", "phonics", "spelling", "grammar"}},
	{"science", []string{"science", "scientific", "investigation", "experiments"}},
	{"computing", []string{"computing", "ICT", "computer science", "digital"}},
	{"languages", []string{"languages", "MFL", "french", "spanish", "foreign language"}},
	{"humanities", []string{"history", "geography", "RE", "religious education"}},
	{"arts", []string{"art", "music", "drama", "creative"}},
	{"pe", []string{"PE", "physical education", "sport", "sports"}},
}

var ratingPatterns = compileAll(
	`Overall effectiveness[:\s]+(\w+)`,
	`This school is (\w+)`,
	`judged to be (\w+)`,
	`The school (?:continues to be |is )(\w+)`,
)

var knownRatings = []string{"Outstanding", "Good", "Requires Improvement", "Inadequate"}

var datePatterns = compileAll(
	`Inspection dates?[:\s]+(\d{1,2}(?:\s+and\s+\d{1,2})?\s+\w+\s+\d{4})`,
	`(\d{1,2}\s+\w+\s+\d{4})`,
	`(\d{1,2}/\d{1,2}/\d{4})`,
)

// excerptHeadings are the section titles that introduce the recommendations
// part of a report, tried in order.
var excerptHeadings = []string{
	"what does the school need to do to improve",
	"areas for improvement",
	"next steps",
	"priorities for improvement",
	"recommendations",
}

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	whitespace    = regexp.MustCompile(`\s+`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return compiled
}

// Improvement is one pattern hit with its surrounding context.
type Improvement struct {
	Category string
	Context  string
	Match    string
}

// ExtractImprovements scans the report text with the pattern table. Hits are
// deduplicated on category plus the first 30 characters of the matched text,
// so the same recommendation repeated across report sections counts once.
func ExtractImprovements(text string) []Improvement {
	// The patterns use literal spaces, so recommendations wrapped across
	// lines in the source document must be collapsed first.
	text = whitespace.ReplaceAllString(text, " ")
	var improvements []Improvement
	seen := make(map[string]struct{})
	for _, pattern := range improvementPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			category := Categorize(match)

			key := category + ":" + truncate(match, 30)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			start := max(0, loc[0]-50)
			end := min(len(text), loc[1]+100)
			improvements = append(improvements, Improvement{
				Category: category,
				Context:  cleanText(text[start:end]),
				Match:    match,
			})
		}
	}
	return improvements
}

// Categorize buckets matched text into a broad improvement area. Text that
// fits no rule is "General Improvement".
func Categorize(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category
			}
		}
	}
	return "General Improvement"
}

// ExtractSubjectIssues scans for weakness phrasing near each subject's
// keywords and returns up to three full sentences per subject.
func ExtractSubjectIssues(text string) map[string][]string {
	text = whitespace.ReplaceAllString(text, " ")
	issues := make(map[string][]string)
	for _, subject := range subjectKeywords {
		var found []string
		seen := make(map[string]struct{})
		for _, keyword := range subject.keywords {
			quoted := regexp.QuoteMeta(keyword)
			patterns := compileAll(
				quoted+`.*?(?:weak|poor|inadequate|below|behind|not good enough)`,
				`(?:weak|poor|inadequate|below|behind).*?`+quoted,
				quoted+`.*?(?:need|needs|require|requires).*?(?:improvement|developing|attention)`,
				`(?:improve|develop|strengthen).*?`+quoted,
				quoted+`.*?(?:is|are) not.*?(?:good|effective|strong) enough`,
			)
			for _, pattern := range patterns {
				for _, loc := range pattern.FindAllStringIndex(text, -1) {
					sentence := sentenceAt(text, loc[0])
					if len(sentence) <= 20 {
						continue
					}
					if _, dup := seen[sentence]; dup {
						continue
					}
					seen[sentence] = struct{}{}
					found = append(found, sentence)
				}
			}
		}
		if len(found) > 0 {
			if len(found) > 3 {
				found = found[:3]
			}
			issues[subject.subject] = found
		}
	}
	return issues
}

// ExtractRating finds the inspection judgement, or "" when the text carries
// no recognisable rating.
func ExtractRating(text string) string {
	for _, pattern := range ratingPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		found := strings.ToLower(match[1])
		for _, rating := range knownRatings {
			if found == strings.ToLower(strings.Fields(rating)[0]) {
				return rating
			}
		}
	}
	head := strings.ToLower(truncate(text, 2000))
	for _, rating := range knownRatings {
		if strings.Contains(head, strings.ToLower(rating)) {
			return rating
		}
	}
	return ""
}

// ExtractInspectionDate finds the inspection date near the top of the
// report, or "".
func ExtractInspectionDate(text string) string {
	head := truncate(text, 1000)
	for _, pattern := range datePatterns {
		if match := pattern.FindStringSubmatch(head); match != nil {
			return match[1]
		}
	}
	return ""
}

// ImprovementExcerpt returns the part of the report most likely to hold the
// recommendations: the first matching section heading, or failing that the
// middle of the document.
func ImprovementExcerpt(text string) string {
	lower := strings.ToLower(text)
	for _, heading := range excerptHeadings {
		if idx := strings.Index(lower, heading); idx != -1 {
			return text[idx:min(len(text), idx+3000)]
		}
	}
	mid := len(text) / 2
	return text[max(0, mid-1500):min(len(text), mid+1500)]
}

// sentenceAt returns the full-stop bounded sentence containing position.
func sentenceAt(text string, position int) string {
	start := strings.LastIndex(text[:position], ".")
	if start == -1 {
		start = 0
	} else {
		start++
	}
	end := strings.Index(text[position:], ".")
	if end == -1 {
		end = len(text)
	} else {
		end += position + 1
	}
	return strings.TrimSpace(text[start:end])
}

func cleanText(text string) string {
	text = parenthetical.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if len(text) > 150 {
		text = text[:147] + "..."
	}
	return text
}

func truncate(text string, n int) string {
	if len(text) > n {
		return text[:n]
	}
	return text
}
