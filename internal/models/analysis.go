package models

// MainImprovement is one headline improvement area from an inspection report,
// structured by the text-generation service.
type MainImprovement struct {
	Area        string `json:"area"`
	Description string `json:"description"`
	Specifics   string `json:"specifics,omitempty"`
}

// SubjectImprovement describes what a specific subject needs, as structured
// by the text-generation service.
type SubjectImprovement struct {
	Issues             []string `json:"issues"`
	YearGroupsAffected []string `json:"year_groups_affected,omitempty"`
	Urgency            string   `json:"urgency"`
}

// OfstedAnalysis is the structured improvement summary for one report. The
// rating, date and URL come from the syntactic pipeline; the improvement
// fields come back from the text-generation service.
type OfstedAnalysis struct {
	Rating               string                        `json:"rating,omitempty"`
	InspectionDate       string                        `json:"inspection_date,omitempty"`
	ReportURL            string                        `json:"report_url,omitempty"`
	MainImprovements     []MainImprovement             `json:"main_improvements,omitempty"`
	SubjectImprovements  map[string]SubjectImprovement `json:"subject_improvements,omitempty"`
	OtherKeyImprovements map[string][]string           `json:"other_key_improvements,omitempty"`
	PriorityOrder        []string                      `json:"priority_order,omitempty"`
}

// OfstedData flattens the analysis into the record attached to a School.
func (a *OfstedAnalysis) OfstedData() *OfstedData {
	if a == nil {
		return nil
	}
	areas := make([]string, 0, len(a.MainImprovements))
	for _, imp := range a.MainImprovements {
		areas = append(areas, imp.Area)
	}
	return &OfstedData{
		Rating:              a.Rating,
		InspectionDate:      a.InspectionDate,
		ReportURL:           a.ReportURL,
		AreasForImprovement: areas,
	}
}
