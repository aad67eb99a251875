package models

import (
	"fmt"
	"strings"
)

// Priority buckets a school for the sales team. UNKNOWN means the source
// dataset carried no figure, which is different from a low figure.
type Priority string

const (
	PriorityHigh    Priority = "HIGH"
	PriorityMedium  Priority = "MEDIUM"
	PriorityLow     Priority = "LOW"
	PriorityUnknown Priority = "UNKNOWN"
)

// Staffing-spend thresholds from the financial benchmarking dataset,
// applied to the total teaching and support staff cost figure.
const (
	highSpendThreshold   = 500_000
	mediumSpendThreshold = 200_000
)

// Contact is a named person at a school, typically the headteacher from the
// GIAS directory dataset.
type Contact struct {
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	Title     string `json:"title,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// FinancialData carries the cost figures from the financial benchmarking
// dataset. Every field is independently nullable: nil means the school did
// not report the figure, never zero.
type FinancialData struct {
	TotalExpenditure            *float64 `json:"total_expenditure,omitempty"`
	TotalPupils                 *float64 `json:"total_pupils,omitempty"`
	TeachingStaffCosts          *float64 `json:"teaching_staff_costs,omitempty"`
	SupplyTeachingCosts         *float64 `json:"supply_teaching_costs,omitempty"`
	EducationalSupportCosts     *float64 `json:"educational_support_costs,omitempty"`
	AgencySupplyCosts           *float64 `json:"agency_supply_costs,omitempty"`
	EducationalConsultancyCosts *float64 `json:"educational_consultancy_costs,omitempty"`
	TotalTeachingSupportCosts   *float64 `json:"total_teaching_support_costs,omitempty"`
}

func (f *FinancialData) HasData() bool {
	return f != nil && (f.TotalTeachingSupportCosts != nil || f.TotalExpenditure != nil)
}

func (f *FinancialData) HasAgencySpend() bool {
	return f != nil && f.AgencySupplyCosts != nil && *f.AgencySupplyCosts > 0
}

// PriorityLevel is a step function of the total teaching and support staff
// costs. A missing figure is UNKNOWN, never LOW.
func (f *FinancialData) PriorityLevel() Priority {
	if f == nil || f.TotalTeachingSupportCosts == nil {
		return PriorityUnknown
	}
	spend := *f.TotalTeachingSupportCosts
	switch {
	case spend >= highSpendThreshold:
		return PriorityHigh
	case spend >= mediumSpendThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// AgencyPerPupil derives the per-pupil agency-supply spend, or nil when
// either figure is missing.
func (f *FinancialData) AgencyPerPupil() *float64 {
	if f == nil || f.AgencySupplyCosts == nil || f.TotalPupils == nil || *f.TotalPupils <= 0 {
		return nil
	}
	perPupil := *f.AgencySupplyCosts / *f.TotalPupils
	return &perPupil
}

// Summary renders the reported figures as the plain-text block handed to the
// text-generation service. Unreported figures are omitted entirely.
func (f *FinancialData) Summary() string {
	if f == nil {
		return "No financial data available"
	}
	var lines []string
	if f.TotalPupils != nil {
		lines = append(lines, fmt.Sprintf("Total Pupils: %d", int(*f.TotalPupils)))
	}
	if f.TotalExpenditure != nil {
		lines = append(lines, fmt.Sprintf("Total Expenditure: %s", FormatGBP(*f.TotalExpenditure)))
	}
	if f.TotalTeachingSupportCosts != nil {
		lines = append(lines, fmt.Sprintf("Total Staffing Costs: %s", FormatGBP(*f.TotalTeachingSupportCosts)))
		if f.TotalPupils != nil && *f.TotalPupils > 0 {
			lines = append(lines, fmt.Sprintf("  -> %s per pupil on staffing", FormatGBP(*f.TotalTeachingSupportCosts / *f.TotalPupils)))
		}
	}
	if f.TeachingStaffCosts != nil {
		lines = append(lines, fmt.Sprintf("Teaching Staff Costs (E01): %s", FormatGBP(*f.TeachingStaffCosts)))
	}
	if f.SupplyTeachingCosts != nil && *f.SupplyTeachingCosts > 0 {
		lines = append(lines, fmt.Sprintf("Supply Teaching Costs (E02): %s", FormatGBP(*f.SupplyTeachingCosts)))
	}
	if f.AgencySupplyCosts != nil && *f.AgencySupplyCosts > 0 {
		lines = append(lines, fmt.Sprintf("Agency Supply Costs (E26): %s", FormatGBP(*f.AgencySupplyCosts)))
		if perPupil := f.AgencyPerPupil(); perPupil != nil {
			lines = append(lines, fmt.Sprintf("  -> %s per pupil on agency staff", FormatGBP(*perPupil)))
		}
	}
	if f.EducationalSupportCosts != nil {
		lines = append(lines, fmt.Sprintf("Educational Support Costs (E03): %s", FormatGBP(*f.EducationalSupportCosts)))
	}
	if f.EducationalConsultancyCosts != nil && *f.EducationalConsultancyCosts > 0 {
		lines = append(lines, fmt.Sprintf("Educational Consultancy (E27): %s", FormatGBP(*f.EducationalConsultancyCosts)))
	}
	if len(lines) == 0 {
		return "No financial data available"
	}
	return strings.Join(lines, "\n")
}

// SENDData carries pupil counts from the DfE special educational needs
// dataset. Counts are nullable because small counts are suppressed in the
// published data.
type SENDData struct {
	TotalPupils *int `json:"total_pupils,omitempty"`
	SENSupport  *int `json:"sen_support,omitempty"`
	EHCPlan     *int `json:"ehc_plan,omitempty"`

	HasSENUnit            bool `json:"has_sen_unit"`
	HasResourcedProvision bool `json:"has_resourced_provision"`

	// EHC plan counts by primary need type.
	EHCASD  *int `json:"ehc_asd,omitempty"`
	EHCSEMH *int `json:"ehc_semh,omitempty"`
	EHCSLCN *int `json:"ehc_slcn,omitempty"`
	EHCSLD  *int `json:"ehc_sld,omitempty"`
	EHCPMLD *int `json:"ehc_pmld,omitempty"`
	EHCMLD  *int `json:"ehc_mld,omitempty"`
	EHCSPLD *int `json:"ehc_spld,omitempty"`
	EHCHI   *int `json:"ehc_hi,omitempty"`
	EHCVI   *int `json:"ehc_vi,omitempty"`
	EHCPD   *int `json:"ehc_pd,omitempty"`

	// SEN support counts by primary need type.
	SupASD  *int `json:"sup_asd,omitempty"`
	SupSEMH *int `json:"sup_semh,omitempty"`
	SupSLCN *int `json:"sup_slcn,omitempty"`
}

func (s *SENDData) HasData() bool {
	return s != nil && (s.SENSupport != nil || s.EHCPlan != nil)
}

func (s *SENDData) TotalSEND() int {
	if s == nil {
		return 0
	}
	return intOrZero(s.SENSupport) + intOrZero(s.EHCPlan)
}

func (s *SENDData) SENDPercentage() *float64 {
	if s == nil || s.TotalPupils == nil || *s.TotalPupils == 0 {
		return nil
	}
	pct := float64(s.TotalSEND()) / float64(*s.TotalPupils) * 100
	return &pct
}

func (s *SENDData) EHCPercentage() *float64 {
	if s == nil || s.TotalPupils == nil || *s.TotalPupils == 0 {
		return nil
	}
	pct := float64(intOrZero(s.EHCPlan)) / float64(*s.TotalPupils) * 100
	return &pct
}

// PriorityScore weighs the SEND profile for sales targeting. Facility flags
// dominate because a dedicated unit or resourced provision means guaranteed
// ongoing demand; EHC plans are legally binding so they outweigh SEN support;
// ASD and SEMH are the hardest need types to staff.
func (s *SENDData) PriorityScore() int {
	if s == nil {
		return 0
	}
	score := 0
	if s.HasSENUnit {
		score += 50
	}
	if s.HasResourcedProvision {
		score += 50
	}
	score += intOrZero(s.EHCPlan) * 3
	score += intOrZero(s.SENSupport)
	score += intOrZero(s.EHCASD) * 2
	score += intOrZero(s.EHCSEMH) * 2
	return score
}

func (s *SENDData) PriorityLevel() Priority {
	if s == nil {
		return PriorityUnknown
	}
	if s.HasSENUnit || s.HasResourcedProvision {
		return PriorityHigh
	}
	if pct := s.EHCPercentage(); pct != nil && *pct > 5 {
		return PriorityHigh
	}
	if intOrZero(s.EHCPlan) >= 10 {
		return PriorityHigh
	}
	if intOrZero(s.EHCPlan) >= 5 || intOrZero(s.SENSupport) >= 30 {
		return PriorityMedium
	}
	return PriorityLow
}

// NeedCount pairs a need-type label with its EHC plan count.
type NeedCount struct {
	Need  string `json:"need"`
	Count int    `json:"count"`
}

// TopNeeds returns up to limit EHC need types ordered by count, skipping
// zero and suppressed counts.
func (s *SENDData) TopNeeds(limit int) []NeedCount {
	if s == nil {
		return nil
	}
	needs := []NeedCount{
		{Need: "Autism (ASD)", Count: intOrZero(s.EHCASD)},
		{Need: "SEMH", Count: intOrZero(s.EHCSEMH)},
		{Need: "Speech & Language", Count: intOrZero(s.EHCSLCN)},
		{Need: "Severe LD", Count: intOrZero(s.EHCSLD)},
		{Need: "Moderate LD", Count: intOrZero(s.EHCMLD)},
		{Need: "Physical Disability", Count: intOrZero(s.EHCPD)},
		{Need: "Hearing Impairment", Count: intOrZero(s.EHCHI)},
		{Need: "Visual Impairment", Count: intOrZero(s.EHCVI)},
	}
	// Stable selection sort keeps equal counts in the fixed order above.
	var top []NeedCount
	for len(top) < limit {
		best := -1
		for i, n := range needs {
			if n.Count > 0 && (best == -1 || n.Count > needs[best].Count) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		top = append(top, needs[best])
		needs = append(needs[:best], needs[best+1:]...)
	}
	return top
}

func (s *SENDData) Summary() string {
	if s == nil {
		return "No SEND data available"
	}
	var lines []string
	if total := s.TotalSEND(); total > 0 {
		lines = append(lines, fmt.Sprintf("Total SEND Pupils: %d", total))
		if pct := s.SENDPercentage(); pct != nil {
			lines = append(lines, fmt.Sprintf("SEND as %% of school: %.1f%%", *pct))
		}
	}
	if s.EHCPlan != nil && *s.EHCPlan > 0 {
		lines = append(lines, fmt.Sprintf("EHC Plans: %d (legally binding support required)", *s.EHCPlan))
	}
	if s.SENSupport != nil && *s.SENSupport > 0 {
		lines = append(lines, fmt.Sprintf("SEN Support: %d", *s.SENSupport))
	}
	if s.HasSENUnit {
		lines = append(lines, "Has dedicated SEN Unit")
	}
	if s.HasResourcedProvision {
		lines = append(lines, "Has Resourced Provision")
	}
	if top := s.TopNeeds(3); len(top) > 0 {
		parts := make([]string, len(top))
		for i, n := range top {
			parts[i] = fmt.Sprintf("%s: %d", n.Need, n.Count)
		}
		lines = append(lines, "Top needs: "+strings.Join(parts, ", "))
	}
	if len(lines) == 0 {
		return "No SEND data available"
	}
	return strings.Join(lines, "\n")
}

// OfstedData is produced on demand by the report pipeline; it is nil until a
// report has been fetched for the school.
type OfstedData struct {
	Rating              string   `json:"rating,omitempty"`
	InspectionDate      string   `json:"inspection_date,omitempty"`
	ReportURL           string   `json:"report_url,omitempty"`
	AreasForImprovement []string `json:"areas_for_improvement,omitempty"`
}

// ConversationStarter is a scripted opener for a sales call. Source is the
// Ofsted report URL for report-driven starters, or a dataset label such as
// "Financial Data" otherwise.
type ConversationStarter struct {
	Topic          string  `json:"topic"`
	Detail         string  `json:"detail"`
	Source         string  `json:"source,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// FromReport reports whether the starter was derived from a fetched document
// rather than dataset figures.
func (c ConversationStarter) FromReport() bool {
	return strings.HasPrefix(c.Source, "http")
}

// School is the merged view of one school across the financial, directory
// and SEND datasets. URN and Name are always present; everything else is
// optional because "unknown" is a common and valid state.
type School struct {
	URN  string `json:"urn"`
	Name string `json:"school_name"`

	LAName   string `json:"la_name,omitempty"`
	Address1 string `json:"address_1,omitempty"`
	Address2 string `json:"address_2,omitempty"`
	Address3 string `json:"address_3,omitempty"`
	Town     string `json:"town,omitempty"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode,omitempty"`

	SchoolType string `json:"school_type,omitempty"`
	Phase      string `json:"phase,omitempty"`
	PupilCount *int   `json:"pupil_count,omitempty"`

	TrustCode string `json:"trust_code,omitempty"`
	TrustName string `json:"trust_name,omitempty"`

	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`

	Headteacher *Contact `json:"headteacher,omitempty"`

	Financial *FinancialData `json:"financial,omitempty"`
	SEND      *SENDData      `json:"send,omitempty"`
	Ofsted    *OfstedData    `json:"ofsted,omitempty"`

	ConversationStarters []ConversationStarter `json:"conversation_starters,omitempty"`
}

func (s *School) FullAddress() string {
	parts := []string{s.Address1, s.Address2, s.Address3, s.Town, s.County, s.Postcode}
	var present []string
	for _, p := range parts {
		if p != "" {
			present = append(present, p)
		}
	}
	return strings.Join(present, ", ")
}

func (s *School) SalesPriority() Priority {
	return s.Financial.PriorityLevel()
}

func (s *School) SENDPriority() Priority {
	if s.SEND == nil {
		return PriorityUnknown
	}
	return s.SEND.PriorityLevel()
}

// CombinedPriority takes the higher of the financial and SEND priorities.
func (s *School) CombinedPriority() Priority {
	fin, send := s.SalesPriority(), s.SENDPriority()
	if fin == PriorityHigh || send == PriorityHigh {
		return PriorityHigh
	}
	if fin == PriorityMedium || send == PriorityMedium {
		return PriorityMedium
	}
	return PriorityLow
}

// BenchmarkingURL links to the school's page on the government financial
// benchmarking tool, used as source attribution in exports.
func (s *School) BenchmarkingURL() string {
	return fmt.Sprintf("https://schools-financial-benchmarking.service.gov.uk/school?urn=%s", s.URN)
}

// LLMContext renders the merged record as the plain-text fact sheet supplied
// to the text-generation service.
func (s *School) LLMContext() string {
	lines := []string{
		fmt.Sprintf("SCHOOL: %s", s.Name),
		fmt.Sprintf("URN: %s", s.URN),
		fmt.Sprintf("Type: %s (%s)", orUnknown(s.SchoolType), orUnknown(s.Phase)),
		fmt.Sprintf("Local Authority: %s", orUnknown(s.LAName)),
	}
	if s.PupilCount != nil {
		lines = append(lines, fmt.Sprintf("Pupil Count: %d", *s.PupilCount))
	} else {
		lines = append(lines, "Pupil Count: Unknown")
	}

	if s.Headteacher != nil {
		lines = append(lines, "", fmt.Sprintf("HEADTEACHER: %s", s.Headteacher.FullName))
		if s.Phone != "" {
			lines = append(lines, fmt.Sprintf("School Phone: %s", s.Phone))
		}
		if s.Website != "" {
			lines = append(lines, fmt.Sprintf("Website: %s", s.Website))
		}
	}
	if address := s.FullAddress(); address != "" {
		lines = append(lines, fmt.Sprintf("Address: %s", address))
	}

	if s.Financial != nil {
		lines = append(lines, "", "FINANCIAL DATA (from Government Benchmarking Tool):", s.Financial.Summary())
		switch s.Financial.PriorityLevel() {
		case PriorityHigh:
			lines = append(lines, "", "SALES PRIORITY: HIGH - Large staffing budget")
		case PriorityMedium:
			lines = append(lines, "", "SALES PRIORITY: MEDIUM - Mid-size staffing budget")
		}
	}

	if s.SEND.HasData() {
		lines = append(lines, "", "SEND DATA (from DfE Special Educational Needs data):", s.SEND.Summary())
		if s.SEND.PriorityLevel() == PriorityHigh {
			lines = append(lines, "", "SEND PRIORITY: HIGH - Strong demand for SEND specialists")
		}
	}

	if s.Ofsted != nil {
		lines = append(lines, "", fmt.Sprintf("OFSTED RATING: %s", orUnknown(s.Ofsted.Rating)))
		if s.Ofsted.InspectionDate != "" {
			lines = append(lines, fmt.Sprintf("Inspection Date: %s", s.Ofsted.InspectionDate))
		}
		if len(s.Ofsted.AreasForImprovement) > 0 {
			lines = append(lines, "Areas for improvement:")
			for _, area := range s.Ofsted.AreasForImprovement {
				lines = append(lines, fmt.Sprintf("  - %s", area))
			}
		}
	}

	return strings.Join(lines, "\n")
}

// FormatGBP renders a currency figure as pounds with thousands separators,
// rounded to whole pounds.
func FormatGBP(amount float64) string {
	whole := fmt.Sprintf("%.0f", amount)
	negative := strings.HasPrefix(whole, "-")
	digits := strings.TrimPrefix(whole, "-")
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if negative {
		return "-£" + b.String()
	}
	return "£" + b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
