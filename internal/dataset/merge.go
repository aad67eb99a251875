package dataset

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/hmiddleton/schoolpitch/internal/models"
)

// merge joins the three sources by URN. The school universe is the union of
// the financial and directory URNs; SEND rows only enrich schools that exist
// in that union. Where both the financial and directory files report the
// same logical field, the financial value wins.
func merge(logger *slog.Logger, financial, directory, send map[string]Row) []*models.School {
	urns := make(map[string]struct{}, len(financial)+len(directory))
	for urn := range financial {
		urns[urn] = struct{}{}
	}
	for urn := range directory {
		urns[urn] = struct{}{}
	}

	schools := make([]*models.School, 0, len(urns))
	for urn := range urns {
		school := buildSchool(urn, financial[urn], directory[urn], send[urn])
		if school == nil {
			logger.Warn("skipping unbuildable school", slog.String("urn", urn))
			continue
		}
		schools = append(schools, school)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].Name < schools[j].Name })
	return schools
}

// first looks the candidate columns up in the financial row, then the
// directory row. Nil rows are safe to pass.
func first(financial, directory Row, keys ...string) string {
	if financial != nil {
		if value, ok := lookup(financial, keys...); ok {
			return value
		}
	}
	return String(directory, keys...)
}

func firstInt(financial, directory Row, keys ...string) *int {
	if financial != nil {
		if value := Int(financial, keys...); value != nil {
			return value
		}
	}
	return Int(directory, keys...)
}

func buildSchool(urn string, financial, directory, send Row) *models.School {
	if urn == "" {
		return nil
	}
	name := first(financial, directory,
		"school_name", "EstablishmentName", "School Name", "SchoolName")
	if name == "" {
		name = "School " + urn
	}

	school := &models.School{
		URN:  urn,
		Name: name,

		LAName:   first(financial, directory, "la_name", "LA (name)", "Local Authority"),
		Address1: first(financial, directory, "address_1", "Street"),
		Address2: first(financial, directory, "address_2", "Locality"),
		Address3: first(financial, directory, "address_3", "Address3"),
		Town:     first(financial, directory, "town", "Town"),
		County:   first(financial, directory, "county", "County (name)"),
		Postcode: first(financial, directory, "postcode", "Postcode"),

		SchoolType: first(financial, directory, "school_type", "TypeOfEstablishment (name)"),
		Phase:      first(financial, directory, "phase", "PhaseOfEducation (name)"),
		PupilCount: firstInt(financial, directory, "pupil_count", "NumberOfPupils"),

		TrustCode: first(financial, directory, "trust_code", "Trusts (code)"),
		TrustName: first(financial, directory, "trust_name", "Trusts (name)"),

		Phone:   CleanPhone(first(financial, directory, "phone", "TelephoneNum")),
		Website: first(financial, directory, "website", "SchoolWebsite"),

		Headteacher: buildHeadteacher(directory),
	}

	if financial != nil {
		school.Financial = &models.FinancialData{
			TotalExpenditure:            Float(financial, "total_expenditure"),
			TotalPupils:                 Float(financial, "total_pupils"),
			TeachingStaffCosts:          Float(financial, "teaching_staff_costs"),
			SupplyTeachingCosts:         Float(financial, "supply_teaching_costs"),
			EducationalSupportCosts:     Float(financial, "educational_support_costs"),
			AgencySupplyCosts:           Float(financial, "agency_supply_costs"),
			EducationalConsultancyCosts: Float(financial, "educational_consultancy_costs"),
			TotalTeachingSupportCosts:   Float(financial, "total_teaching_support_costs"),
		}
	}

	if send != nil {
		school.SEND = &models.SENDData{
			TotalPupils: Int(send, "Total pupils", "total_pupils"),
			SENSupport:  Int(send, "SEN support", "sen_support"),
			EHCPlan:     Int(send, "EHC plan", "ehc_plan"),

			HasSENUnit:            Flag(send, "SEN unit", "SEN_Unit", "sen_unit"),
			HasResourcedProvision: Flag(send, "Resourced provision", "RP_Unit", "resourced_provision"),

			EHCASD:  Int(send, "EHC_Autistic spectrum disorder", "EHC_Primary_need_asd", "ehc_asd"),
			EHCSEMH: Int(send, "EHC_Social, emotional and mental health", "EHC_Primary_need_semh", "ehc_semh"),
			EHCSLCN: Int(send, "EHC_Speech, language and communications needs", "EHC_Primary_need_slcn", "ehc_slcn"),
			EHCSLD:  Int(send, "EHC_Severe learning difficulty", "EHC_Primary_need_sld", "ehc_sld"),
			EHCPMLD: Int(send, "EHC_Profound and multiple learning difficulty", "EHC_Primary_need_pmld", "ehc_pmld"),
			EHCMLD:  Int(send, "EHC_Moderate learning difficulty", "EHC_Primary_need_mld", "ehc_mld"),
			EHCSPLD: Int(send, "EHC_Specific learning difficulty", "EHC_Primary_need_spld", "ehc_spld"),
			EHCHI:   Int(send, "EHC_Hearing impairment", "EHC_Primary_need_hi", "ehc_hi"),
			EHCVI:   Int(send, "EHC_Visual impairment", "EHC_Primary_need_vi", "ehc_vi"),
			EHCPD:   Int(send, "EHC_Physical disability", "EHC_Primary_need_pd", "ehc_pd"),

			SupASD:  Int(send, "SUP_Autistic spectrum disorder", "SUP_Primary_need_asd", "sup_asd"),
			SupSEMH: Int(send, "SUP_Social, emotional and mental health", "SUP_Primary_need_semh", "sup_semh"),
			SupSLCN: Int(send, "SUP_Speech, language and communications needs", "SUP_Primary_need_slcn", "sup_slcn"),
		}
	}

	return school
}

// buildHeadteacher assembles the headteacher contact from the directory
// columns. Returns nil when no name component is present.
func buildHeadteacher(directory Row) *models.Contact {
	if directory == nil {
		return nil
	}
	title := String(directory, "HeadTitle (name)", "head_title")
	firstName := String(directory, "HeadFirstName", "head_first_name")
	lastName := String(directory, "HeadLastName", "head_last_name")
	fullName := String(directory, "headteacher")
	role := String(directory, "HeadPreferredJobTitle", "head_job_title")
	if fullName == "" && firstName == "" && lastName == "" {
		return nil
	}
	if fullName == "" {
		var parts []string
		for _, p := range []string{title, firstName, lastName} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		fullName = strings.Join(parts, " ")
	}
	if role == "" {
		role = "Headteacher"
	}
	return &models.Contact{
		FullName:  fullName,
		Role:      role,
		Title:     title,
		FirstName: firstName,
		LastName:  lastName,
	}
}
