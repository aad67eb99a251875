package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/models"
)

const (
	summarySheet  = "School Summary"
	startersSheet = "Conversation Starters"
)

var summaryHeader = []string{
	"School Name", "URN", "Local Authority", "Headteacher", "Phone", "Website",
	"Financial Priority", "Staffing Spend", "SEND Priority", "EHC Plans",
	"SEN Support", "Has SEN Unit", "Has Resourced Provision", "Gov.uk Link",
}

var startersHeader = []string{
	"School Name", "URN", "Topic", "Conversation Script", "Source",
}

// Workbook renders a shortlist as a two-sheet spreadsheet: one summary row
// per school, one row per conversation starter. The starters sheet always
// exists; with no starters it carries a single note row so the consultant
// sees why it is empty.
func Workbook(schools []*models.School) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(startersSheet); err != nil {
		return nil, errors.Wrap(err, "create starters sheet")
	}

	summaryRows := [][]any{toRow(summaryHeader)}
	startersRows := [][]any{toRow(startersHeader)}

	for _, school := range schools {
		summaryRows = append(summaryRows, summaryRow(school))
		for _, starter := range school.ConversationStarters {
			source := starter.Source
			if source == "" {
				source = "Financial/School Data"
			}
			startersRows = append(startersRows, []any{
				school.Name, school.URN, starter.Topic, starter.Detail, source,
			})
		}
	}

	if len(startersRows) == 1 {
		startersRows = [][]any{
			{"Note"},
			{"No conversation starters generated yet. Generate starters for each school first."},
		}
	}

	if err := writeSheet(f, summarySheet, summaryRows); err != nil {
		return nil, err
	}
	if err := writeSheet(f, startersSheet, startersRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func summaryRow(school *models.School) []any {
	staffingSpend := ""
	if school.Financial != nil && school.Financial.TotalTeachingSupportCosts != nil {
		staffingSpend = models.FormatGBP(*school.Financial.TotalTeachingSupportCosts)
	}

	headteacher := ""
	if school.Headteacher != nil {
		headteacher = school.Headteacher.FullName
	}

	ehcPlans, senSupport := 0, 0
	hasSENUnit, hasRP := "No", "No"
	if school.SEND != nil {
		if school.SEND.EHCPlan != nil {
			ehcPlans = *school.SEND.EHCPlan
		}
		if school.SEND.SENSupport != nil {
			senSupport = *school.SEND.SENSupport
		}
		if school.SEND.HasSENUnit {
			hasSENUnit = "Yes"
		}
		if school.SEND.HasResourcedProvision {
			hasRP = "Yes"
		}
	}

	return []any{
		school.Name,
		school.URN,
		school.LAName,
		headteacher,
		school.Phone,
		school.Website,
		string(school.SalesPriority()),
		staffingSpend,
		string(school.SENDPriority()),
		ehcPlans,
		senSupport,
		hasSENUnit,
		hasRP,
		school.BenchmarkingURL(),
	}
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	widths := make(map[int]float64)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return errors.Wrap(err, "cell name")
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return errors.Wrap(err, "set cell")
			}
			if w := float64(len(fmt.Sprint(value))) + 2; w > widths[c] {
				widths[c] = w
			}
		}
	}
	for c, width := range widths {
		if width > 60 {
			width = 60
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return errors.Wrap(err, "column name")
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return errors.Wrap(err, "set column width")
		}
	}
	return nil
}

func toRow(header []string) []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}
