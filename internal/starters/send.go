package starters

import (
	"fmt"

	"github.com/hmiddleton/schoolpitch/internal/models"
)

const sendSource = "DfE SEND Data"

// FromSEND turns a school's SEND profile into scripted openers. Each template
// has a firing threshold; a school with a modest profile gets nothing, which
// tells the consultant to lead with supply and cover instead.
func FromSEND(send *models.SENDData) []models.ConversationStarter {
	if send == nil {
		return nil
	}
	var out []models.ConversationStarter

	if send.HasSENUnit || send.HasResourcedProvision {
		unitType := "SEN unit"
		if !send.HasSENUnit {
			unitType = "resourced provision"
		}
		out = append(out, models.ConversationStarter{
			Topic: "SEN Unit Staffing",
			Detail: fmt.Sprintf("I noticed you have a dedicated %s - how are you currently staffing it? "+
				"We work with schools to provide trained SEND specialists for both permanent and "+
				"cover positions.", unitType),
			Source:         sendSource,
			RelevanceScore: 1.0,
		})
	}

	if ehc := intValue(send.EHCPlan); ehc >= 10 {
		out = append(out, models.ConversationStarter{
			Topic: "EHC Plan Support",
			Detail: fmt.Sprintf("You have %d pupils with EHC plans - that's a significant support "+
				"requirement. How are you managing their 1:1 support? We have ASD-trained and "+
				"SEMH-specialist TAs available.", ehc),
			Source:         sendSource,
			RelevanceScore: 0.95,
		})
	}

	if asd := intValue(send.EHCASD); asd >= 3 {
		out = append(out, models.ConversationStarter{
			Topic: "Autism Specialists",
			Detail: fmt.Sprintf("With %d pupils with autism, having the right trained support staff is "+
				"crucial. Are you finding it difficult to recruit autism-trained TAs? We specialise "+
				"in placing SEND specialists.", asd),
			Source:         sendSource,
			RelevanceScore: 0.9,
		})
	}

	if semh := intValue(send.EHCSEMH); semh >= 3 {
		out = append(out, models.ConversationStarter{
			Topic: "SEMH Specialists",
			Detail: fmt.Sprintf("I see you have %d pupils with SEMH needs - this is one of the hardest "+
				"areas to recruit for. We have experienced SEMH specialists who understand "+
				"de-escalation and behaviour management.", semh),
			Source:         sendSource,
			RelevanceScore: 0.9,
		})
	}

	if total := send.TotalSEND(); total >= 15 {
		out = append(out, models.ConversationStarter{
			Topic: "SENCO Cover Continuity",
			Detail: fmt.Sprintf("With %d SEND pupils, what happens when your SENCO or specialist TAs are "+
				"absent? We can provide trained cover at short notice to maintain continuity for "+
				"your vulnerable learners.", total),
			Source:         sendSource,
			RelevanceScore: 0.85,
		})
	}

	return out
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
