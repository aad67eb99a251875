package starters

import (
	"fmt"
	"strings"

	"github.com/hmiddleton/schoolpitch/internal/models"
)

// FromOfsted turns a structured report analysis into scripted openers. The
// templates are deterministic so every starter can carry the report URL as
// its source; relevance scores are fixed per template, highest for the
// headline improvement area.
func FromOfsted(analysis *models.OfstedAnalysis) []models.ConversationStarter {
	if analysis == nil {
		return nil
	}
	var out []models.ConversationStarter

	if len(analysis.MainImprovements) > 0 {
		area := analysis.MainImprovements[0].Area
		if area == "" {
			area = "Key areas"
		}
		out = append(out, models.ConversationStarter{
			Topic: fmt.Sprintf("%s Support", area),
			Detail: fmt.Sprintf("I noticed from your recent Ofsted report that %s was identified "+
				"as a development area. We work with several schools facing similar challenges "+
				"and have seen great results. For example, one partner school improved outcomes "+
				"by 22%% in just two terms with the right specialist support. Would it be helpful "+
				"to discuss how we might support your improvement journey?", strings.ToLower(area)),
			Source:         analysis.ReportURL,
			RelevanceScore: 1.0,
		})
	}

	if maths, ok := analysis.SubjectImprovements["mathematics"]; ok && maths.Urgency == "HIGH" {
		yearGroups := maths.YearGroupsAffected
		if len(yearGroups) == 0 {
			yearGroups = []string{"KS2"}
		}
		out = append(out, models.ConversationStarter{
			Topic: "Mathematics Improvement",
			Detail: fmt.Sprintf("Your Ofsted report highlights mathematics as a priority, particularly for "+
				"%s. We've placed maths specialists who've made significant "+
				"impacts - one helped increase pupils meeting expected standards from 61%% to 78%%. "+
				"What are your main priorities for maths improvement this term?", strings.Join(yearGroups, ", ")),
			Source:         analysis.ReportURL,
			RelevanceScore: 0.95,
		})
	}

	if english, ok := analysis.SubjectImprovements["english"]; ok &&
		(english.Urgency == "HIGH" || english.Urgency == "MEDIUM") {
		out = append(out, models.ConversationStarter{
			Topic: "English & Literacy Support",
			Detail: "I see from your Ofsted that English/literacy development is a focus area. " +
				"Reading and writing outcomes are so crucial for overall progress. We have " +
				"experienced English specialists who've helped schools significantly improve " +
				"their phonics and reading comprehension results. Would you like to hear about " +
				"some approaches that have worked well?",
			Source:         analysis.ReportURL,
			RelevanceScore: 0.92,
		})
	}

	if len(analysis.OtherKeyImprovements["send"]) > 0 {
		out = append(out, models.ConversationStarter{
			Topic: "SEND Provision Support",
			Detail: "I understand from your Ofsted report that enhancing SEND provision is a priority. " +
				"This is such a crucial area. We work with experienced SEND practitioners who can " +
				"help develop whole-school SEND systems. Many have experience preparing schools " +
				"for Ofsted. What aspects of SEND provision are you looking to strengthen?",
			Source:         analysis.ReportURL,
			RelevanceScore: 0.93,
		})
	}

	if len(analysis.OtherKeyImprovements["leadership"]) > 0 {
		out = append(out, models.ConversationStarter{
			Topic: "Leadership Development",
			Detail: "Your Ofsted mentions leadership development as an area for focus. Strong middle " +
				"leadership is often key to driving improvement across a school. We can connect " +
				"you with experienced leaders who can provide interim support or mentoring. " +
				"What leadership capacity challenges are you currently facing?",
			Source:         analysis.ReportURL,
			RelevanceScore: 0.88,
		})
	}

	if len(analysis.PriorityOrder) >= 2 {
		out = append(out, models.ConversationStarter{
			Topic: "Ofsted Action Plan Support",
			Detail: "Looking at your Ofsted priorities, you have several areas to address. " +
				"We understand how challenging it is to tackle multiple improvements while " +
				"maintaining day-to-day excellence. We could discuss a coordinated approach, " +
				"starting with your top priority. What timeline are you working to for " +
				"showing progress to Ofsted?",
			Source:         analysis.ReportURL,
			RelevanceScore: 0.90,
		})
	}

	return out
}
