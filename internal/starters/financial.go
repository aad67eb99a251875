package starters

import (
	"context"
	"fmt"

	"github.com/hmiddleton/schoolpitch/internal/ai"
	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/models"
)

// DefaultStarterCount is how many financial starters are requested when the
// caller does not say.
const DefaultStarterCount = 5

// FinancialResult is the structured response from the financial channel.
type FinancialResult struct {
	Starters      []models.ConversationStarter `json:"conversation_starters"`
	Summary       string                       `json:"summary"`
	SalesPriority models.Priority              `json:"sales_priority"`
}

// Generator produces conversation starters. The financial channel needs the
// text-generation service; the Ofsted and SEND channels are deterministic
// templates and work without it.
type Generator struct {
	completer ai.Completer
}

func NewGenerator(completer ai.Completer) *Generator {
	return &Generator{completer: completer}
}

// Financial generates count starters from the school's merged fact sheet.
// The result's priority is recomputed from the data afterwards, so a
// hallucinated priority in the response never sticks.
func (g *Generator) Financial(ctx context.Context, school *models.School, count int) (FinancialResult, error) {
	var result FinancialResult
	if count <= 0 {
		count = DefaultStarterCount
	}

	prompt := fmt.Sprintf(financialUserPrompt, count, school.LLMContext())
	completion, err := g.completer.Complete(ctx, financialSystemPrompt, prompt)
	if err != nil {
		return result, errors.Wrap(err, "generate financial starters")
	}
	if err := ai.DecodeJSON(completion, &result); err != nil {
		return result, errors.Wrap(err, "decode financial starters")
	}

	for i := range result.Starters {
		if result.Starters[i].Source == "" {
			result.Starters[i].Source = "Financial Data"
		}
	}
	result.SalesPriority = school.SalesPriority()
	return result, nil
}

// Summary produces the two-sentence call-sheet summary for a school.
func (g *Generator) Summary(ctx context.Context, school *models.School) (string, error) {
	summary, err := g.completer.Complete(ctx, summarySystemPrompt,
		fmt.Sprintf(summaryUserPrompt, school.LLMContext()))
	if err != nil {
		return "", errors.Wrap(err, "generate school summary")
	}
	return summary, nil
}
