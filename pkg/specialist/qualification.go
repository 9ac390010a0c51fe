package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/generator"
)

// standardBudgetAnchor is the monthly figure Qualification offers when the
// customer hasn't stated a budget, to anchor the conversation.
const standardBudgetAnchor = "$300"

// Qualification is specialist B: handles warm leads (score 5-7),
// acknowledges what's known and firms up the remaining budget/goal gap.
type Qualification struct {
	gen generator.Generator
}

// NewQualification builds specialist B.
func NewQualification(gen generator.Generator) *Qualification {
	return &Qualification{gen: gen}
}

// Role implements Node.
func (q *Qualification) Role() conversation.AgentRole { return conversation.AgentQualification }

// Process implements Node.
func (q *Qualification) Process(ctx context.Context, state *conversation.State, task string) error {
	score := state.LeadScore

	if score < 5 {
		escalate(state, q.Role(), conversation.EscalationWrongAgent,
			fmt.Sprintf("qualification received score %d, below 5", score))
		return nil
	}

	if score > 7 {
		if state.ExtractedData.Email != "" && !strings.EqualFold(state.ExtractedData.Email, "none") {
			escalate(state, q.Role(), conversation.EscalationNeedsAppointment,
				fmt.Sprintf("qualification received score %d with email present", score))
			return nil
		}
		escalate(state, q.Role(), conversation.EscalationWrongAgent,
			fmt.Sprintf("qualification received score %d, above 7 with no email yet", score))
		return nil
	}

	systemPrompt := buildQualificationPrompt(state.ExtractedData)
	return generate(ctx, q.gen, q.Role(), state, systemPrompt)
}

func buildQualificationPrompt(data conversation.ExtractedData) string {
	var known []string
	if data.Name != "" {
		known = append(known, "name: "+data.Name)
	}
	if data.BusinessType != "" {
		known = append(known, "business: "+data.BusinessType)
	}
	if data.Goal != "" {
		known = append(known, "goal: "+data.Goal)
	}

	var b strings.Builder
	b.WriteString("Briefly acknowledge what's already known about the lead (")
	b.WriteString(strings.Join(known, ", "))
	b.WriteString("). ")

	if data.Budget == "" {
		b.WriteString("They haven't confirmed a budget yet. Mention a standard starting point of ")
		b.WriteString(standardBudgetAnchor)
		b.WriteString(" per month as an anchor and ask if that works for them.")
	} else {
		b.WriteString("Confirm their goal in your own words and ask one clarifying question to firm it up.")
	}
	b.WriteString(" Reply in Spanish, in one or two short sentences.")
	return b.String()
}
