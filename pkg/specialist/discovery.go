package specialist

import (
	"context"
	"fmt"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/generator"
)

// discoveryFieldOrder is the priority order Discovery asks for missing
// fields in: one question per turn, never more.
var discoveryFieldOrder = []string{"name", "business_type", "goal", "budget"}

// Discovery is specialist A: handles cold leads (score 0-4), greets and
// collects the core four fields one at a time.
type Discovery struct {
	gen generator.Generator
}

// NewDiscovery builds specialist A.
func NewDiscovery(gen generator.Generator) *Discovery {
	return &Discovery{gen: gen}
}

// Role implements Node.
func (d *Discovery) Role() conversation.AgentRole { return conversation.AgentDiscovery }

// Process implements Node.
func (d *Discovery) Process(ctx context.Context, state *conversation.State, task string) error {
	if state.LeadScore > 4 {
		escalate(state, d.Role(), conversation.EscalationWrongAgent,
			fmt.Sprintf("discovery received score %d, outside 0-4", state.LeadScore))
		return nil
	}

	missing := firstMissingField(state.ExtractedData)
	if missing == "" {
		escalate(state, d.Role(), conversation.EscalationNeedsQualification,
			"all four discovery fields present")
		return nil
	}

	greeted := hasPriorReplyFrom(state, d.Role())
	systemPrompt := buildDiscoveryPrompt(missing, greeted)
	return generate(ctx, d.gen, d.Role(), state, systemPrompt)
}

// firstMissingField returns the highest-priority field in
// discoveryFieldOrder that data does not have yet, or "" if all are set.
func firstMissingField(data conversation.ExtractedData) string {
	for _, field := range discoveryFieldOrder {
		if fieldValue(data, field) == "" {
			return field
		}
	}
	return ""
}

func fieldValue(data conversation.ExtractedData, field string) string {
	switch field {
	case "name":
		return data.Name
	case "business_type":
		return data.BusinessType
	case "goal":
		return data.Goal
	case "budget":
		return data.Budget
	default:
		return ""
	}
}

// hasPriorReplyFrom reports whether role has already sent a message this
// thread, so Discovery greets exactly once.
func hasPriorReplyFrom(state *conversation.State, role conversation.AgentRole) bool {
	for _, m := range state.Messages {
		if m.Role == conversation.RoleAgent && m.AgentName == role {
			return true
		}
	}
	return false
}

func buildDiscoveryPrompt(missing string, greeted bool) string {
	prefix := "Greet the customer warmly and briefly introduce yourself as a lead assistant. "
	if greeted {
		prefix = "Continue the conversation naturally, no new greeting. "
	}

	var ask string
	switch missing {
	case "name":
		ask = "Ask for their name."
	case "business_type":
		ask = "Ask what kind of business they run."
	case "goal":
		ask = "Ask what they're hoping to achieve or what problem they want solved."
	case "budget":
		ask = "Ask what monthly budget they have in mind."
	}

	return prefix + ask + " Ask for exactly this one thing, in Spanish, in one or two short sentences."
}
