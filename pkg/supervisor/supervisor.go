// Package supervisor decides which specialist handles the current turn,
// and carries the back-edge bookkeeping that bounds how many times a turn
// may bounce between supervisor and specialist.
package supervisor

import (
	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/intelligence"
)

// MaxRoutingAttempts is the number of supervisor revisits a single turn may
// take before the fallback decision forces an answer with whatever
// information is already in hand.
const MaxRoutingAttempts = 3

// Route applies the routing decision table to state and returns the
// resulting RoutingDecision. It does not mutate state; callers apply the
// decision (NextAgent, AgentTask) and bump RoutingAttempts themselves, since
// whether this call counts as a "revisit" depends on where it's invoked
// from in the graph.
func Route(state *conversation.State) conversation.RoutingDecision {
	if decision, ok := escalationOverride(state); ok {
		return decision
	}

	if state.RoutingAttempts >= MaxRoutingAttempts {
		agent := state.CurrentAgent
		if agent == "" {
			agent = conversation.AgentDiscovery
		}
		return conversation.RoutingDecision{
			NextAgent:       agent,
			TaskDescription: "fallback: answer with available info",
			Reason:          "routing_attempts exhausted",
			ScoreAtDecision: state.LeadScore,
		}
	}

	score := state.LeadScore
	data := state.ExtractedData

	switch {
	case score >= 8 && data.Email != "" && data.Name != "" && intelligence.IndicatesStrongBudget(data.Budget):
		return conversation.RoutingDecision{
			NextAgent:       conversation.AgentClosing,
			TaskDescription: "book appointment",
			Reason:          "hot lead with name, email, and qualified budget",
			ScoreAtDecision: score,
		}
	case score >= 8:
		return conversation.RoutingDecision{
			NextAgent:       conversation.AgentClosing,
			TaskDescription: "confirm remaining details and book",
			Reason:          "hot lead, missing a qualifying detail",
			ScoreAtDecision: score,
		}
	case score >= 5:
		return conversation.RoutingDecision{
			NextAgent:       conversation.AgentQualification,
			TaskDescription: "qualify: confirm budget and goal",
			Reason:          "warm lead",
			ScoreAtDecision: score,
		}
	default:
		return conversation.RoutingDecision{
			NextAgent:       conversation.AgentDiscovery,
			TaskDescription: "discover: collect name/business/goal",
			Reason:          "cold lead",
			ScoreAtDecision: score,
		}
	}
}

// escalationOverride maps a specialist's escalation signal to a forced
// routing decision, taking priority over the score-based table.
func escalationOverride(state *conversation.State) (conversation.RoutingDecision, bool) {
	if !state.NeedsEscalation {
		return conversation.RoutingDecision{}, false
	}

	switch state.EscalationReason {
	case conversation.EscalationNeedsAppointment:
		return conversation.RoutingDecision{
			NextAgent:       conversation.AgentClosing,
			TaskDescription: "book appointment",
			Reason:          "specialist escalated: needs_appointment",
			ScoreAtDecision: state.LeadScore,
		}, true
	case conversation.EscalationWrongAgent:
		if state.LeadScore < 5 {
			return conversation.RoutingDecision{
				NextAgent:       conversation.AgentDiscovery,
				TaskDescription: "discover: collect name/business/goal",
				Reason:          "specialist escalated: wrong_agent",
				ScoreAtDecision: state.LeadScore,
			}, true
		}
	case conversation.EscalationNeedsQualification:
		return conversation.RoutingDecision{
			NextAgent:       conversation.AgentQualification,
			TaskDescription: "qualify: confirm budget and goal",
			Reason:          "specialist escalated: needs_qualification",
			ScoreAtDecision: state.LeadScore,
		}, true
	}

	return conversation.RoutingDecision{}, false
}

// Revisit applies a back-edge from a specialist to the supervisor. It
// reports false without mutating state once RoutingAttempts has already
// reached MaxRoutingAttempts; otherwise it increments the counter and
// returns true, allowing Route to run again this turn.
func Revisit(state *conversation.State) (allowed bool) {
	if state.RoutingAttempts >= MaxRoutingAttempts {
		return false
	}
	state.RoutingAttempts++
	return true
}
