package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

func TestRouteColdLeadGoesToDiscovery(t *testing.T) {
	state := &conversation.State{LeadScore: 2}
	decision := Route(state)
	assert.Equal(t, conversation.AgentDiscovery, decision.NextAgent)
}

func TestRouteWarmLeadGoesToQualification(t *testing.T) {
	state := &conversation.State{LeadScore: 6}
	decision := Route(state)
	assert.Equal(t, conversation.AgentQualification, decision.NextAgent)
}

func TestRouteHotLeadMissingDetailGoesToClosingWithoutBooking(t *testing.T) {
	state := &conversation.State{LeadScore: 8}
	decision := Route(state)
	assert.Equal(t, conversation.AgentClosing, decision.NextAgent)
	assert.Equal(t, "confirm remaining details and book", decision.TaskDescription)
}

func TestRouteHotLeadWithFullDetailsBooksAppointment(t *testing.T) {
	state := &conversation.State{
		LeadScore: 9,
		ExtractedData: conversation.ExtractedData{
			Name: "Diego", Email: "diego@example.com", Budget: "$300 al mes",
		},
	}
	decision := Route(state)
	assert.Equal(t, conversation.AgentClosing, decision.NextAgent)
	assert.Equal(t, "book appointment", decision.TaskDescription)
}

func TestRouteFallbackAfterExhaustedAttempts(t *testing.T) {
	state := &conversation.State{LeadScore: 9, RoutingAttempts: 3, CurrentAgent: conversation.AgentQualification}
	decision := Route(state)
	assert.Equal(t, conversation.AgentQualification, decision.NextAgent)
	assert.Equal(t, "fallback: answer with available info", decision.TaskDescription)
}

func TestRouteEscalationNeedsAppointmentForcesClosing(t *testing.T) {
	state := &conversation.State{
		LeadScore:        2,
		NeedsEscalation:  true,
		EscalationReason: conversation.EscalationNeedsAppointment,
	}
	decision := Route(state)
	assert.Equal(t, conversation.AgentClosing, decision.NextAgent)
}

func TestRouteEscalationWrongAgentForcesDiscoveryOnlyWhenScoreLow(t *testing.T) {
	low := &conversation.State{LeadScore: 3, NeedsEscalation: true, EscalationReason: conversation.EscalationWrongAgent}
	assert.Equal(t, conversation.AgentDiscovery, Route(low).NextAgent)

	high := &conversation.State{LeadScore: 6, NeedsEscalation: true, EscalationReason: conversation.EscalationWrongAgent}
	assert.Equal(t, conversation.AgentQualification, Route(high).NextAgent, "wrong_agent at score>=5 falls through to the normal table")
}

func TestRouteEscalationNeedsQualificationForcesB(t *testing.T) {
	state := &conversation.State{LeadScore: 9, NeedsEscalation: true, EscalationReason: conversation.EscalationNeedsQualification}
	decision := Route(state)
	assert.Equal(t, conversation.AgentQualification, decision.NextAgent)
}

func TestRevisitStopsAtLimit(t *testing.T) {
	state := &conversation.State{}
	assert.True(t, Revisit(state))
	assert.True(t, Revisit(state))
	assert.True(t, Revisit(state))
	assert.False(t, Revisit(state))
	assert.Equal(t, MaxRoutingAttempts, state.RoutingAttempts)
}
