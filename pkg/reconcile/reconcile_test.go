package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/crmclient"
)

type fakeCRM struct {
	contact         crmclient.Contact
	contactErr      error
	history         []crmclient.CRMMessage
	historyErr      error
	listMessagesArg string
}

func (f *fakeCRM) GetContact(ctx context.Context, contactID string) (crmclient.Contact, error) {
	return f.contact, f.contactErr
}

func (f *fakeCRM) ListMessages(ctx context.Context, conversationID string, limit int) ([]crmclient.CRMMessage, error) {
	f.listMessagesArg = conversationID
	return f.history, f.historyErr
}

func TestReconcileFetchesHistoryWhenCheckpointEmpty(t *testing.T) {
	crm := &fakeCRM{
		contact: crmclient.Contact{ID: "contact-1", Name: "Diego"},
		history: []crmclient.CRMMessage{
			{ID: "m1", Body: "Opportunity created", Direction: crmclient.DirectionOutbound, Timestamp: time.Unix(1, 0)},
			{ID: "m2", Body: "hola, tengo un restaurante", Direction: crmclient.DirectionInbound, Timestamp: time.Unix(2, 0)},
			{ID: "m3", Body: "¡Hola! Cuéntame más.", Direction: crmclient.DirectionOutbound, Timestamp: time.Unix(3, 0)},
		},
	}

	state := &conversation.State{ThreadID: "conv-1"}
	inbound := conversation.Message{
		Role:      conversation.RoleCustomer,
		Content:   "quiero agendar una cita",
		Timestamp: time.Unix(4, 0),
		Origin:    conversation.OriginWebhook,
	}

	result, err := Reconcile(context.Background(), crm, state, "contact-1", "conv-1", inbound)
	require.NoError(t, err)

	assert.Equal(t, "conv-1", crm.listMessagesArg)
	assert.Equal(t, "Diego", result.Contact.Name)

	// The "Opportunity created" system note is dropped; the two real
	// history messages plus the inbound message remain, in order.
	require.Len(t, result.Messages, 3)
	assert.Equal(t, "hola, tengo un restaurante", result.Messages[0].Content)
	assert.Equal(t, conversation.RoleCustomer, result.Messages[0].Role)
	assert.Equal(t, "¡Hola! Cuéntame más.", result.Messages[1].Content)
	assert.Equal(t, conversation.RoleAgent, result.Messages[1].Role)
	assert.Equal(t, "quiero agendar una cita", result.Messages[2].Content)
}

func TestReconcileSkipsHistoryWhenCheckpointNonEmpty(t *testing.T) {
	crm := &fakeCRM{contact: crmclient.Contact{ID: "contact-1"}}

	state := &conversation.State{
		ThreadID: "conv-1",
		Messages: []conversation.Message{
			{Role: conversation.RoleCustomer, Content: "hola", Timestamp: time.Unix(1, 0)},
		},
	}
	inbound := conversation.Message{Role: conversation.RoleCustomer, Content: "tengo un negocio", Timestamp: time.Unix(2, 0)}

	result, err := Reconcile(context.Background(), crm, state, "contact-1", "conv-1", inbound)
	require.NoError(t, err)

	assert.Empty(t, crm.listMessagesArg)
	require.Len(t, result.Messages, 2)
}

func TestReconcileDedupesRepeatedMessage(t *testing.T) {
	crm := &fakeCRM{}
	ts := time.Unix(5, 0)
	state := &conversation.State{
		ThreadID: "conv-1",
		Messages: []conversation.Message{
			{Role: conversation.RoleCustomer, Content: "Hola, tengo un restaurante", Timestamp: ts},
		},
	}
	// The webhook redelivers the same message the checkpoint already holds.
	inbound := conversation.Message{Role: conversation.RoleCustomer, Content: "hola, tengo un restaurante  ", Timestamp: ts}

	result, err := Reconcile(context.Background(), crm, state, "", "", inbound)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
}

func TestReconcileKeepsAppendOrderWithoutTimestamps(t *testing.T) {
	crm := &fakeCRM{}
	state := &conversation.State{
		ThreadID: "conv-1",
		Messages: []conversation.Message{
			{Role: conversation.RoleCustomer, Content: "primero"},
			{Role: conversation.RoleAgent, AgentName: conversation.AgentDiscovery, Content: "segundo"},
		},
	}
	inbound := conversation.Message{Role: conversation.RoleCustomer, Content: "tercero"}

	result, err := Reconcile(context.Background(), crm, state, "", "", inbound)
	require.NoError(t, err)
	require.Len(t, result.Messages, 3)
	assert.Equal(t, "primero", result.Messages[0].Content)
	assert.Equal(t, "segundo", result.Messages[1].Content)
	assert.Equal(t, "tercero", result.Messages[2].Content)
}
