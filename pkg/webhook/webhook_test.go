package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/graph"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeHandler struct {
	in    graph.Inbound
	state *conversation.State
	err   error
	calls int
}

func (f *fakeHandler) Handle(ctx context.Context, in graph.Inbound) (*conversation.State, error) {
	f.calls++
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func newTestServer(handler Handler, db Pinger) (*gin.Engine, *Server) {
	engine := gin.New()
	s := New(handler, db)
	s.Register(engine)
	return engine, s
}

func TestHandleMessageRoutesPayloadIntoGraphInbound(t *testing.T) {
	handler := &fakeHandler{state: &conversation.State{ThreadID: "contact-1:conv-1", LeadScore: 3}}
	engine, _ := newTestServer(handler, nil)

	body, _ := json.Marshal(map[string]string{
		"contactId":      "contact-1",
		"conversationId": "conv-1",
		"locationId":     "loc-1",
		"body":           "hola, quiero info",
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/crm/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, handler.calls)
	assert.Equal(t, "contact-1", handler.in.ContactID)
	assert.Equal(t, "conv-1", handler.in.ConversationID)
	assert.Equal(t, conversation.RoleCustomer, handler.in.Message.Role)
	assert.Equal(t, "hola, quiero info", handler.in.Message.Content)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "contact-1:conv-1", resp["thread_id"])
}

func TestHandleMessageRejectsMissingRequiredFields(t *testing.T) {
	handler := &fakeHandler{}
	engine, _ := newTestServer(handler, nil)

	body, _ := json.Marshal(map[string]string{"contactId": "contact-1"})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/crm/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, handler.calls)
}

func TestHandleMessageReturns500OnGraphError(t *testing.T) {
	handler := &fakeHandler{err: errors.New("checkpoint store unavailable")}
	engine, _ := newTestServer(handler, nil)

	body, _ := json.Marshal(map[string]string{"contactId": "contact-1", "body": "hola"})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/crm/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthReportsHealthyWithNoDependency(t *testing.T) {
	engine, _ := newTestServer(&fakeHandler{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReportsUnhealthyWhenPingFails(t *testing.T) {
	engine, _ := newTestServer(&fakeHandler{}, &fakePinger{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthReportsHealthyWhenPingSucceeds(t *testing.T) {
	engine, _ := newTestServer(&fakeHandler{}, &fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
