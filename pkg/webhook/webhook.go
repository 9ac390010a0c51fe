// Package webhook exposes the HTTP surface the CRM calls into: one endpoint
// per inbound customer message, plus a health check for the orchestrating
// platform's liveness/readiness probes.
package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/graph"
	"github.com/lighthouse-crm/leadrouter/pkg/version"
)

// Handler runs one turn of the routing graph for an inbound message.
type Handler interface {
	Handle(ctx context.Context, in graph.Inbound) (*conversation.State, error)
}

// Pinger is satisfied by the checkpoint store's underlying connection pool,
// used only to report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthTimeout bounds how long the readiness check waits on its dependency.
const healthTimeout = 5 * time.Second

// inboundMessage is the CRM webhook payload for a new customer message.
type inboundMessage struct {
	ContactID      string `json:"contactId" binding:"required"`
	ConversationID string `json:"conversationId"`
	LocationID     string `json:"locationId"`
	Body           string `json:"body" binding:"required"`
}

// Server registers routes against a gin engine.
type Server struct {
	handler Handler
	db      Pinger // nil disables the dependency check in readiness
}

// New builds a Server. db may be nil, in which case /healthz reports
// liveness only and never checks store reachability.
func New(handler Handler, db Pinger) *Server {
	return &Server{handler: handler, db: db}
}

// Register wires the webhook and health routes onto engine.
func (s *Server) Register(engine *gin.Engine) {
	engine.POST("/webhooks/crm/message", s.handleMessage)
	engine.GET("/healthz", s.handleHealth)
}

func (s *Server) handleMessage(c *gin.Context) {
	var payload inboundMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := graph.Inbound{
		ContactID:      payload.ContactID,
		ConversationID: payload.ConversationID,
		LocationID:     payload.LocationID,
		Message: conversation.Message{
			Role:      conversation.RoleCustomer,
			Content:   payload.Body,
			Timestamp: time.Now(),
			Origin:    conversation.OriginWebhook,
		},
	}

	state, err := s.handler.Handle(c.Request.Context(), in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"thread_id":  state.ThreadID,
		"lead_score": state.LeadScore,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": version.Full()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "ready",
		"version":  version.Full(),
	})
}
