// leadrouter is the conversational lead-qualification router: it receives
// inbound CRM messages over a webhook, routes each turn through the
// reconciler, intelligence stage, supervisor, and specialist agents, and
// sends the resulting reply back through the CRM.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lighthouse-crm/leadrouter/pkg/checkpoint"
	"github.com/lighthouse-crm/leadrouter/pkg/config"
	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
	"github.com/lighthouse-crm/leadrouter/pkg/crmclient"
	"github.com/lighthouse-crm/leadrouter/pkg/generator"
	"github.com/lighthouse-crm/leadrouter/pkg/graph"
	"github.com/lighthouse-crm/leadrouter/pkg/intelligence"
	"github.com/lighthouse-crm/leadrouter/pkg/responder"
	"github.com/lighthouse-crm/leadrouter/pkg/specialist"
	"github.com/lighthouse-crm/leadrouter/pkg/webhook"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "./deploy/config/leadrouter.yaml"),
		"Path to the leadrouter YAML config file")
	flag.Parse()

	ginMode := getEnv("GIN_MODE", "release")
	gin.SetMode(ginMode)

	log.Println("Starting leadrouter")
	log.Printf("Config path: %s", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	intelligence.RegisterVocabulary(cfg.Scoring.BusinessVocabulary)

	ctx := context.Background()

	dbConfig, err := checkpoint.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load checkpoint database config: %v", err)
	}
	store, err := checkpoint.NewPostgresStore(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect checkpoint store: %v", err)
	}
	defer store.Close()
	log.Println("Connected checkpoint store and applied migrations")

	crm := crmclient.New(cfg.CRM.BaseURL, cfg.CRM.Token)
	gen := generator.NewAnthropicGenerator(cfg.Generator.APIKey)
	stage := intelligence.NewStage()

	calendarCfg := specialist.CalendarConfig{
		CalendarID:     cfg.Calendar.CalendarID,
		LocationID:     cfg.Calendar.LocationID,
		AssignedUserID: cfg.Calendar.AssignedUserID,
		Timezone:       cfg.Calendar.Timezone,
		MeetingType:    crmclient.MeetingType(cfg.Calendar.MeetingType),
		SlotDuration:   cfg.Calendar.SlotDuration,
	}

	specialists := map[conversation.AgentRole]specialist.Node{
		conversation.AgentDiscovery:     specialist.NewDiscovery(gen),
		conversation.AgentQualification: specialist.NewQualification(gen),
		conversation.AgentClosing:       specialist.NewClosing(gen, crm, calendarCfg),
	}

	respond := responder.NewResponder(crm, cfg.CRM.Channel)
	runtime := graph.New(store, crm, stage, specialists, respond)
	log.Println("Graph runtime wired")

	engine := gin.Default()
	webhook.New(runtime, store).Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: engine,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
