// Package config loads the process's non-secret tuning configuration from
// YAML (server address, CRM endpoint and channel, calendar defaults, extra
// business vocabulary) merged over built-in defaults, and reads secrets
// (CRM token, generator API key) from the process environment only — they
// are never accepted from YAML. Database settings are read by
// pkg/checkpoint, not here.
package config

import (
	"time"

	"github.com/lighthouse-crm/leadrouter/pkg/crmclient"
)

// Config is the fully resolved, ready-to-use process configuration.
type Config struct {
	Server    ServerConfig
	CRM       CRMConfig
	Calendar  CalendarConfig
	Scoring   ScoringConfig
	Generator GeneratorConfig
}

// GeneratorConfig holds the reply generator's API key, sourced from
// GENERATOR_API_KEY — never from YAML.
type GeneratorConfig struct {
	APIKey string `yaml:"-"`
}

// ServerConfig controls the webhook HTTP front door.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CRMConfig points the CRM client at the right API and channel. BaseURL is
// the only piece that can legitimately vary by environment in YAML; the
// auth token always comes from CRM_API_TOKEN.
type CRMConfig struct {
	BaseURL string          `yaml:"base_url"`
	Channel crmclient.Channel `yaml:"channel"`

	// Token is populated from CRM_API_TOKEN at load time, never from YAML.
	Token string `yaml:"-"`
}

// CalendarConfig carries the fixed calendar identifiers and booking
// defaults role C books against.
type CalendarConfig struct {
	CalendarID     string        `yaml:"calendar_id"`
	LocationID     string        `yaml:"location_id"`
	AssignedUserID string        `yaml:"assigned_user_id"`
	Timezone       string        `yaml:"timezone"`
	MeetingType    string        `yaml:"meeting_type"`
	SlotDuration   time.Duration `yaml:"slot_duration"`
}

// ScoringConfig carries operator-extensible additions to the deterministic
// scorer and extractor. The scoring weights themselves are fixed (they are
// load-bearing spec invariants, not a tuning knob), but the business-type
// vocabulary a regional deployment needs can differ, so it's extensible
// here and merged into pkg/intelligence's built-in vocabulary at startup.
type ScoringConfig struct {
	// BusinessVocabulary lets an operator add surface forms for a business
	// type (e.g. a regional term) without a code change. Entries are merged
	// on top of the built-in vocabulary, keyed by canonical business type.
	BusinessVocabulary map[string][]string `yaml:"business_vocabulary"`
}
