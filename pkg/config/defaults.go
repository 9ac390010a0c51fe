package config

import (
	"time"

	"github.com/lighthouse-crm/leadrouter/pkg/crmclient"
)

// defaultConfig is the built-in configuration YAML is merged over. It
// leaves crm.base_url and calendar.calendar_id empty, so a load that
// supplies neither through YAML fails validation.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		CRM: CRMConfig{
			Channel: crmclient.ChannelWhatsApp,
		},
		Calendar: CalendarConfig{
			Timezone:     "America/Mexico_City",
			MeetingType:  "virtual",
			SlotDuration: 30 * time.Minute,
		},
	}
}
