package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads configPath as YAML, expands ${VAR} references against the
// process environment, merges it over the built-in defaults, loads a .env
// file from the working directory if present, fills in secrets from the
// environment, and validates the result. A configPath that does not exist
// is an error wrapping ErrConfigNotFound.
//
// configPath may be empty, in which case only defaults plus environment
// secrets are used; the defaults leave crm.base_url and
// calendar.calendar_id empty, so such a load fails validation.
func Load(configPath string) (*Config, error) {
	// Loading .env is best-effort: a production deployment supplies real
	// environment variables and won't have this file at all.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if configPath != "" {
		if err := mergeYAMLFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	loadSecrets(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	if err := mergo.Merge(cfg, &overlay, mergo.WithOverride); err != nil {
		return NewLoadError(path, err)
	}
	return nil
}

// loadSecrets fills in the fields that must never come from YAML.
func loadSecrets(cfg *Config) {
	cfg.CRM.Token = os.Getenv("CRM_API_TOKEN")
	cfg.Generator.APIKey = os.Getenv("GENERATOR_API_KEY")
}

func validate(cfg *Config) error {
	if cfg.CRM.BaseURL == "" {
		return NewValidationError("crm", "base_url", ErrMissingRequiredField)
	}
	if cfg.CRM.Token == "" {
		return NewValidationError("crm", "CRM_API_TOKEN", ErrMissingRequiredField)
	}
	if cfg.Generator.APIKey == "" {
		return NewValidationError("generator", "GENERATOR_API_KEY", ErrMissingRequiredField)
	}
	if cfg.Calendar.CalendarID == "" {
		return NewValidationError("calendar", "calendar_id", ErrMissingRequiredField)
	}
	if cfg.Server.ListenAddr == "" {
		return NewValidationError("server", "listen_addr", ErrMissingRequiredField)
	}
	return nil
}
