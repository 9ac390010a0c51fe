package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "leadrouter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("CRM_API_TOKEN", "test-token")
	t.Setenv("GENERATOR_API_KEY", "test-key")
}

func TestLoadWithNoYAMLFileFailsValidation(t *testing.T) {
	setRequiredSecrets(t)

	// base_url and calendar_id have no defaults, so loading with no YAML
	// at all must fail validation rather than silently booting against an
	// empty CRM.
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	setRequiredSecrets(t)
	path := writeTempYAML(t, `
crm:
  base_url: https://crm.example.com
calendar:
  calendar_id: cal-123
  location_id: loc-456
  assigned_user_id: user-789
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com", cfg.CRM.BaseURL)
	assert.Equal(t, "cal-123", cfg.Calendar.CalendarID)
	// Defaults not touched by YAML are preserved.
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "America/Mexico_City", cfg.Calendar.Timezone)
}

func TestLoadExpandsEnvVarsInYAML(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("LEADROUTER_CRM_URL", "https://sandbox.crm.example.com")
	path := writeTempYAML(t, `
crm:
  base_url: ${LEADROUTER_CRM_URL}
calendar:
  calendar_id: cal-1
  location_id: loc-1
  assigned_user_id: user-1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.crm.example.com", cfg.CRM.BaseURL)
}

func TestLoadMergesBusinessVocabularyExtension(t *testing.T) {
	setRequiredSecrets(t)
	path := writeTempYAML(t, `
crm:
  base_url: https://crm.example.com
calendar:
  calendar_id: cal-1
  location_id: loc-1
  assigned_user_id: user-1
scoring:
  business_vocabulary:
    taqueria: ["taqueria", "taquería", "taco stand"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"taqueria", "taquería", "taco stand"}, cfg.Scoring.BusinessVocabulary["taqueria"])
}

func TestLoadFailsWithoutRequiredSecrets(t *testing.T) {
	path := writeTempYAML(t, `
crm:
  base_url: https://crm.example.com
calendar:
  calendar_id: cal-1
  location_id: loc-1
  assigned_user_id: user-1
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	setRequiredSecrets(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}
