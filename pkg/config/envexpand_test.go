package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvBraceSyntax(t *testing.T) {
	t.Setenv("LEADROUTER_TEST_VAR", "hello")
	out := ExpandEnv([]byte("value: ${LEADROUTER_TEST_VAR}"))
	assert.Equal(t, "value: hello", string(out))
}

func TestExpandEnvBareSyntax(t *testing.T) {
	t.Setenv("LEADROUTER_TEST_VAR", "world")
	out := ExpandEnv([]byte("value: $LEADROUTER_TEST_VAR"))
	assert.Equal(t, "value: world", string(out))
}

func TestExpandEnvMissingVarBecomesEmpty(t *testing.T) {
	out := ExpandEnv([]byte("value: ${LEADROUTER_DOES_NOT_EXIST}"))
	assert.Equal(t, "value: ", string(out))
}

func TestExpandEnvMultipleVars(t *testing.T) {
	t.Setenv("LEADROUTER_HOST", "db.internal")
	t.Setenv("LEADROUTER_PORT", "5432")
	out := ExpandEnv([]byte("${LEADROUTER_HOST}:${LEADROUTER_PORT}"))
	assert.Equal(t, "db.internal:5432", string(out))
}
