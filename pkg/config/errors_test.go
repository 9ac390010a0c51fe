package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorError(t *testing.T) {
	baseErr := errors.New("must be positive")
	err := NewValidationError("scoring", "engagement_threshold", baseErr)
	assert.Contains(t, err.Error(), "scoring")
	assert.Contains(t, err.Error(), "engagement_threshold")
	assert.Contains(t, err.Error(), "must be positive")
}

func TestValidationErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	err := NewValidationError("crm", "base_url", baseErr)
	assert.True(t, errors.Is(err, baseErr))
}

func TestLoadErrorError(t *testing.T) {
	err := &LoadError{File: "leadrouter.yaml", Err: errors.New("file not found")}
	assert.Contains(t, err.Error(), "leadrouter.yaml")
	assert.Contains(t, err.Error(), "file not found")
}

func TestLoadErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	err := &LoadError{File: "test.yaml", Err: baseErr}
	assert.True(t, errors.Is(err, baseErr))
}
