package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "https://api.openai.com/v1", cfg.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, DefaultDimensions, cfg.Dimensions)
	assert.False(t, cfg.Enabled(), "no key means disabled")
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://localhost:11434"),
		WithModel("embeddinggemma"),
		WithAPIKey("sk-test"),
		WithDimensions(384),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host, "Validate normalizes the /v1 suffix")
	assert.Equal(t, 384, cfg.Dimensions)
	assert.True(t, cfg.Enabled())
}

func TestConfigNormalize_TrailingSlash(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:8080/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:8080/v1", cfg.Host)
}

func TestConfigValidate_MissingModel(t *testing.T) {
	cfg := NewConfig(WithModel(""))
	assert.Error(t, cfg.Validate())
}
