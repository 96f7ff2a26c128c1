// Copyright 2025 MoltSpace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// DefaultDimensions is the embedding width produced by the default model.
const DefaultDimensions = 1536

// Config holds configuration for the embedding provider.
type Config struct {
	// Host is the base URL for the OpenAI-compatible embedding API.
	// Example: "https://api.openai.com/v1"
	Host string

	// Model is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small"
	Model string

	// APIKey gates the provider: when empty the embedding stage is
	// skipped entirely rather than attempted.
	APIKey string

	// Dimensions is the expected embedding width. Default: 1536.
	Dimensions int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithDimensions sets the expected embedding width.
func WithDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dims
	}
}

// DefaultConfig returns a Config with defaults for the hosted OpenAI API.
// The APIKey is left empty, which leaves the provider disabled.
func DefaultConfig() *Config {
	return &Config{
		Host:       "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Dimensions: DefaultDimensions,
	}
}

// NewConfig creates a Config with default values and applies the provided
// options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Enabled reports whether an embedding credential is configured.
// A disabled provider is a normal condition, not an error: the ingestion
// job degrades to skipping the embedding stage.
func (c *Config) Enabled() bool {
	return c.APIKey != ""
}

// Normalize ensures the configuration is in canonical form, adding the /v1
// suffix most OpenAI-compatible APIs require when it is missing.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.Dimensions <= 0 {
		c.Dimensions = DefaultDimensions
	}
}

// Validate checks that the configuration is complete enough to construct a
// provider. It normalizes first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	return nil
}
