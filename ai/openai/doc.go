// Package openai implements ai.Embedder against OpenAI-compatible
// embedding APIs via langchaingo.
package openai
