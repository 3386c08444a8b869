// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/lexchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/lexchat/internal/adapters/driven/embedding/openai"
	groqllm "github.com/custodia-labs/lexchat/internal/adapters/driven/llm/groq"
	ollamallm "github.com/custodia-labs/lexchat/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Provider names accepted in configuration.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGroq   = "groq"
)

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama" (default: openai).
	Provider string

	// APIKey authenticates against hosted providers. Read from the
	// environment, never from the config file.
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// LLMConfig selects and configures the chat completion provider.
type LLMConfig struct {
	// Provider is "groq" or "ollama" (default: groq).
	Provider string

	// APIKey authenticates against hosted providers. Read from the
	// environment, never from the config file.
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the chat model name.
	Model string

	// RequestsPerMinute throttles outbound completion calls.
	// Zero disables throttling.
	RequestsPerMinute int
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity before it is handed to the index.
func CreateAndValidateEmbeddingService(cfg EmbeddingConfig) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates
// connectivity before the pipeline accepts traffic.
func CreateAndValidateLLMService(cfg LLMConfig) (driven.LLMService, error) {
	svc, err := CreateLLMService(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service
// based on configuration.
func CreateEmbeddingService(cfg EmbeddingConfig) (driven.EmbeddingService, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil

	case ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on
// configuration. The returned service is rate limited when
// RequestsPerMinute is set.
func CreateLLMService(cfg LLMConfig) (driven.LLMService, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderGroq
	}

	var (
		svc driven.LLMService
		err error
	)
	switch provider {
	case ProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	case ProviderGroq:
		svc, err = groqllm.NewLLMService(groqllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	if cfg.RequestsPerMinute > 0 {
		svc = NewRateLimitedLLM(svc, cfg.RequestsPerMinute)
	}
	return svc, nil
}
