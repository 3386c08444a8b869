package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// Ensure RateLimitedLLM implements the interface.
var _ driven.LLMService = (*RateLimitedLLM)(nil)

// RateLimitedLLM wraps an LLM service with a token bucket limiter so
// bursts of chat traffic stay under the provider's request quota.
// Chat blocks until a token is available or the context is cancelled.
type RateLimitedLLM struct {
	inner   driven.LLMService
	limiter *rate.Limiter
}

// NewRateLimitedLLM wraps svc, allowing requestsPerMinute completions
// with a burst of one.
func NewRateLimitedLLM(svc driven.LLMService, requestsPerMinute int) *RateLimitedLLM {
	return &RateLimitedLLM{
		inner:   svc,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

// Chat waits for limiter clearance and delegates to the wrapped service.
func (r *RateLimitedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return r.inner.Chat(ctx, messages, opts)
}

// ModelName returns the wrapped service's model name.
func (r *RateLimitedLLM) ModelName() string {
	return r.inner.ModelName()
}

// Ping delegates to the wrapped service without consuming a token.
func (r *RateLimitedLLM) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (r *RateLimitedLLM) Close() error {
	return r.inner.Close()
}
