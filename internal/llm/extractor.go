package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/config"
)

// Extractor wraps a provider client with rate limiting and retry. Callers
// treat any error it returns as a soft failure; the cascade converts those
// into low-confidence fallback candidates.
type Extractor struct {
	client      Client
	rateLimiter *rateLimiter
	logger      *slog.Logger
	retryOpts   common.RetryOptions
}

// NewExtractor creates an extractor for the configured provider.
func NewExtractor(cfg config.LLM, logger *slog.Logger) (*Extractor, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Extractor{
		client:      client,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		retryOpts:   retryOpts,
	}, nil
}

// NewExtractorWithClient creates an extractor around an existing client.
// Used by tests to inject a mock provider.
func NewExtractorWithClient(client Client, logger *slog.Logger) *Extractor {
	return &Extractor{
		client:      client,
		rateLimiter: newRateLimiter(0),
		logger:      logger,
		retryOpts:   common.RetryOptions{MaxAttempts: 1},
	}
}

// Extract normalizes one raw purchase line through the model.
func (e *Extractor) Extract(ctx context.Context, rawText, retailer string) (ExtractionResponse, error) {
	if err := e.rateLimiter.wait(ctx); err != nil {
		return ExtractionResponse{}, fmt.Errorf("rate limit error: %w", err)
	}

	prompt := buildExtractionPrompt(rawText, retailer)

	var response ExtractionResponse

	err := common.WithRetry(ctx, func() error {
		resp, err := e.client.Extract(ctx, prompt)
		if err != nil {
			e.logger.Warn("extraction attempt failed",
				"retailer", retailer,
				"error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}
		response = resp
		return nil
	}, e.retryOpts)

	if err != nil {
		return ExtractionResponse{}, fmt.Errorf("extraction failed: %w", err)
	}

	return response, nil
}

// Close stops the rate limiter's refill goroutine.
func (e *Extractor) Close() error {
	e.rateLimiter.Close()
	return nil
}
