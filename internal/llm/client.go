// Package llm provides clients for the structured-generation capability
// used by tier 3 of the parsing cascade.
package llm

import (
	"context"

	"github.com/pantryops/restock/internal/model"
)

// Usage reports the actual token counts of a completed call, used by the
// budget governor to record spend.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ExtractionResponse contains the model's structured interpretation of a
// raw purchase line plus the token usage of the call.
type ExtractionResponse struct {
	Result model.Normalization
	Usage  Usage
}

// Client defines the interface for structured-generation providers.
type Client interface {
	Extract(ctx context.Context, prompt string) (ExtractionResponse, error)
}
