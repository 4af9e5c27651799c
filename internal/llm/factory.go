package llm

import (
	"fmt"
	"strings"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/config"
)

// NewClient creates a structured-generation client based on the provided
// configuration.
func NewClient(cfg config.LLM) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownModel, cfg.Provider)
	}
}
