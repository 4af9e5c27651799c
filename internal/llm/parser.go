package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/model"
)

// cleanMarkdownWrapper strips markdown code fences that models sometimes
// wrap JSON responses in despite instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}

// parseExtraction decodes the model's response content into a
// Normalization, tolerating fenced output.
func parseExtraction(content string) (model.Normalization, error) {
	content = cleanMarkdownWrapper(content)

	var result model.Normalization
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return model.Normalization{}, fmt.Errorf("%w: invalid JSON response: %v", common.ErrParseFailed, err)
	}

	if result.Name == "" {
		return model.Normalization{}, fmt.Errorf("%w: no product name in response", common.ErrParseFailed)
	}
	if result.Quantity <= 0 {
		result.Quantity = 1
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	} else if result.Confidence > 1 {
		result.Confidence = 1
	}

	return result, nil
}
