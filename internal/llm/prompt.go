package llm

import "fmt"

// extractionSchema is the JSON schema the model's response must satisfy.
const extractionSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Canonical product name without brand, size or marketing text"},
    "brand": {"type": "string", "description": "Brand name if identifiable"},
    "category": {"type": "string", "description": "Product category, e.g. Household, Grocery, Personal Care"},
    "quantity": {"type": "number", "description": "Number of units purchased"},
    "unit": {"type": "string", "description": "Unit of measure for the quantity"},
    "package_size": {"type": "number", "description": "Size of one package"},
    "package_unit": {"type": "string", "description": "Unit of the package size, e.g. oz, roll, count"},
    "price": {"type": "number", "description": "Line price in dollars"},
    "confidence": {"type": "number", "description": "Your confidence in this interpretation, 0.0 to 1.0"}
  },
  "required": ["name", "quantity", "confidence"]
}`

// systemPrompt pins the model to schema-only output.
const systemPrompt = "You are a purchase record normalizer. Respond only with a JSON object matching the provided schema, with no surrounding text."

// buildExtractionPrompt creates the fixed prompt for normalizing one raw
// purchase line.
func buildExtractionPrompt(rawText, retailer string) string {
	return fmt.Sprintf(`Normalize this raw purchase record line from %s into a structured product interpretation.

Raw line:
%s

Guidelines:
- The canonical name is the product itself, stripped of brand, size and marketing noise ("BNTY PT 12=24 SELECT" -> "Paper Towels")
- Expand common retailer abbreviations (KS -> Kirkland Signature as brand, PT -> Paper Towels)
- Report the package size and unit separately from the purchase quantity
- If a field cannot be determined, omit it rather than guessing
- Set confidence below 0.5 when the line is too ambiguous to interpret reliably

Respond with a single JSON object matching this schema:
%s`, retailer, rawText, extractionSchema)
}
