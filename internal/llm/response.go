package llm

import (
	"encoding/json"
	"strings"
)

// Extraction is the structured result of an LLM order-extraction call.
type Extraction struct {
	Customer string  `json:"customer"`
	Amount   float64 `json:"amount"`
	Product  string  `json:"product"`
}

// DecodeChoice normalizes a mapping response: surrounding whitespace and
// quotes are stripped, and the "null" sentinel becomes "".
func DecodeChoice(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// DecodeExtraction parses an extraction response permissively: it accepts the
// "null" sentinel, tolerates single-quote JSON, and digs an embedded {...}
// block out of surrounding prose. The result is rejected (ok=false) when
// required fields are missing or the amount is not positive.
func DecodeExtraction(raw string) (*Extraction, bool) {
	content := strings.TrimSpace(raw)
	if strings.EqualFold(strings.Trim(content, `"`), "null") {
		return nil, false
	}

	content = strings.ReplaceAll(content, "'", `"`)
	if !strings.HasPrefix(content, "{") {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start == -1 || end == -1 || end <= start {
			return nil, false
		}
		content = content[start : end+1]
	}

	var ext Extraction
	if err := json.Unmarshal([]byte(content), &ext); err != nil {
		return nil, false
	}

	ext.Customer = strings.TrimSpace(ext.Customer)
	ext.Product = strings.TrimSpace(ext.Product)
	if ext.Customer == "" || ext.Product == "" || ext.Amount <= 0 {
		return nil, false
	}
	return &ext, true
}
