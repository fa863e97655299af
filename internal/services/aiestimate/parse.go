package aiestimate

import (
	"encoding/json"
	"errors"
	"strings"
)

// estimatePayload is the structured output the model is instructed to return.
type estimatePayload struct {
	FV        *float64 `json:"fv"`
	Rationale string   `json:"rationale"`
}

var errNoPayload = errors.New("response contains no parsable estimate payload")

// parseEstimate extracts the fair value and rationale from a model response.
// Models wrap JSON in prose and code fences more often than not, so parsing
// is a ladder: the whole text, then the outermost fenced code block, then the
// substring between the first '{' and the last '}'. A payload without a
// numeric fair-value field does not count as a parse.
func parseEstimate(text string) (float64, string, error) {
	for _, candidate := range []string{text, fencedBlock(text), braceSlice(text)} {
		if candidate == "" {
			continue
		}
		var payload estimatePayload
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			continue
		}
		if payload.FV == nil {
			continue
		}
		return *payload.FV, payload.Rationale, nil
	}
	return 0, "", errNoPayload
}

// fencedBlock returns the contents of the outermost ``` fence, or "".
func fencedBlock(text string) string {
	open := strings.Index(text, "```")
	if open < 0 {
		return ""
	}
	// Skip the opening fence line (which may carry a language tag).
	start := open + 3
	if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
		start += nl + 1
	}
	close := strings.LastIndex(text, "```")
	if close <= start {
		return ""
	}
	return text[start:close]
}

// braceSlice returns the substring between the first '{' and last '}', or "".
func braceSlice(text string) string {
	open := strings.IndexByte(text, '{')
	close := strings.LastIndexByte(text, '}')
	if open < 0 || close <= open {
		return ""
	}
	return text[open : close+1]
}
