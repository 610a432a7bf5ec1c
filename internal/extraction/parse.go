package extraction

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/reformai/receipt-reform/internal/schema"
)

// parseCandidate turns raw model output into a schema-conformant candidate.
// Providers occasionally wrap JSON in markdown fences or prose despite being
// asked not to, so the first balanced-looking object is sliced out before
// validation. Field values stay untrusted; only structure is checked here.
func parseCandidate(text string) (*Candidate, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return nil, errors.New("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return nil, errors.New("unterminated JSON object in response")
	}
	raw := []byte(text[start : end+1])

	if err := schema.Validate(raw); err != nil {
		return nil, err
	}

	var candidate Candidate
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}
