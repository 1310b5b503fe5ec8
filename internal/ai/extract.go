package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/lattice/pkg/models"
)

// ErrGenerationParse signals that the model's output could not be
// parsed into a content unit. It drops the single unit, never the batch.
var ErrGenerationParse = errors.New("failed to parse generated JSON")

// Candidate is the shape a generated (or fallback) content unit must
// unmarshal into before it may enter validation. Explicit fields rather
// than a free map, so malformed output fails deterministically.
type Candidate struct {
	Category            string            `json:"category"`
	Subcategories       []string          `json:"subcategories"`
	Tags                []string          `json:"tags"`
	Difficulty          string            `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Type                string            `json:"type" validate:"omitempty,oneof=concept example project news fun-fact"`
	Body                string            `json:"body" validate:"required"`
	ExpectedReadTimeSec int               `json:"expectedReadTimeSec" validate:"gte=0"`
	AIMetadata          models.AIMetadata `json:"aiMetadata"`
}

var fencedJSONBlock = regexp.MustCompile("(?s)```json(.*?)(?:```|$)")

// extractJSONPayload picks the most plausible JSON substring out of a
// model completion: a fenced ```json block first (closing fence
// optional), then the span from the first '{' to the last '}', then the
// raw text as a last resort.
func extractJSONPayload(text string) string {
	if match := fencedJSONBlock.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// ParseCandidate extracts and unmarshals one generated unit from free
// text. Failures carry a bounded snippet of the offending output for
// diagnostics.
func ParseCandidate(text string) (*Candidate, error) {
	payload := extractJSONPayload(text)

	var candidate Candidate
	if err := json.Unmarshal([]byte(payload), &candidate); err != nil {
		return nil, fmt.Errorf("%w (len %d, snippet %q): %v", ErrGenerationParse, len(text), snippet(text), err)
	}
	return &candidate, nil
}

func snippet(text string) string {
	const max = 150
	s := strings.ReplaceAll(text, "\n", " ")
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
