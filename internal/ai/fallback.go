package ai

import (
	"fmt"
	"time"

	"github.com/example/lattice/pkg/models"
)

// MockPromptVersion tags fallback units so they are distinguishable
// from real generations in the store.
const (
	MockPromptVersion = "v2.1"
	MockModelVersion  = "mock-fallback"
)

// MockUnit synthesizes a deterministic substitute unit when the
// generation backend reports quota exhaustion. Same shape as a real
// unit, clearly tagged as synthetic.
func MockUnit(category, subcategory, difficulty, topic string, now time.Time) *Candidate {
	body := fmt.Sprintf(
		"# %s\n\n"+
			"This is a high-fidelity mock unit generated because the generation quota has been reached. \n\n"+
			"### Core Principle\nIn %s, maintaining balance and structure is key. When working at an %s level, "+
			"one must consider scaling, reliability, and the underlying performance of the system.\n\n"+
			"### Key Takeaway\nLattice will automatically resume real AI generation as soon as the daily quota resets.",
		topic, subcategory, difficulty,
	)
	return &Candidate{
		Category:            category,
		Subcategories:       []string{subcategory, "mock-layer"},
		Tags:                []string{subcategory, "refinement"},
		Difficulty:          difficulty,
		Type:                string(models.TypeConcept),
		Body:                body,
		ExpectedReadTimeSec: 180,
		AIMetadata: models.AIMetadata{
			PromptVersion: MockPromptVersion,
			ModelVersion:  MockModelVersion,
			Timestamp:     now.UTC().Format(time.RFC3339),
		},
	}
}
