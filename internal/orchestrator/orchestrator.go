package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/lattice/internal/ai"
	"github.com/example/lattice/internal/database"
	"github.com/example/lattice/internal/taxonomy"
	"github.com/example/lattice/pkg/models"
)

// DefaultReferenceUser is the user whose demand signals steer scheduled
// generation until per-user scheduling exists.
const DefaultReferenceUser = "demo_user_1"

// promptVersion tags content produced by the current template
const promptVersion = "v2.1"

// TextGenerator is the opaque text-completion capability. It must
// surface quota exhaustion as ai.ErrQuotaExceeded.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// BatchRequest describes one generation batch
type BatchRequest struct {
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory,omitempty"`
	Count       int               `json:"count"`
	Difficulty  models.Difficulty `json:"difficulty"`
}

// Orchestrator drives demand-based content creation: it reads demand
// signals, generates candidate units, validates them, and persists the
// survivors. One unit's failure never blocks the rest of a batch.
type Orchestrator struct {
	content       *database.ContentRepository
	interests     *database.InterestRepository
	guard         *taxonomy.Guard
	generator     TextGenerator
	template      *ai.PromptTemplate
	validate      *validator.Validate
	modelName     string
	referenceUser string
	logger        zerolog.Logger
	now           func() time.Time
}

// New creates an orchestrator
func New(guard *taxonomy.Guard, generator TextGenerator, template *ai.PromptTemplate, modelName, referenceUser string, logger zerolog.Logger) *Orchestrator {
	if referenceUser == "" {
		referenceUser = DefaultReferenceUser
	}
	return &Orchestrator{
		content:       database.NewContentRepository(),
		interests:     database.NewInterestRepository(),
		guard:         guard,
		generator:     generator,
		template:      template,
		validate:      validator.New(),
		modelName:     modelName,
		referenceUser: referenceUser,
		logger:        logger,
		now:           time.Now,
	}
}

// RunTargeted performs one demand-resolution pass: read the strongest
// demand signal, derive a generation target from it, and run a batch of
// one. With no signal at all it bootstraps default intro content.
func (o *Orchestrator) RunTargeted(ctx context.Context) ([]models.ContentItem, error) {
	top, err := o.interests.TopForUser(o.referenceUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read demand signals: %w", err)
	}

	catalog := o.guard.Catalog()
	if top == nil {
		o.logger.Info().Msg("no demand signals found, generating default intro content")
		category := catalog.DefaultCategory()
		return o.GenerateBatch(ctx, BatchRequest{
			Category:    category,
			Subcategory: firstSubcategory(catalog, category),
			Count:       1,
			Difficulty:  models.DifficultyBeginner,
		})
	}

	o.logger.Info().
		Str("subcategory", top.Subcategory).
		Float64("weight", top.Weight).
		Msg("top demand signal detected")

	category, ok := o.guard.ResolveCategory(top.Subcategory)
	if !ok {
		category = catalog.DefaultCategory()
	}

	difficulty := models.DifficultyBeginner
	switch {
	case top.Weight > 10:
		difficulty = models.DifficultyAdvanced
	case top.Weight > 5:
		difficulty = models.DifficultyIntermediate
	}

	return o.GenerateBatch(ctx, BatchRequest{
		Category:    category,
		Subcategory: top.Subcategory,
		Count:       1,
		Difficulty:  difficulty,
	})
}

// GenerateBatch generates, validates, and persists a batch of content
// units. It returns the units that made it into the store; per-unit
// failures are logged and skipped.
func (o *Orchestrator) GenerateBatch(ctx context.Context, req BatchRequest) ([]models.ContentItem, error) {
	category := req.Category
	subcategory := req.Subcategory
	if subcategory == "" {
		subcategory = req.Category
	}
	// Auto-fix if the caller passed a subcategory as the category.
	if resolved, ok := o.guard.ResolveCategory(category); ok && resolved != category {
		category = resolved
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if !req.Difficulty.Valid() {
		req.Difficulty = models.DifficultyIntermediate
	}

	o.logger.Info().
		Str("category", category).
		Str("subcategory", subcategory).
		Str("difficulty", string(req.Difficulty)).
		Int("count", req.Count).
		Msg("starting generation batch")

	var persisted []models.ContentItem
	for i := 0; i < req.Count; i++ {
		item, err := o.generateUnit(ctx, category, subcategory, req.Difficulty)
		if err != nil {
			o.logger.Error().Err(err).Int("unit", i+1).Msg("failed to generate unit")
			continue
		}
		persisted = append(persisted, *item)
		o.logger.Info().Str("content_id", item.ID).Str("category", item.Category).Msg("generated and saved unit")
	}
	return persisted, nil
}

func (o *Orchestrator) generateUnit(ctx context.Context, category, subcategory string, difficulty models.Difficulty) (*models.ContentItem, error) {
	topic := fmt.Sprintf("A key architectural concept in %s for a %s level engineer", subcategory, difficulty)

	prompt := o.template.Render(map[string]string{
		"category":      category,
		"subcategory":   subcategory,
		"difficulty":    string(difficulty),
		"type":          string(models.TypeConcept),
		"topic":         topic,
		"model_name":    o.modelName,
		"iso_timestamp": o.now().UTC().Format(time.RFC3339),
	})

	var candidate *ai.Candidate
	text, err := o.generator.GenerateText(ctx, prompt)
	switch {
	case errors.Is(err, ai.ErrQuotaExceeded):
		o.logger.Warn().Msg("quota exceeded, activating mock fallback")
		candidate = ai.MockUnit(category, subcategory, string(difficulty), topic, o.now())
	case err != nil:
		return nil, fmt.Errorf("generation call failed: %w", err)
	default:
		candidate, err = ai.ParseCandidate(text)
		if err != nil {
			return nil, err
		}
	}

	if err := o.validate.Struct(candidate); err != nil {
		return nil, fmt.Errorf("candidate failed schema validation: %w", err)
	}

	item := o.candidateToItem(candidate, category, difficulty)
	if _, err := o.guard.ValidateAndClean(item); err != nil {
		return nil, err
	}
	if err := o.content.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// candidateToItem converts a parsed candidate to a store item, forcing
// the fields the orchestrator owns regardless of what the model said.
func (o *Orchestrator) candidateToItem(candidate *ai.Candidate, category string, difficulty models.Difficulty) *models.ContentItem {
	contentType := models.ContentType(candidate.Type)
	if candidate.Type == "" {
		contentType = models.TypeConcept
	}
	metadata := candidate.AIMetadata
	if metadata.ModelVersion == "" {
		metadata.ModelVersion = o.modelName
	}
	if metadata.PromptVersion == "" {
		metadata.PromptVersion = promptVersion
	}
	if metadata.Timestamp == "" {
		metadata.Timestamp = o.now().UTC().Format(time.RFC3339)
	}
	return &models.ContentItem{
		ID:                  uuid.NewString(),
		Category:            category,
		Subcategories:       candidate.Subcategories,
		Tags:                candidate.Tags,
		Difficulty:          difficulty,
		Type:                contentType,
		Body:                candidate.Body,
		Status:              models.StatusActive,
		ExpectedReadTimeSec: candidate.ExpectedReadTimeSec,
		AIMetadata:          metadata,
	}
}

func firstSubcategory(catalog taxonomy.Catalog, category string) string {
	subs := catalog.Subcategories[category]
	if len(subs) == 0 {
		return category
	}
	return subs[0]
}
