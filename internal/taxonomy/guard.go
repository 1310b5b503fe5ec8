package taxonomy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/lattice/pkg/models"
)

// ErrInvalidCategory is returned when a candidate names a category that
// is not in the catalog. It is the one hard validation failure; every
// other metadata problem degrades to filtering.
var ErrInvalidCategory = errors.New("invalid category")

// Guard validates and sanitizes content metadata against a fixed catalog.
type Guard struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewGuard creates a guard over the given catalog.
func NewGuard(catalog Catalog, logger zerolog.Logger) *Guard {
	return &Guard{catalog: catalog, logger: logger}
}

// Catalog returns the guard's catalog.
func (g *Guard) Catalog() Catalog {
	return g.catalog
}

// ResolveCategory returns the owning category for a subcategory. If the
// input is itself a valid category it is returned unchanged. The second
// return value is false when the name is known to nothing.
func (g *Guard) ResolveCategory(subcategoryOrCategory string) (string, bool) {
	for category, subcats := range g.catalog.Subcategories {
		for _, sub := range subcats {
			if sub == subcategoryOrCategory {
				return category, true
			}
		}
	}
	if g.catalog.HasCategory(subcategoryOrCategory) {
		return subcategoryOrCategory, true
	}
	return "", false
}

// Dropped records which metadata entries validation filtered out. It is
// informational only and never a reason to reject content.
type Dropped struct {
	Subcategories []string
	Tags          []string
}

// ValidateAndClean checks the candidate's category against the catalog
// and filters its subcategories and tags down to the allowed sets,
// preserving order. Content left with zero subcategories is legal; the
// ranking engine scores it as cold/neutral.
func (g *Guard) ValidateAndClean(item *models.ContentItem) (Dropped, error) {
	var dropped Dropped

	if item.Category == "" || !g.catalog.HasCategory(item.Category) {
		g.logger.Warn().Str("category", item.Category).Msg("rejecting invalid category")
		return dropped, fmt.Errorf("%w: %q", ErrInvalidCategory, item.Category)
	}

	allowed := make(map[string]bool)
	for _, sub := range g.catalog.Subcategories[item.Category] {
		allowed[sub] = true
	}

	var validSubcats models.StringList
	for _, sub := range item.Subcategories {
		if allowed[sub] {
			validSubcats = append(validSubcats, sub)
		} else {
			dropped.Subcategories = append(dropped.Subcategories, sub)
		}
	}

	validTags := make(map[string]bool)
	for _, tag := range g.catalog.ValidTags {
		validTags[tag] = true
	}
	var keptTags models.StringList
	for _, tag := range item.Tags {
		if validTags[tag] {
			keptTags = append(keptTags, tag)
		} else {
			dropped.Tags = append(dropped.Tags, tag)
		}
	}

	if len(dropped.Subcategories) > 0 {
		g.logger.Warn().
			Str("content_id", item.ID).
			Str("filtered", strings.Join(dropped.Subcategories, ", ")).
			Msg("filtered invalid subcategories")
	}
	if len(dropped.Tags) > 0 {
		g.logger.Warn().
			Str("content_id", item.ID).
			Str("filtered", strings.Join(dropped.Tags, ", ")).
			Msg("filtered invalid tags")
	}

	item.Subcategories = validSubcats
	item.Tags = keptTags
	return dropped, nil
}
