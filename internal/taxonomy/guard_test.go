package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lattice/pkg/models"
)

func testGuard() *Guard {
	return NewGuard(DefaultCatalog(), zerolog.Nop())
}

func TestResolveCategory(t *testing.T) {
	guard := testGuard()

	category, ok := guard.ResolveCategory("backend")
	require.True(t, ok)
	assert.Equal(t, "software_engineering", category)

	category, ok = guard.ResolveCategory("software_engineering")
	require.True(t, ok)
	assert.Equal(t, "software_engineering", category)

	_, ok = guard.ResolveCategory("underwater_basket_weaving")
	assert.False(t, ok)
}

func TestValidateAndCleanFiltersSubcategories(t *testing.T) {
	guard := testGuard()
	item := &models.ContentItem{
		ID:            "c1",
		Category:      "software_engineering",
		Subcategories: models.StringList{"backend", "astrology"},
		Tags:          models.StringList{"postgres", "not-a-tag"},
	}

	dropped, err := guard.ValidateAndClean(item)
	require.NoError(t, err)

	assert.Equal(t, models.StringList{"backend"}, item.Subcategories)
	assert.Equal(t, models.StringList{"postgres"}, item.Tags)
	assert.Equal(t, []string{"astrology"}, dropped.Subcategories)
	assert.Equal(t, []string{"not-a-tag"}, dropped.Tags)
}

func TestValidateAndCleanPreservesOrder(t *testing.T) {
	guard := testGuard()
	item := &models.ContentItem{
		Category:      "software_engineering",
		Subcategories: models.StringList{"devops", "bogus", "backend", "databases"},
	}

	_, err := guard.ValidateAndClean(item)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"devops", "backend", "databases"}, item.Subcategories)
}

func TestValidateAndCleanRejectsUnknownCategory(t *testing.T) {
	guard := testGuard()

	// An unrecognized category always fails, even with valid
	// subcategories and tags attached.
	item := &models.ContentItem{
		Category:      "cooking",
		Subcategories: models.StringList{"backend"},
		Tags:          models.StringList{"postgres"},
	}
	_, err := guard.ValidateAndClean(item)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = guard.ValidateAndClean(&models.ContentItem{})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestValidateAndCleanAllowsEmptyResult(t *testing.T) {
	guard := testGuard()
	item := &models.ContentItem{
		Category:      "software_engineering",
		Subcategories: models.StringList{"nonsense"},
	}

	_, err := guard.ValidateAndClean(item)
	require.NoError(t, err)
	assert.Empty(t, item.Subcategories)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	data := `
categories:
  - software_engineering
  - data_science
subcategories:
  software_engineering:
    - backend
  data_science:
    - statistics
valid_tags:
  - postgres
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.True(t, catalog.HasCategory("data_science"))
	assert.Equal(t, "software_engineering", catalog.DefaultCategory())

	guard := NewGuard(catalog, zerolog.Nop())
	category, ok := guard.ResolveCategory("statistics")
	require.True(t, ok)
	assert.Equal(t, "data_science", category)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
