package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the immutable master list of valid categories, their
// subcategories, and the global tag vocabulary. It is built once at
// startup and shared read-only.
type Catalog struct {
	Categories    []string            `yaml:"categories"`
	Subcategories map[string][]string `yaml:"subcategories"`
	ValidTags     []string            `yaml:"valid_tags"`
}

// DefaultCatalog returns the v2.1 canonical master list.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: []string{"software_engineering"},
		Subcategories: map[string][]string{
			"software_engineering": {
				"backend",
				"frontend",
				"databases",
				"devops",
				"distributed_systems",
				"mobile",
				"ai_engineering",
			},
		},
		ValidTags: []string{
			"nestjs", "nodejs", "typescript", "react", "flutter", "dart",
			"postgres", "redis", "docker", "kubernetes", "aws", "gcp",
			"system_design", "microservices", "graphql", "rest_api",
		},
	}
}

// LoadCatalog reads a catalog override from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(c.Categories) == 0 {
		return Catalog{}, fmt.Errorf("catalog file %s declares no categories", path)
	}
	return c, nil
}

// HasCategory reports whether name is a known category.
func (c Catalog) HasCategory(name string) bool {
	for _, cat := range c.Categories {
		if cat == name {
			return true
		}
	}
	return false
}

// DefaultCategory returns the bootstrap category used when no demand
// signal exists yet.
func (c Catalog) DefaultCategory() string {
	if len(c.Categories) == 0 {
		return ""
	}
	return c.Categories[0]
}
