package ai

import (
	"fmt"
	"os"
	"strings"
)

// PromptTemplate is a text template whose {{name}} placeholders are
// substituted at render time.
type PromptTemplate struct {
	text string
}

// NewPromptTemplate wraps raw template text
func NewPromptTemplate(text string) *PromptTemplate {
	return &PromptTemplate{text: text}
}

// LoadPromptTemplate reads a template from disk
func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	return &PromptTemplate{text: string(data)}, nil
}

// Render replaces every {{key}} occurrence with its value. Placeholders
// with no corresponding value are left verbatim, not treated as errors.
func (t *PromptTemplate) Render(vars map[string]string) string {
	prompt := t.text
	for key, value := range vars {
		prompt = strings.ReplaceAll(prompt, "{{"+key+"}}", value)
	}
	return prompt
}
