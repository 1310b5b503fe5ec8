package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrQuotaExceeded signals a quota or rate-limit condition from the
// generation backend. Callers substitute a fallback unit instead of
// failing the batch.
var ErrQuotaExceeded = errors.New("generation quota exceeded")

// DefaultModel is the generation model requested from the API
const DefaultModel = "gemini-2.0-flash"

const defaultAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// Gemini is a client for the Gemini generateContent REST API
type Gemini struct {
	apiKey  string
	apiBase string
	model   string
	client  *http.Client
}

// NewGemini creates a new Gemini client from the environment
func NewGemini() (*Gemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return &Gemini{
		apiKey:  apiKey,
		apiBase: defaultAPIBase,
		model:   DefaultModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Model returns the model identifier used for requests
func (g *Gemini) Model() string {
	return g.model
}

// Unconfigured is the generation capability used when no API key is
// present. Every call fails, which the orchestrator records as a
// per-unit failure.
type Unconfigured struct{}

// GenerateText always fails
func (Unconfigured) GenerateText(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("generation backend not configured")
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// GenerateText sends a prompt and returns the raw text completion.
// HTTP 429 and RESOURCE_EXHAUSTED map to ErrQuotaExceeded.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	request := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.apiBase, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: HTTP 429", ErrQuotaExceeded)
	}

	var response generateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		if response.Error.Code == http.StatusTooManyRequests || response.Error.Status == "RESOURCE_EXHAUSTED" {
			return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, response.Error.Message)
		}
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response candidates returned")
	}

	return response.Candidates[0].Content.Parts[0].Text, nil
}
