// Package gemini implements the text-generation provider client used by
// the narrative analysis gateway. The client talks to the Generative
// Language HTTP API and distinguishes an unconfigured/unreachable provider
// from a failed generation.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/psybot/psybot-api/internal/config"
	"github.com/psybot/psybot-api/pkg/circuitbreaker"
)

// Failure modes surfaced to callers.
var (
	ErrNotConfigured = errors.New("gemini: client is not configured")
	ErrUnavailable   = errors.New("gemini: provider unavailable")
	ErrGeneration    = errors.New("gemini: generation failed")
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Generator is the capability consumed by the analysis gateway. Tests
// substitute a fake; production wires *Client.
type Generator interface {
	IsConfigured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	apiKey          string
	model           string
	temperature     float64
	maxOutputTokens int
	baseURL         string
	httpClient      *http.Client
	cb              *circuitbreaker.CircuitBreaker
}

func NewClient(cfg config.GeminiConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		baseURL:         defaultBaseURL,
		httpClient:      &http.Client{Timeout: timeout},
		cb: circuitbreaker.New(circuitbreaker.Settings{
			Name:        "gemini",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// IsConfigured reports whether the full configuration surface is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.model != "" && c.maxOutputTokens > 0
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt to the provider and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var text string
	err = c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: status %d: %s", ErrGeneration, resp.StatusCode, raw)
		}

		var parsed generateResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		if parsed.Error != nil {
			return fmt.Errorf("%w: %s", ErrGeneration, parsed.Error.Message)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("%w: empty response", ErrGeneration)
		}

		text = parsed.Candidates[0].Content.Parts[0].Text
		return nil
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", err
	}

	return text, nil
}
