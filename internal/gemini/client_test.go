package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psybot/psybot-api/internal/config"
)

func testConfig() config.GeminiConfig {
	return config.GeminiConfig{
		APIKey:          "test-key",
		Model:           "gemini-1.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 256,
	}
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewClient(testConfig()).IsConfigured())

	missingKey := testConfig()
	missingKey.APIKey = ""
	assert.False(t, NewClient(missingKey).IsConfigured())

	missingModel := testConfig()
	missingModel.Model = ""
	assert.False(t, NewClient(missingModel).IsConfigured())
}

func TestGenerateNotConfigured(t *testing.T) {
	client := NewClient(config.GeminiConfig{})
	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"clinical analysis text"}]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig()).WithBaseURL(srv.URL)
	text, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "clinical analysis text", text)
}

func TestGenerateServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testConfig()).WithBaseURL(srv.URL)
	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenerateBadRequestIsGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid prompt"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig()).WithBaseURL(srv.URL)
	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig()).WithBaseURL(srv.URL)
	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrGeneration)
}
