package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"claim-extractor/internal/infrastructure/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		n       int
		want    int
		wantErr bool
	}{
		{"bare number", "2", 2, 1, false},
		{"sentence", "Option 1 is the diagnosis.", 2, 0, false},
		{"out of range", "3", 2, 0, true},
		{"zero", "0", 2, 0, true},
		{"no number", "the first one", 2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChoice(tt.answer, tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenRouterAdapter_Prefer(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "2"}},
			},
		})
	}))
	defer server.Close()

	cfg := DefaultConfig("test-key", "test-model")
	cfg.BaseURL = server.URL
	cfg.Logger = logger.NewNop()
	adapter := NewOpenRouterAdapter(cfg)

	idx, err := adapter.Prefer(context.Background(), "diagnosisText", []string{"Fever", "Acute pharyngitis"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "2. Acute pharyngitis")
}

func TestOpenRouterAdapter_PreferNoOptions(t *testing.T) {
	adapter := NewOpenRouterAdapter(DefaultConfig("k", "m"))

	_, err := adapter.Prefer(context.Background(), "diagnosisText", nil)
	assert.Error(t, err)
}
