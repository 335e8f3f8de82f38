package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/infrastructure/prompts"

	"github.com/sashabaranov/go-openai"
)

var _ output.CandidateReviewer = (*OpenRouterAdapter)(nil)

type OpenRouterAdapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	var requestData map[string]any
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &requestData)
	}
	t.logger.Debug("HTTP Request",
		"method", req.Method,
		"url", req.URL.String(),
		"model", requestData["model"],
	)

	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		t.logger.Debug("HTTP Response",
			"status", resp.Status,
			"statusCode", resp.StatusCode,
		)
	}
	return resp, err
}

func NewOpenRouterAdapter(cfg Config) *OpenRouterAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{
				base:   http.DefaultTransport,
				logger: cfg.Logger,
			},
		}
	}

	return &OpenRouterAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Prefer asks the model which option is the genuine field value and returns
// its 0-based index.
func (a *OpenRouterAdapter) Prefer(ctx context.Context, field string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options to review")
	}

	prompt, err := prompts.GenerateReviewPrompt(prompts.ReviewTemplate, field, options)
	if err != nil {
		return 0, fmt.Errorf("review prompt: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.ReviewerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return 0, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no choices in response")
	}

	answer := resp.Choices[0].Message.Content
	idx, err := parseChoice(answer, len(options))
	if err != nil {
		return 0, err
	}
	if a.logger != nil {
		a.logger.Debug("Reviewer preferred option", "field", field, "index", idx, "answer", answer)
	}
	return idx, nil
}

var firstNumber = regexp.MustCompile(`\d+`)

// parseChoice reads the first number of a 1-based answer.
func parseChoice(answer string, n int) (int, error) {
	m := firstNumber.FindString(answer)
	if m == "" {
		return 0, fmt.Errorf("no option number in answer %q", answer)
	}
	choice, err := strconv.Atoi(m)
	if err != nil || choice < 1 || choice > n {
		return 0, fmt.Errorf("option %q out of range 1..%d", m, n)
	}
	return choice - 1, nil
}
