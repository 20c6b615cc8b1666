// Package openai provides a Judge adapter speaking the OpenAI
// chat-completions wire format. Any endpoint compatible with that
// format can serve as the judge model.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// Ensure Judge implements the interface.
var _ driven.Judge = (*Judge)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 120 * time.Second

	// DefaultRequestsPerSecond throttles judge calls across all
	// concurrent matching goroutines sharing this judge.
	DefaultRequestsPerSecond = 2.0
)

// Config holds configuration for the judge.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for any chat-completions compatible API.
	BaseURL string

	// Model is the judge model name (default: gpt-4o).
	Model string

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing calls (default: 2).
	RequestsPerSecond float64
}

// FromModelConfig builds a judge Config from a registry entry.
func FromModelConfig(cfg domain.ModelConfig) Config {
	return Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.Endpoint,
		Model:   cfg.ModelName,
	}
}

// Judge scores predicted edits against ground truth using an LLM over
// the OpenAI chat-completions API.
type Judge struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatCompletionMsg `json:"messages"`
	Temperature    float64             `json:"temperature,omitempty"`
	ResponseFormat *responseFormat     `json:"response_format,omitempty"`
}

// chatCompletionMsg is the chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat requests JSON-mode output.
type responseFormat struct {
	Type string `json:"type"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// verdict is the JSON object the judge is instructed to return.
type verdict struct {
	IsCorrect bool     `json:"is_correct"`
	Score     *float64 `json:"score"`
	Reasoning string   `json:"reasoning"`
}

// NewJudge creates a judge over an OpenAI-compatible endpoint.
func NewJudge(cfg Config) (*Judge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("judge: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Judge{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}, nil
}

const systemPrompt = "You are an expert editor and evaluator."

// judgePromptFormat asks for a semantic comparison that ignores line
// numbers; the matcher applies its own line-distance penalty.
const judgePromptFormat = `You are a judge evaluating the accuracy of a multimodal language model in interpreting handwritten editorial corrections in printed text.

GROUND TRUTH EDIT:
` + "```json\n%s\n```" + `

PREDICTED EDIT:
` + "```json\n%s\n```" + `

Evaluate if the predicted edit correctly captures the intention of the ground truth edit. IGNORE LINE NUMBERS COMPLETELY for this evaluation. Focus only on:

1. Edit Type Accuracy:
   - The edit type must match exactly (e.g., "punctuation", "capitalization", "insertion", etc.)
   - If types differ, the prediction is incorrect

2. Text Content Accuracy:
   - The prediction should capture the CORE change that the ground truth identifies
   - The prediction may include additional context (more words before/after the change)
   - Focus on whether the essential edit (the actual change) is correctly captured
   - For example, if ground truth shows "text" -> "text," and prediction shows "some text" -> "some text,", this is correct

An edit is considered correct ONLY if both the edit type and the text content accurately match the ground truth's intention.

Respond with a JSON object containing:
{
  "is_correct": true/false,
  "score": a number from 0.0 to 1.0 grading how well the prediction captures the ground truth edit,
  "reasoning": "Detailed explanation of your decision, addressing each criterion"
}`

// Score judges one (expected, predicted) pair. The returned score is
// the judge's semantic grade only; location penalties are applied by
// the caller.
func (j *Judge) Score(ctx context.Context, expected, predicted domain.Edit) (driven.Judgement, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return driven.Judgement{}, err
	}

	prompt, err := buildPrompt(expected, predicted)
	if err != nil {
		return driven.Judgement{}, err
	}

	content, err := j.chatCompletion(ctx, prompt)
	if err != nil {
		return driven.Judgement{}, err
	}

	raw, err := ExtractJSON(content)
	if err != nil {
		return driven.Judgement{}, fmt.Errorf("judge response: %w", err)
	}

	var v verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return driven.Judgement{}, fmt.Errorf("judge response: %w", err)
	}

	judgement := driven.Judgement{
		Correct:   v.IsCorrect,
		Reasoning: v.Reasoning,
	}
	switch {
	case v.Score != nil:
		judgement.Score = clamp01(*v.Score)
	case v.IsCorrect:
		judgement.Score = 1
	}

	logger.Debug("Judge %s scored pair %.2f (correct=%v)", j.model, judgement.Score, judgement.Correct)
	return judgement, nil
}

// buildPrompt renders the judge prompt with both edits as JSON. Line
// numbers are included for context but the prompt instructs the judge
// to ignore them.
func buildPrompt(expected, predicted domain.Edit) (string, error) {
	gt, err := json.MarshalIndent(expected, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal ground truth edit: %w", err)
	}
	pred, err := json.MarshalIndent(predicted, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal predicted edit: %w", err)
	}
	return fmt.Sprintf(judgePromptFormat, gt, pred), nil
}

// chatCompletion posts one judged comparison and returns the raw
// message content.
func (j *Judge) chatCompletion(ctx context.Context, prompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: j.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		j.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: judge endpoint returned 429", domain.ErrRateLimited)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("judge API error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("judge API error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("judge: no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// ModelName returns the judge model name.
func (j *Judge) ModelName() string {
	return j.model
}

// Ping validates the endpoint is reachable by checking /models. This
// validates the API key without running inference.
func (j *Judge) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("judge: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("judge: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("judge: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("judge: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (j *Judge) Close() error {
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
