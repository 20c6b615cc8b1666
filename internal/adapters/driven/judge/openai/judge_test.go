package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
)

func testEdits() (expected, predicted domain.Edit) {
	expected = domain.Edit{
		Type:          domain.EditReplacement,
		OriginalText:  "teh",
		CorrectedText: "the",
		LineNumber:    5,
	}
	predicted = domain.Edit{
		Type:          domain.EditReplacement,
		OriginalText:  "in teh house",
		CorrectedText: "in the house",
		LineNumber:    5,
	}
	return expected, predicted
}

// chatServer returns an httptest server that replies to chat
// completions with the given message content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "judge-model", req["model"])

		fmt.Fprintf(w, `{"choices": [{"message": {"content": %s}}]}`, mustQuote(content))
	}))
}

func mustQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestJudge(t *testing.T, baseURL string) *Judge {
	t.Helper()
	judge, err := NewJudge(Config{
		APIKey:            "sk-test",
		BaseURL:           baseURL,
		Model:             "judge-model",
		RequestsPerSecond: 10000, // no throttling in tests
	})
	require.NoError(t, err)
	return judge
}

// TestScore tests a fractional verdict end to end.
func TestScore(t *testing.T) {
	server := chatServer(t, `{"is_correct": true, "score": 0.9, "reasoning": "captures the core change"}`)
	defer server.Close()

	judge := newTestJudge(t, server.URL)
	expected, predicted := testEdits()

	judgement, err := judge.Score(context.Background(), expected, predicted)
	require.NoError(t, err)
	assert.True(t, judgement.Correct)
	assert.Equal(t, 0.9, judgement.Score)
	assert.Equal(t, "captures the core change", judgement.Reasoning)
}

// TestScore_FencedResponse tests JSON wrapped in a code fence.
func TestScore_FencedResponse(t *testing.T) {
	content := "Here is my evaluation:\n```json\n{\"is_correct\": false, \"score\": 0.2, \"reasoning\": \"wrong type\"}\n```"
	server := chatServer(t, content)
	defer server.Close()

	judge := newTestJudge(t, server.URL)
	expected, predicted := testEdits()

	judgement, err := judge.Score(context.Background(), expected, predicted)
	require.NoError(t, err)
	assert.False(t, judgement.Correct)
	assert.Equal(t, 0.2, judgement.Score)
}

// TestScore_BinaryFallback tests verdicts without a score field.
func TestScore_BinaryFallback(t *testing.T) {
	server := chatServer(t, `{"is_correct": true, "reasoning": "exact match"}`)
	defer server.Close()

	judge := newTestJudge(t, server.URL)
	expected, predicted := testEdits()

	judgement, err := judge.Score(context.Background(), expected, predicted)
	require.NoError(t, err)
	assert.Equal(t, 1.0, judgement.Score)

	server2 := chatServer(t, `{"is_correct": false, "reasoning": "different edit"}`)
	defer server2.Close()

	judgement, err = newTestJudge(t, server2.URL).Score(context.Background(), expected, predicted)
	require.NoError(t, err)
	assert.Equal(t, 0.0, judgement.Score)
}

// TestScore_ClampsScore tests out-of-range scores.
func TestScore_ClampsScore(t *testing.T) {
	server := chatServer(t, `{"is_correct": true, "score": 1.4, "reasoning": "x"}`)
	defer server.Close()

	expected, predicted := testEdits()
	judgement, err := newTestJudge(t, server.URL).Score(context.Background(), expected, predicted)
	require.NoError(t, err)
	assert.Equal(t, 1.0, judgement.Score)
}

// TestScore_RateLimited tests 429 handling.
func TestScore_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	expected, predicted := testEdits()
	_, err := newTestJudge(t, server.URL).Score(context.Background(), expected, predicted)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

// TestScore_APIError tests an in-band API error object.
func TestScore_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "invalid model", "type": "invalid_request_error"}}`)
	}))
	defer server.Close()

	expected, predicted := testEdits()
	_, err := newTestJudge(t, server.URL).Score(context.Background(), expected, predicted)
	assert.ErrorContains(t, err, "invalid model")
}

// TestPing tests the reachability check.
func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"data": []}`)
	}))
	defer server.Close()

	judge := newTestJudge(t, server.URL)
	assert.NoError(t, judge.Ping(context.Background()))

	bad, err := NewJudge(Config{APIKey: "sk-wrong", BaseURL: server.URL})
	require.NoError(t, err)
	assert.ErrorContains(t, bad.Ping(context.Background()), "401")
}

// TestNewJudge_RequiresKey tests that a missing API key is rejected.
func TestNewJudge_RequiresKey(t *testing.T) {
	_, err := NewJudge(Config{})
	assert.Error(t, err)
}

// TestExtractJSON tests the tolerant JSON extraction paths.
func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"leading whitespace", "\n  {\"a\": 1}\n", `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around fence", "Sure!\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"braces in prose", `The answer is {"a": 1} as shown.`, `{"a": 1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}

	_, err := ExtractJSON("no json here")
	assert.Error(t, err)
}
