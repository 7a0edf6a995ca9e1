package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key", "gpt-4o-mini", srv.URL+"/v1/")
}

func TestCompleteSendsPromptAndReturnsContent(t *testing.T) {
	var got openai.ChatCompletionRequest
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"FINDING 1\nPATTERN: p"}}]}`)
	})

	out, err := c.Complete(context.Background(), ai.Request{System: "sys", Prompt: "data", MaxTokens: 512})
	require.NoError(t, err)
	assert.Equal(t, "FINDING 1\nPATTERN: p", out)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "data", got.Messages[1].Content)
	assert.Equal(t, 512, got.MaxTokens)
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","choices":[]}`)
	})
	_, err := c.Complete(context.Background(), ai.Request{Prompt: "p"})
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}

func TestCompleteMapsErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ai.ErrQuotaExceeded},
		{http.StatusInternalServerError, ai.ErrUpstream},
		{http.StatusUnauthorized, ai.ErrUpstream},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"error":{"message":"nope","type":"test"}}`)
			})
			_, err := c.Complete(context.Background(), ai.Request{Prompt: "p"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestStreamCollectsDeltas(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"FINDING 1\n", "PATTERN: ", "Slow approvals"} {
			b, _ := json.Marshal(map[string]any{
				"id":      "x",
				"object":  "chat.completion.chunk",
				"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": part}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var deltas []string
	out, err := c.Stream(context.Background(), ai.Request{Prompt: "p"}, func(d string) { deltas = append(deltas, d) })
	require.NoError(t, err)
	assert.Equal(t, "FINDING 1\nPATTERN: Slow approvals", out)
	assert.Equal(t, []string{"FINDING 1\n", "PATTERN: ", "Slow approvals"}, deltas)
}

func TestPing(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[]}`)
	})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestRequestTokenField(t *testing.T) {
	c := &Client{Model: "o3-mini"}
	r := c.request(ai.Request{Prompt: "p"})
	assert.Equal(t, defaultMaxTokens, r.MaxCompletionTokens)
	assert.Zero(t, r.MaxTokens)
	assert.Len(t, r.Messages, 1)

	c = &Client{MaxTokens: 100}
	r = c.request(ai.Request{Prompt: "p"})
	assert.Equal(t, defaultModel, r.Model)
	assert.Equal(t, 100, r.MaxTokens)
}
