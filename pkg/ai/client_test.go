package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type chatRequest struct {
	Model     string            `json:"model"`
	MaxTokens int64             `json:"max_tokens"`
	Messages  []json.RawMessage `json:"messages"`
}

func completion(content string, prompt, completionTokens int) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": %q}}],
		"usage": {"prompt_tokens": %d, "completion_tokens": %d, "total_tokens": %d}
	}`, content, prompt, completionTokens, prompt+completionTokens)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test", BaseURL: srv.URL + "/", CostPerToken: 0.001})
}

func TestClient_DescribeImage(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion("  A calm lake at dawn.  ", 100, 20)))
	})

	text, usage, err := c.DescribeImage(context.Background(), "http://img/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "A calm lake at dawn.", text)
	assert.Equal(t, int64(100), usage.InputTokens)
	assert.Equal(t, int64(20), usage.OutputTokens)
	assert.InDelta(t, 0.12, usage.Cost, 1e-9)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, int64(300), got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, string(got.Messages[0]), "http://img/1.jpg")
	assert.Contains(t, string(got.Messages[0]), "image_url")
}

func TestClient_GenerateComment(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion("Beautiful light!", 50, 10)))
	})

	text, usage, err := c.GenerateComment(context.Background(), "Sunset over the sea", "orange sky")
	require.NoError(t, err)
	assert.Equal(t, "Beautiful light!", text)
	assert.Equal(t, int64(60), usage.Total())
	assert.Equal(t, int64(120), got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, string(got.Messages[0]), "About you")
	assert.Contains(t, string(got.Messages[1]), "Sunset over the sea")
	assert.Contains(t, string(got.Messages[1]), "orange sky")
	assert.Contains(t, string(got.Messages[1]), "otherwise English")
}

func TestClient_ErrorReturnsZeroUsage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad", "type": "invalid_request_error"}}`))
	})

	text, usage, err := c.GenerateComment(context.Background(), "", "")
	require.Error(t, err)
	assert.Empty(t, text)
	assert.True(t, usage.IsZero())
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", LanguageName(language.English))
	assert.Equal(t, "Russian", LanguageName(language.Russian))

	c := New(Config{APIKey: "x", FallbackLanguage: language.German})
	assert.Contains(t, c.commentContext("cap", ""), "otherwise German")
}
