package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-playground/assert/v2"
)

func TestAnthropicGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "<p>analysis</p>"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	gen := NewAnthropicGenerator("test-key", AnalyzerConfig{}, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	text, err := gen.GenerateText(context.Background(), "analyze this")

	assert.Equal(t, nil, err)
	assert.Equal(t, "<p>analysis</p>", text)
	assert.Equal(t, "anthropic/claude-haiku-4-5", gen.Name())
}
