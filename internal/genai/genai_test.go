package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageResponse(text string) string {
	return fmt.Sprintf(`{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-haiku-4-5",
		"content": [{"type": "text", "text": %q}],
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, text)
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(messageResponse("technology")))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", Model: "claude-test", BaseURL: srv.URL})
	text, err := c.Generate(context.Background(), Request{
		System:      "be brief",
		Prompt:      "classify this",
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "technology", text)

	assert.Equal(t, "claude-test", got["model"])
	assert.InDelta(t, 0.1, got["temperature"], 1e-9)
	assert.EqualValues(t, defaultMaxTokens, got["max_tokens"])
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`,
			want:   KindRateLimited,
		},
		{
			name:   "overloaded",
			status: 529,
			body:   `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
			want:   KindRateLimited,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"type":"error","error":{"type":"api_error","message":"boom"}}`,
			want:   KindTransient,
		},
		{
			name:   "empty text",
			status: http.StatusOK,
			body:   messageResponse("   "),
			want:   KindInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{APIKey: "test", BaseURL: srv.URL})
			_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, KindInvalidResponse, KindOf(fmt.Errorf("wrapped: %w", InvalidResponse(errors.New("bad json")))))
	assert.True(t, IsRateLimited(fromSDK(errors.New("429 Too Many Requests"))))
	assert.True(t, IsRateLimited(fromSDK(errors.New("monthly quota exceeded"))))
	assert.False(t, IsRateLimited(fromSDK(errors.New("connection reset"))))
}
