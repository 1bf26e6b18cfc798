package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/trade-ledger/internal/llm"
)

func TestGenerate(t *testing.T) {
	var got struct {
		Model          string         `json:"model"`
		ResponseFormat map[string]any `json:"response_format"`
		Messages       []chatMessage  `json:"messages"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini-2024","choices":[{"message":{"role":"assistant","content":"  {\"transactionType\":\"sale\"}  "}}],"usage":{"total_tokens":17}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/"}, nil)
	resp, err := c.Generate(context.Background(), llm.GenerateRequest{
		UserText:          "Sold 5kg tomatoes",
		SystemInstruction: "Return JSON",
		History:           []llm.Turn{{Role: "user", Text: "earlier"}, {Role: "assistant", Text: "ok"}},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"transactionType":"sale"}`, resp.ReplyText)
	assert.Equal(t, "gpt-4o-mini-2024", resp.Model)
	assert.Equal(t, 17, resp.TokenCount)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "user", got.Messages[3].Role)
	assert.Equal(t, "Sold 5kg tomatoes", got.Messages[3].Content)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL}, nil).Generate(context.Background(), llm.GenerateRequest{UserText: "x"})
		var se *llm.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL}, nil).Generate(context.Background(), llm.GenerateRequest{UserText: "x"})
		assert.ErrorContains(t, err, "no choices")
	})
}
