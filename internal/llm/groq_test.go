package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqGenerateContent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer groq_key", r.Header.Get("Authorization"))

			var body groqRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, ModelExtractor, body.Model)
			assert.Equal(t, "json_object", body.ResponseFormat["type"])
			assert.Equal(t, "hello", body.Messages[0].Content)

			w.Write([]byte(`{
				"choices": [{"message": {"role": "assistant", "content": "{\"ok\":true}"}}],
				"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
			}`))
		}))
		defer server.Close()

		c := NewGroqClient("groq_key", ModelExtractor, 0.1, WithGroqURL(server.URL), WithJSONMode())
		resp, err := c.GenerateContent(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, resp.Content)
		assert.Equal(t, 5, resp.Usage.PromptTokens)
		assert.Equal(t, 3, resp.Usage.CompletionTokens)
		assert.Equal(t, ModelExtractor, resp.Usage.Model)
	})

	t.Run("PlainTextOmitsResponseFormat", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var raw map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
			_, ok := raw["response_format"]
			assert.False(t, ok)
			w.Write([]byte(`{"choices": [{"message": {"content": "text"}}]}`))
		}))
		defer server.Close()

		c := NewGroqClient("k", "m", 0.3, WithGroqURL(server.URL))
		resp, err := c.GenerateContent(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, "text", resp.Content)
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("slow down"))
		}))
		defer server.Close()

		c := NewGroqClient("k", "m", 0, WithGroqURL(server.URL))
		_, err := c.GenerateContent(context.Background(), "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=429")
	})

	t.Run("NoChoices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		c := NewGroqClient("k", "m", 0, WithGroqURL(server.URL))
		_, err := c.GenerateContent(context.Background(), "p")
		assert.EqualError(t, err, "no content generated")
	})
}
