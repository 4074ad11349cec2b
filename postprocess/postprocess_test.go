package postprocess

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestProcess(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion(" 今天天气很好 ")))
	}))
	defer srv.Close()

	c := New(OpenAI, Credentials{APIKey: "sk-test", APIURL: srv.URL + "/v1", Model: "gpt-3.5-turbo"}, "修正文本中的错误，保持原意", 5*time.Second, nil)
	out, err := c.Process(context.Background(), "今天天汽很好")
	require.NoError(t, err)
	assert.Equal(t, "今天天气很好", out)

	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "修正文本中的错误，保持原意", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "今天天汽很好", got.Messages[1].Content)
}

func TestProcessMissingKey(t *testing.T) {
	c := New(Groq, Credentials{Model: "mixtral-8x7b-32768"}, "p", time.Second, nil)
	_, err := c.Process(context.Background(), "text")

	var ppErr *Error
	require.ErrorAs(t, err, &ppErr)
	assert.Equal(t, "groq", ppErr.Provider)
	assert.True(t, errors.Is(err, ErrNoAPIKey))
}

func TestProcessEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion("   ")))
	}))
	defer srv.Close()

	c := New(OpenAI, Credentials{APIKey: "k", APIURL: srv.URL}, "p", time.Second, nil)
	_, err := c.Process(context.Background(), "text")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestProcessServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := New(OpenAI, Credentials{APIKey: "k", APIURL: srv.URL}, "p", time.Second, nil)
	_, err := c.Process(context.Background(), "text")

	var ppErr *Error
	require.ErrorAs(t, err, &ppErr)
	assert.Equal(t, 1, calls, "post-processing is not retried")
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("GROQ")
	require.NoError(t, err)
	assert.Equal(t, Groq, p)

	_, err = ParseProvider("custom")
	assert.Error(t, err)
}

func TestDefaultURL(t *testing.T) {
	c := New(Groq, Credentials{APIKey: "k"}, "p", time.Second, nil)
	assert.Equal(t, "https://api.groq.com/openai/v1", c.creds.APIURL)
}
