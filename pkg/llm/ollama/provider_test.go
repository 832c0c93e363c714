package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"context-retriever-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Chat(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"{\"strategy\":\"web\"}"},"done":true}`))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "llama3.2")
	require.NoError(t, err)

	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "classify"},
		{Role: "model", Content: "previous"},
		{Role: "user", Content: "latest news"},
	}, llm.WithTemperature(0), llm.WithJSONMode())
	require.NoError(t, err)
	assert.Equal(t, `{"strategy":"web"}`, out)

	assert.Equal(t, "llama3.2", got["model"])
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, false, got["stream"])
	messages := got["messages"].([]interface{})
	require.Len(t, messages, 3)
	assert.Equal(t, "assistant", messages[1].(map[string]interface{})["role"])
}

func TestOllamaProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "llama3.2")
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "hello")
	assert.Error(t, err)
}
