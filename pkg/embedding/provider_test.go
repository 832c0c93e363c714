package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want []float32
	}{
		{"unit already", []float32{1, 0}, []float32{1, 0}},
		{"scaled", []float32{3, 4}, []float32{0.6, 0.8}},
		{"zero vector", []float32{0, 0, 0}, []float32{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeVector(tt.in)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}
}

func TestOllamaProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic-embed-text", body["model"])
		assert.Equal(t, "hello", body["prompt"])
		_, _ = w.Write([]byte(`{"embedding":[3,4]}`))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "")
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), "hello", TaskRetrievalQuery)
	require.NoError(t, err)

	var norm float64
	for _, v := range resp.Embedding.Values {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestGeminiProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, ":embedContent")
		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, TaskRetrievalDocument, body.TaskType)
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.1,0.2]}}`))
	}))
	defer srv.Close()

	p := &GeminiProvider{ApiKey: "secret", BaseURL: srv.URL, client: srv.Client()}
	resp, err := p.Generate(context.Background(), "doc", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, resp.Embedding.Values)
}

func TestGeminiProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := &GeminiProvider{ApiKey: "bad", BaseURL: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "doc", TaskRetrievalDocument)
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider("gemini", "", "", "")
	assert.Error(t, err)

	_, err = NewProvider("unknown", "", "", "")
	assert.Error(t, err)

	p, err := NewProvider("", "http://localhost:11434", "", "")
	require.NoError(t, err)
	assert.IsType(t, &OllamaProvider{}, p)
}
