package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/perfumery/internal/copywriter"
)

func TestOllamaDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "Brand: Chanel")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    req.Model,
			"response": "\"A timeless aldehydic bouquet.\"",
		})
	}))
	defer server.Close()

	writer := NewOllamaWriter(server.URL, "llama3")

	desc, err := writer.Describe(context.Background(), copywriter.Brief{Name: "No. 5", Brand: "Chanel"})
	require.NoError(t, err)
	assert.Equal(t, "A timeless aldehydic bouquet.", desc)
}

func TestOllamaDescribeNetworkError(t *testing.T) {
	writer := NewOllamaWriter("http://localhost:99999", "llama3")

	_, err := writer.Describe(context.Background(), copywriter.Brief{Name: "No. 5"})
	assert.Error(t, err)
}

func TestOllamaDescribeBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewOllamaWriter(server.URL, "missing").Describe(context.Background(), copywriter.Brief{})
	assert.ErrorContains(t, err, "404")
}

func TestOllamaDescribeInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := NewOllamaWriter(server.URL, "llama3").Describe(context.Background(), copywriter.Brief{})
	assert.Error(t, err)
}
