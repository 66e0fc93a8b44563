package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/perfumery/internal/copywriter"
)

type OllamaWriter struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaWriter(host, model string) *OllamaWriter {
	return &OllamaWriter{
		host:   host,
		model:  model,
		client: &http.Client{},
	}
}

func (w *OllamaWriter) Describe(ctx context.Context, brief copywriter.Brief) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  w.model,
		"prompt": copywriter.Prompt(brief),
		"stream": false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, errBody)
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return copywriter.CleanResponse(respBody.Response), nil
}
