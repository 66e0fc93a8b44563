package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/perfumery/internal/copywriter"
)

// maxTokens comfortably covers a two-sentence description.
const maxTokens = 300

type ClaudeWriter struct {
	client *anthropic.Client
	model  string
}

// NewClaudeWriter returns a writer for the Anthropic Messages API. Options
// are passed to the underlying client, e.g. anthropic.WithBaseURL in tests.
func NewClaudeWriter(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeWriter {
	return &ClaudeWriter{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (w *ClaudeWriter) Describe(ctx context.Context, brief copywriter.Brief) (string, error) {
	resp, err := w.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(w.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(copywriter.Prompt(brief)),
		},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("claude returned %s: %s", apiErr.Type, apiErr.Message)
		}
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			return copywriter.CleanResponse(c.GetText()), nil
		}
	}
	return "", fmt.Errorf("claude returned no text content")
}
