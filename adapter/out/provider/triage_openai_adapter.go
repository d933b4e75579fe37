package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"triage_server/core/agent/llm"
	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/pkg/httputil"
)

// =============================================================================
// OpenAI-compatible Adapter
// =============================================================================

// OpenAIAdapter calls an OpenAI-compatible chat completions API.
// The endpoint URL is the API base URL and the endpoint name is the model.
type OpenAIAdapter struct {
	apiKey string
	client *http.Client
}

func NewOpenAIAdapter(apiKey string, client *http.Client) *OpenAIAdapter {
	if client == nil {
		client = httputil.NewOptimizedClient(httputil.LLMClientConfig(0))
	}
	return &OpenAIAdapter{apiKey: apiKey, client: client}
}

var _ out.TextGenerator = (*OpenAIAdapter)(nil)

func (a *OpenAIAdapter) Generate(ctx context.Context, ep domain.ModelEndpoint, req domain.GenerationRequest) (string, error) {
	cfg := openai.DefaultConfig(a.apiKey)
	if ep.URL != "" {
		cfg.BaseURL = strings.TrimRight(ep.URL, "/")
	}
	cfg.HTTPClient = a.client

	resp, err := openai.NewClientWithConfig(cfg).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: ep.Name,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		TopP:        float32(llm.TopP),
	})
	if err != nil {
		return "", openAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &out.GenerationError{Kind: out.FailureMalformed, StatusCode: http.StatusOK, Body: "no choices"}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &out.GenerationError{Kind: out.FailureMalformed, StatusCode: http.StatusOK, Body: "empty message"}
	}
	return text, nil
}

func openAIError(err error) *out.GenerationError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &out.GenerationError{
			Kind:       out.KindForStatus(apiErr.HTTPStatusCode),
			StatusCode: apiErr.HTTPStatusCode,
			Body:       truncateBody(apiErr.Message, maxErrorBody),
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		kind := out.KindForStatus(reqErr.HTTPStatusCode)
		if reqErr.HTTPStatusCode == http.StatusOK {
			kind = out.FailureMalformed
		}
		return &out.GenerationError{Kind: kind, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	return transportError(err)
}
