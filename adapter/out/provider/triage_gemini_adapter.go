// Package provider implements the remote text generation adapters.
package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"triage_server/core/agent/llm"
	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/pkg/httputil"
)

// maxErrorBody caps how much of a failed response body is kept for logging.
const maxErrorBody = 512

// =============================================================================
// Gemini Adapter
// =============================================================================

// GeminiAdapter calls the Gemini generateContent REST endpoint.
type GeminiAdapter struct {
	apiKey string
	client *http.Client
}

// NewGeminiAdapter creates a Gemini adapter. A nil client gets the pooled LLM client.
func NewGeminiAdapter(apiKey string, client *http.Client) *GeminiAdapter {
	if client == nil {
		client = httputil.NewOptimizedClient(httputil.LLMClientConfig(0))
	}
	return &GeminiAdapter{apiKey: apiKey, client: client}
}

var _ out.TextGenerator = (*GeminiAdapter)(nil)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate performs one call. Non-200 statuses, transport failures and
// unusable 200 payloads come back as *out.GenerationError.
func (a *GeminiAdapter) Generate(ctx context.Context, ep domain.ModelEndpoint, req domain.GenerationRequest) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
			TopP:            llm.TopP,
			TopK:            llm.TopK,
		},
	})
	if err != nil {
		return "", &out.GenerationError{Kind: out.FailureUnexpected, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpointURL(ep.URL), bytes.NewReader(payload))
	if err != nil {
		return "", &out.GenerationError{Kind: out.FailureUnexpected, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &out.GenerationError{
			Kind:       out.KindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       truncateBody(string(body), maxErrorBody),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &out.GenerationError{Kind: out.FailureMalformed, StatusCode: resp.StatusCode, Err: err}
	}

	text := firstCandidateText(parsed)
	if text == "" {
		return "", &out.GenerationError{
			Kind:       out.FailureMalformed,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(string(body), maxErrorBody),
		}
	}
	return text, nil
}

func (a *GeminiAdapter) endpointURL(base string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "key=" + url.QueryEscape(a.apiKey)
}

// firstCandidateText joins the text parts of the first candidate.
func firstCandidateText(r geminiResponse) string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// =============================================================================
// Helpers
// =============================================================================

func transportError(err error) *out.GenerationError {
	switch {
	case httputil.IsTimeout(err):
		return &out.GenerationError{Kind: out.FailureTimeout, Err: err}
	case httputil.IsNetworkError(err):
		return &out.GenerationError{Kind: out.FailureNetwork, Err: err}
	default:
		return &out.GenerationError{Kind: out.FailureUnexpected, Err: err}
	}
}

func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...", body[:cut])
}
