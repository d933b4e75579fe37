package provider

import (
	"context"
	"fmt"
	"net/http"

	"triage_server/core/domain"
	"triage_server/core/port/out"
)

// =============================================================================
// Provider Router
// =============================================================================

// Router dispatches each call to the generator registered for the endpoint's provider.
type Router struct {
	generators map[string]out.TextGenerator
}

// RouterConfig holds provider credentials. A provider without a key is not registered.
type RouterConfig struct {
	GeminiAPIKey string
	OpenAIAPIKey string
}

// NewRouter creates a router with the Gemini and OpenAI adapters sharing one HTTP client.
func NewRouter(cfg RouterConfig, client *http.Client) *Router {
	gens := make(map[string]out.TextGenerator)
	if cfg.GeminiAPIKey != "" {
		gens[domain.ProviderGemini] = NewGeminiAdapter(cfg.GeminiAPIKey, client)
	}
	if cfg.OpenAIAPIKey != "" {
		gens[domain.ProviderOpenAI] = NewOpenAIAdapter(cfg.OpenAIAPIKey, client)
	}
	return &Router{generators: gens}
}

// NewRouterWith registers the given generators by provider name.
func NewRouterWith(generators map[string]out.TextGenerator) *Router {
	gens := make(map[string]out.TextGenerator, len(generators))
	for name, g := range generators {
		gens[name] = g
	}
	return &Router{generators: gens}
}

var _ out.TextGenerator = (*Router)(nil)

func (r *Router) Generate(ctx context.Context, ep domain.ModelEndpoint, req domain.GenerationRequest) (string, error) {
	gen, ok := r.generators[ep.ProviderName()]
	if !ok {
		return "", &out.GenerationError{
			Kind: out.FailureUnexpected,
			Err:  fmt.Errorf("provider %q not configured for model %s", ep.ProviderName(), ep.Name),
		}
	}
	return gen.Generate(ctx, ep, req)
}

// Has reports whether a generator is registered for provider.
func (r *Router) Has(provider string) bool {
	_, ok := r.generators[provider]
	return ok
}
