package bootstrap

import (
	"triage_server/adapter/out/provider"
	"triage_server/config"
	"triage_server/core/agent/llm"
	"triage_server/core/port/out"
	"triage_server/core/service/classification"
	"triage_server/core/service/extraction"
	"triage_server/pkg/httputil"
	"triage_server/pkg/logger"
)

// Dependencies holds the wired classification pipeline. Everything in it is
// immutable after construction and shared by all requests.
type Dependencies struct {
	Config     *config.Config
	Generator  out.TextGenerator
	Classifier *llm.RemoteClassifier
	Service    *classification.Service
}

// NewDependencies wires the pipeline against the real provider adapters.
func NewDependencies(cfg *config.Config) *Dependencies {
	client := httputil.NewOptimizedClient(httputil.LLMClientConfig(cfg.LLMTimeout()))
	router := provider.NewRouter(provider.RouterConfig{
		GeminiAPIKey: cfg.GeminiAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	}, client)

	return NewDependenciesWith(cfg, router)
}

// NewDependenciesWith wires the pipeline against gen.
func NewDependenciesWith(cfg *config.Config, gen out.TextGenerator) *Dependencies {
	log := logger.Default()

	classifier := llm.NewRemoteClassifier(gen, llm.ClassifierConfig{
		Endpoints:           cfg.Models,
		AttemptsPerEndpoint: cfg.LLMAttemptsPerModel,
		AttemptTimeout:      cfg.LLMTimeout(),
		Logger:              log.WithField("component", "classifier"),
	})

	service := classification.NewService(
		extraction.NewExtractor(extraction.NewPDFTextReader(log)),
		extraction.NewNormalizer(cfg.TextMaxChars),
		classifier,
		classification.ServiceConfig{
			MinChars: cfg.TextMinChars,
			Logger:   log.WithField("component", "pipeline"),
		},
	)

	return &Dependencies{
		Config:     cfg,
		Generator:  gen,
		Classifier: classifier,
		Service:    service,
	}
}
