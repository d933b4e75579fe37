package classification

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"triage_server/core/agent/llm"
	"triage_server/core/domain"
	"triage_server/core/port/in"
	"triage_server/core/service/extraction"
	"triage_server/pkg/apperr"
	"triage_server/pkg/logger"
)

// DefaultMinChars is the shortest processed text worth sending to a model.
const DefaultMinChars = 20

// RemoteClassifier is the part of llm.RemoteClassifier the pipeline needs.
type RemoteClassifier interface {
	Classify(ctx context.Context, req domain.GenerationRequest) (*domain.ClassificationResult, error)
}

type ServiceConfig struct {
	MinChars int
	Logger   *logger.Logger
}

// Service runs decode, extract, normalize, validate, classify and parse for one email.
type Service struct {
	extractor  *extraction.Extractor
	normalizer *extraction.Normalizer
	classifier RemoteClassifier
	minChars   int
	log        *logger.Logger
}

var _ in.ClassifyService = (*Service)(nil)

func NewService(extractor *extraction.Extractor, normalizer *extraction.Normalizer, classifier RemoteClassifier, cfg ServiceConfig) *Service {
	if cfg.MinChars <= 0 {
		cfg.MinChars = DefaultMinChars
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	return &Service{
		extractor:  extractor,
		normalizer: normalizer,
		classifier: classifier,
		minChars:   cfg.MinChars,
		log:        cfg.Logger,
	}
}

// Classify returns an *apperr.AppError on failure. When the remote
// classification itself fails the output is still returned, without a verdict,
// so the caller can report what was extracted.
func (s *Service) Classify(ctx context.Context, input in.ClassifyInput) (*in.ClassifyOutput, error) {
	start := time.Now()
	log := s.log.WithContext(ctx)

	if input.Body == "" {
		return nil, apperr.EmptyContent()
	}

	log.Info("processing request base64=%t detailed=%t include_response=%t confidence=%v",
		input.IsBase64Encoded, input.Detailed, input.IncludeResponse, input.Confidence)

	data, err := extraction.DecodePayload(input.Body, input.IsBase64Encoded)
	if err != nil {
		return nil, err
	}

	doc, err := s.extractor.Extract(data)
	if err != nil {
		return nil, err
	}
	if doc.FileKind == domain.FileKindPDF {
		log.Info("pdf detected, %d pages", *doc.PageCount)
	}

	norm := s.normalizer.Normalize(doc.Text)
	if n := utf8.RuneCountInString(norm.ProcessedText); n < s.minChars {
		return nil, apperr.TextTooShort(s.minChars, n)
	}

	req := domain.ClassificationRequest{
		Text:            norm.ProcessedText,
		Confidence:      input.Confidence,
		Detailed:        input.Detailed,
		IncludeResponse: input.IncludeResponse,
	}

	log.Info("starting classification with %d chars", norm.ProcessedLength)
	result, err := s.classifier.Classify(ctx, llm.BuildPrompt(req))

	output := &in.ClassifyOutput{
		Document:   *doc,
		Normalized: norm,
	}

	if err != nil {
		output.Elapsed = time.Since(start)
		var cerr *domain.ClassificationError
		if errors.As(err, &cerr) {
			log.WithError(err).Error("classification failed: %s", cerr.Kind)
			return output, apperr.ClassificationFailed(cerr.Message, cerr.Detail, err)
		}
		return output, apperr.InternalWithError(err)
	}

	if req.Simple() {
		output.Verdict = llm.SimpleVerdict(result.RawText)
	} else {
		output.Verdict = llm.ParseResponse(result.RawText, req.IncludeResponse)
	}
	output.Result = *result
	output.Elapsed = time.Since(start)

	log.WithDuration(output.Elapsed).WithField("model", result.ModelUsed).
		Info("classified as %q after %d attempts", output.Verdict.Category, result.AttemptCount)
	return output, nil
}
