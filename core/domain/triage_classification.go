package domain

import (
	"errors"
	"fmt"
)

// Category labels produced by the classifier.
const (
	CategoryProductive    = "Produtivo"
	CategoryNotProductive = "Não produtivo"
	CategoryUnclassified  = "Não classificado"
)

// FileKind identifies how the inbound payload was read.
type FileKind string

const (
	FileKindPDF FileKind = "PDF"
	FileKindTXT FileKind = "TXT"
)

// ClassificationRequest is one email ready to be sent to a model.
type ClassificationRequest struct {
	Text            string
	Confidence      float64 // 0 = fast, 1 = conservative
	Detailed        bool
	IncludeResponse bool
}

// ClampedConfidence returns Confidence limited to [0,1].
func (r ClassificationRequest) ClampedConfidence() float64 {
	switch {
	case r.Confidence < 0:
		return 0
	case r.Confidence > 1:
		return 1
	default:
		return r.Confidence
	}
}

// Simple reports whether only the bare category label was requested.
func (r ClassificationRequest) Simple() bool {
	return !r.Detailed && !r.IncludeResponse
}

// Provider names accepted in ModelEndpoint.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ModelEndpoint is one entry of the ordered fallback list.
type ModelEndpoint struct {
	Name      string `yaml:"name" json:"name"`
	URL       string `yaml:"url" json:"url"`
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
	Provider  string `yaml:"provider" json:"provider"`
}

// ProviderName returns the provider, defaulting to gemini.
func (e ModelEndpoint) ProviderName() string {
	if e.Provider == "" {
		return ProviderGemini
	}
	return e.Provider
}

// GenerationRequest is what the prompt builder hands to the remote classifier.
type GenerationRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// ClassificationResult is the success outcome of a remote classification.
type ClassificationResult struct {
	RawText      string
	ModelUsed    string
	AttemptCount int
}

// ClassificationErrorKind tells the two terminal failures apart.
type ClassificationErrorKind string

const (
	ErrKindMalformedResponse ClassificationErrorKind = "malformed_response"
	ErrKindAllExhausted      ClassificationErrorKind = "all_exhausted"
)

// ClassificationError is the failure outcome of a remote classification.
type ClassificationError struct {
	Kind    ClassificationErrorKind
	Message string
	Detail  string
	Err     error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// ParsedClassification is the structured verdict extracted from raw model text.
type ParsedClassification struct {
	Category       string
	Justification  string
	Confidence     int
	SuggestedReply *string
}

// ExtractedDocument is the text pulled out of the inbound payload.
type ExtractedDocument struct {
	Text      string
	PageCount *int
	FileKind  FileKind
}

// NormalizedText is the cleaned text plus bookkeeping about the cleanup.
type NormalizedText struct {
	OriginalText    string
	ProcessedText   string
	OriginalLength  int
	ProcessedLength int
	WasTruncated    bool
}

// Extraction failures.
var (
	ErrEmptyExtraction = errors.New("pdf has no extractable text")
	ErrInvalidEncoding = errors.New("payload is not valid UTF-8")
)
