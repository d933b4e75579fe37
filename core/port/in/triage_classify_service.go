package in

import (
	"context"
	"time"

	"triage_server/core/domain"
)

// ClassifyInput is the inbound payload as the HTTP surface receives it.
type ClassifyInput struct {
	Body            string
	IsBase64Encoded bool
	Confidence      float64
	Detailed        bool
	IncludeResponse bool
}

// ClassifyOutput carries everything needed to render a successful verdict.
type ClassifyOutput struct {
	Verdict    domain.ParsedClassification
	Result     domain.ClassificationResult
	Document   domain.ExtractedDocument
	Normalized domain.NormalizedText
	Elapsed    time.Duration
}

// ClassifyService runs the full classification pipeline for one email.
type ClassifyService interface {
	Classify(ctx context.Context, input ClassifyInput) (*ClassifyOutput, error)
}
