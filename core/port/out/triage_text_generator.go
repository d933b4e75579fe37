package out

import (
	"context"
	"fmt"

	"triage_server/core/domain"
)

// TextGenerator sends one prompt to one model endpoint.
// Implementations make a single call with no retries and report failures as *GenerationError.
type TextGenerator interface {
	Generate(ctx context.Context, endpoint domain.ModelEndpoint, req domain.GenerationRequest) (string, error)
}

// FailureKind classifies a failed generation call for the retry policy.
type FailureKind int

const (
	FailureUnexpected FailureKind = iota
	FailureMalformed
	FailureOverloaded
	FailureRateLimited
	FailureHTTPStatus
	FailureTimeout
	FailureNetwork
)

func (k FailureKind) String() string {
	switch k {
	case FailureMalformed:
		return "malformed"
	case FailureOverloaded:
		return "overloaded"
	case FailureRateLimited:
		return "rate_limited"
	case FailureHTTPStatus:
		return "http_status"
	case FailureTimeout:
		return "timeout"
	case FailureNetwork:
		return "network"
	default:
		return "unexpected"
	}
}

// GenerationError is returned by TextGenerator implementations.
type GenerationError struct {
	Kind       FailureKind
	StatusCode int
	Body       string
	Err        error
}

func (e *GenerationError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// KindForStatus maps a non-200 HTTP status to a failure kind.
func KindForStatus(status int) FailureKind {
	switch status {
	case 503:
		return FailureOverloaded
	case 429:
		return FailureRateLimited
	default:
		return FailureHTTPStatus
	}
}
