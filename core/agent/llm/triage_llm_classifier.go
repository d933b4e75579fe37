package llm

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/pkg/logger"
)

const (
	DefaultAttemptsPerEndpoint = 3
	DefaultAttemptTimeout      = 30 * time.Second

	msgMalformed = "Resposta incompleta da API"
	msgExhausted = "Todos os modelos estão indisponíveis no momento"
	// ExhaustedDetail is the retry-later guidance returned with an exhausted failure.
	ExhaustedDetail = "Tente novamente em alguns minutos. Os servidores podem estar sobrecarregados."
)

// RetryRule says what to do after one failed attempt.
type RetryRule struct {
	// Terminal ends the whole classification with a malformed-response failure.
	Terminal bool
	// Retry tries the same endpoint again; otherwise the next endpoint is used.
	Retry bool
	// Delay is the wait before the next attempt, attempt being 0-indexed.
	Delay func(attempt int) time.Duration
}

// RetryPolicy maps each failure kind to its rule.
type RetryPolicy map[out.FailureKind]RetryRule

func fixedDelay(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// overloadedDelay yields 1s, 2.5s, 5s for attempts 0, 1, 2.
func overloadedDelay(attempt int) time.Duration {
	secs := math.Pow(2, float64(attempt)) + float64(attempt)*0.5
	return time.Duration(secs * float64(time.Second))
}

// DefaultRetryPolicy returns the standard policy table.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		out.FailureMalformed:   {Terminal: true},
		out.FailureOverloaded:  {Retry: true, Delay: overloadedDelay},
		out.FailureRateLimited: {Retry: true, Delay: fixedDelay(5 * time.Second)},
		out.FailureTimeout:     {Retry: true, Delay: fixedDelay(time.Second)},
		out.FailureNetwork:     {Retry: true, Delay: fixedDelay(time.Second)},
		out.FailureHTTPStatus:  {},
		out.FailureUnexpected:  {},
	}
}

// Rule returns the rule for kind, treating unknown kinds as unexpected.
func (p RetryPolicy) Rule(kind out.FailureKind) RetryRule {
	if r, ok := p[kind]; ok {
		return r
	}
	return p[out.FailureUnexpected]
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type ClassifierConfig struct {
	Endpoints           []domain.ModelEndpoint
	AttemptsPerEndpoint int
	AttemptTimeout      time.Duration
	Policy              RetryPolicy
	Sleep               Sleeper
	Logger              *logger.Logger
}

// RemoteClassifier walks the endpoint list in priority order with retries.
// It holds no mutable state and is safe for concurrent use.
type RemoteClassifier struct {
	gen       out.TextGenerator
	endpoints []domain.ModelEndpoint
	attempts  int
	timeout   time.Duration
	policy    RetryPolicy
	sleep     Sleeper
	log       *logger.Logger
}

func NewRemoteClassifier(gen out.TextGenerator, cfg ClassifierConfig) *RemoteClassifier {
	c := &RemoteClassifier{
		gen:       gen,
		endpoints: append([]domain.ModelEndpoint(nil), cfg.Endpoints...),
		attempts:  cfg.AttemptsPerEndpoint,
		timeout:   cfg.AttemptTimeout,
		policy:    cfg.Policy,
		sleep:     cfg.Sleep,
		log:       cfg.Logger,
	}
	if c.attempts <= 0 {
		c.attempts = DefaultAttemptsPerEndpoint
	}
	if c.timeout <= 0 {
		c.timeout = DefaultAttemptTimeout
	}
	if c.policy == nil {
		c.policy = DefaultRetryPolicy()
	}
	if c.sleep == nil {
		c.sleep = ContextSleep
	}
	if c.log == nil {
		c.log = logger.Default()
	}
	return c
}

// Classify returns either a result or a *domain.ClassificationError, never both.
func (c *RemoteClassifier) Classify(ctx context.Context, req domain.GenerationRequest) (*domain.ClassificationResult, error) {
	log := c.log.WithContext(ctx)
	var lastErr error

	for _, ep := range c.endpoints {
		epReq := req
		if epReq.MaxTokens <= 0 {
			epReq.MaxTokens = ep.MaxTokens
		}
		log.Info("trying model %s", ep.Name)

		for attempt := 0; attempt < c.attempts; attempt++ {
			text, err := c.generate(ctx, ep, epReq)
			if err == nil {
				log.WithField("model", ep.Name).Info("classification succeeded on attempt %d", attempt+1)
				return &domain.ClassificationResult{
					RawText:      text,
					ModelUsed:    ep.Name,
					AttemptCount: attempt + 1,
				}, nil
			}
			lastErr = err

			kind := kindOf(err)
			rule := c.policy.Rule(kind)
			log.WithError(err).WithFields(map[string]any{
				"model":   ep.Name,
				"kind":    kind.String(),
				"attempt": attempt + 1,
			}).Warn("attempt %d/%d with %s failed", attempt+1, c.attempts, ep.Name)

			if rule.Terminal {
				return nil, &domain.ClassificationError{
					Kind:    domain.ErrKindMalformedResponse,
					Message: msgMalformed,
					Err:     err,
				}
			}
			if ctx.Err() != nil {
				return nil, c.exhausted(ctx.Err())
			}
			if !rule.Retry {
				break
			}
			if attempt < c.attempts-1 && rule.Delay != nil {
				wait := rule.Delay(attempt)
				log.Debug("waiting %s before next attempt", wait)
				if err := c.sleep(ctx, wait); err != nil {
					return nil, c.exhausted(err)
				}
			}
		}
	}

	return nil, c.exhausted(lastErr)
}

// generate runs one attempt under its own timeout.
func (c *RemoteClassifier) generate(ctx context.Context, ep domain.ModelEndpoint, req domain.GenerationRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.gen.Generate(attemptCtx, ep, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &out.GenerationError{Kind: out.FailureMalformed, StatusCode: 200, Body: "empty candidate text"}
	}
	return text, nil
}

func (c *RemoteClassifier) exhausted(err error) *domain.ClassificationError {
	return &domain.ClassificationError{
		Kind:    domain.ErrKindAllExhausted,
		Message: msgExhausted,
		Detail:  ExhaustedDetail,
		Err:     err,
	}
}

func kindOf(err error) out.FailureKind {
	var genErr *out.GenerationError
	switch {
	case errors.As(err, &genErr):
		return genErr.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return out.FailureTimeout
	default:
		return out.FailureUnexpected
	}
}

// ProbeResult is the outcome of a model health probe.
type ProbeResult struct {
	Healthy    bool
	StatusCode int
	Err        error
}

// Probe sends the health prompt once to the primary endpoint.
// Any HTTP 200 counts as healthy, even without candidate text.
func (c *RemoteClassifier) Probe(ctx context.Context, timeout time.Duration) ProbeResult {
	if len(c.endpoints) == 0 {
		return ProbeResult{Err: errors.New("nenhum modelo configurado")}
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := c.gen.Generate(probeCtx, c.endpoints[0], HealthRequest())
	if err == nil {
		return ProbeResult{Healthy: true, StatusCode: 200}
	}

	var genErr *out.GenerationError
	if errors.As(err, &genErr) && genErr.StatusCode != 0 {
		return ProbeResult{Healthy: genErr.StatusCode == 200, StatusCode: genErr.StatusCode, Err: err}
	}
	return ProbeResult{Err: err}
}
