// Package llmclient sends a built payload to the configured LLM
// endpoint and extracts the textual response via a configured dotted
// JSON path (spec.md §4.3), wrapped in the same retry/circuit-breaker
// machinery the teacher uses around its LLM transport.
package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Daxiongmao87/termaite-go/internal/logging"
	"github.com/Daxiongmao87/termaite-go/internal/shared/errors"
	"github.com/Daxiongmao87/termaite-go/internal/shared/jsonx"
)

const (
	traceScope   = "termaite.llmclient"
	traceSpanLLM = "termaite.llm.request"
)

// Error wraps every failure mode named in spec.md §4.3 — network
// failure, non-2xx status, non-JSON body, path-not-found — behind a
// single type so callers only need one type switch.
type Error struct {
	Cause error
}

func (e *Error) Error() string { return "llm request failed: " + e.Cause.Error() }
func (e *Error) Unwrap() error { return e.Cause }

// Client sends JSON payloads to an HTTP endpoint and extracts text.
type Client struct {
	endpoint       string
	apiKey         string
	responsePath   string
	timeout        time.Duration
	httpClient     *http.Client
	retryConfig    errors.RetryConfig
	circuitBreaker *errors.CircuitBreaker
	logger         logging.Logger

	// cache memoizes identical requests within a single process run,
	// keyed by the exact request bytes. Bounded so a long REPL session
	// cannot grow it unbounded.
	cache *lru.Cache[string, string]
}

// Option customizes a Client at construction.
type Option func(*Client)

// WithHTTPClient overrides the transport, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg errors.RetryConfig) Option {
	return func(c *Client) { c.retryConfig = cfg }
}

// WithCircuitBreaker overrides the default circuit breaker.
func WithCircuitBreaker(cb *errors.CircuitBreaker) Option {
	return func(c *Client) { c.circuitBreaker = cb }
}

// New builds a Client for endpoint, authenticating with apiKey (if
// non-empty) and extracting responses via responsePath. timeout bounds
// each individual HTTP round trip (spec.md's command_timeout applied
// to the LLM request).
func New(endpoint, apiKey, responsePath string, timeout time.Duration, opts ...Option) *Client {
	cache, _ := lru.New[string, string](64)

	c := &Client{
		endpoint:       endpoint,
		apiKey:         apiKey,
		responsePath:   responsePath,
		timeout:        timeout,
		httpClient:     &http.Client{},
		retryConfig:    errors.DefaultRetryConfig(),
		circuitBreaker: errors.NewCircuitBreaker("llm-client", errors.DefaultCircuitBreakerConfig()),
		logger:         logging.NewComponentLogger("llm-client"),
		cache:          cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send POSTs jsonBody to the endpoint and returns the extracted text.
// Transient failures (5xx, timeouts, connection errors) are retried
// with exponential backoff behind a circuit breaker; permanent
// failures (4xx other than 429) fail immediately.
func (c *Client) Send(ctx context.Context, jsonBody []byte) (string, error) {
	requestID := uuid.NewString()
	cacheKey := string(jsonBody)

	if cached, ok := c.cache.Get(cacheKey); ok {
		c.logger.Debug("llm request %s served from cache", requestID)
		return cached, nil
	}

	result, err := errors.RetryWithResultAndLog(ctx, c.retryConfig, func(ctx context.Context) (string, error) {
		return errors.ExecuteFunc(c.circuitBreaker, ctx, func(ctx context.Context) (string, error) {
			text, err := c.doRequest(ctx, jsonBody, requestID)
			if err != nil {
				return "", classify(err)
			}
			return text, nil
		})
	}, c.logger)

	if err != nil {
		if errors.IsDegraded(err) {
			return "", &Error{Cause: fmt.Errorf("%s", errors.FormatForLLM(err))}
		}
		return "", &Error{Cause: err}
	}

	c.cache.Add(cacheKey, result)
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, jsonBody []byte, requestID string) (_ string, err error) {
	spanCtx, span := otel.Tracer(traceScope).Start(ctx, traceSpanLLM, trace.WithAttributes(
		attribute.String("termaite.llm.request_id", requestID),
		attribute.String("termaite.llm.endpoint", c.endpoint),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()
	ctx = spanCtx

	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transport error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var doc any
	if err := jsonx.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("non-JSON response body: %w", err)
	}

	text, err := ExtractString(doc, c.responsePath)
	if err != nil {
		return "", fmt.Errorf("response path %q: %w", c.responsePath, err)
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// classify turns a raw transport/HTTP error into a transient or
// permanent *errors classification so Retry/CircuitBreaker know what
// to do with it (grounded on the teacher's retry_client.go
// classifyLLMError).
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsPermanent(err) {
		return errors.NewPermanentError(err, errors.FormatForLLM(err))
	}
	if errors.IsTransient(err) {
		return errors.NewTransientError(err, errors.FormatForLLM(err))
	}
	return err
}
