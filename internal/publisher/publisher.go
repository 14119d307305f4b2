package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-crosspost/internal/logging"
	"github.com/goliatone/go-crosspost/internal/secrets"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

var (
	// ErrBaseURLRequired indicates a request without a destination.
	ErrBaseURLRequired = errors.New("publisher: base url required")
	// ErrAuthKeyRequired indicates an auth descriptor without a key name.
	ErrAuthKeyRequired = errors.New("publisher: auth key required")
)

// AuthLocation selects where the credential is injected.
type AuthLocation string

const (
	// AuthHeader places the credential in a request header.
	AuthHeader AuthLocation = "header"
	// AuthQuery places the credential in the query string.
	AuthQuery AuthLocation = "query"
)

// AuthDescriptor declares how a platform expects its credential: the
// injection location, the header or parameter name, and an optional scheme
// prefix rendered as "{prefix} {token}".
type AuthDescriptor struct {
	Location  AuthLocation `json:"location" yaml:"location"`
	Key       string       `json:"key" yaml:"key"`
	Prefix    string       `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	SecretKey string       `json:"secretKey" yaml:"secret_key"`
}

// Request is the declarative description of one publish call. The executor
// owns credential injection, serialization, and transport concerns so
// formatters stay free of HTTP details.
type Request struct {
	Method  string
	BaseURL string
	Headers map[string]string
	Query   map[string]string
	Body    map[string]any
	Auth    AuthDescriptor
}

// Error carries the upstream rejection so branch records can surface the
// platform's own diagnostics.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("publisher: upstream status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the rejection is worth retrying. Client errors
// other than throttling are deterministic and final.
func (e *Error) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Publisher executes declarative publish requests against platform APIs.
type Publisher struct {
	client   *http.Client
	secrets  *secrets.Cache
	logger   interfaces.Logger
	dryRun   bool
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures the publisher.
type Option func(*Publisher)

// WithHTTPClient swaps the transport client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Publisher) {
		if client != nil {
			p.client = client
		}
	}
}

// WithDryRun short-circuits execution before any network call.
func WithDryRun(enabled bool) Option {
	return func(p *Publisher) {
		p.dryRun = enabled
	}
}

// WithRetry sets the attempt budget and the initial backoff delay. The delay
// doubles between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(p *Publisher) {
		if attempts > 0 {
			p.attempts = attempts
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

// WithLogger sets the publish logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSleeper overrides the inter-attempt wait, used by tests to avoid real
// delays.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Publisher) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// New builds a publisher over the supplied secret cache.
func New(cache *secrets.Cache, opts ...Option) *Publisher {
	p := &Publisher{
		client:   &http.Client{Timeout: 30 * time.Second},
		secrets:  cache,
		logger:   logging.NoOp(),
		attempts: 3,
		backoff:  500 * time.Millisecond,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DryRunResponse is the fixed payload returned when dry-run is enabled. It
// satisfies every formatter's ResultURL reader so downstream stages exercise
// their real paths.
func DryRunResponse() map[string]any {
	return map[string]any{
		"url": "someUrl",
		"data": map[string]any{
			"createPublicationStory": map[string]any{
				"post": map[string]any{
					"slug": "someSlug",
				},
			},
		},
	}
}

// Publish resolves the credential, injects it per the auth descriptor, and
// executes the request. Transport faults and retryable upstream statuses are
// retried with doubling backoff; missing secrets and deterministic rejections
// fail immediately.
func (p *Publisher) Publish(ctx context.Context, req Request) (map[string]any, error) {
	if req.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if req.Auth.Key == "" {
		return nil, ErrAuthKeyRequired
	}

	token, err := p.secrets.Get(ctx, req.Auth.SecretKey)
	if err != nil {
		return nil, err
	}

	if p.dryRun {
		p.logger.Info("publish dry-run", "url", req.BaseURL)
		return DryRunResponse(), nil
	}

	target, headers, err := buildTarget(req, token)
	if err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("publisher: encode body: %w", err)
		}
	}

	delay := p.backoff
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		response, err := p.execute(ctx, req.Method, target, headers, body)
		if err == nil {
			return response, nil
		}
		lastErr = err

		var upstream *Error
		if errors.As(err, &upstream) && !upstream.Transient() {
			return nil, err
		}
		if attempt == p.attempts {
			break
		}

		p.logger.Warn("publish attempt failed, retrying",
			"url", req.BaseURL, "attempt", attempt, "error", err)
		if err := p.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}
	return nil, lastErr
}

func (p *Publisher) execute(ctx context.Context, method, target string, headers map[string]string, body []byte) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("publisher: build request: %w", err)
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	res, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("publisher: request failed: %w", err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("publisher: read response: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return nil, &Error{StatusCode: res.StatusCode, Body: string(payload)}
	}

	response := map[string]any{}
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &response); err != nil {
			return nil, fmt.Errorf("publisher: decode response: %w", err)
		}
	}
	return response, nil
}

// buildTarget injects the credential and merges declared query parameters
// onto the base URL, respecting a query string the base may already carry.
func buildTarget(req Request, token string) (string, map[string]string, error) {
	headers := make(map[string]string, len(req.Headers)+1)
	for key, value := range req.Headers {
		headers[key] = value
	}

	credential := token
	if req.Auth.Prefix != "" {
		credential = req.Auth.Prefix + " " + token
	}

	query := make(map[string]string, len(req.Query)+1)
	for key, value := range req.Query {
		query[key] = value
	}

	switch req.Auth.Location {
	case AuthQuery:
		query[req.Auth.Key] = credential
	case AuthHeader, "":
		headers[req.Auth.Key] = credential
	default:
		return "", nil, fmt.Errorf("publisher: unsupported auth location %q", req.Auth.Location)
	}

	target := req.BaseURL
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, key+"="+url.QueryEscape(query[key]))
		}

		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + strings.Join(pairs, "&")
	}
	return target, headers, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
