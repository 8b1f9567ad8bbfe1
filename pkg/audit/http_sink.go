package audit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
	defaultTimeout    = 10 * time.Second
)

// FailureCallback is invoked when an HTTPSinkBase exhausts its retries.
// body is the JSON payload that could not be delivered; lastErr is the
// final attempt's error.
type FailureCallback func(body []byte, lastErr error)

// HTTPSinkBase posts each event as JSON to a fixed URL with a fixed set of
// headers, retrying failed deliveries with doubling backoff. A delivery
// failure is never returned to the pipeline: Emit returns nil after
// logging through the configured logger and, if set, invoking OnFailure
// (only an event that cannot be marshaled is returned as an error),
// since losing one audit delivery must not block governance decisions —
// callers who need a hard guarantee should pair this with a FileSink.
type HTTPSinkBase struct {
	URL        string
	Headers    map[string]string
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
	OnFailure  FailureCallback
	Logger     *slog.Logger

	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPSinkBase builds a sink posting to url with the given headers,
// using the package defaults (3 retries, 1s base delay doubling,
// 10s total timeout) unless overridden on the returned value.
func NewHTTPSinkBase(url string, headers map[string]string) *HTTPSinkBase {
	return &HTTPSinkBase{
		URL:        url,
		Headers:    headers,
		MaxRetries: defaultMaxRetries,
		BaseDelay:  defaultBaseDelay,
		Timeout:    defaultTimeout,
		client:     &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(50), 50),
	}
}

func (s *HTTPSinkBase) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Close releases the sink's connection pool.
func (s *HTTPSinkBase) Close() {
	s.client.CloseIdleConnections()
}

func (s *HTTPSinkBase) Emit(ctx context.Context, event Event) error {
	body, err := event.MarshalJSONL()
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}
	// Strip the JSONL trailing newline; HTTP payloads are a bare JSON body.
	body = bytes.TrimRight(body, "\n")

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		s.logger().Warn("audit http sink: rate limit wait failed", "error", err)
		return nil
	}

	var lastErr error
	maxRetries := s.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := s.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

retryLoop:
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("build request: %w", err)
			break
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range s.Headers {
			req.Header.Set(k, v)
		}

		resp, err := s.client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		if attempt == maxRetries {
			break
		}
		delay := baseDelay * (1 << attempt)
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retryLoop
		case <-time.After(delay):
		}
	}

	s.logger().Error("audit http sink: delivery failed", "url", s.URL, "error", lastErr)
	if s.OnFailure != nil {
		s.OnFailure(body, lastErr)
	}
	return nil
}
