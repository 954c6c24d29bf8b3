package wom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/riskibarqy/bingo-stats/internal/platform/metrics"
	"github.com/riskibarqy/bingo-stats/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL     = "https://api.wiseoldman.net/v2"
	defaultUserAgent   = "bingo-stats/1.0"
	defaultTimeout     = 20 * time.Second
	defaultMaxAttempts = 4
	defaultBaseBackoff = 2 * time.Second
	defaultMinBackoff  = time.Second
	maxResponseBytes   = 6 << 20
)

var errWOMTransient = crerr.New("wom transient failure")

type ClientConfig struct {
	HTTPClient  *http.Client
	BaseURL     string
	APIKey      string
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	MinBackoff  time.Duration
	// RatePerMinute paces outbound requests. Zero disables pacing.
	RatePerMinute  float64
	Logger         *logging.Logger
	Metrics        *metrics.Recorder
	CircuitBreaker resilience.CircuitBreakerConfig
	// Sleep replaces the retry wait. Tests use it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	userAgent   string
	maxAttempts int
	baseBackoff time.Duration
	minBackoff  time.Duration
	limiter     *rate.Limiter
	logger      *logging.Logger
	metrics     *metrics.Recorder
	breaker     *resilience.CircuitBreaker
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		// Copy so the default timeout never leaks into the caller's client.
		clone := *cfg.HTTPClient
		httpClient = &clone
	} else {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerMinute/60), 1)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		userAgent:   userAgent,
		maxAttempts: positiveOr(cfg.MaxAttempts, defaultMaxAttempts),
		baseBackoff: durationOr(cfg.BaseBackoff, defaultBaseBackoff),
		minBackoff:  durationOr(cfg.MinBackoff, defaultMinBackoff),
		limiter:     limiter,
		logger:      logger,
		metrics:     cfg.Metrics,
		breaker:     resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		sleep:       cfg.Sleep,
		now:         now,
	}
}

// FetchGains returns the gained values of one metric for every member of the group
// over [start, end]. Every failure comes back as an error value, never a panic.
func (c *Client) FetchGains(ctx context.Context, groupID int64, metric string, start, end time.Time) (gains.Row, error) {
	metric = strings.TrimSpace(metric)
	if groupID <= 0 {
		return gains.Row{}, fmt.Errorf("group id must be greater than zero")
	}
	if metric == "" {
		return gains.Row{}, fmt.Errorf("metric is required")
	}

	if err := c.breaker.Allow(); err != nil {
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeCircuitOpen, 0)
		c.logger.WarnContext(ctx, "wom circuit breaker rejected request", "metric", metric, "state", c.breaker.State())
		return gains.Row{}, crerr.Mark(crerr.Wrap(err, "wise old man is temporarily unavailable"), gains.ErrSourceUnavailable)
	}

	startDate := start.UTC().Format(time.RFC3339)
	endDate := end.UTC().Format(time.RFC3339)
	values := url.Values{}
	values.Set("metric", metric)
	values.Set("startDate", startDate)
	values.Set("endDate", endDate)
	fullURL := fmt.Sprintf("%s/groups/%d/gained?%s", c.baseURL, groupID, values.Encode())

	var raw []byte
	retrier := resilience.Retrier{
		MaxAttempts: c.maxAttempts,
		Retryable:   isRetryable,
		Sleep:       c.sleep,
		Delay: func(attempt int, err error) time.Duration {
			delay := c.retryDelay(attempt, err)
			c.metrics.IncWOMRetry(outcomeOf(err))
			c.logger.WarnContext(ctx, "wom request failed, retrying",
				"metric", metric,
				"attempt", attempt,
				"delay", delay.String(),
				"error", err,
			)
			return delay
		},
	}
	attempts, err := retrier.Do(ctx, func(ctx context.Context, _ int) error {
		body, reqErr := c.executeRequest(ctx, fullURL, metric)
		if reqErr != nil {
			return reqErr
		}
		raw = body
		return nil
	})
	c.breaker.Record(isCircuitFailure(err))
	if err != nil {
		return gains.Row{}, c.describeFailure(ctx, err, attempts, groupID, metric, startDate, endDate)
	}

	row, err := parseGainsPayload(raw)
	if err != nil {
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeDecodeError, 0)
		return gains.Row{}, fmt.Errorf("decode wom payload metric=%s: %w", metric, err)
	}
	return row, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL, metric string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, crerr.Wrap(err, "wait for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	startedAt := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeTransport, c.now().Sub(startedAt))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, crerr.Mark(crerr.Wrap(err, "send request"), errWOMTransient)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	elapsed := c.now().Sub(startedAt)
	if readErr != nil {
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeTransport, elapsed)
		return nil, crerr.Mark(crerr.Wrap(readErr, "read response body"), errWOMTransient)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeSuccess, elapsed)
		return raw, nil
	}

	statusErr := &statusError{Code: resp.StatusCode, Body: abbreviateBody(raw)}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeNotFound, elapsed)
		return nil, crerr.Mark(statusErr, gains.ErrMetricNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		statusErr.RetryAfter, statusErr.HasRetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeRateLimited, elapsed)
		return nil, crerr.Mark(statusErr, gains.ErrRateLimited)
	case resp.StatusCode >= http.StatusInternalServerError:
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeServerError, elapsed)
		return nil, crerr.Mark(statusErr, errWOMTransient)
	default:
		c.metrics.ObserveWOMRequest(metric, metrics.OutcomeClientError, elapsed)
		return nil, statusErr
	}
}

func (c *Client) retryDelay(attempt int, err error) time.Duration {
	var statusErr *statusError
	if crerr.As(err, &statusErr) && statusErr.HasRetryAfter {
		if statusErr.RetryAfter < c.minBackoff {
			return c.minBackoff
		}
		return statusErr.RetryAfter
	}
	return resilience.LinearBackoff(c.baseBackoff)(attempt, err)
}

func (c *Client) describeFailure(ctx context.Context, err error, attempts int, groupID int64, metric, startDate, endDate string) error {
	exhausted := crerr.Is(err, resilience.ErrAttemptsExhausted)
	switch {
	case crerr.Is(err, gains.ErrMetricNotFound):
		return crerr.Mark(
			crerr.Newf("metric %q not found for group %d (HTTP 404)", metric, groupID),
			gains.ErrMetricNotFound,
		)
	case exhausted && crerr.Is(err, gains.ErrRateLimited):
		c.logger.WarnContext(ctx, "wom rate limit persisted", "metric", metric, "attempts", attempts)
		out := crerr.Newf(
			"rate limited by wise old man after %d attempts (group_id=%d metric=%s startDate=%s endDate=%s)",
			attempts, groupID, metric, startDate, endDate,
		)
		return crerr.Mark(crerr.Mark(out, gains.ErrRateLimited), resilience.ErrAttemptsExhausted)
	case exhausted:
		c.logger.WarnContext(ctx, "wom request failed", "metric", metric, "attempts", attempts, "error", err)
		return crerr.Wrapf(err, "wom request failed after %d attempts (group_id=%d metric=%s)", attempts, groupID, metric)
	default:
		return crerr.Wrapf(err, "wom request group_id=%d metric=%s", groupID, metric)
	}
}

type statusError struct {
	Code          int
	Body          string
	RetryAfter    time.Duration
	HasRetryAfter bool
}

func (e *statusError) Error() string {
	return fmt.Sprintf("wom status=%d body=%s", e.Code, e.Body)
}

func isRetryable(err error) bool {
	return crerr.Is(err, gains.ErrRateLimited) || crerr.Is(err, errWOMTransient)
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return isRetryable(err)
}

func outcomeOf(err error) string {
	var statusErr *statusError
	switch {
	case crerr.Is(err, gains.ErrRateLimited):
		return metrics.OutcomeRateLimited
	case crerr.As(err, &statusErr):
		return metrics.OutcomeServerError
	default:
		return metrics.OutcomeTransport
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(header string, now time.Time) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	if seconds, err := strconv.ParseFloat(header, 64); err == nil {
		if seconds < 0 {
			seconds = 0
		}
		return time.Duration(seconds * float64(time.Second)), true
	}
	if at, err := http.ParseTime(header); err == nil {
		delay := at.Sub(now)
		if delay < 0 {
			delay = 0
		}
		return delay, true
	}
	return 0, false
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
