package wom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/riskibarqy/bingo-stats/internal/platform/resilience"
)

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func (r *recordedSleeps) snapshot() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

var (
	testStart = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC)
)

func newTestClient(baseURL string, sleeps *recordedSleeps) *Client {
	return NewClient(ClientConfig{
		BaseURL:     baseURL,
		APIKey:      "secret",
		UserAgent:   "bingo-stats-test",
		MaxAttempts: 4,
		BaseBackoff: 2 * time.Second,
		MinBackoff:  time.Second,
		Logger:      logging.NewNop(),
		Sleep:       sleeps.sleep,
	})
}

func TestFetchGains_SendsRequestAndParsesRows(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/groups/42/gained" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("metric"); got != "vorkath" {
			t.Errorf("unexpected metric: %s", got)
		}
		if got := r.URL.Query().Get("startDate"); got != "2026-01-10T00:00:00Z" {
			t.Errorf("unexpected startDate: %s", got)
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("unexpected api key header: %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "bingo-stats-test" {
			t.Errorf("unexpected user agent: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"player":{"username":"iron thrayge","displayName":"Iron Thrayge"},"data":{"gained":12}},
			{"player":{"displayName":"Bean"},"data":{"gained":3}}
		]`))
	}))
	defer server.Close()

	sleeps := &recordedSleeps{}
	row, err := newTestClient(server.URL, sleeps).FetchGains(context.Background(), 42, "vorkath", testStart, testEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row["ironthrayge"] != 12 || row["bean"] != 3 {
		t.Fatalf("unexpected row: %v", row)
	}
	if len(sleeps.snapshot()) != 0 {
		t.Fatalf("expected no retries")
	}
}

func TestFetchGains_RetriesRateLimitThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		case 3:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(`{"data":[{"displayName":"Zezima","gained":7}]}`))
		}
	}))
	defer server.Close()

	sleeps := &recordedSleeps{}
	row, err := newTestClient(server.URL, sleeps).FetchGains(context.Background(), 42, "zulrah", testStart, testEnd)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if row["zezima"] != 7 {
		t.Fatalf("unexpected row: %v", row)
	}

	want := []time.Duration{5 * time.Second, 4 * time.Second, time.Second}
	got := sleeps.snapshot()
	if len(got) != len(want) {
		t.Fatalf("unexpected sleeps: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sleep[%d]=%s, want %s", i, got[i], want[i])
		}
	}
}

func TestFetchGains_RateLimitExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sleeps := &recordedSleeps{}
	row, err := newTestClient(server.URL, sleeps).FetchGains(context.Background(), 42, "vorkath", testStart, testEnd)
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(row) != 0 {
		t.Fatalf("expected empty row, got %v", row)
	}
	if !crerr.Is(err, gains.ErrRateLimited) || !crerr.Is(err, resilience.ErrAttemptsExhausted) {
		t.Fatalf("expected rate limited exhaustion, got %v", err)
	}
	for _, want := range []string{"4 attempts", "group_id=42", "metric=vorkath", "startDate=2026-01-10T00:00:00Z", "endDate=2026-01-24T00:00:00Z"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err.Error(), want)
		}
	}
	if calls.Load() != 4 {
		t.Fatalf("expected 4 calls, got %d", calls.Load())
	}
	if len(sleeps.snapshot()) != 3 {
		t.Fatalf("expected 3 sleeps, got %v", sleeps.snapshot())
	}
}

func TestFetchGains_NotFoundIsTerminal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Invalid metric"}`))
	}))
	defer server.Close()

	row, err := newTestClient(server.URL, &recordedSleeps{}).FetchGains(context.Background(), 42, "not_a_boss", testStart, testEnd)
	if !crerr.Is(err, gains.ErrMetricNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("unexpected message: %v", err)
	}
	if len(row) != 0 || calls.Load() != 1 {
		t.Fatalf("expected single call and empty row, calls=%d row=%v", calls.Load(), row)
	}
}

func TestFetchGains_ServerErrorRetriesWithLinearBackoff(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"gains":[{"username":"Bean","gained":"4.5"}]}`))
	}))
	defer server.Close()

	sleeps := &recordedSleeps{}
	row, err := newTestClient(server.URL, sleeps).FetchGains(context.Background(), 42, "vorkath", testStart, testEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row["bean"] != 4.5 {
		t.Fatalf("unexpected row: %v", row)
	}
	got := sleeps.snapshot()
	if len(got) != 2 || got[0] != 2*time.Second || got[1] != 4*time.Second {
		t.Fatalf("unexpected sleeps: %v", got)
	}
}

func TestFetchGains_TransportFailureExhausts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	sleeps := &recordedSleeps{}
	_, err := newTestClient(baseURL, sleeps).FetchGains(context.Background(), 42, "vorkath", testStart, testEnd)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !crerr.Is(err, resilience.ErrAttemptsExhausted) {
		t.Fatalf("expected exhausted attempts, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 4 attempts") {
		t.Fatalf("unexpected message: %v", err)
	}
	if len(sleeps.snapshot()) != 3 {
		t.Fatalf("expected 3 sleeps, got %v", sleeps.snapshot())
	}
}

func TestFetchGains_ClientErrorIsTerminal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"startDate must be before endDate"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, &recordedSleeps{}).FetchGains(context.Background(), 42, "vorkath", testStart, testEnd)
	if err == nil || !strings.Contains(err.Error(), "status=400") || !strings.Contains(err.Error(), "startDate must be before endDate") {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one call, got %d", calls.Load())
	}
}

func TestFetchGains_UndecodableBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, &recordedSleeps{}).FetchGains(context.Background(), 42, "vorkath", testStart, testEnd)
	if err == nil || !strings.Contains(err.Error(), "decode wom payload") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchGains_CircuitBreakerRejectsWhileOpen(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:     server.URL,
		MaxAttempts: 1,
		Logger:      logging.NewNop(),
		Sleep:       (&recordedSleeps{}).sleep,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Hour,
		},
	})

	if _, err := client.FetchGains(context.Background(), 42, "vorkath", testStart, testEnd); err == nil {
		t.Fatalf("expected first call to fail")
	}
	_, err := client.FetchGains(context.Background(), 42, "vorkath", testStart, testEnd)
	if !crerr.Is(err, gains.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected breaker to stop the second call, calls=%d", calls.Load())
	}
}

func TestFetchGains_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	client := newTestClient("http://127.0.0.1:0", &recordedSleeps{})
	if _, err := client.FetchGains(context.Background(), 0, "vorkath", testStart, testEnd); err == nil {
		t.Fatalf("expected error for zero group id")
	}
	if _, err := client.FetchGains(context.Background(), 42, "  ", testStart, testEnd); err == nil {
		t.Fatalf("expected error for blank metric")
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	if d, ok := parseRetryAfter("3", now); !ok || d != 3*time.Second {
		t.Fatalf("seconds: got %s ok=%v", d, ok)
	}
	httpDate := now.Add(30 * time.Second).Format(http.TimeFormat)
	if d, ok := parseRetryAfter(httpDate, now); !ok || d != 30*time.Second {
		t.Fatalf("http date: got %s ok=%v", d, ok)
	}
	if _, ok := parseRetryAfter("", now); ok {
		t.Fatalf("expected empty header to be absent")
	}
	if _, ok := parseRetryAfter("soon", now); ok {
		t.Fatalf("expected garbage header to be absent")
	}
}

func TestNewClient_DoesNotMutateCallerHTTPClient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"displayName":"Bean","gained":3}]`))
	}))
	defer server.Close()

	caller := &http.Client{}
	client := NewClient(ClientConfig{
		HTTPClient:  caller,
		BaseURL:     server.URL,
		MaxAttempts: 1,
		Logger:      logging.NewNop(),
	})

	if caller.Timeout != 0 {
		t.Fatalf("caller client timeout was modified: %s", caller.Timeout)
	}
	if client.httpClient == caller || client.httpClient.Timeout != defaultTimeout {
		t.Fatalf("expected a private copy with the default timeout, got %s", client.httpClient.Timeout)
	}

	row, err := client.FetchGains(context.Background(), 42, "vorkath", testStart, testEnd)
	if err != nil {
		t.Fatalf("fetch gains: %v", err)
	}
	if row["bean"] != 3 {
		t.Fatalf("unexpected row: %v", row)
	}
}
