package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	gainsmock "github.com/riskibarqy/bingo-stats/internal/mocks/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var (
	eventStart = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	eventEnd   = time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC)
)

func TestBundleService_FetchBundle_IsolatesPartialFailure(t *testing.T) {
	t.Parallel()

	fetcher := gainsmock.NewFetcher(t)
	fetcher.
		On("FetchGains", mock.Anything, int64(42), "vorkath", eventStart, eventEnd).
		Return(gains.Row{"thrayge": 12}, nil).
		Once()
	fetcher.
		On("FetchGains", mock.Anything, int64(42), "zulrah", eventStart, eventEnd).
		Return(gains.Row{}, errors.New("rate limited after 4 attempts")).
		Once()

	service := NewBundleService(fetcher, logging.NewNop())
	bundle, notes := service.FetchBundle(context.Background(), gains.Request{
		GroupID:   42,
		StartDate: eventStart,
		EndDate:   eventEnd,
		Metrics:   []string{"zulrah", "vorkath", "zulrah"},
	})

	if !bundle.Has("vorkath") || bundle.Gains["vorkath"]["thrayge"] != 12 {
		t.Fatalf("expected vorkath data, got %v", bundle.Gains)
	}
	if bundle.Has("zulrah") {
		t.Fatalf("failed metric must be absent from bundle")
	}
	if len(notes) != 1 || !strings.HasPrefix(notes[0], "metric zulrah: ") {
		t.Fatalf("expected exactly one zulrah note, got %v", notes)
	}
	if len(bundle.Errors) != 1 {
		t.Fatalf("expected bundle errors to mirror notes, got %v", bundle.Errors)
	}
	if bundle.GroupID != 42 || !bundle.Range.Start.Equal(eventStart) || !bundle.Range.End.Equal(eventEnd) {
		t.Fatalf("unexpected bundle provenance: %+v", bundle)
	}
}

func TestBundleService_FetchBundle_ContinuesAfterEveryFailure(t *testing.T) {
	t.Parallel()

	fetcher := gainsmock.NewFetcher(t)
	fetcher.
		On("FetchGains", mock.Anything, int64(42), mock.AnythingOfType("string"), eventStart, eventEnd).
		Return(gains.Row{}, errors.New("connection refused")).
		Times(3)

	service := NewBundleService(fetcher, logging.NewNop())
	bundle, notes := service.FetchBundle(context.Background(), gains.Request{
		GroupID:   42,
		StartDate: eventStart,
		EndDate:   eventEnd,
		Metrics:   []string{"c", "a", "b"},
	})

	if len(bundle.Gains) != 0 {
		t.Fatalf("expected empty bundle, got %v", bundle.Gains)
	}
	want := []string{"metric a: ", "metric b: ", "metric c: "}
	if len(notes) != len(want) {
		t.Fatalf("unexpected notes: %v", notes)
	}
	for i := range want {
		if !strings.HasPrefix(notes[i], want[i]) {
			t.Fatalf("note[%d]=%q, want prefix %q", i, notes[i], want[i])
		}
	}
}

func TestBundleService_FetchBundle_NoMetrics(t *testing.T) {
	t.Parallel()

	service := NewBundleService(gainsmock.NewFetcher(t), logging.NewNop())
	bundle, notes := service.FetchBundle(context.Background(), gains.Request{GroupID: 42})
	if len(bundle.Gains) != 0 || len(notes) != 1 {
		t.Fatalf("unexpected result: bundle=%v notes=%v", bundle.Gains, notes)
	}
}
