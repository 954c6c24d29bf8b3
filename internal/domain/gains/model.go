package gains

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Row holds gained values for one metric keyed by normalized player key.
type Row map[string]float64

// Request identifies one bundle: a WOM group, a date range and a metric set.
type Request struct {
	GroupID   int64
	StartDate time.Time
	EndDate   time.Time
	Metrics   []string
}

// SortedMetrics returns the deduplicated, trimmed metric names in stable order.
func (r Request) SortedMetrics() []string {
	seen := make(map[string]struct{}, len(r.Metrics))
	out := make([]string, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// CacheKey identifies the request for the live cache.
func (r Request) CacheKey() string {
	return fmt.Sprintf("wom:%d:%s:%s:%s",
		r.GroupID,
		r.StartDate.UTC().Format(time.RFC3339),
		r.EndDate.UTC().Format(time.RFC3339),
		strings.Join(r.SortedMetrics(), ","),
	)
}

// DateRange is the window a bundle's gains were measured over.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (d DateRange) IsZero() bool {
	return d.Start.IsZero() && d.End.IsZero()
}

// Bundle is the set of gain rows fetched for one request. It is treated as immutable
// once returned by a Source.
type Bundle struct {
	GroupID int64
	Range   DateRange
	Gains   map[string]Row
	Errors  []string
	FetchID string
}

func NewBundle(req Request) Bundle {
	return Bundle{
		GroupID: req.GroupID,
		Range:   DateRange{Start: req.StartDate, End: req.EndDate},
		Gains:   make(map[string]Row),
	}
}

func (b Bundle) Has(metric string) bool {
	_, ok := b.Gains[metric]
	return ok
}

// Clone returns a deep copy so cached bundles cannot be mutated by callers.
func (b Bundle) Clone() Bundle {
	out := b
	out.Gains = make(map[string]Row, len(b.Gains))
	for metric, row := range b.Gains {
		cp := make(Row, len(row))
		for key, v := range row {
			cp[key] = v
		}
		out.Gains[metric] = cp
	}
	out.Errors = append([]string(nil), b.Errors...)
	return out
}

// Metrics lists the metrics present in the bundle in sorted order.
func (b Bundle) Metrics() []string {
	out := make([]string, 0, len(b.Gains))
	for m := range b.Gains {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Source loads a bundle for a request. Failures are reported as notes, never as errors.
type Source interface {
	LoadBundle(ctx context.Context, req Request) (Bundle, []string)
}

// Fetcher retrieves one metric's gains for a group over a date range.
type Fetcher interface {
	FetchGains(ctx context.Context, groupID int64, metric string, start, end time.Time) (Row, error)
}
