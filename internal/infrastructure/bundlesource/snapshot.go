package bundlesource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/domain/identity"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/riskibarqy/bingo-stats/internal/platform/metrics"
)

const availablePreviewLimit = 8

// Snapshot load results recorded as metric labels.
const (
	snapshotResultOK       = "ok"
	snapshotResultMissing  = "missing"
	snapshotResultInvalid  = "invalid"
	snapshotResultMismatch = "mismatch"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SnapshotSource reads a bundle from a JSON file refreshed out-of-band. It never writes.
type SnapshotSource struct {
	path     string
	metrics  *metrics.Recorder
	logger   *logging.Logger
	readFile func(string) ([]byte, error)
}

func NewSnapshotSource(path string, recorder *metrics.Recorder, logger *logging.Logger) *SnapshotSource {
	if logger == nil {
		logger = logging.Default()
	}
	return &SnapshotSource{
		path:     strings.TrimSpace(path),
		metrics:  recorder,
		logger:   logger,
		readFile: os.ReadFile,
	}
}

func (s *SnapshotSource) Path() string {
	return s.path
}

// LoadBundle returns the requested metrics found in the file. Provenance that differs
// from the request is reported in the notes; the stored data is still returned.
func (s *SnapshotSource) LoadBundle(ctx context.Context, req gains.Request) (gains.Bundle, []string) {
	bundle := gains.NewBundle(req)
	notes := make([]string, 0)

	raw, err := s.readFile(s.path)
	if err != nil {
		s.metrics.IncSnapshotLoad(snapshotResultMissing)
		s.logger.WarnContext(ctx, "snapshot file unreadable", "path", s.path, "error", err)
		return bundle, append(notes, fmt.Sprintf("snapshot file %s could not be read: %v", s.path, err))
	}

	var snap gains.Snapshot
	if err := sonic.Unmarshal(bytes.TrimPrefix(raw, utf8BOM), &snap); err != nil {
		s.metrics.IncSnapshotLoad(snapshotResultInvalid)
		s.logger.WarnContext(ctx, "snapshot file invalid", "path", s.path, "error", err)
		return bundle, append(notes, fmt.Sprintf("snapshot file %s is not valid JSON: %v", s.path, err))
	}

	mismatch := false
	if snap.GroupID != req.GroupID {
		mismatch = true
		notes = append(notes, fmt.Sprintf("snapshot %s was recorded for group %d but group %d was requested", s.path, snap.GroupID, req.GroupID))
	}
	wantStart, wantEnd := formatDate(req.StartDate), formatDate(req.EndDate)
	gotStart, gotEnd := canonicalDate(snap.StartDate), canonicalDate(snap.EndDate)
	if gotStart != wantStart || gotEnd != wantEnd {
		mismatch = true
		notes = append(notes, fmt.Sprintf("snapshot %s covers %s..%s but %s..%s was requested", s.path, gotStart, gotEnd, wantStart, wantEnd))
	}
	if start, ok := parseDate(snap.StartDate); ok {
		bundle.Range.Start = start
	}
	if end, ok := parseDate(snap.EndDate); ok {
		bundle.Range.End = end
	}

	available := make([]string, 0, len(snap.Metrics))
	for metric := range snap.Metrics {
		available = append(available, metric)
	}
	sort.Strings(available)

	for _, metric := range req.SortedMetrics() {
		values, ok := snap.Metrics[metric]
		if !ok {
			notes = append(notes, missingMetricNote(s.path, metric, available))
			continue
		}
		bundle.Gains[metric] = normalizeRow(values)
	}

	if mismatch {
		s.metrics.IncSnapshotLoad(snapshotResultMismatch)
	} else {
		s.metrics.IncSnapshotLoad(snapshotResultOK)
	}
	if snap.GeneratedAt != "" {
		bundle.FetchID = "snapshot@" + snap.GeneratedAt
	}
	return bundle, notes
}

func missingMetricNote(path, metric string, available []string) string {
	if len(available) == 0 {
		return fmt.Sprintf("snapshot %s has no data for metric %s (available: none)", path, metric)
	}
	preview := available
	suffix := ""
	if len(preview) > availablePreviewLimit {
		suffix = fmt.Sprintf(" (+%d more)", len(available)-availablePreviewLimit)
		preview = preview[:availablePreviewLimit]
	}
	return fmt.Sprintf("snapshot %s has no data for metric %s (available: %s%s)", path, metric, strings.Join(preview, ", "), suffix)
}

// normalizeRow re-keys stored values through identity.Normalize so hand-edited files
// with raw names still join. Keys that collapse together are summed.
func normalizeRow(values map[string]float64) gains.Row {
	row := make(gains.Row, len(values))
	for name, v := range values {
		key := identity.Normalize(name)
		if key == "" {
			continue
		}
		row[key] += v
	}
	return row
}

var snapshotDateLayouts = []string{time.DateOnly, time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range snapshotDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func canonicalDate(raw string) string {
	if parsed, ok := parseDate(raw); ok {
		return formatDate(parsed)
	}
	return strings.TrimSpace(raw)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
