package gains

import "time"

// Snapshot is the on-disk form of a bundle, refreshed out-of-band.
type Snapshot struct {
	GroupID     int64                         `json:"group_id"`
	StartDate   string                        `json:"start_date"`
	EndDate     string                        `json:"end_date"`
	GeneratedAt string                        `json:"generated_at,omitempty"`
	Metrics     map[string]map[string]float64 `json:"metrics"`
}

// SnapshotFromBundle converts a fetched bundle into its file representation.
func SnapshotFromBundle(b Bundle, generatedAt time.Time) Snapshot {
	metrics := make(map[string]map[string]float64, len(b.Gains))
	for metric, row := range b.Gains {
		values := make(map[string]float64, len(row))
		for key, v := range row {
			values[key] = v
		}
		metrics[metric] = values
	}

	out := Snapshot{
		GroupID:   b.GroupID,
		StartDate: formatSnapshotDate(b.Range.Start),
		EndDate:   formatSnapshotDate(b.Range.End),
		Metrics:   metrics,
	}
	if !generatedAt.IsZero() {
		out.GeneratedAt = generatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func formatSnapshotDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
