package bundlesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSnapshotFile_IsReadableBySnapshotSource(t *testing.T) {
	t.Parallel()

	req := testRequest("vorkath", "zulrah")
	live := gains.NewBundle(req)
	live.Gains["vorkath"] = gains.Row{"thrayge": 12}
	live.Gains["zulrah"] = gains.Row{"bean": 2}

	path := filepath.Join(t.TempDir(), "nested", "wom_snapshot.json")
	require.NoError(t, WriteSnapshotFile(path, gains.SnapshotFromBundle(live, time.Date(2026, 1, 25, 8, 0, 0, 0, time.UTC))))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")

	bundle, notes := NewSnapshotSource(path, nil, logging.NewNop()).LoadBundle(context.Background(), req)
	assert.Empty(t, notes)
	assert.Equal(t, 12.0, bundle.Gains["vorkath"]["thrayge"])
	assert.Equal(t, 2.0, bundle.Gains["zulrah"]["bean"])
}

func TestWriteSnapshotFile_ReplacesExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wom_snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	snap := gains.Snapshot{GroupID: 42, StartDate: "2026-01-10", EndDate: "2026-01-24", Metrics: map[string]map[string]float64{}}
	require.NoError(t, WriteSnapshotFile(path, snap))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"group_id": 42`)
}
