package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/bingo-stats/internal/domain/eventlog"
)

// DropRepository keeps the current event log in memory. Replace swaps the whole log.
type DropRepository struct {
	mu    sync.RWMutex
	drops []eventlog.Drop
}

func NewDropRepository(drops []eventlog.Drop) *DropRepository {
	return &DropRepository{drops: append([]eventlog.Drop(nil), drops...)}
}

func (r *DropRepository) List(_ context.Context) ([]eventlog.Drop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]eventlog.Drop, 0, len(r.drops))
	out = append(out, r.drops...)
	return out, nil
}

func (r *DropRepository) ListByCategory(_ context.Context, category string) ([]eventlog.Drop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category = strings.TrimSpace(category)
	out := make([]eventlog.Drop, 0)
	for _, d := range r.drops {
		if strings.EqualFold(d.Category, category) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *DropRepository) ListByPlayer(_ context.Context, player string) ([]eventlog.Drop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	player = strings.TrimSpace(player)
	out := make([]eventlog.Drop, 0)
	for _, d := range r.drops {
		if d.Player == player {
			out = append(out, d)
		}
	}
	return out, nil
}

// Categories returns the distinct non-empty tiles in sorted order.
func (r *DropRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return distinctSorted(r.drops, func(d eventlog.Drop) string { return d.Category }), nil
}

func (r *DropRepository) Players(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return distinctSorted(r.drops, func(d eventlog.Drop) string { return d.Player }), nil
}

func (r *DropRepository) Replace(_ context.Context, drops []eventlog.Drop) error {
	cp := append([]eventlog.Drop(nil), drops...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.drops = cp
	return nil
}

func distinctSorted(drops []eventlog.Drop, pick func(eventlog.Drop) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, d := range drops {
		v := strings.TrimSpace(pick(d))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
