package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/bingo-stats/internal/domain/catalog"
	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/domain/identity"
	"github.com/riskibarqy/bingo-stats/internal/domain/spoon"
)

const mismatchPreviewLimit = 10

// SpoonEngine joins event points with WOM kill-count gains. It holds no mutable state.
type SpoonEngine struct {
	catalog catalog.Catalog
	aliases identity.AliasMap
}

func NewSpoonEngine(c catalog.Catalog) *SpoonEngine {
	return &SpoonEngine{catalog: c, aliases: c.Aliases()}
}

func (e *SpoonEngine) Catalog() catalog.Catalog {
	return e.catalog
}

// BuildSpoonIndex ranks every player in pointsByPlayer by points per kill over the
// supported subset of selectedMetrics.
func (e *SpoonEngine) BuildSpoonIndex(pointsByPlayer map[string]float64, selectedMetrics []string, bundle gains.Bundle) spoon.View {
	view := spoon.View{Range: bundle.Range, Rows: []spoon.Row{}, Notes: []string{}}

	supported, unsupported := e.filterMetrics(selectedMetrics)
	view.Metrics = supported
	if len(unsupported) > 0 {
		view.Notes = append(view.Notes, fmt.Sprintf("ignored unsupported metrics: %s", strings.Join(unsupported, ", ")))
	}

	totals := make(map[string]float64)
	loaded := 0
	for _, metric := range supported {
		if !bundle.Has(metric) {
			continue
		}
		loaded++
		for key, gained := range bundle.Gains[metric] {
			totals[key] += gained
		}
	}

	mismatched := make([]string, 0)
	for player, points := range pointsByPlayer {
		if strings.TrimSpace(player) == "" {
			continue
		}
		who := identity.NewPlayerIdentity(player, e.aliases)
		row := spoon.Row{
			Player:      who.Raw,
			ExternalKey: who.Key,
			Points:      points,
			KCGain:      totals[who.Key],
		}
		if row.KCGain > 0 {
			index := points / row.KCGain
			row.Index = &index
		} else if points > 0 {
			row.NoWOMData = true
			mismatched = append(mismatched, player)
		}
		view.Rows = append(view.Rows, row)
	}

	sort.SliceStable(view.Rows, func(i, j int) bool {
		return spoonRowLess(view.Rows[i], view.Rows[j])
	})
	assignDenseRanks(view.Rows)

	switch {
	case len(mismatched) == 0:
	case loaded == 0:
		// Nothing was fetched, so zero kill counts say nothing about player names.
		label := strings.Join(supported, ", ")
		if label == "" {
			label = "the selected metrics"
		}
		view.Notes = append(view.Notes, fmt.Sprintf(
			"no WOM gains loaded for %s: kill counts for %d player(s) with points are unknown, not zero",
			label, len(mismatched),
		))
	default:
		view.Notes = append(view.Notes, mismatchNote(mismatched))
	}
	return view
}

func (e *SpoonEngine) filterMetrics(selected []string) ([]string, []string) {
	seen := make(map[string]struct{}, len(selected))
	supported := make([]string, 0, len(selected))
	unsupported := make([]string, 0)
	for _, metric := range selected {
		metric = strings.TrimSpace(metric)
		if metric == "" {
			continue
		}
		if _, ok := seen[metric]; ok {
			continue
		}
		seen[metric] = struct{}{}
		if e.catalog.IsSupported(metric) {
			supported = append(supported, metric)
		} else {
			unsupported = append(unsupported, metric)
		}
	}
	return supported, unsupported
}

// spoonRowLess orders by index desc with undefined last, then points desc, then name.
// An index of 0 is defined and so ranks above undefined.
func spoonRowLess(a, b spoon.Row) bool {
	if a.HasIndex() != b.HasIndex() {
		return a.HasIndex()
	}
	if a.HasIndex() && *a.Index != *b.Index {
		return *a.Index > *b.Index
	}
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	return a.Player < b.Player
}

func sameStanding(a, b spoon.Row) bool {
	if a.HasIndex() != b.HasIndex() {
		return false
	}
	if a.HasIndex() && *a.Index != *b.Index {
		return false
	}
	return a.Points == b.Points
}

func assignDenseRanks(rows []spoon.Row) {
	rank := 0
	for i := range rows {
		if i == 0 || !sameStanding(rows[i-1], rows[i]) {
			rank++
		}
		rows[i].Rank = rank
	}
}

func mismatchNote(players []string) string {
	sort.Strings(players)
	preview := players
	suffix := ""
	if len(preview) > mismatchPreviewLimit {
		suffix = fmt.Sprintf(" (+%d more)", len(players)-mismatchPreviewLimit)
		preview = preview[:mismatchPreviewLimit]
	}
	return fmt.Sprintf(
		"possible name mismatch: %d player(s) have points but no WOM kill count: %s%s. Add their RSN to the alias map if it differs from the event log name.",
		len(players), strings.Join(preview, ", "), suffix,
	)
}
