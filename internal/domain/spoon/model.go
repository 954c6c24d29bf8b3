package spoon

import "github.com/riskibarqy/bingo-stats/internal/domain/gains"

// Row is one player's line in a category's spoon table.
//
// Index is nil when the player has no KC gain; that is distinct from an index of zero
// (kills with no points). NoWOMData marks players with points but no resolved KC.
type Row struct {
	Rank        int
	Player      string
	ExternalKey string
	Points      float64
	KCGain      float64
	Index       *float64
	NoWOMData   bool
}

func (r Row) HasIndex() bool {
	return r.Index != nil
}

// View is the reconciled spoon table for one category.
type View struct {
	Category string
	Metrics  []string
	Rows     []Row
	Range    gains.DateRange
	Notes    []string
}
