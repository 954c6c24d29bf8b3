package eventlog

import (
	"fmt"
	"strings"
	"time"
)

// Drop is one cleaned row of the bingo event log.
type Drop struct {
	Date     time.Time
	Player   string
	Team     string
	Category string
	Item     string
	Points   float64
	Quantity int
}

func (d Drop) Validate() error {
	if strings.TrimSpace(d.Player) == "" {
		return fmt.Errorf("drop player is required")
	}
	if strings.TrimSpace(d.Team) == "" {
		return fmt.Errorf("drop team is required")
	}
	if d.Points < 0 {
		return fmt.Errorf("drop points must be >= 0")
	}
	return nil
}

// PointsByPlayer sums drop points per raw player name.
func PointsByPlayer(drops []Drop) map[string]float64 {
	out := make(map[string]float64)
	for _, d := range drops {
		out[d.Player] += d.Points
	}
	return out
}

// PointsByCategory sums drop points per player restricted to one category.
func PointsByCategory(drops []Drop, category string) map[string]float64 {
	out := make(map[string]float64)
	for _, d := range drops {
		if !strings.EqualFold(d.Category, category) {
			continue
		}
		out[d.Player] += d.Points
	}
	return out
}
