package memory

import (
	"time"

	"github.com/riskibarqy/bingo-stats/internal/domain/eventlog"
)

// SeedDrops is a small event log used when no export has been loaded, so a dev
// server has something to serve.
func SeedDrops() []eventlog.Drop {
	day := func(d, h int) time.Time {
		return time.Date(2026, time.January, d, h, 0, 0, 0, time.UTC)
	}
	return []eventlog.Drop{
		{Date: day(10, 19), Player: "Iron Thrage", Team: "Team A-Crimson", Category: "Dagannoth Kings", Item: "Berserker ring", Points: 5, Quantity: 1},
		{Date: day(11, 21), Player: "Iron Thrage", Team: "Team A-Crimson", Category: "Dagannoth Kings", Item: "Dragon axe", Points: 3, Quantity: 1},
		{Date: day(12, 8), Player: "Mr Bean", Team: "Team A-Crimson", Category: "Vorkath", Item: "Vorkath's head", Points: 2, Quantity: 1},
		{Date: day(12, 22), Player: "Lynx", Team: "Team B-Azure", Category: "Vorkath", Item: "Draconic visage", Points: 10, Quantity: 1},
		{Date: day(13, 17), Player: "Lynx", Team: "Team B-Azure", Category: "Dagannoth Kings", Item: "Archers ring", Points: 5, Quantity: 1},
		{Date: day(14, 20), Player: "Zezima", Team: "Team B-Azure", Category: "Zulrah", Item: "Tanzanite fang", Points: 4, Quantity: 1},
		{Date: day(15, 23), Player: "Zezima", Team: "Team B-Azure", Category: "Zulrah", Item: "Magic fang", Points: 4, Quantity: 1},
		{Date: day(16, 12), Player: "Mr Bean", Team: "Team A-Crimson", Category: "Zulrah", Item: "Serpentine visage", Points: 3, Quantity: 1},
	}
}
