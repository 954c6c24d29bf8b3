package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/domain/eventlog"
)

const (
	colDate          = "Date"
	colPlayer        = "Player Name"
	colTeam          = "Team"
	colTile          = "Tile"
	colItem          = "Item Received"
	colPoints        = "Points"
	colAwardedPoints = "Awarded Points"

	excludedTeam = "-"
)

var requiredColumns = []string{colDate, colPlayer, colTeam, colTile, colItem}

// Day-first layouts, tried in order. ISO dates are accepted too.
var dateLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2.1.2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// LoadCSV parses a bingo submission export. Rows for team "-" are dropped, as are rows
// without a player or team. Awarded Points wins over Points when it has a value.
func LoadCSV(r io.Reader) ([]eventlog.Drop, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("event log is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	iDate, iPlayer, iTeam, iTile, iItem := idx(colDate), idx(colPlayer), idx(colTeam), idx(colTile), idx(colItem)
	iPoints, iAwarded := idx(colPoints), idx(colAwardedPoints)

	missing := make([]string, 0)
	for _, name := range requiredColumns {
		if idx(name) < 0 {
			missing = append(missing, name)
		}
	}
	if iPoints < 0 && iAwarded < 0 {
		missing = append(missing, colPoints)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %s; found: %s", strings.Join(missing, ", "), strings.Join(header, ", "))
	}

	drops := make([]eventlog.Drop, 0, 512)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		team := field(rec, iTeam)
		if team == excludedTeam {
			continue
		}

		points := parsePoints(field(rec, iPoints))
		if awarded := field(rec, iAwarded); awarded != "" {
			points = parsePoints(awarded)
		}

		drop := eventlog.Drop{
			Date:     parseDayFirst(field(rec, iDate)),
			Player:   field(rec, iPlayer),
			Team:     team,
			Category: field(rec, iTile),
			Item:     field(rec, iItem),
			Points:   points,
			Quantity: 1,
		}
		if drop.Validate() != nil {
			continue
		}
		drops = append(drops, drop)
	}
	return drops, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parsePoints(raw string) float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDayFirst returns the zero time when no layout matches.
func parseDayFirst(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
