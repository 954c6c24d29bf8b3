package httpapi

import (
	"time"

	"github.com/riskibarqy/bingo-stats/internal/domain/eventlog"
	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/domain/spoon"
	"github.com/riskibarqy/bingo-stats/internal/usecase"
)

type summaryDTO struct {
	TotalDrops        int     `json:"totalDrops"`
	TotalPoints       float64 `json:"totalPoints"`
	MVPPlayer         string  `json:"mvpPlayer"`
	MVPPoints         float64 `json:"mvpPoints"`
	LeadingTeam       string  `json:"leadingTeam"`
	LeadingTeamPoints float64 `json:"leadingTeamPoints"`
}

type teamStandingDTO struct {
	Rank   int     `json:"rank"`
	Team   string  `json:"team"`
	Points float64 `json:"points"`
}

type playerStandingDTO struct {
	Rank   int     `json:"rank"`
	Player string  `json:"player"`
	Points float64 `json:"points"`
}

type itemCountDTO struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type dropDTO struct {
	Date     string  `json:"date,omitempty"`
	Player   string  `json:"player"`
	Team     string  `json:"team"`
	Category string  `json:"category"`
	Item     string  `json:"item"`
	Points   float64 `json:"points"`
}

type playerSummaryDTO struct {
	Player        string    `json:"player"`
	Submissions   int       `json:"submissions"`
	TotalPoints   float64   `json:"totalPoints"`
	FavouriteTile string    `json:"favouriteTile"`
	History       []dropDTO `json:"history"`
}

type dateRangeDTO struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type spoonRowDTO struct {
	Rank        int      `json:"rank"`
	Player      string   `json:"player"`
	ExternalKey string   `json:"externalKey"`
	Points      float64  `json:"points"`
	KCGain      float64  `json:"kcGain"`
	Index       *float64 `json:"index"`
	NoWOMData   bool     `json:"noWomData"`
}

type spoonViewDTO struct {
	Category string        `json:"category"`
	Metrics  []string      `json:"metrics"`
	Range    dateRangeDTO  `json:"range"`
	Rows     []spoonRowDTO `json:"rows"`
	Notes    []string      `json:"notes"`
}

type spoonOverviewDTO struct {
	Range dateRangeDTO   `json:"range"`
	Notes []string       `json:"notes"`
	Views []spoonViewDTO `json:"views"`
}

func summaryToDTO(v usecase.Summary) summaryDTO {
	return summaryDTO{
		TotalDrops:        v.TotalDrops,
		TotalPoints:       v.TotalPoints,
		MVPPlayer:         v.MVPPlayer,
		MVPPoints:         v.MVPPoints,
		LeadingTeam:       v.LeadingTeam,
		LeadingTeamPoints: v.LeadingTeamPoints,
	}
}

func dropsToDTO(drops []eventlog.Drop) []dropDTO {
	out := make([]dropDTO, 0, len(drops))
	for _, d := range drops {
		out = append(out, dropDTO{
			Date:     formatOptionalTime(d.Date),
			Player:   d.Player,
			Team:     d.Team,
			Category: d.Category,
			Item:     d.Item,
			Points:   d.Points,
		})
	}
	return out
}

func spoonViewToDTO(v spoon.View) spoonViewDTO {
	rows := make([]spoonRowDTO, 0, len(v.Rows))
	for _, r := range v.Rows {
		rows = append(rows, spoonRowDTO{
			Rank:        r.Rank,
			Player:      r.Player,
			ExternalKey: r.ExternalKey,
			Points:      r.Points,
			KCGain:      r.KCGain,
			Index:       r.Index,
			NoWOMData:   r.NoWOMData,
		})
	}
	return spoonViewDTO{
		Category: v.Category,
		Metrics:  nonNilStrings(v.Metrics),
		Range:    dateRangeToDTO(v.Range),
		Rows:     rows,
		Notes:    nonNilStrings(v.Notes),
	}
}

func dateRangeToDTO(r gains.DateRange) dateRangeDTO {
	return dateRangeDTO{Start: formatOptionalTime(r.Start), End: formatOptionalTime(r.End)}
}

func formatOptionalTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
