package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/bingo-stats/internal/domain/eventlog"
)

const (
	CategoryAll              = "All"
	defaultTopPlayersLimit   = 10
	maxTopPlayersLimit       = 100
	topItemsLimit            = 15
	highValueDropsLimit      = 10
	highValuePointsThreshold = 5
)

type Summary struct {
	TotalDrops        int
	TotalPoints       float64
	MVPPlayer         string
	MVPPoints         float64
	LeadingTeam       string
	LeadingTeamPoints float64
}

type TeamStanding struct {
	Rank   int
	Team   string
	Points float64
}

type PlayerStanding struct {
	Rank   int
	Player string
	Points float64
}

type ItemCount struct {
	Item  string
	Count int
}

type PlayerSummary struct {
	Player        string
	Submissions   int
	TotalPoints   float64
	FavouriteTile string
	History       []eventlog.Drop
}

// CategoryAggregate is one category's points per raw player name.
type CategoryAggregate struct {
	Category       string
	PointsByPlayer map[string]float64
}

type LeaderboardService struct {
	dropRepo eventlog.Repository
}

func NewLeaderboardService(dropRepo eventlog.Repository) *LeaderboardService {
	return &LeaderboardService{dropRepo: dropRepo}
}

func (s *LeaderboardService) Summary(ctx context.Context) (Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Summary")
	defer span.End()

	drops, err := s.dropRepo.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list drops: %w", err)
	}

	out := Summary{TotalDrops: len(drops)}
	for _, d := range drops {
		out.TotalPoints += d.Points
	}
	out.MVPPlayer, out.MVPPoints = maxByKey(eventlog.PointsByPlayer(drops))

	byTeam := make(map[string]float64)
	for _, d := range drops {
		byTeam[d.Team] += d.Points
	}
	team, teamPoints := maxByKey(byTeam)
	out.LeadingTeam = teamDisplayName(team)
	out.LeadingTeamPoints = teamPoints
	return out, nil
}

func (s *LeaderboardService) TeamStandings(ctx context.Context) ([]TeamStanding, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.TeamStandings")
	defer span.End()

	drops, err := s.dropRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drops: %w", err)
	}

	byTeam := make(map[string]float64)
	for _, d := range drops {
		byTeam[d.Team] += d.Points
	}
	ranked := rankByPoints(byTeam)
	out := make([]TeamStanding, 0, len(ranked))
	for i, item := range ranked {
		out = append(out, TeamStanding{Rank: i + 1, Team: item.key, Points: item.points})
	}
	return out, nil
}

func (s *LeaderboardService) TopPlayers(ctx context.Context, limit int) ([]PlayerStanding, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.TopPlayers")
	defer span.End()

	if limit == 0 {
		limit = defaultTopPlayersLimit
	}
	if limit < 0 || limit > maxTopPlayersLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, maxTopPlayersLimit)
	}

	drops, err := s.dropRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drops: %w", err)
	}

	ranked := rankByPoints(eventlog.PointsByPlayer(drops))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]PlayerStanding, 0, len(ranked))
	for i, item := range ranked {
		out = append(out, PlayerStanding{Rank: i + 1, Player: item.key, Points: item.points})
	}
	return out, nil
}

// TopItems counts drops per item, most frequent first.
func (s *LeaderboardService) TopItems(ctx context.Context, category string) ([]ItemCount, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.TopItems")
	defer span.End()

	drops, err := s.dropsFor(ctx, category)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, d := range drops {
		if d.Item == "" {
			continue
		}
		counts[d.Item] += d.Quantity
	}
	out := make([]ItemCount, 0, len(counts))
	for item, count := range counts {
		out = append(out, ItemCount{Item: item, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Item < out[j].Item
	})
	if len(out) > topItemsLimit {
		out = out[:topItemsLimit]
	}
	return out, nil
}

// HighValueDrops lists drops worth at least five points, newest first. Undated drops go last.
func (s *LeaderboardService) HighValueDrops(ctx context.Context, category string) ([]eventlog.Drop, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.HighValueDrops")
	defer span.End()

	drops, err := s.dropsFor(ctx, category)
	if err != nil {
		return nil, err
	}

	out := make([]eventlog.Drop, 0)
	for _, d := range drops {
		if d.Points >= highValuePointsThreshold {
			out = append(out, d)
		}
	}
	sortNewestFirst(out)
	if len(out) > highValueDropsLimit {
		out = out[:highValueDropsLimit]
	}
	return out, nil
}

func (s *LeaderboardService) PlayerSummary(ctx context.Context, player string) (PlayerSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.PlayerSummary")
	defer span.End()

	player = strings.TrimSpace(player)
	if player == "" {
		return PlayerSummary{}, fmt.Errorf("%w: player is required", ErrInvalidInput)
	}

	drops, err := s.dropRepo.ListByPlayer(ctx, player)
	if err != nil {
		return PlayerSummary{}, fmt.Errorf("list drops by player: %w", err)
	}
	if len(drops) == 0 {
		return PlayerSummary{}, fmt.Errorf("%w: player=%s", ErrNotFound, player)
	}

	out := PlayerSummary{Player: player, Submissions: len(drops)}
	tiles := make(map[string]int)
	for _, d := range drops {
		out.TotalPoints += d.Points
		if d.Category != "" {
			tiles[d.Category]++
		}
	}
	out.FavouriteTile = modeOf(tiles)
	sortNewestFirst(drops)
	out.History = drops
	return out, nil
}

func (s *LeaderboardService) Players(ctx context.Context) ([]string, error) {
	players, err := s.dropRepo.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func (s *LeaderboardService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.dropRepo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CategoryPoints sums each player's points in one category. Players whose drops in the
// category scored zero are still present.
func (s *LeaderboardService) CategoryPoints(ctx context.Context, category string) (CategoryAggregate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.CategoryPoints")
	defer span.End()

	category = strings.TrimSpace(category)
	if category == "" {
		return CategoryAggregate{}, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	drops, err := s.dropRepo.ListByCategory(ctx, category)
	if err != nil {
		return CategoryAggregate{}, fmt.Errorf("list drops by category: %w", err)
	}
	return CategoryAggregate{
		Category:       category,
		PointsByPlayer: eventlog.PointsByCategory(drops, category),
	}, nil
}

func (s *LeaderboardService) ReplaceDrops(ctx context.Context, drops []eventlog.Drop) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.ReplaceDrops")
	defer span.End()

	if len(drops) == 0 {
		return fmt.Errorf("%w: event log has no usable rows", ErrInvalidInput)
	}
	if err := s.dropRepo.Replace(ctx, drops); err != nil {
		return fmt.Errorf("replace drops: %w", err)
	}
	return nil
}

func (s *LeaderboardService) dropsFor(ctx context.Context, category string) ([]eventlog.Drop, error) {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		drops, err := s.dropRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list drops: %w", err)
		}
		return drops, nil
	}
	drops, err := s.dropRepo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list drops by category: %w", err)
	}
	return drops, nil
}

type keyedPoints struct {
	key    string
	points float64
}

// rankByPoints orders keys by points desc, then key asc.
func rankByPoints(points map[string]float64) []keyedPoints {
	out := make([]keyedPoints, 0, len(points))
	for key, v := range points {
		out = append(out, keyedPoints{key: key, points: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].points != out[j].points {
			return out[i].points > out[j].points
		}
		return out[i].key < out[j].key
	})
	return out
}

func maxByKey(points map[string]float64) (string, float64) {
	ranked := rankByPoints(points)
	if len(ranked) == 0 {
		return "", 0
	}
	return ranked[0].key, ranked[0].points
}

// modeOf returns the most frequent key; ties go to the alphabetically first.
func modeOf(counts map[string]int) string {
	best, bestCount := "", 0
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best, bestCount = key, count
		}
	}
	return best
}

// teamDisplayName drops the suffix after the first dash, e.g. "Team A-Crimson" -> "Team A".
func teamDisplayName(team string) string {
	name, _, _ := strings.Cut(team, "-")
	return strings.TrimSpace(name)
}

func sortNewestFirst(drops []eventlog.Drop) {
	sort.SliceStable(drops, func(i, j int) bool {
		a, b := drops[i].Date, drops[j].Date
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.After(b)
	})
}
