package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/riskibarqy/bingo-stats/internal/usecase"
)

// CacheInvalidator drops cached live bundles.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) int
}

type Handler struct {
	leaderboard *usecase.LeaderboardService
	spoon       *usecase.SpoonService
	liveCache   CacheInvalidator
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(
	leaderboard *usecase.LeaderboardService,
	spoon *usecase.SpoonService,
	liveCache CacheInvalidator,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leaderboard: leaderboard,
		spoon:       spoon,
		liveCache:   liveCache,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSummary")
	defer span.End()

	summary, err := h.leaderboard.Summary(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get summary failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summaryToDTO(summary))
}

func (h *Handler) ListTeamStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamStandings")
	defer span.End()

	standings, err := h.leaderboard.TeamStandings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list team standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamStandingDTO, 0, len(standings))
	for _, s := range standings {
		items = append(items, teamStandingDTO{Rank: s.Rank, Team: s.Team, Points: s.Points})
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

type topPlayersQuery struct {
	Limit int `validate:"omitempty,min=1,max=100"`
}

func (h *Handler) ListTopPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTopPlayers")
	defer span.End()

	var q topPlayersQuery
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		q.Limit = v
		if q.Limit == 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be positive", usecase.ErrInvalidInput))
			return
		}
	}
	if err := h.validateRequest(ctx, q); err != nil {
		writeError(ctx, w, err)
		return
	}

	standings, err := h.leaderboard.TopPlayers(ctx, q.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list top players failed", "limit", q.Limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerStandingDTO, 0, len(standings))
	for _, s := range standings {
		items = append(items, playerStandingDTO{Rank: s.Rank, Player: s.Player, Points: s.Points})
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTopItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTopItems")
	defer span.End()

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	items, err := h.leaderboard.TopItems(ctx, category)
	if err != nil {
		h.logger.WarnContext(ctx, "list top items failed", "category", category, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]itemCountDTO, 0, len(items))
	for _, item := range items {
		out = append(out, itemCountDTO{Item: item.Item, Count: item.Count})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListHighValueDrops(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHighValueDrops")
	defer span.End()

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	drops, err := h.leaderboard.HighValueDrops(ctx, category)
	if err != nil {
		h.logger.WarnContext(ctx, "list high value drops failed", "category", category, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dropsToDTO(drops))
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	players, err := h.leaderboard.Players(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, players)
}

// ListTiles returns the tiles present in the loaded event log.
func (h *Handler) ListTiles(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTiles")
	defer span.End()

	tiles, err := h.leaderboard.Categories(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tiles failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tiles)
}

func (h *Handler) GetPlayerSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerSummary")
	defer span.End()

	player := strings.TrimSpace(r.PathValue("player"))
	summary, err := h.leaderboard.PlayerSummary(ctx, player)
	if err != nil {
		h.logger.WarnContext(ctx, "get player summary failed", "player", player, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerSummaryDTO{
		Player:        summary.Player,
		Submissions:   summary.Submissions,
		TotalPoints:   summary.TotalPoints,
		FavouriteTile: summary.FavouriteTile,
		History:       dropsToDTO(summary.History),
	})
}
