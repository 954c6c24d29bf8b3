package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/usecase"
)

type spoonViewQuery struct {
	Category string   `validate:"required,max=128"`
	Source   string   `validate:"omitempty,oneof=auto snapshot live"`
	Metrics  []string `validate:"omitempty,max=64,dive,required,max=64"`
	Start    string   `validate:"omitempty,max=40"`
	End      string   `validate:"omitempty,max=40"`
}

type spoonOverviewQuery struct {
	Source string `validate:"omitempty,oneof=auto snapshot live"`
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCategories")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.spoon.CategoryMetrics())
}

func (h *Handler) ListAliases(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAliases")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.spoon.Aliases())
}

func (h *Handler) GetSpoonView(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSpoonView")
	defer span.End()

	query := r.URL.Query()
	q := spoonViewQuery{
		Category: strings.TrimSpace(r.PathValue("category")),
		Source:   strings.ToLower(strings.TrimSpace(query.Get("source"))),
		Metrics:  splitQueryList(query.Get("metrics")),
		Start:    strings.TrimSpace(query.Get("start")),
		End:      strings.TrimSpace(query.Get("end")),
	}
	if err := h.validateRequest(ctx, q); err != nil {
		writeError(ctx, w, err)
		return
	}

	start, err := parseQueryTime("start", q.Start)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	end, err := parseQueryTime("end", q.End)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.spoon.CategoryView(ctx, usecase.SpoonQuery{
		Category: q.Category,
		Source:   usecase.SourceMode(q.Source),
		Metrics:  q.Metrics,
		Start:    start,
		End:      end,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "get spoon view failed", "category", q.Category, "source", q.Source, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, spoonViewToDTO(view))
}

func (h *Handler) GetSpoonOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSpoonOverview")
	defer span.End()

	q := spoonOverviewQuery{Source: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("source")))}
	if err := h.validateRequest(ctx, q); err != nil {
		writeError(ctx, w, err)
		return
	}
	overview, err := h.spoon.Overview(ctx, usecase.SourceMode(q.Source))
	if err != nil {
		h.logger.WarnContext(ctx, "get spoon overview failed", "source", q.Source, "error", err)
		writeError(ctx, w, err)
		return
	}

	views := make([]spoonViewDTO, 0, len(overview.Views))
	for _, v := range overview.Views {
		views = append(views, spoonViewToDTO(v))
	}
	writeSuccess(ctx, w, http.StatusOK, spoonOverviewDTO{
		Range: dateRangeToDTO(overview.Range),
		Notes: nonNilStrings(overview.Notes),
		Views: views,
	})
}

func (h *Handler) InvalidateSpoonCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InvalidateSpoonCache")
	defer span.End()

	if h.liveCache == nil {
		writeError(ctx, w, fmt.Errorf("%w: live bundle cache is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	removed := h.liveCache.Invalidate(ctx)
	h.logger.InfoContext(ctx, "live bundle cache invalidated", "entries", removed)
	writeSuccess(ctx, w, http.StatusOK, map[string]int{"removed": removed})
}

func splitQueryList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseQueryTime accepts YYYY-MM-DD (UTC midnight) or RFC3339.
func parseQueryTime(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC3339", usecase.ErrInvalidInput, name)
	}
	return parsed, nil
}
