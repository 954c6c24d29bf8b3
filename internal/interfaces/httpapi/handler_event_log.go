package httpapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/bingo-stats/internal/domain/eventlog"
	eventloginfra "github.com/riskibarqy/bingo-stats/internal/infrastructure/eventlog"
	"github.com/riskibarqy/bingo-stats/internal/usecase"
)

const maxEventLogBytes = 16 << 20

type eventLogUploadRequest struct {
	Drops []dropInput `json:"drops" validate:"required,min=1,dive"`
}

type dropInput struct {
	Date     string  `json:"date" validate:"omitempty,max=40"`
	Player   string  `json:"player" validate:"required,max=64"`
	Team     string  `json:"team" validate:"required,max=128"`
	Category string  `json:"category" validate:"max=128"`
	Item     string  `json:"item" validate:"max=256"`
	Points   float64 `json:"points" validate:"gte=0"`
}

// UploadEventLog replaces the event log. It accepts the raw CSV export
// (text/csv or multipart field "file") or a JSON list of drops.
func (h *Handler) UploadEventLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UploadEventLog")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxEventLogBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		drops []eventlog.Drop
		err   error
	)
	switch mediaType {
	case "application/json":
		drops, err = h.decodeDropsJSON(r)
	case "multipart/form-data":
		drops, err = decodeDropsMultipart(r)
	default:
		drops, err = decodeDropsCSV(r.Body)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.leaderboard.ReplaceDrops(ctx, drops); err != nil {
		h.logger.WarnContext(ctx, "replace event log failed", "rows", len(drops), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "event log replaced", "rows", len(drops), "content_type", mediaType)
	writeSuccess(ctx, w, http.StatusOK, map[string]int{"rows": len(drops)})
}

func (h *Handler) decodeDropsJSON(r *http.Request) ([]eventlog.Drop, error) {
	var req eventLogUploadRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	if err := h.validateRequest(r.Context(), req); err != nil {
		return nil, err
	}

	out := make([]eventlog.Drop, 0, len(req.Drops))
	for i, in := range req.Drops {
		date, err := parseDropDate(in.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: drops[%d].date: %v", usecase.ErrInvalidInput, i, err)
		}
		if strings.TrimSpace(in.Team) == "-" {
			continue
		}
		out = append(out, eventlog.Drop{
			Date:     date,
			Player:   strings.TrimSpace(in.Player),
			Team:     strings.TrimSpace(in.Team),
			Category: strings.TrimSpace(in.Category),
			Item:     strings.TrimSpace(in.Item),
			Points:   in.Points,
			Quantity: 1,
		})
	}
	return out, nil
}

func decodeDropsMultipart(r *http.Request) ([]eventlog.Drop, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: multipart field \"file\" is required: %v", usecase.ErrInvalidInput, err)
	}
	defer file.Close()

	return decodeDropsCSV(file)
}

func decodeDropsCSV(body io.Reader) ([]eventlog.Drop, error) {
	drops, err := eventloginfra.LoadCSV(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return drops, nil
}

func parseDropDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339")
	}
	return parsed, nil
}
