package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
)

// BundleService fetches every requested metric sequentially and keeps going past failures.
type BundleService struct {
	fetcher gains.Fetcher
	logger  *logging.Logger
}

func NewBundleService(fetcher gains.Fetcher, logger *logging.Logger) *BundleService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BundleService{fetcher: fetcher, logger: logger}
}

// FetchBundle returns the metrics that succeeded plus one note per metric that failed.
// A failing metric is left out of the bundle rather than stored as an empty row.
func (s *BundleService) FetchBundle(ctx context.Context, req gains.Request) (gains.Bundle, []string) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BundleService.FetchBundle")
	defer span.End()

	bundle := gains.NewBundle(req)
	metrics := req.SortedMetrics()
	if len(metrics) == 0 {
		return bundle, []string{"no metrics requested"}
	}

	notes := make([]string, 0)
	for _, metric := range metrics {
		row, err := s.fetcher.FetchGains(ctx, req.GroupID, metric, req.StartDate, req.EndDate)
		if err != nil {
			notes = append(notes, fmt.Sprintf("metric %s: %v", metric, err))
			s.logger.WarnContext(ctx, "fetch metric gains failed",
				"group_id", req.GroupID,
				"metric", metric,
				"error", err,
			)
			continue
		}
		if row == nil {
			row = gains.Row{}
		}
		bundle.Gains[metric] = row
	}

	bundle.Errors = append([]string(nil), notes...)
	s.logger.InfoContext(ctx, "metric bundle fetched",
		"group_id", req.GroupID,
		"requested", len(metrics),
		"succeeded", len(bundle.Gains),
		"failed", len(notes),
	)
	return bundle, notes
}
