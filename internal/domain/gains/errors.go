package gains

import "github.com/cockroachdb/errors"

var (
	ErrMetricNotFound    = errors.New("metric not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrSourceUnavailable = errors.New("gains source unavailable")
)
