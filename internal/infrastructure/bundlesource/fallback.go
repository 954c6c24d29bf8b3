package bundlesource

import (
	"context"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
)

// FallbackSource consults Primary first and only asks Fallback when Primary produced
// no metrics at all. Notes from both are kept in order.
type FallbackSource struct {
	Primary  gains.Source
	Fallback gains.Source
}

func (s FallbackSource) LoadBundle(ctx context.Context, req gains.Request) (gains.Bundle, []string) {
	bundle, notes := s.Primary.LoadBundle(ctx, req)
	if len(bundle.Gains) > 0 || s.Fallback == nil {
		return bundle, notes
	}

	fallback, fallbackNotes := s.Fallback.LoadBundle(ctx, req)
	return fallback, append(append([]string{}, notes...), fallbackNotes...)
}
