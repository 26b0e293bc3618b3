package usecase

import (
	"context"
	"log/slog"
)

// Expand asks the expansion capability for related search phrases. The stage
// fails open: on any error the normalized query itself is the only phrase,
// which leaves the downstream mean vector unchanged.
func (uc *QueryUseCase) Expand(ctx context.Context, query string) []string {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.ExpandTimeout)
	defer cancel()

	terms, err := uc.expander.Expand(ctx, query)
	if err != nil {
		slog.Warn("expand_failed", "error", err)
		return []string{query}
	}
	if len(terms) == 0 {
		return []string{query}
	}
	return terms
}
