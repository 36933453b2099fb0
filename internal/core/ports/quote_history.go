package ports

import (
	"context"

	"github.com/calcproject/freightcalc/internal/core/domain"
)

// QuoteHistoryRepository persists aggregation outcomes for later review.
type QuoteHistoryRepository interface {
	Save(ctx context.Context, rec *domain.QuoteRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.QuoteRecord, error)
}
