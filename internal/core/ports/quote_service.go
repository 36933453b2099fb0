package ports

import (
	"context"

	"github.com/calcproject/freightcalc/internal/core/domain"
)

// QuoteService is the single entry point the transport layer calls.
type QuoteService interface {
	// Calculate fans the request out to all configured providers and returns
	// one quote per provider, sorted by carrier name. The slice length always
	// equals the number of configured providers regardless of failures.
	Calculate(ctx context.Context, req *domain.ShipmentRequest) []domain.Quote
}
