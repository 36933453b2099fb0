package ports

import (
	"context"

	"github.com/calcproject/freightcalc/internal/core/domain"
)

// RateProvider is the contract every carrier integration implements.
//
// Quote never returns an error: every failure mode (authentication,
// location resolution, transport, response parsing) is captured into the
// returned Quote's Error field. Implementations must honour ctx
// cancellation on their network calls and must not share mutable state —
// one provider instance may be invoked from its own goroutine per request.
type RateProvider interface {
	// Name returns the stable carrier display name used as the sort key.
	Name() string
	// Quote produces exactly one quote for the given shipment.
	Quote(ctx context.Context, req *domain.ShipmentRequest) domain.Quote
}
