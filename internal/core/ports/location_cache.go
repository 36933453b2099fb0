package ports

import "context"

// LocationCache caches carrier-specific location codes resolved from free
// text, so repeated quotes for the same city skip a directory round trip.
// Implementations are best-effort: a miss or a cache outage must never fail
// a quote.
type LocationCache interface {
	// GetCode returns the cached code for carrier+city and whether it was found.
	GetCode(ctx context.Context, carrier, city string) (string, bool)
	// SetCode stores a resolved code. Errors are swallowed by the implementation.
	SetCode(ctx context.Context, carrier, city, code string)
}
