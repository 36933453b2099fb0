package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/metrics"
	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/core/ports"
)

const (
	defaultCarrierTimeout   = 20 * time.Second
	defaultAggregateTimeout = 30 * time.Second
	historySaveTimeout      = 5 * time.Second
)

// AggregatorOptions tunes the concurrency policy of the aggregator.
type AggregatorOptions struct {
	// CarrierTimeout bounds a single provider call so one slow carrier
	// cannot stall the aggregation.
	CarrierTimeout time.Duration
	// AggregateTimeout bounds the whole fan-out; providers still pending at
	// the deadline contribute a timeout-error quote.
	AggregateTimeout time.Duration
	// Now supplies the clock used for the default ship date. Defaults to
	// time.Now.
	Now func() time.Time
}

// Aggregator fans one shipment request out to every configured provider and
// joins the results into a single sorted sequence.
type Aggregator struct {
	providers []ports.RateProvider
	history   ports.QuoteHistoryRepository // optional
	opts      AggregatorOptions
	log       zerolog.Logger
}

// NewAggregator creates an Aggregator. history may be nil, in which case
// outcomes are not persisted.
func NewAggregator(providers []ports.RateProvider, history ports.QuoteHistoryRepository, opts AggregatorOptions, log zerolog.Logger) *Aggregator {
	if opts.CarrierTimeout <= 0 {
		opts.CarrierTimeout = defaultCarrierTimeout
	}
	if opts.AggregateTimeout <= 0 {
		opts.AggregateTimeout = defaultAggregateTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{providers: providers, history: history, opts: opts, log: log}
}

// Calculate runs all providers concurrently against req and returns exactly
// one quote per provider, sorted by carrier name. Completion order is
// nondeterministic; the sort makes the output stable. The request is shared
// read-only across providers, so it is copied before the ship date default
// is applied.
func (a *Aggregator) Calculate(ctx context.Context, req *domain.ShipmentRequest) []domain.Quote {
	start := time.Now()
	metrics.AggregationsTotal.Inc()

	shipment := *req
	if shipment.ShipDate == "" {
		shipment.ShipDate = a.opts.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.AggregateTimeout)
	defer cancel()

	// Buffered to the provider count so late finishers never block after
	// the deadline has fired and the collector has moved on.
	results := make(chan domain.Quote, len(a.providers))
	for _, p := range a.providers {
		go a.runProvider(ctx, p, &shipment, results)
	}

	pending := make(map[string]bool, len(a.providers))
	for _, p := range a.providers {
		pending[p.Name()] = true
	}

	quotes := make([]domain.Quote, 0, len(a.providers))
collect:
	for range a.providers {
		select {
		case q := <-results:
			delete(pending, q.CarrierName)
			quotes = append(quotes, q)
		case <-ctx.Done():
			break collect
		}
	}
	quotes = a.finish(quotes, results, pending)

	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].CarrierName < quotes[j].CarrierName
	})

	metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	a.saveHistory(&shipment, quotes)
	return quotes
}

// finish completes the quote slice after the collect loop ended. A result
// can already sit buffered when the deadline fires and the collector breaks
// out; those real quotes are consumed first, and only providers with nothing
// buffered get a synthesized timeout row.
func (a *Aggregator) finish(quotes []domain.Quote, results <-chan domain.Quote, pending map[string]bool) []domain.Quote {
	total := len(a.providers)
drain:
	for len(quotes) < total {
		select {
		case q := <-results:
			delete(pending, q.CarrierName)
			quotes = append(quotes, q)
		default:
			break drain
		}
	}
	for name := range pending {
		if len(quotes) == total {
			break
		}
		a.log.Warn().Str("carrier", name).Msg("carrier abandoned at aggregation deadline")
		quotes = append(quotes, domain.FailedQuote(name, domain.DeadlineExceeded()))
	}
	return quotes
}

func (a *Aggregator) runProvider(ctx context.Context, p ports.RateProvider, req *domain.ShipmentRequest, results chan<- domain.Quote) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.CarrierTimeout)
	defer cancel()

	start := time.Now()
	q := p.Quote(ctx, req)
	elapsed := time.Since(start)

	outcome := "success"
	if q.Failed() {
		outcome = string(q.Kind)
		a.log.Debug().
			Str("carrier", p.Name()).
			Str("error", q.Error).
			Dur("elapsed", elapsed).
			Msg("carrier quote failed")
	} else {
		a.log.Info().
			Str("carrier", p.Name()).
			Str("cost", q.Cost).
			Str("days", q.TransitDays).
			Dur("elapsed", elapsed).
			Msg("carrier quote")
	}
	metrics.CarrierQuotesTotal.WithLabelValues(p.Name(), outcome).Inc()
	metrics.CarrierQuoteDuration.WithLabelValues(p.Name()).Observe(elapsed.Seconds())

	results <- q
}

// saveHistory records the aggregation outcome best-effort. A history outage
// must never fail or delay a quote response, so the write runs detached from
// the request context.
func (a *Aggregator) saveHistory(req *domain.ShipmentRequest, quotes []domain.Quote) {
	if a.history == nil {
		return
	}
	rec := &domain.QuoteRecord{
		Request:   *req,
		Quotes:    quotes,
		CreatedAt: a.opts.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historySaveTimeout)
		defer cancel()
		if err := a.history.Save(ctx, rec); err != nil {
			a.log.Warn().Err(err).Msg("failed to save quote history")
		}
	}()
}
