// Package carriers contains one adapter per external carrier API. Every
// adapter implements ports.RateProvider: it authenticates, resolves the
// origin and destination cities to carrier-specific location identifiers,
// builds the carrier's payload, calls the calculation endpoint, and
// normalises the idiosyncratic response into a domain.Quote. Adapters never
// return errors — all failure modes become error-flagged quotes.
package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/calcproject/freightcalc/internal/metrics"
	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/core/ports"
)

const (
	httpTimeout = 30 * time.Second

	breakerMaxRequests  = 3
	breakerInterval     = time.Minute
	breakerOpenTimeout  = 30 * time.Second
	breakerFailureTrips = 5
)

// httpClient wraps outbound carrier calls with a shared http.Client and a
// per-carrier circuit breaker, so a carrier that is down stops consuming
// its full timeout on every request.
type httpClient struct {
	carrier string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

func newHTTPClient(carrier string, log zerolog.Logger) *httpClient {
	settings := gobreaker.Settings{
		Name:        carrier,
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureTrips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("carrier", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("carrier circuit breaker state changed")
		},
	}
	return &httpClient{
		carrier: carrier,
		http:    &http.Client{Timeout: httpTimeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// requestOption mutates an outbound request before it is sent.
type requestOption func(*http.Request)

func withBasicAuth(user, password string) requestOption {
	return func(r *http.Request) { r.SetBasicAuth(user, password) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// do executes the request through the breaker and returns the body of a 200
// response. Transport failures, non-200 statuses, and an open breaker all
// map to the carrier connection error.
func (c *httpClient) do(req *http.Request) ([]byte, error) {
	body, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return raw, nil
	})
	if err != nil {
		result := "error"
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			result = "rejected"
		}
		metrics.CarrierRequestsTotal.WithLabelValues(c.carrier, result).Inc()
		c.log.Debug().Err(err).Str("url", req.URL.String()).Msg("carrier request failed")
		return nil, domain.ConnectionFailed()
	}
	metrics.CarrierRequestsTotal.WithLabelValues(c.carrier, "ok").Inc()
	return body.([]byte), nil
}

// postJSON sends payload as a JSON body and decodes a JSON response into out.
func (c *httpClient) postJSON(ctx context.Context, rawURL string, payload any, out any, opts ...requestOption) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.BadCalculationData()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return domain.ConnectionFailed()
	}
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	raw, err := c.do(req)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return domain.BadCalculationData()
		}
	}
	return nil
}

// getJSON sends a GET with query parameters and decodes a JSON response.
func (c *httpClient) getJSON(ctx context.Context, rawURL string, query url.Values, out any, opts ...requestOption) error {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.ConnectionFailed()
	}
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	raw, err := c.do(req)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return domain.BadCalculationData()
		}
	}
	return nil
}

// postXML sends a raw XML body and returns the raw response bytes.
func (c *httpClient) postXML(ctx context.Context, rawURL string, body string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(body))
	if err != nil {
		return nil, domain.ConnectionFailed()
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	return c.do(req)
}

// textValue decodes a JSON number or string into its textual form. Carriers
// report transit times as either, sometimes switching per route.
type textValue string

func (v *textValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = textValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = textValue(n.String())
	return nil
}

func (v textValue) String() string { return string(v) }

// resolveCached consults the location cache before invoking resolve, and
// stores a fresh result on a miss. A nil cache degrades to a direct call.
func resolveCached(ctx context.Context, cache ports.LocationCache, carrier, city string, resolve func(context.Context) (string, error)) (string, error) {
	if cache != nil {
		if code, ok := cache.GetCode(ctx, carrier, city); ok {
			return code, nil
		}
	}
	code, err := resolve(ctx)
	if err != nil {
		return "", err
	}
	if cache != nil {
		cache.SetCode(ctx, carrier, city, code)
	}
	return code, nil
}
