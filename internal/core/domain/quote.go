package domain

import (
	"errors"
	"fmt"
	"time"
)

// CostUnavailable is the sentinel rendered in place of a cost or transit time
// when a carrier failed. The operator-facing table shows it verbatim.
const CostUnavailable = "Ошибка"

// ErrorKind classifies a carrier failure. Kinds are stable identifiers used
// as metric labels; the operator-facing text lives in CarrierError.Message.
type ErrorKind string

const (
	KindConnection      ErrorKind = "connection_error"
	KindLocationUnknown ErrorKind = "location_not_found"
	KindNoCoverage      ErrorKind = "no_coverage"
	KindAmbiguous       ErrorKind = "ambiguous_location"
	KindCalculationData ErrorKind = "calculation_data_error"
	KindTimeout         ErrorKind = "timeout"
	KindInternal        ErrorKind = "internal_error"
)

// CarrierError is the terminal failure state of one carrier integration
// within one request. It is carried as data, never across the
// provider/aggregator boundary as a raised error.
type CarrierError struct {
	Kind    ErrorKind
	Message string
}

func (e *CarrierError) Error() string { return e.Message }

// ConnectionFailed covers transport failures and non-2xx responses.
func ConnectionFailed() *CarrierError {
	return &CarrierError{Kind: KindConnection, Message: "Ошибка соединения"}
}

// CalculationFailed is the connection-class failure of the calculation
// endpoint itself.
func CalculationFailed() *CarrierError {
	return &CarrierError{Kind: KindConnection, Message: "Ошибка расчета"}
}

// NoTerminal reports a city the carrier's directory knows but does not serve.
func NoTerminal(city string) *CarrierError {
	return &CarrierError{Kind: KindNoCoverage, Message: fmt.Sprintf("%s: нет терминала", city)}
}

// NoTerminalForRegion reports that no directory candidate for city matched
// the supplied region.
func NoTerminalForRegion(city, region string) *CarrierError {
	return &CarrierError{Kind: KindNoCoverage, Message: fmt.Sprintf("%s (%s): нет терминала", city, region)}
}

// NoDelivery reports a city absent from the carrier's directory entirely.
func NoDelivery(city string) *CarrierError {
	return &CarrierError{Kind: KindLocationUnknown, Message: fmt.Sprintf("%s: нет доставки", city)}
}

// RegionRequired reports multiple directory candidates and no region to
// disambiguate them.
func RegionRequired() *CarrierError {
	return &CarrierError{Kind: KindAmbiguous, Message: "Уточните регионы"}
}

// BadCalculationData reports a calculation response that was received but
// lacked an expected field or failed post-processing.
func BadCalculationData() *CarrierError {
	return &CarrierError{Kind: KindCalculationData, Message: "Ошибка расчета данных"}
}

// DeadlineExceeded reports a provider still pending when the aggregation
// deadline fired.
func DeadlineExceeded() *CarrierError {
	return &CarrierError{Kind: KindTimeout, Message: "Превышено время ожидания ответа"}
}

// Cargo describes the freight being quoted. Weight is always positive;
// either Volume or all three dimensions are populated before a request
// reaches a provider (the API layer derives the missing side).
type Cargo struct {
	Weight float64 `json:"weight" bson:"weight"`
	Volume float64 `json:"volume" bson:"volume"`
	Length float64 `json:"length" bson:"length"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// ShipmentRequest is the immutable input shared read-only by all providers
// during one aggregation call.
type ShipmentRequest struct {
	DerivalCity   string `json:"derival_city" bson:"derival_city"`
	DerivalRegion string `json:"derival_region,omitempty" bson:"derival_region,omitempty"`
	ArrivalCity   string `json:"arrival_city" bson:"arrival_city"`
	ArrivalRegion string `json:"arrival_region,omitempty" bson:"arrival_region,omitempty"`
	Cargo         Cargo  `json:"cargo" bson:"cargo"`
	// ShipDate is the planned hand-over date, ISO "2006-01-02".
	ShipDate string `json:"ship_date" bson:"ship_date"`
}

// Quote is the outcome of one provider for one request. Exactly one of
// {numeric Cost, non-empty Error} holds; on failure Cost and TransitDays
// carry the CostUnavailable sentinel so the caller can render a uniform row.
type Quote struct {
	CarrierName string    `json:"carrier_name" bson:"carrier_name"`
	Cost        string    `json:"cost" bson:"cost"`
	TransitDays string    `json:"transit_days" bson:"transit_days"`
	Error       string    `json:"error,omitempty" bson:"error,omitempty"`
	Kind        ErrorKind `json:"-" bson:"error_kind,omitempty"`
}

// Failed reports whether the quote carries an error instead of a cost.
func (q Quote) Failed() bool { return q.Error != "" }

// SuccessQuote builds a quote with the cost formatted to two decimals.
func SuccessQuote(carrier string, cost float64, transitDays string) Quote {
	return Quote{
		CarrierName: carrier,
		Cost:        FormatCost(cost),
		TransitDays: transitDays,
	}
}

// FailedQuote builds an error-flagged quote from any error. CarrierError
// kinds pass through; anything else is classified as internal.
func FailedQuote(carrier string, err error) Quote {
	q := Quote{
		CarrierName: carrier,
		Cost:        CostUnavailable,
		TransitDays: CostUnavailable,
		Kind:        KindInternal,
		Error:       err.Error(),
	}
	var ce *CarrierError
	if errors.As(err, &ce) {
		q.Kind = ce.Kind
		q.Error = ce.Message
	}
	return q
}

// FormatCost renders an amount as a fixed two-decimal string.
func FormatCost(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// QuoteRecord is one persisted aggregation outcome. The storage layer owns
// the document shape; ID is the hex form of the stored id.
type QuoteRecord struct {
	ID        string          `json:"id,omitempty"`
	Request   ShipmentRequest `json:"request"`
	Quotes    []Quote         `json:"quotes"`
	CreatedAt time.Time       `json:"created_at"`
}
