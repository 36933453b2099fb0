package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type cargoRequest struct {
	Weight float64 `json:"weight" validate:"required,gt=0,lte=99999"`
	Volume float64 `json:"volume" validate:"omitempty,gt=0,lte=9999"`
	Length float64 `json:"length" validate:"omitempty,gt=0,lte=9999"`
	Width  float64 `json:"width"  validate:"omitempty,gt=0,lte=9999"`
	Height float64 `json:"height" validate:"omitempty,gt=0,lte=9999"`
}

type calculateQuotesRequest struct {
	DerivalCity   string       `json:"derival_city"   validate:"required,max=100"`
	DerivalRegion string       `json:"derival_region" validate:"omitempty,max=100"`
	ArrivalCity   string       `json:"arrival_city"   validate:"required,max=100"`
	ArrivalRegion string       `json:"arrival_region" validate:"omitempty,max=100"`
	Cargo         cargoRequest `json:"cargo"          validate:"required"`
	ShipDate      string       `json:"ship_date"      validate:"omitempty,datetime=2006-01-02"`
}

// --- Response types ---
// Intentionally separate from domain types so the JSON contract is not
// coupled to internal changes.

// quoteResponse is one carrier row. Cost and TransitDays carry the "Ошибка"
// sentinel when Error is set, so the caller can always render a full table.
type quoteResponse struct {
	CarrierName string `json:"carrier_name"`
	Cost        string `json:"cost"`
	TransitDays string `json:"transit_days"`
	Error       string `json:"error,omitempty"`
}

type calculateQuotesResponse struct {
	ShipDate string          `json:"ship_date,omitempty"`
	Quotes   []quoteResponse `json:"quotes"`
}

type quoteRecordResponse struct {
	DerivalCity string          `json:"derival_city"`
	ArrivalCity string          `json:"arrival_city"`
	Weight      float64         `json:"weight"`
	Volume      float64         `json:"volume"`
	ShipDate    string          `json:"ship_date"`
	Quotes      []quoteResponse `json:"quotes"`
	CreatedAt   time.Time       `json:"created_at"`
}

type recentQuotesResponse struct {
	Data []quoteRecordResponse `json:"data"`
}
