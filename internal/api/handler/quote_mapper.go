package handler

import (
	"math"

	"github.com/calcproject/freightcalc/internal/core/domain"
)

// toShipmentRequest converts the API request into the domain model,
// completing the cargo geometry: when a volume is given the sides of an
// equivalent cube are derived from it, otherwise the volume is derived from
// the three dimensions.
func toShipmentRequest(req *calculateQuotesRequest) *domain.ShipmentRequest {
	cargo := domain.Cargo{
		Weight: req.Cargo.Weight,
		Volume: req.Cargo.Volume,
		Length: req.Cargo.Length,
		Width:  req.Cargo.Width,
		Height: req.Cargo.Height,
	}
	if cargo.Volume == 0 {
		cargo.Volume = round(cargo.Length*cargo.Width*cargo.Height, 4)
	} else {
		side := round(math.Cbrt(cargo.Volume), 2)
		cargo.Length, cargo.Width, cargo.Height = side, side, side
	}

	return &domain.ShipmentRequest{
		DerivalCity:   req.DerivalCity,
		DerivalRegion: req.DerivalRegion,
		ArrivalCity:   req.ArrivalCity,
		ArrivalRegion: req.ArrivalRegion,
		Cargo:         cargo,
		ShipDate:      req.ShipDate,
	}
}

func toQuoteResponses(quotes []domain.Quote) []quoteResponse {
	out := make([]quoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = quoteResponse{
			CarrierName: q.CarrierName,
			Cost:        q.Cost,
			TransitDays: q.TransitDays,
			Error:       q.Error,
		}
	}
	return out
}

func toQuoteRecordResponse(rec *domain.QuoteRecord) quoteRecordResponse {
	return quoteRecordResponse{
		DerivalCity: rec.Request.DerivalCity,
		ArrivalCity: rec.Request.ArrivalCity,
		Weight:      rec.Request.Cargo.Weight,
		Volume:      rec.Request.Cargo.Volume,
		ShipDate:    rec.Request.ShipDate,
		Quotes:      toQuoteResponses(rec.Quotes),
		CreatedAt:   rec.CreatedAt,
	}
}

func round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
