package carriers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/core/ports"
)

const (
	magicTransName    = "Magic Trans"
	magicTransBaseURL = "http://magic-trans.ru/api/v1"
)

// MagicTrans quotes delivery over the carrier's public dictionary/calculate
// endpoints. No credentials are required.
type MagicTrans struct {
	baseURL string
	client  *httpClient
	cache   ports.LocationCache
	log     zerolog.Logger
}

func NewMagicTrans(cache ports.LocationCache, log zerolog.Logger) *MagicTrans {
	return &MagicTrans{
		baseURL: magicTransBaseURL,
		client:  newHTTPClient(magicTransName, log),
		cache:   cache,
		log:     log,
	}
}

func (m *MagicTrans) Name() string { return magicTransName }

func (m *MagicTrans) Quote(ctx context.Context, req *domain.ShipmentRequest) domain.Quote {
	derivalID, err := m.cityID(ctx, req.DerivalCity)
	if err != nil {
		return domain.FailedQuote(magicTransName, err)
	}
	arrivalID, err := m.cityID(ctx, req.ArrivalCity)
	if err != nil {
		return domain.FailedQuote(magicTransName, err)
	}

	query := url.Values{
		"from":   {derivalID},
		"to":     {arrivalID},
		"count":  {"1"},
		"weight": {formatParam(req.Cargo.Weight)},
		"volume": {formatParam(req.Cargo.Volume)},
		"length": {formatParam(req.Cargo.Length)},
		"width":  {formatParam(req.Cargo.Width)},
		"height": {formatParam(req.Cargo.Height)},
	}
	var resp struct {
		Result *struct {
			Price json.Number `json:"price"`
			Days  json.Number `json:"days"`
		} `json:"result"`
	}
	if err := m.client.getJSON(ctx, m.baseURL+"/delivery/calculate", query, &resp); err != nil {
		return domain.FailedQuote(magicTransName, err)
	}

	if resp.Result == nil {
		return domain.FailedQuote(magicTransName, domain.BadCalculationData())
	}
	price, err := resp.Result.Price.Float64()
	if err != nil {
		return domain.FailedQuote(magicTransName, domain.BadCalculationData())
	}
	return domain.SuccessQuote(magicTransName, price, resp.Result.Days.String())
}

func (m *MagicTrans) cityID(ctx context.Context, city string) (string, error) {
	return resolveCached(ctx, m.cache, magicTransName, city, func(ctx context.Context) (string, error) {
		query := url.Values{"name": {strings.ToLower(city)}}
		var resp struct {
			Result []struct {
				ID json.Number `json:"id"`
			} `json:"result"`
		}
		if err := m.client.getJSON(ctx, m.baseURL+"/dictionary/getCityList", query, &resp); err != nil {
			return "", err
		}
		if len(resp.Result) == 0 {
			return "", domain.NoDelivery(city)
		}
		return resp.Result[0].ID.String(), nil
	})
}

func formatParam(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
