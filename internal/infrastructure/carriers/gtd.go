package carriers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/core/ports"
	"github.com/calcproject/freightcalc/internal/infrastructure/config"
)

// API reference: https://gtdel.com/developers/api-doc

const (
	gtdName    = "GTD"
	gtdBaseURL = "https://capi.gtdel.com/1.0"

	// The carrier prices a shipment as itemised services; only the transport
	// legs count toward the quoted cost.
	gtdServiceIntercity = "S031"
	gtdServicePickup    = "S039"
)

// GTD quotes city-to-city delivery. The carrier has no search endpoint; the
// full city directory is fetched and scanned by name prefix.
type GTD struct {
	cfg     config.GTDConfig
	baseURL string
	client  *httpClient
	cache   ports.LocationCache
	log     zerolog.Logger
}

func NewGTD(cfg config.GTDConfig, cache ports.LocationCache, log zerolog.Logger) *GTD {
	return &GTD{
		cfg:     cfg,
		baseURL: gtdBaseURL,
		client:  newHTTPClient(gtdName, log),
		cache:   cache,
		log:     log,
	}
}

func (g *GTD) Name() string { return gtdName }

func (g *GTD) Quote(ctx context.Context, req *domain.ShipmentRequest) domain.Quote {
	derivalCode, arrivalCode, err := g.cityCodes(ctx, req.DerivalCity, req.ArrivalCity)
	if err != nil {
		return domain.FailedQuote(gtdName, err)
	}

	body := map[string]any{
		"city_pickup_code":   derivalCode,
		"city_delivery_code": arrivalCode,
		"declared_price":     100,
		"pick_up":            0,
		"delivery":           0,
		"insurance":          0,
		"have_doc":           0,
		"places": []map[string]any{{
			"count_place": 1,
			// Directory dimensions are metres; the calculator wants centimetres.
			"height": req.Cargo.Height * 100,
			"width":  req.Cargo.Width * 100,
			"length": req.Cargo.Length * 100,
			"weight": req.Cargo.Weight,
			"volume": req.Cargo.Volume,
		}},
	}

	var resp []gtdCalcResult
	if err := g.client.postJSON(ctx, g.baseURL+"/order/calculate", body, &resp,
		withHeader("Authorization", "Bearer "+g.cfg.APIKey)); err != nil {
		return domain.FailedQuote(gtdName, err)
	}

	return g.normalize(resp)
}

// cityCodes resolves both cities in a single directory fetch. Cached codes
// are reused; the directory download is skipped entirely when both cities
// were resolved before.
func (g *GTD) cityCodes(ctx context.Context, derivalCity, arrivalCity string) (json.Number, json.Number, error) {
	var cities []struct {
		Name string      `json:"name"`
		Code json.Number `json:"code"`
	}
	fetched := false
	fetch := func(ctx context.Context) error {
		if fetched {
			return nil
		}
		if err := g.client.postJSON(ctx, g.baseURL+"/tdd/city/get-list/", nil, &cities,
			withHeader("Authorization", "Bearer "+g.cfg.APIKey)); err != nil {
			return err
		}
		fetched = true
		return nil
	}

	lookup := func(city string) (string, error) {
		return resolveCached(ctx, g.cache, gtdName, city, func(ctx context.Context) (string, error) {
			if err := fetch(ctx); err != nil {
				return "", err
			}
			prefix := strings.ToLower(city)
			for _, c := range cities {
				if strings.HasPrefix(strings.ToLower(c.Name), prefix) {
					return c.Code.String(), nil
				}
			}
			return "", domain.NoDelivery(city)
		})
	}

	derivalCode, err := lookup(derivalCity)
	if err != nil {
		return "", "", err
	}
	arrivalCode, err := lookup(arrivalCity)
	if err != nil {
		return "", "", err
	}
	return json.Number(derivalCode), json.Number(arrivalCode), nil
}

type gtdCalcResult struct {
	Standart *struct {
		Time   textValue `json:"time"`
		Detail []struct {
			Code  string  `json:"code"`
			Price float64 `json:"price"`
		} `json:"detail"`
	} `json:"standart"`
}

func (g *GTD) normalize(resp []gtdCalcResult) domain.Quote {
	if len(resp) == 0 || resp[0].Standart == nil {
		return domain.FailedQuote(gtdName, domain.BadCalculationData())
	}
	var cost float64
	for _, service := range resp[0].Standart.Detail {
		if service.Code == gtdServiceIntercity || service.Code == gtdServicePickup {
			cost += service.Price
		}
	}
	return domain.SuccessQuote(gtdName, cost, resp[0].Standart.Time.String())
}
