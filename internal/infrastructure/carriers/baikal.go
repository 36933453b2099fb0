package carriers

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/core/ports"
	"github.com/calcproject/freightcalc/internal/infrastructure/config"
)

const (
	baikalName    = "Байкал Сервис"
	baikalBaseURL = "https://api.baikalsr.ru/v1"

	// Negotiated 20% discount on the total.
	baikalDiscountFactor = 0.8
)

// Baikal quotes «Байкал Сервис» delivery between cities addressed by FIAS
// guid. Authentication is basic auth with the api key as the user name.
type Baikal struct {
	cfg     config.BaikalConfig
	baseURL string
	client  *httpClient
	cache   ports.LocationCache
	log     zerolog.Logger
}

func NewBaikal(cfg config.BaikalConfig, cache ports.LocationCache, log zerolog.Logger) *Baikal {
	return &Baikal{
		cfg:     cfg,
		baseURL: baikalBaseURL,
		client:  newHTTPClient(baikalName, log),
		cache:   cache,
		log:     log,
	}
}

func (b *Baikal) Name() string { return baikalName }

func (b *Baikal) Quote(ctx context.Context, req *domain.ShipmentRequest) domain.Quote {
	derivalGUID, err := b.cityGUID(ctx, req.DerivalCity)
	if err != nil {
		return domain.FailedQuote(baikalName, err)
	}
	arrivalGUID, err := b.cityGUID(ctx, req.ArrivalCity)
	if err != nil {
		return domain.FailedQuote(baikalName, err)
	}

	body := b.buildRequest(derivalGUID, arrivalGUID, req)
	var resp baikalCalcResponse
	if err := b.client.postJSON(ctx, b.baseURL+"/calculator", body, &resp,
		withBasicAuth(b.cfg.APIKey, "")); err != nil {
		return domain.FailedQuote(baikalName, err)
	}

	return b.normalize(&resp)
}

func (b *Baikal) cityGUID(ctx context.Context, city string) (string, error) {
	return resolveCached(ctx, b.cache, baikalName, city, func(ctx context.Context) (string, error) {
		query := url.Values{"text": {strings.ToLower(city)}}
		var resp []struct {
			GUID string `json:"guid"`
		}
		if err := b.client.getJSON(ctx, b.baseURL+"/fias/cities", query, &resp,
			withBasicAuth(b.cfg.APIKey, "")); err != nil {
			return "", err
		}
		if len(resp) == 0 || resp[0].GUID == "" {
			return "", domain.NoDelivery(city)
		}
		return resp[0].GUID, nil
	})
}

type baikalEndpoint struct {
	GUID     string `json:"guid"`
	Delivery int    `json:"delivery"`
	Loading  int    `json:"loading"`
}

type baikalCalcRequest struct {
	From       baikalEndpoint `json:"from"`
	To         baikalEndpoint `json:"to"`
	Insurance  int            `json:"insurance"`
	ReturnDocs int            `json:"return_docs"`
	Cargo      struct {
		Weight float64 `json:"weight"`
		Volume float64 `json:"volume"`
		Units  int     `json:"units"`
		Max    struct {
			Weight float64 `json:"weight"`
			Length float64 `json:"length"`
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"max"`
		Pack struct {
			Crate        int `json:"crate"`
			Pallet       int `json:"pallet"`
			SealedPallet int `json:"sealed_pallet"`
			BubbleWrap   int `json:"bubble_wrap"`
			BigBag       int `json:"big_bag"`
			MediumBag    int `json:"medium_bag"`
			SmallBag     int `json:"small_bag"`
		} `json:"pack"`
	} `json:"cargo"`
	Netto int `json:"netto"`
}

func (b *Baikal) buildRequest(derivalGUID, arrivalGUID string, req *domain.ShipmentRequest) *baikalCalcRequest {
	body := &baikalCalcRequest{
		From: baikalEndpoint{GUID: derivalGUID},
		To:   baikalEndpoint{GUID: arrivalGUID},
	}
	body.Cargo.Weight = req.Cargo.Weight
	body.Cargo.Volume = req.Cargo.Volume
	body.Cargo.Units = 1
	body.Cargo.Max.Weight = req.Cargo.Weight
	body.Cargo.Max.Length = req.Cargo.Length
	body.Cargo.Max.Width = req.Cargo.Width
	body.Cargo.Max.Height = req.Cargo.Height
	return body
}

type baikalCalcResponse struct {
	Total *struct {
		Int json.Number `json:"int"`
	} `json:"total"`
	Transit *struct {
		Int json.Number `json:"int"`
	} `json:"transit"`
}

func (b *Baikal) normalize(resp *baikalCalcResponse) domain.Quote {
	if resp.Total == nil || resp.Transit == nil {
		return domain.FailedQuote(baikalName, domain.BadCalculationData())
	}
	total, err := resp.Total.Int.Float64()
	if err != nil {
		return domain.FailedQuote(baikalName, domain.BadCalculationData())
	}
	cost := math.Round(total*baikalDiscountFactor*100) / 100
	return domain.SuccessQuote(baikalName, cost, resp.Transit.Int.String())
}
