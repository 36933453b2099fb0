package carriers

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/core/ports"
	"github.com/calcproject/freightcalc/internal/infrastructure/config"
)

// API reference: https://kabinet.pecom.ru/api/v1/help/calculator#toc-method-calculateprice

const (
	pecomName    = "ПЭК"
	pecomBaseURL = "https://kabinet.pecom.ru/api/v1"

	// Negotiated 10% discount on the auto transfer leg.
	pecomAutoFactor = 0.9

	// transportingType of road transfers in the calculateprice response.
	pecomTransportAuto = 1
)

// Pecom quotes «ПЭК» branch-to-branch delivery. Branches are looked up by
// title; the calculation response itemises transfers per transport mode and
// only the road leg is priced.
type Pecom struct {
	cfg     config.PecomConfig
	baseURL string
	client  *httpClient
	cache   ports.LocationCache
	log     zerolog.Logger
}

func NewPecom(cfg config.PecomConfig, cache ports.LocationCache, log zerolog.Logger) *Pecom {
	return &Pecom{
		cfg:     cfg,
		baseURL: pecomBaseURL,
		client:  newHTTPClient(pecomName, log),
		cache:   cache,
		log:     log,
	}
}

func (p *Pecom) Name() string { return pecomName }

func (p *Pecom) Quote(ctx context.Context, req *domain.ShipmentRequest) domain.Quote {
	derivalID, err := p.branchID(ctx, req.DerivalCity)
	if err != nil {
		return domain.FailedQuote(pecomName, err)
	}
	arrivalID, err := p.branchID(ctx, req.ArrivalCity)
	if err != nil {
		return domain.FailedQuote(pecomName, err)
	}

	body := p.buildRequest(derivalID, arrivalID, req)
	var resp pecomCalcResponse
	if err := p.client.postJSON(ctx, p.baseURL+"/calculator/calculateprice/", body, &resp,
		withBasicAuth(p.cfg.Login, p.cfg.APIKey)); err != nil {
		return domain.FailedQuote(pecomName, err)
	}
	if resp.Error != nil {
		return domain.FailedQuote(pecomName, domain.ConnectionFailed())
	}

	return p.normalize(&resp)
}

// branchID resolves a city name to the branch id serving it. The directory
// search capitalises the title the same way the carrier's own cabinet does.
func (p *Pecom) branchID(ctx context.Context, city string) (string, error) {
	return resolveCached(ctx, p.cache, pecomName, city, func(ctx context.Context) (string, error) {
		payload := map[string]string{"title": capitalize(city)}
		var resp struct {
			Success bool `json:"success"`
			Items   []struct {
				BranchID json.Number `json:"branchId"`
			} `json:"items"`
		}
		if err := p.client.postJSON(ctx, p.baseURL+"/branches/findbytitle/", payload, &resp,
			withBasicAuth(p.cfg.Login, p.cfg.APIKey)); err != nil {
			return "", err
		}
		if !resp.Success || len(resp.Items) == 0 {
			return "", domain.NoTerminal(city)
		}
		return resp.Items[0].BranchID.String(), nil
	})
}

type pecomCargo struct {
	Length                float64 `json:"length"`
	Width                 float64 `json:"width"`
	Height                float64 `json:"height"`
	Volume                float64 `json:"volume"`
	MaxSize               float64 `json:"maxSize"`
	IsHP                  bool    `json:"isHP"`
	SealingPositionsCount int     `json:"sealingPositionsCount"`
	Weight                float64 `json:"weight"`
	OverSize              bool    `json:"overSize"`
}

type pecomServices struct {
	IsLoading        bool `json:"isLoading"`
	Floor            int  `json:"floor"`
	CarryingDistance int  `json:"carryingDistance"`
	IsElevator       bool `json:"isElevator"`
}

type pecomCalcRequest struct {
	SenderCityID         json.Number   `json:"senderCityId"`
	ReceiverCityID       json.Number   `json:"receiverCityId"`
	IsOpenCarSender      bool          `json:"isOpenCarSender"`
	SenderDistanceType   int           `json:"senderDistanceType"`
	IsDayByDay           bool          `json:"isDayByDay"`
	IsOpenCarReceiver    bool          `json:"isOpenCarReceiver"`
	ReceiverDistanceType int           `json:"receiverDistanceType"`
	IsHyperMarket        bool          `json:"isHyperMarket"`
	CalcDate             string        `json:"calcDate"`
	IsInsurance          bool          `json:"isInsurance"`
	IsInsurancePrice     int           `json:"isInsurancePrice"`
	IsPickUp             bool          `json:"isPickUp"`
	IsDelivery           bool          `json:"isDelivery"`
	PickupServices       pecomServices `json:"pickupServices"`
	DeliveryServices     pecomServices `json:"deliveryServices"`
	Cargos               []pecomCargo  `json:"Cargos"`
}

func (p *Pecom) buildRequest(derivalID, arrivalID string, req *domain.ShipmentRequest) *pecomCalcRequest {
	// Branch ids go over the wire as JSON integers.
	return &pecomCalcRequest{
		SenderCityID:   json.Number(derivalID),
		ReceiverCityID: json.Number(arrivalID),
		CalcDate:       req.ShipDate,
		Cargos: []pecomCargo{{
			Length:  req.Cargo.Length,
			Width:   req.Cargo.Width,
			Height:  req.Cargo.Height,
			Volume:  req.Cargo.Volume,
			MaxSize: math.Max(req.Cargo.Length, math.Max(req.Cargo.Width, req.Cargo.Height)),
			Weight:  req.Cargo.Weight,
		}},
	}
}

type pecomCalcResponse struct {
	Error     json.RawMessage `json:"error"`
	Transfers []struct {
		TransportingType int     `json:"transportingType"`
		CostTotal        float64 `json:"costTotal"`
	} `json:"transfers"`
	CommonTerms []struct {
		Transporting []textValue `json:"transporting"`
	} `json:"commonTerms"`
}

func (p *Pecom) normalize(resp *pecomCalcResponse) domain.Quote {
	var cost float64
	found := false
	for _, transfer := range resp.Transfers {
		if transfer.TransportingType == pecomTransportAuto {
			cost = math.Round(transfer.CostTotal*pecomAutoFactor*100) / 100
			found = true
		}
	}
	if !found {
		return domain.FailedQuote(pecomName, domain.BadCalculationData())
	}
	if len(resp.CommonTerms) == 0 || len(resp.CommonTerms[0].Transporting) == 0 {
		return domain.FailedQuote(pecomName, domain.BadCalculationData())
	}
	return domain.SuccessQuote(pecomName, cost, resp.CommonTerms[0].Transporting[0].String())
}

// capitalize upper-cases the first rune only, matching the branch directory's
// title casing.
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
