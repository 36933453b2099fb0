package carriers

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/core/ports"
	"github.com/calcproject/freightcalc/internal/infrastructure/config"
	"github.com/calcproject/freightcalc/internal/infrastructure/refdata"
)

// API reference: https://dev.dellin.ru/api/calculation/calculator/

const (
	dellinName    = "Деловые Линии"
	dellinBaseURL = "https://api.dellin.ru"

	// Shipments at or above dellinSplitWeight are split into units of at
	// most dellinUnitWeight kg each; the weight is spread evenly.
	dellinSplitWeight = 80
	dellinUnitWeight  = 75

	// Negotiated 30% discount on the intercity leg.
	dellinIntercityFactor = 0.7
)

// Dellin quotes «Деловые Линии» terminal-to-terminal auto delivery. The
// derival side is pinned to a concrete terminal resolved from the static
// terminal directory; the arrival side is addressed by KLADR city code.
type Dellin struct {
	cfg       config.DellinConfig
	baseURL   string
	client    *httpClient
	cache     ports.LocationCache
	terminals *refdata.TerminalIndex
	log       zerolog.Logger
}

func NewDellin(cfg config.DellinConfig, terminals *refdata.TerminalIndex, cache ports.LocationCache, log zerolog.Logger) *Dellin {
	return &Dellin{
		cfg:       cfg,
		baseURL:   dellinBaseURL,
		client:    newHTTPClient(dellinName, log),
		cache:     cache,
		terminals: terminals,
		log:       log,
	}
}

func (d *Dellin) Name() string { return dellinName }

func (d *Dellin) Quote(ctx context.Context, req *domain.ShipmentRequest) domain.Quote {
	sessionID, err := d.login(ctx)
	if err != nil {
		return domain.FailedQuote(dellinName, err)
	}

	body, err := d.buildRequest(ctx, sessionID, req)
	if err != nil {
		return domain.FailedQuote(dellinName, err)
	}

	var resp dellinCalcResponse
	if err := d.client.postJSON(ctx, d.baseURL+"/v2/calculator.json", body, &resp); err != nil {
		return domain.FailedQuote(dellinName, domain.CalculationFailed())
	}

	return d.normalize(req, &resp)
}

func (d *Dellin) login(ctx context.Context) (string, error) {
	payload := map[string]string{
		"appkey":   d.cfg.Appkey,
		"login":    d.cfg.Login,
		"password": d.cfg.Password,
	}
	var resp struct {
		Data struct {
			SessionID string `json:"sessionID"`
		} `json:"data"`
	}
	if err := d.client.postJSON(ctx, d.baseURL+"/v3/auth/login.json", payload, &resp); err != nil {
		return "", domain.ConnectionFailed()
	}
	if resp.Data.SessionID == "" {
		return "", domain.ConnectionFailed()
	}
	return resp.Data.SessionID, nil
}

// cityCode resolves a city name to its KLADR code via the public directory.
func (d *Dellin) cityCode(ctx context.Context, city string) (string, error) {
	return resolveCached(ctx, d.cache, dellinName, city, func(ctx context.Context) (string, error) {
		payload := map[string]any{
			"appkey": d.cfg.Appkey,
			"q":      strings.ToLower(city),
			"limit":  5,
		}
		var resp struct {
			Cities []struct {
				Code string `json:"code"`
			} `json:"cities"`
		}
		if err := d.client.postJSON(ctx, d.baseURL+"/v2/public/kladr.json", payload, &resp); err != nil {
			return "", err
		}
		if len(resp.Cities) == 0 || resp.Cities[0].Code == "" {
			return "", domain.NoTerminal(city)
		}
		return resp.Cities[0].Code, nil
	})
}

type dellinCargo struct {
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	TotalVolume float64 `json:"totalVolume"`
	TotalWeight float64 `json:"totalWeight"`
	HazardClass int     `json:"hazardClass"`
	Quantity    int     `json:"quantity,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
}

type dellinCalcRequest struct {
	Appkey    string `json:"appkey"`
	SessionID string `json:"sessionID"`
	Delivery  struct {
		DeliveryType struct {
			Type string `json:"type"`
		} `json:"deliveryType"`
		Arrival struct {
			Variant string `json:"variant"`
			City    string `json:"city"`
		} `json:"arrival"`
		Derival struct {
			ProduceDate string `json:"produceDate"`
			Variant     string `json:"variant"`
			TerminalID  string `json:"terminalID"`
		} `json:"derival"`
	} `json:"delivery"`
	Members struct {
		Requester struct {
			Role string `json:"role"`
		} `json:"requester"`
	} `json:"members"`
	Cargo   dellinCargo `json:"cargo"`
	Payment struct {
		PaymentCity string `json:"paymentCity"`
		Type        string `json:"type"`
	} `json:"payment"`
}

func (d *Dellin) buildRequest(ctx context.Context, sessionID string, req *domain.ShipmentRequest) (*dellinCalcRequest, error) {
	arrivalCode, err := d.cityCode(ctx, req.ArrivalCity)
	if err != nil {
		return nil, err
	}
	derivalCode, err := d.cityCode(ctx, req.DerivalCity)
	if err != nil {
		return nil, err
	}
	terminalID, ok := d.terminals.TerminalID(derivalCode)
	if !ok {
		return nil, domain.NoTerminal(req.DerivalCity)
	}

	body := &dellinCalcRequest{Appkey: d.cfg.Appkey, SessionID: sessionID}
	body.Delivery.DeliveryType.Type = "auto"
	body.Delivery.Arrival.Variant = "terminal"
	body.Delivery.Arrival.City = arrivalCode
	body.Delivery.Derival.ProduceDate = req.ShipDate
	body.Delivery.Derival.Variant = "terminal"
	body.Delivery.Derival.TerminalID = terminalID
	body.Members.Requester.Role = "sender"
	body.Payment.PaymentCity = arrivalCode
	body.Payment.Type = "cash"
	body.Cargo = dellinCargo{
		Length:      req.Cargo.Length,
		Width:       req.Cargo.Width,
		Height:      req.Cargo.Height,
		TotalVolume: req.Cargo.Volume,
		TotalWeight: req.Cargo.Weight,
	}
	if req.Cargo.Weight >= dellinSplitWeight {
		quantity := int(math.Ceil(req.Cargo.Weight / dellinUnitWeight))
		body.Cargo.Quantity = quantity
		body.Cargo.Weight = math.Round(req.Cargo.Weight/float64(quantity)*10) / 10
	}
	return body, nil
}

type dellinCalcResponse struct {
	Data *struct {
		OrderDates *struct {
			ArrivalToOspReceiver string `json:"arrivalToOspReceiver"`
		} `json:"orderDates"`
		Intercity *struct {
			Price float64 `json:"price"`
		} `json:"intercity"`
		Insurance float64 `json:"insurance"`
		Notify    *struct {
			Price float64 `json:"price"`
		} `json:"notify"`
	} `json:"data"`
}

func (d *Dellin) normalize(req *domain.ShipmentRequest, resp *dellinCalcResponse) domain.Quote {
	data := resp.Data
	if data == nil || data.OrderDates == nil || data.Intercity == nil || data.Notify == nil {
		return domain.FailedQuote(dellinName, domain.BadCalculationData())
	}

	derival, err := time.Parse("2006-01-02", req.ShipDate)
	if err != nil {
		return domain.FailedQuote(dellinName, domain.BadCalculationData())
	}
	arrival, err := time.Parse("2006-01-02", data.OrderDates.ArrivalToOspReceiver)
	if err != nil {
		return domain.FailedQuote(dellinName, domain.BadCalculationData())
	}
	days := int(arrival.Sub(derival).Hours() / 24)

	total := data.Intercity.Price*dellinIntercityFactor + data.Insurance + data.Notify.Price
	total = math.Round(total*100) / 100
	return domain.SuccessQuote(dellinName, total, strconv.Itoa(days))
}
