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
	"github.com/calcproject/freightcalc/internal/infrastructure/config"
)

const (
	nrgtkName    = "Энергия"
	nrgtkBaseURL = "https://mainapi.nrg-tk.ru/v3"

	nrgtkTokenHeader = "NrgApi-DevToken"
)

// Nrgtk quotes «Энергия» delivery. The API is session-based: a login opens a
// user session whose token authorises the directory and price calls, and the
// session is closed on every exit path once opened.
type Nrgtk struct {
	cfg     config.NrgtkConfig
	baseURL string
	client  *httpClient
	cache   ports.LocationCache
	log     zerolog.Logger
}

func NewNrgtk(cfg config.NrgtkConfig, cache ports.LocationCache, log zerolog.Logger) *Nrgtk {
	return &Nrgtk{
		cfg:     cfg,
		baseURL: nrgtkBaseURL,
		client:  newHTTPClient(nrgtkName, log),
		cache:   cache,
		log:     log,
	}
}

func (n *Nrgtk) Name() string { return nrgtkName }

func (n *Nrgtk) Quote(ctx context.Context, req *domain.ShipmentRequest) domain.Quote {
	session, err := n.login(ctx)
	if err != nil {
		return domain.FailedQuote(nrgtkName, err)
	}
	defer n.logout(ctx, session)

	derivalID, err := n.cityID(ctx, session, req.DerivalCity)
	if err != nil {
		return domain.FailedQuote(nrgtkName, err)
	}
	arrivalID, err := n.cityID(ctx, session, req.ArrivalCity)
	if err != nil {
		return domain.FailedQuote(nrgtkName, err)
	}

	body := map[string]any{
		"idCityFrom": json.Number(derivalID),
		"idCityTo":   json.Number(arrivalID),
		"cover":      0,
		"items": []map[string]any{{
			"weight":         req.Cargo.Weight,
			"width":          req.Cargo.Width,
			"height":         req.Cargo.Height,
			"length":         req.Cargo.Length,
			"isStandardSize": true,
		}},
	}
	var resp struct {
		Transfer []struct {
			Price    json.Number `json:"price"`
			Interval string      `json:"interval"`
		} `json:"transfer"`
	}
	if err := n.client.postJSON(ctx, n.baseURL+"/price", body, &resp,
		withHeader(nrgtkTokenHeader, n.cfg.DevToken)); err != nil {
		return domain.FailedQuote(nrgtkName, err)
	}

	if len(resp.Transfer) == 0 {
		return domain.FailedQuote(nrgtkName, domain.BadCalculationData())
	}
	price, err := resp.Transfer[0].Price.Float64()
	if err != nil {
		return domain.FailedQuote(nrgtkName, domain.BadCalculationData())
	}
	days := strings.Fields(resp.Transfer[0].Interval)
	if len(days) == 0 {
		return domain.FailedQuote(nrgtkName, domain.BadCalculationData())
	}
	return domain.SuccessQuote(nrgtkName, price, days[0])
}

type nrgtkSession struct {
	Token     string      `json:"token"`
	AccountID json.Number `json:"accountId"`
}

func (n *Nrgtk) login(ctx context.Context) (*nrgtkSession, error) {
	query := url.Values{
		"user":     {n.cfg.Login},
		"password": {n.cfg.Password},
	}
	var session nrgtkSession
	if err := n.client.getJSON(ctx, n.baseURL+"/login", query, &session,
		withHeader(nrgtkTokenHeader, n.cfg.DevToken)); err != nil {
		return nil, domain.ConnectionFailed()
	}
	if session.Token == "" {
		return nil, domain.ConnectionFailed()
	}
	return &session, nil
}

// logout closes the session opened by login. Best-effort: the quote outcome
// is already decided by the time it runs.
func (n *Nrgtk) logout(ctx context.Context, session *nrgtkSession) {
	query := url.Values{"token": {session.Token}}
	endpoint := fmt.Sprintf("%s/%s/logout", n.baseURL, session.AccountID.String())
	if err := n.client.getJSON(ctx, endpoint, query, nil,
		withHeader(nrgtkTokenHeader, n.cfg.DevToken)); err != nil {
		n.log.Debug().Err(err).Msg("nrgtk logout failed")
	}
}

// cityID resolves a city by prefix against the full city directory.
func (n *Nrgtk) cityID(ctx context.Context, session *nrgtkSession, city string) (string, error) {
	return resolveCached(ctx, n.cache, nrgtkName, city, func(ctx context.Context) (string, error) {
		query := url.Values{"token": {session.Token}}
		var resp struct {
			CityList []struct {
				ID   json.Number `json:"id"`
				Name string      `json:"name"`
			} `json:"cityList"`
		}
		if err := n.client.getJSON(ctx, n.baseURL+"/cities", query, &resp,
			withHeader(nrgtkTokenHeader, n.cfg.DevToken)); err != nil {
			return "", err
		}
		prefix := strings.ToLower(city)
		for _, c := range resp.CityList {
			if strings.HasPrefix(strings.ToLower(c.Name), prefix) {
				return c.ID.String(), nil
			}
		}
		return "", domain.NoDelivery(city)
	})
}
