package carriers

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/infrastructure/config"
	"github.com/calcproject/freightcalc/internal/infrastructure/refdata"
)

const (
	dpdName    = "DPD"
	dpdBaseURL = "http://wstest.dpd.ru/services"
)

// DPD quotes via the SOAP getServiceCost2 service. Cities are resolved
// against the local geography export rather than a remote directory, and an
// ambiguous city name is narrowed by the shipment's region field. Self
// delivery is only requested when the arrival city has a DPD terminal.
type DPD struct {
	cfg       config.DPDConfig
	baseURL   string
	client    *httpClient
	geography *refdata.GeographyIndex
	terminals *refdata.TerminalCities
	log       zerolog.Logger
}

func NewDPD(cfg config.DPDConfig, geography *refdata.GeographyIndex, terminals *refdata.TerminalCities, log zerolog.Logger) *DPD {
	return &DPD{
		cfg:       cfg,
		baseURL:   dpdBaseURL,
		client:    newHTTPClient(dpdName, log),
		geography: geography,
		terminals: terminals,
		log:       log,
	}
}

func (d *DPD) Name() string { return dpdName }

func (d *DPD) Quote(ctx context.Context, req *domain.ShipmentRequest) domain.Quote {
	derivalID, err := d.cityID(req.DerivalCity, req.DerivalRegion)
	if err != nil {
		return domain.FailedQuote(dpdName, err)
	}
	arrivalID, err := d.cityID(req.ArrivalCity, req.ArrivalRegion)
	if err != nil {
		return domain.FailedQuote(dpdName, err)
	}

	body := d.buildEnvelope(derivalID, arrivalID, req)
	raw, err := d.client.postXML(ctx, d.baseURL+"/calculator2?wsdl", body)
	if err != nil {
		return domain.FailedQuote(dpdName, err)
	}

	return d.normalize(raw)
}

// cityID resolves a city against the geography export. A single match wins
// outright; multiple matches are narrowed by the normalised region token; a
// city absent from the export has no DPD delivery at all.
func (d *DPD) cityID(city, region string) (string, error) {
	matches := d.geography.Lookup(city)
	switch {
	case len(matches) == 1:
		return matches[0].CityID, nil
	case len(matches) > 1:
		if region == "" {
			return "", domain.RegionRequired()
		}
		token := domain.DisambiguateRegion(region)
		for _, m := range matches {
			if strings.Contains(m.Region, token) {
				return m.CityID, nil
			}
		}
		return "", domain.NoTerminalForRegion(city, region)
	default:
		return "", domain.NoDelivery(city)
	}
}

const dpdEnvelopeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope
    xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"
    xmlns:ns0="http://dpd.ru/ws/calculator/2012-03-20"
    xmlns:xs="http://www.w3.org/2001/XMLSchema"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
    <soap:Body>
        <ns0:getServiceCost2>
            <request>
                <auth>
                    <clientNumber>%s</clientNumber>
                    <clientKey>%s</clientKey>
                </auth>
                <pickup>
                    <cityId>%s</cityId>
                    <countryCode>RU</countryCode>
                </pickup>
                <delivery>
                    <cityId>%s</cityId>
                    <countryCode>RU</countryCode>
                </delivery>
                <selfPickup>true</selfPickup>
                <selfDelivery>%t</selfDelivery>
                <weight>%v</weight>
                <volume>%v</volume>
            </request>
        </ns0:getServiceCost2>
    </soap:Body>
</soap:Envelope>`

func (d *DPD) buildEnvelope(derivalID, arrivalID string, req *domain.ShipmentRequest) string {
	return fmt.Sprintf(dpdEnvelopeTemplate,
		d.cfg.ClientNumber,
		d.cfg.ClientKey,
		derivalID,
		arrivalID,
		d.terminals.HasTerminal(arrivalID),
		req.Cargo.Weight,
		req.Cargo.Volume,
	)
}

type dpdTariff struct {
	Cost float64 `xml:"cost"`
	Days string  `xml:"days"`
}

type dpdEnvelope struct {
	Body struct {
		Response struct {
			Returns []dpdTariff `xml:"return"`
		} `xml:",any"`
	} `xml:"Body"`
}

// normalize parses the SOAP response and picks the cheapest tariff.
func (d *DPD) normalize(raw []byte) domain.Quote {
	var envelope dpdEnvelope
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return domain.FailedQuote(dpdName, domain.BadCalculationData())
	}
	tariffs := envelope.Body.Response.Returns
	if len(tariffs) == 0 {
		return domain.FailedQuote(dpdName, domain.BadCalculationData())
	}

	best := tariffs[0]
	for _, t := range tariffs[1:] {
		if t.Cost < best.Cost {
			best = t
		}
	}
	return domain.SuccessQuote(dpdName, best.Cost, best.Days)
}
