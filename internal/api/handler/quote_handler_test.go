package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calcproject/freightcalc/internal/core/domain"
)

type stubQuoteService struct {
	lastReq *domain.ShipmentRequest
	quotes  []domain.Quote
}

func (s *stubQuoteService) Calculate(_ context.Context, req *domain.ShipmentRequest) []domain.Quote {
	s.lastReq = req
	return s.quotes
}

type stubHistory struct {
	records []*domain.QuoteRecord
	err     error
}

func (h *stubHistory) Save(context.Context, *domain.QuoteRecord) error { return nil }

func (h *stubHistory) Recent(_ context.Context, limit int) ([]*domain.QuoteRecord, error) {
	if h.err != nil {
		return nil, h.err
	}
	if limit < len(h.records) {
		return h.records[:limit], nil
	}
	return h.records, nil
}

func calculate(t *testing.T, service *stubQuoteService, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewQuoteHandler(service, nil)
	if err := h.Calculate(c); err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	return rec
}

func TestCalculateReturnsQuotes(t *testing.T) {
	service := &stubQuoteService{quotes: []domain.Quote{
		domain.SuccessQuote("ПЭК", 900, "2"),
		domain.FailedQuote("GTD", domain.ConnectionFailed()),
	}}
	rec := calculate(t, service, `{
		"derival_city": "Москва",
		"arrival_city": "Казань",
		"cargo": {"weight": 50, "volume": 1.2},
		"ship_date": "2024-05-10"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp calculateQuotesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Quotes) != 2 {
		t.Fatalf("got %d quotes", len(resp.Quotes))
	}
	if resp.Quotes[0].Cost != "900.00" || resp.Quotes[1].Cost != "Ошибка" {
		t.Errorf("costs = %q/%q", resp.Quotes[0].Cost, resp.Quotes[1].Cost)
	}
	if resp.ShipDate != "2024-05-10" {
		t.Errorf("ship_date = %q", resp.ShipDate)
	}
}

func TestCalculateDerivesVolumeFromDimensions(t *testing.T) {
	service := &stubQuoteService{}
	rec := calculate(t, service, `{
		"derival_city": "Москва",
		"arrival_city": "Казань",
		"cargo": {"weight": 50, "length": 1, "width": 1.2, "height": 0.8}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if service.lastReq.Cargo.Volume != 0.96 {
		t.Errorf("derived volume = %v, want 0.96", service.lastReq.Cargo.Volume)
	}
	if service.lastReq.Cargo.Length != 1 {
		t.Errorf("length overwritten: %v", service.lastReq.Cargo.Length)
	}
}

func TestCalculateDerivesDimensionsFromVolume(t *testing.T) {
	service := &stubQuoteService{}
	rec := calculate(t, service, `{
		"derival_city": "Москва",
		"arrival_city": "Казань",
		"cargo": {"weight": 50, "volume": 8, "length": 5}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	cargo := service.lastReq.Cargo
	// The volume wins: sides of the equivalent cube replace the given length.
	if cargo.Length != 2 || cargo.Width != 2 || cargo.Height != 2 {
		t.Errorf("sides = %v/%v/%v, want cube of 2", cargo.Length, cargo.Width, cargo.Height)
	}
	if cargo.Volume != 8 {
		t.Errorf("volume = %v, want 8", cargo.Volume)
	}
}

func TestCalculateRejectsIncompleteGeometry(t *testing.T) {
	rec := calculate(t, &stubQuoteService{}, `{
		"derival_city": "Москва",
		"arrival_city": "Казань",
		"cargo": {"weight": 50, "length": 1, "width": 1.2}
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "Заполните размеры (ширина, высота, длина) и/или объём груза." {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestCalculateValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing derival city", `{"arrival_city": "Казань", "cargo": {"weight": 50, "volume": 1}}`},
		{"zero weight", `{"derival_city": "Москва", "arrival_city": "Казань", "cargo": {"weight": 0, "volume": 1}}`},
		{"bad ship date", `{"derival_city": "Москва", "arrival_city": "Казань", "cargo": {"weight": 50, "volume": 1}, "ship_date": "10.05.2024"}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := calculate(t, &stubQuoteService{}, tc.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func recent(t *testing.T, history *stubHistory, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var h *QuoteHandler
	if history == nil {
		h = NewQuoteHandler(&stubQuoteService{}, nil)
	} else {
		h = NewQuoteHandler(&stubQuoteService{}, history)
	}
	if err := h.Recent(c); err != nil {
		t.Fatalf("Recent: %v", err)
	}
	return rec
}

func TestRecentWithoutHistory(t *testing.T) {
	if rec := recent(t, nil, "/v1/quotes/recent"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRecentReturnsRecords(t *testing.T) {
	history := &stubHistory{records: []*domain.QuoteRecord{{
		Request: domain.ShipmentRequest{
			DerivalCity: "Москва",
			ArrivalCity: "Казань",
			Cargo:       domain.Cargo{Weight: 50, Volume: 1.2},
			ShipDate:    "2024-05-10",
		},
		Quotes:    []domain.Quote{domain.SuccessQuote("ПЭК", 900, "2")},
		CreatedAt: time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC),
	}}}

	rec := recent(t, history, "/v1/quotes/recent")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp recentQuotesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].DerivalCity != "Москва" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestRecentRejectsBadLimit(t *testing.T) {
	history := &stubHistory{}
	if rec := recent(t, history, "/v1/quotes/recent?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec := recent(t, history, "/v1/quotes/recent?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
