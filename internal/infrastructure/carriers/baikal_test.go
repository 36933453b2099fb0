package carriers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/core/domain"
	"github.com/calcproject/freightcalc/internal/infrastructure/config"
)

func baikalFixture(t *testing.T, handler http.Handler) *Baikal {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := NewBaikal(config.BaikalConfig{APIKey: "key"}, nil, zerolog.Nop())
	b.baseURL = srv.URL
	return b
}

func TestBaikalQuote(t *testing.T) {
	var calcReq baikalCalcRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/fias/cities", func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); !ok || user != "key" {
			t.Error("fias lookup called without basic auth")
		}
		guid := "guid-moscow"
		if r.URL.Query().Get("text") == "казань" {
			guid = "guid-kazan"
		}
		json.NewEncoder(w).Encode([]map[string]any{{"guid": guid}})
	})
	mux.HandleFunc("/calculator", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&calcReq)
		json.NewEncoder(w).Encode(map[string]any{
			"total":   map[string]any{"int": "1000"},
			"transit": map[string]any{"int": 4},
		})
	})

	b := baikalFixture(t, mux)
	q := b.Quote(context.Background(), &domain.ShipmentRequest{
		DerivalCity: "Москва",
		ArrivalCity: "Казань",
		Cargo:       domain.Cargo{Weight: 50, Volume: 1.2, Length: 1, Width: 1.2, Height: 0.8},
	})

	if q.Failed() {
		t.Fatalf("quote failed: %q", q.Error)
	}
	// 1000 * 0.8
	if q.Cost != "800.00" {
		t.Errorf("Cost = %q, want %q", q.Cost, "800.00")
	}
	if q.TransitDays != "4" {
		t.Errorf("TransitDays = %q, want %q", q.TransitDays, "4")
	}
	if calcReq.From.GUID != "guid-moscow" || calcReq.To.GUID != "guid-kazan" {
		t.Errorf("guids = %q/%q", calcReq.From.GUID, calcReq.To.GUID)
	}
	if calcReq.Cargo.Units != 1 {
		t.Errorf("units = %d, want 1", calcReq.Cargo.Units)
	}
}

func TestBaikalCityNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fias/cities", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	})

	b := baikalFixture(t, mux)
	q := b.Quote(context.Background(), &domain.ShipmentRequest{DerivalCity: "Нигде", ArrivalCity: "Казань"})

	if !q.Failed() {
		t.Fatal("quote must fail for an unknown city")
	}
	if q.Error != "Нигде: нет доставки" {
		t.Errorf("Error = %q", q.Error)
	}
}

func TestBaikalMissingTotals(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fias/cities", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"guid": "g"}})
	})
	mux.HandleFunc("/calculator", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"transit": map[string]any{"int": 4}})
	})

	b := baikalFixture(t, mux)
	q := b.Quote(context.Background(), &domain.ShipmentRequest{DerivalCity: "Москва", ArrivalCity: "Казань"})

	if !q.Failed() {
		t.Fatal("quote must fail without a total")
	}
	if q.Error != "Ошибка расчета данных" {
		t.Errorf("Error = %q", q.Error)
	}
}
