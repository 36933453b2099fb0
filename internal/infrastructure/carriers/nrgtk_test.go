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

func nrgtkFixture(t *testing.T, handler http.Handler) *Nrgtk {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewNrgtk(config.NrgtkConfig{DevToken: "dev", Login: "user", Password: "pass"}, nil, zerolog.Nop())
	n.baseURL = srv.URL
	return n
}

func nrgtkMux(t *testing.T, logoutCalls *int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("NrgApi-DevToken"); got != "dev" {
			t.Errorf("dev token header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"token": "sess", "accountId": 42})
	})
	mux.HandleFunc("/42/logout", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "sess" {
			t.Errorf("logout token = %q", got)
		}
		if logoutCalls != nil {
			*logoutCalls++
		}
		w.Write([]byte("{}"))
	})
	mux.HandleFunc("/cities", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"cityList": []map[string]any{
			{"id": 1, "name": "Москва"},
			{"id": 2, "name": "Казань"},
		}})
	})
	return mux
}

func TestNrgtkQuote(t *testing.T) {
	logoutCalls := 0
	mux := nrgtkMux(t, &logoutCalls)
	mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if from := body["idCityFrom"]; from != float64(1) {
			t.Errorf("idCityFrom = %v", from)
		}
		json.NewEncoder(w).Encode(map[string]any{"transfer": []map[string]any{
			{"price": 1500.5, "interval": "3 - 4 дня"},
		}})
	})

	n := nrgtkFixture(t, mux)
	q := n.Quote(context.Background(), &domain.ShipmentRequest{
		DerivalCity: "Москва",
		ArrivalCity: "Казань",
		Cargo:       domain.Cargo{Weight: 50, Length: 1, Width: 1.2, Height: 0.8},
	})

	if q.Failed() {
		t.Fatalf("quote failed: %q", q.Error)
	}
	if q.Cost != "1500.50" {
		t.Errorf("Cost = %q, want %q", q.Cost, "1500.50")
	}
	// First token of the interval.
	if q.TransitDays != "3" {
		t.Errorf("TransitDays = %q, want %q", q.TransitDays, "3")
	}
	if logoutCalls != 1 {
		t.Errorf("logout called %d times, want 1", logoutCalls)
	}
}

func TestNrgtkLoginFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token": ""})
	})

	n := nrgtkFixture(t, mux)
	q := n.Quote(context.Background(), &domain.ShipmentRequest{DerivalCity: "Москва", ArrivalCity: "Казань"})

	if !q.Failed() {
		t.Fatal("quote must fail without a session token")
	}
	if q.Error != "Ошибка соединения" {
		t.Errorf("Error = %q", q.Error)
	}
}

func TestNrgtkClosesSessionOnFailure(t *testing.T) {
	logoutCalls := 0
	mux := nrgtkMux(t, &logoutCalls)
	mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"transfer": []map[string]any{}})
	})

	n := nrgtkFixture(t, mux)
	q := n.Quote(context.Background(), &domain.ShipmentRequest{DerivalCity: "Москва", ArrivalCity: "Казань"})

	if !q.Failed() {
		t.Fatal("quote must fail on an empty transfer list")
	}
	if q.Error != "Ошибка расчета данных" {
		t.Errorf("Error = %q", q.Error)
	}
	if logoutCalls != 1 {
		t.Errorf("logout called %d times, want 1", logoutCalls)
	}
}

func TestNrgtkCityNotServed(t *testing.T) {
	mux := nrgtkMux(t, nil)

	n := nrgtkFixture(t, mux)
	q := n.Quote(context.Background(), &domain.ShipmentRequest{DerivalCity: "Нигде", ArrivalCity: "Казань"})

	if !q.Failed() {
		t.Fatal("quote must fail for a city outside the directory")
	}
	if q.Error != "Нигде: нет доставки" {
		t.Errorf("Error = %q", q.Error)
	}
}
