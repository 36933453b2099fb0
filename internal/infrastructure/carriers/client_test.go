package carriers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/calcproject/freightcalc/internal/core/domain"
)

type stubCache struct {
	codes map[string]string
	sets  int
}

func (c *stubCache) GetCode(_ context.Context, carrier, city string) (string, bool) {
	code, ok := c.codes[carrier+"/"+city]
	return code, ok
}

func (c *stubCache) SetCode(_ context.Context, carrier, city, code string) {
	c.codes[carrier+"/"+city] = code
	c.sets++
}

func TestTextValueDecodesNumberOrString(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"v": 3}`, "3"},
		{`{"v": 2.5}`, "2.5"},
		{`{"v": "3-4 дня"}`, "3-4 дня"},
	}
	for _, tc := range cases {
		var out struct {
			V textValue `json:"v"`
		}
		if err := json.Unmarshal([]byte(tc.in), &out); err != nil {
			t.Errorf("unmarshal %s: %v", tc.in, err)
			continue
		}
		if out.V.String() != tc.want {
			t.Errorf("%s decoded to %q, want %q", tc.in, out.V, tc.want)
		}
	}
}

func TestResolveCachedHit(t *testing.T) {
	cache := &stubCache{codes: map[string]string{"ПЭК/Москва": "17"}}

	code, err := resolveCached(context.Background(), cache, "ПЭК", "Москва", func(context.Context) (string, error) {
		t.Fatal("resolver must not run on a cache hit")
		return "", nil
	})
	if err != nil {
		t.Fatalf("resolveCached: %v", err)
	}
	if code != "17" {
		t.Errorf("code = %q, want %q", code, "17")
	}
}

func TestResolveCachedMissStoresResult(t *testing.T) {
	cache := &stubCache{codes: map[string]string{}}

	code, err := resolveCached(context.Background(), cache, "ПЭК", "Казань", func(context.Context) (string, error) {
		return "21", nil
	})
	if err != nil {
		t.Fatalf("resolveCached: %v", err)
	}
	if code != "21" || cache.sets != 1 {
		t.Errorf("code = %q, sets = %d", code, cache.sets)
	}
}

func TestResolveCachedFailureNotCached(t *testing.T) {
	cache := &stubCache{codes: map[string]string{}}

	_, err := resolveCached(context.Background(), cache, "ПЭК", "Нигде", func(context.Context) (string, error) {
		return "", domain.NoTerminal("Нигде")
	})
	if err == nil {
		t.Fatal("expected resolver error")
	}
	if cache.sets != 0 {
		t.Errorf("failed resolution must not be cached, sets = %d", cache.sets)
	}
}

func TestResolveCachedNilCache(t *testing.T) {
	code, err := resolveCached(context.Background(), nil, "ПЭК", "Москва", func(context.Context) (string, error) {
		return "17", nil
	})
	if err != nil || code != "17" {
		t.Errorf("code = %q, err = %v", code, err)
	}
}

func TestHTTPClientNon200IsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := newHTTPClient("test", zerolog.Nop())
	err := c.getJSON(context.Background(), srv.URL, nil, nil)

	var ce *domain.CarrierError
	if err == nil {
		t.Fatal("expected an error for a 502 response")
	}
	if !errors.As(err, &ce) || ce.Kind != domain.KindConnection {
		t.Errorf("err = %v, want connection error", err)
	}
}

func TestHTTPClientBreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := newHTTPClient("test", zerolog.Nop())
	for i := 0; i < breakerFailureTrips; i++ {
		_ = c.getJSON(context.Background(), srv.URL, nil, nil)
	}

	// The breaker is now open: the request fails without reaching the server.
	srv.Close()
	if err := c.getJSON(context.Background(), srv.URL, nil, nil); err == nil {
		t.Fatal("expected the open breaker to reject the request")
	}
}
