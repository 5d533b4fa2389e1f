package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"routeplan/internal/model"
)

func TestNewGeocoderRequiresKey(t *testing.T) {
	if _, err := NewGeocoder(Config{}); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if _, err := NewGeocoder(Config{Key: "   "}); err == nil {
		t.Fatalf("expected error for blank key")
	}
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Locations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("addressLine") != "1600 Pennsylvania Ave NW" {
			t.Errorf("unexpected addressLine %q", q.Get("addressLine"))
		}
		if q.Get("postalCode") != "20500" || q.Get("locality") != "Washington" || q.Get("countryRegion") != "US" {
			t.Errorf("address fields not forwarded: %v", q)
		}
		if q.Get("key") != "test-key" {
			t.Errorf("key not forwarded")
		}
		fmt.Fprint(w, `{"resourceSets":[{"resources":[{"point":{"coordinates":[38.8977,-77.0365]}}]}]}`)
	}))
	defer srv.Close()

	g, err := NewGeocoder(Config{Key: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client(), RPS: 100})
	if err != nil {
		t.Fatalf("NewGeocoder: %v", err)
	}
	co, err := g.Geocode(context.Background(), model.Address{
		AddressLine:   "1600 Pennsylvania Ave NW",
		PostalCode:    "20500",
		Locality:      "Washington",
		CountryRegion: "US",
	})
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if co.Lat != 38.8977 || co.Lng != -77.0365 {
		t.Fatalf("unexpected coordinate: %+v", co)
	}
}

func TestGeocodeCachesResults(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"resourceSets":[{"resources":[{"point":{"coordinates":[60.17,24.94]}}]}]}`)
	}))
	defer srv.Close()

	g, err := NewGeocoder(Config{Key: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client(), RPS: 100})
	if err != nil {
		t.Fatalf("NewGeocoder: %v", err)
	}
	addr := model.Address{AddressLine: "Mannerheimintie 1", Locality: "Helsinki"}
	for i := 0; i < 3; i++ {
		co, err := g.Geocode(context.Background(), addr)
		if err != nil {
			t.Fatalf("Geocode %d: %v", i, err)
		}
		if co.Lat != 60.17 {
			t.Fatalf("unexpected coordinate: %+v", co)
		}
	}
	if calls != 1 {
		t.Fatalf("want 1 upstream call, got %d", calls)
	}
	// A different address misses the cache.
	if _, err := g.Geocode(context.Background(), model.Address{AddressLine: "Mannerheimintie 2", Locality: "Helsinki"}); err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if calls != 2 {
		t.Fatalf("want 2 upstream calls, got %d", calls)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"resourceSets":[{"resources":[]}]}`)
	}))
	defer srv.Close()

	g, err := NewGeocoder(Config{Key: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client(), RPS: 100})
	if err != nil {
		t.Fatalf("NewGeocoder: %v", err)
	}
	_, err = g.Geocode(context.Background(), model.Address{AddressLine: "nowhere"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGeocodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	g, err := NewGeocoder(Config{Key: "bad-key", BaseURL: srv.URL, HTTPClient: srv.Client(), RPS: 100})
	if err != nil {
		t.Fatalf("NewGeocoder: %v", err)
	}
	if _, err := g.Geocode(context.Background(), model.Address{AddressLine: "x"}); err == nil {
		t.Fatalf("expected error for 401 response")
	}
}
