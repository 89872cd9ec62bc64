package openweather

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const currentBody = `{
	"main": {"temp": 12.3, "humidity": 67, "pressure": 1015},
	"clouds": {"all": 40},
	"visibility": 8000,
	"wind": {"speed": 2.5, "deg": 180},
	"weather": [{"description": "scattered clouds"}]
}`

func forecastBody(entries int) string {
	var items []string
	for i := 0; i < entries; i++ {
		items = append(items, fmt.Sprintf(`{
			"dt_txt": "2024-10-15 %02d:00:00",
			"main": {"temp": 10, "humidity": 60},
			"clouds": {"all": 25},
			"wind": {"speed": 3.0},
			"weather": [{"description": "few clouds"}]
		}`, i%24))
	}
	return `{"list": [` + strings.Join(items, ",") + `]}`
}

func testServer(t *testing.T, forecastEntries int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/weather":
			fmt.Fprint(w, currentBody)
		case "/forecast":
			fmt.Fprint(w, forecastBody(forecastEntries))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchParsesCurrent(t *testing.T) {
	srv := testServer(t, 4)
	c := NewClient(Config{APIKey: "key", Lat: 48.2082, Lon: 16.3738, BaseURL: srv.URL})

	result := c.Fetch(context.Background())
	if !result.Available() {
		t.Fatalf("Fetch unavailable: %v", result.Err)
	}
	if result.Source != Source {
		t.Errorf("Source = %q, expected %q", result.Source, Source)
	}

	r := result.Reading
	if *r.TemperatureC != 12.3 {
		t.Errorf("TemperatureC = %v, expected 12.3", *r.TemperatureC)
	}
	if *r.CloudCoverPct != 40 {
		t.Errorf("CloudCoverPct = %v, expected 40", *r.CloudCoverPct)
	}
	if *r.VisibilityKm != 8 {
		t.Errorf("VisibilityKm = %v, expected 8 (meters converted)", *r.VisibilityKm)
	}
	if math.Abs(*r.WindSpeedKmh-9.0) > 1e-9 {
		t.Errorf("WindSpeedKmh = %v, expected 9.0 (m/s converted)", *r.WindSpeedKmh)
	}
	if r.Conditions != "scattered clouds" {
		t.Errorf("Conditions = %q", r.Conditions)
	}
	if r.DewpointC == nil {
		t.Error("DewpointC not derived")
	}
}

func TestFetchCapsForecastAt48Hours(t *testing.T) {
	srv := testServer(t, 24)
	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL})

	result := c.Fetch(context.Background())
	if !result.Available() {
		t.Fatalf("Fetch unavailable: %v", result.Err)
	}
	if len(result.Forecast) != maxForecastPoints {
		t.Errorf("forecast has %d points, expected %d", len(result.Forecast), maxForecastPoints)
	}
	if result.Forecast[0].Conditions != "few clouds" {
		t.Errorf("Conditions = %q", result.Forecast[0].Conditions)
	}
	if result.Forecast[0].CloudCoverPct != 25 {
		t.Errorf("CloudCoverPct = %v, expected 25", result.Forecast[0].CloudCoverPct)
	}
}

func TestFetchWithoutAPIKey(t *testing.T) {
	c := NewClient(Config{})
	result := c.Fetch(context.Background())
	if result.Available() {
		t.Fatal("expected unavailable result without API key")
	}
	if result.Source != Source {
		t.Errorf("Source = %q, expected %q even on failure", result.Source, Source)
	}
}

func TestFetchServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL})
	result := c.Fetch(context.Background())
	if result.Available() {
		t.Fatal("expected unavailable result on server errors")
	}
	if result.Err == nil {
		t.Fatal("expected error to be recorded")
	}
}
