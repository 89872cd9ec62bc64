package astronomy

import (
	"testing"
	"time"

	"github.com/dorolab/skywatch/internal/types"
)

var viennaSite = types.Coordinates{Lat: 48.2082, Lon: 16.3738, ElevationM: 171}

func TestComputeMidLatitude(t *testing.T) {
	at := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)
	state := Compute(at, viennaSite)

	if state.MoonPhaseName == "" {
		t.Error("moon phase name not set")
	}
	if state.MoonIlluminationPct < 0 || state.MoonIlluminationPct > 100 {
		t.Errorf("MoonIlluminationPct = %v, expected [0, 100]", state.MoonIlluminationPct)
	}
	if state.MoonAgeDays < 0 || state.MoonAgeDays >= 30 {
		t.Errorf("MoonAgeDays = %v, expected [0, 30)", state.MoonAgeDays)
	}

	if state.Sunrise.IsZero() || state.Sunset.IsZero() {
		t.Fatal("sunrise/sunset not set for mid-latitude site")
	}
	if !state.Sunrise.Before(state.Sunset) {
		t.Errorf("sunrise %v not before sunset %v", state.Sunrise, state.Sunset)
	}

	if state.TwilightStart.IsZero() || state.TwilightEnd.IsZero() {
		t.Fatal("twilight instants not set for mid-latitude site")
	}
	if !state.TwilightStart.After(state.Sunset) {
		t.Errorf("darkness start %v not after sunset %v", state.TwilightStart, state.Sunset)
	}
	if state.TwilightEnd.Day() == state.TwilightStart.Day() {
		t.Errorf("darkness end %v should fall on the following morning", state.TwilightEnd)
	}
	if state.DarknessDurationHours < 8 || state.DarknessDurationHours > 13 {
		t.Errorf("DarknessDurationHours = %v, expected an October night of 8 to 13 hours", state.DarknessDurationHours)
	}
}

func TestComputePolarSite(t *testing.T) {
	// Svalbard in midsummer: no sunset and no astronomical darkness.
	at := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	state := Compute(at, types.Coordinates{Lat: 78.0, Lon: 15.6})

	if !state.Sunrise.IsZero() || !state.Sunset.IsZero() {
		t.Errorf("expected zero sunrise/sunset during polar day, got %v / %v", state.Sunrise, state.Sunset)
	}
	if state.DarknessDurationHours != 0 {
		t.Errorf("DarknessDurationHours = %v, expected 0 during polar day", state.DarknessDurationHours)
	}
	if state.MoonPhaseName == "" {
		t.Error("moon phase should still be computed during polar day")
	}
}
