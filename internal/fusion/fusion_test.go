package fusion

import (
	"testing"
	"time"

	"github.com/dorolab/skywatch/internal/types"
)

var now = time.Date(2024, 10, 15, 18, 0, 0, 0, time.UTC)

func TestMeasurementsPreferLocal(t *testing.T) {
	readings := map[types.Channel]types.WeatherReading{
		types.ChannelLocal: {
			ObservedAt:   now.Add(-time.Minute),
			TemperatureC: types.Float(10),
		},
		types.ChannelOnline: {
			ObservedAt:   now,
			TemperatureC: types.Float(20),
		},
	}

	fused := Fuse(readings, now)
	if fused.TemperatureC == nil || *fused.TemperatureC != 10 {
		t.Errorf("TemperatureC = %v, expected local 10", fused.TemperatureC)
	}
	if fused.Provenance["temperature_c"] != types.ChannelLocal {
		t.Errorf("provenance = %q, expected local", fused.Provenance["temperature_c"])
	}
}

func TestSkyFieldsPreferOnline(t *testing.T) {
	readings := map[types.Channel]types.WeatherReading{
		types.ChannelLocal: {
			ObservedAt:    now.Add(-time.Minute),
			CloudCoverPct: types.Float(80),
			VisibilityKm:  types.Float(5),
		},
		types.ChannelOnline: {
			ObservedAt:    now,
			CloudCoverPct: types.Float(30),
			VisibilityKm:  types.Float(18),
		},
	}

	fused := Fuse(readings, now)
	if fused.CloudCoverPct == nil || *fused.CloudCoverPct != 30 {
		t.Errorf("CloudCoverPct = %v, expected online 30", fused.CloudCoverPct)
	}
	if fused.Provenance["cloud_cover_pct"] != types.ChannelOnline {
		t.Errorf("provenance = %q, expected online", fused.Provenance["cloud_cover_pct"])
	}
	if fused.VisibilityKm == nil || *fused.VisibilityKm != 18 {
		t.Errorf("VisibilityKm = %v, expected online 18", fused.VisibilityKm)
	}
}

func TestFallbackToNextChannel(t *testing.T) {
	// Online is missing; sky fields fall back to local, measurements come
	// from local as usual, and the camera fills what nothing else has.
	readings := map[types.Channel]types.WeatherReading{
		types.ChannelLocal: {
			ObservedAt:    now.Add(-time.Minute),
			CloudCoverPct: types.Float(45),
		},
		types.ChannelCamera: {
			ObservedAt:   now,
			TemperatureC: types.Float(8.5),
		},
	}

	fused := Fuse(readings, now)
	if fused.CloudCoverPct == nil || *fused.CloudCoverPct != 45 {
		t.Errorf("CloudCoverPct = %v, expected local fallback 45", fused.CloudCoverPct)
	}
	if fused.TemperatureC == nil || *fused.TemperatureC != 8.5 {
		t.Errorf("TemperatureC = %v, expected camera fallback 8.5", fused.TemperatureC)
	}
	if fused.Provenance["temperature_c"] != types.ChannelCamera {
		t.Errorf("provenance = %q, expected camera-station", fused.Provenance["temperature_c"])
	}
}

func TestStaleLocalExcluded(t *testing.T) {
	readings := map[types.Channel]types.WeatherReading{
		types.ChannelLocal: {
			ObservedAt:   now.Add(-11 * time.Minute),
			TemperatureC: types.Float(10),
		},
		types.ChannelOnline: {
			ObservedAt:   now,
			TemperatureC: types.Float(20),
		},
	}

	fused := Fuse(readings, now)
	if fused.TemperatureC == nil || *fused.TemperatureC != 20 {
		t.Errorf("TemperatureC = %v, expected online 20 after stale local exclusion", fused.TemperatureC)
	}
	if fused.Provenance["temperature_c"] != types.ChannelOnline {
		t.Errorf("provenance = %q, expected online", fused.Provenance["temperature_c"])
	}
}

func TestConditionsPreferOnline(t *testing.T) {
	readings := map[types.Channel]types.WeatherReading{
		types.ChannelLocal: {
			ObservedAt: now.Add(-time.Minute),
			Conditions: "OK",
		},
		types.ChannelOnline: {
			ObservedAt: now,
			Conditions: "clear sky",
		},
	}

	fused := Fuse(readings, now)
	if fused.Conditions != "clear sky" {
		t.Errorf("Conditions = %q, expected online value", fused.Conditions)
	}
	if fused.Provenance["conditions"] != types.ChannelOnline {
		t.Errorf("provenance = %q, expected online", fused.Provenance["conditions"])
	}
}

func TestEmptyInput(t *testing.T) {
	fused := Fuse(nil, now)
	if fused.TemperatureC != nil || fused.Conditions != "" {
		t.Error("expected empty fusion result for no readings")
	}
	if fused.Provenance != nil {
		t.Errorf("Provenance = %v, expected nil for no readings", fused.Provenance)
	}
}
