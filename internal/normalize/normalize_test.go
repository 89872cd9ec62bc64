package normalize

import (
	"errors"
	"math"
	"testing"
)

func TestDewpointC(t *testing.T) {
	tests := []struct {
		name     string
		tempC    float64
		rhPct    float64
		expected float64
	}{
		{"warm humid", 20.0, 65.0, 31.0},
		{"cold dry", -5.0, 40.0, 0.4},
		{"saturated", 10.0, 100.0, 25.9},
		{"hot", 30.0, 50.0, 39.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DewpointC(tt.tempC, tt.rhPct)
			if math.Abs(got-tt.expected) > 0.051 {
				t.Errorf("DewpointC(%v, %v) = %v, expected ~%v", tt.tempC, tt.rhPct, got, tt.expected)
			}
		})
	}
}

func TestDewpointDeterministic(t *testing.T) {
	// The same inputs must give an identical result regardless of call site.
	for temp := -20.0; temp <= 40.0; temp += 7.3 {
		for rh := 10.0; rh <= 100.0; rh += 13.7 {
			a := DewpointC(temp, rh)
			b := DewpointC(temp, rh)
			if a != b {
				t.Fatalf("DewpointC(%v, %v) not deterministic: %v != %v", temp, rh, a, b)
			}
		}
	}
}

func TestJSONAliases(t *testing.T) {
	aliasCases := []struct {
		name    string
		payload string
		field   string
		want    float64
	}{
		{"temp short", `{"temp": 12.5}`, "temperature_c", 12.5},
		{"temperature long", `{"temperature": 12.5}`, "temperature_c", 12.5},
		{"temp_c", `{"temp_c": 12.5}`, "temperature_c", 12.5},
		{"single letter t", `{"t": 12.5}`, "temperature_c", 12.5},
		{"outdoor_temp", `{"outdoor_temp": 12.5}`, "temperature_c", 12.5},
		{"rh", `{"rh": 65}`, "humidity_pct", 65},
		{"relative_humidity", `{"relative_humidity": 65}`, "humidity_pct", 65},
		{"baro", `{"baro": 1013.2}`, "pressure_hpa", 1013.2},
		{"press", `{"press": 1013.2}`, "pressure_hpa", 1013.2},
		{"wind", `{"wind": 14.2}`, "wind_speed_kmh", 14.2},
		{"wind_dir", `{"wind_dir": 270}`, "wind_direction_deg", 270},
		{"dp", `{"dp": 4.5}`, "dewpoint_c", 4.5},
		{"clouds", `{"clouds": 35}`, "cloud_cover_pct", 35},
		{"visibility", `{"visibility": 18}`, "visibility_km", 18},
	}

	for _, tt := range aliasCases {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := JSON([]byte(tt.payload))
			if err != nil {
				t.Fatalf("JSON(%s) returned error: %v", tt.payload, err)
			}

			var got *float64
			switch tt.field {
			case "temperature_c":
				got = reading.TemperatureC
			case "humidity_pct":
				got = reading.HumidityPct
			case "pressure_hpa":
				got = reading.PressureHPa
			case "wind_speed_kmh":
				got = reading.WindSpeedKmh
			case "wind_direction_deg":
				got = reading.WindDirectionDeg
			case "dewpoint_c":
				got = reading.DewpointC
			case "cloud_cover_pct":
				got = reading.CloudCoverPct
			case "visibility_km":
				got = reading.VisibilityKm
			}

			if got == nil {
				t.Fatalf("%s not set from payload %s", tt.field, tt.payload)
			}
			if *got != tt.want {
				t.Errorf("%s = %v, expected %v", tt.field, *got, tt.want)
			}
		})
	}
}

func TestJSONFirstAliasWins(t *testing.T) {
	// temp_c appears earlier in the alias list than temperature, so its
	// value must win when both are present.
	reading, err := JSON([]byte(`{"temperature": 20, "temp_c": 10}`))
	if err != nil {
		t.Fatal(err)
	}
	if reading.TemperatureC == nil || *reading.TemperatureC != 10 {
		t.Errorf("TemperatureC = %v, expected 10 (first alias wins)", reading.TemperatureC)
	}
}

func TestJSONDropsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"non-numeric temperature", `{"temp": "warm", "humidity": 50}`},
		{"out-of-range humidity", `{"humidity": 150, "temp": 10}`},
		{"null value", `{"temp": null, "humidity": 50}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := JSON([]byte(tt.payload))
			if err != nil {
				t.Fatalf("malformed field should not be fatal: %v", err)
			}
			switch tt.name {
			case "out-of-range humidity":
				if reading.HumidityPct != nil {
					t.Errorf("HumidityPct = %v, expected dropped", *reading.HumidityPct)
				}
			default:
				if reading.TemperatureC != nil {
					t.Errorf("TemperatureC = %v, expected dropped", *reading.TemperatureC)
				}
			}
		})
	}
}

func TestJSONUnrecognizedKeysIgnored(t *testing.T) {
	reading, err := JSON([]byte(`{"temp": 5, "frobnicator": 99, "note": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	if reading.TemperatureC == nil || *reading.TemperatureC != 5 {
		t.Errorf("TemperatureC = %v, expected 5", reading.TemperatureC)
	}
}

func TestJSONFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty payload", ``},
		{"not JSON", `this is not json`},
		{"no recognized fields", `{"frobnicator": 99}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSON([]byte(tt.payload))
			var failure *Failure
			if !errors.As(err, &failure) {
				t.Errorf("expected *Failure, got %v", err)
			}
		})
	}
}

func TestJSONDerivesDewpoint(t *testing.T) {
	reading, err := JSON([]byte(`{"temp": 20, "humidity": 65}`))
	if err != nil {
		t.Fatal(err)
	}
	if reading.DewpointC == nil {
		t.Fatal("DewpointC not derived from temperature and humidity")
	}
	want := DewpointC(20, 65)
	if *reading.DewpointC != want {
		t.Errorf("DewpointC = %v, expected %v", *reading.DewpointC, want)
	}
}

func TestJSONDoesNotOverrideSuppliedDewpoint(t *testing.T) {
	reading, err := JSON([]byte(`{"temp": 20, "humidity": 65, "dewpoint": 3.3}`))
	if err != nil {
		t.Fatal(err)
	}
	if reading.DewpointC == nil || *reading.DewpointC != 3.3 {
		t.Errorf("DewpointC = %v, expected supplied 3.3", reading.DewpointC)
	}
}

func TestBoltwood(t *testing.T) {
	reading, err := Boltwood("-10.5, 023, 998, 56, -18.2, 0.2, OK")
	if err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"temperature", reading.TemperatureC, -10.5},
		{"wind direction", reading.WindDirectionDeg, 23},
		{"pressure", reading.PressureHPa, 998},
		{"humidity", reading.HumidityPct, 56},
		{"dewpoint", reading.DewpointC, -18.2},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s not set", c.name)
			continue
		}
		if *c.got != c.want {
			t.Errorf("%s = %v, expected %v", c.name, *c.got, c.want)
		}
	}

	// Wind speed arrives in m/s and is converted to km/h.
	if reading.WindSpeedKmh == nil || math.Abs(*reading.WindSpeedKmh-0.72) > 1e-9 {
		t.Errorf("WindSpeedKmh = %v, expected 0.72", reading.WindSpeedKmh)
	}
	if reading.Conditions != "OK" {
		t.Errorf("Conditions = %q, expected OK", reading.Conditions)
	}
}

func TestBoltwoodMalformedField(t *testing.T) {
	// One malformed numeric drops only that field.
	reading, err := Boltwood("xx, 023, 998, 56, -18.2, 0.2, OK")
	if err != nil {
		t.Fatal(err)
	}
	if reading.TemperatureC != nil {
		t.Errorf("TemperatureC = %v, expected dropped", *reading.TemperatureC)
	}
	if reading.PressureHPa == nil || *reading.PressureHPa != 998 {
		t.Errorf("PressureHPa = %v, expected 998", reading.PressureHPa)
	}
}

func TestBoltwoodTooFewFields(t *testing.T) {
	_, err := Boltwood("1.0, 2.0, 3.0")
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Errorf("expected *Failure for short record, got %v", err)
	}
}

func TestKeyValue(t *testing.T) {
	payload := "temperature=12.5\nhumidity=65\npressure=1013.25\nwind_speed=5.2\nwind_direction=270\n"
	reading, err := KeyValue(payload)
	if err != nil {
		t.Fatal(err)
	}

	if reading.TemperatureC == nil || *reading.TemperatureC != 12.5 {
		t.Errorf("TemperatureC = %v, expected 12.5", reading.TemperatureC)
	}
	if reading.HumidityPct == nil || *reading.HumidityPct != 65 {
		t.Errorf("HumidityPct = %v, expected 65", reading.HumidityPct)
	}
	if reading.WindDirectionDeg == nil || *reading.WindDirectionDeg != 270 {
		t.Errorf("WindDirectionDeg = %v, expected 270", reading.WindDirectionDeg)
	}
	if reading.DewpointC == nil {
		t.Error("DewpointC not derived")
	}
}

func TestKeyValueSkipsJunkLines(t *testing.T) {
	payload := "# sensor dump\n\ntemperature=8.0\nnot a pair\nhumidity=55\n"
	reading, err := KeyValue(payload)
	if err != nil {
		t.Fatal(err)
	}
	if reading.TemperatureC == nil || *reading.TemperatureC != 8.0 {
		t.Errorf("TemperatureC = %v, expected 8.0", reading.TemperatureC)
	}
}

func TestKeyValueEmpty(t *testing.T) {
	_, err := KeyValue("")
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Errorf("expected *Failure for empty payload, got %v", err)
	}
}

func TestWindDirectionWrapped(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{360, 0},
		{365, 5},
		{-10, 350},
		{270, 270},
	}
	for _, tt := range tests {
		if got := wrapDegrees(tt.in); got != tt.want {
			t.Errorf("wrapDegrees(%v) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDispatch(t *testing.T) {
	if _, err := Normalize([]byte(`{"temp": 1}`), FormatJSON); err != nil {
		t.Errorf("json dispatch failed: %v", err)
	}
	if _, err := Normalize([]byte("1, 2, 3, 4, 5, 6, OK"), FormatBoltwood); err != nil {
		t.Errorf("boltwood dispatch failed: %v", err)
	}
	if _, err := Normalize([]byte("temperature=1"), FormatKeyValue); err != nil {
		t.Errorf("keyvalue dispatch failed: %v", err)
	}
}

func TestFormatForFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"boltwood.dat", FormatBoltwood},
		{"cloudsensor.txt", FormatKeyValue},
		{"current.json", FormatJSON},
		{"noext", FormatJSON},
	}
	for _, tt := range tests {
		if got := FormatForFilename(tt.name); got != tt.want {
			t.Errorf("FormatForFilename(%q) = %q, expected %q", tt.name, got, tt.want)
		}
	}
}
