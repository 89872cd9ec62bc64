// Package normalize converts source-specific weather payloads into the
// canonical WeatherReading. All ingestion paths (local sensor files, the
// online API client, HTTP posts, camera-station metadata) share the single
// alias table and dewpoint derivation defined here.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/internal/types"
)

// Format hints accepted by Normalize.
const (
	FormatJSON     = "json"
	FormatBoltwood = "boltwood"
	FormatKeyValue = "keyvalue"
)

// Failure reports a payload that could not be normalized at all. Individual
// malformed fields never produce a Failure; they are dropped field-by-field.
type Failure struct {
	Reason string
}

func (f *Failure) Error() string {
	return "normalize: " + f.Reason
}

// fieldAlias binds one canonical field to its accepted source keys, an
// optional validator, and the assignment into the canonical reading.
// Alias order matters: the first alias present in a payload wins.
type fieldAlias struct {
	canonical string
	aliases   []string
	validate  func(float64) bool
	assign    func(*types.WeatherReading, float64)
}

var aliasTable = []fieldAlias{
	{
		canonical: "temperature_c",
		aliases:   []string{"temperature_c", "temp_c", "temperature", "temp", "outdoor_temp", "t"},
		assign:    func(r *types.WeatherReading, v float64) { r.TemperatureC = types.Float(v) },
	},
	{
		canonical: "humidity_pct",
		aliases:   []string{"humidity_pct", "humidity", "rh", "relative_humidity"},
		validate:  func(v float64) bool { return v >= 0 && v <= 100 },
		assign:    func(r *types.WeatherReading, v float64) { r.HumidityPct = types.Float(v) },
	},
	{
		canonical: "pressure_hpa",
		aliases:   []string{"pressure_hpa", "pressure", "press", "barometric_pressure", "baro", "p"},
		assign:    func(r *types.WeatherReading, v float64) { r.PressureHPa = types.Float(v) },
	},
	{
		canonical: "dewpoint_c",
		aliases:   []string{"dewpoint_c", "dewpoint", "dew_point", "dp"},
		assign:    func(r *types.WeatherReading, v float64) { r.DewpointC = types.Float(v) },
	},
	{
		canonical: "wind_speed_kmh",
		aliases:   []string{"wind_speed_kmh", "wind_speed", "wind_kmh", "wind"},
		assign:    func(r *types.WeatherReading, v float64) { r.WindSpeedKmh = types.Float(v) },
	},
	{
		canonical: "wind_direction_deg",
		aliases:   []string{"wind_direction_deg", "wind_direction", "wind_dir"},
		assign: func(r *types.WeatherReading, v float64) {
			r.WindDirectionDeg = types.Float(wrapDegrees(v))
		},
	},
	{
		canonical: "cloud_cover_pct",
		aliases:   []string{"cloud_cover_pct", "cloud_cover", "clouds"},
		validate:  func(v float64) bool { return v >= 0 && v <= 100 },
		assign:    func(r *types.WeatherReading, v float64) { r.CloudCoverPct = types.Float(v) },
	},
	{
		canonical: "visibility_km",
		aliases:   []string{"visibility_km", "visibility"},
		assign:    func(r *types.WeatherReading, v float64) { r.VisibilityKm = types.Float(v) },
	},
}

// DewpointC computes the dewpoint via the Magnus approximation, rounded to
// one decimal. Every call site that needs a derived dewpoint uses this.
func DewpointC(tempC, rhPct float64) float64 {
	const a, b = 17.27, 237.7
	alpha := (a*tempC)/(b+tempC) + rhPct/100.0
	d := b * alpha / (a - alpha)
	return math.Round(d*10) / 10
}

// wrapDegrees maps an angle into [0, 360).
func wrapDegrees(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}

// Normalize converts payload into a canonical reading using the format hint.
// Unknown hints fall back to JSON.
func Normalize(payload []byte, hint string) (types.WeatherReading, error) {
	switch hint {
	case FormatBoltwood:
		return Boltwood(string(payload))
	case FormatKeyValue:
		return KeyValue(string(payload))
	default:
		return JSON(payload)
	}
}

// FormatForFilename maps a sensor file extension to a format hint.
func FormatForFilename(name string) string {
	switch {
	case strings.HasSuffix(name, ".dat"):
		return FormatBoltwood
	case strings.HasSuffix(name, ".txt"):
		return FormatKeyValue
	default:
		return FormatJSON
	}
}

// JSON normalizes a loosely-keyed JSON object. Keys are matched
// case-insensitively against the alias table; the first matching alias per
// canonical field wins. Non-numeric values for recognized keys are dropped.
func JSON(payload []byte) (types.WeatherReading, error) {
	var raw map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(string(payload)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return types.WeatherReading{}, &Failure{Reason: "invalid JSON: " + err.Error()}
	}

	lowered := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		lowered[strings.ToLower(k)] = v
	}

	reading, matched := applyAliases(lowered)
	if !matched {
		return types.WeatherReading{}, &Failure{Reason: "no recognized weather fields in payload"}
	}

	if name, ok := raw["station_name"].(string); ok {
		reading.StationName = name
	}
	if cond, ok := raw["conditions"].(string); ok {
		reading.Conditions = cond
	}
	if ts, ok := raw["timestamp"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			reading.ObservedAt = parsed
		}
	}

	finish(&reading, payload)
	return reading, nil
}

// Boltwood parses the single-line 7-field comma-separated record:
// temperature, wind direction, pressure, humidity, dewpoint, wind speed
// in m/s (converted to km/h), status code.
func Boltwood(line string) (types.WeatherReading, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < 7 {
		return types.WeatherReading{}, &Failure{
			Reason: "boltwood record has " + strconv.Itoa(len(parts)) + " fields, want 7",
		}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var reading types.WeatherReading
	if v, err := strconv.ParseFloat(parts[0], 64); err == nil {
		reading.TemperatureC = types.Float(v)
	} else {
		log.Debugf("boltwood: dropping malformed temperature %q", parts[0])
	}
	if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
		reading.WindDirectionDeg = types.Float(wrapDegrees(v))
	} else {
		log.Debugf("boltwood: dropping malformed wind direction %q", parts[1])
	}
	if v, err := strconv.ParseFloat(parts[2], 64); err == nil {
		reading.PressureHPa = types.Float(v)
	} else {
		log.Debugf("boltwood: dropping malformed pressure %q", parts[2])
	}
	if v, err := strconv.ParseFloat(parts[3], 64); err == nil && v >= 0 && v <= 100 {
		reading.HumidityPct = types.Float(v)
	} else {
		log.Debugf("boltwood: dropping malformed humidity %q", parts[3])
	}
	if v, err := strconv.ParseFloat(parts[4], 64); err == nil {
		reading.DewpointC = types.Float(v)
	} else {
		log.Debugf("boltwood: dropping malformed dewpoint %q", parts[4])
	}
	if v, err := strconv.ParseFloat(parts[5], 64); err == nil {
		reading.WindSpeedKmh = types.Float(v * 3.6)
	} else {
		log.Debugf("boltwood: dropping malformed wind speed %q", parts[5])
	}
	reading.Conditions = parts[6]

	finish(&reading, []byte(line))
	return reading, nil
}

// KeyValue parses one key=value assignment per line through the alias
// table. Keys are matched case-sensitively after trimming whitespace.
func KeyValue(text string) (types.WeatherReading, error) {
	values := make(map[string]interface{})
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "=") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if len(values) == 0 {
		return types.WeatherReading{}, &Failure{Reason: "no key=value assignments in payload"}
	}

	reading, matched := applyAliases(values)
	if !matched {
		return types.WeatherReading{}, &Failure{Reason: "no recognized weather fields in payload"}
	}

	finish(&reading, []byte(text))
	return reading, nil
}

// applyAliases walks the alias table over a parsed key→value map. For each
// canonical field the first present alias wins; later aliases are ignored.
// Non-numeric or out-of-range values for a recognized key are dropped.
func applyAliases(values map[string]interface{}) (types.WeatherReading, bool) {
	var reading types.WeatherReading
	matched := false

	for _, fa := range aliasTable {
		for _, alias := range fa.aliases {
			raw, ok := values[alias]
			if !ok {
				continue
			}
			v, ok := toFloat(raw)
			if !ok {
				log.Debugf("normalize: dropping non-numeric value %v for %s", raw, fa.canonical)
				break
			}
			if fa.validate != nil && !fa.validate(v) {
				log.Debugf("normalize: dropping out-of-range value %v for %s", v, fa.canonical)
				break
			}
			fa.assign(&reading, v)
			matched = true
			break
		}
	}

	return reading, matched
}

// finish stamps the observation time, derives the dewpoint when possible,
// and attaches the raw payload for diagnostics.
func finish(r *types.WeatherReading, raw []byte) {
	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now().UTC()
	}
	if r.DewpointC == nil && r.TemperatureC != nil && r.HumidityPct != nil {
		r.DewpointC = types.Float(DewpointC(*r.TemperatureC, *r.HumidityPct))
	}
	if json.Valid(raw) {
		r.RawPayload = json.RawMessage(raw)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
