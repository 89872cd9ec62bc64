// Package fusion merges per-channel readings into one current-conditions
// record. Precedence is per field: measured quantities trust the local
// sensors first, sky observations trust the online provider first, and the
// camera station is a fallback for everything. Stale local readings are
// excluded before fusion.
package fusion

import (
	"time"

	"github.com/dorolab/skywatch/internal/store"
	"github.com/dorolab/skywatch/internal/types"
)

// Per-field channel priority. Order matters: first channel with the field
// present wins.
var (
	measuredPriority = []types.Channel{types.ChannelLocal, types.ChannelOnline, types.ChannelCamera}
	skyPriority      = []types.Channel{types.ChannelOnline, types.ChannelLocal, types.ChannelCamera}
)

type fusedField struct {
	name     string
	priority []types.Channel
	get      func(types.WeatherReading) *float64
	set      func(*types.CurrentConditions, *float64)
}

var fieldTable = []fusedField{
	{
		name:     "temperature_c",
		priority: measuredPriority,
		get:      func(r types.WeatherReading) *float64 { return r.TemperatureC },
		set:      func(c *types.CurrentConditions, v *float64) { c.TemperatureC = v },
	},
	{
		name:     "humidity_pct",
		priority: measuredPriority,
		get:      func(r types.WeatherReading) *float64 { return r.HumidityPct },
		set:      func(c *types.CurrentConditions, v *float64) { c.HumidityPct = v },
	},
	{
		name:     "pressure_hpa",
		priority: measuredPriority,
		get:      func(r types.WeatherReading) *float64 { return r.PressureHPa },
		set:      func(c *types.CurrentConditions, v *float64) { c.PressureHPa = v },
	},
	{
		name:     "dewpoint_c",
		priority: measuredPriority,
		get:      func(r types.WeatherReading) *float64 { return r.DewpointC },
		set:      func(c *types.CurrentConditions, v *float64) { c.DewpointC = v },
	},
	{
		name:     "wind_speed_kmh",
		priority: measuredPriority,
		get:      func(r types.WeatherReading) *float64 { return r.WindSpeedKmh },
		set:      func(c *types.CurrentConditions, v *float64) { c.WindSpeedKmh = v },
	},
	{
		name:     "wind_direction_deg",
		priority: measuredPriority,
		get:      func(r types.WeatherReading) *float64 { return r.WindDirectionDeg },
		set:      func(c *types.CurrentConditions, v *float64) { c.WindDirectionDeg = v },
	},
	{
		name:     "cloud_cover_pct",
		priority: skyPriority,
		get:      func(r types.WeatherReading) *float64 { return r.CloudCoverPct },
		set:      func(c *types.CurrentConditions, v *float64) { c.CloudCoverPct = v },
	},
	{
		name:     "visibility_km",
		priority: skyPriority,
		get:      func(r types.WeatherReading) *float64 { return r.VisibilityKm },
		set:      func(c *types.CurrentConditions, v *float64) { c.VisibilityKm = v },
	},
}

// Fuse builds one current-conditions record from the available channel
// readings at now. Provenance records the winning channel per field.
func Fuse(readings map[types.Channel]types.WeatherReading, now time.Time) types.CurrentConditions {
	usable := make(map[types.Channel]types.WeatherReading, len(readings))
	for ch, r := range readings {
		if ch == types.ChannelLocal && store.IsStale(r, now) {
			continue
		}
		usable[ch] = r
	}

	fused := types.CurrentConditions{Provenance: make(map[string]types.Channel)}

	for _, f := range fieldTable {
		for _, ch := range f.priority {
			r, ok := usable[ch]
			if !ok {
				continue
			}
			if v := f.get(r); v != nil {
				f.set(&fused, v)
				fused.Provenance[f.name] = ch
				break
			}
		}
	}

	for _, ch := range skyPriority {
		if r, ok := usable[ch]; ok && r.Conditions != "" {
			fused.Conditions = r.Conditions
			fused.Provenance["conditions"] = ch
			break
		}
	}

	if len(fused.Provenance) == 0 {
		fused.Provenance = nil
	}
	return fused
}
