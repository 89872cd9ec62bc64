// Package astronomy composes moon phase and sun event calculations into the
// per-cycle astronomy snapshot embedded in the forecast document.
package astronomy

import (
	"math"
	"time"

	"github.com/dorolab/skywatch/internal/types"
	"github.com/dorolab/skywatch/pkg/lunar"
	"github.com/dorolab/skywatch/pkg/solar"
)

// Compute builds the astronomy state for the civil UTC date of `at` at the
// site coordinates. Twilight start is this evening's descent through -18
// degrees; twilight end is the following morning's ascent. At latitudes where
// the sun never reaches -18 degrees the twilight instants are zero and the
// darkness duration is 0.
func Compute(at time.Time, site types.Coordinates) types.AstronomyState {
	at = at.UTC()
	moon := lunar.Calculate(at)

	state := types.AstronomyState{
		MoonPhaseName:       moon.PhaseName,
		MoonIlluminationPct: round1(moon.Illumination * 100),
		MoonAgeDays:         round1(moon.AgeDays),
	}

	sunriseMin, sunsetMin := solar.CalculateSunriseSunset(at, site.Lat, site.Lon)
	if sunriseMin >= 0 {
		state.Sunrise = solar.TimeFromMinutes(at, sunriseMin)
		state.Sunset = solar.TimeFromMinutes(at, sunsetMin)
	}

	_, duskMin := solar.CalculateAstronomicalTwilight(at, site.Lat, site.Lon)
	tomorrow := at.AddDate(0, 0, 1)
	dawnMin, _ := solar.CalculateAstronomicalTwilight(tomorrow, site.Lat, site.Lon)
	if duskMin >= 0 && dawnMin >= 0 {
		state.TwilightStart = solar.TimeFromMinutes(at, duskMin)
		state.TwilightEnd = solar.TimeFromMinutes(tomorrow, dawnMin)
		state.DarknessDurationHours = round1(state.TwilightEnd.Sub(state.TwilightStart).Hours())
	}

	return state
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
