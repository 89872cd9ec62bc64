// Package windows derives scored observation windows from the hourly cloud
// forecast and the current moon illumination.
package windows

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/dorolab/skywatch/internal/types"
)

// candidate is one fixed evening/night span relative to the reference time.
type candidate struct {
	name  string
	start time.Time
	end   time.Time
}

// candidates returns the three standing observation periods anchored on the
// UTC day of now: tonight's early evening, the late night crossing midnight,
// and tomorrow evening.
func candidates(now time.Time) []candidate {
	now = now.UTC()
	day := func(offset, hour, minute int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC).
			AddDate(0, 0, offset)
	}
	return []candidate{
		{name: "Tonight", start: day(0, 18, 0), end: day(0, 23, 0)},
		{name: "Late Night", start: day(0, 23, 30), end: day(1, 5, 0)},
		{name: "Tomorrow Evening", start: day(1, 18, 0), end: day(1, 23, 30)},
	}
}

// Compute scores every candidate period against the forecast. Periods with no
// forecast points inside them are dropped, so an empty forecast yields no
// windows.
func Compute(now time.Time, forecast []types.ForecastPoint, moonIlluminationPct float64) []types.ObservationWindow {
	var out []types.ObservationWindow

	for _, c := range candidates(now) {
		var clouds []float64
		for _, p := range forecast {
			ts := p.Timestamp.UTC()
			if !ts.Before(c.start) && !ts.After(c.end) {
				clouds = append(clouds, p.CloudCoverPct)
			}
		}
		if len(clouds) == 0 {
			continue
		}

		avgClouds := stat.Mean(clouds, nil)
		quality, rating, targets := rate(avgClouds)
		interference, penalty := moonInterference(moonIlluminationPct)
		rating = math.Max(0, math.Min(10, rating-penalty))

		out = append(out, types.ObservationWindow{
			PeriodName:         c.name,
			Start:              c.start,
			End:                c.end,
			DurationHours:      math.Round(c.end.Sub(c.start).Hours()*100) / 100,
			Quality:            quality,
			Rating:             math.Round(rating*10) / 10,
			AvgCloudCoverPct:   math.Round(avgClouds*10) / 10,
			MoonInterference:   interference,
			RecommendedTargets: targets,
			Notes: fmt.Sprintf("Average cloud cover: %.0f%%, Moon: %.0f%% illuminated",
				avgClouds, moonIlluminationPct),
		})
	}

	return out
}

// rate maps average cloud cover to a quality tier, base rating, and target
// list.
func rate(avgClouds float64) (quality string, rating float64, targets []string) {
	switch {
	case avgClouds < 20:
		return types.QualityExcellent, 9.5,
			[]string{"Faint galaxies", "Nebulae", "Star clusters", "Deep-sky imaging"}
	case avgClouds < 40:
		return types.QualityGood, 7.5,
			[]string{"Planets", "Bright deep-sky objects", "Moon features"}
	case avgClouds < 60:
		return types.QualityModerate, 5.0,
			[]string{"Planets", "Moon", "Bright stars"}
	default:
		return types.QualityPoor, 3.0,
			[]string{"Not recommended for observation"}
	}
}

// moonInterference maps illumination to an interference level and a rating
// penalty.
func moonInterference(illuminationPct float64) (string, float64) {
	switch {
	case illuminationPct > 80:
		return types.MoonHigh, 1.5
	case illuminationPct > 40:
		return types.MoonModerate, 0.5
	default:
		return types.MoonMinimal, 0
	}
}
