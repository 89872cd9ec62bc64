// Package lunar provides moon phase calculations using a synodic-month
// approximation anchored at a known new-moon epoch. Phase age is accurate
// to within a day or so, which is sufficient for observation planning;
// illumination uses a triangular ramp over the cycle rather than the true
// cosine of the phase angle.
package lunar

import (
	"math"
	"time"
)

// SynodicMonth is the average length of the lunar cycle in days
const SynodicMonth = 29.53059

// epoch is a known new moon: 2000-01-06 18:14 UTC.
var epoch = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

// phaseNames are the 8 phase buckets, equal-width over [0,1) starting at
// New Moon.
var phaseNames = [8]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// MoonPhase contains calculated moon phase information
type MoonPhase struct {
	Phase        float64 // Phase fraction [0,1): 0=new, 0.5=full
	Illumination float64 // Illuminated fraction [0,1]: 0=new, 1=full
	AgeDays      float64 // Days since new moon [0,SynodicMonth)
	IsWaxing     bool    // True when moon is waxing (getting fuller)
	PhaseName    string  // Human-readable phase name
}

// Calculate computes the moon phase for a given UTC timestamp
func Calculate(t time.Time) MoonPhase {
	days := t.Sub(epoch).Hours() / 24.0
	age := math.Mod(days, SynodicMonth)
	if age < 0 {
		age += SynodicMonth
	}
	phase := age / SynodicMonth

	return MoonPhase{
		Phase:        phase,
		Illumination: illumination(phase),
		AgeDays:      age,
		IsWaxing:     phase < 0.5,
		PhaseName:    phaseNames[int(phase*8)%8],
	}
}

// illumination ramps linearly 0→1 over the waxing half of the cycle and
// 1→0 over the waning half, clamped to [0,1].
func illumination(phase float64) float64 {
	var k float64
	if phase <= 0.5 {
		k = phase * 2
	} else {
		k = (1 - phase) * 2
	}
	return math.Max(0, math.Min(1, k))
}
