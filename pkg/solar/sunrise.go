// Package solar computes sun event times (sunrise, sunset, astronomical
// twilight) from the NOAA low-accuracy solar position series.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Zenith angles for the supported sun events, in degrees.
const (
	// zenithOfficial includes atmospheric refraction and the solar disc radius.
	zenithOfficial = 90.833
	// zenithAstronomical is the sun 18 degrees below the horizon; beyond it
	// the sky is fully dark for deep-sky work.
	zenithAstronomical = 108.0
)

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// solarPosition returns the solar declination (radians) and the equation of
// time (minutes) for the given instant.
func solarPosition(t time.Time) (declinationRad, eqTimeMin float64) {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	sunLong := L0 + C
	omega := 125.04 - 1934.136*T
	lambda := sunLong - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	declinationRad = math.Asin(math.Sin(degToRad(eps0)) * math.Sin(degToRad(lambda)))

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	eqTimeMin = radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	return declinationRad, eqTimeMin
}

// crossings returns the UTC minutes from midnight at which the sun crosses
// the given zenith angle on the civil UTC date of `date`, descending in the
// evening and ascending in the morning. ok is false when the sun never
// reaches that zenith angle on the date (polar day or polar night).
func crossings(date time.Time, latitude, longitude, zenithDeg float64) (morningMin, eveningMin float64, ok bool) {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	declinationRad, eqTimeMin := solarPosition(noon)
	latRad := degToRad(latitude)

	cosH := (math.Cos(degToRad(zenithDeg)) - math.Sin(latRad)*math.Sin(declinationRad)) /
		(math.Cos(latRad) * math.Cos(declinationRad))
	if cosH < -1.0 || cosH > 1.0 {
		return 0, 0, false
	}

	// Hour angle in degrees, 4 minutes of time per degree.
	haMinutes := radToDeg(math.Acos(cosH)) * 4.0

	// Solar noon in UTC minutes from midnight. Positive (east) longitude
	// shifts solar noon earlier in UTC.
	solarNoon := 720.0 - 4.0*longitude - eqTimeMin

	return solarNoon - haMinutes, solarNoon + haMinutes, true
}

// CalculateSunriseSunset returns sunrise and sunset as minutes from midnight
// UTC for the civil UTC date of `date` at the given coordinates. Returns
// (-1, -1) for polar day or polar night.
func CalculateSunriseSunset(date time.Time, latitude, longitude float64) (sunriseMinutes, sunsetMinutes int) {
	rise, set, ok := crossings(date, latitude, longitude, zenithOfficial)
	if !ok {
		return -1, -1
	}
	return int(math.Round(math.Mod(rise+1440, 1440))), int(math.Round(math.Mod(set+1440, 1440)))
}

// CalculateAstronomicalTwilight returns the morning twilight start (sun
// ascending through -18 degrees) and the evening twilight end (sun descending
// through -18 degrees) as minutes from midnight UTC for the civil UTC date of
// `date`. Returns (-1, -1) when full astronomical darkness never occurs.
func CalculateAstronomicalTwilight(date time.Time, latitude, longitude float64) (dawnMinutes, duskMinutes int) {
	dawn, dusk, ok := crossings(date, latitude, longitude, zenithAstronomical)
	if !ok {
		return -1, -1
	}
	return int(math.Round(math.Mod(dawn+1440, 1440))), int(math.Round(math.Mod(dusk+1440, 1440)))
}

// TimeFromMinutes anchors UTC minutes from midnight onto the civil UTC date
// of `date`.
func TimeFromMinutes(date time.Time, minutes int) time.Time {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(minutes) * time.Minute)
}

// FormatSunTime converts UTC minutes from midnight to a formatted time string
// in the given timezone location. Returns "" for the polar sentinel.
func FormatSunTime(utcMinutes int, loc *time.Location) string {
	if utcMinutes < 0 {
		return ""
	}

	hours := utcMinutes / 60
	minutes := utcMinutes % 60

	t := time.Date(2000, 1, 1, hours, minutes, 0, 0, time.UTC)
	return t.In(loc).Format("3:04 PM")
}
