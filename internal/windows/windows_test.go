package windows

import (
	"testing"
	"time"

	"github.com/dorolab/skywatch/internal/types"
)

var now = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

// tonightForecast builds hourly points covering tonight's 18:00 to 23:00 span.
func tonightForecast(cloudPct float64) []types.ForecastPoint {
	var points []types.ForecastPoint
	for h := 18; h <= 23; h++ {
		points = append(points, types.ForecastPoint{
			Timestamp:     time.Date(2024, 10, 15, h, 0, 0, 0, time.UTC),
			CloudCoverPct: cloudPct,
		})
	}
	return points
}

func TestExcellentWindow(t *testing.T) {
	got := Compute(now, tonightForecast(15), 20)
	if len(got) != 1 {
		t.Fatalf("got %d windows, expected 1", len(got))
	}

	w := got[0]
	if w.PeriodName != "Tonight" {
		t.Errorf("PeriodName = %q, expected Tonight", w.PeriodName)
	}
	if w.Quality != types.QualityExcellent {
		t.Errorf("Quality = %q, expected excellent", w.Quality)
	}
	if w.Rating != 9.5 {
		t.Errorf("Rating = %v, expected 9.5", w.Rating)
	}
	if w.AvgCloudCoverPct != 15 {
		t.Errorf("AvgCloudCoverPct = %v, expected 15", w.AvgCloudCoverPct)
	}
	if w.MoonInterference != types.MoonMinimal {
		t.Errorf("MoonInterference = %q, expected minimal", w.MoonInterference)
	}
	if len(w.RecommendedTargets) == 0 || w.RecommendedTargets[0] != "Faint galaxies" {
		t.Errorf("RecommendedTargets = %v, expected deep-sky list", w.RecommendedTargets)
	}
	if w.DurationHours != 5 {
		t.Errorf("DurationHours = %v, expected 5", w.DurationHours)
	}
	if w.Notes != "Average cloud cover: 15%, Moon: 20% illuminated" {
		t.Errorf("Notes = %q", w.Notes)
	}
}

func TestQualityTiers(t *testing.T) {
	tests := []struct {
		clouds  float64
		quality string
		rating  float64
	}{
		{10, types.QualityExcellent, 9.5},
		{30, types.QualityGood, 7.5},
		{50, types.QualityModerate, 5.0},
		{75, types.QualityPoor, 3.0},
	}
	for _, tt := range tests {
		got := Compute(now, tonightForecast(tt.clouds), 10)
		if len(got) != 1 {
			t.Fatalf("clouds=%v: got %d windows, expected 1", tt.clouds, len(got))
		}
		if got[0].Quality != tt.quality || got[0].Rating != tt.rating {
			t.Errorf("clouds=%v: quality=%q rating=%v, expected %q %v",
				tt.clouds, got[0].Quality, got[0].Rating, tt.quality, tt.rating)
		}
	}
}

func TestMoonPenalty(t *testing.T) {
	tests := []struct {
		illumination float64
		interference string
		rating       float64
	}{
		{90, types.MoonHigh, 8.0},
		{60, types.MoonModerate, 9.0},
		{30, types.MoonMinimal, 9.5},
	}
	for _, tt := range tests {
		got := Compute(now, tonightForecast(10), tt.illumination)
		if len(got) != 1 {
			t.Fatalf("illumination=%v: got %d windows, expected 1", tt.illumination, len(got))
		}
		if got[0].MoonInterference != tt.interference {
			t.Errorf("illumination=%v: interference=%q, expected %q",
				tt.illumination, got[0].MoonInterference, tt.interference)
		}
		if got[0].Rating != tt.rating {
			t.Errorf("illumination=%v: rating=%v, expected %v",
				tt.illumination, got[0].Rating, tt.rating)
		}
	}
}

func TestMoonPenaltyOnPoorSky(t *testing.T) {
	got := Compute(now, tonightForecast(95), 95)
	if len(got) != 1 {
		t.Fatalf("got %d windows, expected 1", len(got))
	}
	if got[0].Rating != 1.5 {
		t.Errorf("Rating = %v, expected 3.0 minus 1.5", got[0].Rating)
	}
}

func TestEmptyForecastYieldsNoWindows(t *testing.T) {
	if got := Compute(now, nil, 50); len(got) != 0 {
		t.Errorf("got %d windows for empty forecast, expected 0", len(got))
	}
}

func TestWindowWithoutPointsDropped(t *testing.T) {
	// Points only cover tonight; the late-night and tomorrow-evening spans
	// have no data and are dropped.
	got := Compute(now, tonightForecast(25), 10)
	if len(got) != 1 {
		t.Fatalf("got %d windows, expected only Tonight", len(got))
	}
	if got[0].PeriodName != "Tonight" {
		t.Errorf("PeriodName = %q, expected Tonight", got[0].PeriodName)
	}
}

func TestAllThreePeriods(t *testing.T) {
	var points []types.ForecastPoint
	for h := 0; h < 48; h += 3 {
		points = append(points, types.ForecastPoint{
			Timestamp:     now.Add(time.Duration(h) * time.Hour),
			CloudCoverPct: 20,
		})
	}

	got := Compute(now, points, 10)
	if len(got) != 3 {
		t.Fatalf("got %d windows, expected 3", len(got))
	}
	names := []string{"Tonight", "Late Night", "Tomorrow Evening"}
	for i, want := range names {
		if got[i].PeriodName != want {
			t.Errorf("window %d = %q, expected %q", i, got[i].PeriodName, want)
		}
	}
	if got[1].DurationHours != 5.5 {
		t.Errorf("Late Night duration = %v, expected 5.5", got[1].DurationHours)
	}
}
