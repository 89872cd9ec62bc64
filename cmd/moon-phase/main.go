package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dorolab/skywatch/internal/astronomy"
	"github.com/dorolab/skywatch/internal/types"
	"github.com/dorolab/skywatch/pkg/lunar"
)

func main() {
	var timeStr string
	var lat, lon float64
	flag.StringVar(&timeStr, "time", "", "UTC time to calculate phase for (RFC3339 format, e.g., 2024-01-15T12:00:00Z)")
	flag.Float64Var(&lat, "lat", 0, "Site latitude for sun/twilight times")
	flag.Float64Var(&lon, "lon", 0, "Site longitude for sun/twilight times")
	flag.Parse()

	var t time.Time
	if timeStr == "" {
		t = time.Now().UTC()
	} else {
		var err error
		t, err = time.Parse(time.RFC3339, timeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
			os.Exit(1)
		}
	}

	phase := lunar.Calculate(t)

	fmt.Printf("Moon Phase for %s\n", t.Format(time.RFC3339))
	fmt.Printf("  Phase:        %.1f%% (%.4f)\n", phase.Phase*100, phase.Phase)
	fmt.Printf("  Phase Name:   %s\n", phase.PhaseName)
	fmt.Printf("  Illumination: %.1f%%\n", phase.Illumination*100)
	fmt.Printf("  Age:          %.1f days\n", phase.AgeDays)
	if phase.IsWaxing {
		fmt.Printf("  Direction:    Waxing\n")
	} else {
		fmt.Printf("  Direction:    Waning\n")
	}

	if lat == 0 && lon == 0 {
		return
	}

	state := astronomy.Compute(t, types.Coordinates{Lat: lat, Lon: lon})
	fmt.Printf("\nSun Events for %.4f, %.4f\n", lat, lon)
	fmt.Printf("  Sunrise:          %s\n", formatEvent(state.Sunrise))
	fmt.Printf("  Sunset:           %s\n", formatEvent(state.Sunset))
	fmt.Printf("  Twilight Start:   %s\n", formatEvent(state.TwilightStart))
	fmt.Printf("  Twilight End:     %s\n", formatEvent(state.TwilightEnd))
	fmt.Printf("  Darkness:         %.1f hours\n", state.DarknessDurationHours)
}

func formatEvent(t time.Time) string {
	if t.IsZero() {
		return "never (polar day/night)"
	}
	return t.Format(time.RFC3339)
}
