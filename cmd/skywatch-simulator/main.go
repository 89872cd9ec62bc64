// skywatch-simulator writes a simulated sensor file for development without
// hardware. Values drift with a bounded random walk so consecutive readings
// look like a real site instead of white noise.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dorolab/skywatch/internal/normalize"
)

const (
	defaultInterval = 30 * time.Second
	defaultFile     = "simulated-sensor.txt"
)

// sensorState carries the drifting measurements between ticks.
type sensorState struct {
	tempC       float64
	humidityPct float64
	pressureHPa float64
	windKmh     float64
	windDeg     float64
	cloudPct    float64
}

func main() {
	var (
		file     = flag.String("file", defaultFile, "Sensor file to overwrite on every tick")
		format   = flag.String("format", "keyvalue", "Output format: keyvalue or boltwood")
		interval = flag.Duration("interval", defaultInterval, "Interval between writes")
		seed     = flag.Int64("seed", 0, "Random seed (0 seeds from the clock)")
	)
	flag.Parse()

	if *format != "keyvalue" && *format != "boltwood" {
		fmt.Fprintf(os.Stderr, "unknown format %q: use keyvalue or boltwood\n", *format)
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "[skywatch-simulator] ", log.LstdFlags)

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	state := sensorState{
		tempC:       8.0,
		humidityPct: 55.0,
		pressureHPa: 1016.0,
		windKmh:     9.0,
		windDeg:     270.0,
		cloudPct:    20.0,
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	logger.Printf("writing %s readings to %s every %v", *format, *file, *interval)
	write(logger, *file, *format, &state, rng)

	for {
		select {
		case <-sigs:
			logger.Println("shutting down")
			return
		case <-ticker.C:
			write(logger, *file, *format, &state, rng)
		}
	}
}

func write(logger *log.Logger, file, format string, state *sensorState, rng *rand.Rand) {
	state.drift(rng)

	var payload string
	if format == "boltwood" {
		payload = state.boltwoodRecord()
	} else {
		payload = state.keyValueRecord()
	}

	if err := os.WriteFile(file, []byte(payload), 0o644); err != nil {
		logger.Printf("writing %s: %v", file, err)
		return
	}
	logger.Printf("wrote %.1f°C %.0f%%RH %.0f%% clouds", state.tempC, state.humidityPct, state.cloudPct)
}

// drift nudges every measurement and clamps it to a plausible range.
func (s *sensorState) drift(rng *rand.Rand) {
	step := func(v, scale, min, max float64) float64 {
		v += (rng.Float64()*2 - 1) * scale
		if v < min {
			v = min
		}
		if v > max {
			v = max
		}
		return v
	}

	s.tempC = step(s.tempC, 0.4, -25, 40)
	s.humidityPct = step(s.humidityPct, 2.0, 5, 100)
	s.pressureHPa = step(s.pressureHPa, 0.3, 980, 1045)
	s.windKmh = step(s.windKmh, 1.5, 0, 70)
	s.cloudPct = step(s.cloudPct, 4.0, 0, 100)

	s.windDeg += (rng.Float64()*2 - 1) * 10
	for s.windDeg < 0 {
		s.windDeg += 360
	}
	for s.windDeg >= 360 {
		s.windDeg -= 360
	}
}

func (s *sensorState) keyValueRecord() string {
	dewpoint := normalize.DewpointC(s.tempC, s.humidityPct)
	return fmt.Sprintf(
		"temperature=%.1f\nhumidity=%.1f\npressure=%.1f\ndewpoint=%.1f\nwind_speed=%.1f\nwind_direction=%.0f\ncloud_cover=%.0f\n",
		s.tempC, s.humidityPct, s.pressureHPa, dewpoint, s.windKmh, s.windDeg, s.cloudPct)
}

func (s *sensorState) boltwoodRecord() string {
	dewpoint := normalize.DewpointC(s.tempC, s.humidityPct)
	// Wind speed goes out in m/s like the real sensor; readers convert back.
	return fmt.Sprintf("%.1f,%.0f,%.1f,%.1f,%.1f,%.2f,0\n",
		s.tempC, s.windDeg, s.pressureHPa, s.humidityPct, dewpoint, s.windKmh/3.6)
}
