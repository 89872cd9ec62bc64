// Package config defines the configuration provider interface and the
// configuration data structures used throughout the application.
package config

import (
	"fmt"
	"time"
)

// ConfigProvider is the interface for loading application configuration.
type ConfigProvider interface {
	LoadConfig() (*ConfigData, error)
	IsReadOnly() bool
	Close() error
}

// ConfigData is the complete application configuration.
type ConfigData struct {
	Site        SiteData
	DataDir     string
	LogFile     string
	OpenWeather OpenWeatherData
	Sensors     []SensorData
	Ingest      IngestData
	Intake      IntakeData
	Scheduler   SchedulerData
	Metrics     MetricsData
}

// SiteData describes the observing site.
type SiteData struct {
	Name       string
	Latitude   float64
	Longitude  float64
	ElevationM float64
}

// OpenWeatherData configures the online weather channel. An empty APIKey
// disables the channel; the application still runs on local sensors.
type OpenWeatherData struct {
	APIKey  string
	Timeout time.Duration
}

// SensorData describes one local sensor input, either a serial device or a
// file that an external logger keeps overwriting.
type SensorData struct {
	Name         string
	Type         string
	SerialDevice string
	Baud         int
	File         string
	PollInterval time.Duration
}

// IngestData configures the camera-station ingest pipeline.
type IngestData struct {
	InboxDir      string
	DrainInterval time.Duration
}

// IntakeData configures the HTTP intake server.
type IntakeData struct {
	ListenAddr     string
	UploadUser     string
	UploadPassword string
}

// SchedulerData configures the periodic jobs.
type SchedulerData struct {
	ComposeInterval time.Duration
}

// MetricsData configures the Prometheus endpoint. An empty ListenAddr
// disables it.
type MetricsData struct {
	ListenAddr string
}

// Sensor types.
const (
	SensorBoltwood    = "boltwood"
	SensorCloudSensor = "cloudsensor"
)

// Validate checks the loaded configuration for inconsistencies that would
// only surface later at runtime.
func (c *ConfigData) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data-dir is required")
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		return fmt.Errorf("site latitude %v out of range", c.Site.Latitude)
	}
	if c.Site.Longitude < -180 || c.Site.Longitude > 180 {
		return fmt.Errorf("site longitude %v out of range", c.Site.Longitude)
	}
	for _, s := range c.Sensors {
		switch s.Type {
		case SensorBoltwood, SensorCloudSensor:
		default:
			return fmt.Errorf("sensor %q has unknown type %q", s.Name, s.Type)
		}
		if s.SerialDevice == "" && s.File == "" {
			return fmt.Errorf("sensor %q needs a serialdevice or a file", s.Name)
		}
	}
	return nil
}
