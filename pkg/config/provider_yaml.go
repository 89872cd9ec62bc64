package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Defaults applied when the YAML omits a value.
const (
	defaultComposeInterval = 15 * time.Minute
	defaultDrainInterval   = 60 * time.Second
	defaultPollInterval    = 60 * time.Second
	defaultAPITimeout      = 10 * time.Second
	defaultBaud            = 4800
	defaultListenAddr      = ":8080"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file, applies
// defaults, and validates it.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlConfig configYAML
	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	config := &ConfigData{
		Site: SiteData{
			Name:       yamlConfig.Site.Name,
			Latitude:   yamlConfig.Site.Latitude,
			Longitude:  yamlConfig.Site.Longitude,
			ElevationM: yamlConfig.Site.ElevationM,
		},
		DataDir: yamlConfig.DataDir,
		LogFile: yamlConfig.LogFile,
		OpenWeather: OpenWeatherData{
			APIKey:  yamlConfig.OpenWeather.APIKey,
			Timeout: durationOr(yamlConfig.OpenWeather.Timeout, defaultAPITimeout),
		},
		Ingest: IngestData{
			InboxDir:      yamlConfig.Ingest.InboxDir,
			DrainInterval: durationOr(yamlConfig.Ingest.DrainInterval, defaultDrainInterval),
		},
		Intake: IntakeData{
			ListenAddr:     stringOr(yamlConfig.Intake.ListenAddr, defaultListenAddr),
			UploadUser:     yamlConfig.Intake.UploadUser,
			UploadPassword: yamlConfig.Intake.UploadPassword,
		},
		Scheduler: SchedulerData{
			ComposeInterval: durationOr(yamlConfig.Scheduler.ComposeInterval, defaultComposeInterval),
		},
		Metrics: MetricsData{
			ListenAddr: yamlConfig.Metrics.ListenAddr,
		},
	}

	// API key can come from the environment instead of the file.
	if config.OpenWeather.APIKey == "" {
		config.OpenWeather.APIKey = os.Getenv("OPENWEATHER_API_KEY")
	}

	config.Sensors = make([]SensorData, len(yamlConfig.Sensors))
	for i, s := range yamlConfig.Sensors {
		baud := s.Baud
		if baud == 0 {
			baud = defaultBaud
		}
		config.Sensors[i] = SensorData{
			Name:         s.Name,
			Type:         s.Type,
			SerialDevice: s.SerialDevice,
			Baud:         baud,
			File:         s.File,
			PollInterval: durationOr(s.PollInterval, defaultPollInterval),
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// YAML-specific structs for parsing the configuration file format
type configYAML struct {
	Site        siteYAML        `yaml:"site"`
	DataDir     string          `yaml:"data-dir"`
	LogFile     string          `yaml:"log-file,omitempty"`
	OpenWeather openWeatherYAML `yaml:"openweather,omitempty"`
	Sensors     []sensorYAML    `yaml:"sensors,omitempty"`
	Ingest      ingestYAML      `yaml:"ingest,omitempty"`
	Intake      intakeYAML      `yaml:"intake,omitempty"`
	Scheduler   schedulerYAML   `yaml:"scheduler,omitempty"`
	Metrics     metricsYAML     `yaml:"metrics,omitempty"`
}

type siteYAML struct {
	Name       string  `yaml:"name"`
	Latitude   float64 `yaml:"latitude"`
	Longitude  float64 `yaml:"longitude"`
	ElevationM float64 `yaml:"elevation-m,omitempty"`
}

type openWeatherYAML struct {
	APIKey  string `yaml:"api-key,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

type sensorYAML struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	SerialDevice string `yaml:"serialdevice,omitempty"`
	Baud         int    `yaml:"baud,omitempty"`
	File         string `yaml:"file,omitempty"`
	PollInterval string `yaml:"poll-interval,omitempty"`
}

type ingestYAML struct {
	InboxDir      string `yaml:"inbox-dir,omitempty"`
	DrainInterval string `yaml:"drain-interval,omitempty"`
}

type intakeYAML struct {
	ListenAddr     string `yaml:"listen-addr,omitempty"`
	UploadUser     string `yaml:"upload-user,omitempty"`
	UploadPassword string `yaml:"upload-password,omitempty"`
}

type schedulerYAML struct {
	ComposeInterval string `yaml:"compose-interval,omitempty"`
}

type metricsYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
}
