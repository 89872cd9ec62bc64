package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skywatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const fullConfig = `
site:
  name: "DORO Lab Observatory · IT:U Austria"
  latitude: 48.2082
  longitude: 16.3738
  elevation-m: 171
data-dir: /var/lib/skywatch
log-file: /var/log/skywatch.log
openweather:
  api-key: abc123
  timeout: 8s
sensors:
  - name: roof-boltwood
    type: boltwood
    serialdevice: /dev/ttyUSB0
    baud: 9600
  - name: cloudwatcher
    type: cloudsensor
    file: /var/lib/skywatch/cloudwatcher.txt
    poll-interval: 30s
ingest:
  inbox-dir: /var/lib/skywatch/inbox
  drain-interval: 45s
intake:
  listen-addr: ":8085"
  upload-user: camera
  upload-password: secret
scheduler:
  compose-interval: 10m
metrics:
  listen-addr: ":9090"
`

func TestLoadFullConfig(t *testing.T) {
	provider := NewYAMLProvider(writeConfig(t, fullConfig))
	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Site.Name != "DORO Lab Observatory · IT:U Austria" {
		t.Errorf("site name = %q", cfg.Site.Name)
	}
	if cfg.Site.Latitude != 48.2082 || cfg.Site.Longitude != 16.3738 {
		t.Errorf("coordinates = %v, %v", cfg.Site.Latitude, cfg.Site.Longitude)
	}
	if cfg.OpenWeather.APIKey != "abc123" || cfg.OpenWeather.Timeout != 8*time.Second {
		t.Errorf("openweather = %+v", cfg.OpenWeather)
	}
	if len(cfg.Sensors) != 2 {
		t.Fatalf("got %d sensors, expected 2", len(cfg.Sensors))
	}
	if cfg.Sensors[0].Type != SensorBoltwood || cfg.Sensors[0].Baud != 9600 {
		t.Errorf("sensor 0 = %+v", cfg.Sensors[0])
	}
	if cfg.Sensors[1].PollInterval != 30*time.Second {
		t.Errorf("sensor 1 poll interval = %v", cfg.Sensors[1].PollInterval)
	}
	if cfg.Ingest.DrainInterval != 45*time.Second {
		t.Errorf("drain interval = %v", cfg.Ingest.DrainInterval)
	}
	if cfg.Intake.ListenAddr != ":8085" || cfg.Intake.UploadUser != "camera" {
		t.Errorf("intake = %+v", cfg.Intake)
	}
	if cfg.Scheduler.ComposeInterval != 10*time.Minute {
		t.Errorf("compose interval = %v", cfg.Scheduler.ComposeInterval)
	}
}

func TestLoadMinimalConfigAppliesDefaults(t *testing.T) {
	provider := NewYAMLProvider(writeConfig(t, `
site:
  name: Test Site
  latitude: 48.0
  longitude: 16.0
data-dir: /tmp/skywatch
`))
	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Scheduler.ComposeInterval != 15*time.Minute {
		t.Errorf("compose interval = %v, expected default 15m", cfg.Scheduler.ComposeInterval)
	}
	if cfg.Ingest.DrainInterval != 60*time.Second {
		t.Errorf("drain interval = %v, expected default 60s", cfg.Ingest.DrainInterval)
	}
	if cfg.OpenWeather.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, expected default 10s", cfg.OpenWeather.Timeout)
	}
	if cfg.Intake.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q, expected default :8080", cfg.Intake.ListenAddr)
	}
	if cfg.Metrics.ListenAddr != "" {
		t.Errorf("metrics addr = %q, expected disabled", cfg.Metrics.ListenAddr)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing data dir", "site:\n  latitude: 48\n  longitude: 16\n"},
		{"latitude out of range", "data-dir: /tmp\nsite:\n  latitude: 148\n  longitude: 16\n"},
		{"unknown sensor type", "data-dir: /tmp\nsite:\n  latitude: 48\n  longitude: 16\nsensors:\n  - name: x\n    type: sqm\n    file: /tmp/x\n"},
		{"sensor without source", "data-dir: /tmp\nsite:\n  latitude: 48\n  longitude: 16\nsensors:\n  - name: x\n    type: boltwood\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewYAMLProvider(writeConfig(t, tt.content))
			if _, err := provider.LoadConfig(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	provider := NewYAMLProvider("/nonexistent/skywatch.yaml")
	if _, err := provider.LoadConfig(); err == nil {
		t.Error("expected error for missing file")
	}
}
