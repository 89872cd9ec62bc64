package types

import (
	"encoding/json"
	"time"
)

// Channel identifies a logical weather-data source. Readings from every
// channel are normalized into the same WeatherReading shape before storage.
type Channel string

const (
	ChannelLocal  Channel = "local"
	ChannelOnline Channel = "online"
	ChannelCamera Channel = "camera-station"
)

// Channels lists all channels in fusion fallback priority order.
var Channels = []Channel{ChannelLocal, ChannelOnline, ChannelCamera}

// WeatherReading is the canonical reading shape shared by every ingestion
// path. All measurement fields are optional; a nil pointer means the source
// did not supply that field. ObservedAt is always set.
type WeatherReading struct {
	ObservedAt       time.Time       `json:"timestamp"`
	TemperatureC     *float64        `json:"temperature_c,omitempty"`
	HumidityPct      *float64        `json:"humidity_pct,omitempty"`
	PressureHPa      *float64        `json:"pressure_hpa,omitempty"`
	DewpointC        *float64        `json:"dewpoint_c,omitempty"`
	WindSpeedKmh     *float64        `json:"wind_speed_kmh,omitempty"`
	WindDirectionDeg *float64        `json:"wind_direction_deg,omitempty"`
	CloudCoverPct    *float64        `json:"cloud_cover_pct,omitempty"`
	VisibilityKm     *float64        `json:"visibility_km,omitempty"`
	Conditions       string          `json:"conditions,omitempty"`
	SourceChannel    Channel         `json:"source_channel,omitempty"`
	StationName      string          `json:"station_name,omitempty"`
	RawPayload       json.RawMessage `json:"raw_payload,omitempty"`
}

// MergeFrom overlays the fields present in u onto r, preserving any field
// that u does not supply. This is the only update primitive the store exposes.
func (r *WeatherReading) MergeFrom(u WeatherReading) {
	if !u.ObservedAt.IsZero() {
		r.ObservedAt = u.ObservedAt
	}
	if u.TemperatureC != nil {
		r.TemperatureC = u.TemperatureC
	}
	if u.HumidityPct != nil {
		r.HumidityPct = u.HumidityPct
	}
	if u.PressureHPa != nil {
		r.PressureHPa = u.PressureHPa
	}
	if u.DewpointC != nil {
		r.DewpointC = u.DewpointC
	}
	if u.WindSpeedKmh != nil {
		r.WindSpeedKmh = u.WindSpeedKmh
	}
	if u.WindDirectionDeg != nil {
		r.WindDirectionDeg = u.WindDirectionDeg
	}
	if u.CloudCoverPct != nil {
		r.CloudCoverPct = u.CloudCoverPct
	}
	if u.VisibilityKm != nil {
		r.VisibilityKm = u.VisibilityKm
	}
	if u.Conditions != "" {
		r.Conditions = u.Conditions
	}
	if u.SourceChannel != "" {
		r.SourceChannel = u.SourceChannel
	}
	if u.StationName != "" {
		r.StationName = u.StationName
	}
	if u.RawPayload != nil {
		r.RawPayload = u.RawPayload
	}
}

// Float returns a pointer to v, for building optional reading fields.
func Float(v float64) *float64 {
	return &v
}

// CurrentConditions is one fused record built from all fresh channels.
// Provenance records which channel supplied each non-nil field.
type CurrentConditions struct {
	TemperatureC     *float64           `json:"temperature_c"`
	HumidityPct      *float64           `json:"humidity_pct"`
	PressureHPa      *float64           `json:"pressure_hpa"`
	DewpointC        *float64           `json:"dewpoint_c"`
	WindSpeedKmh     *float64           `json:"wind_speed_kmh"`
	WindDirectionDeg *float64           `json:"wind_direction_deg"`
	CloudCoverPct    *float64           `json:"cloud_cover_pct"`
	VisibilityKm     *float64           `json:"visibility_km"`
	Conditions       string             `json:"conditions"`
	Provenance       map[string]Channel `json:"per_field_provenance,omitempty"`
}

// ForecastPoint is a single future prediction from the online channel.
type ForecastPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	TemperatureC  float64   `json:"temperature_c"`
	CloudCoverPct float64   `json:"cloud_cover_pct"`
	HumidityPct   float64   `json:"humidity_pct"`
	WindSpeedKmh  float64   `json:"wind_speed_kmh"`
	Conditions    string    `json:"conditions"`
}

// AstronomyState holds moon and twilight data for one instant. It is
// computed fresh per forecast cycle and only embedded in the document.
type AstronomyState struct {
	MoonPhaseName         string    `json:"moon_phase"`
	MoonIlluminationPct   float64   `json:"moon_illumination_pct"`
	MoonAgeDays           float64   `json:"moon_age_days"`
	Sunrise               time.Time `json:"sun_rise"`
	Sunset                time.Time `json:"sun_set"`
	TwilightStart         time.Time `json:"astronomical_twilight_start"`
	TwilightEnd           time.Time `json:"astronomical_twilight_end"`
	DarknessDurationHours float64   `json:"darkness_duration_hours"`
}

// Observation window quality ratings.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityModerate  = "moderate"
	QualityPoor      = "poor"
)

// Moon interference levels.
const (
	MoonMinimal  = "minimal"
	MoonModerate = "moderate"
	MoonHigh     = "high"
)

// ObservationWindow is a scored future time span. Windows are immutable once
// computed and fully regenerated on every forecast cycle.
type ObservationWindow struct {
	PeriodName         string    `json:"period"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	DurationHours      float64   `json:"duration_hours"`
	Quality            string    `json:"quality"`
	Rating             float64   `json:"rating"`
	AvgCloudCoverPct   float64   `json:"avg_cloud_cover_pct"`
	MoonInterference   string    `json:"moon_interference"`
	RecommendedTargets []string  `json:"recommended_targets"`
	Notes              string    `json:"notes,omitempty"`
}

// IngestEvent kinds.
const (
	IngestKindImage    = "image"
	IngestKindMetadata = "metadata"
)

// IngestEvent describes one completed transfer from a camera station.
type IngestEvent struct {
	ReceivedAt    time.Time `json:"received_at"`
	Filename      string    `json:"filename"`
	SizeBytes     int64     `json:"size_bytes"`
	Kind          string    `json:"kind"`
	RemoteAddress string    `json:"remote_address"`
}

// StatusRecord is the last-writer-wins liveness record overwritten after
// every completed transfer.
type StatusRecord struct {
	LastEvent       string    `json:"last_event"`
	Timestamp       time.Time `json:"timestamp"`
	LastFilename    string    `json:"last_filename"`
	LastSizeBytes   int64     `json:"last_size_bytes"`
	Connection      string    `json:"connection"`
	ReceiverAddress string    `json:"receiver_address,omitempty"`
}

// DataSourceStatus reports per-channel availability in the document. Callers
// never have to infer failure from absence.
type DataSourceStatus struct {
	Available  bool       `json:"available"`
	Source     string     `json:"source"`
	Error      string     `json:"error,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
}

// SkyQuality is the composer's transparency/seeing estimate.
type SkyQuality struct {
	Transparency  string  `json:"transparency"`
	Seeing        string  `json:"seeing"`
	OverallRating float64 `json:"overall_rating"`
	SQMEstimate   float64 `json:"sqm_mag_per_arcsec2,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// Coordinates is the site location.
type Coordinates struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	ElevationM float64 `json:"elevation_m"`
}

// ForecastDocument is the published forecast, regenerated in full on every
// compose cycle and patched in place by metadata ingestion.
type ForecastDocument struct {
	Source             string                      `json:"source"`
	Timestamp          time.Time                   `json:"timestamp"`
	Location           string                      `json:"location"`
	Coordinates        Coordinates                 `json:"coordinates"`
	DataSources        map[string]DataSourceStatus `json:"data_sources"`
	Current            CurrentConditions           `json:"current"`
	Astronomy          AstronomyState              `json:"astronomy"`
	SkyQuality         SkyQuality                  `json:"sky_quality"`
	ObservationWindows []ObservationWindow         `json:"observation_windows"`
	Forecast48h        []ForecastPoint             `json:"forecast_48h"`
}

// ChannelResult is the outcome of fetching one channel: either a reading
// (plus a forecast sequence for the online channel) or an unavailability
// reason. It replaces error-as-control-flow for source failures.
type ChannelResult struct {
	Reading  *WeatherReading
	Forecast []ForecastPoint
	Source   string
	Err      error
}

// Available reports whether the channel produced a usable reading.
func (r ChannelResult) Available() bool {
	return r.Err == nil && r.Reading != nil
}

// Unavailable builds a failed ChannelResult for the given source.
func Unavailable(source string, err error) ChannelResult {
	return ChannelResult{Source: source, Err: err}
}
