// Package openweather fetches current conditions and the 48-hour forecast
// from the OpenWeatherMap API. Requests run behind a circuit breaker with
// exponential-backoff retries; a missing API key or a tripped breaker yields
// an unavailable channel result instead of an error escaping to the caller.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/internal/normalize"
	"github.com/dorolab/skywatch/internal/types"
)

// Source names this channel in documents and status reports.
const Source = "OpenWeatherMap API"

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultTimeout = 10 * time.Second

	// 16 three-hour intervals cover the published 48-hour horizon.
	maxForecastPoints = 16
)

var (
	errNoAPIKey    = errors.New("openweather: API key not configured")
	errServerError = errors.New("openweather: server error")
	errRateLimited = errors.New("openweather: rate limited")
)

// Config holds client settings. Zero values for BaseURL, Timeout and
// MaxRetries select the defaults.
type Config struct {
	APIKey     string
	Lat        float64
	Lon        float64
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Client is a resilient OpenWeatherMap API client.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a client with a dedicated HTTP client and breaker.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openweathermap",
			Timeout: 60 * time.Second,
		}),
	}
}

// Fetch retrieves current conditions and the forecast in one cycle. Any
// failure (missing key, network, breaker open) is reported through the
// ChannelResult rather than aborting the caller's cycle.
func (c *Client) Fetch(ctx context.Context) types.ChannelResult {
	if c.cfg.APIKey == "" {
		return types.Unavailable(Source, errNoAPIKey)
	}

	var current currentPayload
	if err := c.getJSON(ctx, "/weather", &current); err != nil {
		return types.Unavailable(Source, err)
	}

	var forecast forecastPayload
	if err := c.getJSON(ctx, "/forecast", &forecast); err != nil {
		return types.Unavailable(Source, err)
	}

	reading := current.toReading(time.Now().UTC())
	return types.ChannelResult{
		Reading:  &reading,
		Forecast: forecast.toPoints(),
		Source:   Source,
	}
}

// getJSON performs one API call through the breaker with backoff retries.
func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	endpoint := fmt.Sprintf("%s%s?lat=%s&lon=%s&appid=%s&units=metric",
		c.cfg.BaseURL, path,
		url.QueryEscape(fmt.Sprintf("%.4f", c.cfg.Lat)),
		url.QueryEscape(fmt.Sprintf("%.4f", c.cfg.Lon)),
		url.QueryEscape(c.cfg.APIKey))

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := c.breaker.Execute(func() (interface{}, error) {
			return c.get(ctx, endpoint)
		})
		if err == nil {
			return json.Unmarshal(body.([]byte), v)
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("openweather: circuit open: %w", err)
		}

		lastErr = err
		if attempt >= c.cfg.MaxRetries {
			return lastErr
		}

		delay := time.Duration(math.Pow(2, float64(attempt))) * 500 * time.Millisecond
		log.Debugf("openweather: retrying %s after %v: %v", path, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", errServerError, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("openweather: unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// currentPayload mirrors the fields we use from the /weather response.
type currentPayload struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	VisibilityM *float64 `json:"visibility"`
	Wind        struct {
		Speed float64  `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (p currentPayload) toReading(at time.Time) types.WeatherReading {
	visibilityM := 10000.0
	if p.VisibilityM != nil {
		visibilityM = *p.VisibilityM
	}
	windDir := 0.0
	if p.Wind.Deg != nil {
		windDir = *p.Wind.Deg
	}
	conditions := "unknown"
	if len(p.Weather) > 0 {
		conditions = p.Weather[0].Description
	}

	return types.WeatherReading{
		ObservedAt:       at,
		TemperatureC:     types.Float(p.Main.Temp),
		HumidityPct:      types.Float(p.Main.Humidity),
		PressureHPa:      types.Float(p.Main.Pressure),
		DewpointC:        types.Float(normalize.DewpointC(p.Main.Temp, p.Main.Humidity)),
		CloudCoverPct:    types.Float(p.Clouds.All),
		VisibilityKm:     types.Float(visibilityM / 1000),
		WindSpeedKmh:     types.Float(p.Wind.Speed * 3.6),
		WindDirectionDeg: types.Float(windDir),
		Conditions:       conditions,
	}
}

// forecastPayload mirrors the fields we use from the /forecast response.
type forecastPayload struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

func (p forecastPayload) toPoints() []types.ForecastPoint {
	var points []types.ForecastPoint
	for _, item := range p.List {
		if len(points) == maxForecastPoints {
			break
		}
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", item.DtTxt, time.UTC)
		if err != nil {
			log.Debugf("openweather: skipping forecast entry with bad timestamp %q", item.DtTxt)
			continue
		}
		conditions := ""
		if len(item.Weather) > 0 {
			conditions = item.Weather[0].Description
		}
		points = append(points, types.ForecastPoint{
			Timestamp:     ts,
			TemperatureC:  item.Main.Temp,
			CloudCoverPct: item.Clouds.All,
			HumidityPct:   item.Main.Humidity,
			WindSpeedKmh:  item.Wind.Speed * 3.6,
			Conditions:    conditions,
		})
	}
	return points
}
