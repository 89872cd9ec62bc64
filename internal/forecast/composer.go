// Package forecast orchestrates a compose cycle: fetch the online and local
// channels, fuse current conditions, compute astronomy, score observation
// windows, and publish the forecast document. A failed channel degrades its
// own fields; only an unwritable document is fatal.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/astronomy"
	"github.com/dorolab/skywatch/internal/fusion"
	"github.com/dorolab/skywatch/internal/metrics"
	"github.com/dorolab/skywatch/internal/store"
	"github.com/dorolab/skywatch/internal/types"
	"github.com/dorolab/skywatch/internal/windows"
)

// DocumentSource names the composed document's producer.
const DocumentSource = "SkyWatch Observatory"

// LocalSource names the local sensor channel in documents.
const LocalSource = "Local Sensors"

// Data source keys in the published document.
const (
	sourceKeyOnline = "online"
	sourceKeyLocal  = "local"
)

// OnlineFetcher retrieves the online channel's current reading and forecast.
type OnlineFetcher interface {
	Fetch(ctx context.Context) types.ChannelResult
}

// Composer runs compose cycles against the shared stores.
type Composer struct {
	site      types.Coordinates
	siteName  string
	online    OnlineFetcher
	weather   *store.WeatherStore
	documents *store.DocumentStore
	collector *metrics.Collector
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewComposer builds a composer for the given site.
func NewComposer(siteName string, site types.Coordinates, online OnlineFetcher, weather *store.WeatherStore, documents *store.DocumentStore, collector *metrics.Collector, logger *zap.SugaredLogger) *Composer {
	return &Composer{
		site:      site,
		siteName:  siteName,
		online:    online,
		weather:   weather,
		documents: documents,
		collector: collector,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Compose runs one full cycle and publishes the resulting document. The two
// channel fetches have no ordering dependency and run in parallel.
func (c *Composer) Compose(ctx context.Context) (types.ForecastDocument, error) {
	started := c.now()

	var wg sync.WaitGroup
	var onlineResult, localResult types.ChannelResult

	wg.Add(2)
	go func() {
		defer wg.Done()
		onlineResult = c.fetchOnline(ctx)
	}()
	go func() {
		defer wg.Done()
		localResult = c.fetchLocal()
	}()
	wg.Wait()

	now := c.now()
	doc := types.ForecastDocument{
		Source:    DocumentSource,
		Timestamp: now,
		Location:  c.siteName,
		Coordinates: types.Coordinates{
			Lat:        c.site.Lat,
			Lon:        c.site.Lon,
			ElevationM: c.site.ElevationM,
		},
		DataSources: map[string]types.DataSourceStatus{
			sourceKeyOnline: sourceStatus(onlineResult),
			sourceKeyLocal:  sourceStatus(localResult),
		},
		Forecast48h: []types.ForecastPoint{},
	}

	// A fresh online fetch lands in the store like every other channel, so
	// fusion and later cycles see it even if this publish fails.
	if onlineResult.Available() {
		if err := c.weather.Put(types.ChannelOnline, *onlineResult.Reading); err != nil {
			c.logger.Warnf("compose: storing online reading: %v", err)
		}
		doc.Forecast48h = onlineResult.Forecast
	}

	doc.Current = fusion.Fuse(c.weather.CurrentAll(), now)
	doc.Astronomy = astronomy.Compute(now, c.site)
	doc.ObservationWindows = windows.Compute(now, doc.Forecast48h, doc.Astronomy.MoonIlluminationPct)
	doc.SkyQuality = skyQuality(doc.Current)

	if err := c.documents.Publish(doc); err != nil {
		c.observe(started, "failure")
		return doc, fmt.Errorf("publishing forecast document: %w", err)
	}

	c.observe(started, "success")
	c.logger.Infof("forecast composed: %d windows, %d forecast points, online=%v local=%v",
		len(doc.ObservationWindows), len(doc.Forecast48h),
		doc.DataSources[sourceKeyOnline].Available, doc.DataSources[sourceKeyLocal].Available)
	return doc, nil
}

// fetchOnline queries the online provider when one is configured.
func (c *Composer) fetchOnline(ctx context.Context) types.ChannelResult {
	if c.online == nil {
		return types.Unavailable("", errors.New("online channel not configured"))
	}
	result := c.online.Fetch(ctx)
	if result.Err != nil {
		c.logger.Warnf("compose: online channel unavailable: %v", result.Err)
		if c.collector != nil {
			c.collector.ChannelFetchErrors.WithLabelValues(sourceKeyOnline).Inc()
		}
	}
	return result
}

// fetchLocal reads the local channel from the store. A stale reading keeps
// the channel out of fusion but still reports why.
func (c *Composer) fetchLocal() types.ChannelResult {
	reading, found, err := c.weather.Get(types.ChannelLocal)
	if err != nil {
		return types.Unavailable(LocalSource, err)
	}
	if !found {
		return types.Unavailable(LocalSource, errors.New("no local sensor reading yet"))
	}
	if store.IsStale(reading, c.now()) {
		return types.Unavailable(LocalSource,
			fmt.Errorf("stale: last reading %s", reading.ObservedAt.Format(time.RFC3339)))
	}
	return types.ChannelResult{Reading: &reading, Source: LocalSource}
}

func (c *Composer) observe(started time.Time, outcome string) {
	if c.collector == nil {
		return
	}
	c.collector.ComposeCyclesTotal.WithLabelValues(outcome).Inc()
	c.collector.ComposeDuration.Observe(c.now().Sub(started).Seconds())
}

// sourceStatus converts a channel result into the document's per-channel
// availability record.
func sourceStatus(r types.ChannelResult) types.DataSourceStatus {
	status := types.DataSourceStatus{Source: r.Source}
	if r.Available() {
		status.Available = true
		at := r.Reading.ObservedAt
		status.LastUpdate = &at
	} else if r.Err != nil {
		status.Error = r.Err.Error()
	}
	return status
}

// skyQuality estimates transparency, seeing, and a sky-quality-meter reading
// from the fused cloud cover. Without any cloud data the estimate stays
// neutral rather than optimistic.
func skyQuality(current types.CurrentConditions) types.SkyQuality {
	if current.CloudCoverPct == nil {
		return types.SkyQuality{
			Transparency:  "unknown",
			Seeing:        "unknown",
			OverallRating: 5.0,
			Notes:         "no cloud cover data available",
		}
	}

	clouds := *current.CloudCoverPct
	switch {
	case clouds < 10:
		return types.SkyQuality{Transparency: "excellent", Seeing: "good", OverallRating: 9.0, SQMEstimate: 21.5}
	case clouds < 30:
		return types.SkyQuality{Transparency: "good", Seeing: "good", OverallRating: 7.0, SQMEstimate: 21.0}
	case clouds < 60:
		return types.SkyQuality{Transparency: "moderate", Seeing: "fair", OverallRating: 5.0, SQMEstimate: 20.0}
	default:
		return types.SkyQuality{Transparency: "poor", Seeing: "poor", OverallRating: 3.0, SQMEstimate: 18.5}
	}
}
