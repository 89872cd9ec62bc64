// Package weatherstations defines the interface for local sensor drivers.
// Each driver runs as a goroutine under the application context and sends
// normalized readings to the shared reading distributor channel.
package weatherstations

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/types"
	"github.com/dorolab/skywatch/internal/weatherstations/boltwood"
	"github.com/dorolab/skywatch/internal/weatherstations/cloudsensor"
	"github.com/dorolab/skywatch/pkg/config"
)

// WeatherStation is an interface that provides standard methods for various
// local sensor backends
type WeatherStation interface {
	StartWeatherStation() error
	StationName() string
}

// NewStation creates a sensor driver from its configuration.
func NewStation(ctx context.Context, wg *sync.WaitGroup, sensor config.SensorData, distributor chan types.WeatherReading, logger *zap.SugaredLogger) (WeatherStation, error) {
	switch sensor.Type {
	case config.SensorBoltwood:
		return boltwood.NewStation(ctx, wg, sensor, distributor, logger), nil
	case config.SensorCloudSensor:
		return cloudsensor.NewStation(ctx, wg, sensor, distributor, logger), nil
	default:
		return nil, fmt.Errorf("unknown sensor type %q", sensor.Type)
	}
}
