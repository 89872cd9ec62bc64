// Package managers orchestrates the long-running components: the local
// sensor stations and the reading distributor that feeds the store.
package managers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/types"
	"github.com/dorolab/skywatch/internal/weatherstations"
	"github.com/dorolab/skywatch/pkg/config"
)

// WeatherStationManager holds the configured sensor stations.
type WeatherStationManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	distributor chan types.WeatherReading
	logger      *zap.SugaredLogger
	stations    map[string]weatherstations.WeatherStation
}

// NewWeatherStationManager creates a manager populated with all configured
// sensor stations
func NewWeatherStationManager(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, distributor chan types.WeatherReading, logger *zap.SugaredLogger) (*WeatherStationManager, error) {
	m := &WeatherStationManager{
		ctx:         ctx,
		wg:          wg,
		distributor: distributor,
		logger:      logger,
		stations:    make(map[string]weatherstations.WeatherStation),
	}

	for _, sensor := range cfg.Sensors {
		station, err := weatherstations.NewStation(ctx, wg, sensor, distributor, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating sensor station [%s]: %w", sensor.Name, err)
		}
		m.stations[sensor.Name] = station
	}

	return m, nil
}

// StartWeatherStations starts every configured station.
func (m *WeatherStationManager) StartWeatherStations() error {
	for name, station := range m.stations {
		m.logger.Infof("Starting sensor station [%v]...", name)
		if err := station.StartWeatherStation(); err != nil {
			return fmt.Errorf("failed to start sensor station [%s]: %w", name, err)
		}
	}
	return nil
}

// StationCount returns the number of configured stations.
func (m *WeatherStationManager) StationCount() int {
	return len(m.stations)
}
