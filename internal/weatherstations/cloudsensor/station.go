// Package cloudsensor implements the generic key=value cloud sensor driver.
// The sensor software writes one key=value pair per line into a .txt file
// which is re-read on every poll tick.
package cloudsensor

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/internal/normalize"
	"github.com/dorolab/skywatch/internal/types"
	"github.com/dorolab/skywatch/pkg/config"
)

// Station polls a key=value sensor file and sends normalized readings to the
// distributor.
type Station struct {
	ctx                context.Context
	wg                 *sync.WaitGroup
	config             config.SensorData
	ReadingDistributor chan types.WeatherReading
	logger             *zap.SugaredLogger
}

// NewStation creates a new cloud sensor driver
func NewStation(ctx context.Context, wg *sync.WaitGroup, sensor config.SensorData, distributor chan types.WeatherReading, logger *zap.SugaredLogger) *Station {
	return &Station{
		ctx:                ctx,
		wg:                 wg,
		config:             sensor,
		ReadingDistributor: distributor,
		logger:             logger,
	}
}

func (s *Station) StationName() string {
	return s.config.Name
}

// StartWeatherStation launches the polling goroutine.
func (s *Station) StartWeatherStation() error {
	log.Infof("Starting cloud sensor [%v]...", s.config.Name)

	s.wg.Add(1)
	go s.pollFile()
	return nil
}

func (s *Station) pollFile() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("cancellation request received, stopping cloud sensor poller")
			return
		case <-ticker.C:
			data, err := os.ReadFile(s.config.File)
			if err != nil {
				s.logger.Debugf("reading cloud sensor file %v: %v", s.config.File, err)
				continue
			}

			reading, err := normalize.KeyValue(string(data))
			if err != nil {
				s.logger.Debugf("cloud sensor [%v]: %v", s.config.Name, err)
				continue
			}
			reading.StationName = s.config.Name

			select {
			case s.ReadingDistributor <- reading:
			case <-s.ctx.Done():
				return
			}
		}
	}
}
