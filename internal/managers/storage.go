package managers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/metrics"
	"github.com/dorolab/skywatch/internal/store"
	"github.com/dorolab/skywatch/internal/types"
)

// StorageManager consumes the reading distributor and persists every local
// sensor reading into the weather store.
type StorageManager struct {
	ReadingDistributor chan types.WeatherReading

	store     *store.WeatherStore
	collector *metrics.Collector
	logger    *zap.SugaredLogger
}

// NewStorageManager creates the distributor channel and starts the consumer
// goroutine.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, weatherStore *store.WeatherStore, collector *metrics.Collector, logger *zap.SugaredLogger) *StorageManager {
	m := &StorageManager{
		ReadingDistributor: make(chan types.WeatherReading, 20),
		store:              weatherStore,
		collector:          collector,
		logger:             logger,
	}

	wg.Add(1)
	go m.startReadingDistributor(ctx, wg)

	return m
}

// startReadingDistributor merges every received reading into the local
// channel. Distinct sensors complement each other; a Boltwood record never
// clears the cloud cover a cloud sensor supplied.
func (m *StorageManager) startReadingDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("cancellation request received, stopping reading distributor")
			return
		case reading := <-m.ReadingDistributor:
			if err := m.store.Put(types.ChannelLocal, reading); err != nil {
				m.logger.Errorf("storing reading from [%s]: %v", reading.StationName, err)
				continue
			}
			if m.collector != nil {
				m.collector.ReadingsTotal.WithLabelValues(string(types.ChannelLocal)).Inc()
			}
		}
	}
}
