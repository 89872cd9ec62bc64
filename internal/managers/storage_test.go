package managers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/internal/store"
	"github.com/dorolab/skywatch/internal/types"
)

func TestReadingDistributorStoresLocalReadings(t *testing.T) {
	weatherStore, err := store.NewWeatherStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	m := NewStorageManager(ctx, &wg, weatherStore, nil, log.GetSugaredLogger())

	m.ReadingDistributor <- types.WeatherReading{
		ObservedAt:   time.Now().UTC(),
		TemperatureC: types.Float(-3.2),
		StationName:  "roof",
	}

	// The consumer runs asynchronously; poll until the reading lands.
	deadline := time.After(2 * time.Second)
	for {
		reading, found, err := weatherStore.Get(types.ChannelLocal)
		if err != nil {
			t.Fatal(err)
		}
		if found {
			if reading.TemperatureC == nil || *reading.TemperatureC != -3.2 {
				t.Errorf("TemperatureC = %v, expected -3.2", reading.TemperatureC)
			}
			if reading.SourceChannel != types.ChannelLocal {
				t.Errorf("SourceChannel = %q, expected local", reading.SourceChannel)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("reading never reached the store")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	wg.Wait()
}
