// Package boltwood implements the Boltwood-style cloud sensor driver. The
// sensor emits one comma-separated record per line, either over a serial
// port or into a .dat file that an external logger keeps overwriting.
package boltwood

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	serial "github.com/tarm/goserial"
	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/internal/normalize"
	"github.com/dorolab/skywatch/internal/types"
	"github.com/dorolab/skywatch/pkg/config"
)

// Station reads Boltwood records and sends normalized readings to the
// distributor.
type Station struct {
	ctx                context.Context
	wg                 *sync.WaitGroup
	config             config.SensorData
	ReadingDistributor chan types.WeatherReading
	logger             *zap.SugaredLogger
	rwc                io.ReadWriteCloser
}

// NewStation creates a new Boltwood sensor driver
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

// StartWeatherStation launches the reader goroutine.
func (s *Station) StartWeatherStation() error {
	log.Infof("Starting Boltwood cloud sensor [%v]...", s.config.Name)

	s.wg.Add(1)
	if s.config.SerialDevice != "" {
		go s.readSerial()
	} else {
		go s.pollFile()
	}
	return nil
}

// readSerial streams records from the serial port, reconnecting on error.
func (s *Station) readSerial() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("cancellation request received, stopping Boltwood serial reader")
			if s.rwc != nil {
				s.rwc.Close()
			}
			return
		default:
		}

		if s.rwc == nil {
			rwc, err := serial.OpenPort(&serial.Config{Name: s.config.SerialDevice, Baud: s.config.Baud})
			if err != nil {
				s.logger.Errorf("opening serial port %v: %v", s.config.SerialDevice, err)
				if !s.sleep(5 * time.Second) {
					return
				}
				continue
			}
			s.rwc = rwc
			log.Infof("Boltwood sensor [%v] connected via %v", s.config.Name, s.config.SerialDevice)
		}

		scanner := bufio.NewScanner(s.rwc)
		for scanner.Scan() {
			select {
			case <-s.ctx.Done():
				s.rwc.Close()
				return
			default:
			}
			s.handleRecord(scanner.Text())
		}

		if err := scanner.Err(); err != nil {
			s.logger.Errorf("reading from Boltwood sensor [%v]: %v", s.config.Name, err)
		}
		s.rwc.Close()
		s.rwc = nil
		if !s.sleep(5 * time.Second) {
			return
		}
	}
}

// pollFile re-reads the sensor file on every tick. The logger overwrites the
// file in place, so only the last line matters.
func (s *Station) pollFile() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("cancellation request received, stopping Boltwood file poller")
			return
		case <-ticker.C:
			data, err := os.ReadFile(s.config.File)
			if err != nil {
				s.logger.Debugf("reading Boltwood file %v: %v", s.config.File, err)
				continue
			}
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			s.handleRecord(lines[len(lines)-1])
		}
	}
}

func (s *Station) handleRecord(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	reading, err := normalize.Boltwood(line)
	if err != nil {
		s.logger.Debugf("Boltwood sensor [%v]: %v", s.config.Name, err)
		return
	}
	reading.StationName = s.config.Name

	select {
	case s.ReadingDistributor <- reading:
	case <-s.ctx.Done():
	}
}

// sleep waits d unless the context is cancelled first.
func (s *Station) sleep(d time.Duration) bool {
	select {
	case <-s.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
