// Package store persists weather readings, the liveness status record, and
// the published forecast document as JSON files under the data directory.
// Every write goes through a temp-file rename so readers never observe a
// partial file, and every shared file is serialized behind its own mutex.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/internal/types"
)

// Published file names under the data directory.
const (
	CurrentFile  = "current.json"
	ForecastFile = "forecast.json"
	StatusFile   = "skywatch_status.json"

	onlineFile = "online.json"
	cameraFile = "camera_station.json"
)

// LocalMaxAge is how long a local sensor reading stays usable for fusion.
const LocalMaxAge = 10 * time.Minute

// IsStale reports whether a local channel reading is too old to fuse at now.
func IsStale(r types.WeatherReading, now time.Time) bool {
	return now.Sub(r.ObservedAt) > LocalMaxAge
}

// channelFile maps a channel to its backing file name.
func channelFile(ch types.Channel) string {
	switch ch {
	case types.ChannelOnline:
		return onlineFile
	case types.ChannelCamera:
		return cameraFile
	default:
		return CurrentFile
	}
}

// writeJSONAtomic marshals v and renames it into place so a crash mid-write
// never corrupts the destination.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// WeatherStore holds the latest reading per channel, one JSON file each.
type WeatherStore struct {
	dataDir string
	mu      map[types.Channel]*sync.Mutex
}

// NewWeatherStore creates the data directory if needed.
func NewWeatherStore(dataDir string) (*WeatherStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	mu := make(map[types.Channel]*sync.Mutex, len(types.Channels))
	for _, ch := range types.Channels {
		mu[ch] = &sync.Mutex{}
	}
	return &WeatherStore{dataDir: dataDir, mu: mu}, nil
}

// Put merges the update into the channel's stored reading. Fields absent from
// the update keep their previous values.
func (s *WeatherStore) Put(ch types.Channel, update types.WeatherReading) error {
	lock, ok := s.mu[ch]
	if !ok {
		return fmt.Errorf("unknown channel %q", ch)
	}
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(s.dataDir, channelFile(ch))
	var current types.WeatherReading
	if _, err := readJSON(path, &current); err != nil {
		log.Warnf("store: discarding unreadable %s: %v", channelFile(ch), err)
		current = types.WeatherReading{}
	}

	update.SourceChannel = ch
	current.MergeFrom(update)
	return writeJSONAtomic(path, &current)
}

// Get returns the channel's stored reading. found is false when the channel
// has never been written.
func (s *WeatherStore) Get(ch types.Channel) (types.WeatherReading, bool, error) {
	lock, ok := s.mu[ch]
	if !ok {
		return types.WeatherReading{}, false, fmt.Errorf("unknown channel %q", ch)
	}
	lock.Lock()
	defer lock.Unlock()

	var reading types.WeatherReading
	found, err := readJSON(filepath.Join(s.dataDir, channelFile(ch)), &reading)
	return reading, found, err
}

// CurrentAll returns the stored reading for every channel that has one.
func (s *WeatherStore) CurrentAll() map[types.Channel]types.WeatherReading {
	out := make(map[types.Channel]types.WeatherReading)
	for _, ch := range types.Channels {
		reading, found, err := s.Get(ch)
		if err != nil {
			log.Warnf("store: reading channel %s: %v", ch, err)
			continue
		}
		if found {
			out[ch] = reading
		}
	}
	return out
}

// StatusStore overwrites the single liveness record after every transfer.
// Last writer wins.
type StatusStore struct {
	dataDir string
	mu      sync.Mutex
}

func NewStatusStore(dataDir string) (*StatusStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &StatusStore{dataDir: dataDir}, nil
}

func (s *StatusStore) Put(record types.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONAtomic(filepath.Join(s.dataDir, StatusFile), &record)
}

func (s *StatusStore) Get() (types.StatusRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var record types.StatusRecord
	found, err := readJSON(filepath.Join(s.dataDir, StatusFile), &record)
	return record, found, err
}

// DocumentStore holds the published forecast document. Publish replaces it
// wholesale; UpdateCurrent patches the current conditions section in place
// between compose cycles.
type DocumentStore struct {
	dataDir string
	mu      sync.Mutex
}

func NewDocumentStore(dataDir string) (*DocumentStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &DocumentStore{dataDir: dataDir}, nil
}

func (s *DocumentStore) Publish(doc types.ForecastDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONAtomic(filepath.Join(s.dataDir, ForecastFile), &doc)
}

func (s *DocumentStore) Load() (types.ForecastDocument, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc types.ForecastDocument
	found, err := readJSON(filepath.Join(s.dataDir, ForecastFile), &doc)
	return doc, found, err
}

// Update applies mutate to the published document and writes it back. A
// missing document is not an error; there is simply nothing to patch yet.
func (s *DocumentStore) Update(mutate func(*types.ForecastDocument)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dataDir, ForecastFile)
	var doc types.ForecastDocument
	found, err := readJSON(path, &doc)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	mutate(&doc)
	return writeJSONAtomic(path, &doc)
}

// UpdateCurrent patches only the current conditions section.
func (s *DocumentStore) UpdateCurrent(mutate func(*types.CurrentConditions)) error {
	return s.Update(func(doc *types.ForecastDocument) {
		mutate(&doc.Current)
	})
}
