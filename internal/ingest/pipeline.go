// Package ingest processes camera-station transfers: sky images fan out to
// the archive, the gallery, and the dashboard's latest image; metadata
// payloads feed the camera-station weather channel and patch the published
// forecast. Every completed transfer overwrites the liveness status record.
package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/metrics"
	"github.com/dorolab/skywatch/internal/normalize"
	"github.com/dorolab/skywatch/internal/store"
	"github.com/dorolab/skywatch/internal/types"
)

// Transfer states, reported through metrics and debug logs.
const (
	StateReceiving  = "receiving"
	StateValidating = "validating"
	StateArchiving  = "archiving"
	StatePublished  = "published"
	StateRejected   = "rejected"
)

// Image fan-out locations under the data directory.
const (
	LatestImageName = "sky_latest_web.jpg"
	imagesDir       = "images"
	archiveDir      = "archive"
)

// CameraSource names the camera-station channel in documents.
const CameraSource = "SkyWatch Camera"

// Pipeline runs camera-station transfers through validation, archival, and
// publication.
type Pipeline struct {
	dataDir   string
	weather   *store.WeatherStore
	documents *store.DocumentStore
	status    *store.StatusStore
	collector *metrics.Collector
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewPipeline builds a pipeline rooted at dataDir.
func NewPipeline(dataDir string, weather *store.WeatherStore, documents *store.DocumentStore, status *store.StatusStore, collector *metrics.Collector, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		dataDir:   dataDir,
		weather:   weather,
		documents: documents,
		status:    status,
		collector: collector,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessImage validates a completed image upload and copies it to the dated
// archive, the gallery, and the latest-image slot. The source file is left in
// place. Each copy is independently atomic; a failed copy aborts the transfer
// before the status record is touched.
func (p *Pipeline) ProcessImage(sourcePath, remoteAddr string) error {
	transferID := uuid.New().String()
	started := p.now()
	filename := filepath.Base(sourcePath)
	p.logger.Debugf("transfer %s: %s %s", transferID, StateValidating, filename)

	info, err := os.Stat(sourcePath)
	if err != nil || info.Size() == 0 {
		p.reject(IngestKindLabel(types.IngestKindImage), transferID, filename)
		if err != nil {
			return fmt.Errorf("transfer %s: missing upload: %w", transferID, err)
		}
		return fmt.Errorf("transfer %s: rejecting 0-byte upload %s", transferID, filename)
	}

	p.logger.Debugf("transfer %s: %s %s", transferID, StateArchiving, filename)

	archivePath := filepath.Join(p.dataDir, archiveDir, started.Format("2006/01/02"), filename)
	galleryPath := filepath.Join(p.dataDir, imagesDir, filename)
	latestPath := filepath.Join(p.dataDir, LatestImageName)

	for _, dest := range []string{archivePath, galleryPath, latestPath} {
		if err := copyFileAtomic(sourcePath, dest); err != nil {
			p.reject(IngestKindLabel(types.IngestKindImage), transferID, filename)
			return fmt.Errorf("transfer %s: copying to %s: %w", transferID, dest, err)
		}
	}

	if err := p.writeStatus("image_received", filename, info.Size(), remoteAddr); err != nil {
		p.logger.Warnf("transfer %s: could not update status: %v", transferID, err)
	}

	p.published(IngestKindLabel(types.IngestKindImage), started)
	p.logger.Infof("transfer %s: image archived: %s (%d bytes)", transferID, filename, info.Size())
	return nil
}

// ProcessMetadata normalizes a metadata payload into the camera-station
// channel and patches the published forecast's current section with the
// fields the camera supplied.
func (p *Pipeline) ProcessMetadata(payload []byte, filename, remoteAddr string) error {
	transferID := uuid.New().String()
	started := p.now()
	p.logger.Debugf("transfer %s: %s %s", transferID, StateValidating, filename)

	reading, err := normalize.JSON(payload)
	if err != nil {
		p.reject(IngestKindLabel(types.IngestKindMetadata), transferID, filename)
		return fmt.Errorf("transfer %s: %w", transferID, err)
	}
	reading.StationName = CameraSource

	if err := p.weather.Put(types.ChannelCamera, reading); err != nil {
		p.reject(IngestKindLabel(types.IngestKindMetadata), transferID, filename)
		return fmt.Errorf("transfer %s: storing camera reading: %w", transferID, err)
	}

	at := p.now()
	err = p.documents.Update(func(doc *types.ForecastDocument) {
		patchCurrent(&doc.Current, reading)
		if doc.DataSources == nil {
			doc.DataSources = make(map[string]types.DataSourceStatus)
		}
		doc.DataSources["skywatch"] = types.DataSourceStatus{
			Available:  true,
			Source:     CameraSource,
			LastUpdate: &at,
		}
		doc.Timestamp = at
	})
	if err != nil {
		p.logger.Warnf("transfer %s: could not patch forecast: %v", transferID, err)
	}

	if err := p.writeStatus("metadata_received", filename, int64(len(payload)), remoteAddr); err != nil {
		p.logger.Warnf("transfer %s: could not update status: %v", transferID, err)
	}

	p.published(IngestKindLabel(types.IngestKindMetadata), started)
	p.logger.Infof("transfer %s: metadata processed: %s", transferID, filename)
	return nil
}

// DrainInbox picks the newest image in the inbox and runs it through the
// pipeline. The inbox is left untouched, so draining is idempotent. Returns
// false when the inbox holds no image.
func (p *Pipeline) DrainInbox(inboxDir string) (bool, error) {
	newest, err := newestImage(inboxDir)
	if err != nil {
		return false, err
	}
	if newest == "" {
		return false, nil
	}
	return true, p.ProcessImage(newest, "")
}

// patchCurrent overlays the camera's fields onto the published current
// conditions, recording camera-station provenance for each.
func patchCurrent(current *types.CurrentConditions, reading types.WeatherReading) {
	mark := func(field string) {
		if current.Provenance == nil {
			current.Provenance = make(map[string]types.Channel)
		}
		current.Provenance[field] = types.ChannelCamera
	}
	if reading.TemperatureC != nil {
		current.TemperatureC = reading.TemperatureC
		mark("temperature_c")
	}
	if reading.HumidityPct != nil {
		current.HumidityPct = reading.HumidityPct
		mark("humidity_pct")
	}
	if reading.DewpointC != nil {
		current.DewpointC = reading.DewpointC
		mark("dewpoint_c")
	}
	if reading.PressureHPa != nil {
		current.PressureHPa = reading.PressureHPa
		mark("pressure_hpa")
	}
}

// newestImage returns the most recently modified .jpg/.jpeg in dir, or ""
// when there is none.
func newestImage(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".jpg") && !strings.HasSuffix(name, ".jpeg") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

// copyFileAtomic copies src into dest via a temp file and rename, creating
// parent directories as needed.
func copyFileAtomic(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (p *Pipeline) writeStatus(event, filename string, size int64, remoteAddr string) error {
	return p.status.Put(types.StatusRecord{
		LastEvent:       event,
		Timestamp:       p.now(),
		LastFilename:    filename,
		LastSizeBytes:   size,
		Connection:      "active",
		ReceiverAddress: remoteAddr,
	})
}

func (p *Pipeline) reject(kind, transferID, filename string) {
	p.logger.Warnf("transfer %s: %s %s", transferID, StateRejected, filename)
	if p.collector != nil {
		p.collector.IngestTransfersTotal.WithLabelValues(kind, StateRejected).Inc()
	}
}

func (p *Pipeline) published(kind string, started time.Time) {
	if p.collector != nil {
		p.collector.IngestTransfersTotal.WithLabelValues(kind, StatePublished).Inc()
		p.collector.IngestDuration.Observe(p.now().Sub(started).Seconds())
	}
}

// IngestKindLabel normalizes an event kind for metrics labels.
func IngestKindLabel(kind string) string {
	return strings.ToLower(kind)
}
