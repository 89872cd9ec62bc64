package intake

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/ingest"
	"github.com/dorolab/skywatch/internal/metrics"
	"github.com/dorolab/skywatch/internal/normalize"
	"github.com/dorolab/skywatch/internal/store"
	"github.com/dorolab/skywatch/internal/types"
)

// maxBodyBytes caps any single request body. Sky images from the stations
// run a few megabytes; anything larger is not a camera upload.
const maxBodyBytes = 32 << 20

// uploadsDir is the per-station writable root under the data directory.
// Uploaded files land here before the pipeline fans them out.
const uploadsDir = "uploads"

// Handlers contains all HTTP handlers for the intake server
type Handlers struct {
	dataDir   string
	weather   *store.WeatherStore
	pipeline  *ingest.Pipeline
	collector *metrics.Collector
	logger    *zap.SugaredLogger
}

// NewHandlers creates a new handlers instance
func NewHandlers(dataDir string, weather *store.WeatherStore, pipeline *ingest.Pipeline, collector *metrics.Collector, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{
		dataDir:   dataDir,
		weather:   weather,
		pipeline:  pipeline,
		collector: collector,
		logger:    logger,
	}
}

// PostWeather accepts an ad-hoc JSON weather payload and stores it on the
// local channel. Any recognized alias set is accepted.
func (h *Handlers) PostWeather(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		h.count("weather", "error")
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}

	reading, err := normalize.JSON(body)
	if err != nil {
		h.count("weather", "rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.weather.Put(types.ChannelLocal, reading); err != nil {
		h.logger.Errorf("intake: storing posted weather: %v", err)
		h.count("weather", "error")
		writeError(w, http.StatusInternalServerError, "storing reading")
		return
	}

	if h.collector != nil {
		h.collector.ReadingsTotal.WithLabelValues(string(types.ChannelLocal)).Inc()
	}
	h.count("weather", "ok")
	writeOK(w)
}

// Upload receives an image or metadata file from a camera station and runs
// it through the ingest pipeline.
func (h *Handlers) Upload(w http.ResponseWriter, req *http.Request) {
	filename := filepath.Base(mux.Vars(req)["filename"])

	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		h.count("upload", "error")
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		h.uploadImage(w, req, filename, body)
	case ".json":
		if err := h.pipeline.ProcessMetadata(body, filename, req.RemoteAddr); err != nil {
			h.countUpload(types.IngestKindMetadata, "rejected", 0)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.countUpload(types.IngestKindMetadata, "ok", int64(len(body)))
		writeOK(w)
	default:
		h.count("upload", "rejected")
		writeError(w, http.StatusBadRequest, "unsupported file type: only .jpg, .jpeg, and .json are accepted")
	}
}

// uploadImage lands the body in the station's writable root, then hands the
// file to the pipeline for validation and fan-out.
func (h *Handlers) uploadImage(w http.ResponseWriter, req *http.Request, filename string, body []byte) {
	dir := filepath.Join(h.dataDir, uploadsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.logger.Errorf("intake: creating uploads dir: %v", err)
		h.countUpload(types.IngestKindImage, "error", 0)
		writeError(w, http.StatusInternalServerError, "storing upload")
		return
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		h.logger.Errorf("intake: writing upload %s: %v", filename, err)
		h.countUpload(types.IngestKindImage, "error", 0)
		writeError(w, http.StatusInternalServerError, "storing upload")
		return
	}

	if err := h.pipeline.ProcessImage(path, req.RemoteAddr); err != nil {
		h.countUpload(types.IngestKindImage, "rejected", 0)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.countUpload(types.IngestKindImage, "ok", int64(len(body)))
	writeOK(w)
}

// GetForecast serves the published forecast document.
func (h *Handlers) GetForecast(w http.ResponseWriter, req *http.Request) {
	h.serveJSONFile(w, req, store.ForecastFile)
}

// GetCurrent serves the canonical current-weather file.
func (h *Handlers) GetCurrent(w http.ResponseWriter, req *http.Request) {
	h.serveJSONFile(w, req, store.CurrentFile)
}

// GetStatus serves the receiver liveness record.
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	h.serveJSONFile(w, req, store.StatusFile)
}

// GetLatestImage serves the most recent sky image.
func (h *Handlers) GetLatestImage(w http.ResponseWriter, req *http.Request) {
	path := filepath.Join(h.dataDir, ingest.LatestImageName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "no image received yet")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, req, path)
}

// NotFound answers every unrecognized path.
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func (h *Handlers) serveJSONFile(w http.ResponseWriter, req *http.Request, name string) {
	path := filepath.Join(h.dataDir, name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, name+" not published yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, req, path)
}

func (h *Handlers) count(endpoint, status string) {
	if h.collector != nil {
		h.collector.IntakeRequestsTotal.WithLabelValues(endpoint, status).Inc()
	}
}

func (h *Handlers) countUpload(kind, outcome string, size int64) {
	if h.collector == nil {
		return
	}
	h.collector.UploadsTotal.WithLabelValues(ingest.IngestKindLabel(kind), outcome).Inc()
	if size > 0 {
		h.collector.UploadBytes.Add(float64(size))
	}
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
}

func writeError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": reason})
}
