// Package intake implements the HTTP boundary: the ad-hoc weather POST
// endpoint, authenticated camera-station uploads, and read access to the
// published files.
package intake

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/ingest"
	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/internal/metrics"
	"github.com/dorolab/skywatch/internal/store"
	"github.com/dorolab/skywatch/pkg/config"
)

// Controller represents the intake HTTP server
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	intakeConfig config.IntakeData
	Server       http.Server
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new intake server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, ic config.IntakeData, dataDir string, weather *store.WeatherStore, pipeline *ingest.Pipeline, collector *metrics.Collector, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		intakeConfig: ic,
		logger:       logger,
	}

	ctrl.handlers = NewHandlers(dataDir, weather, pipeline, collector, logger)

	if ic.ListenAddr == "" {
		return nil, fmt.Errorf("intake listen-addr is required")
	}

	router := ctrl.setupRouter()
	ctrl.Server.Addr = ic.ListenAddr
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the intake server
func (c *Controller) StartController() error {
	log.Info("Starting intake controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("intake server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the intake server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/weather", c.handlers.PostWeather).Methods(http.MethodPost)
	router.Handle("/upload/{filename}", c.requireUploadAuth(http.HandlerFunc(c.handlers.Upload))).
		Methods(http.MethodPost, http.MethodPut)

	// Read access to the published files.
	router.HandleFunc("/forecast", c.handlers.GetForecast).Methods(http.MethodGet)
	router.HandleFunc("/current", c.handlers.GetCurrent).Methods(http.MethodGet)
	router.HandleFunc("/status", c.handlers.GetStatus).Methods(http.MethodGet)
	router.HandleFunc("/latest.jpg", c.handlers.GetLatestImage).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)
	return router
}

// requireUploadAuth enforces basic auth on the upload endpoint when
// credentials are configured.
func (c *Controller) requireUploadAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if c.intakeConfig.UploadUser != "" {
			user, pass, ok := req.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(c.intakeConfig.UploadUser)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(c.intakeConfig.UploadPassword)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="skywatch"`)
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
		}
		next.ServeHTTP(w, req)
	})
}
