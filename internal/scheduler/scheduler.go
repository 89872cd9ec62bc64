// Package scheduler drives the periodic jobs: the forecast compose cycle and
// the camera inbox drain.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/forecast"
	"github.com/dorolab/skywatch/internal/ingest"
)

// Scheduler owns the gocron instance and the two standing jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	composer  *forecast.Composer
	pipeline  *ingest.Pipeline
	inboxDir  string
	logger    *zap.SugaredLogger

	composeInterval time.Duration
	drainInterval   time.Duration
	composeTimeout  time.Duration
}

// New creates a scheduler. An empty inboxDir disables the drain job.
func New(composeInterval, drainInterval time.Duration, composer *forecast.Composer, pipeline *ingest.Pipeline, inboxDir string, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler:       gocron.NewScheduler(time.UTC),
		composer:        composer,
		pipeline:        pipeline,
		inboxDir:        inboxDir,
		logger:          logger,
		composeInterval: composeInterval,
		drainInterval:   drainInterval,
		composeTimeout:  2 * time.Minute,
	}
}

// Start schedules the jobs and starts the underlying scheduler without
// blocking. The compose job also runs immediately so a fresh deployment
// publishes a document before the first interval elapses.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.composeInterval).StartImmediately().Do(s.runCompose)
	if err != nil {
		return err
	}

	if s.inboxDir != "" {
		if _, err := s.scheduler.Every(s.drainInterval).Do(s.runDrain); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runCompose() {
	ctx, cancel := context.WithTimeout(context.Background(), s.composeTimeout)
	defer cancel()

	if _, err := s.composer.Compose(ctx); err != nil {
		s.logger.Errorf("scheduler: compose cycle failed: %v", err)
	}
}

func (s *Scheduler) runDrain() {
	found, err := s.pipeline.DrainInbox(s.inboxDir)
	if err != nil {
		s.logger.Warnf("scheduler: inbox drain failed: %v", err)
		return
	}
	if found {
		s.logger.Debugf("scheduler: drained newest image from %s", s.inboxDir)
	}
}
