// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package blobmirror runs the backup mirror on a schedule. It is the
// engine behind "azapp backup --watch"; one-shot runs are also wired
// into CI so that a cron trigger keeps the backup container fresh.
package blobmirror

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/retry"
	"gopkg.in/tomb.v2"

	"github.com/canonical/azapp/internal/backup"
)

var logger = loggo.GetLogger("azapp.worker.blobmirror")

const (
	// defaultInterval is how often the mirror runs when runs succeed.
	defaultInterval = time.Hour

	// failureMinInterval and failureMaxInterval bound the backoff
	// applied after consecutive failed runs.
	failureMinInterval = time.Minute
	failureMaxInterval = 30 * time.Minute
)

var backOffStrategy = retry.ExpBackoff(failureMinInterval, failureMaxInterval, 1.5, false)

// MirrorRunner performs one mirror pass.
type MirrorRunner interface {
	Run(ctx context.Context) (*backup.Report, error)
}

// WorkerConfig encapsulates the configuration options for the mirror
// worker.
type WorkerConfig struct {
	Runner   MirrorRunner
	Clock    clock.Clock
	Interval time.Duration
}

// Validate ensures that the config values are valid.
func (c *WorkerConfig) Validate() error {
	if c.Runner == nil {
		return errors.NotValidf("missing Runner")
	}
	if c.Clock == nil {
		return errors.NotValidf("missing Clock")
	}
	return nil
}

// Worker mirrors blobs on a timer, backing off while runs fail.
type Worker struct {
	tomb tomb.Tomb

	cfg WorkerConfig
}

// NewWorker starts and returns the mirror worker.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	w := &Worker{cfg: cfg}
	w.tomb.Go(w.loop)
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.tomb.Wait()
}

func (w *Worker) loop() error {
	timer := w.cfg.Clock.NewTimer(w.cfg.Interval)
	defer timer.Stop()

	var failures int
	for {
		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying

		case <-timer.Chan():
			ctx := w.tomb.Context(context.Background())
			report, err := w.cfg.Runner.Run(ctx)
			if err != nil {
				// Transient storage errors are expected; log and back
				// off rather than killing the worker.
				failures++
				logger.Errorf("mirror run failed (attempt %d): %v", failures, err)
				timer.Reset(backOffStrategy(0, failures))
				continue
			}
			failures = 0
			logger.Debugf("mirrored %d of %d blobs", report.Copied, report.Total)
			timer.Reset(w.cfg.Interval)
		}
	}
}
