// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package blobmirror

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/azapp/internal/backup"
)

type fakeRunner struct {
	mu   sync.Mutex
	errs []error
	ran  chan *backup.Report
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan *backup.Report, 10)}
}

func (r *fakeRunner) Run(ctx context.Context) (*backup.Report, error) {
	r.mu.Lock()
	var err error
	if len(r.errs) > 0 {
		err, r.errs = r.errs[0], r.errs[1:]
	}
	r.mu.Unlock()
	if err != nil {
		r.ran <- nil
		return nil, err
	}
	report := &backup.Report{Total: 1, Copied: 1}
	r.ran <- report
	return report, nil
}

func (r *fakeRunner) setErrors(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = errs
}

type workerSuite struct {
	testing.IsolationSuite

	clock  *testclock.Clock
	runner *fakeRunner
}

var _ = gc.Suite(&workerSuite{})

func (s *workerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(time.Time{})
	s.runner = newFakeRunner()
}

func (s *workerSuite) newWorker(c *gc.C) *Worker {
	w, err := NewWorker(WorkerConfig{
		Runner:   s.runner,
		Clock:    s.clock,
		Interval: time.Minute,
	})
	c.Assert(err, jc.ErrorIsNil)
	s.AddCleanup(func(c *gc.C) {
		w.Kill()
		c.Check(w.Wait(), jc.ErrorIsNil)
	})
	return w
}

func (s *workerSuite) waitRun(c *gc.C) *backup.Report {
	select {
	case report := <-s.runner.ran:
		return report
	case <-time.After(testing.LongWait):
		c.Fatalf("timed out waiting for a mirror run")
	}
	return nil
}

func (s *workerSuite) TestValidate(c *gc.C) {
	_, err := NewWorker(WorkerConfig{Clock: s.clock})
	c.Assert(err, gc.ErrorMatches, "missing Runner not valid")

	_, err = NewWorker(WorkerConfig{Runner: s.runner})
	c.Assert(err, gc.ErrorMatches, "missing Clock not valid")
}

func (s *workerSuite) TestRunsOnInterval(c *gc.C) {
	s.newWorker(c)

	err := s.clock.WaitAdvance(time.Minute, testing.LongWait, 1)
	c.Assert(err, jc.ErrorIsNil)
	report := s.waitRun(c)
	c.Assert(report, gc.NotNil)
	c.Check(report.Copied, gc.Equals, 1)

	err = s.clock.WaitAdvance(time.Minute, testing.LongWait, 1)
	c.Assert(err, jc.ErrorIsNil)
	s.waitRun(c)
}

func (s *workerSuite) TestBacksOffOnFailure(c *gc.C) {
	s.runner.setErrors(errors.New("storage unavailable"))
	s.newWorker(c)

	err := s.clock.WaitAdvance(time.Minute, testing.LongWait, 1)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.waitRun(c), gc.IsNil)

	// The worker survives the failure and retries within the backoff
	// bound.
	err = s.clock.WaitAdvance(failureMaxInterval, testing.LongWait, 1)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.waitRun(c), gc.NotNil)
}

func (s *workerSuite) TestKillStopsCleanly(c *gc.C) {
	w, err := NewWorker(WorkerConfig{
		Runner:   s.runner,
		Clock:    s.clock,
		Interval: time.Minute,
	})
	c.Assert(err, jc.ErrorIsNil)
	w.Kill()
	c.Check(w.Wait(), jc.ErrorIsNil)
}
