// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package verify implements the acceptance checks for a deployment:
// the application answers over HTTPS, its environment carries exactly
// the variable names the image expects, and the backup container
// mirrors the media container.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/retry"

	"github.com/canonical/azapp/internal/deployer"
)

var logger = loggo.GetLogger("azapp.verify")

const (
	defaultProbeAttempts = 5
	defaultProbeDelay    = 5 * time.Second
)

// Check is the outcome of one acceptance check.
type Check struct {
	Name   string `yaml:"name" json:"name"`
	OK     bool   `yaml:"ok" json:"ok"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Report collects the outcomes of all checks.
type Report struct {
	Checks []Check `yaml:"checks" json:"checks"`
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	for _, check := range r.Checks {
		if !check.OK {
			return false
		}
	}
	return true
}

// BackupChecker reports source blobs missing from the backup.
type BackupChecker interface {
	Missing(ctx context.Context) ([]string, error)
}

// Verifier runs acceptance checks. The zero value uses the default
// HTTP client and wall clock.
type Verifier struct {
	Client        *http.Client
	Clock         clock.Clock
	ProbeAttempts int
	ProbeDelay    time.Duration
}

func (v *Verifier) client() *http.Client {
	if v.Client != nil {
		return v.Client
	}
	return http.DefaultClient
}

func (v *Verifier) clock() clock.Clock {
	if v.Clock != nil {
		return v.Clock
	}
	return clock.WallClock
}

// ProbeApp fetches the application URL, retrying while it answers with
// server errors or refuses connections; a fresh revision can take a
// minute to come up. Any 2xx status passes.
func (v *Verifier) ProbeApp(ctx context.Context, url string) Check {
	check := Check{Name: "app-responds"}
	attempts := v.ProbeAttempts
	if attempts == 0 {
		attempts = defaultProbeAttempts
	}
	delay := v.ProbeDelay
	if delay == 0 {
		delay = defaultProbeDelay
	}

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
			if err != nil {
				return errors.Trace(err)
			}
			resp, err := v.client().Do(req)
			if err != nil {
				return errors.Trace(err)
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return errors.Errorf("%s returned status %d", url, resp.StatusCode)
			}
			return nil
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("probe attempt %d: %v", attempt, err)
		},
		Attempts:    attempts,
		Delay:       delay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       v.clock(),
		Stop:        ctx.Done(),
	})
	if err != nil {
		check.Detail = errors.Cause(err).Error()
		return check
	}
	check.OK = true
	return check
}

// EnvContract compares the deployed environment variable names against
// the set the application image expects. Both missing and unexpected
// names fail the check; values are never inspected.
func EnvContract(names []string) Check {
	check := Check{Name: "env-contract"}
	deployed := set.NewStrings(names...)
	expected := set.NewStrings(deployer.ContractEnvVars...)

	missing := expected.Difference(deployed)
	unexpected := deployed.Difference(expected)
	if missing.IsEmpty() && unexpected.IsEmpty() {
		check.OK = true
		return check
	}
	var details []string
	if !missing.IsEmpty() {
		details = append(details, fmt.Sprintf("missing: %s", strings.Join(missing.SortedValues(), ", ")))
	}
	if !unexpected.IsEmpty() {
		details = append(details, fmt.Sprintf("unexpected: %s", strings.Join(unexpected.SortedValues(), ", ")))
	}
	check.Detail = strings.Join(details, "; ")
	return check
}

// BackupComplete checks that every media blob exists in the backup
// container.
func BackupComplete(ctx context.Context, checker BackupChecker) Check {
	check := Check{Name: "backup-complete"}
	missing, err := checker.Missing(ctx)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	if len(missing) > 0 {
		check.Detail = fmt.Sprintf("%d blobs not backed up: %s", len(missing), strings.Join(missing, ", "))
		return check
	}
	check.OK = true
	return check
}
