// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/cmd"
	"github.com/canonical/azapp/internal/worker/blobmirror"
)

const backupDoc = `
backup copies every blob in the media container to the backup container
under the same name. Existing backup blobs are overwritten, so repeated
runs converge the backup on the current media state.

With --watch the command keeps running and mirrors on an interval,
backing off while runs fail. CI can instead invoke the one-shot form on
a cron trigger.
`

type backupCommand struct {
	configCommand
	out cmd.Output

	watch    bool
	interval time.Duration
}

func newBackupCommand() cmd.Command {
	return &backupCommand{}
}

func (c *backupCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "backup",
		Purpose: "mirror media blobs into the backup container",
		Doc:     backupDoc,
	}
}

func (c *backupCommand) SetFlags(f *gnuflag.FlagSet) {
	c.configCommand.SetFlags(f)
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters)
	f.BoolVar(&c.watch, "watch", false, "Keep running and mirror on an interval")
	f.DurationVar(&c.interval, "interval", time.Hour, "Mirror interval when watching")
}

func (c *backupCommand) Run(ctx *cmd.Context) error {
	if err := c.readConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	provider, err := c.newProvider()
	if err != nil {
		return errors.Trace(err)
	}
	runCtx := context.Background()
	mirror, err := c.newMirror(runCtx, provider)
	if err != nil {
		return errors.Trace(err)
	}

	if c.watch {
		ctx.Infof("mirroring %q to %q every %s", c.cfg.StorageContainer(), c.cfg.BackupContainer(), c.interval)
		w, err := blobmirror.NewWorker(blobmirror.WorkerConfig{
			Runner:   mirror,
			Clock:    clock.WallClock,
			Interval: c.interval,
		})
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(w.Wait())
	}

	report, err := mirror.Run(runCtx)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.out.Write(ctx, report))
}
