// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/cmd"
)

const logsDoc = `
logs prints the application's console output from the Log Analytics
workspace backing the Container Apps environment. Ingestion lags by a
minute or two; very recent lines may not appear yet.
`

type logsCommand struct {
	configCommand

	since time.Duration
}

func newLogsCommand() cmd.Command {
	return &logsCommand{}
}

func (c *logsCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "logs",
		Purpose: "show application console logs",
		Doc:     logsDoc,
	}
}

func (c *logsCommand) SetFlags(f *gnuflag.FlagSet) {
	c.configCommand.SetFlags(f)
	f.DurationVar(&c.since, "since", time.Hour, "Show logs newer than this")
}

func (c *logsCommand) Run(ctx *cmd.Context) error {
	if err := c.readConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	provider, err := c.newProvider()
	if err != nil {
		return errors.Trace(err)
	}
	runCtx := context.Background()

	workspace, err := provider.GetWorkspace(runCtx, c.cfg.ResourceGroup(), c.cfg.WorkspaceName())
	if err != nil {
		return errors.Trace(err)
	}
	entries, err := provider.AppLogs(runCtx, workspace.CustomerID, c.cfg.Name(), time.Now().Add(-c.since))
	if err != nil {
		return errors.Trace(err)
	}
	for _, entry := range entries {
		fmt.Fprintf(ctx.Stdout, "%s %s\n", entry.Time.Format(time.RFC3339), entry.Line)
	}
	return nil
}
