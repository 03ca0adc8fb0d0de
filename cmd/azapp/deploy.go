// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/cmd"
)

const deployDoc = `
deploy provisions every resource the deployment needs, in dependency
order: the resource group, the PostgreSQL flexible server with its
firewall rule and database, the Container Apps environment with its Log
Analytics workspace, the media storage account, the telemetry
component, the application itself, the backup storage account, and the
CPU and memory alert rules.

Every step is idempotent: a failed deploy can be re-run and picks up
where it left off. When no db-password is configured, a password is
generated when the database server is first created and reported once;
record it in the config, as later deploys refuse to run without it.

A successful deploy records the applied config next to the config file;
attributes naming existing resources cannot change afterwards.
`

type deployCommand struct {
	configCommand
	out cmd.Output
}

func newDeployCommand() cmd.Command {
	return &deployCommand{}
}

func (c *deployCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "deploy",
		Purpose: "provision the deployment end to end",
		Doc:     deployDoc,
	}
}

func (c *deployCommand) SetFlags(f *gnuflag.FlagSet) {
	c.configCommand.SetFlags(f)
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters)
}

func (c *deployCommand) Run(ctx *cmd.Context) error {
	if err := c.readConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	if err := c.checkDeployedConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	d, _, err := c.newDeployer()
	if err != nil {
		return errors.Trace(err)
	}
	result, err := d.Deploy(context.Background())
	if err != nil {
		return errors.Trace(err)
	}
	if err := c.recordDeployedConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.out.Write(ctx, result))
}
