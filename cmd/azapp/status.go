// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/cmd"
)

type statusCommand struct {
	configCommand
	out cmd.Output
}

func newStatusCommand() cmd.Command {
	return &statusCommand{}
}

func (c *statusCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "status",
		Purpose: "show the deployed application state",
	}
}

func (c *statusCommand) SetFlags(f *gnuflag.FlagSet) {
	c.configCommand.SetFlags(f)
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters)
}

// appStatus is the user-facing shape of the application state.
type appStatus struct {
	Name              string   `yaml:"name" json:"name"`
	URL               string   `yaml:"url,omitempty" json:"url,omitempty"`
	Image             string   `yaml:"image" json:"image"`
	ProvisioningState string   `yaml:"provisioning-state" json:"provisioning-state"`
	EnvVars           []string `yaml:"env-vars" json:"env-vars"`
}

func (c *statusCommand) Run(ctx *cmd.Context) error {
	if err := c.readConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	d, _, err := c.newDeployer()
	if err != nil {
		return errors.Trace(err)
	}
	app, err := d.Status(context.Background())
	if err != nil {
		return errors.Trace(err)
	}
	status := appStatus{
		Name:              c.cfg.Name(),
		Image:             app.Image,
		ProvisioningState: app.ProvisioningState,
		EnvVars:           app.EnvVarNames,
	}
	if app.FQDN != "" {
		status.URL = "https://" + app.FQDN
	}
	return errors.Trace(c.out.Write(ctx, status))
}
