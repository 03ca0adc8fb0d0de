// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/cmd"
)

const releaseDoc = `
release points the already-provisioned application at a new container
image. The platform replaces the active revision wholesale; nothing
else about the deployment changes. This is the operation CI runs on
every push to main.
`

type releaseCommand struct {
	configCommand

	image string
}

func newReleaseCommand() cmd.Command {
	return &releaseCommand{}
}

func (c *releaseCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "release",
		Purpose: "update the application to a new container image",
		Doc:     releaseDoc,
	}
}

func (c *releaseCommand) SetFlags(f *gnuflag.FlagSet) {
	c.configCommand.SetFlags(f)
	f.StringVar(&c.image, "image", "", "Container image reference to release")
}

func (c *releaseCommand) Init(args []string) error {
	if c.image == "" {
		return errors.Errorf("no image specified")
	}
	return cmd.CheckEmpty(args)
}

func (c *releaseCommand) Run(ctx *cmd.Context) error {
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
	if err := d.Release(context.Background(), c.image); err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("released %s", c.image)
	return nil
}
