// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/cmd"
)

const destroyDoc = `
destroy deletes the deployment's resource group and everything in it:
the application, the database server and its data, both storage
accounts including backups, and the monitoring resources.
`

type destroyCommand struct {
	configCommand

	assumeYes bool
}

func newDestroyCommand() cmd.Command {
	return &destroyCommand{}
}

func (c *destroyCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "destroy",
		Purpose: "delete the deployment and all its data",
		Doc:     destroyDoc,
	}
}

func (c *destroyCommand) SetFlags(f *gnuflag.FlagSet) {
	c.configCommand.SetFlags(f)
	f.BoolVar(&c.assumeYes, "y", false, "Do not prompt for confirmation")
	f.BoolVar(&c.assumeYes, "yes", false, "")
}

func (c *destroyCommand) Run(ctx *cmd.Context) error {
	if err := c.readConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	if !c.assumeYes {
		fmt.Fprintf(ctx.Stderr, "WARNING! This will destroy %q and all its data, including backups.\n", c.cfg.ResourceGroup())
		fmt.Fprintf(ctx.Stderr, "Continue [y/N]? ")
		scanner := bufio.NewScanner(ctx.Stdin)
		scanner.Scan()
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			return errors.Errorf("destroy aborted")
		}
	}
	d, _, err := c.newDeployer()
	if err != nil {
		return errors.Trace(err)
	}
	if err := d.Destroy(context.Background()); err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("destroyed %q", c.cfg.ResourceGroup())
	return nil
}
