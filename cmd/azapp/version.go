// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"

	"github.com/canonical/azapp/internal/cmd"
	"github.com/canonical/azapp/internal/version"
)

type versionCommand struct {
	cmd.CommandBase
}

func newVersionCommand() cmd.Command {
	return &versionCommand{}
}

func (c *versionCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "version",
		Purpose: "print the azapp version",
	}
}

func (c *versionCommand) Run(ctx *cmd.Context) error {
	fmt.Fprintln(ctx.Stdout, version.Current)
	return nil
}
