// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/ci"
	"github.com/canonical/azapp/internal/cmd"
)

const initDoc = `
init writes a starter deployment config (azapp.yaml) and the GitHub
Actions workflow that releases a new image on every push to main.

Edit the generated config before running "azapp deploy": at minimum the
subscription-id and image must be filled in.
`

type initCommand struct {
	cmd.CommandBase

	name  string
	force bool
}

func newInitCommand() cmd.Command {
	return &initCommand{}
}

func (c *initCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "init",
		Args:    "<name>",
		Purpose: "write a starter deployment config and CI workflow",
		Doc:     initDoc,
	}
}

func (c *initCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Overwrite existing files")
}

func (c *initCommand) Init(args []string) error {
	name, err := cmd.ZeroOrOneArgs(args)
	if err != nil {
		return errors.Trace(err)
	}
	if name == "" {
		return errors.Errorf("no deployment name specified")
	}
	c.name = name
	return nil
}

const configTemplate = `# Deployment configuration for %[1]s.
name: %[1]s
subscription-id: 00000000-0000-0000-0000-000000000000
resource-group: %[1]s-rg
location: westeurope
image: ghcr.io/example/%[1]s:latest

# Workload sizing.
#target-port: 8080
#min-replicas: 1
#max-replicas: 1
#cpu: "0.5"
#memory: 1Gi

# Database. The admin password is generated on first deploy when unset.
#db-admin-user: dbadmin
#db-sku: Standard_B1ms
#db-tier: Burstable
#db-storage-gb: 32
#db-version: "14"

# Application settings.
#timezone: UTC
#allowed-hosts: "*"
#debug: false
#enable-signup: false

# Alerting.
#cpu-alert-percent: 80
#memory-alert-percent: 80
`

func (c *initCommand) Run(ctx *cmd.Context) error {
	configPath := ctx.AbsPath(defaultConfigPath)
	if _, err := os.Stat(configPath); err == nil && !c.force {
		return errors.Errorf("%s already exists; use --force to overwrite", defaultConfigPath)
	}
	content := fmt.Sprintf(configTemplate, c.name)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("wrote %s", defaultConfigPath)

	err := ci.WriteWorkflow(ctx.Dir, ci.WorkflowParams{
		AppName:    c.name,
		ConfigPath: defaultConfigPath,
		Image:      fmt.Sprintf("ghcr.io/example/%s:${{ github.sha }}", c.name),
	})
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("wrote %s", ci.WorkflowPath)
	return nil
}
