// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// azapp provisions and operates a containerized web application on
// Azure: a Container Apps workload backed by a PostgreSQL flexible
// server, blob storage for media, mirrored backups, and metric alerts.
package main

import (
	"fmt"
	"os"

	"github.com/canonical/azapp/internal/cmd"
	"github.com/canonical/azapp/internal/version"
)

const appDoc = `
azapp drives the full lifecycle of the deployment described in a
configuration file (azapp.yaml by default): provisioning, image
releases, acceptance checks, backups, log retrieval, and teardown.
`

func app() cmd.Command {
	super := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "azapp",
		Purpose: "deploy and operate a containerized web application on Azure",
		Doc:     appDoc,
		Version: version.Current,
	})
	super.Register(newInitCommand())
	super.Register(newDeployCommand())
	super.Register(newReleaseCommand())
	super.Register(newStatusCommand())
	super.Register(newVerifyCommand())
	super.Register(newBackupCommand())
	super.Register(newDBResetCommand())
	super.Register(newLogsCommand())
	super.Register(newDestroyCommand())
	super.Register(newVersionCommand())
	return super
}

func main() {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		os.Exit(2)
	}
	os.Exit(cmd.Main(app(), ctx, os.Args[1:]))
}
