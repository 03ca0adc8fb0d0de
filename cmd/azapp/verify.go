// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/cmd"
	"github.com/canonical/azapp/internal/provider/azure"
	"github.com/canonical/azapp/internal/verify"
)

// appURL returns the public URL of the app. An app whose ingress has
// not assigned an FQDN yet cannot be probed.
func appURL(name string, app azure.App) (string, error) {
	if app.FQDN == "" {
		return "", errors.NotProvisionedf("public endpoint for app %q", name)
	}
	return "https://" + app.FQDN, nil
}

const verifyDoc = `
verify runs the acceptance checks against the deployment:

  - the application URL answers with a 2xx status;
  - the app's environment carries exactly the variable names the
    application image expects (names only; values are not inspected);
  - every media blob is present in the backup container.

The exit code is non-zero when any check fails.
`

type verifyCommand struct {
	configCommand
	out cmd.Output

	skipBackup bool
}

func newVerifyCommand() cmd.Command {
	return &verifyCommand{}
}

func (c *verifyCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "verify",
		Purpose: "run the deployment acceptance checks",
		Doc:     verifyDoc,
	}
}

func (c *verifyCommand) SetFlags(f *gnuflag.FlagSet) {
	c.configCommand.SetFlags(f)
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters)
	f.BoolVar(&c.skipBackup, "skip-backup", false, "Skip the backup completeness check")
}

func (c *verifyCommand) Run(ctx *cmd.Context) error {
	if err := c.readConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	d, provider, err := c.newDeployer()
	if err != nil {
		return errors.Trace(err)
	}
	runCtx := context.Background()

	app, err := d.Status(runCtx)
	if err != nil {
		return errors.Trace(err)
	}
	url, err := appURL(c.cfg.Name(), app)
	if err != nil {
		return errors.Trace(err)
	}

	var verifier verify.Verifier
	report := &verify.Report{}
	report.Checks = append(report.Checks, verifier.ProbeApp(runCtx, url))
	report.Checks = append(report.Checks, verify.EnvContract(app.EnvVarNames))
	if !c.skipBackup {
		mirror, err := c.newMirror(runCtx, provider)
		if err != nil {
			return errors.Trace(err)
		}
		report.Checks = append(report.Checks, verify.BackupComplete(runCtx, mirror))
	}

	if err := c.out.Write(ctx, report); err != nil {
		return errors.Trace(err)
	}
	if !report.OK() {
		return cmd.ErrSilent
	}
	return nil
}
