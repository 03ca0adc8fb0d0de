// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/azapp/internal/cmd"
	"github.com/canonical/azapp/internal/dbops"
)

const dbResetDoc = `
db-reset drops the public schema of the application database and
recreates it empty, with the grants and extensions the application
expects. Every table and row is destroyed; there is no undo. The
application recreates its tables by running migrations on the next
release.

This is a disaster recovery operation. It refuses to run without
--yes-i-really-mean-it.
`

type dbResetCommand struct {
	configCommand

	confirmed bool
	password  string
	host      string
}

func newDBResetCommand() cmd.Command {
	return &dbResetCommand{}
}

func (c *dbResetCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "db-reset",
		Purpose: "destroy and recreate the application database schema",
		Doc:     dbResetDoc,
	}
}

func (c *dbResetCommand) SetFlags(f *gnuflag.FlagSet) {
	c.configCommand.SetFlags(f)
	f.BoolVar(&c.confirmed, "yes-i-really-mean-it", false, "Confirm the destructive reset")
	f.StringVar(&c.password, "password", "", "Database admin password (defaults to db-password from config)")
	f.StringVar(&c.host, "host", "", "Database server host (defaults to the server's well-known FQDN)")
}

func (c *dbResetCommand) Init(args []string) error {
	if !c.confirmed {
		return errors.Errorf("db-reset destroys all application data; re-run with --yes-i-really-mean-it")
	}
	return cmd.CheckEmpty(args)
}

func (c *dbResetCommand) Run(ctx *cmd.Context) error {
	if err := c.readConfig(ctx); err != nil {
		return errors.Trace(err)
	}
	password := c.password
	if password == "" {
		password = c.cfg.DBPassword()
	}
	if password == "" {
		return errors.Errorf("no database password: set db-password in the config or pass --password")
	}
	host := c.host
	if host == "" {
		host = c.cfg.ServerName() + ".postgres.database.azure.com"
	}

	runCtx := context.Background()
	db, err := dbops.Open(runCtx, dbops.ConnParams{
		Host:     host,
		User:     c.cfg.DBAdminUser(),
		Password: password,
		DBName:   c.cfg.DBName(),
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = db.Close() }()

	if err := dbops.ResetSchema(runCtx, db, c.cfg.DBAdminUser()); err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("schema reset; release a revision to re-run migrations")
	return nil
}
