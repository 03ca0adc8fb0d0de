// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package dbops implements disaster-recovery operations against the
// application's PostgreSQL database. The schema reset is destructive:
// it drops everything in the public schema. The application recreates
// its tables by running migrations on the next deploy.
package dbops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/lib/pq"
)

var logger = loggo.GetLogger("azapp.dbops")

// ConnParams describe a connection to the flexible server. Connections
// require TLS; the server rejects plain TCP.
type ConnParams struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ConnInfo renders the lib/pq connection string.
func (p ConnParams) ConnInfo() string {
	port := p.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=require",
		p.Host, port, p.User, p.Password, p.DBName)
}

// Open opens and pings a connection to the database.
func Open(ctx context.Context, params ConnParams) (*sql.DB, error) {
	db, err := sql.Open("postgres", params.ConnInfo())
	if err != nil {
		return nil, errors.Annotate(err, "opening database connection")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Annotatef(err, "connecting to %q", params.Host)
	}
	return db, nil
}

// Execer runs SQL statements. *sql.DB satisfies it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ResetSchema drops the public schema and everything in it, then
// recreates it with the grants and extensions the application expects.
// There is no undo.
func ResetSchema(ctx context.Context, db Execer, owner string) error {
	logger.Warningf("dropping schema public and all its contents")
	statements := []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		fmt.Sprintf("GRANT ALL ON SCHEMA public TO %s", pq.QuoteIdentifier(owner)),
		"GRANT ALL ON SCHEMA public TO public",
		"CREATE EXTENSION IF NOT EXISTS pg_trgm",
		"CREATE EXTENSION IF NOT EXISTS unaccent",
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return errors.Annotatef(err, "executing %q", statement)
		}
	}
	logger.Infof("schema public reset; deploy a new revision to re-run migrations")
	return nil
}
