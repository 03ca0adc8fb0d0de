// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package dbops

import (
	"context"
	"database/sql"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
)

type fakeExecer struct {
	statements []string
	errs       map[string]error
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.statements = append(f.statements, query)
	return nil, f.errs[query]
}

type dbopsSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&dbopsSuite{})

func (s *dbopsSuite) TestConnInfo(c *gc.C) {
	params := ConnParams{
		Host:     "recipes-db.postgres.database.azure.com",
		User:     "dbadmin",
		Password: "sekrit",
		DBName:   "recipes",
	}
	c.Check(params.ConnInfo(), gc.Equals,
		"host=recipes-db.postgres.database.azure.com port=5432 user=dbadmin password=sekrit dbname=recipes sslmode=require")
}

func (s *dbopsSuite) TestConnInfoCustomPort(c *gc.C) {
	params := ConnParams{Host: "localhost", Port: 5433, User: "u", Password: "p", DBName: "d"}
	c.Check(params.ConnInfo(), gc.Equals,
		"host=localhost port=5433 user=u password=p dbname=d sslmode=require")
}

func (s *dbopsSuite) TestResetSchemaStatementOrder(c *gc.C) {
	execer := &fakeExecer{}
	err := ResetSchema(context.Background(), execer, "dbadmin")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(execer.statements, jc.DeepEquals, []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		`GRANT ALL ON SCHEMA public TO "dbadmin"`,
		"GRANT ALL ON SCHEMA public TO public",
		"CREATE EXTENSION IF NOT EXISTS pg_trgm",
		"CREATE EXTENSION IF NOT EXISTS unaccent",
	})
}

func (s *dbopsSuite) TestResetSchemaQuotesOwner(c *gc.C) {
	execer := &fakeExecer{}
	err := ResetSchema(context.Background(), execer, `odd"name`)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(execer.statements[2], gc.Equals, `GRANT ALL ON SCHEMA public TO "odd""name"`)
}

func (s *dbopsSuite) TestResetSchemaStopsOnError(c *gc.C) {
	execer := &fakeExecer{
		errs: map[string]error{"CREATE SCHEMA public": errors.New("boom")},
	}
	err := ResetSchema(context.Background(), execer, "dbadmin")
	c.Assert(err, gc.ErrorMatches, `executing "CREATE SCHEMA public": boom`)
	c.Check(execer.statements, gc.HasLen, 2)
}
