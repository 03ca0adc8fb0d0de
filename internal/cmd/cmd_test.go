// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd_test

import (
	"bytes"
	"errors"

	"github.com/juju/gnuflag"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/azapp/internal/cmd"
)

type cmdSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&cmdSuite{})

// testCommand records the arguments it was run with.
type testCommand struct {
	cmd.CommandBase
	name    string
	option  string
	args    []string
	ran     bool
	runErr  error
	aliases []string
}

func (c *testCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    c.name,
		Args:    "[args]",
		Purpose: "test command",
		Aliases: c.aliases,
	}
}

func (c *testCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.option, "option", "", "option for test command")
}

func (c *testCommand) Init(args []string) error {
	c.args = args
	return nil
}

func (c *testCommand) Run(ctx *cmd.Context) error {
	c.ran = true
	return c.runErr
}

func newContext() (*cmd.Context, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &cmd.Context{
		Dir:    "/tmp",
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func (s *cmdSuite) TestCheckEmpty(c *gc.C) {
	c.Assert(cmd.CheckEmpty(nil), jc.ErrorIsNil)
	c.Assert(cmd.CheckEmpty([]string{"boo"}), gc.ErrorMatches, `unrecognized args: \["boo"\]`)
}

func (s *cmdSuite) TestZeroOrOneArgs(c *gc.C) {
	arg, err := cmd.ZeroOrOneArgs(nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(arg, gc.Equals, "")

	arg, err = cmd.ZeroOrOneArgs([]string{"one"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(arg, gc.Equals, "one")

	_, err = cmd.ZeroOrOneArgs([]string{"one", "two"})
	c.Assert(err, gc.ErrorMatches, `unrecognized args: \["two"\]`)
}

func (s *cmdSuite) TestMainRuns(c *gc.C) {
	tc := &testCommand{name: "test"}
	ctx, _, _ := newContext()
	code := cmd.Main(tc, ctx, []string{"--option", "value", "extra"})
	c.Assert(code, gc.Equals, 0)
	c.Assert(tc.ran, jc.IsTrue)
	c.Assert(tc.option, gc.Equals, "value")
	c.Assert(tc.args, jc.DeepEquals, []string{"extra"})
}

func (s *cmdSuite) TestMainReportsRunError(c *gc.C) {
	tc := &testCommand{name: "test", runErr: errBoom}
	ctx, _, stderr := newContext()
	code := cmd.Main(tc, ctx, nil)
	c.Assert(code, gc.Equals, 1)
	c.Assert(stderr.String(), gc.Matches, "ERROR boom\n")
}

func (s *cmdSuite) TestMainSilentError(c *gc.C) {
	tc := &testCommand{name: "test", runErr: cmd.ErrSilent}
	ctx, _, stderr := newContext()
	code := cmd.Main(tc, ctx, nil)
	c.Assert(code, gc.Equals, 1)
	c.Assert(stderr.String(), gc.Equals, "")
}

func (s *cmdSuite) TestSuperCommandDispatch(c *gc.C) {
	jc1 := &testCommand{name: "first"}
	jc2 := &testCommand{name: "second"}
	super := cmd.NewSuperCommand(cmd.SuperCommandParams{Name: "tool", Version: "1.0.0"})
	super.Register(jc1)
	super.Register(jc2)

	ctx, _, _ := newContext()
	code := cmd.Main(super, ctx, []string{"second", "--option", "x"})
	c.Assert(code, gc.Equals, 0)
	c.Assert(jc1.ran, jc.IsFalse)
	c.Assert(jc2.ran, jc.IsTrue)
	c.Assert(jc2.option, gc.Equals, "x")
}

func (s *cmdSuite) TestSuperCommandUnknown(c *gc.C) {
	super := cmd.NewSuperCommand(cmd.SuperCommandParams{Name: "tool"})
	super.Register(&testCommand{name: "known"})
	ctx, _, stderr := newContext()
	code := cmd.Main(super, ctx, []string{"unknown"})
	c.Assert(code, gc.Equals, 2)
	c.Assert(stderr.String(), gc.Matches, "(?s)ERROR unrecognized command: tool unknown\n.*")
}

func (s *cmdSuite) TestSuperCommandVersion(c *gc.C) {
	super := cmd.NewSuperCommand(cmd.SuperCommandParams{Name: "tool", Version: "1.2.3"})
	ctx, stdout, _ := newContext()
	code := cmd.Main(super, ctx, []string{"--version"})
	c.Assert(code, gc.Equals, 0)
	c.Assert(stdout.String(), gc.Equals, "1.2.3\n")
}

func (s *cmdSuite) TestSuperCommandAliases(c *gc.C) {
	tc := &testCommand{name: "remove", aliases: []string{"rm"}}
	super := cmd.NewSuperCommand(cmd.SuperCommandParams{Name: "tool"})
	super.Register(tc)
	ctx, _, _ := newContext()
	code := cmd.Main(super, ctx, []string{"rm"})
	c.Assert(code, gc.Equals, 0)
	c.Assert(tc.ran, jc.IsTrue)
}

var errBoom = errors.New("boom")
