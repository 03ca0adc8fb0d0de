// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cmd provides the command line framework used by azapp.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("azapp.cmd")

// ErrSilent can be returned from Run to signal that Main should exit with
// code 1 without producing error output.
var ErrSilent = errors.New("cmd: error out silently")

// Info holds everything necessary to describe a Command's intent and usage.
type Info struct {
	// Name is the Command's name.
	Name string

	// Args describes the command's expected positional arguments.
	Args string

	// Purpose is a short explanation of the Command's purpose.
	Purpose string

	// Doc is the long documentation for the Command.
	Doc string

	// Aliases are other names under which the command is registered.
	Aliases []string
}

// Usage combines Name and Args to describe the Command's intended usage.
func (i *Info) Usage() string {
	if i.Args == "" {
		return i.Name
	}
	return fmt.Sprintf("%s %s", i.Name, i.Args)
}

// Command is implemented by types that interpret command-line arguments.
type Command interface {
	// Info returns information about the Command.
	Info() *Info

	// SetFlags adds command specific flags to the flag set.
	SetFlags(f *gnuflag.FlagSet)

	// Init initializes the Command before running, consuming any
	// positional arguments left over after flag parsing.
	Init(args []string) error

	// Run will execute the Command as directed by the options and
	// positional arguments given to Init.
	Run(ctx *Context) error

	// AllowInterspersedFlags reports whether flags may appear after
	// positional arguments. A SuperCommand returns false so that flags
	// following the subcommand name are left for the subcommand.
	AllowInterspersedFlags() bool
}

// CommandBase provides a default no-op SetFlags implementation.
type CommandBase struct{}

// SetFlags does nothing in the simplest case.
func (c *CommandBase) SetFlags(f *gnuflag.FlagSet) {}

// AllowInterspersedFlags returns true by default.
func (c *CommandBase) AllowInterspersedFlags() bool { return true }

// Init checks that there are no unconsumed arguments.
func (c *CommandBase) Init(args []string) error {
	return CheckEmpty(args)
}

// Context represents the run context of a Command.
type Context struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// AbsPath returns an absolute representation of path, with relative paths
// interpreted as relative to ctx.Dir.
func (ctx *Context) AbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ctx.Dir, path)
}

// Infof writes the formatted message to the Context's Stderr, which is
// where progress information belongs; Stdout is reserved for command
// output proper.
func (ctx *Context) Infof(format string, args ...interface{}) {
	fmt.Fprintf(ctx.Stderr, format+"\n", args...)
}

// Warningf writes the formatted warning to the Context's Stderr.
func (ctx *Context) Warningf(format string, args ...interface{}) {
	fmt.Fprintf(ctx.Stderr, "WARNING: "+format+"\n", args...)
}

// DefaultContext returns a Context suitable for use in non-hosted situations.
func DefaultContext() (*Context, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Context{
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
	}, nil
}

// CheckEmpty is a utility function that returns an error if args is not empty.
func CheckEmpty(args []string) error {
	if len(args) != 0 {
		return errors.Errorf("unrecognized args: %q", args)
	}
	return nil
}

// ZeroOrOneArgs checks to see that there are zero or one args, and returns
// the value of the arg if provided, or the empty string if not.
func ZeroOrOneArgs(args []string) (string, error) {
	var arg string
	switch len(args) {
	case 0:
	case 1:
		arg = args[0]
	default:
		return "", errors.Errorf("unrecognized args: %q", args[1:])
	}
	return arg, nil
}

// NewFlagSet returns a FlagSet initialized for use with c.
func NewFlagSet(c Command) *gnuflag.FlagSet {
	f := gnuflag.NewFlagSet(c.Info().Name, gnuflag.ContinueOnError)
	f.SetOutput(io.Discard)
	c.SetFlags(f)
	return f
}

// printUsage prints usage information for c to w.
func printUsage(c Command, w io.Writer) {
	i := c.Info()
	fmt.Fprintf(w, "Usage: %s\n", i.Usage())
	if i.Purpose != "" {
		fmt.Fprintf(w, "\nSummary:\n%s\n", i.Purpose)
	}
	f := NewFlagSet(c)
	var hasOptions bool
	f.VisitAll(func(*gnuflag.Flag) { hasOptions = true })
	if hasOptions {
		fmt.Fprintf(w, "\nOptions:\n")
		f.SetOutput(w)
		f.PrintDefaults()
		f.SetOutput(io.Discard)
	}
	if i.Doc != "" {
		fmt.Fprintf(w, "\nDetails:\n%s\n", strings.TrimSpace(i.Doc))
	}
}

// Main runs the given Command in the supplied Context with the given
// arguments, which should not include the command name. It returns a code
// suitable for passing to os.Exit.
func Main(c Command, ctx *Context, args []string) int {
	f := NewFlagSet(c)
	if err := f.Parse(c.AllowInterspersedFlags(), args); err != nil {
		if err == gnuflag.ErrHelp {
			printUsage(c, ctx.Stdout)
			return 0
		}
		fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
		printUsage(c, ctx.Stderr)
		return 2
	}
	if err := c.Init(f.Args()); err != nil {
		fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
		printUsage(c, ctx.Stderr)
		return 2
	}
	if err := c.Run(ctx); err != nil {
		if err != ErrSilent {
			fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
			logger.Debugf("error stack:\n%v", errors.ErrorStack(err))
		}
		return 1
	}
	return 0
}
