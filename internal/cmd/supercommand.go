// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
)

// SuperCommandParams provides the configuration for a new SuperCommand.
type SuperCommandParams struct {
	Name    string
	Purpose string
	Doc     string
	Version string
}

// SuperCommand is a Command that selects a subcommand and assumes its
// properties; to Run a SuperCommand is to run its selected subcommand.
type SuperCommand struct {
	CommandBase
	Name    string
	Purpose string
	Doc     string

	version     string
	subcmds     map[string]Command
	action      Command
	actionName  string
	showVersion bool
	showDebug   bool
	logConfig   string
	subArgs     []string
}

// NewSuperCommand creates and initializes a new SuperCommand.
func NewSuperCommand(params SuperCommandParams) *SuperCommand {
	return &SuperCommand{
		Name:    params.Name,
		Purpose: params.Purpose,
		Doc:     params.Doc,
		version: params.Version,
		subcmds: make(map[string]Command),
	}
}

// Register makes a subcommand available for use on the command line.
func (c *SuperCommand) Register(subcmd Command) {
	info := subcmd.Info()
	c.insert(info.Name, subcmd)
	for _, name := range info.Aliases {
		c.insert(name, subcmd)
	}
}

func (c *SuperCommand) insert(name string, subcmd Command) {
	if _, found := c.subcmds[name]; found {
		panic(fmt.Sprintf("command already registered: %q", name))
	}
	c.subcmds[name] = subcmd
}

// Info returns a description of the currently selected subcommand, or of
// the SuperCommand itself if no subcommand has been selected.
func (c *SuperCommand) Info() *Info {
	if c.action != nil {
		info := *c.action.Info()
		info.Name = fmt.Sprintf("%s %s", c.Name, info.Name)
		return &info
	}
	names := make([]string, 0, len(c.subcmds))
	for name := range c.subcmds {
		names = append(names, name)
	}
	sort.Strings(names)
	var doc strings.Builder
	doc.WriteString(strings.TrimSpace(c.Doc))
	doc.WriteString("\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&doc, "    %-12s %s\n", name, c.subcmds[name].Info().Purpose)
	}
	return &Info{
		Name:    c.Name,
		Args:    "<command> ...",
		Purpose: c.Purpose,
		Doc:     doc.String(),
	}
}

// AllowInterspersedFlags returns false: flags after the subcommand name
// belong to the subcommand.
func (c *SuperCommand) AllowInterspersedFlags() bool { return false }

// SetFlags adds the options that apply to all commands.
func (c *SuperCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.showVersion, "version", false, "Show the version and exit")
	f.BoolVar(&c.showDebug, "debug", false, "Equivalent to --logging-config=<root>=DEBUG")
	f.StringVar(&c.logConfig, "logging-config", "", "Specify log levels for modules")
}

// Init selects the subcommand named by the first argument. The remaining
// arguments are held back and parsed by the subcommand itself in Run,
// so that subcommand flags may appear after the subcommand name.
func (c *SuperCommand) Init(args []string) error {
	if c.showVersion {
		return nil
	}
	if len(args) == 0 {
		return errors.Errorf("no command specified")
	}
	found := false
	if c.action, found = c.subcmds[args[0]]; !found {
		return errors.Errorf("unrecognized command: %s %s", c.Name, args[0])
	}
	c.actionName = args[0]
	c.subArgs = args[1:]
	return nil
}

// Run executes the subcommand selected in Init.
func (c *SuperCommand) Run(ctx *Context) error {
	if c.showVersion {
		fmt.Fprintf(ctx.Stdout, "%s\n", c.version)
		return nil
	}
	if err := c.configureLogging(); err != nil {
		return errors.Trace(err)
	}
	if c.action == nil {
		panic("Run: missing subcommand; Init failed or not called")
	}
	f := NewFlagSet(c.action)
	if err := f.Parse(c.action.AllowInterspersedFlags(), c.subArgs); err != nil {
		if err == gnuflag.ErrHelp {
			printUsage(c.action, ctx.Stdout)
			return nil
		}
		fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
		printUsage(c.action, ctx.Stderr)
		return ErrSilent
	}
	if err := c.action.Init(f.Args()); err != nil {
		fmt.Fprintf(ctx.Stderr, "ERROR %v\n", err)
		printUsage(c.action, ctx.Stderr)
		return ErrSilent
	}
	logger.Infof("running %s %s", c.Name, c.actionName)
	return c.action.Run(ctx)
}

func (c *SuperCommand) configureLogging() error {
	config := c.logConfig
	if config == "" && c.showDebug {
		config = "<root>=DEBUG"
	}
	if config == "" {
		config = "<root>=WARNING"
	}
	if err := loggo.ConfigureLoggers(config); err != nil {
		return errors.Annotate(err, "configuring loggers")
	}
	return nil
}
