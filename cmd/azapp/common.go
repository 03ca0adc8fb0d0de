// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"gopkg.in/yaml.v3"

	"github.com/canonical/azapp/internal/backup"
	"github.com/canonical/azapp/internal/cmd"
	"github.com/canonical/azapp/internal/config"
	"github.com/canonical/azapp/internal/deployer"
	"github.com/canonical/azapp/internal/provider/azure"
)

// defaultConfigPath is the deployment config file read when --config is
// not given.
const defaultConfigPath = "azapp.yaml"

// configCommand is embedded by every command that operates on a
// deployment described by a config file.
type configCommand struct {
	cmd.CommandBase

	configPath string
	cfg        *config.Config
}

// SetFlags adds the --config flag.
func (c *configCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.configPath, "config", defaultConfigPath, "Path to the deployment config file")
}

// readConfig loads and validates the config file.
func (c *configCommand) readConfig(ctx *cmd.Context) error {
	cfg, err := config.ReadFile(ctx.AbsPath(c.configPath))
	if err != nil {
		return errors.Trace(err)
	}
	c.cfg = cfg
	return nil
}

// deployedConfigPath is where the last successfully deployed config is
// recorded, next to the config file itself.
func (c *configCommand) deployedConfigPath(ctx *cmd.Context) string {
	return ctx.AbsPath(c.configPath) + ".deployed"
}

// checkDeployedConfig validates the loaded config against the last
// deployed one: attributes naming existing resources cannot change.
func (c *configCommand) checkDeployedConfig(ctx *cmd.Context) error {
	path := c.deployedConfigPath(ctx)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Annotate(err, "reading deployed config")
	}
	var attrs map[string]interface{}
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return errors.Annotatef(err, "parsing %q", path)
	}
	old, err := config.New(attrs)
	if err != nil {
		return errors.Annotatef(err, "deployed config %q", path)
	}
	return errors.Trace(config.Validate(c.cfg, old))
}

// recordDeployedConfig snapshots the config after a successful deploy
// so later runs can detect illegal changes.
func (c *configCommand) recordDeployedConfig(ctx *cmd.Context) error {
	data, err := yaml.Marshal(c.cfg.Attrs())
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(os.WriteFile(c.deployedConfigPath(ctx), data, 0600), "recording deployed config")
}

// newProvider builds the Azure provider from the loaded config.
func (c *configCommand) newProvider() (*azure.Provider, error) {
	cred, err := azure.NewCredential(c.cfg.TenantID(), c.cfg.ClientID(), c.cfg.ClientSecret())
	if err != nil {
		return nil, errors.Annotate(err, "building credential")
	}
	provider, err := azure.NewProvider(azure.ProviderParams{
		SubscriptionID: c.cfg.SubscriptionID(),
		Credential:     cred,
		Clock:          clock.WallClock,
	})
	return provider, errors.Trace(err)
}

// newDeployer builds the deployer for the loaded config.
func (c *configCommand) newDeployer() (*deployer.Deployer, *azure.Provider, error) {
	provider, err := c.newProvider()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return deployer.New(provider, c.cfg), provider, nil
}

// newMirror builds the media-to-backup mirror, fetching the shared keys
// of both storage accounts.
func (c *configCommand) newMirror(ctx context.Context, provider *azure.Provider) (*backup.Mirror, error) {
	sourceKey, err := provider.StorageAccountKey(ctx, c.cfg.ResourceGroup(), c.cfg.StorageAccount())
	if err != nil {
		return nil, errors.Trace(err)
	}
	source, err := backup.NewStore(c.cfg.StorageAccount(), sourceKey, "")
	if err != nil {
		return nil, errors.Trace(err)
	}
	targetKey, err := provider.StorageAccountKey(ctx, c.cfg.ResourceGroup(), c.cfg.BackupStorageAccount())
	if err != nil {
		return nil, errors.Trace(err)
	}
	target, err := backup.NewStore(c.cfg.BackupStorageAccount(), targetKey, "")
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &backup.Mirror{
		Source:          source,
		Target:          target,
		SourceContainer: c.cfg.StorageContainer(),
		TargetContainer: c.cfg.BackupContainer(),
	}, nil
}
