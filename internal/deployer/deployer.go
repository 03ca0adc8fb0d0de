// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package deployer drives the provisioning pipeline: it turns a
// validated deployment configuration into running Azure resources, in
// dependency order, and reports the resulting endpoints.
package deployer

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/canonical/azapp/internal/config"
	"github.com/canonical/azapp/internal/provider/azure"
)

var logger = loggo.GetLogger("azapp.deployer")

// defaultStorageSKU is the replication SKU used for both the media and
// the backup storage accounts.
const defaultStorageSKU = "Standard_LRS"

// firewallRuleName with the 0.0.0.0 range allows connections from
// other Azure services, including the container app, without opening
// the server to the internet.
const firewallRuleName = "allow-azure-services"

// Provider is the subset of the Azure provider the deployer drives.
type Provider interface {
	EnsureResourceGroup(ctx context.Context, name, location string) error
	ResourceGroupExists(ctx context.Context, name string) (bool, error)
	DeleteResourceGroup(ctx context.Context, name string) error

	EnsureServer(ctx context.Context, params azure.ServerParams) (string, bool, error)
	EnsureFirewallRule(ctx context.Context, resourceGroup, server, name, startIP, endIP string) error
	EnsureDatabase(ctx context.Context, resourceGroup, server, name string) error

	EnsureWorkspace(ctx context.Context, resourceGroup, name, location string) (azure.Workspace, error)
	WorkspaceKey(ctx context.Context, resourceGroup, name string) (string, error)
	EnsureEnvironment(ctx context.Context, resourceGroup, name, location, customerID, sharedKey string) (string, error)

	EnsureStorageAccount(ctx context.Context, resourceGroup, name, location, skuName string) error
	StorageAccountKey(ctx context.Context, resourceGroup, name string) (string, error)
	EnsureBlobContainer(ctx context.Context, resourceGroup, account, name string) error

	EnsureInsights(ctx context.Context, resourceGroup, name, location, workspaceID string) (string, error)
	EnsureMetricAlert(ctx context.Context, params azure.MetricAlertParams) error

	CreateOrUpdateApp(ctx context.Context, params azure.AppParams) (azure.App, error)
	GetApp(ctx context.Context, resourceGroup, name string) (azure.App, error)
	UpdateAppImage(ctx context.Context, resourceGroup, name, image string) error
}

// Result reports the endpoints of a completed deployment.
type Result struct {
	AppFQDN    string `yaml:"app-fqdn" json:"app-fqdn"`
	AppURL     string `yaml:"app-url" json:"app-url"`
	ServerFQDN string `yaml:"server-fqdn" json:"server-fqdn"`

	StorageAccount       string `yaml:"storage-account" json:"storage-account"`
	BackupStorageAccount string `yaml:"backup-storage-account" json:"backup-storage-account"`

	// GeneratedDBPassword is set when no db-password was configured and
	// the deployer generated one. It is reported once so the operator
	// can record it; it is not stored anywhere else.
	GeneratedDBPassword string `yaml:"generated-db-password,omitempty" json:"generated-db-password,omitempty"`
}

// Deployer provisions and operates one deployment.
type Deployer struct {
	provider Provider
	cfg      *config.Config
}

// New returns a Deployer for the given provider and configuration.
func New(provider Provider, cfg *config.Config) *Deployer {
	return &Deployer{provider: provider, cfg: cfg}
}

// Deploy runs the provisioning pipeline. Each phase depends on the
// previous one, and each is idempotent, so a failed deploy can be
// re-run from the start.
func (d *Deployer) Deploy(ctx context.Context) (*Result, error) {
	cfg := d.cfg
	logger.Infof("deploying %s", cfg)

	if err := d.provider.EnsureResourceGroup(ctx, cfg.ResourceGroup(), cfg.Location()); err != nil {
		return nil, errors.Trace(err)
	}

	result := &Result{
		StorageAccount:       cfg.StorageAccount(),
		BackupStorageAccount: cfg.BackupStorageAccount(),
	}
	dbPassword := cfg.DBPassword()
	generatedPassword := dbPassword == ""
	if generatedPassword {
		dbPassword = randomSecret(24)
	}

	serverFQDN, created, err := d.provider.EnsureServer(ctx, azure.ServerParams{
		ResourceGroup: cfg.ResourceGroup(),
		Name:          cfg.ServerName(),
		Location:      cfg.Location(),
		AdminUser:     cfg.DBAdminUser(),
		AdminPassword: dbPassword,
		SkuName:       cfg.DBSku(),
		SkuTier:       cfg.DBTier(),
		StorageGB:     int32(cfg.DBStorageGB()),
		Version:       cfg.DBVersion(),
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	result.ServerFQDN = serverFQDN
	if generatedPassword {
		// An existing server keeps the password it was created with;
		// wiring a freshly generated one into the app would leave it
		// with credentials the server rejects.
		if !created {
			return nil, errors.Errorf("database server %q already exists but no db-password is configured; "+
				"set db-password to the password recorded when the server was created", cfg.ServerName())
		}
		result.GeneratedDBPassword = dbPassword
	}

	if err := d.provider.EnsureFirewallRule(ctx,
		cfg.ResourceGroup(), cfg.ServerName(), firewallRuleName, "0.0.0.0", "0.0.0.0"); err != nil {
		return nil, errors.Trace(err)
	}
	if err := d.provider.EnsureDatabase(ctx, cfg.ResourceGroup(), cfg.ServerName(), cfg.DBName()); err != nil {
		return nil, errors.Trace(err)
	}

	workspace, err := d.provider.EnsureWorkspace(ctx, cfg.ResourceGroup(), cfg.WorkspaceName(), cfg.Location())
	if err != nil {
		return nil, errors.Trace(err)
	}
	workspaceKey, err := d.provider.WorkspaceKey(ctx, cfg.ResourceGroup(), cfg.WorkspaceName())
	if err != nil {
		return nil, errors.Trace(err)
	}
	environmentID, err := d.provider.EnsureEnvironment(ctx,
		cfg.ResourceGroup(), cfg.EnvironmentName(), cfg.Location(), workspace.CustomerID, workspaceKey)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if err := d.provider.EnsureStorageAccount(ctx,
		cfg.ResourceGroup(), cfg.StorageAccount(), cfg.Location(), defaultStorageSKU); err != nil {
		return nil, errors.Trace(err)
	}
	if err := d.provider.EnsureBlobContainer(ctx,
		cfg.ResourceGroup(), cfg.StorageAccount(), cfg.StorageContainer()); err != nil {
		return nil, errors.Trace(err)
	}
	storageKey, err := d.provider.StorageAccountKey(ctx, cfg.ResourceGroup(), cfg.StorageAccount())
	if err != nil {
		return nil, errors.Trace(err)
	}

	instrumentationKey, err := d.provider.EnsureInsights(ctx,
		cfg.ResourceGroup(), cfg.InsightsName(), cfg.Location(), workspace.ResourceID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	env, secrets := appEnvironment(cfg, appSecrets{
		SecretKey:          randomSecret(50),
		ServerFQDN:         serverFQDN,
		DBPassword:         dbPassword,
		StorageKey:         storageKey,
		InstrumentationKey: instrumentationKey,
	})
	app, err := d.provider.CreateOrUpdateApp(ctx, azure.AppParams{
		ResourceGroup: cfg.ResourceGroup(),
		Name:          cfg.Name(),
		Location:      cfg.Location(),
		EnvironmentID: environmentID,
		Image:         cfg.Image(),
		TargetPort:    int32(cfg.TargetPort()),
		MinReplicas:   int32(cfg.MinReplicas()),
		MaxReplicas:   int32(cfg.MaxReplicas()),
		CPUCores:      cfg.CPUCores(),
		Memory:        cfg.Memory(),
		EnvVars:       env,
		Secrets:       secrets,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	result.AppFQDN = app.FQDN
	result.AppURL = "https://" + app.FQDN

	if err := d.provider.EnsureStorageAccount(ctx,
		cfg.ResourceGroup(), cfg.BackupStorageAccount(), cfg.Location(), defaultStorageSKU); err != nil {
		return nil, errors.Trace(err)
	}
	if err := d.provider.EnsureBlobContainer(ctx,
		cfg.ResourceGroup(), cfg.BackupStorageAccount(), cfg.BackupContainer()); err != nil {
		return nil, errors.Trace(err)
	}

	if err := d.ensureAlerts(ctx, app.ResourceID); err != nil {
		return nil, errors.Trace(err)
	}

	logger.Infof("deployed %q at %s", cfg.Name(), result.AppURL)
	return result, nil
}

// ensureAlerts creates the CPU and memory alert rules scoped to the app
// resource. Thresholds are computed from the configured percentages and
// the app's resource allocation, in the platform's raw metric units.
func (d *Deployer) ensureAlerts(ctx context.Context, appID string) error {
	cfg := d.cfg

	cpuThreshold := cfg.CPUCores() * 1e9 * float64(cfg.CPUAlertPercent()) / 100
	if err := d.provider.EnsureMetricAlert(ctx, azure.MetricAlertParams{
		ResourceGroup: cfg.ResourceGroup(),
		Name:          cfg.CPUAlertName(),
		Description:   fmt.Sprintf("%s CPU usage above %d%%", cfg.Name(), cfg.CPUAlertPercent()),
		Scope:         appID,
		MetricName:    azure.MetricCPUUsage,
		Threshold:     cpuThreshold,
		WindowSize:    cfg.AlertWindow(),
		Severity:      int32(cfg.AlertSeverity()),
	}); err != nil {
		return errors.Trace(err)
	}

	memoryBytes, err := cfg.MemoryBytes()
	if err != nil {
		return errors.Trace(err)
	}
	memoryThreshold := float64(memoryBytes) * float64(cfg.MemoryAlertPercent()) / 100
	if err := d.provider.EnsureMetricAlert(ctx, azure.MetricAlertParams{
		ResourceGroup: cfg.ResourceGroup(),
		Name:          cfg.MemoryAlertName(),
		Description:   fmt.Sprintf("%s memory usage above %d%%", cfg.Name(), cfg.MemoryAlertPercent()),
		Scope:         appID,
		MetricName:    azure.MetricMemoryUsage,
		Threshold:     memoryThreshold,
		WindowSize:    cfg.AlertWindow(),
		Severity:      int32(cfg.AlertSeverity()),
	}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Release points the already-provisioned app at a new container image.
// The platform replaces the active revision wholesale.
func (d *Deployer) Release(ctx context.Context, image string) error {
	logger.Infof("releasing image %q to %q", image, d.cfg.Name())
	return errors.Trace(d.provider.UpdateAppImage(ctx, d.cfg.ResourceGroup(), d.cfg.Name(), image))
}

// Status returns the deployed application state.
func (d *Deployer) Status(ctx context.Context) (azure.App, error) {
	app, err := d.provider.GetApp(ctx, d.cfg.ResourceGroup(), d.cfg.Name())
	return app, errors.Trace(err)
}

// Destroy deletes the resource group and everything in it. A deployment
// that was never created is not an error.
func (d *Deployer) Destroy(ctx context.Context) error {
	exists, err := d.provider.ResourceGroupExists(ctx, d.cfg.ResourceGroup())
	if err != nil {
		return errors.Trace(err)
	}
	if !exists {
		logger.Infof("resource group %q does not exist", d.cfg.ResourceGroup())
		return nil
	}
	return errors.Trace(d.provider.DeleteResourceGroup(ctx, d.cfg.ResourceGroup()))
}
