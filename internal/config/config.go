// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config defines the deployment configuration for azapp: the
// attributes describing the application, the database, storage, and the
// alerting thresholds, together with their validation rules.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v3"
)

const (
	// AttrName is the logical name of the deployment. Most resource
	// names are derived from it.
	AttrName = "name"

	// AttrSubscriptionID is the Azure subscription hosting all
	// resources.
	AttrSubscriptionID = "subscription-id"

	// AttrResourceGroup is the resource group that contains every
	// resource created by the tool.
	AttrResourceGroup = "resource-group"

	// AttrLocation is the Azure region, e.g. "westeurope".
	AttrLocation = "location"

	// AttrImage is the container image reference deployed as the
	// application workload.
	AttrImage = "image"

	AttrTargetPort  = "target-port"
	AttrMinReplicas = "min-replicas"
	AttrMaxReplicas = "max-replicas"
	AttrCPU         = "cpu"
	AttrMemory      = "memory"

	AttrDBAdminUser = "db-admin-user"
	AttrDBPassword  = "db-password"
	AttrDBSku       = "db-sku"
	AttrDBTier      = "db-tier"
	AttrDBStorageGB = "db-storage-gb"
	AttrDBVersion   = "db-version"
	AttrDBName      = "db-name"

	AttrStorageAccount       = "storage-account"
	AttrStorageContainer     = "storage-container"
	AttrBackupStorageAccount = "backup-storage-account"
	AttrBackupContainer      = "backup-container"

	AttrTimezone     = "timezone"
	AttrAllowedHosts = "allowed-hosts"
	AttrDebug        = "debug"
	AttrEnableSignup = "enable-signup"

	AttrCPUAlertPercent    = "cpu-alert-percent"
	AttrMemoryAlertPercent = "memory-alert-percent"
	AttrAlertWindow        = "alert-window"
	AttrAlertSeverity      = "alert-severity"

	AttrTenantID     = "tenant-id"
	AttrClientID     = "client-id"
	AttrClientSecret = "client-secret"
)

// storageAccountNameMax is the maximum length of an Azure storage
// account name.
const storageAccountNameMax = 24

// serverNameMax is the maximum length of a flexible server name.
const serverNameMax = 63

var (
	storageAccountRegexp = regexp.MustCompile(`^[a-z0-9]{3,24}$`)
	serverNameRegexp     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)
	nameRegexp           = regexp.MustCompile(`^[a-z][a-z0-9-]{0,30}[a-z0-9]$`)
)

var configFields = schema.Fields{
	AttrName:           schema.String(),
	AttrSubscriptionID: schema.String(),
	AttrResourceGroup:  schema.String(),
	AttrLocation:       schema.String(),
	AttrImage:          schema.String(),
	AttrTargetPort:     schema.ForceInt(),
	AttrMinReplicas:    schema.ForceInt(),
	AttrMaxReplicas:    schema.ForceInt(),
	AttrCPU:            schema.Stringified(),
	AttrMemory:         schema.String(),

	AttrDBAdminUser: schema.String(),
	AttrDBPassword:  schema.String(),
	AttrDBSku:       schema.String(),
	AttrDBTier:      schema.String(),
	AttrDBStorageGB: schema.ForceInt(),
	AttrDBVersion:   schema.Stringified(),
	AttrDBName:      schema.String(),

	AttrStorageAccount:       schema.String(),
	AttrStorageContainer:     schema.String(),
	AttrBackupStorageAccount: schema.String(),
	AttrBackupContainer:      schema.String(),

	AttrTimezone:     schema.String(),
	AttrAllowedHosts: schema.String(),
	AttrDebug:        schema.Bool(),
	AttrEnableSignup: schema.Bool(),

	AttrCPUAlertPercent:    schema.ForceInt(),
	AttrMemoryAlertPercent: schema.ForceInt(),
	AttrAlertWindow:        schema.String(),
	AttrAlertSeverity:      schema.ForceInt(),

	AttrTenantID:     schema.String(),
	AttrClientID:     schema.String(),
	AttrClientSecret: schema.String(),
}

var configDefaults = schema.Defaults{
	AttrTargetPort:  8080,
	AttrMinReplicas: 1,
	AttrMaxReplicas: 1,
	AttrCPU:         "0.5",
	AttrMemory:      "1Gi",

	AttrDBAdminUser: "dbadmin",
	AttrDBPassword:  schema.Omit,
	AttrDBSku:       "Standard_B1ms",
	AttrDBTier:      "Burstable",
	AttrDBStorageGB: 32,
	AttrDBVersion:   "14",
	AttrDBName:      schema.Omit,

	AttrStorageAccount:       schema.Omit,
	AttrStorageContainer:     "media",
	AttrBackupStorageAccount: schema.Omit,
	AttrBackupContainer:      "backup",

	AttrTimezone:     "UTC",
	AttrAllowedHosts: "*",
	AttrDebug:        false,
	AttrEnableSignup: false,

	AttrCPUAlertPercent:    80,
	AttrMemoryAlertPercent: 80,
	AttrAlertWindow:        "PT5M",
	AttrAlertSeverity:      2,

	AttrTenantID:     schema.Omit,
	AttrClientID:     schema.Omit,
	AttrClientSecret: schema.Omit,
}

// immutableAttributes cannot change between two validated configurations;
// the resources they name are created once and never moved.
var immutableAttributes = []string{
	AttrName,
	AttrSubscriptionID,
	AttrResourceGroup,
	AttrLocation,
	AttrStorageAccount,
	AttrBackupStorageAccount,
}

// Config holds a validated deployment configuration.
type Config struct {
	attrs map[string]interface{}
}

// New returns a validated Config constructed from the given attributes,
// with defaults applied.
func New(attrs map[string]interface{}) (*Config, error) {
	checker := schema.FieldMap(configFields, configDefaults)
	coerced, err := checker.Coerce(attrs, nil)
	if err != nil {
		return nil, errors.Annotate(err, "invalid config")
	}
	cfg := &Config{attrs: coerced.(map[string]interface{})}
	if err := cfg.validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// ReadFile reads and validates a deployment configuration from a YAML file.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading config file")
	}
	var attrs map[string]interface{}
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return nil, errors.Annotatef(err, "parsing %q", path)
	}
	cfg, err := New(attrs)
	if err != nil {
		return nil, errors.Annotatef(err, "config file %q", path)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !nameRegexp.MatchString(c.Name()) {
		return errors.NotValidf("deployment name %q", c.Name())
	}
	if c.Location() == "" {
		return errors.Errorf("%q config not specified", AttrLocation)
	}
	if c.Image() == "" {
		return errors.Errorf("%q config not specified", AttrImage)
	}
	if port := c.TargetPort(); port < 1 || port > 65535 {
		return errors.NotValidf("target port %d", port)
	}
	if c.MinReplicas() < 0 || c.MaxReplicas() < 1 {
		return errors.NotValidf("replica bounds %d..%d", c.MinReplicas(), c.MaxReplicas())
	}
	if c.MinReplicas() > c.MaxReplicas() {
		return errors.Errorf("min-replicas %d exceeds max-replicas %d", c.MinReplicas(), c.MaxReplicas())
	}
	if _, err := strconv.ParseFloat(c.CPU(), 64); err != nil {
		return errors.NotValidf("cpu value %q", c.CPU())
	}
	if !strings.HasSuffix(c.Memory(), "Gi") {
		return errors.NotValidf("memory value %q (expected e.g. \"1Gi\")", c.Memory())
	}
	if sa := c.StorageAccount(); !storageAccountRegexp.MatchString(sa) {
		return errors.Errorf("storage account name %q must be 3-24 lowercase letters and digits", sa)
	}
	if sa := c.BackupStorageAccount(); !storageAccountRegexp.MatchString(sa) {
		return errors.Errorf("backup storage account name %q must be 3-24 lowercase letters and digits", sa)
	}
	if sn := c.ServerName(); !serverNameRegexp.MatchString(sn) {
		return errors.NotValidf("database server name %q", sn)
	}
	if pct := c.CPUAlertPercent(); pct < 1 || pct > 100 {
		return errors.NotValidf("cpu alert threshold %d%%", pct)
	}
	if pct := c.MemoryAlertPercent(); pct < 1 || pct > 100 {
		return errors.NotValidf("memory alert threshold %d%%", pct)
	}
	if sev := c.AlertSeverity(); sev < 0 || sev > 4 {
		return errors.NotValidf("alert severity %d", sev)
	}
	// Client-secret credentials are all or nothing; a partial set is
	// more likely a mistake than an intention.
	n := 0
	for _, attr := range []string{AttrTenantID, AttrClientID, AttrClientSecret} {
		if _, ok := c.attrs[attr]; ok {
			n++
		}
	}
	if n != 0 && n != 3 {
		return errors.Errorf("tenant-id, client-id and client-secret must be specified together")
	}
	return nil
}

// Validate checks that the new configuration is a legal change from the
// old one: immutable attributes cannot be changed or removed once set.
func Validate(newCfg, oldCfg *Config) error {
	if oldCfg == nil {
		return nil
	}
	for _, attr := range immutableAttributes {
		oldValue, oldOK := oldCfg.attrs[attr]
		newValue, newOK := newCfg.attrs[attr]
		if !oldOK {
			continue
		}
		if !newOK {
			return errors.Errorf("cannot remove immutable %q config", attr)
		}
		if newValue != oldValue {
			return errors.Errorf("cannot change immutable %q config (%v -> %v)", attr, oldValue, newValue)
		}
	}
	return nil
}

func (c *Config) asString(attr string) string {
	value, _ := c.attrs[attr].(string)
	return value
}

func (c *Config) asInt(attr string) int {
	switch value := c.attrs[attr].(type) {
	case int64:
		return int(value)
	case int:
		return value
	}
	return 0
}

func (c *Config) asBool(attr string) bool {
	value, _ := c.attrs[attr].(bool)
	return value
}

// Name returns the logical deployment name.
func (c *Config) Name() string { return c.asString(AttrName) }

// SubscriptionID returns the Azure subscription ID.
func (c *Config) SubscriptionID() string { return c.asString(AttrSubscriptionID) }

// ResourceGroup returns the resource group name.
func (c *Config) ResourceGroup() string { return c.asString(AttrResourceGroup) }

// Location returns the Azure region.
func (c *Config) Location() string { return c.asString(AttrLocation) }

// Image returns the container image reference.
func (c *Config) Image() string { return c.asString(AttrImage) }

func (c *Config) TargetPort() int  { return c.asInt(AttrTargetPort) }
func (c *Config) MinReplicas() int { return c.asInt(AttrMinReplicas) }
func (c *Config) MaxReplicas() int { return c.asInt(AttrMaxReplicas) }
func (c *Config) CPU() string      { return c.asString(AttrCPU) }
func (c *Config) Memory() string   { return c.asString(AttrMemory) }

func (c *Config) DBAdminUser() string { return c.asString(AttrDBAdminUser) }
func (c *Config) DBSku() string       { return c.asString(AttrDBSku) }
func (c *Config) DBTier() string      { return c.asString(AttrDBTier) }
func (c *Config) DBStorageGB() int    { return c.asInt(AttrDBStorageGB) }
func (c *Config) DBVersion() string   { return c.asString(AttrDBVersion) }

// DBPassword returns the database administrator password, which may be
// empty; in that case the deployer generates one.
func (c *Config) DBPassword() string { return c.asString(AttrDBPassword) }

// DBName returns the logical database name, defaulting to the
// deployment name.
func (c *Config) DBName() string {
	if name := c.asString(AttrDBName); name != "" {
		return name
	}
	return c.Name()
}

// StorageAccount returns the primary storage account name, defaulting
// to a name derived from the deployment name.
func (c *Config) StorageAccount() string {
	if name := c.asString(AttrStorageAccount); name != "" {
		return name
	}
	return storageAccountName(c.Name(), "media")
}

// BackupStorageAccount returns the backup storage account name,
// defaulting to a name derived from the deployment name.
func (c *Config) BackupStorageAccount() string {
	if name := c.asString(AttrBackupStorageAccount); name != "" {
		return name
	}
	return storageAccountName(c.Name(), "backup")
}

func (c *Config) StorageContainer() string { return c.asString(AttrStorageContainer) }
func (c *Config) BackupContainer() string  { return c.asString(AttrBackupContainer) }

func (c *Config) Timezone() string     { return c.asString(AttrTimezone) }
func (c *Config) AllowedHosts() string { return c.asString(AttrAllowedHosts) }
func (c *Config) Debug() bool          { return c.asBool(AttrDebug) }
func (c *Config) EnableSignup() bool   { return c.asBool(AttrEnableSignup) }

func (c *Config) CPUAlertPercent() int    { return c.asInt(AttrCPUAlertPercent) }
func (c *Config) MemoryAlertPercent() int { return c.asInt(AttrMemoryAlertPercent) }
func (c *Config) AlertWindow() string     { return c.asString(AttrAlertWindow) }
func (c *Config) AlertSeverity() int      { return c.asInt(AttrAlertSeverity) }

func (c *Config) TenantID() string     { return c.asString(AttrTenantID) }
func (c *Config) ClientID() string     { return c.asString(AttrClientID) }
func (c *Config) ClientSecret() string { return c.asString(AttrClientSecret) }

// ServerName returns the flexible server name derived from the
// deployment name.
func (c *Config) ServerName() string {
	name := c.Name() + "-db"
	if len(name) > serverNameMax {
		name = name[:serverNameMax]
	}
	return name
}

// EnvironmentName returns the Container Apps environment name.
func (c *Config) EnvironmentName() string { return c.Name() + "-env" }

// WorkspaceName returns the Log Analytics workspace name.
func (c *Config) WorkspaceName() string { return c.Name() + "-logs" }

// InsightsName returns the Application Insights component name.
func (c *Config) InsightsName() string { return c.Name() + "-insights" }

// CPUAlertName returns the CPU metric alert rule name.
func (c *Config) CPUAlertName() string { return c.Name() + "-cpu-alert" }

// MemoryAlertName returns the memory metric alert rule name.
func (c *Config) MemoryAlertName() string { return c.Name() + "-memory-alert" }

// CPUCores returns the configured CPU allocation as a float.
func (c *Config) CPUCores() float64 {
	value, _ := strconv.ParseFloat(c.CPU(), 64)
	return value
}

// MemoryBytes returns the configured memory allocation in bytes.
func (c *Config) MemoryBytes() (int64, error) {
	gi, err := strconv.ParseFloat(strings.TrimSuffix(c.Memory(), "Gi"), 64)
	if err != nil {
		return 0, errors.NotValidf("memory value %q", c.Memory())
	}
	return int64(gi * 1024 * 1024 * 1024), nil
}

// storageAccountName derives a storage account name from the deployment
// name and a suffix, squeezed into Azure's lexical rules.
func storageAccountName(deployment, suffix string) string {
	name := strings.ReplaceAll(deployment, "-", "") + suffix
	if len(name) > storageAccountNameMax {
		name = name[:storageAccountNameMax]
	}
	return name
}

// Attrs returns a copy of the underlying attribute map.
func (c *Config) Attrs() map[string]interface{} {
	attrs := make(map[string]interface{}, len(c.attrs))
	for k, v := range c.attrs {
		attrs[k] = v
	}
	return attrs
}

// String renders the config for log output, with secrets elided.
func (c *Config) String() string {
	return fmt.Sprintf("%s in %s (%s)", c.Name(), c.ResourceGroup(), c.Location())
}
