// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/postgresql/armpostgresqlflexibleservers"
	"github.com/juju/errors"
)

// ServerParams describes a PostgreSQL flexible server.
type ServerParams struct {
	ResourceGroup string
	Name          string
	Location      string
	AdminUser     string
	AdminPassword string
	SkuName       string
	SkuTier       string
	StorageGB     int32
	Version       string
}

// EnsureServer creates the flexible server if it does not exist and
// returns its fully qualified domain name, reporting whether this call
// created it. An existing server keeps the admin password it was
// created with; the AdminPassword parameter only applies on creation.
// Server creation is a long-running operation; the call blocks until
// the server is usable.
func (p *Provider) EnsureServer(ctx context.Context, params ServerParams) (string, bool, error) {
	var fqdn string
	err := p.callAPI(func() error {
		resp, err := p.servers.Get(ctx, params.ResourceGroup, params.Name, nil)
		if err != nil {
			return err
		}
		fqdn = toValue(resp.Properties.FullyQualifiedDomainName)
		return nil
	})
	if err == nil {
		logger.Debugf("server %q already exists at %q", params.Name, fqdn)
		return fqdn, false, nil
	}
	if !IsNotFound(err) {
		return "", false, errors.Annotatef(err, "getting server %q", params.Name)
	}

	logger.Infof("creating database server %q (this can take several minutes)", params.Name)
	server := armpostgresqlflexibleservers.Server{
		Location: to.Ptr(params.Location),
		SKU: &armpostgresqlflexibleservers.SKU{
			Name: to.Ptr(params.SkuName),
			Tier: to.Ptr(armpostgresqlflexibleservers.SKUTier(params.SkuTier)),
		},
		Properties: &armpostgresqlflexibleservers.ServerProperties{
			AdministratorLogin:         to.Ptr(params.AdminUser),
			AdministratorLoginPassword: to.Ptr(params.AdminPassword),
			Version:                    to.Ptr(armpostgresqlflexibleservers.ServerVersion(params.Version)),
			Storage: &armpostgresqlflexibleservers.Storage{
				StorageSizeGB: to.Ptr(params.StorageGB),
			},
			CreateMode: to.Ptr(armpostgresqlflexibleservers.CreateModeCreate),
		},
	}
	err = p.callAPI(func() error {
		poller, err := p.servers.BeginCreate(ctx, params.ResourceGroup, params.Name, server, nil)
		if err != nil {
			return err
		}
		resp, err := poller.PollUntilDone(ctx, nil)
		if err != nil {
			return err
		}
		fqdn = toValue(resp.Properties.FullyQualifiedDomainName)
		return nil
	})
	if err != nil {
		return "", false, errors.Annotatef(err, "creating server %q", params.Name)
	}
	return fqdn, true, nil
}

// EnsureFirewallRule creates or updates a firewall rule on the server.
// The 0.0.0.0-0.0.0.0 range is the provider's convention for allowing
// access from Azure services only.
func (p *Provider) EnsureFirewallRule(ctx context.Context, resourceGroup, server, name, startIP, endIP string) error {
	rule := armpostgresqlflexibleservers.FirewallRule{
		Properties: &armpostgresqlflexibleservers.FirewallRuleProperties{
			StartIPAddress: to.Ptr(startIP),
			EndIPAddress:   to.Ptr(endIP),
		},
	}
	err := p.callAPI(func() error {
		poller, err := p.firewalls.BeginCreateOrUpdate(ctx, resourceGroup, server, name, rule, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	})
	return errors.Annotatef(err, "creating firewall rule %q", name)
}

// EnsureDatabase creates the logical database on the server if it does
// not already exist.
func (p *Provider) EnsureDatabase(ctx context.Context, resourceGroup, server, name string) error {
	err := p.callAPI(func() error {
		_, err := p.databases.Get(ctx, resourceGroup, server, name, nil)
		return err
	})
	if err == nil {
		logger.Debugf("database %q already exists", name)
		return nil
	}
	if !IsNotFound(err) {
		return errors.Annotatef(err, "getting database %q", name)
	}

	db := armpostgresqlflexibleservers.Database{
		Properties: &armpostgresqlflexibleservers.DatabaseProperties{
			Charset:   to.Ptr("UTF8"),
			Collation: to.Ptr("en_US.utf8"),
		},
	}
	err = p.callAPI(func() error {
		poller, err := p.databases.BeginCreate(ctx, resourceGroup, server, name, db, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	})
	return errors.Annotatef(err, "creating database %q", name)
}
