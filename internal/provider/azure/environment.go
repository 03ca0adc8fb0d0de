// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appcontainers/armappcontainers/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/operationalinsights/armoperationalinsights"
	"github.com/juju/errors"
)

// Workspace identifies a Log Analytics workspace: the customer ID is
// used to address log queries, the resource ID to link other resources.
type Workspace struct {
	ResourceID string
	CustomerID string
}

// EnsureWorkspace creates the Log Analytics workspace backing the
// Container Apps environment, and returns its identifiers.
func (p *Provider) EnsureWorkspace(ctx context.Context, resourceGroup, name, location string) (Workspace, error) {
	workspace := armoperationalinsights.Workspace{
		Location: to.Ptr(location),
		Properties: &armoperationalinsights.WorkspaceProperties{
			SKU: &armoperationalinsights.WorkspaceSKU{
				Name: to.Ptr(armoperationalinsights.WorkspaceSKUNameEnumPerGB2018),
			},
			RetentionInDays: to.Ptr[int32](30),
		},
	}
	var result Workspace
	err := p.callAPI(func() error {
		poller, err := p.workspaces.BeginCreateOrUpdate(ctx, resourceGroup, name, workspace, nil)
		if err != nil {
			return err
		}
		resp, err := poller.PollUntilDone(ctx, nil)
		if err != nil {
			return err
		}
		result = Workspace{
			ResourceID: toValue(resp.ID),
			CustomerID: toValue(resp.Properties.CustomerID),
		}
		return nil
	})
	if err != nil {
		return Workspace{}, errors.Annotatef(err, "creating workspace %q", name)
	}
	return result, nil
}

// GetWorkspace returns the identifiers of an existing workspace.
func (p *Provider) GetWorkspace(ctx context.Context, resourceGroup, name string) (Workspace, error) {
	var ws Workspace
	err := p.callAPI(func() error {
		resp, err := p.workspaces.Get(ctx, resourceGroup, name, nil)
		if err != nil {
			return err
		}
		ws = Workspace{ResourceID: toValue(resp.ID)}
		if resp.Properties != nil {
			ws.CustomerID = toValue(resp.Properties.CustomerID)
		}
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return Workspace{}, errors.NotFoundf("workspace %q", name)
		}
		return Workspace{}, errors.Annotatef(err, "getting workspace %q", name)
	}
	return ws, nil
}

// WorkspaceKey returns the primary shared key of the workspace, needed
// to bind a Container Apps environment to it.
func (p *Provider) WorkspaceKey(ctx context.Context, resourceGroup, name string) (string, error) {
	var key string
	err := p.callAPI(func() error {
		resp, err := p.sharedKeys.GetSharedKeys(ctx, resourceGroup, name, nil)
		if err != nil {
			return err
		}
		key = toValue(resp.PrimarySharedKey)
		return nil
	})
	if err != nil {
		return "", errors.Annotatef(err, "getting shared keys for workspace %q", name)
	}
	return key, nil
}

// EnsureEnvironment creates the Container Apps managed environment,
// wiring its console logs to the given workspace, and returns the
// environment's resource ID.
func (p *Provider) EnsureEnvironment(ctx context.Context, resourceGroup, name, location, customerID, sharedKey string) (string, error) {
	var id string
	err := p.callAPI(func() error {
		resp, err := p.environments.Get(ctx, resourceGroup, name, nil)
		if err != nil {
			return err
		}
		id = toValue(resp.ID)
		return nil
	})
	if err == nil {
		logger.Debugf("environment %q already exists", name)
		return id, nil
	}
	if !IsNotFound(err) {
		return "", errors.Annotatef(err, "getting environment %q", name)
	}

	logger.Infof("creating container apps environment %q", name)
	env := armappcontainers.ManagedEnvironment{
		Location: to.Ptr(location),
		Properties: &armappcontainers.ManagedEnvironmentProperties{
			AppLogsConfiguration: &armappcontainers.AppLogsConfiguration{
				Destination: to.Ptr("log-analytics"),
				LogAnalyticsConfiguration: &armappcontainers.LogAnalyticsConfiguration{
					CustomerID: to.Ptr(customerID),
					SharedKey:  to.Ptr(sharedKey),
				},
			},
		},
	}
	err = p.callAPI(func() error {
		poller, err := p.environments.BeginCreateOrUpdate(ctx, resourceGroup, name, env, nil)
		if err != nil {
			return err
		}
		resp, err := poller.PollUntilDone(ctx, nil)
		if err != nil {
			return err
		}
		id = toValue(resp.ID)
		return nil
	})
	if err != nil {
		return "", errors.Annotatef(err, "creating environment %q", name)
	}
	return id, nil
}
