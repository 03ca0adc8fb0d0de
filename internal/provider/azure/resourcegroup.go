// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/juju/errors"
)

// EnsureResourceGroup creates the resource group if it does not already
// exist. Creating an existing group with the same location is a no-op
// on the provider side, so the call is safe to repeat.
func (p *Provider) EnsureResourceGroup(ctx context.Context, name, location string) error {
	logger.Debugf("ensuring resource group %q in %q", name, location)
	err := p.callAPI(func() error {
		_, err := p.resourceGroups.CreateOrUpdate(ctx, name, armresources.ResourceGroup{
			Location: to.Ptr(location),
		}, nil)
		return err
	})
	return errors.Annotatef(err, "creating resource group %q", name)
}

// ResourceGroupExists reports whether the resource group exists.
func (p *Provider) ResourceGroupExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.callAPI(func() error {
		resp, err := p.resourceGroups.CheckExistence(ctx, name, nil)
		if err != nil {
			return err
		}
		exists = resp.Success
		return nil
	})
	if err != nil {
		return false, errors.Trace(err)
	}
	return exists, nil
}

// DeleteResourceGroup deletes the resource group and everything in it,
// blocking until the provider reports the deletion complete. A missing
// group is not an error.
func (p *Provider) DeleteResourceGroup(ctx context.Context, name string) error {
	logger.Infof("deleting resource group %q", name)
	err := p.callAPI(func() error {
		poller, err := p.resourceGroups.BeginDelete(ctx, name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	})
	if IsNotFound(err) {
		return nil
	}
	return errors.Annotatef(err, "deleting resource group %q", name)
}
