// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/juju/errors"
)

// EnsureStorageAccount creates a StorageV2 account with the given SKU
// if it does not already exist. Account names are global across the
// provider, so a name conflict in another subscription surfaces here.
func (p *Provider) EnsureStorageAccount(ctx context.Context, resourceGroup, name, location, skuName string) error {
	err := p.callAPI(func() error {
		_, err := p.accounts.GetProperties(ctx, resourceGroup, name, nil)
		return err
	})
	if err == nil {
		logger.Debugf("storage account %q already exists", name)
		return nil
	}
	if !IsNotFound(err) {
		return errors.Annotatef(err, "getting storage account %q", name)
	}

	logger.Infof("creating storage account %q", name)
	params := armstorage.AccountCreateParameters{
		Kind:     to.Ptr(armstorage.KindStorageV2),
		Location: to.Ptr(location),
		SKU: &armstorage.SKU{
			Name: to.Ptr(armstorage.SKUName(skuName)),
		},
		Properties: &armstorage.AccountPropertiesCreateParameters{
			AllowBlobPublicAccess:  to.Ptr(false),
			EnableHTTPSTrafficOnly: to.Ptr(true),
			MinimumTLSVersion:      to.Ptr(armstorage.MinimumTLSVersionTLS12),
		},
	}
	err = p.callAPI(func() error {
		poller, err := p.accounts.BeginCreate(ctx, resourceGroup, name, params, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	})
	return errors.Annotatef(err, "creating storage account %q", name)
}

// StorageAccountKey returns the first access key of the account.
func (p *Provider) StorageAccountKey(ctx context.Context, resourceGroup, name string) (string, error) {
	var key string
	err := p.callAPI(func() error {
		resp, err := p.accounts.ListKeys(ctx, resourceGroup, name, nil)
		if err != nil {
			return err
		}
		if len(resp.Keys) == 0 {
			return errors.Errorf("storage account %q has no keys", name)
		}
		key = toValue(resp.Keys[0].Value)
		return nil
	})
	if err != nil {
		return "", errors.Annotatef(err, "listing keys for storage account %q", name)
	}
	return key, nil
}

// EnsureBlobContainer creates a private blob container in the account.
// A container that already exists is not an error.
func (p *Provider) EnsureBlobContainer(ctx context.Context, resourceGroup, account, name string) error {
	err := p.callAPI(func() error {
		_, err := p.blobContainers.Create(ctx, resourceGroup, account, name, armstorage.BlobContainer{
			ContainerProperties: &armstorage.ContainerProperties{
				PublicAccess: to.Ptr(armstorage.PublicAccessNone),
			},
		}, nil)
		return err
	})
	if err != nil && !IsConflict(err) {
		return errors.Annotatef(err, "creating blob container %q in account %q", name, account)
	}
	return nil
}
