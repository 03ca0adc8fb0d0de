// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package backup mirrors the application's media blobs into the backup
// storage account.
package backup

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("azapp.backup")

// Store is the set of blob operations mirroring needs from one storage
// account.
type Store interface {
	// List returns the names of all blobs in the container.
	List(ctx context.Context, container string) ([]string, error)

	// Download opens the named blob for reading.
	Download(ctx context.Context, container, name string) (io.ReadCloser, error)

	// Upload writes the named blob, replacing any existing content.
	Upload(ctx context.Context, container, name string, r io.Reader) error

	// Exists reports whether the named blob exists.
	Exists(ctx context.Context, container, name string) (bool, error)
}

type blobStore struct {
	client *azblob.Client
}

// NewStore returns a Store backed by the named storage account,
// authenticated with its shared key. A non-empty endpoint overrides the
// service URL; tests use it to point the store at a local server.
func NewStore(account, key, endpoint string) (Store, error) {
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, errors.Annotatef(err, "credential for storage account %q", account)
	}
	serviceURL := endpoint
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "client for storage account %q", account)
	}
	return &blobStore{client: client}, nil
}

func (s *blobStore) List(ctx context.Context, container string) ([]string, error) {
	var names []string
	pager := s.client.NewListBlobsFlatPager(container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Annotatef(err, "listing container %q", container)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (s *blobStore) Download(ctx context.Context, container, name string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "downloading blob %q", name)
	}
	return resp.Body, nil
}

func (s *blobStore) Upload(ctx context.Context, container, name string, r io.Reader) error {
	_, err := s.client.UploadStream(ctx, container, name, r, nil)
	return errors.Annotatef(err, "uploading blob %q", name)
}

func (s *blobStore) Exists(ctx context.Context, container, name string) (bool, error) {
	blob := s.client.ServiceClient().NewContainerClient(container).NewBlobClient(name)
	_, err := blob.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, errors.Annotatef(err, "checking blob %q", name)
	}
	return true, nil
}
