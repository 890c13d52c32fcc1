package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// AzureStore is backed by an Azure Blob Storage account.
type AzureStore struct {
	client *azblob.Client
}

func NewAzureStore(connectionString string) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azblob client: %w", err)
	}
	return &AzureStore{client: client}, nil
}

func (s *AzureStore) EnsureContainer(ctx context.Context, name string) (Container, EnsureStatus, error) {
	_, err := s.client.CreateContainer(ctx, name, &azblob.CreateContainerOptions{
		Access: to.Ptr(azblob.PublicAccessTypeBlob),
	})
	if err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return s.containerClient(name), Existing, nil
		}
		return nil, Existing, fmt.Errorf("create container %s: %w", name, err)
	}

	return s.containerClient(name), Created, nil
}

func (s *AzureStore) Container(ctx context.Context, name string) (Container, error) {
	c := s.containerClient(name)
	if _, err := c.cl.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
		}
		return nil, fmt.Errorf("get container %s: %w", name, err)
	}
	return c, nil
}

func (s *AzureStore) containerClient(name string) *azureContainer {
	return &azureContainer{cl: s.client.ServiceClient().NewContainerClient(name)}
}

type azureContainer struct {
	cl *container.Client
}

func (c *azureContainer) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.cl.NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("blob properties %s: %w", key, err)
	}
	return true, nil
}

func (c *azureContainer) Delete(ctx context.Context, key string) error {
	if _, err := c.cl.NewBlobClient(key).Delete(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

func (c *azureContainer) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	bb := c.cl.NewBlockBlobClient(key)

	_, err := bb.UploadBuffer(ctx, data, &blockblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s: %w", key, err)
	}

	return bb.URL(), nil
}
