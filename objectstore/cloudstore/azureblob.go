package cloudstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/scioflow/objectstore/diskstore"
	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
	"github.com/scioflow/objectstore/objlog"
)

// AzureBlobConfig configures an AzureBlobBackend.
type AzureBlobConfig struct {
	ConnectionString string
	Container        string
	Prefix           string
	StoreBy          objectstore.StoreBy
}

// AzureBlobBackend is a Backend over an Azure Blob container, built the
// way azcopy's own service client wraps azblob.Client.
type AzureBlobBackend struct {
	staging
	cfg    AzureBlobConfig
	client *azblob.Client
	log    objlog.Logger
}

// NewAzureBlobBackend constructs an AzureBlobBackend.
func NewAzureBlobBackend(cfg AzureBlobConfig, staged *diskstore.Backend, logger objlog.Logger) (*AzureBlobBackend, error) {
	if logger == nil {
		logger = objlog.Nop
	}
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, objerr.IOErrorf(err, "construct Azure blob client for container %s", cfg.Container)
	}
	return &AzureBlobBackend{staging: staging{disk: staged}, cfg: cfg, client: client, log: logger}, nil
}

func (b *AzureBlobBackend) StoreType() string { return "azure_blob" }

func (b *AzureBlobBackend) key(obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	return ObjectKey(obj, opts, KeyParams{Prefix: b.cfg.Prefix, StoreBy: b.cfg.StoreBy})
}

func (b *AzureBlobBackend) Exists(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if b.applies(opts) {
		return b.disk.Exists(ctx, obj, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return false, err
	}
	blobClient := b.client.ServiceClient().NewContainerClient(b.cfg.Container).NewBlobClient(key)
	_, err = blobClient.GetProperties(ctx, nil)
	return err == nil, nil
}

func (b *AzureBlobBackend) Ready(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	return b.Exists(ctx, obj, opts)
}

func (b *AzureBlobBackend) Create(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) error {
	if b.applies(opts) {
		return b.disk.Create(ctx, obj, opts)
	}
	exists, err := b.Exists(ctx, obj, opts)
	if err != nil {
		return err
	}
	if exists || opts.DirOnly {
		return nil
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return err
	}
	if _, err := b.client.UploadStream(ctx, b.cfg.Container, key, bytes.NewReader(nil), nil); err != nil {
		return objerr.IOErrorf(err, "create Azure blob %s/%s", b.cfg.Container, key)
	}
	return nil
}

func (b *AzureBlobBackend) Empty(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	size, err := b.Size(ctx, obj, opts)
	if err != nil {
		return false, err
	}
	return size == 0, nil
}

func (b *AzureBlobBackend) Size(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (int64, error) {
	if b.applies(opts) {
		return b.disk.Size(ctx, obj, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return 0, nil
	}
	blobClient := b.client.ServiceClient().NewContainerClient(b.cfg.Container).NewBlobClient(key)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil || props.ContentLength == nil {
		return 0, nil
	}
	return *props.ContentLength, nil
}

func (b *AzureBlobBackend) Delete(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if b.applies(opts) {
		return b.disk.Delete(ctx, obj, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return false, nil
	}
	if _, err := b.client.DeleteBlob(ctx, b.cfg.Container, key, nil); err != nil {
		b.log.Logf(objlog.ELevel.Error(), "delete Azure blob %s/%s: %v", b.cfg.Container, key, err)
		return false, nil
	}
	return true, nil
}

func (b *AzureBlobBackend) GetData(ctx context.Context, obj objectstore.LogicalObject, start int64, count int64, opts objectstore.Options) ([]byte, error) {
	if b.applies(opts) {
		return b.disk.GetData(ctx, obj, start, count, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return nil, err
	}
	var rangeOpts *azblob.DownloadStreamOptions
	if start != 0 || count >= 0 {
		r := azblob.HTTPRange{Offset: start}
		if count >= 0 {
			r.Count = count
		}
		rangeOpts = &azblob.DownloadStreamOptions{Range: r}
	}
	resp, err := b.client.DownloadStream(ctx, b.cfg.Container, key, rangeOpts)
	if err != nil {
		return nil, objerr.IOErrorf(err, "download Azure blob %s/%s", b.cfg.Container, key)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, objerr.IOErrorf(err, "read Azure blob %s/%s", b.cfg.Container, key)
	}
	return data, nil
}

func (b *AzureBlobBackend) GetFilename(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if b.applies(opts) {
		return b.disk.GetFilename(ctx, obj, opts)
	}
	return "", objerr.InvalidObjectf("Azure blob objects have no local filename; use GetData or stage via BaseDir")
}

func (b *AzureBlobBackend) UpdateFromFile(ctx context.Context, obj objectstore.LogicalObject, sourcePath string, opts objectstore.Options) error {
	if b.applies(opts) {
		return b.disk.UpdateFromFile(ctx, obj, sourcePath, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return err
	}
	f, err := os.Open(sourcePath)
	if err != nil {
		return objerr.IOErrorf(err, "open %s", sourcePath)
	}
	defer f.Close()
	if _, err := b.client.UploadFile(ctx, b.cfg.Container, key, f, nil); err != nil {
		return objerr.IOErrorf(err, "upload %s to Azure blob %s/%s", sourcePath, b.cfg.Container, key)
	}
	return nil
}

func (b *AzureBlobBackend) GetObjectURL(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if b.applies(opts) {
		return "", nil
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return "", err
	}
	blobClient := b.client.ServiceClient().NewContainerClient(b.cfg.Container).NewBlobClient(key)
	return blobClient.URL(), nil
}

func (b *AzureBlobBackend) GetStoreUsagePercent() (float64, error) {
	return 0, fmt.Errorf("Azure blob backend does not report container usage")
}

func (b *AzureBlobBackend) Shutdown() {}

func (b *AzureBlobBackend) Describe() map[string]interface{} {
	return map[string]interface{}{
		"type":      b.StoreType(),
		"container": b.cfg.Container,
		"prefix":    b.cfg.Prefix,
	}
}

var _ objectstore.Backend = (*AzureBlobBackend)(nil)
