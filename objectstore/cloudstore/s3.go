package cloudstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	minio "github.com/minio/minio-go"

	"github.com/scioflow/objectstore/diskstore"
	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
	"github.com/scioflow/objectstore/objlog"
)

// S3Config configures an S3Backend.
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Secure          bool
	Bucket          string
	Prefix          string
	StoreBy         objectstore.StoreBy
	PresignExpiry   time.Duration
}

// S3Backend is a Backend over an S3-compatible bucket, wrapping the same
// minio-go client azcopy's sibling tooling uses for S3-to-Azure copies.
type S3Backend struct {
	staging
	cfg    S3Config
	client *minio.Client
	log    objlog.Logger
}

// NewS3Backend constructs an S3Backend. staged, if non-nil, handles
// calls whose Options.BaseDir is set.
func NewS3Backend(cfg S3Config, staged *diskstore.Backend, logger objlog.Logger) (*S3Backend, error) {
	if logger == nil {
		logger = objlog.Nop
	}
	client, err := minio.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.Secure)
	if err != nil {
		return nil, objerr.IOErrorf(err, "construct S3 client for %s", cfg.Endpoint)
	}
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = time.Hour
	}
	return &S3Backend{staging: staging{disk: staged}, cfg: cfg, client: client, log: logger}, nil
}

func (b *S3Backend) StoreType() string { return "aws_s3" }

func (b *S3Backend) key(obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	return ObjectKey(obj, opts, KeyParams{Prefix: b.cfg.Prefix, StoreBy: b.cfg.StoreBy})
}

func (b *S3Backend) Exists(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if b.applies(opts) {
		return b.disk.Exists(ctx, obj, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return false, err
	}
	_, err = b.client.StatObject(b.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (b *S3Backend) Ready(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	return b.Exists(ctx, obj, opts)
}

func (b *S3Backend) Create(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) error {
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
	_, err = b.client.PutObject(b.cfg.Bucket, key, emptyReader{}, 0, minio.PutObjectOptions{})
	if err != nil {
		return objerr.IOErrorf(err, "create S3 object %s/%s", b.cfg.Bucket, key)
	}
	return nil
}

type emptyReader struct{}

func (emptyReader) Read(p []byte) (int, error) { return 0, io.EOF }

func (b *S3Backend) Empty(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	size, err := b.Size(ctx, obj, opts)
	if err != nil {
		return false, err
	}
	return size == 0, nil
}

func (b *S3Backend) Size(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (int64, error) {
	if b.applies(opts) {
		return b.disk.Size(ctx, obj, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return 0, nil
	}
	info, err := b.client.StatObject(b.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, nil
	}
	return info.Size, nil
}

func (b *S3Backend) Delete(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if b.applies(opts) {
		return b.disk.Delete(ctx, obj, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return false, nil
	}
	if err := b.client.RemoveObject(b.cfg.Bucket, key); err != nil {
		b.log.Logf(objlog.ELevel.Error(), "delete S3 object %s/%s: %v", b.cfg.Bucket, key, err)
		return false, nil
	}
	return true, nil
}

func (b *S3Backend) GetData(ctx context.Context, obj objectstore.LogicalObject, start int64, count int64, opts objectstore.Options) ([]byte, error) {
	if b.applies(opts) {
		return b.disk.GetData(ctx, obj, start, count, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return nil, err
	}
	object, err := b.client.GetObject(b.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, objerr.IOErrorf(err, "get S3 object %s/%s", b.cfg.Bucket, key)
	}
	defer object.Close()
	if _, err := object.Seek(start, io.SeekStart); err != nil {
		return nil, objerr.IOErrorf(err, "seek S3 object %s/%s", b.cfg.Bucket, key)
	}
	if count < 0 {
		data, err := io.ReadAll(object)
		if err != nil {
			return nil, objerr.IOErrorf(err, "read S3 object %s/%s", b.cfg.Bucket, key)
		}
		return data, nil
	}
	buf := make([]byte, count)
	n, err := io.ReadFull(object, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, objerr.IOErrorf(err, "read S3 object %s/%s", b.cfg.Bucket, key)
	}
	return buf[:n], nil
}

func (b *S3Backend) GetFilename(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if b.applies(opts) {
		return b.disk.GetFilename(ctx, obj, opts)
	}
	return "", objerr.InvalidObjectf("S3 objects have no local filename; use GetData or stage via BaseDir")
}

func (b *S3Backend) UpdateFromFile(ctx context.Context, obj objectstore.LogicalObject, sourcePath string, opts objectstore.Options) error {
	if b.applies(opts) {
		return b.disk.UpdateFromFile(ctx, obj, sourcePath, opts)
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return err
	}
	if _, err := b.client.FPutObject(b.cfg.Bucket, key, sourcePath, minio.PutObjectOptions{}); err != nil {
		return objerr.IOErrorf(err, "upload %s to S3 object %s/%s", sourcePath, b.cfg.Bucket, key)
	}
	return nil
}

func (b *S3Backend) GetObjectURL(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if b.applies(opts) {
		return "", nil
	}
	key, err := b.key(obj, opts)
	if err != nil {
		return "", err
	}
	u, err := b.client.PresignedGetObject(b.cfg.Bucket, key, b.cfg.PresignExpiry, url.Values{})
	if err != nil {
		return "", objerr.IOErrorf(err, "presign S3 object %s/%s", b.cfg.Bucket, key)
	}
	return u.String(), nil
}

func (b *S3Backend) GetStoreUsagePercent() (float64, error) {
	return 0, fmt.Errorf("S3 backend does not report bucket usage")
}

func (b *S3Backend) Shutdown() {}

func (b *S3Backend) Describe() map[string]interface{} {
	return map[string]interface{}{
		"type":   b.StoreType(),
		"bucket": b.cfg.Bucket,
		"prefix": b.cfg.Prefix,
	}
}

var _ objectstore.Backend = (*S3Backend)(nil)
