// Package diskstore implements Backend over a local directory tree. It
// is the Go analogue of Galaxy's DiskObjectStore, built the way azcopy
// builds its own filesystem-facing helpers: small os/io calls,
// umask-aware permission fixups, and retrying once around known
// networked-filesystem metadata lag.
package diskstore

import (
	"context"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
	"github.com/scioflow/objectstore/objlog"
	"github.com/scioflow/objectstore/pathpolicy"
)

// Config configures a Backend. FilesRoot and Umask come from the host's
// environment config; ExtraDirs is pre-populated by the
// caller with the reserved job_work/temp keys plus any user extras.
type Config struct {
	FilesRoot     string
	ExtraDirs     map[string]string
	StoreBy       objectstore.StoreBy
	CheckOldStyle bool
	Umask         int
}

// Backend is a concrete store over a local directory tree.
type Backend struct {
	cfg      Config
	log      objlog.Logger
	filePerm os.FileMode
}

// New constructs a disk-backed Backend.
func New(cfg Config, logger objlog.Logger) *Backend {
	if logger == nil {
		logger = objlog.Nop
	}
	return &Backend{
		cfg:      cfg,
		log:      logger,
		filePerm: os.FileMode(0666 &^ cfg.Umask),
	}
}

// StoreType reports this backend's factory-dispatched type name.
func (b *Backend) StoreType() string { return "disk" }

func (b *Backend) params() pathpolicy.Params {
	return pathpolicy.Params{
		FilesRoot: b.cfg.FilesRoot,
		ExtraDirs: b.cfg.ExtraDirs,
		StoreBy:   b.cfg.StoreBy,
	}
}

func (b *Backend) path(obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	return pathpolicy.Build(obj, opts, b.params())
}

func (b *Backend) legacyPath(obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	return pathpolicy.Legacy(obj, opts, b.params())
}

func statExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Exists reports whether obj's backing file (or directory, if DirOnly)
// is present. When CheckOldStyle, the legacy unsharded path is probed
// first.
func (b *Backend) Exists(_ context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if b.cfg.CheckOldStyle {
		if legacy, err := b.legacyPath(obj, opts); err == nil && statExists(legacy) {
			return true, nil
		}
	}
	p, err := b.path(obj, opts)
	if err != nil {
		return false, err
	}
	return statExists(p), nil
}

// Ready always reports true for disk-backed objects; data is never
// staged asynchronously on local disk.
func (b *Backend) Ready(context.Context, objectstore.LogicalObject, objectstore.Options) (bool, error) {
	return true, nil
}

// Create makes obj exist with no content, creating parent directories
// as needed. It is idempotent: calling it again on an existing object is
// a no-op.
func (b *Backend) Create(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) error {
	exists, err := b.Exists(ctx, obj, opts)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	p, err := b.path(obj, opts)
	if err != nil {
		return err
	}
	dir := p
	if !opts.DirOnly {
		dir = parentDir(p)
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return objerr.IOErrorf(err, "create parent directories for %s", p)
	}
	if opts.DirOnly {
		return nil
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return objerr.IOErrorf(err, "create object file %s", p)
	}
	defer f.Close()
	return os.Chmod(p, b.filePerm)
}

func parentDir(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return "."
}

// Empty reports whether obj's content is zero-length. Fails NotFound if
// obj does not exist.
func (b *Backend) Empty(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	exists, err := b.Exists(ctx, obj, opts)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, objerr.NotFoundf("object %s not found", obj.ClassName())
	}
	size, err := b.Size(ctx, obj, opts)
	if err != nil {
		return false, err
	}
	return size == 0, nil
}

// Size returns the byte length of obj's content. Returns 0 on stat error
// or absence rather than an error. A first-read zero is retried once
// after 10ms to accommodate networked filesystems with delayed metadata
// coherence.
func (b *Backend) Size(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (int64, error) {
	exists, err := b.Exists(ctx, obj, opts)
	if err != nil || !exists {
		return 0, nil
	}
	p, err := b.GetFilename(ctx, obj, opts)
	if err != nil {
		return 0, nil
	}
	for attempt := 0; attempt < 2; attempt++ {
		fi, err := os.Stat(p)
		if err != nil {
			return 0, nil
		}
		if fi.Size() != 0 || attempt == 1 {
			return fi.Size(), nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return 0, nil
}

// Delete removes obj's backing file, or (with EntireDir, and ExtraDir or
// ObjDir set) the whole containing directory. It never returns an error:
// OS failures are logged and reported via the bool return, matching
// a best-effort deletion contract.
func (b *Backend) Delete(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	p, err := b.GetFilename(ctx, obj, opts)
	if err != nil {
		return false, nil
	}
	if opts.EntireDir && (opts.ExtraDir != "" || opts.ObjDir) {
		if err := os.RemoveAll(p); err != nil {
			b.log.Logf(objlog.ELevel.Error(), "delete %s: %v", p, err)
			return false, nil
		}
		return true, nil
	}
	exists, err := b.Exists(ctx, obj, opts)
	if err != nil || !exists {
		return false, nil
	}
	if err := os.Remove(p); err != nil {
		b.log.Logf(objlog.ELevel.Error(), "delete %s: %v", p, err)
		return false, nil
	}
	return true, nil
}

// GetData reads up to count bytes starting at start; count < 0 reads to
// end of file. Fails NotFound if obj does not exist.
func (b *Backend) GetData(ctx context.Context, obj objectstore.LogicalObject, start int64, count int64, opts objectstore.Options) ([]byte, error) {
	p, err := b.GetFilename(ctx, obj, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, objerr.IOErrorf(err, "open %s", p)
	}
	defer f.Close()
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, objerr.IOErrorf(err, "seek %s", p)
	}
	if count < 0 {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, objerr.IOErrorf(err, "read %s", p)
		}
		return data, nil
	}
	buf := make([]byte, count)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, objerr.IOErrorf(err, "read %s", p)
	}
	return buf[:n], nil
}

// GetFilename returns the existing path for obj, probing the legacy
// layout first when CheckOldStyle is set. Fails NotFound if neither
// exists.
func (b *Backend) GetFilename(_ context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if b.cfg.CheckOldStyle {
		if legacy, err := b.legacyPath(obj, opts); err == nil && statExists(legacy) {
			return legacy, nil
		}
	}
	p, err := b.path(obj, opts)
	if err != nil {
		return "", err
	}
	if !statExists(p) {
		return "", objerr.NotFoundf("object %s not found at %s", obj.ClassName(), p)
	}
	return p, nil
}

// UpdateFromFile replaces obj's content with the contents of sourcePath.
// If Create is set and obj is absent, it is created first. If
// PreserveSymlinks and sourcePath is itself a symlink, the link is
// replicated rather than its target copied.
func (b *Backend) UpdateFromFile(ctx context.Context, obj objectstore.LogicalObject, sourcePath string, opts objectstore.Options) error {
	if opts.Create {
		if err := b.Create(ctx, obj, opts); err != nil {
			return err
		}
	}
	exists, err := b.Exists(ctx, obj, opts)
	if err != nil {
		return err
	}
	if !exists {
		return objerr.NotFoundf("object %s not found, cannot update from file", obj.ClassName())
	}
	dest, err := b.path(obj, opts)
	if err != nil {
		return err
	}
	if opts.PreserveSymlinks {
		if fi, err := os.Lstat(sourcePath); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(sourcePath)
			if err != nil {
				return objerr.IOErrorf(err, "readlink %s", sourcePath)
			}
			tmp := dest + ".tmp-symlink"
			if err := os.Symlink(target, tmp); err != nil {
				return objerr.IOErrorf(err, "symlink %s -> %s", tmp, target)
			}
			if err := os.Rename(tmp, dest); err != nil {
				return objerr.IOErrorf(err, "rename symlink into place %s", dest)
			}
			return nil
		}
	}
	if err := copyFile(sourcePath, dest, b.filePerm); err != nil {
		return objerr.IOErrorf(err, "copy %s to %s", sourcePath, dest)
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Chmod(perm)
}

// GetObjectURL always returns "" for a disk backend; it has no URL
// concept.
func (b *Backend) GetObjectURL(context.Context, objectstore.LogicalObject, objectstore.Options) (string, error) {
	return "", nil
}

// GetStoreUsagePercent reports 100 * (blocks - available) / blocks for
// the filesystem backing FilesRoot.
func (b *Backend) GetStoreUsagePercent() (float64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(b.cfg.FilesRoot, &st); err != nil {
		return 0, objerr.IOErrorf(err, "statfs %s", b.cfg.FilesRoot)
	}
	if st.Blocks == 0 {
		return 0, nil
	}
	return 100 * float64(st.Blocks-st.Bavail) / float64(st.Blocks), nil
}

// Shutdown is a no-op for disk backends; there is no connection to
// close.
func (b *Backend) Shutdown() {}

// Describe reports this backend's configuration, recovered from the
// Python original's to_dict().
func (b *Backend) Describe() map[string]interface{} {
	return map[string]interface{}{
		"type":            b.StoreType(),
		"files_dir":       b.cfg.FilesRoot,
		"store_by":        b.cfg.StoreBy.String(),
		"check_old_style": b.cfg.CheckOldStyle,
	}
}

var _ objectstore.Backend = (*Backend)(nil)
