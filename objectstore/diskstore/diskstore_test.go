package diskstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scioflow/objectstore/objectstore"
)

func newBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	root, err := os.MkdirTemp("", "diskstore-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })
	b := New(Config{FilesRoot: root}, nil)
	return b, root
}

func withID(id int64) *objectstore.BasicObject {
	return &objectstore.BasicObject{ID: id, HasID: true}
}

func TestCreateAndExists(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()
	obj := withID(1)

	exists, err := b.Exists(ctx, obj, objectstore.Options{})
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Create(ctx, obj, objectstore.Options{}))

	exists, err = b.Exists(ctx, obj, objectstore.Options{})
	require.NoError(t, err)
	assert.True(t, exists)

	// idempotent
	require.NoError(t, b.Create(ctx, obj, objectstore.Options{}))
}

func TestEmptyAndSize(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()
	obj := withID(2)
	require.NoError(t, b.Create(ctx, obj, objectstore.Options{}))

	empty, err := b.Empty(ctx, obj, objectstore.Options{})
	require.NoError(t, err)
	assert.True(t, empty)

	p, err := b.GetFilename(ctx, obj, objectstore.Options{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0644))

	size, err := b.Size(ctx, obj, objectstore.Options{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)
}

func TestGetDataAndUpdateFromFile(t *testing.T) {
	b, root := newBackend(t)
	ctx := context.Background()
	obj := withID(3)

	src := filepath.Join(root, "source.txt")
	require.NoError(t, os.WriteFile(src, []byte("abcdefgh"), 0644))

	require.NoError(t, b.UpdateFromFile(ctx, obj, src, objectstore.Options{Create: true}))

	data, err := b.GetData(ctx, obj, 0, -1, objectstore.Options{})
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", string(data))

	partial, err := b.GetData(ctx, obj, 2, 3, objectstore.Options{})
	require.NoError(t, err)
	assert.Equal(t, "cde", string(partial))
}

func TestUpdateFromFilePreservesSymlink(t *testing.T) {
	b, root := newBackend(t)
	ctx := context.Background()
	obj := withID(4)

	target := filepath.Join(root, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("linked"), 0644))
	link := filepath.Join(root, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	require.NoError(t, b.UpdateFromFile(ctx, obj, link, objectstore.Options{Create: true, PreserveSymlinks: true}))

	p, err := b.GetFilename(ctx, obj, objectstore.Options{})
	require.NoError(t, err)
	fi, err := os.Lstat(p)
	require.NoError(t, err)
	assert.True(t, fi.Mode()&os.ModeSymlink != 0)
	dest, err := os.Readlink(p)
	require.NoError(t, err)
	assert.Equal(t, target, dest)
}

func TestDelete(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()
	obj := withID(5)
	require.NoError(t, b.Create(ctx, obj, objectstore.Options{}))

	ok, err := b.Delete(ctx, obj, objectstore.Options{})
	require.NoError(t, err)
	assert.True(t, ok)

	exists, err := b.Exists(ctx, obj, objectstore.Options{})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteEntireDir(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()
	obj := withID(6)
	opts := objectstore.Options{ExtraDir: "job_work", ExtraDirAtRoot: true, DirOnly: true}
	require.NoError(t, b.Create(ctx, obj, opts))

	sub := objectstore.Options{ExtraDir: "job_work", ExtraDirAtRoot: true, DirOnly: true, EntireDir: true}
	ok, err := b.Delete(ctx, obj, sub)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetFilenameNotFound(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()
	_, err := b.GetFilename(ctx, withID(99), objectstore.Options{})
	require.Error(t, err)
}

func TestGetObjectURLEmpty(t *testing.T) {
	b, _ := newBackend(t)
	url, err := b.GetObjectURL(context.Background(), withID(1), objectstore.Options{})
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestDescribe(t *testing.T) {
	b, root := newBackend(t)
	d := b.Describe()
	assert.Equal(t, "disk", d["type"])
	assert.Equal(t, root, d["files_dir"])
}

func TestReadyAlwaysTrue(t *testing.T) {
	b, _ := newBackend(t)
	ready, err := b.Ready(context.Background(), withID(1), objectstore.Options{})
	require.NoError(t, err)
	assert.True(t, ready)
}
