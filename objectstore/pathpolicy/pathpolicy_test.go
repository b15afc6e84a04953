package pathpolicy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scioflow/objectstore/objectstore"
)

func withID(id int64) *objectstore.BasicObject {
	return &objectstore.BasicObject{ID: id, HasID: true}
}

func TestShard(t *testing.T) {
	cases := map[int64]string{
		0:       "000",
		1:       "000",
		999:     "000",
		1000:    "001/000",
		1234:    "001/234",
		1234567: "001/234/567",
	}
	for id, want := range cases {
		assert.Equal(t, want, Shard(id), "id=%d", id)
	}
}

func TestBuildSimple(t *testing.T) {
	params := Params{FilesRoot: "/files"}
	p, err := Build(withID(1), objectstore.Options{}, params)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "/000/dataset_1.dat"))
	assert.True(t, strings.HasPrefix(p, "/files"))
}

func TestBuildDeepShard(t *testing.T) {
	params := Params{FilesRoot: "/files"}
	p, err := Build(withID(1234567), objectstore.Options{}, params)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "/001/234/567/dataset_1234567.dat"))
}

func TestBuildAltName(t *testing.T) {
	params := Params{FilesRoot: "/files"}
	p, err := Build(withID(1), objectstore.Options{AltName: "x.dat"}, params)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "/000/x.dat"))

	_, err = Build(withID(1), objectstore.Options{AltName: "../escape"}, params)
	require.Error(t, err)
}

func TestBuildExtraDirEscapeRejected(t *testing.T) {
	params := Params{FilesRoot: "/files"}
	_, err := Build(withID(1), objectstore.Options{ExtraDir: "../escape"}, params)
	require.Error(t, err)
}

func TestBuildObjDirAndExtraDirAtRoot(t *testing.T) {
	params := Params{FilesRoot: "/files"}
	p, err := Build(withID(5), objectstore.Options{ObjDir: true, ExtraDir: "job_work", ExtraDirAtRoot: true, DirOnly: true}, params)
	require.NoError(t, err)
	assert.Equal(t, "/files/job_work/000/5", p)
}

func TestBuildExtraDirAfterShardByDefault(t *testing.T) {
	params := Params{FilesRoot: "/files"}
	p, err := Build(withID(5), objectstore.Options{ExtraDir: "temp", DirOnly: true}, params)
	require.NoError(t, err)
	assert.Equal(t, "/files/000/temp", p)
}

func TestBuildMissingIdentityFailsUnlessDirOnly(t *testing.T) {
	params := Params{FilesRoot: "/files"}
	_, err := Build(&objectstore.BasicObject{}, objectstore.Options{}, params)
	require.Error(t, err)

	p, err := Build(&objectstore.BasicObject{}, objectstore.Options{DirOnly: true}, params)
	require.NoError(t, err)
	assert.Equal(t, "/files/000", p)
}

func TestBuildOldStyle(t *testing.T) {
	params := Params{FilesRoot: "/files", OldStyle: true}
	p, err := Build(withID(1), objectstore.Options{}, params)
	require.NoError(t, err)
	assert.Equal(t, "/files/dataset_1.dat", p)
}

func TestBuildBaseDir(t *testing.T) {
	params := Params{FilesRoot: "/files", ExtraDirs: map[string]string{"job_work": "/jobs"}}
	p, err := Build(withID(1), objectstore.Options{BaseDir: "job_work"}, params)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "/jobs/"))
}

func TestBuildIsAbsoluteAndDeterministic(t *testing.T) {
	params := Params{FilesRoot: "/files"}
	for _, id := range []int64{0, 1, 999, 1000, 999999} {
		a, err := Build(withID(id), objectstore.Options{}, params)
		require.NoError(t, err)
		b, err := Build(withID(id), objectstore.Options{}, params)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.True(t, strings.HasPrefix(a, "/files"))
	}
}
