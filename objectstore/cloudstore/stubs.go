package cloudstore

import (
	"context"
	"fmt"

	"github.com/scioflow/objectstore/objectstore"
)

// unimplementedBackend satisfies objectstore.Backend for providers the
// Python original supported (Swift, iRODS, Pithos) but for which no
// maintained client SDK was available to wire in. This stub exists so
// objconfig's factory dispatch table stays total over every type name
// the original config format accepts, and fails loudly rather than
// silently misrouting objects.
type unimplementedBackend struct {
	kind string
}

// NewSwiftBackend returns a stub for the "swift" store type.
func NewSwiftBackend() objectstore.Backend { return unimplementedBackend{kind: "swift"} }

// NewIRODSBackend returns a stub for the "irods" store type.
func NewIRODSBackend() objectstore.Backend { return unimplementedBackend{kind: "irods"} }

// NewPithosBackend returns a stub for the "pithos" store type.
func NewPithosBackend() objectstore.Backend { return unimplementedBackend{kind: "pithos"} }

func (u unimplementedBackend) err() error {
	return fmt.Errorf("object store type %q is recognized but not implemented in this build", u.kind)
}

func (u unimplementedBackend) StoreType() string { return u.kind }

func (u unimplementedBackend) Exists(context.Context, objectstore.LogicalObject, objectstore.Options) (bool, error) {
	return false, u.err()
}
func (u unimplementedBackend) Ready(context.Context, objectstore.LogicalObject, objectstore.Options) (bool, error) {
	return false, u.err()
}
func (u unimplementedBackend) Create(context.Context, objectstore.LogicalObject, objectstore.Options) error {
	return u.err()
}
func (u unimplementedBackend) Empty(context.Context, objectstore.LogicalObject, objectstore.Options) (bool, error) {
	return false, u.err()
}
func (u unimplementedBackend) Size(context.Context, objectstore.LogicalObject, objectstore.Options) (int64, error) {
	return 0, u.err()
}
func (u unimplementedBackend) Delete(context.Context, objectstore.LogicalObject, objectstore.Options) (bool, error) {
	return false, u.err()
}
func (u unimplementedBackend) GetData(context.Context, objectstore.LogicalObject, int64, int64, objectstore.Options) ([]byte, error) {
	return nil, u.err()
}
func (u unimplementedBackend) GetFilename(context.Context, objectstore.LogicalObject, objectstore.Options) (string, error) {
	return "", u.err()
}
func (u unimplementedBackend) UpdateFromFile(context.Context, objectstore.LogicalObject, string, objectstore.Options) error {
	return u.err()
}
func (u unimplementedBackend) GetObjectURL(context.Context, objectstore.LogicalObject, objectstore.Options) (string, error) {
	return "", u.err()
}
func (u unimplementedBackend) GetStoreUsagePercent() (float64, error) { return 0, u.err() }
func (u unimplementedBackend) Shutdown()                              {}

func (u unimplementedBackend) Describe() map[string]interface{} {
	return map[string]interface{}{"type": u.kind, "implemented": false}
}

var _ objectstore.Backend = unimplementedBackend{}
