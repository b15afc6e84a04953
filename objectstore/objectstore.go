// Package objectstore is a uniform facade for persisting, retrieving,
// sizing, and deleting opaque binary datasets across heterogeneous
// storage backends (local disks, cloud blob services, distributed
// filesystems). It is the Go analogue of azcopy's storage-transfer-engine
// split between a thin orchestration layer and pluggable destination
// adapters, applied instead to per-object CRUD rather than bulk job
// transfer.
package objectstore

import "context"

// StoreBy selects which attribute of a LogicalObject is its identity key
// for path construction. Fixed per store at construction time.
type StoreBy uint8

const (
	StoreByID StoreBy = iota
	StoreByUUID
)

func (s StoreBy) String() string {
	if s == StoreByUUID {
		return "uuid"
	}
	return "id"
}

// LogicalObject is the input to every backend operation. It is
// deliberately a thin, backend-agnostic view over whatever domain type
// (dataset, job working directory, ...) the host application has; hosts
// adapt their own types to this interface rather than the object store
// depending on a concrete model package.
type LogicalObject interface {
	// ObjectID returns the integer identity key, and whether it is set.
	ObjectID() (int64, bool)
	// ObjectUUID returns the UUID identity key, and whether it is set.
	ObjectUUID() (string, bool)
	// ObjectStoreID returns the id of the backend that currently holds
	// (or should hold) this object's bytes, and whether it is set.
	ObjectStoreID() (string, bool)
	// SetObjectStoreID records the backend chosen for this object. Only
	// DistributedStore calls it: from Create, and from its other
	// operations when a fallback scan finds the object on a member.
	SetObjectStoreID(id string)
	// Media returns the caller's ordered plugged-media list, or nil if
	// none apply (instance storage only).
	Media() []PluggedMedium
	// IsJobContext reports whether this object is a job working
	// directory marker, which always routes to instance storage and
	// suppresses user-media routing regardless of Media().
	IsJobContext() bool
	// ClassName is used only in diagnostic messages.
	ClassName() string
}

// PluggedMedium is a user-scoped storage target with a quota, ordered
// against the instance default (order == 0).
type PluggedMedium struct {
	ID       string
	Category MediaCategory
	Path     string
	Order    int
	Quota    int64
	Usage    int64
}

// MediaCategory names the kind of backend a PluggedMedium resolves to.
type MediaCategory uint8

const (
	MediaCategoryLocal MediaCategory = iota
	MediaCategoryS3
	MediaCategoryAzure
)

func (c MediaCategory) String() string {
	switch c {
	case MediaCategoryS3:
		return "S3"
	case MediaCategoryAzure:
		return "AZURE"
	default:
		return "LOCAL"
	}
}

// Options carries every per-call modifier every operation accepts.
// Unknown/zero-value options are ignored by backends that don't
// interpret them; unknown keys are ignored.
type Options struct {
	BaseDir          string
	DirOnly          bool
	ExtraDir         string
	ExtraDirAtRoot   bool
	AltName          string
	ObjDir           bool
	EntireDir        bool
	PreserveSymlinks bool
	Create           bool
}

// Backend is the capability contract every concrete store (disk, cloud,
// or composite) must satisfy. Ready is the file_ready hook recovered
// from the Python original.
type Backend interface {
	Exists(ctx context.Context, obj LogicalObject, opts Options) (bool, error)
	Ready(ctx context.Context, obj LogicalObject, opts Options) (bool, error)
	Create(ctx context.Context, obj LogicalObject, opts Options) error
	Empty(ctx context.Context, obj LogicalObject, opts Options) (bool, error)
	Size(ctx context.Context, obj LogicalObject, opts Options) (int64, error)
	Delete(ctx context.Context, obj LogicalObject, opts Options) (bool, error)
	GetData(ctx context.Context, obj LogicalObject, start int64, count int64, opts Options) ([]byte, error)
	GetFilename(ctx context.Context, obj LogicalObject, opts Options) (string, error)
	UpdateFromFile(ctx context.Context, obj LogicalObject, sourcePath string, opts Options) error
	GetObjectURL(ctx context.Context, obj LogicalObject, opts Options) (string, error)
	GetStoreUsagePercent() (float64, error)
	Shutdown()
}

// Describable is implemented by backends that can report their own
// configuration for diagnostics, recovered from the Python original's
// to_dict(). It's optional: not every Backend needs to support
// introspection.
type Describable interface {
	Describe() map[string]interface{}
}

// Describe returns a best-effort diagnostic snapshot of a backend: its
// own Describe() output if it implements Describable, else just its Go
// type name. It never reconstructs a store; it only reports on one.
func Describe(b Backend) map[string]interface{} {
	if d, ok := b.(Describable); ok {
		return d.Describe()
	}
	return map[string]interface{}{"type": typeName(b)}
}

func typeName(b Backend) string {
	type namer interface{ StoreType() string }
	if n, ok := b.(namer); ok {
		return n.StoreType()
	}
	return "unknown"
}
