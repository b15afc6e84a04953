package objconfig

import (
	"time"

	"github.com/scioflow/objectstore/cloudstore"
	"github.com/scioflow/objectstore/composite"
	"github.com/scioflow/objectstore/diskstore"
	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
	"github.com/scioflow/objectstore/objlog"
	"github.com/scioflow/objectstore/usermedia"
)

// PluggedMediaCredentials carries the host-wide credentials used to
// build backends for S3/Azure plugged media. Individual PluggedMedium
// values only carry a path (bucket/container name, or a local directory
// for LOCAL media); per-user credential management is the host's
// concern; credential acquisition stays the cloud adapter's job, not
// this factory's.
type PluggedMediaCredentials struct {
	S3Endpoint            string
	S3AccessKeyID         string
	S3SecretAccessKey     string
	S3Secure              bool
	AzureConnectionString string
}

// NewPluggedMediaFactory builds a usermedia.BackendFactory: a LOCAL
// medium becomes a DiskBackend rooted at the medium's own path, S3/AZURE
// media become the matching cloudstore adapter. Both cloud categories
// read the same m.Path/m.ID shape off the PluggedMedium value, keeping
// the LOCAL and S3/AZURE branches reading the same shape of per-medium
// config rather than diverging.
func NewPluggedMediaFactory(creds PluggedMediaCredentials, storeBy objectstore.StoreBy, logger objlog.Logger) usermedia.BackendFactory {
	return func(m objectstore.PluggedMedium) (objectstore.Backend, error) {
		switch m.Category {
		case objectstore.MediaCategoryLocal:
			return diskstore.New(diskstore.Config{FilesRoot: m.Path, StoreBy: storeBy}, logger), nil
		case objectstore.MediaCategoryS3:
			return cloudstore.NewS3Backend(cloudstore.S3Config{
				Endpoint:        creds.S3Endpoint,
				AccessKeyID:     creds.S3AccessKeyID,
				SecretAccessKey: creds.S3SecretAccessKey,
				Secure:          creds.S3Secure,
				Bucket:          m.Path,
				StoreBy:         storeBy,
			}, nil, logger)
		case objectstore.MediaCategoryAzure:
			return cloudstore.NewAzureBlobBackend(cloudstore.AzureBlobConfig{
				ConnectionString: creds.AzureConnectionString,
				Container:        m.Path,
				StoreBy:          storeBy,
			}, nil, logger)
		default:
			return nil, objerr.InvalidObjectf("unrecognized plugged medium category %v for medium %s", m.Category, m.ID)
		}
	}
}

// ObjectSession lets a built store persist per-object state (currently,
// which DistributedStore member owns an object) against whatever
// persistence layer the host uses.
type ObjectSession interface {
	Add(obj objectstore.LogicalObject)
	Flush()
}

type sessionAdapter struct{ s ObjectSession }

func (a sessionAdapter) Add(obj objectstore.LogicalObject) { a.s.Add(obj) }

// Factory builds a Backend tree from a parsed Document. It is the Go
// analogue of the original's type_to_object_store_class dispatch table.
type Factory struct {
	Session          ObjectSession
	Logger           objlog.Logger
	CapacityInterval time.Duration
	ScanBound        int

	// Media, when set, is attached to the root composite store the
	// factory builds (DistributedStore or HierarchicalStore), so
	// per-user plugged media take precedence over
	// the store's own placement and read order. Hosts build it from
	// NewPluggedMediaFactory plus their own quota callbacks.
	Media *usermedia.Resolver
}

// mediaAware is implemented by every composite store type that can have
// a plugged-media router attached.
type mediaAware interface {
	SetMediaResolver(*usermedia.Resolver)
}

// Build constructs the root Backend described by doc.
func (f *Factory) Build(doc Document) (objectstore.Backend, error) {
	var (
		store objectstore.Backend
		err   error
	)
	switch doc.Type {
	case "distributed":
		store, err = f.buildDistributed(doc.Backends, doc.GlobalMaxPercent)
	case "hierarchical":
		store, err = f.buildHierarchical(doc.Backends)
	default:
		if len(doc.Backends) != 1 {
			return nil, f.unknownType(doc.Type)
		}
		store, err = f.buildOne(doc.Backends[0])
	}
	if err != nil {
		return nil, err
	}
	if f.Media != nil {
		if ma, ok := store.(mediaAware); ok {
			ma.SetMediaResolver(f.Media)
		}
	}
	return store, nil
}

func (f *Factory) logger() objlog.Logger {
	if f.Logger == nil {
		return objlog.Nop
	}
	return f.Logger
}

func (f *Factory) buildDistributed(backends []BackendDoc, globalMaxPercent float64) (objectstore.Backend, error) {
	members := make([]composite.Member, 0, len(backends))
	for _, bd := range backends {
		b, err := f.buildOne(bd)
		if err != nil {
			return nil, err
		}
		members = append(members, composite.Member{ID: bd.ID, Backend: b, Weight: weightOf(bd), MaxPercent: bd.MaxPercent})
	}
	var hook interface {
		Add(objectstore.LogicalObject)
	}
	if f.Session != nil {
		hook = sessionAdapter{f.Session}
	}
	store := composite.NewDistributedStore(members, hook, f.ScanBound)

	if composite.NeedsMonitor(members, globalMaxPercent) {
		monitor := composite.NewCapacityMonitor(members, globalMaxPercent, f.CapacityInterval, store, f.logger())
		monitor.Start(nil)
		store.SetCapacityMonitor(monitor)
	}
	return store, nil
}

func weightOf(bd BackendDoc) int {
	if bd.Weight > 0 {
		return bd.Weight
	}
	return 1
}

func (f *Factory) buildHierarchical(backends []BackendDoc) (objectstore.Backend, error) {
	members := make([]composite.Member, 0, len(backends))
	for _, bd := range backends {
		b, err := f.buildOne(bd)
		if err != nil {
			return nil, err
		}
		members = append(members, composite.Member{ID: bd.ID, Backend: b})
	}
	return composite.NewHierarchicalStore(members), nil
}

func (f *Factory) buildOne(bd BackendDoc) (objectstore.Backend, error) {
	switch bd.Type {
	case "disk":
		extras := map[string]string{}
		for _, e := range bd.ExtraDirs {
			extras[e.Type] = e.Path
		}
		return diskstore.New(diskstore.Config{
			FilesRoot:     bd.FilesDir,
			ExtraDirs:     extras,
			StoreBy:       storeByOf(bd.StoreBy),
			CheckOldStyle: bd.CheckOldStyle,
		}, f.logger()), nil
	case "aws_s3", "s3":
		return cloudstore.NewS3Backend(cloudstore.S3Config{
			Endpoint:        bd.Endpoint,
			AccessKeyID:     bd.AccessKeyID,
			SecretAccessKey: bd.SecretAccessKey,
			Secure:          bd.Secure,
			Bucket:          bd.Bucket,
			Prefix:          bd.Prefix,
			StoreBy:         storeByOf(bd.StoreBy),
		}, nil, f.logger())
	case "azure_blob":
		return cloudstore.NewAzureBlobBackend(cloudstore.AzureBlobConfig{
			ConnectionString: bd.ConnectionString,
			Container:        bd.Container,
			Prefix:           bd.Prefix,
			StoreBy:          storeByOf(bd.StoreBy),
		}, nil, f.logger())
	case "swift":
		return cloudstore.NewSwiftBackend(), nil
	case "irods":
		return cloudstore.NewIRODSBackend(), nil
	case "pithos":
		return cloudstore.NewPithosBackend(), nil
	case "distributed":
		return f.buildDistributed(bd.Backends, bd.GlobalMaxPercent)
	case "hierarchical":
		return f.buildHierarchical(bd.Backends)
	default:
		return nil, f.unknownType(bd.Type)
	}
}

// unknownType reports an unrecognized backend "type" value, mirroring
// the original's build_object_store_from_config: log the offending
// type, then fail construction instead of silently misrouting objects
// to the wrong adapter.
func (f *Factory) unknownType(t string) error {
	f.logger().Logf(objlog.ELevel.Error(), "unrecognized object store definition: type %q is not one of the known backend types", t)
	return objerr.InvalidObjectf("unrecognized object store type %q", t)
}

func storeByOf(s string) objectstore.StoreBy {
	if s == "uuid" {
		return objectstore.StoreByUUID
	}
	return objectstore.StoreByID
}
