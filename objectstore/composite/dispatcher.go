package composite

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/scioflow/objectstore/objectstore"
	"github.com/scioflow/objectstore/usermedia"
)

// Route decides whether a member backend should handle obj.
type Route func(obj objectstore.LogicalObject) bool

type routedMember struct {
	Member
	route Route
}

// NestedDispatcher routes each call to the first member whose Route
// matches obj, falling back to a default backend when none match. It is
// a general nested-backend-selection primitive for children that apply
// to disjoint subsets of objects; objconfig's Factory does not build it,
// so hosts construct it directly.
type NestedDispatcher struct {
	members []routedMember
	def     objectstore.Backend
	media   *usermedia.Resolver
	// concurrentScan is recorded at construction. Routing is by
	// predicate only: no operation scans members for the object.
	concurrentScan int
}

// NewNestedDispatcher builds a dispatcher. def is used when no route
// matches; members are not scanned for the object.
func NewNestedDispatcher(def objectstore.Backend, concurrentScan int) *NestedDispatcher {
	return &NestedDispatcher{def: def, concurrentScan: concurrentScan}
}

// SetMediaResolver installs the per-user plugged-media router, checked
// before route predicates on every operation.
func (d *NestedDispatcher) SetMediaResolver(r *usermedia.Resolver) { d.media = r }

// AddRoute registers a member backend checked, in registration order,
// after any earlier-registered route and before the default backend.
// The first route whose predicate matches an object wins.
func (d *NestedDispatcher) AddRoute(id string, backend objectstore.Backend, route Route) {
	d.members = append(d.members, routedMember{Member: Member{ID: id, Backend: backend}, route: route})
}

func (d *NestedDispatcher) resolve(obj objectstore.LogicalObject) objectstore.Backend {
	for _, m := range d.members {
		if m.route(obj) {
			return m.Backend
		}
	}
	return d.def
}

func (d *NestedDispatcher) allMembers() []Member {
	all := make([]Member, 0, len(d.members)+1)
	for _, m := range d.members {
		all = append(all, m.Member)
	}
	if d.def != nil {
		all = append(all, Member{ID: "default", Backend: d.def})
	}
	return all
}

func (d *NestedDispatcher) Exists(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Exists(ctx, obj, opts)
	}); routed {
		return v, err
	}
	return d.resolve(obj).Exists(ctx, obj, opts)
}

func (d *NestedDispatcher) Ready(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Ready(ctx, obj, opts)
	}); routed {
		return v, err
	}
	return d.resolve(obj).Ready(ctx, obj, opts)
}

func (d *NestedDispatcher) Create(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) error {
	if _, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (struct{}, error) {
		return struct{}{}, b.Create(ctx, obj, opts)
	}); routed {
		return err
	}
	return d.resolve(obj).Create(ctx, obj, opts)
}

func (d *NestedDispatcher) Empty(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Empty(ctx, obj, opts)
	}); routed {
		return v, err
	}
	return d.resolve(obj).Empty(ctx, obj, opts)
}

func (d *NestedDispatcher) Size(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (int64, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (int64, error) {
		return b.Size(ctx, obj, opts)
	}); routed {
		return v, err
	}
	return d.resolve(obj).Size(ctx, obj, opts)
}

func (d *NestedDispatcher) Delete(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Delete(ctx, obj, opts)
	}); routed {
		return v, err
	}
	return d.resolve(obj).Delete(ctx, obj, opts)
}

func (d *NestedDispatcher) GetData(ctx context.Context, obj objectstore.LogicalObject, start, count int64, opts objectstore.Options) ([]byte, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) ([]byte, error) {
		return b.GetData(ctx, obj, start, count, opts)
	}); routed {
		return v, err
	}
	return d.resolve(obj).GetData(ctx, obj, start, count, opts)
}

func (d *NestedDispatcher) GetFilename(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (string, error) {
		return b.GetFilename(ctx, obj, opts)
	}); routed {
		return v, err
	}
	return d.resolve(obj).GetFilename(ctx, obj, opts)
}

func (d *NestedDispatcher) UpdateFromFile(ctx context.Context, obj objectstore.LogicalObject, sourcePath string, opts objectstore.Options) error {
	if _, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (struct{}, error) {
		return struct{}{}, b.UpdateFromFile(ctx, obj, sourcePath, opts)
	}); routed {
		return err
	}
	return d.resolve(obj).UpdateFromFile(ctx, obj, sourcePath, opts)
}

func (d *NestedDispatcher) GetObjectURL(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (string, error) {
		return b.GetObjectURL(ctx, obj, opts)
	}); routed {
		return v, err
	}
	return d.resolve(obj).GetObjectURL(ctx, obj, opts)
}

// GetStoreUsagePercent reports the maximum usage across every member, so
// a dispatcher is reported as full as soon as any one route is.
func (d *NestedDispatcher) GetStoreUsagePercent() (float64, error) {
	var max float64
	for _, m := range d.allMembers() {
		pct, err := m.Backend.GetStoreUsagePercent()
		if err != nil {
			continue
		}
		if pct > max {
			max = pct
		}
	}
	return max, nil
}

func (d *NestedDispatcher) Shutdown() { shutdownAll(d.allMembers()) }

func (d *NestedDispatcher) StoreType() string { return "nested" }

func (d *NestedDispatcher) Describe() map[string]interface{} {
	return map[string]interface{}{
		"type":    d.StoreType(),
		"members": describeAll(d.allMembers()),
	}
}

// scanConcurrently probes every member backend's Exists concurrently,
// at most bound at a time (bound <= 0 probes all members at once), and
// returns the id of the first member to report the object present.
// DistributedStore uses it as its fallback scan when an object's owning
// backend id is unknown or stale.
func scanConcurrently(ctx context.Context, members []Member, bound int, obj objectstore.LogicalObject, opts objectstore.Options) (string, bool) {
	if bound <= 0 {
		bound = len(members)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bound)
	found := make(chan string, len(members))
	for _, m := range members {
		m := m
		g.Go(func() error {
			ok, err := m.Backend.Exists(gctx, obj, opts)
			if err == nil && ok {
				select {
				case found <- m.ID:
				default:
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	select {
	case id := <-found:
		return id, true
	default:
		return "", false
	}
}

var _ objectstore.Backend = (*NestedDispatcher)(nil)
