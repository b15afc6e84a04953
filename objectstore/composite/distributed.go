package composite

import (
	"context"
	"math/rand"

	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
	"github.com/scioflow/objectstore/usermedia"
)

// DistributedStore spreads newly created objects across its members by
// weighted random choice, then remembers which member holds each object
// via LogicalObject.ObjectStoreID. Reads, sizing, and
// deletes of objects created before the store's current member set (or
// whose id was never persisted) fall back to a concurrent existence
// scan.
type DistributedStore struct {
	members   *guarded[[]Member]
	session   sessionHook
	scanBound int
	media     *usermedia.Resolver
	monitor   *CapacityMonitor
}

// SetMediaResolver installs the per-user plugged-media router. When set,
// every operation on an object carrying media (and not a job-context
// marker) is delegated to it instead of this store's own weighted
// placement or fallback scan.
func (d *DistributedStore) SetMediaResolver(r *usermedia.Resolver) { d.media = r }

// SetCapacityMonitor attaches the background capacity sweep owning this
// store's live weight sequence, so Shutdown stops it along with the
// store's members. A store built without a capacity cap has no monitor
// to attach.
func (d *DistributedStore) SetCapacityMonitor(m *CapacityMonitor) { d.monitor = m }

// NewDistributedStore builds a DistributedStore over members, each
// weighted by Member.Weight (zero treated as 1). session persists the
// chosen backend id on Create; pass nil to skip persistence (tests,
// or hosts without a session concept).
func NewDistributedStore(members []Member, session sessionHook, scanBound int) *DistributedStore {
	if session == nil {
		session = noopSession{}
	}
	g := &guarded[[]Member]{}
	g.set(members)
	return &DistributedStore{members: g, session: session, scanBound: scanBound}
}

// SetMembers atomically replaces the live weight sequence. Called by
// CapacityMonitor after each capacity sweep; never mutates in place so
// concurrent readers always see a fully consistent set.
func (d *DistributedStore) SetMembers(members []Member) {
	d.members.set(members)
}

func (d *DistributedStore) byID(id string) (objectstore.Backend, bool) {
	for _, m := range d.members.get() {
		if m.ID == id {
			return m.Backend, true
		}
	}
	return nil, false
}

func weightedPick(members []Member) (Member, bool) {
	total := 0
	for _, m := range members {
		w := m.Weight
		if w <= 0 {
			w = 1
		}
		total += w
	}
	if total == 0 {
		return Member{}, false
	}
	r := rand.Intn(total)
	for _, m := range members {
		w := m.Weight
		if w <= 0 {
			w = 1
		}
		if r < w {
			return m, true
		}
		r -= w
	}
	return members[len(members)-1], true
}

// PreferredBackendID reports obj's recorded member if it has one;
// otherwise it draws a member with the same weighted random pick Create
// uses, without creating anything. That draw is independent of the one a
// later Create makes. Recovered from the Python original's
// ObjectStorePopulator.
func (d *DistributedStore) PreferredBackendID(obj objectstore.LogicalObject) (string, bool) {
	if id, ok := obj.ObjectStoreID(); ok && id != "" {
		return id, true
	}
	m, ok := weightedPick(d.members.get())
	if !ok {
		return "", false
	}
	return m.ID, true
}

func (d *DistributedStore) resolve(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (objectstore.Backend, error) {
	if id, ok := obj.ObjectStoreID(); ok && id != "" {
		if b, ok := d.byID(id); ok {
			return b, nil
		}
	}
	members := d.members.get()
	if id, ok := scanConcurrently(ctx, members, d.scanBound, obj, opts); ok {
		if b, ok := d.byID(id); ok {
			obj.SetObjectStoreID(id)
			d.session.Add(obj)
			return b, nil
		}
	}
	return nil, objerr.NotFoundf("object %s is not present on any distributed store member", obj.ClassName())
}

func (d *DistributedStore) Exists(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Exists(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return false, nil
	}
	return b.Exists(ctx, obj, opts)
}

func (d *DistributedStore) Ready(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Ready(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return false, err
	}
	return b.Ready(ctx, obj, opts)
}

// Create delegates to the plugged-media resolver first
// when obj carries plugged media; otherwise it chooses a member by
// weighted random pick (unless the object already names one) and
// persists that choice via SetObjectStoreID.
func (d *DistributedStore) Create(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) error {
	if _, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (struct{}, error) {
		return struct{}{}, b.Create(ctx, obj, opts)
	}); routed {
		return err
	}
	members := d.members.get()
	var target Member
	if id, ok := obj.ObjectStoreID(); ok && id != "" {
		b, ok := d.byID(id)
		if !ok {
			return objerr.InvalidObjectf("object store id %q is not a known distributed store member", id)
		}
		target = Member{ID: id, Backend: b}
	} else {
		m, ok := weightedPick(members)
		if !ok {
			return objerr.InvalidObjectf("distributed store weight sequence is empty, no member available to create on")
		}
		target = m
		obj.SetObjectStoreID(target.ID)
		d.session.Add(obj)
	}
	return target.Backend.Create(ctx, obj, opts)
}

func (d *DistributedStore) Empty(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Empty(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return true, nil
	}
	return b.Empty(ctx, obj, opts)
}

func (d *DistributedStore) Size(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (int64, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (int64, error) {
		return b.Size(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return 0, nil
	}
	return b.Size(ctx, obj, opts)
}

func (d *DistributedStore) Delete(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Delete(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return false, nil
	}
	return b.Delete(ctx, obj, opts)
}

func (d *DistributedStore) GetData(ctx context.Context, obj objectstore.LogicalObject, start, count int64, opts objectstore.Options) ([]byte, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) ([]byte, error) {
		return b.GetData(ctx, obj, start, count, opts)
	}); routed {
		return v, err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return nil, err
	}
	return b.GetData(ctx, obj, start, count, opts)
}

func (d *DistributedStore) GetFilename(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (string, error) {
		return b.GetFilename(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return "", err
	}
	return b.GetFilename(ctx, obj, opts)
}

func (d *DistributedStore) UpdateFromFile(ctx context.Context, obj objectstore.LogicalObject, sourcePath string, opts objectstore.Options) error {
	if _, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (struct{}, error) {
		return struct{}{}, b.UpdateFromFile(ctx, obj, sourcePath, opts)
	}); routed {
		return err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return err
	}
	return b.UpdateFromFile(ctx, obj, sourcePath, opts)
}

func (d *DistributedStore) GetObjectURL(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if v, routed, err := mediaRoute(ctx, d.media, obj, func(ctx context.Context, b objectstore.Backend) (string, error) {
		return b.GetObjectURL(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, err := d.resolve(ctx, obj, opts)
	if err != nil {
		return "", err
	}
	return b.GetObjectURL(ctx, obj, opts)
}

func (d *DistributedStore) GetStoreUsagePercent() (float64, error) {
	var max float64
	for _, m := range d.members.get() {
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

// Shutdown stops the capacity monitor, if one is attached, then shuts
// down every member. Without this, a store built with a capacity cap
// would leak its monitor's ticking goroutine for the process lifetime.
func (d *DistributedStore) Shutdown() {
	if d.monitor != nil {
		d.monitor.Stop()
	}
	shutdownAll(d.members.get())
}

func (d *DistributedStore) StoreType() string { return "distributed" }

func (d *DistributedStore) Describe() map[string]interface{} {
	return map[string]interface{}{
		"type":    d.StoreType(),
		"members": describeAll(d.members.get()),
	}
}

var _ objectstore.Backend = (*DistributedStore)(nil)
