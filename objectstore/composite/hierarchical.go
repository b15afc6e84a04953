package composite

import (
	"context"

	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
	"github.com/scioflow/objectstore/usermedia"
)

// HierarchicalStore presents an ordered chain of backends: every write
// goes to the first (primary) member, while reads try each member in
// order and return the first one that has the object. This models promoting an object through successively slower,
// cheaper tiers without copying it between them up front.
type HierarchicalStore struct {
	members []Member
	media   *usermedia.Resolver
}

// NewHierarchicalStore builds a HierarchicalStore. members[0] is the
// primary, writable tier; the rest are read-only fallbacks, checked in
// order.
func NewHierarchicalStore(members []Member) *HierarchicalStore {
	return &HierarchicalStore{members: members}
}

// SetMediaResolver installs the per-user plugged-media router, checked
// before the hierarchy's own write/read order on every operation.
func (h *HierarchicalStore) SetMediaResolver(r *usermedia.Resolver) { h.media = r }

func (h *HierarchicalStore) primary() objectstore.Backend {
	return h.members[0].Backend
}

func (h *HierarchicalStore) owning(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (objectstore.Backend, bool) {
	for _, m := range h.members {
		if ok, err := m.Backend.Exists(ctx, obj, opts); err == nil && ok {
			return m.Backend, true
		}
	}
	return nil, false
}

func (h *HierarchicalStore) Exists(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Exists(ctx, obj, opts)
	}); routed {
		return v, err
	}
	_, ok := h.owning(ctx, obj, opts)
	return ok, nil
}

func (h *HierarchicalStore) Ready(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Ready(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, ok := h.owning(ctx, obj, opts)
	if !ok {
		return false, nil
	}
	return b.Ready(ctx, obj, opts)
}

// Create delegates to UserMediaResolver first when obj carries plugged
// media; otherwise it always writes through the primary tier.
func (h *HierarchicalStore) Create(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) error {
	if _, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (struct{}, error) {
		return struct{}{}, b.Create(ctx, obj, opts)
	}); routed {
		return err
	}
	return h.primary().Create(ctx, obj, opts)
}

func (h *HierarchicalStore) Empty(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Empty(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, ok := h.owning(ctx, obj, opts)
	if !ok {
		return true, nil
	}
	return b.Empty(ctx, obj, opts)
}

func (h *HierarchicalStore) Size(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (int64, error) {
	if v, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (int64, error) {
		return b.Size(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, ok := h.owning(ctx, obj, opts)
	if !ok {
		return 0, nil
	}
	return b.Size(ctx, obj, opts)
}

// Delete removes the object from whichever tier currently holds it, not
// just the primary.
func (h *HierarchicalStore) Delete(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (bool, error) {
	if v, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Delete(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, ok := h.owning(ctx, obj, opts)
	if !ok {
		return false, nil
	}
	return b.Delete(ctx, obj, opts)
}

func (h *HierarchicalStore) GetData(ctx context.Context, obj objectstore.LogicalObject, start, count int64, opts objectstore.Options) ([]byte, error) {
	if v, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) ([]byte, error) {
		return b.GetData(ctx, obj, start, count, opts)
	}); routed {
		return v, err
	}
	b, ok := h.owning(ctx, obj, opts)
	if !ok {
		return nil, objerr.NotFoundf("object %s not found in any hierarchical tier", obj.ClassName())
	}
	return b.GetData(ctx, obj, start, count, opts)
}

func (h *HierarchicalStore) GetFilename(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if v, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (string, error) {
		return b.GetFilename(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, ok := h.owning(ctx, obj, opts)
	if !ok {
		return "", objerr.NotFoundf("object %s not found in any hierarchical tier", obj.ClassName())
	}
	return b.GetFilename(ctx, obj, opts)
}

// UpdateFromFile always writes through the primary tier when media
// routing doesn't apply; stale copies in lower tiers are left in place,
// matching the original's behavior of not eagerly invalidating them.
func (h *HierarchicalStore) UpdateFromFile(ctx context.Context, obj objectstore.LogicalObject, sourcePath string, opts objectstore.Options) error {
	if _, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (struct{}, error) {
		return struct{}{}, b.UpdateFromFile(ctx, obj, sourcePath, opts)
	}); routed {
		return err
	}
	return h.primary().UpdateFromFile(ctx, obj, sourcePath, opts)
}

func (h *HierarchicalStore) GetObjectURL(ctx context.Context, obj objectstore.LogicalObject, opts objectstore.Options) (string, error) {
	if v, routed, err := mediaRoute(ctx, h.media, obj, func(ctx context.Context, b objectstore.Backend) (string, error) {
		return b.GetObjectURL(ctx, obj, opts)
	}); routed {
		return v, err
	}
	b, ok := h.owning(ctx, obj, opts)
	if !ok {
		return "", objerr.NotFoundf("object %s not found in any hierarchical tier", obj.ClassName())
	}
	return b.GetObjectURL(ctx, obj, opts)
}

func (h *HierarchicalStore) GetStoreUsagePercent() (float64, error) {
	return h.primary().GetStoreUsagePercent()
}

func (h *HierarchicalStore) Shutdown() { shutdownAll(h.members) }

func (h *HierarchicalStore) StoreType() string { return "hierarchical" }

func (h *HierarchicalStore) Describe() map[string]interface{} {
	return map[string]interface{}{
		"type":    h.StoreType(),
		"members": describeAll(h.members),
	}
}

var _ objectstore.Backend = (*HierarchicalStore)(nil)
