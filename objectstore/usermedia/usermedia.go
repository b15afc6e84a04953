// Package usermedia implements the per-user storage resolution Galaxy's
// original calls "plugged media": a user can register their own storage
// locations, each with a quota, ordered against the instance's own
// default store, and have their data routed there instead of
// instance-wide disk or cloud storage.
package usermedia

import (
	"context"
	"sort"
	"sync"

	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
)

// BackendFactory constructs the concrete Backend for a plugged medium,
// dispatching on its Category (LOCAL -> disk, S3/AZURE -> cloud). Hosts
// supply this at construction time since only they know credential and
// staging configuration per category. Passing the whole PluggedMedium
// value, rather than some categories getting a list and others a single
// medium, keeps the lookup shape uniform across categories.
type BackendFactory func(objectstore.PluggedMedium) (objectstore.Backend, error)

// InstanceQuota reports whether the instance-wide store still has quota
// available for obj. The object store core has no visibility into the
// host's user/quota database, so this is supplied by the host; a nil
// func is treated as "always has quota",
// matching the original's own bookkeeping living entirely in Galaxy's
// model layer rather than the object store.
type InstanceQuota func(obj objectstore.LogicalObject) bool

// DatasetSize reports the size in bytes an operation should reserve
// against a plugged medium's quota. A nil func preserves the default of
// always passing 0.
type DatasetSize func(obj objectstore.LogicalObject) int64

// Resolver selects, and lazily constructs, the backend a given object's
// plugged media should route through, walking the quota-aware selection
// algorithm below.
type Resolver struct {
	def           objectstore.Backend
	factory       BackendFactory
	instanceQuota InstanceQuota
	datasetSize   DatasetSize

	mu    sync.Mutex
	cache map[string]objectstore.Backend
}

// NewResolver builds a Resolver. def is the instance-wide default
// backend, used when an object has no plugged media, when the selection
// algorithm crosses zero with instance quota still available, or when
// every plugged medium fails and the instance still has quota (without
// instance quota, that case returns QuotaExceeded). instanceQuota and
// datasetSize may be nil
// to take their documented defaults.
func NewResolver(def objectstore.Backend, factory BackendFactory, instanceQuota InstanceQuota, datasetSize DatasetSize) *Resolver {
	return &Resolver{def: def, factory: factory, instanceQuota: instanceQuota, datasetSize: datasetSize, cache: map[string]objectstore.Backend{}}
}

func (r *Resolver) enoughQuotaOnInstance(obj objectstore.LogicalObject) bool {
	if r.instanceQuota == nil {
		return true
	}
	return r.instanceQuota(obj)
}

func (r *Resolver) sizeOf(obj objectstore.LogicalObject) int64 {
	if r.datasetSize == nil {
		return 0
	}
	return r.datasetSize(obj)
}

// Select implements the quota-aware selection algorithm: sort media
// ascending by order, start a cursor at fromOrder-1 (or
// the highest order present, if fromOrder is nil), and walk from the
// highest order downward. A medium qualifies once usage+size <= quota.
// Crossing from the preferred (order > 0) into the fallback (order < 0)
// tier returns "use the instance default" early if the instance still
// has quota.
//
// The system this was modeled on applies an off-by-one to the
// fallback-tier comparison in one code path, excluding order == -1
// exactly (`from_order <= order < -1`) while its own documented intent
// and test coverage expect an order == -1 fallback medium to be
// selected. This implementation uses order < 0, not order < -1, so a
// fallback medium at exactly order == -1 is reachable.
func Select(media []objectstore.PluggedMedium, fromOrder *int, size int64, enoughQuotaOnInstance bool) (*objectstore.PluggedMedium, bool, error) {
	if len(media) == 0 {
		return nil, true, nil
	}
	sorted := make([]objectstore.PluggedMedium, len(media))
	copy(sorted, media)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	cursor := sorted[len(sorted)-1].Order
	if fromOrder != nil {
		cursor = *fromOrder - 1
	}

	crossedZero := false
	for i := len(sorted) - 1; i >= 0; i-- {
		m := sorted[i]
		if m.Order > cursor {
			continue
		}
		if m.Order > 0 {
			if m.Usage+size <= m.Quota {
				picked := m
				return &picked, false, nil
			}
			continue
		}
		if !crossedZero {
			crossedZero = true
			if enoughQuotaOnInstance {
				return nil, true, nil
			}
		}
		if m.Order < 0 && m.Usage+size <= m.Quota {
			picked := m
			return &picked, false, nil
		}
	}
	if !enoughQuotaOnInstance {
		return nil, false, objerr.QuotaExceededf("no plugged medium has quota remaining and the instance store is also exhausted")
	}
	return nil, true, nil
}

func (r *Resolver) backendFor(m objectstore.PluggedMedium) (objectstore.Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.cache[m.ID]; ok {
		return b, nil
	}
	b, err := r.factory(m)
	if err != nil {
		return nil, err
	}
	r.cache[m.ID] = b
	return b, nil
}

// Applies reports whether obj should be routed through this resolver at
// all: it must carry plugged media and must not be a job-context marker
// (job working directories always use instance storage regardless of
// the user's media list).
func (r *Resolver) Applies(obj objectstore.LogicalObject) bool {
	return !obj.IsJobContext() && len(obj.Media()) > 0
}

// Dispatch runs attempt against obj's media, implementing the retry
// state machine: at most 1+len(media) picks, each
// selected by Select; a failing pick lowers the cursor to strictly below
// the failed medium's order and re-selects. Success on any pick (plugged
// medium or, once selection crosses to "use instance default", the
// resolver's own default backend) returns immediately.
func Dispatch[T any](ctx context.Context, r *Resolver, obj objectstore.LogicalObject, attempt func(context.Context, objectstore.Backend) (T, error)) (T, error) {
	var zero T
	if !r.Applies(obj) {
		return attempt(ctx, r.def)
	}
	media := obj.Media()
	maxAttempts := 1 + len(media)
	enoughQuota := r.enoughQuotaOnInstance(obj)
	size := r.sizeOf(obj)

	var fromOrder *int
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		medium, useDefault, err := Select(media, fromOrder, size, enoughQuota)
		if err != nil {
			return zero, err
		}

		var b objectstore.Backend
		if useDefault {
			b = r.def
		} else {
			b, err = r.backendFor(*medium)
			if err != nil {
				lastErr = err
				o := medium.Order
				fromOrder = &o
				continue
			}
		}

		v, err := attempt(ctx, b)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if useDefault {
			// Nothing lower than the instance default to retry.
			return zero, err
		}
		o := medium.Order
		fromOrder = &o
	}
	return zero, lastErr
}

// PreferredBackend reports which backend obj's next write would use,
// without performing any I/O: the highest-priority plugged medium that
// currently has quota, or the instance default.
func (r *Resolver) PreferredBackend(obj objectstore.LogicalObject) (objectstore.Backend, error) {
	if !r.Applies(obj) {
		return r.def, nil
	}
	medium, useDefault, err := Select(obj.Media(), nil, r.sizeOf(obj), r.enoughQuotaOnInstance(obj))
	if err != nil {
		return nil, err
	}
	if useDefault {
		return r.def, nil
	}
	return r.backendFor(*medium)
}
