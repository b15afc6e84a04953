// Package composite implements the compound stores built from other
// Backend values: a predicate dispatcher, a weighted-random distributor,
// an ordered-fallback hierarchy, and the background monitor that keeps
// the distributor's weights honest against live capacity.
package composite

import (
	"context"
	"sync"

	"github.com/scioflow/objectstore/objectstore"
	"github.com/scioflow/objectstore/usermedia"
)

// Member names one backend participating in a composite store.
// MaxPercent, if nonzero, overrides CapacityMonitor's global cap for
// this member specifically (its own maxPercentFull, falling back to the
// monitor's globalMaxPercentFull).
type Member struct {
	ID         string
	Backend    objectstore.Backend
	Weight     int
	MaxPercent float64
}

func shutdownAll(members []Member) {
	for _, m := range members {
		m.Backend.Shutdown()
	}
}

// describeAll collects each member's Describe() output, keyed by ID, for
// a composite's own Describe().
func describeAll(members []Member) map[string]interface{} {
	out := make(map[string]interface{}, len(members))
	for _, m := range members {
		out[m.ID] = objectstore.Describe(m.Backend)
	}
	return out
}

// sessionHook lets a composite store persist a chosen backend id against
// an object, independent of any particular ORM; Factory wires a concrete
// implementation per host.
type sessionHook interface {
	Add(obj objectstore.LogicalObject)
}

type noopSession struct{}

func (noopSession) Add(objectstore.LogicalObject) {}

var _ sessionHook = noopSession{}

// guarded protects a mutable value (DistributedStore's member list
// snapshot) from concurrent CapacityMonitor updates with a read-write
// mutex.
type guarded[T any] struct {
	mu    sync.RWMutex
	value T
}

func (g *guarded[T]) get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

func (g *guarded[T]) set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

// mediaRoute runs the plugged-media delegation check shared by every
// composite store: before a store applies its own placement policy
// (DistributedStore's weighted pick) or read order
// (HierarchicalStore's ordered scan, NestedDispatcher's route
// predicates), check whether obj carries
// plugged media and is not a job-context marker; if so, the whole
// operation is delegated to the Resolver instead. routed is false when
// mg is nil or doesn't apply to obj, meaning the caller should fall
// through to its own logic.
func mediaRoute[T any](ctx context.Context, mg *usermedia.Resolver, obj objectstore.LogicalObject, attempt func(context.Context, objectstore.Backend) (T, error)) (result T, routed bool, err error) {
	if mg == nil || !mg.Applies(obj) {
		return result, false, nil
	}
	v, err := usermedia.Dispatch(ctx, mg, obj, attempt)
	return v, true, err
}
