package usermedia

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
)

func TestSelectPrefersHighestPositiveOrderWithQuota(t *testing.T) {
	media := []objectstore.PluggedMedium{
		{ID: "pos1", Order: 1, Quota: 1000, Usage: 900},
		{ID: "neg1", Order: -1, Quota: 1000, Usage: 0},
	}
	medium, useDefault, err := Select(media, nil, 0, false)
	require.NoError(t, err)
	assert.False(t, useDefault)
	require.NotNil(t, medium)
	assert.Equal(t, "pos1", medium.ID)
}

// After the preferred medium fails, the resolver must reroute to the
// order=-1 fallback medium rather than exclude it (see the discrepancy
// note in Select's doc comment).
func TestSelectFallsThroughToNegativeOneAfterFailure(t *testing.T) {
	media := []objectstore.PluggedMedium{
		{ID: "pos1", Order: 1, Quota: 1000, Usage: 900},
		{ID: "neg1", Order: -1, Quota: 1000, Usage: 0},
	}
	failedOrder := 1
	medium, useDefault, err := Select(media, &failedOrder, 0, false)
	require.NoError(t, err)
	assert.False(t, useDefault)
	require.NotNil(t, medium)
	assert.Equal(t, "neg1", medium.ID)
}

func TestSelectCrossesZeroToInstanceDefaultWhenQuotaAvailable(t *testing.T) {
	media := []objectstore.PluggedMedium{
		{ID: "pos1", Order: 1, Quota: 1000, Usage: 1000},
		{ID: "neg1", Order: -1, Quota: 1000, Usage: 0},
	}
	_, useDefault, err := Select(media, nil, 1, true)
	require.NoError(t, err)
	assert.True(t, useDefault)
}

func TestSelectReturnsQuotaExceededWhenNothingQualifies(t *testing.T) {
	media := []objectstore.PluggedMedium{
		{ID: "pos1", Order: 1, Quota: 1000, Usage: 1000},
	}
	_, _, err := Select(media, nil, 1, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, objerr.QuotaExceeded))
}

func TestSelectEmptyMediaUsesDefault(t *testing.T) {
	_, useDefault, err := Select(nil, nil, 0, true)
	require.NoError(t, err)
	assert.True(t, useDefault)
}

type stubBackend struct {
	objectstore.Backend
	fail bool
	name string
}

func (s *stubBackend) Exists(context.Context, objectstore.LogicalObject, objectstore.Options) (bool, error) {
	if s.fail {
		return false, errors.New("unavailable: " + s.name)
	}
	return true, nil
}

func withMedia(media ...objectstore.PluggedMedium) *objectstore.BasicObject {
	return &objectstore.BasicObject{ID: 1, HasID: true, MediaList: media}
}

func TestDispatchFallsThroughToDefault(t *testing.T) {
	failing := &stubBackend{fail: true, name: "failing"}
	def := &stubBackend{name: "default"}
	r := NewResolver(def, func(m objectstore.PluggedMedium) (objectstore.Backend, error) {
		return failing, nil
	}, nil, nil)
	obj := withMedia(objectstore.PluggedMedium{ID: "m1", Order: 1, Quota: 100})

	ok, err := Dispatch(context.Background(), r, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Exists(ctx, obj, objectstore.Options{})
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDispatchPrefersFirstWorkingMedium(t *testing.T) {
	working := &stubBackend{name: "working"}
	def := &stubBackend{name: "default"}
	var used string
	r := NewResolver(def, func(m objectstore.PluggedMedium) (objectstore.Backend, error) {
		used = m.ID
		return working, nil
	}, nil, nil)
	obj := withMedia(objectstore.PluggedMedium{ID: "m1", Order: 1, Quota: 100})

	_, err := Dispatch(context.Background(), r, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Exists(ctx, obj, objectstore.Options{})
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", used)
}

func TestDispatchRetriesLowerOrderMediumOnFailure(t *testing.T) {
	preferred := &stubBackend{name: "preferred", fail: true}
	fallback := &stubBackend{name: "fallback"}
	backends := map[string]objectstore.Backend{"pos1": preferred, "neg1": fallback}
	def := &stubBackend{name: "default", fail: true}

	r := NewResolver(def, func(m objectstore.PluggedMedium) (objectstore.Backend, error) {
		return backends[m.ID], nil
	}, func(objectstore.LogicalObject) bool { return false }, nil)

	obj := withMedia(
		objectstore.PluggedMedium{ID: "pos1", Order: 1, Quota: 1000, Usage: 900},
		objectstore.PluggedMedium{ID: "neg1", Order: -1, Quota: 1000, Usage: 0},
	)

	ok, err := Dispatch(context.Background(), r, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Exists(ctx, obj, objectstore.Options{})
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJobContextSkipsMedia(t *testing.T) {
	def := &stubBackend{name: "default"}
	called := false
	r := NewResolver(def, func(m objectstore.PluggedMedium) (objectstore.Backend, error) {
		called = true
		return def, nil
	}, nil, nil)
	obj := &objectstore.BasicObject{ID: 1, HasID: true, JobContext: true, MediaList: []objectstore.PluggedMedium{{ID: "m1", Order: 1, Quota: 100}}}

	require.False(t, r.Applies(obj))
	_, err := Dispatch(context.Background(), r, obj, func(ctx context.Context, b objectstore.Backend) (bool, error) {
		return b.Exists(ctx, obj, objectstore.Options{})
	})
	require.NoError(t, err)
	assert.False(t, called)
}
