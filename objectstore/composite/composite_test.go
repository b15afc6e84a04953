package composite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scioflow/objectstore/objectstore"
)

// fakeBackend is an in-memory Backend for composite-store unit tests.
type fakeBackend struct {
	data  map[int64][]byte
	usage float64
}

func newFake() *fakeBackend { return &fakeBackend{data: map[int64][]byte{}} }

func idOf(obj objectstore.LogicalObject) int64 {
	id, _ := obj.ObjectID()
	return id
}

func (f *fakeBackend) Exists(_ context.Context, obj objectstore.LogicalObject, _ objectstore.Options) (bool, error) {
	_, ok := f.data[idOf(obj)]
	return ok, nil
}
func (f *fakeBackend) Ready(ctx context.Context, obj objectstore.LogicalObject, o objectstore.Options) (bool, error) {
	return f.Exists(ctx, obj, o)
}
func (f *fakeBackend) Create(_ context.Context, obj objectstore.LogicalObject, _ objectstore.Options) error {
	if _, ok := f.data[idOf(obj)]; !ok {
		f.data[idOf(obj)] = []byte{}
	}
	return nil
}
func (f *fakeBackend) Empty(ctx context.Context, obj objectstore.LogicalObject, o objectstore.Options) (bool, error) {
	n, err := f.Size(ctx, obj, o)
	return n == 0, err
}
func (f *fakeBackend) Size(_ context.Context, obj objectstore.LogicalObject, _ objectstore.Options) (int64, error) {
	return int64(len(f.data[idOf(obj)])), nil
}
func (f *fakeBackend) Delete(_ context.Context, obj objectstore.LogicalObject, _ objectstore.Options) (bool, error) {
	if _, ok := f.data[idOf(obj)]; !ok {
		return false, nil
	}
	delete(f.data, idOf(obj))
	return true, nil
}
func (f *fakeBackend) GetData(_ context.Context, obj objectstore.LogicalObject, start, count int64, _ objectstore.Options) ([]byte, error) {
	d := f.data[idOf(obj)]
	if count < 0 {
		return d[start:], nil
	}
	return d[start : start+count], nil
}
func (f *fakeBackend) GetFilename(_ context.Context, obj objectstore.LogicalObject, _ objectstore.Options) (string, error) {
	return "", nil
}
func (f *fakeBackend) UpdateFromFile(_ context.Context, obj objectstore.LogicalObject, _ string, _ objectstore.Options) error {
	f.data[idOf(obj)] = []byte("content")
	return nil
}
func (f *fakeBackend) GetObjectURL(context.Context, objectstore.LogicalObject, objectstore.Options) (string, error) {
	return "", nil
}
func (f *fakeBackend) GetStoreUsagePercent() (float64, error) { return f.usage, nil }
func (f *fakeBackend) Shutdown()                              {}

func withID(id int64) *objectstore.BasicObject {
	return &objectstore.BasicObject{ID: id, HasID: true}
}

func TestDistributedStoreCreatePersistsID(t *testing.T) {
	a, b := newFake(), newFake()
	store := NewDistributedStore([]Member{
		{ID: "a", Backend: a, Weight: 1},
		{ID: "b", Backend: b, Weight: 1},
	}, nil, 0)

	obj := withID(1)
	require.NoError(t, store.Create(context.Background(), obj, objectstore.Options{}))
	id, ok := obj.ObjectStoreID()
	require.True(t, ok)
	assert.Contains(t, []string{"a", "b"}, id)
}

type recordingSession struct {
	added []objectstore.LogicalObject
}

func (s *recordingSession) Add(obj objectstore.LogicalObject) { s.added = append(s.added, obj) }

func TestDistributedStoreFallbackScan(t *testing.T) {
	a, b := newFake(), newFake()
	obj := withID(2)
	b.data[2] = []byte("x")
	session := &recordingSession{}
	store := NewDistributedStore([]Member{
		{ID: "a", Backend: a, Weight: 1},
		{ID: "b", Backend: b, Weight: 1},
	}, session, 0)

	exists, err := store.Exists(context.Background(), obj, objectstore.Options{})
	require.NoError(t, err)
	assert.True(t, exists)

	id, ok := obj.ObjectStoreID()
	require.True(t, ok)
	assert.Equal(t, "b", id)
	require.Len(t, session.added, 1)
	assert.Same(t, obj, session.added[0])
}

func TestHierarchicalStoreWritesPrimaryReadsFallback(t *testing.T) {
	primary, secondary := newFake(), newFake()
	obj := withID(3)
	secondary.data[3] = []byte("legacy")

	store := NewHierarchicalStore([]Member{
		{ID: "primary", Backend: primary},
		{ID: "secondary", Backend: secondary},
	})

	exists, err := store.Exists(context.Background(), obj, objectstore.Options{})
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Create(context.Background(), withID(4), objectstore.Options{}))
	assert.Contains(t, primary.data, int64(4))
	assert.NotContains(t, secondary.data, int64(4))
}

func TestNestedDispatcherRoutesByPredicate(t *testing.T) {
	jobs, datasets := newFake(), newFake()
	d := NewNestedDispatcher(datasets, 0)
	d.AddRoute("jobs", jobs, func(obj objectstore.LogicalObject) bool { return obj.IsJobContext() })

	jobObj := &objectstore.BasicObject{ID: 1, HasID: true, JobContext: true}
	require.NoError(t, d.Create(context.Background(), jobObj, objectstore.Options{}))
	assert.Contains(t, jobs.data, int64(1))
	assert.NotContains(t, datasets.data, int64(1))

	require.NoError(t, d.Create(context.Background(), withID(2), objectstore.Options{}))
	assert.Contains(t, datasets.data, int64(2))
}

func TestCapacityMonitorExcludesFullMembers(t *testing.T) {
	full, ok := newFake(), newFake()
	full.usage = 99
	ok.usage = 10

	members := []Member{{ID: "full", Backend: full, Weight: 1}, {ID: "ok", Backend: ok, Weight: 1}}
	store := NewDistributedStore(members, nil, 0)
	monitor := NewCapacityMonitor(members, 90, 10*time.Millisecond, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor.Start(ctx)
	defer monitor.Stop()

	require.Eventually(t, func() bool {
		live := store.members.get()
		for _, m := range live {
			if m.ID == "full" {
				return false
			}
		}
		return len(live) == 1
	}, time.Second, 5*time.Millisecond)
}
