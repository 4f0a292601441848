package objects

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"bridge-rpc/stream"
)

type disposable struct {
	disposed int
}

func (d *disposable) Dispose() { d.disposed++ }

func TestAddAndGet(t *testing.T) {
	r := NewRegistry()

	inst := &disposable{}
	id := r.Add("Counter", inst)
	require.NotZero(t, id)

	got, err := r.Get(id)
	require.NoError(t, err)
	require.Same(t, inst, got)

	iface, got, err := r.Lookup(id)
	require.NoError(t, err)
	require.Equal(t, "Counter", iface)
	require.Same(t, inst, got)
}

func TestIDsAreUniqueAndNeverReused(t *testing.T) {
	r := NewRegistry()

	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id := r.Add("Counter", i)
		require.False(t, seen[id], "id %d reused", id)
		seen[id] = true
		require.NoError(t, r.DisposeObject(id))
	}
}

func TestConcurrentAdd(t *testing.T) {
	r := NewRegistry()

	var mu sync.Mutex
	seen := make(map[uint64]bool)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := r.Add("Counter", i)
				mu.Lock()
				require.False(t, seen[id])
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 400, r.ObjectCount())
}

func TestDisposeObject(t *testing.T) {
	r := NewRegistry()

	inst := &disposable{}
	id := r.Add("Counter", inst)

	require.NoError(t, r.DisposeObject(id))
	require.Equal(t, 1, inst.disposed)

	// Second disposal is a protocol error, not a silent no-op
	err := r.DisposeObject(id)
	require.ErrorIs(t, err, ErrUnknownObject)
	require.Equal(t, 1, inst.disposed)

	_, err = r.Get(id)
	require.ErrorIs(t, err, ErrUnknownObject)
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(99)
	require.ErrorIs(t, err, ErrUnknownObject)

	_, _, err = r.Lookup(99)
	require.ErrorIs(t, err, ErrUnknownObject)
}

func TestSubscriptionLifecycle(t *testing.T) {
	r := NewRegistry()

	cancelled := 0
	sub := stream.SubscriptionFunc(func() { cancelled++ })

	require.NoError(t, r.AddSubscription(7, sub))
	require.Equal(t, 1, r.SubscriptionCount())

	// Duplicate request id is an error
	err := r.AddSubscription(7, sub)
	require.ErrorIs(t, err, ErrDuplicateSubscription)

	// Natural completion: remove without cancelling
	r.RemoveSubscription(7)
	require.Zero(t, cancelled)
	require.Zero(t, r.SubscriptionCount())

	// Peer-driven disposal: cancel and remove
	require.NoError(t, r.AddSubscription(7, sub))
	require.NoError(t, r.DisposeSubscription(7))
	require.Equal(t, 1, cancelled)
	require.Zero(t, r.SubscriptionCount())

	err = r.DisposeSubscription(7)
	require.ErrorIs(t, err, ErrUnknownSubscription)
}
