// Package objects tracks the server side of remote-object identity: the
// mapping from peer-visible ids to live local instances, and the set of
// stream subscriptions currently held open on behalf of the peer.
//
// The registry is authoritative for remote-visible identity — an instance
// may be referenced elsewhere locally, but only ids present here resolve for
// the peer. Ids are process-unique and never reused after disposal, so a
// stale handle can never silently alias a newer object.
package objects

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"bridge-rpc/stream"
)

var (
	// ErrUnknownObject reports an id that is absent from the registry —
	// disposed, never created, or corrupted by the peer.
	ErrUnknownObject = errors.New("unknown object")
	// ErrUnknownSubscription reports a request id with no live stream.
	ErrUnknownSubscription = errors.New("unknown subscription")
	// ErrDuplicateSubscription reports a second live stream under one
	// request id.
	ErrDuplicateSubscription = errors.New("duplicate subscription")
)

// Disposer is implemented by instances that need cleanup when the peer
// disposes their handle.
type Disposer interface {
	Dispose()
}

type handle struct {
	iface    string
	instance any
}

// Registry owns the id→instance and request-id→subscription maps.
// All methods are safe for concurrent use; Add is additionally safe to call
// reentrantly while marshalling nested objects (it never invokes callbacks
// under its lock).
type Registry struct {
	mu      sync.RWMutex
	objects map[uint64]handle
	nextID  atomic.Uint64

	subsMu sync.Mutex
	subs   map[uint64]stream.Subscription
}

func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[uint64]handle),
		subs:    make(map[uint64]stream.Subscription),
	}
}

// Add stores the instance under a fresh id and returns it. The first id is
// 1, so 0 is never a live handle.
func (r *Registry) Add(iface string, instance any) uint64 {
	id := r.nextID.Add(1)

	r.mu.Lock()
	r.objects[id] = handle{iface: iface, instance: instance}
	r.mu.Unlock()

	return id
}

// Get resolves an id to its instance.
func (r *Registry) Get(id uint64) (any, error) {
	r.mu.RLock()
	h, ok := r.objects[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownObject, id)
	}
	return h.instance, nil
}

// Lookup resolves an id to its interface name and instance.
func (r *Registry) Lookup(id uint64) (string, any, error) {
	r.mu.RLock()
	h, ok := r.objects[id]
	r.mu.RUnlock()
	if !ok {
		return "", nil, fmt.Errorf("%w: id %d", ErrUnknownObject, id)
	}
	return h.iface, h.instance, nil
}

// DisposeObject removes the id and runs the instance's Disposer hook if it
// has one. Disposing an unknown id is an error, not a no-op — it signals
// that the peer's view of live handles has desynchronized from ours.
func (r *Registry) DisposeObject(id uint64) error {
	r.mu.Lock()
	h, ok := r.objects[id]
	if ok {
		delete(r.objects, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownObject, id)
	}
	if d, ok := h.instance.(Disposer); ok {
		d.Dispose()
	}
	return nil
}

// ObjectCount returns the number of live object handles.
func (r *Registry) ObjectCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// AddSubscription records a live stream under its originating request id.
// At most one subscription may be live per request id.
func (r *Registry) AddSubscription(requestID uint64, sub stream.Subscription) error {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	if _, ok := r.subs[requestID]; ok {
		return fmt.Errorf("%w: request %d", ErrDuplicateSubscription, requestID)
	}
	r.subs[requestID] = sub
	return nil
}

// RemoveSubscription drops the bookkeeping entry without cancelling the
// stream — used when the stream terminates on its own.
func (r *Registry) RemoveSubscription(requestID uint64) {
	r.subsMu.Lock()
	delete(r.subs, requestID)
	r.subsMu.Unlock()
}

// DisposeSubscription removes the entry and actively cancels the underlying
// stream — used when the peer unsubscribes before natural completion.
// The cancel runs outside the lock: an in-flight emission may be blocked on
// the subscription's own gate, and that gate is what suppresses anything
// emitted after the cancel wins.
func (r *Registry) DisposeSubscription(requestID uint64) error {
	r.subsMu.Lock()
	sub, ok := r.subs[requestID]
	if ok {
		delete(r.subs, requestID)
	}
	r.subsMu.Unlock()

	if !ok {
		return fmt.Errorf("%w: request %d", ErrUnknownSubscription, requestID)
	}
	sub.Unsubscribe()
	return nil
}

// SubscriptionCount returns the number of live stream subscriptions.
func (r *Registry) SubscriptionCount() int {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	return len(r.subs)
}
