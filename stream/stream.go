// Package stream defines the two asynchronous result kinds a bridge callable
// can return: a Promise (single deferred value, settles exactly once) and an
// Observable (cancellable multi-value producer terminated by completion or
// error).
package stream

import (
	"context"
	"sync"
)

// Promise is a deferred single-value result. Await blocks until the promise
// settles or the context is cancelled.
type Promise interface {
	Await(ctx context.Context) (any, error)
}

// Deferred is the producer side of a Promise. The zero value is not usable;
// create one with NewDeferred. Resolve and Reject settle it exactly once —
// later calls are no-ops.
type Deferred struct {
	once sync.Once
	done chan struct{}
	val  any
	err  error
}

func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

func (d *Deferred) Resolve(v any) {
	d.once.Do(func() {
		d.val = v
		close(d.done)
	})
}

func (d *Deferred) Reject(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

func (d *Deferred) Await(ctx context.Context) (any, error) {
	select {
	case <-d.done:
		return d.val, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolved returns a promise already settled with v.
func Resolved(v any) Promise {
	d := NewDeferred()
	d.Resolve(v)
	return d
}

// Failed returns a promise already settled with err.
func Failed(err error) Promise {
	d := NewDeferred()
	d.Reject(err)
	return d
}

// Go runs fn on its own goroutine and returns the promise of its result.
func Go(fn func() (any, error)) Promise {
	d := NewDeferred()
	go func() {
		v, err := fn()
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(v)
	}()
	return d
}

// Observer receives stream events. OnNext is called once per value in
// emission order; exactly one of OnCompleted or OnError follows the last
// value and terminates the stream.
type Observer interface {
	OnNext(v any)
	OnCompleted()
	OnError(err error)
}

// Subscription cancels a live stream. After Unsubscribe returns, the
// producer must stop emitting to the observer.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a cancel function into a Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }

// Observable is a cancellable multi-value producer.
type Observable interface {
	Subscribe(o Observer) Subscription
}

// ErrObservable returns an observable that errors immediately on subscribe.
func ErrObservable(err error) Observable {
	return errObservable{err: err}
}

type errObservable struct{ err error }

func (e errObservable) Subscribe(o Observer) Subscription {
	o.OnError(e.err)
	return SubscriptionFunc(func() {})
}

// Just returns an observable that emits the given values and completes.
func Just(values ...any) Observable {
	return justObservable(values)
}

type justObservable []any

func (j justObservable) Subscribe(o Observer) Subscription {
	s := NewSource()
	sub := s.Subscribe(o)
	for _, v := range j {
		s.Next(v)
	}
	s.Complete()
	return sub
}
