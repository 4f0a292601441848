package dispatch

import (
	"fmt"
	"sync"

	"bridge-rpc/message"
	"bridge-rpc/stream"
	"bridge-rpc/track"
)

// subscribe wires an observable result to the connection. The subscription
// is reserved in the object registry before the producer is attached, so a
// disposal racing the first emission always finds the entry; the gate inside
// streamSubscription then guarantees nothing is forwarded after disposal or
// a terminal event, even if the producer keeps pushing.
func (d *Dispatcher) subscribe(conn Conn, id uint64, span track.Span, elem string, obs stream.Observable) {
	sub := &streamSubscription{d: d, conn: conn, id: id, span: span, elem: elem}

	if err := d.services.objects.AddSubscription(id, sub); err != nil {
		d.fail(conn, id, span, err)
		return
	}
	sub.bind(obs.Subscribe(sub))
}

// streamSubscription is both the Observer attached to the producer and the
// Subscription handle held by the object registry. Events are marshalled and
// sent under its lock: marshalling of value N completes, and its message is
// written, before value N+1 begins, which is the stream ordering guarantee.
type streamSubscription struct {
	d    *Dispatcher
	conn Conn
	id   uint64
	span track.Span
	elem string

	mu       sync.Mutex
	upstream stream.Subscription
	closed   bool
}

func (s *streamSubscription) OnNext(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	wire, err := s.d.services.types.Marshal(s.elem, v)
	if err != nil {
		// A marshal failure mid-stream is the stream's terminal error,
		// not a crash: report it and tear the subscription down.
		s.terminate(fmt.Errorf("%w: stream value: %v", ErrMarshal, err))
		return
	}
	s.d.send(s.conn, message.NewStreamNext(s.id, wire))
}

func (s *streamSubscription) OnCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.d.send(s.conn, message.NewStreamCompleted(s.id))
	s.d.services.objects.RemoveSubscription(s.id)
	s.span.OnSuccess()
}

func (s *streamSubscription) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.terminate(err)
}

// terminate is called with s.mu held and s.closed still false.
func (s *streamSubscription) terminate(err error) {
	s.closed = true
	s.d.send(s.conn, message.NewError(s.id, err))
	s.d.services.objects.RemoveSubscription(s.id)
	s.span.OnError(err)
	if s.upstream != nil {
		// Async: the producer may be delivering this very event under its
		// own lock, and cancelling it synchronously could deadlock.
		go s.upstream.Unsubscribe()
	}
}

// Unsubscribe implements stream.Subscription for the registry: a peer
// disposal closes the gate, then cancels the producer. Once the gate is
// closed no event is forwarded, even one already queued in the producer.
func (s *streamSubscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	upstream := s.upstream
	s.mu.Unlock()

	if upstream != nil {
		upstream.Unsubscribe()
	}
}

// bind attaches the producer-side cancel handle after Subscribe returns. If
// a disposal already closed the gate in the meantime, cancel immediately.
func (s *streamSubscription) bind(upstream stream.Subscription) {
	s.mu.Lock()
	s.upstream = upstream
	closed := s.closed
	s.mu.Unlock()

	if closed && upstream != nil {
		upstream.Unsubscribe()
	}
}
