package stream

import "sync"

// Source is an Observable for local producers: the implementation pushes
// values with Next/Complete/Error, and whichever observer is subscribed
// receives them synchronously in push order. Values pushed before Subscribe
// are buffered and flushed on subscribe, so a producer may start emitting as
// soon as it is created.
//
// A Source supports one subscriber at a time and terminates exactly once:
// after Complete or Error, further pushes are dropped.
type Source struct {
	mu      sync.Mutex
	obs     Observer
	done    bool
	pending []event
}

type event struct {
	kind eventKind
	val  any
	err  error
}

type eventKind int

const (
	evNext eventKind = iota
	evCompleted
	evError
)

func NewSource() *Source {
	return &Source{}
}

// Next pushes one value. Dropped after termination.
func (s *Source) Next(v any) {
	s.push(event{kind: evNext, val: v})
}

// Complete terminates the stream normally.
func (s *Source) Complete() {
	s.push(event{kind: evCompleted})
}

// Error terminates the stream with err.
func (s *Source) Error(err error) {
	s.push(event{kind: evError, err: err})
}

// push forwards under the lock so emission order is the observation order
// and no event can slip past an Unsubscribe already in progress.
func (s *Source) push(ev event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	if ev.kind != evNext {
		s.done = true
	}
	if s.obs == nil {
		s.pending = append(s.pending, ev)
		return
	}
	deliver(s.obs, ev)
}

// Subscribe attaches the observer, flushing any buffered events first. The
// returned subscription detaches the observer; the producer side keeps
// accepting (and dropping) pushes afterwards.
func (s *Source) Subscribe(o Observer) Subscription {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.obs = o
	for _, ev := range pending {
		deliver(o, ev)
	}
	s.mu.Unlock()

	return SubscriptionFunc(func() {
		s.mu.Lock()
		s.obs = nil
		s.done = true
		s.mu.Unlock()
	})
}

func deliver(o Observer, ev event) {
	switch ev.kind {
	case evNext:
		o.OnNext(ev.val)
	case evCompleted:
		o.OnCompleted()
	case evError:
		o.OnError(ev.err)
	}
}
