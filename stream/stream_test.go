package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	values    []any
	completed int
	errs      []error
}

func (r *recordingObserver) OnNext(v any)      { r.values = append(r.values, v) }
func (r *recordingObserver) OnCompleted()      { r.completed++ }
func (r *recordingObserver) OnError(err error) { r.errs = append(r.errs, err) }

func TestDeferredResolvesOnce(t *testing.T) {
	d := NewDeferred()
	d.Resolve(7)
	d.Resolve(8)
	d.Reject(errors.New("late"))

	v, err := d.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestDeferredReject(t *testing.T) {
	d := NewDeferred()
	want := errors.New("boom")
	d.Reject(want)

	_, err := d.Await(context.Background())
	require.ErrorIs(t, err, want)
}

func TestAwaitRespectsContext(t *testing.T) {
	d := NewDeferred()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGo(t *testing.T) {
	p := Go(func() (any, error) { return "done", nil })
	v, err := p.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "done", v)
}

func TestSourceOrdering(t *testing.T) {
	s := NewSource()
	obs := &recordingObserver{}
	s.Subscribe(obs)

	for i := 1; i <= 5; i++ {
		s.Next(i)
	}
	s.Complete()

	require.Equal(t, []any{1, 2, 3, 4, 5}, obs.values)
	require.Equal(t, 1, obs.completed)
	require.Empty(t, obs.errs)
}

func TestSourceBuffersBeforeSubscribe(t *testing.T) {
	s := NewSource()
	s.Next("early")
	s.Complete()

	obs := &recordingObserver{}
	s.Subscribe(obs)

	require.Equal(t, []any{"early"}, obs.values)
	require.Equal(t, 1, obs.completed)
}

func TestSourceDropsAfterTerminal(t *testing.T) {
	s := NewSource()
	obs := &recordingObserver{}
	s.Subscribe(obs)

	s.Next(1)
	s.Complete()
	s.Next(2)
	s.Complete()
	s.Error(errors.New("late"))

	require.Equal(t, []any{1}, obs.values)
	require.Equal(t, 1, obs.completed)
	require.Empty(t, obs.errs)
}

func TestUnsubscribeSuppressesEvents(t *testing.T) {
	s := NewSource()
	obs := &recordingObserver{}
	sub := s.Subscribe(obs)

	s.Next(1)
	sub.Unsubscribe()
	s.Next(2)
	s.Complete()

	require.Equal(t, []any{1}, obs.values)
	require.Zero(t, obs.completed)
}

func TestErrObservable(t *testing.T) {
	want := errors.New("immediate")
	obs := &recordingObserver{}
	ErrObservable(want).Subscribe(obs)

	require.Empty(t, obs.values)
	require.Equal(t, []error{want}, obs.errs)
}

func TestJust(t *testing.T) {
	obs := &recordingObserver{}
	Just("a", "b").Subscribe(obs)

	require.Equal(t, []any{"a", "b"}, obs.values)
	require.Equal(t, 1, obs.completed)
}
