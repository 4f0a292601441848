package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bridge-rpc/message"
	"bridge-rpc/schema"
	"bridge-rpc/stream"
	"bridge-rpc/track"
)

// Conn is the outbound half of the bridge channel: the dispatcher sends zero
// or more response messages on it per request. Implementations must be safe
// for concurrent Send from multiple request goroutines.
type Conn interface {
	Send(resp *message.Response) error
}

// ConnFunc adapts a send function into a Conn.
type ConnFunc func(resp *message.Response) error

func (f ConnFunc) Send(resp *message.Response) error { return f(resp) }

// Dispatcher routes inbound requests against the registration tables,
// invokes local code, and converts results into response messages.
//
// HandleMessage blocks until the request reaches a terminal non-streaming
// state (for streams: until the subscription is established), so callers run
// it on its own goroutine per request — a slow promise for request A must
// not delay request B.
type Dispatcher struct {
	services *ServiceRegistry
	tracker  track.Tracker
	logger   *zap.Logger
}

func NewDispatcher(services *ServiceRegistry, tracker track.Tracker, logger *zap.Logger) *Dispatcher {
	if tracker == nil {
		tracker = track.NopTracker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{services: services, tracker: tracker, logger: logger}
}

// Services exposes the registration tables (e.g. for publishing service
// names to a discovery registry).
func (d *Dispatcher) Services() *ServiceRegistry { return d.services }

// HandleMessage routes one inbound request. Every per-request failure is
// converted into a response addressed to the originating request id; none
// terminates the connection or touches other in-flight requests.
func (d *Dispatcher) HandleMessage(ctx context.Context, conn Conn, req *message.Request) {
	switch req.Kind {
	case message.KindFunctionCall:
		d.handleFunctionCall(ctx, conn, req)
	case message.KindMethodCall:
		d.handleMethodCall(ctx, conn, req)
	case message.KindNewObject:
		d.handleNewObject(ctx, conn, req)
	case message.KindDisposeObject:
		d.handleDisposeObject(conn, req)
	case message.KindDisposeObservable:
		d.handleDisposeObservable(req)
	default:
		span := d.tracker.Start("unknown:" + req.Kind)
		err := fmt.Errorf("%w: %q", ErrUnknownMessageType, req.Kind)
		d.fail(conn, req.ID, span, err)
	}
}

func (d *Dispatcher) handleFunctionCall(ctx context.Context, conn Conn, req *message.Request) {
	span := d.tracker.Start(req.Function)

	entry, err := d.services.LookupFunction(req.Function)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}

	args, err := d.unmarshalArgs(entry.Sig, req.Args)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}

	result, err := entry.Fn(ctx, args)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}
	d.routeResult(ctx, conn, req.ID, span, entry.Sig, result)
}

func (d *Dispatcher) handleMethodCall(ctx context.Context, conn Conn, req *message.Request) {
	iface, instance, err := d.services.objects.Lookup(req.ObjectID)
	if err != nil {
		span := d.tracker.Start("method:" + req.Method)
		d.fail(conn, req.ID, span, err)
		return
	}
	span := d.tracker.Start(iface + "/" + req.Method)

	entry, err := d.services.LookupInterface(iface)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}
	method, ok := entry.Methods[req.Method]
	if !ok {
		d.fail(conn, req.ID, span, fmt.Errorf("%w: %q.%q", ErrUnknownMethod, iface, req.Method))
		return
	}

	args, err := d.unmarshalArgs(method.Sig, req.Args)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}

	result, err := method.Fn(ctx, instance, args)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}
	d.routeResult(ctx, conn, req.ID, span, method.Sig, result)
}

func (d *Dispatcher) handleNewObject(ctx context.Context, conn Conn, req *message.Request) {
	span := d.tracker.Start("new:" + req.Interface)

	entry, err := d.services.LookupInterface(req.Interface)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}

	args, err := d.unmarshalArgs(entry.CtorSig, req.Args)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}

	instance, err := entry.New(ctx, args)
	if err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}

	// Marshalling the instance as its own reference type inserts it into
	// the object registry and yields the id the peer will hold.
	id, err := d.services.types.Marshal(req.Interface, instance)
	if err != nil {
		d.fail(conn, req.ID, span, fmt.Errorf("%w: %v", ErrMarshal, err))
		return
	}
	d.send(conn, message.NewPromiseResult(req.ID, id))
	span.OnSuccess()
}

func (d *Dispatcher) handleDisposeObject(conn Conn, req *message.Request) {
	iface, _, lookupErr := d.services.objects.Lookup(req.ObjectID)
	label := "dispose:unknown"
	if lookupErr == nil {
		label = "dispose:" + iface
	}
	span := d.tracker.Start(label)

	if err := d.services.objects.DisposeObject(req.ObjectID); err != nil {
		d.fail(conn, req.ID, span, err)
		return
	}
	// Disposal completes as a void-typed promise.
	d.send(conn, message.NewPromiseResult(req.ID, nil))
	span.OnSuccess()
}

// handleDisposeObservable cancels the stream started by the request whose id
// this message reuses. No reply is sent either way; a missing subscription
// is a desynchronization worth logging, not worth answering.
func (d *Dispatcher) handleDisposeObservable(req *message.Request) {
	span := d.tracker.Start("disposeObservable")
	if err := d.services.objects.DisposeSubscription(req.ID); err != nil {
		d.logger.Warn("dispose observable failed",
			zap.Uint64("requestId", req.ID),
			zap.Error(err))
		span.OnError(err)
		return
	}
	span.OnSuccess()
}

// routeResult converts the raw return value of a local invocation into
// outbound messages according to the declared return kind.
func (d *Dispatcher) routeResult(ctx context.Context, conn Conn, id uint64, span track.Span, sig schema.Signature, result any) {
	switch sig.Return {
	case schema.ReturnVoid:
		// No response; the span is the only success record.
		span.OnSuccess()

	case schema.ReturnPromise:
		p, ok := result.(stream.Promise)
		if !ok {
			p = stream.Failed(fmt.Errorf("%w: expected a deferred result, got %T", ErrTypeContract, result))
		}
		v, err := p.Await(ctx)
		if err != nil {
			d.fail(conn, id, span, err)
			return
		}
		wire, err := d.services.types.Marshal(sig.Elem, v)
		if err != nil {
			d.fail(conn, id, span, fmt.Errorf("%w: result: %v", ErrMarshal, err))
			return
		}
		d.send(conn, message.NewPromiseResult(id, wire))
		span.OnSuccess()

	case schema.ReturnObservable:
		obs, ok := result.(stream.Observable)
		if !ok {
			obs = stream.ErrObservable(fmt.Errorf("%w: expected an observable result, got %T", ErrTypeContract, result))
		}
		d.subscribe(conn, id, span, sig.Elem, obs)

	default:
		d.fail(conn, id, span, fmt.Errorf("%w: return kind %v", ErrTypeContract, sig.Return))
	}
}

func (d *Dispatcher) unmarshalArgs(sig schema.Signature, raw []any) ([]any, error) {
	if len(raw) != len(sig.Args) {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", ErrMarshal, len(sig.Args), len(raw))
	}
	args := make([]any, len(raw))
	for i, typeName := range sig.Args {
		v, err := d.services.types.Unmarshal(typeName, raw[i])
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d (%s): %v", ErrMarshal, i, typeName, err)
		}
		args[i] = v
	}
	return args, nil
}

func (d *Dispatcher) fail(conn Conn, id uint64, span track.Span, err error) {
	span.OnError(err)
	d.send(conn, message.NewError(id, err))
}

func (d *Dispatcher) send(conn Conn, resp *message.Response) {
	if err := conn.Send(resp); err != nil {
		d.logger.Warn("failed to send response",
			zap.Uint64("requestId", resp.ID),
			zap.Error(err))
	}
}
