// Package server runs the TCP transport around the dispatcher: it accepts
// connections, decodes frames, and feeds each request through the middleware
// chain into dispatch.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (single goroutine reads frames)
//	  → for each request: go handleRequest (parallel processing)
//	    → Codec.Decode → Middleware Chain → Dispatcher.HandleMessage
//	      → zero or more responses → Codec.Encode → write frame
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bridge-rpc/codec"
	"bridge-rpc/dispatch"
	"bridge-rpc/message"
	"bridge-rpc/middleware"
	"bridge-rpc/protocol"
	"bridge-rpc/registry"
)

// Server owns the listener and the per-connection read loops. All routing
// decisions live in the dispatcher; the server only moves frames.
type Server struct {
	dispatcher    *dispatch.Dispatcher
	listener      net.Listener
	wg            sync.WaitGroup          // in-flight requests, drained on shutdown
	shutdown      atomic.Bool             // suppresses the Accept error caused by Close
	middlewares   []middleware.Middleware // applied in registration order
	handler       middleware.HandlerFunc  // middleware chain around the dispatcher
	registry      registry.Registry       // nil when discovery is disabled
	advertiseAddr string                  // address announced to the registry
	logger        *zap.Logger
}

func NewServer(d *dispatch.Dispatcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{dispatcher: d, logger: logger}
}

// Use registers a middleware. Middlewares run in the order they are added.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// Serve listens on the given address, optionally announces the dispatcher's
// services to the registry, and runs the Accept loop until Shutdown.
//
// advertiseAddr is the address written to the registry (e.g. "127.0.0.1:8080");
// it differs from the listen address because ":8080" is not routable.
// Pass a nil reg to skip discovery.
func (svr *Server) Serve(network, address string, advertiseAddr string, reg registry.Registry) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	svr.listener = listener

	// Build the chain once at startup. The innermost handler hands the
	// request to the dispatcher; the send function the middlewares see is
	// the frame writer installed per request in handleRequest.
	base := func(ctx context.Context, req *message.Request, send middleware.SendFunc) {
		svr.dispatcher.HandleMessage(ctx, dispatch.ConnFunc(send), req)
	}
	svr.handler = middleware.Chain(svr.middlewares...)(base)

	svr.advertiseAddr = advertiseAddr
	if reg != nil {
		svr.registry = reg
		instance := registry.ServiceInstance{
			Addr:     advertiseAddr,
			Services: svr.dispatcher.Services().ServiceNames(),
		}
		for _, name := range instance.Services {
			if err := reg.Register(name, instance, 10); err != nil {
				listener.Close()
				return fmt.Errorf("register %q: %w", name, err)
			}
		}
	}

	svr.logger.Info("server listening", zap.String("addr", listener.Addr().String()))

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Close() during shutdown surfaces here as an Accept error.
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		go svr.handleConn(conn)
	}
}

// handleConn reads frames from one connection. Reads are sequential (frame
// boundaries), but each request runs on its own goroutine so a slow promise
// never stalls the connection.
//
// The per-connection write mutex is shared by every request goroutine on the
// connection: a streaming request and a promise request may both be writing,
// and frames must not interleave.
func (svr *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	writeMu := &sync.Mutex{}
	for {
		header, body, err := protocol.Decode(conn)
		if err != nil {
			return // connection closed or unrecoverable framing error
		}

		if header.MsgType == protocol.MsgTypeHeartbeat {
			continue
		}

		// Register with the WaitGroup before the goroutine exists, so a
		// concurrent Shutdown cannot observe an empty group while this
		// request is still about to start.
		svr.wg.Add(1)
		go svr.handleRequest(header, body, conn, writeMu)
	}
}

// handleRequest decodes one request and runs it through the middleware chain.
// The send function it installs frames every response with the request's own
// id, so stream events and the promise reply all correlate on the peer side.
func (svr *Server) handleRequest(header *protocol.Header, body []byte, conn net.Conn, writeMu *sync.Mutex) {
	defer svr.wg.Done()

	c := codec.GetCodec(codec.CodecType(header.CodecType))
	req := message.Request{}
	if err := c.Decode(body, &req); err != nil {
		svr.logger.Warn("failed to decode request body",
			zap.Uint64("requestId", header.RequestID),
			zap.Error(err))
		return
	}

	send := func(resp *message.Response) error {
		payload, err := c.Encode(resp)
		if err != nil {
			return err
		}
		replyHeader := protocol.Header{
			CodecType: header.CodecType,
			MsgType:   protocol.MsgTypeResponse,
			RequestID: resp.ID,
			BodyLen:   uint32(len(payload)),
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return protocol.Encode(conn, &replyHeader, payload)
	}

	svr.handler(context.Background(), &req, send)
}

// Shutdown performs graceful shutdown:
//  1. Deregister from the registry (peers stop routing here)
//  2. Set the shutdown flag, then close the listener
//  3. Wait for in-flight requests, up to the timeout
func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.registry != nil {
		for _, name := range svr.dispatcher.Services().ServiceNames() {
			svr.registry.Deregister(name, svr.advertiseAddr)
		}
	}

	// Flag before Close, so Serve reads it when Accept fails.
	svr.shutdown.Store(true)
	svr.listener.Close()

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for ongoing requests to finish")
	}
}
