package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	jsonrpc2ws "github.com/sourcegraph/jsonrpc2/websocket"

	"github.com/TimelordUK/novelreader/internal/protocol"
)

// WebsocketPath is where ServeWebsocket accepts connections
const WebsocketPath = "/ws"

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Server owns the connections of every rendering context and settings
// surface. Each connection is registered with the hub so it receives
// broadcasts for as long as it stays open.
type Server struct {
	dispatcher *Dispatcher
	hub        *Hub

	mu        sync.Mutex
	listeners []net.Listener
	servers   []*http.Server
	conns     map[*jsonrpc2.Conn]struct{}
	closed    bool
}

// NewServer creates a server dispatching to d and registering connections
// with hub
func NewServer(d *Dispatcher, hub *Hub) *Server {
	return &Server{
		dispatcher: d,
		hub:        hub,
		conns:      make(map[*jsonrpc2.Conn]struct{}),
	}
}

// Serve accepts connections on l until l is closed or ctx is done
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if err := s.track(l); err != nil {
		return err
	}
	log.Infof("listening on %s %s", l.Addr().Network(), l.Addr())

	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	for {
		c, err := l.Accept()
		if err != nil {
			if s.isClosed() || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		log.Debugf("new connection from %s", c.RemoteAddr())
		s.ServeConn(ctx, c)
	}
}

// ServeConn serves a single stream connection
func (s *Server) ServeConn(ctx context.Context, c net.Conn) *jsonrpc2.Conn {
	return s.ServeStream(ctx, jsonrpc2.NewBufferedStream(c, jsonrpc2.VSCodeObjectCodec{}))
}

// ServeStream serves an already framed object stream. Requests are handled
// concurrently; the connection is dropped from the hub when it closes.
func (s *Server) ServeStream(ctx context.Context, stream jsonrpc2.ObjectStream) *jsonrpc2.Conn {
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(s.handle)))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return conn
	}
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	id := s.hub.Add(connListener{conn: conn})
	go func() {
		<-conn.DisconnectNotify()
		s.hub.Remove(id)
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		log.Debugf("connection %s closed", id)
	}()
	return conn
}

// WebsocketHandler upgrades HTTP requests to JSON-RPC over websocket
func (s *Server) WebsocketHandler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warningf("websocket upgrade failed: %s", err)
			return
		}
		s.ServeStream(ctx, jsonrpc2ws.NewObjectStream(ws))
	})
}

// ServeWebsocket serves the websocket endpoint on l until ctx is done
func (s *Server) ServeWebsocket(ctx context.Context, l net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(WebsocketPath, s.WebsocketHandler(ctx))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.servers = append(s.servers, srv)
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { srv.Close() })
	defer stop()

	log.Infof("websocket endpoint on ws://%s%s", l.Addr(), WebsocketPath)
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops every listener and drops every connection
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listeners := s.listeners
	servers := s.servers
	conns := make([]*jsonrpc2.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	for _, srv := range servers {
		if err := srv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range conns {
		c.Close()
	}
	return errors.Join(errs...)
}

func (s *Server) handle(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	if req.Notif {
		// nothing to answer
		return nil, nil
	}
	if req.Method != protocol.MethodMessage {
		log.Noticef("unknown method %q", req.Method)
		return protocol.Fail(fmt.Errorf("%w: method %q", ErrUnknownAction, req.Method)), nil
	}
	return s.dispatcher.DispatchRaw(ctx, req.Params), nil
}

func (s *Server) track(l net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		l.Close()
		return net.ErrClosed
	}
	s.listeners = append(s.listeners, l)
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// connListener forwards broadcasts to one connection as notifications
type connListener struct {
	conn *jsonrpc2.Conn
}

func (l connListener) Deliver(ctx context.Context, n protocol.Notification) error {
	return l.conn.Notify(ctx, n.Action, n)
}
