package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	jsonrpc2ws "github.com/sourcegraph/jsonrpc2/websocket"

	"github.com/TimelordUK/novelreader/internal/config"
	"github.com/TimelordUK/novelreader/internal/protocol"
)

// Dialer opens a fresh object stream to the owning process
type Dialer func(ctx context.Context) (jsonrpc2.ObjectStream, error)

// NetDialer dials a unix or tcp socket
func NetDialer(network, address string) Dialer {
	return func(ctx context.Context) (jsonrpc2.ObjectStream, error) {
		var d net.Dialer
		c, err := d.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		return jsonrpc2.NewBufferedStream(c, jsonrpc2.VSCodeObjectCodec{}), nil
	}
}

// WebsocketDialer dials a websocket endpoint such as ws://127.0.0.1:7412/ws
func WebsocketDialer(url string) Dialer {
	return func(ctx context.Context) (jsonrpc2.ObjectStream, error) {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return jsonrpc2ws.NewObjectStream(ws), nil
	}
}

// Client sends messages to the owning process. A dropped connection is
// re-dialled on the next call; transport failures are retried per policy.
type Client struct {
	dial   Dialer
	policy RetryPolicy

	mu     sync.Mutex
	conn   *jsonrpc2.Conn
	closed bool
	done   chan struct{}

	subMu   sync.RWMutex
	subs    map[int]func(protocol.Notification)
	nextSub int
}

// NewClient creates a client. Nothing is dialled until the first call or
// Connect.
func NewClient(dial Dialer, policy RetryPolicy) *Client {
	return &Client{
		dial:   dial,
		policy: policy,
		done:   make(chan struct{}),
		subs:   make(map[int]func(protocol.Notification)),
	}
}

// NewClientFromConfig dials the daemon address from cfg
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(NetDialer(cfg.Daemon.Network, cfg.Daemon.Address), PolicyFromConfig(cfg.Retry))
}

// Connect dials eagerly so broadcasts start flowing before the first call
func (c *Client) Connect(ctx context.Context) error {
	return c.policy.Do(ctx, func(ctx context.Context) error {
		_, err := c.connection(ctx)
		return err
	})
}

// Send delivers msg and waits for its response. Only transport failures
// are retried; a {success:false} response is returned as is.
func (c *Client) Send(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
	var resp protocol.Response
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		conn, err := c.connection(ctx)
		if err != nil {
			return err
		}

		resp = protocol.Response{}
		err = conn.Call(ctx, protocol.MethodMessage, msg, &resp)
		if err == nil {
			return nil
		}

		var rpcErr *jsonrpc2.Error
		if errors.As(err, &rpcErr) {
			return Permanent(err)
		}
		c.drop(conn)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	})
	if err != nil {
		return protocol.Response{}, err
	}
	return resp, nil
}

// Call is Send with {success:false} turned into a RemoteError
func (c *Client) Call(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
	resp, err := c.Send(ctx, msg)
	if err != nil {
		return resp, err
	}
	if !resp.Success {
		return resp, &RemoteError{Action: msg.Action, Message: resp.Error}
	}
	return resp, nil
}

// GetStorage decodes the stored value into out. It reports false when the
// key holds nothing.
func (c *Client) GetStorage(ctx context.Context, key string, out any) (bool, error) {
	resp, err := c.Call(ctx, protocol.Message{Action: protocol.ActionGetStorage, Key: key})
	if err != nil {
		return false, err
	}
	return resp.Decode(out)
}

// SetStorage stores value under key
func (c *Client) SetStorage(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = c.Call(ctx, protocol.Message{Action: protocol.ActionSetStorage, Key: key, Value: raw})
	return err
}

// RemoveStorage deletes key
func (c *Client) RemoveStorage(ctx context.Context, key string) error {
	_, err := c.Call(ctx, protocol.Message{Action: protocol.ActionRemoveStorage, Key: key})
	return err
}

// GetCurrentLocale returns the locale the reader should display
func (c *Client) GetCurrentLocale(ctx context.Context) (string, error) {
	resp, err := c.Call(ctx, protocol.Message{Action: protocol.ActionGetCurrentLocale})
	if err != nil {
		return "", err
	}
	var s string
	_, err = resp.Decode(&s)
	return s, err
}

// SetLocale stores the preferred locale; every context is told about it
func (c *Client) SetLocale(ctx context.Context, tag string) error {
	raw, err := json.Marshal(tag)
	if err != nil {
		return err
	}
	_, err = c.Call(ctx, protocol.Message{Action: protocol.ActionSetLocale, Value: raw})
	return err
}

// CacheNovelForSession hands a LineSet to the session cache
func (c *Client) CacheNovelForSession(ctx context.Context, lines []string, fileName string) error {
	if lines == nil {
		lines = []string{}
	}
	_, err := c.Call(ctx, protocol.Message{
		Action:   protocol.ActionCacheNovelForSession,
		Lines:    lines,
		FileName: &fileName,
	})
	return err
}

// GetNovelLinesFromSessionCache returns the cached LineSet, nulls when empty
func (c *Client) GetNovelLinesFromSessionCache(ctx context.Context) (protocol.SessionLines, error) {
	resp, err := c.Call(ctx, protocol.Message{Action: protocol.ActionGetNovelLinesFromSessionCache})
	if err != nil {
		return protocol.SessionLines{}, err
	}
	var out protocol.SessionLines
	_, err = resp.Decode(&out)
	return out, err
}

// ClearNovelSessionCache empties the session cache
func (c *Client) ClearNovelSessionCache(ctx context.Context) error {
	_, err := c.Call(ctx, protocol.Message{Action: protocol.ActionClearNovelSessionCache})
	return err
}

// Subscribe registers fn for broadcasts and returns a function that
// removes it. fn runs on the connection's read loop and must not block.
// While anyone is subscribed a dropped connection is re-dialled in the
// background.
func (c *Client) Subscribe(fn func(protocol.Notification)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Close drops the connection and stops reconnecting
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if errors.Is(err, jsonrpc2.ErrClosed) {
		return nil
	}
	return err
}

func (c *Client) connection(ctx context.Context) (*jsonrpc2.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, Permanent(ErrClientClosed)
	}
	if c.conn != nil {
		return c.conn, nil
	}

	stream, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	conn := jsonrpc2.NewConn(context.Background(), stream, notificationHandler{c: c})
	c.conn = conn
	go c.watch(conn)
	return conn, nil
}

func (c *Client) watch(conn *jsonrpc2.Conn) {
	select {
	case <-conn.DisconnectNotify():
	case <-c.done:
		return
	}
	c.drop(conn)

	if !c.hasSubscribers() {
		return
	}
	log.Warningf("connection lost, reconnecting")
	c.reconnect()
}

// reconnect dials until it succeeds or the client is closed
func (c *Client) reconnect() {
	delay := c.policy.Delay
	if delay <= 0 {
		delay = time.Second
	}
	for {
		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		err := c.policy.attempt(context.Background(), func(ctx context.Context) error {
			_, err := c.connection(ctx)
			return err
		})
		if err == nil {
			log.Infof("reconnected")
			return
		}
		if errors.Is(err, ErrClientClosed) {
			return
		}
		log.Debugf("reconnect failed: %s", err)
	}
}

func (c *Client) drop(conn *jsonrpc2.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
}

func (c *Client) hasSubscribers() bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subs) > 0
}

func (c *Client) publish(n protocol.Notification) {
	c.subMu.RLock()
	fns := make([]func(protocol.Notification), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range fns {
		fn(n)
	}
}

// notificationHandler receives broadcasts from the owning process
type notificationHandler struct {
	c *Client
}

func (h notificationHandler) Handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if !req.Notif || req.Params == nil {
		return
	}
	var n protocol.Notification
	if err := json.Unmarshal(*req.Params, &n); err != nil {
		log.Debugf("bad notification %s: %s", req.Method, err)
		return
	}
	if n.Action == "" {
		n.Action = req.Method
	}
	h.c.publish(n)
}
