package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chat-client/domain"
	"chat-client/domain/event"
	"chat-client/errors"

	"nhooyr.io/websocket"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Handler consumes one decoded inbound event.
type Handler func(event.InboundEvent)

type Options struct {
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int
}

func (o *Options) defaults() {
	if o.ReconnectBaseDelay == 0 {
		o.ReconnectBaseDelay = time.Second
	}
	if o.ReconnectMaxDelay == 0 {
		o.ReconnectMaxDelay = 30 * time.Second
	}
	if o.MaxReconnectAttempts == 0 {
		o.MaxReconnectAttempts = 10
	}
}

// Conn is the connection manager: it exclusively owns the websocket handle.
// Other components only register handlers or send commands through it, never
// touch the underlying connection.
type Conn struct {
	url  string
	log  *slog.Logger
	opts Options

	mu               sync.Mutex
	ws               *websocket.Conn
	state            State
	intentionalClose bool
	identity         domain.Identity
	handlers         map[event.Kind]Handler
	onDisconnected   func(error)
	onReconnected    func()
	cancel           context.CancelFunc

	recon *reconnector
}

func NewConn(log *slog.Logger, url string, opts Options) *Conn {
	opts.defaults()
	return &Conn{
		url:      url,
		log:      log,
		opts:     opts,
		state:    StateDisconnected,
		handlers: make(map[event.Kind]Handler),
		recon:    newReconnector(opts.ReconnectBaseDelay, opts.ReconnectMaxDelay, opts.MaxReconnectAttempts),
	}
}

// Connect dials the push channel and announces identity once the open is
// confirmed. Calling it while connected or connecting is a no-op: UI mount
// and unmount cycles must never open duplicate channels.
func (c *Conn) Connect(ctx context.Context, identity domain.Identity) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.intentionalClose = false
	c.identity = identity
	c.mu.Unlock()

	ws, _, err := websocket.Dial(ctx, wsURL(c.url), nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return &errors.TransportError{Err: err}
	}

	c.mu.Lock()
	c.ws = ws
	c.state = StateConnected
	c.mu.Unlock()
	c.recon.markConnected()

	// Identity is announced on confirmed open, not optimistically.
	if err := c.Announce(ctx); err != nil {
		_ = c.Disconnect()
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go c.readLoop(loopCtx)
	return nil
}

// Announce sends the identity frame. The announcement does not survive a
// reconnect; the redial loop repeats it on every fresh socket before the
// reconnect hook fires.
func (c *Conn) Announce(ctx context.Context) error {
	c.mu.Lock()
	username := c.identity.UserID
	c.mu.Unlock()
	return c.Send(ctx, event.UserConnected{Username: username})
}

// On registers the handler for one event kind, replacing any previous one.
// Re-subscribing swaps the handler rather than stacking.
func (c *Conn) On(kind event.Kind, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = h
}

// Off removes the handler for one event kind.
func (c *Conn) Off(kind event.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, kind)
}

// OnDisconnected sets the lifecycle hook fired when the channel drops for a
// reason other than Disconnect.
func (c *Conn) OnDisconnected(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnected = fn
}

// OnReconnected sets the lifecycle hook fired after a successful redial.
func (c *Conn) OnReconnected(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReconnected = fn
}

// Send encodes and writes one command frame.
func (c *Conn) Send(ctx context.Context, cmd event.Command) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return errors.ErrNotConnected
	}

	frame, err := EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := ws.Write(ctx, websocket.MessageText, frame); err != nil {
		return &errors.TransportError{Err: err}
	}
	return nil
}

// Ping exercises the transport; used by the keepalive worker.
func (c *Conn) Ping(ctx context.Context) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return errors.ErrNotConnected
	}
	if err := ws.Ping(ctx); err != nil {
		return &errors.TransportError{Err: err}
	}
	return nil
}

// Disconnect tears the channel down. A later Connect creates a fresh one.
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	c.intentionalClose = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	ws := c.ws
	c.ws = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	c.recon.reset()
	if ws != nil {
		return ws.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	return nil
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) readLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws == nil {
			return
		}

		_, frame, err := ws.Read(ctx)
		if err != nil {
			c.mu.Lock()
			intentional := c.intentionalClose
			c.mu.Unlock()
			if intentional {
				return
			}
			if !c.redial(ctx, err) {
				return
			}
			continue
		}

		evt, err := DecodeEvent(frame)
		if err != nil {
			c.log.Warn("Dropping undecodable frame", "err", err)
			continue
		}
		c.dispatch(evt)
	}
}

func (c *Conn) dispatch(evt event.InboundEvent) {
	c.mu.Lock()
	h := c.handlers[evt.Kind()]
	c.mu.Unlock()
	if h != nil {
		h(evt)
	}
}

// redial runs the backoff loop after an unexpected drop. It reports whether
// the channel is usable again.
func (c *Conn) redial(ctx context.Context, cause error) bool {
	c.mu.Lock()
	c.ws = nil
	c.state = StateReconnecting
	onDisconnected := c.onDisconnected
	c.mu.Unlock()

	if onDisconnected != nil {
		onDisconnected(&errors.TransportError{Err: cause})
	}

	for c.recon.shouldRetry() {
		delay := c.recon.nextDelay()
		c.log.Info("Reconnecting push channel", "attempt", c.recon.attempts(), "delay", delay)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}

		ws, _, err := websocket.Dial(ctx, wsURL(c.url), nil)
		if err != nil {
			continue
		}

		c.mu.Lock()
		c.ws = ws
		c.state = StateConnected
		onReconnected := c.onReconnected
		c.mu.Unlock()
		c.recon.markConnected()

		// A fresh socket is anonymous until the identity frame lands.
		if err := c.Announce(ctx); err != nil {
			c.log.Warn("Identity announce failed after redial", "err", err)
			_ = ws.Close(websocket.StatusInternalError, "announce failed")
			c.mu.Lock()
			c.ws = nil
			c.state = StateReconnecting
			c.mu.Unlock()
			continue
		}

		if onReconnected != nil {
			onReconnected()
		}
		return true
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
	c.log.Error("Push channel gone for good, retries exhausted")
	if onDisconnected != nil {
		onDisconnected(errors.ErrRetriesExhausted)
	}
	return false
}

func wsURL(base string) string {
	u := strings.Replace(base, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + "/ws"
}
