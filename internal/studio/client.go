package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lumos-edit/lumos/backend/internal/infrastructure/logging"
	"github.com/lumos-edit/lumos/backend/internal/shared/types"
)

// State is the client connection state
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Callbacks receive session events. All fields are optional and are
// invoked from the client's read goroutine.
type Callbacks struct {
	OnSessionJoined      func(sessionID string)
	OnTargetConnected    func(connectionID string)
	OnTargetDisconnected func(connectionID string)
	OnElementSelected    func(el types.SelectedElement)
	OnStyleApplied       func(change types.StyleChange)
	OnStudioReplaced     func()
	OnDisconnect         func()
	OnReconnect          func()
}

// Config holds client tuning knobs
type Config struct {
	URL               string
	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	ReconnectInterval time.Duration
	MaxReconnectTries int
}

// DefaultConfig returns a config suitable for local development
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      5 * time.Second,
		ReconnectInterval: time.Second,
		MaxReconnectTries: 10,
	}
}

// Client is the studio-side session driver. It joins a session with
// the studio role, sends style commands, and surfaces target activity
// through Callbacks. Lost connections are re-established with
// exponential backoff; each re-establishment is a fresh logical join.
type Client struct {
	cfg       Config
	logger    *logging.Logger
	callbacks Callbacks

	state     atomic.Int32
	sessionID string

	mu      sync.RWMutex
	writeMu sync.Mutex
	conn    *websocket.Conn

	stopChan      chan struct{}
	reconnectChan chan struct{}
}

// NewSessionID mints a fresh session identifier
func NewSessionID() string {
	return uuid.NewString()
}

// New creates a studio client
func New(cfg Config, logger *logging.Logger) *Client {
	return &Client{
		cfg:           cfg,
		logger:        logger,
		stopChan:      make(chan struct{}),
		reconnectChan: make(chan struct{}, 1),
	}
}

// Connect dials the relay and joins sessionID as the studio. It blocks
// until the join is acknowledged or fails.
func (c *Client) Connect(ctx context.Context, sessionID string, callbacks Callbacks) error {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return errors.New("client is not in disconnected state")
	}

	c.sessionID = sessionID
	c.callbacks = callbacks

	if err := c.dial(ctx); err != nil {
		c.state.Store(int32(StateDisconnected))
		return err
	}

	c.state.Store(int32(StateConnected))
	go c.readLoop()
	go c.reconnectLoop()
	return nil
}

// dial establishes the socket and performs the join handshake
func (c *Client) dial(ctx context.Context) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = c.cfg.HandshakeTimeout

	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.writeEvent(types.EventJoinSession, types.JoinPayload{
		SessionID: c.sessionID,
		Role:      types.RoleStudio,
	}); err != nil {
		conn.Close()
		return fmt.Errorf("send join failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	var env types.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		conn.Close()
		return fmt.Errorf("read join ack failed: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if env.Event != types.EventSessionJoined {
		conn.Close()
		return fmt.Errorf("unexpected join ack event %q", env.Event)
	}

	if c.callbacks.OnSessionJoined != nil {
		c.callbacks.OnSessionJoined(c.sessionID)
	}
	return nil
}

// Disconnect closes the client permanently
func (c *Client) Disconnect() error {
	for {
		state := State(c.state.Load())
		if state == StateClosed {
			return nil
		}
		if c.state.CompareAndSwap(int32(state), int32(StateClosed)) {
			break
		}
	}

	close(c.stopChan)

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports whether the client currently has a live session
func (c *Client) IsConnected() bool {
	return State(c.state.Load()) == StateConnected
}

// SessionID returns the session this client drives
func (c *Client) SessionID() string {
	return c.sessionID
}

// ApplyStyle asks every target in the session to set one inline style
// property
func (c *Client) ApplyStyle(selector, property, value string) error {
	if !c.IsConnected() {
		return errors.New("client is not connected")
	}
	return c.writeEvent(types.EventApplyStyle, types.ApplyStylePayload{
		Selector: selector,
		Property: property,
		Value:    value,
	})
}

// Undo asks targets to revert the given change to its old value
func (c *Client) Undo(change types.StyleChange) error {
	if !c.IsConnected() {
		return errors.New("client is not connected")
	}
	return c.writeEvent(types.EventUndo, change)
}

// Redo asks targets to re-apply the given change's new value
func (c *Client) Redo(change types.StyleChange) error {
	if !c.IsConnected() {
		return errors.New("client is not connected")
	}
	return c.writeEvent(types.EventRedo, change)
}

// writeEvent marshals and sends one envelope under the write lock
func (c *Client) writeEvent(event string, payload interface{}) error {
	env, err := types.NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s failed: %w", event, err)
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return errors.New("connection is nil")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteJSON(env)
}

// readLoop dispatches relay events until the client closes
func (c *Client) readLoop() {
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		if State(c.state.Load()) != StateConnected {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		var env types.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.triggerReconnect()
			continue
		}

		c.dispatch(env)
	}
}

func (c *Client) dispatch(env types.Envelope) {
	switch env.Event {
	case types.EventTargetConnected:
		var peer types.PeerPayload
		if json.Unmarshal(env.Data, &peer) == nil && c.callbacks.OnTargetConnected != nil {
			c.callbacks.OnTargetConnected(peer.ConnectionID)
		}
	case types.EventTargetDisconnected:
		var peer types.PeerPayload
		if json.Unmarshal(env.Data, &peer) == nil && c.callbacks.OnTargetDisconnected != nil {
			c.callbacks.OnTargetDisconnected(peer.ConnectionID)
		}
	case types.EventElementSelected:
		var el types.SelectedElement
		if json.Unmarshal(env.Data, &el) == nil && c.callbacks.OnElementSelected != nil {
			c.callbacks.OnElementSelected(el)
		}
	case types.EventStyleApplied:
		var change types.StyleChange
		if json.Unmarshal(env.Data, &change) == nil && c.callbacks.OnStyleApplied != nil {
			c.callbacks.OnStyleApplied(change)
		}
	case types.EventStudioReplaced:
		// Another studio took the slot; reconnecting would only evict
		// it back, so shut down instead
		if c.callbacks.OnStudioReplaced != nil {
			c.callbacks.OnStudioReplaced()
		}
		c.Disconnect()
	default:
		c.logger.Debug("Ignoring event", zap.String("event", env.Event))
	}
}

// reconnectLoop serializes reconnect attempts
func (c *Client) reconnectLoop() {
	for {
		select {
		case <-c.stopChan:
			return
		case <-c.reconnectChan:
			c.doReconnect()
		}
	}
}

func (c *Client) triggerReconnect() {
	if c.state.CompareAndSwap(int32(StateConnected), int32(StateReconnecting)) {
		if c.callbacks.OnDisconnect != nil {
			c.callbacks.OnDisconnect()
		}
		select {
		case c.reconnectChan <- struct{}{}:
		default:
		}
	}
}

// doReconnect re-dials with exponential backoff. The join handshake
// runs again on the fresh socket, so the relay sees a new connection
// joining the same session.
func (c *Client) doReconnect() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.ReconnectInterval
	policy.MaxElapsedTime = time.Duration(c.cfg.MaxReconnectTries) * c.cfg.ReconnectInterval

	err := backoff.Retry(func() error {
		select {
		case <-c.stopChan:
			return backoff.Permanent(errors.New("client closed"))
		default:
		}
		return c.dial(context.Background())
	}, policy)

	if err != nil {
		c.logger.Warn("Reconnect failed", zap.String("session", c.sessionID), zap.Error(err))
		c.state.CompareAndSwap(int32(StateReconnecting), int32(StateDisconnected))
		return
	}

	if c.state.CompareAndSwap(int32(StateReconnecting), int32(StateConnected)) {
		c.logger.Info("Reconnected", zap.String("session", c.sessionID))
		if c.callbacks.OnReconnect != nil {
			c.callbacks.OnReconnect()
		}
	}
}
