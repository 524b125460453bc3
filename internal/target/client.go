package target

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lumos-edit/lumos/backend/internal/dom/styles"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/logging"
	"github.com/lumos-edit/lumos/backend/internal/shared/types"
)

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

// Client is the target-side session participant. It holds the page as
// a styles.Document, applies studio commands to it, and reports every
// style mutation back with its pre-change value.
type Client struct {
	cfg    Config
	logger *logging.Logger
	doc    *styles.Document

	connected atomic.Bool
	closed    atomic.Bool
	sessionID string

	mu      sync.RWMutex
	writeMu sync.Mutex
	conn    *websocket.Conn

	stopChan      chan struct{}
	reconnectChan chan struct{}
}

// New creates a target client around an already parsed document
func New(cfg Config, doc *styles.Document, logger *logging.Logger) *Client {
	c := &Client{
		cfg:           cfg,
		logger:        logger,
		doc:           doc,
		stopChan:      make(chan struct{}),
		reconnectChan: make(chan struct{}, 1),
	}

	// First-party mutations flow out through the same event as
	// studio-driven ones
	doc.Observe(func(change types.StyleChange) {
		if err := c.writeEvent(types.EventStyleApplied, change); err != nil {
			c.logger.Debug("Failed to report style change", zap.Error(err))
		}
	})

	return c
}

// Document returns the page this client mutates
func (c *Client) Document() *styles.Document {
	return c.doc
}

// SessionID returns the joined session
func (c *Client) SessionID() string {
	return c.sessionID
}

// IsConnected reports whether the client has a live session
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Connect dials the relay and joins sessionID as a target
func (c *Client) Connect(ctx context.Context, sessionID string) error {
	if c.closed.Load() {
		return errors.New("client is closed")
	}
	if c.connected.Load() {
		return errors.New("client is already connected")
	}

	c.sessionID = sessionID
	if err := c.dial(ctx); err != nil {
		return err
	}

	c.connected.Store(true)
	go c.readLoop()
	go c.reconnectLoop()
	return nil
}

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
		Role:      types.RoleTarget,
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
	return nil
}

// Disconnect closes the client permanently
func (c *Client) Disconnect() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.connected.Store(false)
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

// SelectElement reports the element at sel to the studio. Unresolvable
// selectors return an error without sending anything.
func (c *Client) SelectElement(sel string) error {
	el, ok := c.doc.SelectedElement(sel)
	if !ok {
		return fmt.Errorf("no element matches %q", sel)
	}
	return c.writeEvent(types.EventElementSelected, el)
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

func (c *Client) readLoop() {
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		if !c.connected.Load() {
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

		c.handle(env)
	}
}

// handle applies one studio command to the document
func (c *Client) handle(env types.Envelope) {
	switch env.Event {
	case types.EventApplyStyle:
		var apply types.ApplyStylePayload
		if err := json.Unmarshal(env.Data, &apply); err != nil {
			return
		}
		// The observer registered in New emits style-applied with the
		// captured old value
		if _, ok := c.doc.SetStyleBySelector(apply.Selector, apply.Property, apply.Value); !ok {
			c.logger.Debug("Selector resolved nothing", zap.String("selector", apply.Selector))
		}

	case types.EventUndo:
		var change types.StyleChange
		if err := json.Unmarshal(env.Data, &change); err != nil {
			return
		}
		c.doc.ApplyUndo(change)

	case types.EventRedo:
		var change types.StyleChange
		if err := json.Unmarshal(env.Data, &change); err != nil {
			return
		}
		c.doc.ApplyRedo(change)

	case types.EventStudioConnected, types.EventStudioDisconnected:
		// Presence only; the document is untouched

	default:
		c.logger.Debug("Ignoring event", zap.String("event", env.Event))
	}
}

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
	if c.connected.CompareAndSwap(true, false) {
		select {
		case c.reconnectChan <- struct{}{}:
		default:
		}
	}
}

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
		return
	}

	c.connected.Store(true)
	c.logger.Info("Reconnected", zap.String("session", c.sessionID))
}
