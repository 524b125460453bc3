package relay

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lumos-edit/lumos/backend/internal/infrastructure/config"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/logging"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/monitoring"
	"github.com/lumos-edit/lumos/backend/internal/relay/registry"
	"github.com/lumos-edit/lumos/backend/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Cross-origin studios are the normal case
	},
}

// Handler brokers session-scoped events between one studio and N
// targets. It owns membership bookkeeping only; every non-membership
// event is forwarded verbatim to the sender's session peers.
type Handler struct {
	store   registry.Store
	logger  *logging.Logger
	metrics *monitoring.Metrics
	cfg     config.RelayConfig
}

// NewHandler creates a relay handler backed by the given store
func NewHandler(store registry.Store, logger *logging.Logger, cfg config.RelayConfig) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// WithMetrics attaches a metrics collector
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// HandleConnection upgrades the request and serves the connection until
// it drops
func (h *Handler) HandleConnection(c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConnection(sock, h.cfg.SendBuffer, h.cfg.WriteTimeout)
	sock.SetReadLimit(h.cfg.MaxMessageSize)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Debug("Connection opened", zap.String("conn", conn.id))

	go conn.writePump()
	h.readLoop(conn)

	h.leave(conn)
	conn.close()
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Debug("Connection closed", zap.String("conn", conn.id))
}

// readLoop dispatches inbound envelopes until the socket errors
func (h *Handler) readLoop(conn *connection) {
	for {
		_, raw, err := conn.sock.ReadMessage()
		if err != nil {
			return
		}

		var env types.Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			// Protocol errors are absorbed, never fatal
			h.logger.Debug("Dropping malformed message", zap.String("conn", conn.id))
			continue
		}

		if env.Event == types.EventJoinSession {
			h.handleJoin(conn, env.Data)
			continue
		}

		h.relay(conn, env.Event, raw)
	}
}

// handleJoin places the connection into a session. A studio join against
// an occupied slot evicts the incumbent and notifies it; a target join
// announces the target to the session's studio.
func (h *Handler) handleJoin(conn *connection, data json.RawMessage) {
	var join types.JoinPayload
	if err := json.Unmarshal(data, &join); err != nil || join.SessionID == "" || !join.Role.Valid() {
		h.logger.Debug("Ignoring invalid join", zap.String("conn", conn.id))
		return
	}

	if !conn.join(join.SessionID, join.Role) {
		// Role and session are set once per physical connection
		h.logger.Debug("Ignoring repeat join", zap.String("conn", conn.id))
		return
	}

	var displaced registry.Member
	var peers []registry.Member
	var studio registry.Member

	h.store.Update(join.SessionID, func(s *registry.Session) {
		switch join.Role {
		case types.RoleStudio:
			if s.Studio != nil && s.Studio.ID() != conn.id {
				displaced = s.Studio
			}
			s.Studio = conn
			peers = s.Peers(conn.id)
		case types.RoleTarget:
			s.Targets[conn.id] = conn
			studio = s.Studio
		}
	})

	if displaced != nil {
		h.send(displaced, types.EventStudioReplaced, nil)
		h.logger.Info("Studio slot taken over",
			zap.String("session", join.SessionID),
			zap.String("displaced", displaced.ID()),
			zap.String("studio", conn.id),
		)
	}

	switch join.Role {
	case types.RoleStudio:
		for _, p := range peers {
			if displaced != nil && p.ID() == displaced.ID() {
				continue
			}
			h.send(p, types.EventStudioConnected, nil)
		}
	case types.RoleTarget:
		if studio != nil {
			h.send(studio, types.EventTargetConnected, types.PeerPayload{ConnectionID: conn.id})
		}
	}

	h.send(conn, types.EventSessionJoined, types.JoinedPayload{
		SessionID: join.SessionID,
		Role:      join.Role,
	})

	if h.metrics != nil {
		h.metrics.SetSessionsActive(h.store.Len())
	}
	h.logger.Info("Joined session",
		zap.String("session", join.SessionID),
		zap.String("role", string(join.Role)),
		zap.String("conn", conn.id),
	)
}

// relay forwards the raw envelope bytes to every other session member.
// Payloads are never inspected.
func (h *Handler) relay(conn *connection, event string, raw []byte) {
	sessionID, role, joined := conn.membership()
	if !joined {
		if h.metrics != nil {
			h.metrics.RecordEventDropped("unjoined")
		}
		return
	}

	session, ok := h.store.Get(sessionID)
	if !ok {
		return
	}

	for _, peer := range session.Peers(conn.id) {
		if !peer.Enqueue(raw) && h.metrics != nil {
			h.metrics.RecordEventDropped("slow_consumer")
		}
	}
	if h.metrics != nil {
		h.metrics.RecordEventRelayed(event, string(role))
	}
}

// leave removes the connection from its session and notifies the
// remaining role
func (h *Handler) leave(conn *connection) {
	sessionID, role, joined := conn.membership()
	if !joined {
		return
	}

	var notifyTargets []registry.Member
	var notifyStudio registry.Member

	h.store.Update(sessionID, func(s *registry.Session) {
		switch role {
		case types.RoleStudio:
			// A displaced studio is no longer in the slot; only the
			// incumbent clears it
			if s.Studio != nil && s.Studio.ID() == conn.id {
				s.Studio = nil
				notifyTargets = s.Peers(conn.id)
			}
		case types.RoleTarget:
			if _, ok := s.Targets[conn.id]; ok {
				delete(s.Targets, conn.id)
				notifyStudio = s.Studio
			}
		}
	})

	for _, t := range notifyTargets {
		h.send(t, types.EventStudioDisconnected, nil)
	}
	if notifyStudio != nil {
		h.send(notifyStudio, types.EventTargetDisconnected, types.PeerPayload{ConnectionID: conn.id})
	}

	if h.metrics != nil {
		h.metrics.SetSessionsActive(h.store.Len())
	}
	h.logger.Info("Left session",
		zap.String("session", sessionID),
		zap.String("role", string(role)),
		zap.String("conn", conn.id),
	)
}

// send marshals and enqueues a relay-originated event
func (h *Handler) send(m registry.Member, event string, payload interface{}) {
	env, err := types.NewEnvelope(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("Failed to encode envelope", zap.String("event", event), zap.Error(err))
		return
	}
	if !m.Enqueue(raw) && h.metrics != nil {
		h.metrics.RecordEventDropped("slow_consumer")
	}
}
