package types

import "encoding/json"

// Role identifies a connection's function within a session
type Role string

const (
	RoleStudio Role = "studio"
	RoleTarget Role = "target"
)

// Valid reports whether the role is one of the known session roles
func (r Role) Valid() bool {
	return r == RoleStudio || r == RoleTarget
}

// Event names sent by clients
const (
	EventJoinSession     = "join-session"
	EventElementSelected = "element-selected"
	EventApplyStyle      = "apply-style"
	EventStyleApplied    = "style-applied"
	EventUndo            = "undo"
	EventRedo            = "redo"
)

// Event names sent by the relay
const (
	EventSessionJoined      = "session-joined"
	EventStudioConnected    = "studio-connected"
	EventStudioDisconnected = "studio-disconnected"
	EventStudioReplaced     = "studio-replaced"
	EventTargetConnected    = "target-connected"
	EventTargetDisconnected = "target-disconnected"
)

// Envelope wraps every WebSocket message with its event name.
// Data stays raw so the relay can forward payloads verbatim.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an Envelope ready for transport
func NewEnvelope(event string, payload interface{}) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// JoinPayload is sent by a client to enter a session
type JoinPayload struct {
	SessionID string `json:"sessionId"`
	Role      Role   `json:"role"`
}

// JoinedPayload acknowledges a successful join
type JoinedPayload struct {
	SessionID string `json:"sessionId"`
	Role      Role   `json:"role"`
}

// PeerPayload carries the connection id of a joining or leaving peer
type PeerPayload struct {
	ConnectionID string `json:"connectionId"`
}

// ApplyStylePayload is a studio command to mutate one inline property
type ApplyStylePayload struct {
	Selector string `json:"selector"`
	Property string `json:"property"`
	Value    string `json:"value"`
}
