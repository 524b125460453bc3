// Package relay implements the session-scoped event broker.
//
// One studio and N targets share a session; the relay routes every
// event a member sends to all other members of the same session,
// verbatim, without interpreting payloads. Membership is the only state
// the relay owns and it lives in a registry.Store, injectable so a
// future externally-backed table can replace the in-process default
// without touching routing logic.
//
// Delivery guarantees are thin: per-sender FIFO (one write
// pump per connection), no cross-sender ordering, no retry. An event
// sent while a peer is transiently disconnected is lost; clients must
// tolerate this.
//
// Lifecycle events:
//   - join-session(sessionId, role) → session-joined to the caller;
//     studio-connected broadcast or target-connected{connectionId} to
//     the studio
//   - a second studio join evicts the incumbent, which receives
//     studio-replaced
//   - disconnect → studio-disconnected to targets, or
//     target-disconnected{connectionId} to the studio; the session is
//     deleted once both sides are empty
package relay
