// Package types provides shared data structures for the Lumos backend.
//
// This package defines the wire-level types exchanged between the studio,
// the relay, and target pages, ensuring every component speaks the same
// protocol.
//
// Core Types:
//   - StyleChange: A single inline-style mutation; the undo/redo unit
//   - SelectedElement: Element summary reported on user selection
//   - Envelope: WebSocket event wrapper (event name + raw payload)
//   - Role: Session role (studio or target)
//
// Event Names:
//   - Client → relay: EventJoinSession, EventApplyStyle, EventStyleApplied,
//     EventElementSelected, EventUndo, EventRedo
//   - Relay → client: EventSessionJoined, EventStudioConnected,
//     EventStudioDisconnected, EventStudioReplaced, EventTargetConnected,
//     EventTargetDisconnected
//
// The relay treats all non-membership payloads as opaque: it routes
// Envelope bytes verbatim and never inspects StyleChange contents.
package types
