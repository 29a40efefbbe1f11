// Package framed owns the non-blocking framed connection state machine.
//
// Ownership boundary:
// - per-direction parser/serializer state (rx.go, tx.go)
// - receive buffer lifecycle and frame handoff
// - the byte-level Transport capability it drives
//
// Wire layout lives in internal/protocol/frame. A Conn is not safe for
// concurrent use; internal/protocol/session provides a driver loop.
package framed
