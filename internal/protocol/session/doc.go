// Package session drives a framed.Conn from a single goroutine.
//
// Ownership boundary:
// - outgoing frame queue (one frame handed to the Conn at a time)
// - tick loop, idle polling, and frame delivery
// - transport error backoff and give-up policy
package session
