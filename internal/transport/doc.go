// Package transport provides framed.Transport implementations: in-memory
// loopbacks and pipes for tests and self-checks, rate-limiting wrappers,
// and the serial port adapter used by framectl.
package transport
