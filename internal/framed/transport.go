package framed

// Transport is the byte-level capability a Conn drives. Both methods must
// return promptly; a short bounded wait inside the transport is acceptable.
type Transport interface {
	// TryRecvByte returns ok=false when no byte is currently available.
	TryRecvByte() (b byte, ok bool, err error)
	// TrySendByte returns ok=false when the byte cannot be accepted now.
	TrySendByte(b byte) (ok bool, err error)
}
