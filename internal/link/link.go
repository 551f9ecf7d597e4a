// Package link provides the transport to a grid controller device: an
// ASCII command channel plus binary frame retrieval, over either a real
// serial line or a software-simulated device used for testing.
package link

import "errors"

var (
	// ErrProtocol indicates the device answered a command with anything
	// other than the literal "OK" line, or returned a malformed frame.
	ErrProtocol = errors.New("device protocol violation")

	// ErrTimeout indicates frame reception did not deliver the expected
	// byte count within the bounded wait.
	ErrTimeout = errors.New("frame reception timeout")
)

// Conn is the minimal transport interface to the device. Components depend
// on this interface (or the narrower capability interfaces layered above
// it), never on a concrete device type.
type Conn interface {
	// SendCommand writes one newline-terminated ASCII command and waits
	// for the single-line response. Any response other than "OK" is a
	// protocol failure.
	SendCommand(command string) error

	// ReceiveFrame reads exactly height*width bytes of row-major unsigned
	// 8-bit pixel data.
	ReceiveFrame(height, width int) ([]byte, error)

	// Close releases the underlying transport.
	Close() error
}
