package link

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DefaultFrameTimeout bounds how long frame reception may wait for the
// expected byte count before failing with ErrTimeout.
const DefaultFrameTimeout = 30 * time.Second

// readPollInterval is the read timeout applied to ports that support one.
// Reads then return empty instead of blocking indefinitely, so a device
// that stalls mid-frame or mid-response cannot hold the deadline checks
// off forever.
const readPollInterval = 100 * time.Millisecond

// TimeoutPorter is implemented by ports whose reads can be bounded.
// go.bug.st/serial ports implement it; in-memory test ports may not.
type TimeoutPorter interface {
	SetReadTimeout(t time.Duration) error
}

// SerialConn is a Conn backed by a serial line to the grid controller.
// Commands are newline-terminated ASCII; every command is acknowledged with
// a single "OK" line before the next command may be issued. The connection
// is a single shared stateful channel: callers must not issue commands
// concurrently.
type SerialConn struct {
	port         io.ReadWriteCloser
	reader       *bufio.Reader
	FrameTimeout time.Duration
}

// Open opens the controller port at the given path and wraps it in a
// SerialConn. A failure to open is a link failure and is surfaced to the
// caller as-is.
func Open(path string, opts PortOptions) (*SerialConn, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open controller port %s: %w", path, err)
	}

	log.Printf("controller connected on %s", path)
	return NewSerialConn(port), nil
}

// NewSerialConn wraps an already-open port. Accepting io.ReadWriteCloser
// keeps the transport testable against in-memory ports. Ports that expose
// a read timeout are switched to polled reads so FrameTimeout is enforced
// even against a blocking port.
func NewSerialConn(port io.ReadWriteCloser) *SerialConn {
	if p, ok := port.(TimeoutPorter); ok {
		if err := p.SetReadTimeout(readPollInterval); err != nil {
			log.Printf("failed to set port read timeout: %v", err)
		}
	}
	return &SerialConn{
		port:         port,
		reader:       bufio.NewReader(port),
		FrameTimeout: DefaultFrameTimeout,
	}
}

// SendCommand writes the command and waits for the single-line response.
func (c *SerialConn) SendCommand(command string) error {
	// Collapse any stray whitespace so the firmware tokenizer sees exactly
	// one space between arguments.
	command = strings.Join(strings.Fields(command), " ")

	if _, err := c.port.Write([]byte(command + "\n")); err != nil {
		return fmt.Errorf("failed to write command %q: %w", command, err)
	}

	response, err := c.reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read response to %q: %w", command, err)
	}

	response = strings.TrimSpace(response)
	if response != "OK" {
		return fmt.Errorf("%w: command %q answered %q", ErrProtocol, command, response)
	}
	return nil
}

// ReceiveFrame reads exactly height*width bytes of pixel data. Reception
// that stalls past FrameTimeout fails with ErrTimeout; a port that reports
// an error (EOF included) is a link failure and surfaces immediately.
func (c *SerialConn) ReceiveFrame(height, width int) ([]byte, error) {
	expected := height * width
	data := make([]byte, 0, expected)
	chunk := make([]byte, 1024)
	start := time.Now()

	for len(data) < expected {
		want := expected - len(data)
		if want > len(chunk) {
			want = len(chunk)
		}
		n, err := c.read(chunk[:want])
		if n > 0 {
			data = append(data, chunk[:n]...)
			continue
		}
		if err != nil {
			// EOF with no progress means the port is gone, not idle.
			return nil, fmt.Errorf("frame read failed after %d/%d bytes: %w", len(data), expected, err)
		}
		if time.Since(start) > c.FrameTimeout {
			return nil, fmt.Errorf("%w: received %d of %d bytes", ErrTimeout, len(data), expected)
		}
		// The port is idle; yield briefly rather than spinning.
		time.Sleep(time.Millisecond)
	}

	return data, nil
}

// read drains bytes the response reader has already buffered, then reads
// the port directly. Direct reads return within the port's read timeout,
// keeping the FrameTimeout check live against a stalled device.
func (c *SerialConn) read(p []byte) (int, error) {
	if c.reader.Buffered() > 0 {
		return c.reader.Read(p)
	}
	return c.port.Read(p)
}

// Close closes the underlying port.
func (c *SerialConn) Close() error {
	return c.port.Close()
}
