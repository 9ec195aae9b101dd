// Package wire implements the newline-delimited JSON framing used on
// every docstore connection.
//
// One frame is one JSON object followed by '\n'. A Codec wraps a
// net.Conn (or any io.ReadWriter) and encodes/decodes whole frames. It
// owns the connection's read buffering, so all reads on a connection
// must go through the same Codec.
package wire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// readBufferSize is the bufio read buffer; frames larger than this are
// assembled across multiple reads up to the codec's frame limit.
const readBufferSize = 4096

// ErrFrameTooLarge is returned when an inbound frame exceeds the
// configured maximum size.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// Codec reads and writes framed JSON messages on a single connection.
//
// Send is safe for one concurrent writer; callers that share a Codec
// across goroutines (the subscriber registry does) must serialise sends
// themselves.
type Codec struct {
	rw       io.ReadWriter
	r        *bufio.Reader
	maxFrame int

	// partial holds frame bytes consumed from the reader before an
	// interrupting error (typically a read deadline expiring mid-frame).
	// The next Receive resumes the frame instead of losing those bytes.
	partial []byte
}

// NewCodec creates a codec over rw with the given frame size limit.
func NewCodec(rw io.ReadWriter, maxFrame int) *Codec {
	return &Codec{
		rw:       rw,
		r:        bufio.NewReaderSize(rw, readBufferSize),
		maxFrame: maxFrame,
	}
}

// Send marshals v and writes it as one frame.
func (c *Codec) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	data = append(data, '\n')
	if _, err := c.rw.Write(data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Receive reads one frame and unmarshals it into v.
//
// io.EOF is returned unwrapped when the peer closes the connection
// before sending anything. A peer that sends a final frame without a
// trailing newline and then closes is still decoded. When a read
// deadline expires mid-frame the error is returned but the bytes read so
// far are kept; a subsequent Receive resumes the same frame.
func (c *Codec) Receive(v any) error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}
	return nil
}

// Probe reads and discards a single byte. It exists so a parked
// subscriber connection can watch for peer closure: the caller sets a
// read deadline, probes, and interprets timeout as "still alive".
// Subscribers never send application data after the subscribe request,
// so anything read here is noise.
func (c *Codec) Probe() error {
	_, err := c.r.ReadByte()
	return err
}

// readLine assembles one newline-terminated frame, enforcing maxFrame.
// Frame bytes survive transient read errors in c.partial; only a
// completed frame, EOF, or an oversized frame resets it.
func (c *Codec) readLine() ([]byte, error) {
	for {
		chunk, err := c.r.ReadSlice('\n')
		c.partial = append(c.partial, chunk...)
		if len(c.partial) > c.maxFrame {
			c.partial = nil
			return nil, ErrFrameTooLarge
		}
		if err == nil {
			line := c.partial
			c.partial = nil
			return line, nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(bytes.TrimSpace(c.partial)) > 0 {
				// Final unterminated frame before close.
				line := c.partial
				c.partial = nil
				return line, nil
			}
			c.partial = nil
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame: %w", err)
	}
}
