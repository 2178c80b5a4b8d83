// Package packet implements the boundary-delimited frame used on the daemon
// socket:
//
//	--<boundary>\r\n
//	Content-Type:<type>\r\n
//	Content-Length:<n>\r\n
//	\r\n
//	<n payload bytes>
package packet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxBoundary       = 63
	MaxType           = 127
	DefaultMaxPayload = 16 << 20

	maxHeaderLine = 1024

	ContentTypeJSON = "application/json"
)

var (
	ErrHeader   = errors.New("malformed packet header")
	ErrTooLarge = errors.New("packet payload too large")
)

// Packet is one frame.
type Packet struct {
	Boundary string
	Type     string
	Payload  []byte
}

// New returns a packet with a fresh random boundary.
func New(contentType string, payload []byte) *Packet {
	return &Packet{
		Boundary: uuid.NewString(),
		Type:     contentType,
		Payload:  payload,
	}
}

func (p *Packet) validate() error {
	if p.Boundary == "" || len(p.Boundary) > MaxBoundary || strings.ContainsAny(p.Boundary, " \r\n") {
		return fmt.Errorf("%w: boundary %q", ErrHeader, p.Boundary)
	}
	if len(p.Type) > MaxType || strings.ContainsAny(p.Type, " \r\n") {
		return fmt.Errorf("%w: content type %q", ErrHeader, p.Type)
	}
	return nil
}

// Write encodes p onto w.
func Write(w io.Writer, p *Packet) error {
	if err := p.validate(); err != nil {
		return err
	}
	header := fmt.Sprintf("--%s\r\nContent-Type:%s\r\nContent-Length:%d\r\n\r\n", p.Boundary, p.Type, len(p.Payload))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err := w.Write(p.Payload)
	return err
}

// Reader decodes consecutive packets from a stream.
type Reader struct {
	r *bufio.Reader

	// MaxPayload caps Content-Length. Zero means DefaultMaxPayload.
	MaxPayload int64
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Read decodes a single packet from r. Bytes buffered past the packet are
// discarded; use a Reader for streams carrying several packets.
func Read(r io.Reader) (*Packet, error) {
	return NewReader(r).Read()
}

// Read decodes the next packet. It returns io.EOF only when the stream ends
// cleanly between packets.
func (r *Reader) Read() (*Packet, error) {
	line, err := r.line(true)
	if err != nil {
		return nil, err
	}
	boundary, ok := strings.CutPrefix(line, "--")
	if !ok || boundary == "" || len(boundary) > MaxBoundary {
		return nil, fmt.Errorf("%w: boundary line %q", ErrHeader, line)
	}

	if line, err = r.line(false); err != nil {
		return nil, err
	}
	contentType, ok := strings.CutPrefix(line, "Content-Type:")
	if !ok || len(contentType) > MaxType {
		return nil, fmt.Errorf("%w: content type line %q", ErrHeader, line)
	}

	if line, err = r.line(false); err != nil {
		return nil, err
	}
	lengthText, ok := strings.CutPrefix(line, "Content-Length:")
	if !ok {
		return nil, fmt.Errorf("%w: content length line %q", ErrHeader, line)
	}
	length, err := strconv.ParseInt(lengthText, 10, 64)
	if err != nil || length < 0 {
		return nil, fmt.Errorf("%w: content length %q", ErrHeader, lengthText)
	}
	limit := r.MaxPayload
	if limit <= 0 {
		limit = DefaultMaxPayload
	}
	if length > limit {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, length, limit)
	}

	if line, err = r.line(false); err != nil {
		return nil, err
	}
	if line != "" {
		return nil, fmt.Errorf("%w: expected blank line, got %q", ErrHeader, line)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return &Packet{Boundary: boundary, Type: contentType, Payload: payload}, nil
}

// line reads one header line with every space and carriage return removed.
func (r *Reader) line(first bool) (string, error) {
	var b strings.Builder
	read := 0
	for {
		c, err := r.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && (!first || read > 0) {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		read++
		if c == '\n' {
			return b.String(), nil
		}
		if c == ' ' || c == '\r' {
			continue
		}
		if b.Len() >= maxHeaderLine {
			return "", fmt.Errorf("%w: header line too long", ErrHeader)
		}
		b.WriteByte(c)
	}
}
