package streamfs

import (
	"bytes"
	"io"
)

// SegmentSize is the unit of bulk transfer between sources, sinks and buffers
const SegmentSize = 8192

// Buffer is an ordered queue of owned bytes. Bytes are appended at the tail
// and consumed from the head. The zero value is an empty buffer ready to use.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	buf bytes.Buffer
}

// Size returns the number of readable bytes
func (b *Buffer) Size() int64 {
	return int64(b.buf.Len())
}

// Write appends p to the buffer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

// WriteString appends s to the buffer
func (b *Buffer) WriteString(s string) (int, error) {
	return b.buf.WriteString(s)
}

// WriteByte appends a single byte
func (b *Buffer) WriteByte(c byte) error {
	return b.buf.WriteByte(c)
}

// Read consumes up to len(p) bytes from the head of the buffer.
// It returns io.EOF when the buffer is empty and len(p) > 0.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return b.buf.Read(p)
}

// ReadByte consumes a single byte
func (b *Buffer) ReadByte() (byte, error) {
	return b.buf.ReadByte()
}

// Skip discards n bytes from the head. If fewer than n bytes are buffered,
// nothing is discarded and io.ErrUnexpectedEOF is returned.
func (b *Buffer) Skip(n int64) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	if n > b.Size() {
		return io.ErrUnexpectedEOF
	}
	b.buf.Next(int(n))
	return nil
}

// Transfer moves up to n bytes from the head of b to the tail of dst and
// returns the number moved.
func (b *Buffer) Transfer(dst *Buffer, n int64) int64 {
	if n > b.Size() {
		n = b.Size()
	}
	if n <= 0 {
		return 0
	}
	dst.buf.Write(b.buf.Next(int(n)))
	return n
}

// Snapshot returns a copy of the readable bytes without consuming them
func (b *Buffer) Snapshot() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// ReadFrom appends everything r produces until EOF
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	return b.buf.ReadFrom(r)
}

// WriteTo drains the buffer into w
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	return b.buf.WriteTo(w)
}

// Clear discards all buffered bytes
func (b *Buffer) Clear() {
	b.buf.Reset()
}

// String returns the readable bytes as a string without consuming them
func (b *Buffer) String() string {
	return b.buf.String()
}
