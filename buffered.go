package streamfs

import (
	"io"

	"go.uber.org/multierr"
)

// BufferedSource is a Source that keeps an internal buffer so callers can
// make small requests without a round trip to the raw source each time.
type BufferedSource interface {
	Source

	// Buffer returns the internal buffer. Bytes in it have already been
	// pulled from the raw source.
	Buffer() *Buffer

	// Exhausted reports whether there are no more bytes in this source.
	// It blocks until bytes are available or the raw source is done.
	Exhausted() (bool, error)

	// Request reports whether the buffer holds at least n bytes, reading
	// from the raw source as needed.
	Request(n int64) (bool, error)

	// Require is like Request but fails with io.ErrUnexpectedEOF when the
	// source ends first.
	Require(n int64) error

	// Skip discards exactly n bytes.
	Skip(n int64) error

	// ReadBytes consumes exactly n bytes.
	ReadBytes(n int64) ([]byte, error)

	// ReadAllBytes consumes the rest of the source.
	ReadAllBytes() ([]byte, error)

	// ReadAll drains the source into sink and returns the byte count.
	ReadAll(sink Sink) (int64, error)

	// Reader adapts the source to io.Reader. The reader also implements
	// io.ByteReader.
	Reader() io.Reader
}

// BufferedSink is a Sink that batches small writes.
type BufferedSink interface {
	Sink

	// Buffer returns the internal buffer of pending bytes.
	Buffer() *Buffer

	WriteBytes(p []byte) error
	WriteString(s string) error

	// WriteAll drains source into this sink and returns the byte count.
	WriteAll(source Source) (int64, error)

	// Emit writes complete segments to the raw sink, keeping the tail.
	Emit() error

	// Writer adapts the sink to io.Writer.
	Writer() io.Writer
}

// NewBufferedSource returns a BufferedSource that reads from src in bulk
func NewBufferedSource(src Source) BufferedSource {
	if bs, ok := src.(BufferedSource); ok {
		return bs
	}
	return &bufferedSource{src: src}
}

type bufferedSource struct {
	buf    Buffer
	src    Source
	closed bool
}

// fill pulls one segment from the raw source
func (s *bufferedSource) fill() error {
	_, err := s.src.Read(&s.buf, SegmentSize)
	return err
}

func (s *bufferedSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	if err := checkByteCount(byteCount); err != nil {
		return 0, err
	}
	if s.closed {
		return 0, ErrClosed
	}
	if byteCount == 0 {
		return 0, nil
	}
	if s.buf.Size() == 0 {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	return s.buf.Transfer(sink, byteCount), nil
}

func (s *bufferedSource) Buffer() *Buffer {
	return &s.buf
}

func (s *bufferedSource) Exhausted() (bool, error) {
	ok, err := s.Request(1)
	return !ok, err
}

func (s *bufferedSource) Request(n int64) (bool, error) {
	if err := checkByteCount(n); err != nil {
		return false, err
	}
	if s.closed {
		return false, ErrClosed
	}
	for s.buf.Size() < n {
		if err := s.fill(); err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

func (s *bufferedSource) Require(n int64) error {
	ok, err := s.Request(n)
	if err != nil {
		return err
	}
	if !ok {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (s *bufferedSource) Skip(n int64) error {
	if err := checkByteCount(n); err != nil {
		return err
	}
	for n > 0 {
		if s.buf.Size() == 0 {
			if err := s.fill(); err != nil {
				if err == io.EOF {
					return io.ErrUnexpectedEOF
				}
				return err
			}
		}
		step := min(n, s.buf.Size())
		s.buf.Skip(step)
		n -= step
	}
	return nil
}

func (s *bufferedSource) ReadBytes(n int64) ([]byte, error) {
	if err := s.Require(n); err != nil {
		return nil, err
	}
	p := make([]byte, n)
	s.buf.Read(p)
	return p, nil
}

func (s *bufferedSource) ReadAllBytes() ([]byte, error) {
	var all Buffer
	if _, err := s.ReadAll(&bufferSink{&all}); err != nil {
		return nil, err
	}
	return all.Snapshot(), nil
}

func (s *bufferedSource) ReadAll(sink Sink) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var total int64
	for {
		if s.buf.Size() == 0 {
			err := s.fill()
			if err == io.EOF {
				return total, nil
			}
			if err != nil {
				return total, err
			}
		}
		n := s.buf.Size()
		if err := sink.Write(&s.buf, n); err != nil {
			return total, err
		}
		total += n
	}
}

func (s *bufferedSource) Reader() io.Reader {
	return sourceReader{s}
}

func (s *bufferedSource) Timeout() *Timeout {
	return s.src.Timeout()
}

func (s *bufferedSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.buf.Clear()
	return s.src.Close()
}

type sourceReader struct {
	s *bufferedSource
}

func (r sourceReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.s.closed {
		return 0, ErrClosed
	}
	if r.s.buf.Size() == 0 {
		if err := r.s.fill(); err != nil {
			return 0, err
		}
	}
	return r.s.buf.Read(p)
}

func (r sourceReader) ReadByte() (byte, error) {
	if err := r.s.Require(1); err != nil {
		if err == io.ErrUnexpectedEOF {
			return 0, io.EOF
		}
		return 0, err
	}
	return r.s.buf.ReadByte()
}

// bufferSink appends everything it receives to a Buffer
type bufferSink struct {
	buf *Buffer
}

func (s *bufferSink) Write(source *Buffer, byteCount int64) error {
	if err := checkByteCount(byteCount); err != nil {
		return err
	}
	source.Transfer(s.buf, byteCount)
	return nil
}

func (s *bufferSink) Flush() error      { return nil }
func (s *bufferSink) Timeout() *Timeout { return NoTimeout }
func (s *bufferSink) Close() error      { return nil }

// NewBufferedSink returns a BufferedSink that writes to sink in bulk
func NewBufferedSink(sink Sink) BufferedSink {
	if bs, ok := sink.(BufferedSink); ok {
		return bs
	}
	return &bufferedSink{sink: sink}
}

type bufferedSink struct {
	buf    Buffer
	sink   Sink
	closed bool
}

func (s *bufferedSink) Write(source *Buffer, byteCount int64) error {
	if err := checkByteCount(byteCount); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	source.Transfer(&s.buf, byteCount)
	return s.Emit()
}

func (s *bufferedSink) Buffer() *Buffer {
	return &s.buf
}

func (s *bufferedSink) WriteBytes(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	s.buf.Write(p)
	return s.Emit()
}

func (s *bufferedSink) WriteString(str string) error {
	if s.closed {
		return ErrClosed
	}
	s.buf.WriteString(str)
	return s.Emit()
}

func (s *bufferedSink) WriteAll(source Source) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var total int64
	for {
		n, err := source.Read(&s.buf, SegmentSize)
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		if err := s.Emit(); err != nil {
			return total, err
		}
	}
}

func (s *bufferedSink) Emit() error {
	if s.closed {
		return ErrClosed
	}
	complete := s.buf.Size() / SegmentSize * SegmentSize
	if complete == 0 {
		return nil
	}
	return s.sink.Write(&s.buf, complete)
}

func (s *bufferedSink) Flush() error {
	if s.closed {
		return ErrClosed
	}
	if n := s.buf.Size(); n > 0 {
		if err := s.sink.Write(&s.buf, n); err != nil {
			return err
		}
	}
	return s.sink.Flush()
}

func (s *bufferedSink) Writer() io.Writer {
	return sinkWriter{s}
}

func (s *bufferedSink) Timeout() *Timeout {
	return s.sink.Timeout()
}

// Close writes pending bytes and closes the raw sink. The raw sink is closed
// even if the final write fails; both failures are reported.
func (s *bufferedSink) Close() error {
	if s.closed {
		return nil
	}

	var err error
	if n := s.buf.Size(); n > 0 {
		err = s.sink.Write(&s.buf, n)
	}
	s.closed = true
	s.buf.Clear()
	return multierr.Append(err, s.sink.Close())
}

type sinkWriter struct {
	s *bufferedSink
}

func (w sinkWriter) Write(p []byte) (int, error) {
	if err := w.s.WriteBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
