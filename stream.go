package streamfs

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidArgument      = errors.New("streamfs: invalid argument")
	ErrMalformedStream      = errors.New("streamfs: malformed compressed stream")
	ErrTimeout              = errors.New("streamfs: timeout")
	ErrClosed               = errors.New("streamfs: closed")
	ErrUnsupportedAlgorithm = errors.New("streamfs: unsupported compression algorithm")
	ErrInvalidLevel         = errors.New("streamfs: invalid compression level")
	ErrSeekNotSupported     = errors.New("streamfs: seek not supported for compressed files")
)

// Source supplies a stream of bytes.
//
// Read removes at least one and at most byteCount bytes from the source and
// appends them to sink, returning the number of bytes read. At end of stream
// it returns (0, io.EOF). A byteCount of zero returns (0, nil), which means
// nothing was requested and is never an end-of-stream signal.
type Source interface {
	Read(sink *Buffer, byteCount int64) (int64, error)
	Timeout() *Timeout
	Close() error
}

// Sink receives a stream of bytes.
//
// Write removes exactly byteCount bytes from source and delivers them.
type Sink interface {
	Write(source *Buffer, byteCount int64) error
	Flush() error
	Timeout() *Timeout
	Close() error
}

func checkByteCount(byteCount int64) error {
	if byteCount < 0 {
		return fmt.Errorf("%w: byteCount < 0: %d", ErrInvalidArgument, byteCount)
	}
	return nil
}

// SourceFromReader returns a Source that reads from r. Closing the source
// closes r if it implements io.Closer.
func SourceFromReader(r io.Reader) Source {
	return &readerSource{r: r, timeout: NewTimeout()}
}

type readerSource struct {
	r       io.Reader
	timeout *Timeout
	closed  bool
}

func (s *readerSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	if err := checkByteCount(byteCount); err != nil {
		return 0, err
	}
	if s.closed {
		return 0, ErrClosed
	}
	if byteCount == 0 {
		return 0, nil
	}
	if err := s.timeout.Check(); err != nil {
		return 0, err
	}

	buf := make([]byte, min(byteCount, SegmentSize))
	for {
		n, err := s.r.Read(buf)
		if n > 0 {
			sink.Write(buf[:n])
			// Defer EOF to the next call
			return int64(n), nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (s *readerSource) Timeout() *Timeout {
	return s.timeout
}

func (s *readerSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SinkFromWriter returns a Sink that writes to w. Closing the sink closes w
// if it implements io.Closer; flushing calls Flush or Sync when w has one.
func SinkFromWriter(w io.Writer) Sink {
	return &writerSink{w: w, timeout: NewTimeout()}
}

type writerSink struct {
	w       io.Writer
	timeout *Timeout
	closed  bool
}

func (s *writerSink) Write(source *Buffer, byteCount int64) error {
	if err := checkByteCount(byteCount); err != nil {
		return err
	}
	if byteCount > source.Size() {
		return fmt.Errorf("%w: byteCount %d > size %d", ErrInvalidArgument, byteCount, source.Size())
	}
	if s.closed {
		return ErrClosed
	}

	buf := make([]byte, min(byteCount, SegmentSize))
	for byteCount > 0 {
		if err := s.timeout.Check(); err != nil {
			return err
		}
		n, _ := source.Read(buf[:min(byteCount, int64(len(buf)))])
		if _, err := s.w.Write(buf[:n]); err != nil {
			return err
		}
		byteCount -= int64(n)
	}
	return nil
}

func (s *writerSink) Flush() error {
	if s.closed {
		return ErrClosed
	}
	switch f := s.w.(type) {
	case interface{ Flush() error }:
		return f.Flush()
	case interface{ Sync() error }:
		return f.Sync()
	}
	return nil
}

func (s *writerSink) Timeout() *Timeout {
	return s.timeout
}

func (s *writerSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
