package streamfs

import (
	"bytes"
	"errors"
	"io"
)

var (
	errBoom       = errors.New("boom")
	errCloseBoom  = errors.New("close boom")
	errSourceDown = errors.New("source down")
)

// trackingSource serves data and records how often it was closed
type trackingSource struct {
	r        *bytes.Reader
	timeout  *Timeout
	closes   int
	closeErr error
	readErr  error
	onClose  func()
}

func newTrackingSource(data []byte) *trackingSource {
	return &trackingSource{r: bytes.NewReader(data), timeout: NewTimeout()}
}

func (s *trackingSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	if byteCount == 0 {
		return 0, nil
	}
	p := make([]byte, min(byteCount, SegmentSize))
	n, err := s.r.Read(p)
	sink.Write(p[:n])
	if n > 0 {
		return int64(n), nil
	}
	return 0, err
}

func (s *trackingSource) Timeout() *Timeout { return s.timeout }

func (s *trackingSource) Close() error {
	s.closes++
	if s.onClose != nil {
		s.onClose()
	}
	return s.closeErr
}

// failingReadCloser reads through but fails on Close
type failingReadCloser struct {
	io.ReadCloser
	err error
}

func (f failingReadCloser) Close() error {
	f.ReadCloser.Close()
	return f.err
}

// trackingCloser counts Close calls
type trackingCloser struct {
	closes int
	err    error
}

func (c *trackingCloser) Close() error {
	c.closes++
	return c.err
}

// recordingSink keeps everything written and can fail on demand
type recordingSink struct {
	got      bytes.Buffer
	writes   int
	flushes  int
	closes   int
	writeErr error
	closeErr error
}

func (s *recordingSink) Write(source *Buffer, byteCount int64) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes++
	_, err := io.CopyN(&s.got, source, byteCount)
	return err
}

func (s *recordingSink) Flush() error      { s.flushes++; return nil }
func (s *recordingSink) Timeout() *Timeout { return NoTimeout }

func (s *recordingSink) Close() error {
	s.closes++
	return s.closeErr
}

// generateTestData returns semi-compressible data
func generateTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		if i%4 == 0 {
			data[i] = byte(i % 256)
		} else {
			data[i] = byte(i % 64)
		}
	}
	return data
}

// generateIncompressibleData returns pseudo-random data
func generateIncompressibleData(size int) []byte {
	data := make([]byte, size)
	seed := uint64(12345)
	for i := range data {
		seed = seed*1103515245 + 12345
		data[i] = byte(seed >> 16)
	}
	return data
}

func mustCompress(t interface{ Fatalf(string, ...any) }, data []byte, algo Algorithm) []byte {
	out, err := CompressBytes(data, algo, 0)
	if err != nil {
		t.Fatalf("Failed to compress with %s: %v", algo, err)
	}
	return out
}
