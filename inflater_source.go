package streamfs

import (
	"go.uber.org/multierr"
)

// InflaterSource is a Source that yields the decompressed form of a
// compressed Source.
//
// The source owns the buffered compressed stream it builds around the raw
// source and closes it. It does not own the Inflater: the caller may share
// one engine across sources, and must close it itself if Close is never
// reached.
type InflaterSource struct {
	source   BufferedSource
	inflater *Inflater
}

// NewInflaterSource returns a Source that decompresses src with inf
func NewInflaterSource(src Source, inf *Inflater) *InflaterSource {
	return &InflaterSource{
		source:   NewBufferedSource(src),
		inflater: inf,
	}
}

// Read decompresses up to byteCount bytes into sink. It never returns more
// than byteCount. Corrupt or truncated input fails with an error wrapping
// ErrMalformedStream.
func (s *InflaterSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	if err := checkByteCount(byteCount); err != nil {
		return 0, err
	}
	return s.inflater.Produce(s.source, byteCount, sink)
}

// Timeout returns the timeout of the compressed source
func (s *InflaterSource) Timeout() *Timeout {
	return s.source.Timeout()
}

// Close releases the inflater and then closes the compressed source.
// Calls after the inflater is closed do nothing.
func (s *InflaterSource) Close() error {
	if s.inflater.Closed() {
		return nil
	}

	// The engine goes first so it can still read the source while finishing
	err := s.inflater.Close()
	return multierr.Append(err, s.source.Close())
}
