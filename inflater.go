package streamfs

import (
	"errors"
	"fmt"
	"io"
)

// Inflater is a stateful decompression engine. It pulls compressed bytes
// from a BufferedSource and produces decompressed bytes into a Buffer.
//
// An Inflater binds to the first source it is given. Producing from a
// different source discards the transform state and starts a new stream.
// Once closed it cannot be used again.
type Inflater struct {
	algo Algorithm

	src BufferedSource
	in  *recordingReader
	r   io.ReadCloser

	produced int64
	finished bool
	closed   bool
}

// NewInflater returns an engine for algo
func NewInflater(algo Algorithm) (*Inflater, error) {
	if !algo.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	return &Inflater{algo: algo}, nil
}

// Algorithm returns the engine's algorithm
func (inf *Inflater) Algorithm() Algorithm {
	return inf.algo
}

// Closed reports whether Close has been called
func (inf *Inflater) Closed() bool {
	return inf.closed
}

// Finished reports whether the end of the compressed stream was reached
func (inf *Inflater) Finished() bool {
	return inf.finished
}

// BytesProduced returns the total number of decompressed bytes produced
func (inf *Inflater) BytesProduced() int64 {
	return inf.produced
}

// Produce decompresses at most maxByteCount bytes from source into target
// and returns how many it wrote. It returns (0, io.EOF) when the compressed
// stream is complete and (0, nil) when maxByteCount is zero.
//
// Failures reading source are returned unchanged. Any other decompression
// failure wraps ErrMalformedStream.
func (inf *Inflater) Produce(source BufferedSource, maxByteCount int64, target *Buffer) (int64, error) {
	if err := checkByteCount(maxByteCount); err != nil {
		return 0, err
	}
	if inf.closed {
		return 0, ErrClosed
	}
	if maxByteCount == 0 {
		return 0, nil
	}
	if err := inf.bind(source); err != nil {
		return 0, err
	}
	if inf.finished {
		return 0, io.EOF
	}

	buf := make([]byte, min(maxByteCount, SegmentSize))
	for {
		n, err := inf.r.Read(buf)
		if n > 0 {
			target.Write(buf[:n])
			inf.produced += int64(n)
		}
		if err == io.EOF {
			inf.finished = true
			if n > 0 {
				return int64(n), nil
			}
			return 0, io.EOF
		}
		if err != nil {
			return int64(n), inf.translate(err)
		}
		if n > 0 {
			return int64(n), nil
		}
	}
}

// bind attaches the decompressor to source, creating it on first use
func (inf *Inflater) bind(source BufferedSource) error {
	if inf.r != nil && inf.src == source {
		return nil
	}
	if inf.r != nil {
		inf.r.Close()
		inf.r = nil
	}

	inf.src = source
	inf.finished = false
	inf.in = &recordingReader{r: source.Reader()}
	r, err := newDecompressor(inf.algo, inf.in)
	if err != nil {
		// An empty source cannot hold a valid stream header
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return inf.translate(err)
	}
	inf.r = r
	return nil
}

// translate separates source failures from malformed input
func (inf *Inflater) translate(err error) error {
	if inf.in != nil && inf.in.err != nil && errors.Is(err, inf.in.err) && inf.in.err != io.EOF {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrMalformedStream, inf.algo, err)
}

// Close releases the transform state. It is safe to call more than once.
func (inf *Inflater) Close() error {
	if inf.closed {
		return nil
	}
	inf.closed = true
	if inf.r == nil {
		return nil
	}
	err := inf.r.Close()
	inf.r = nil
	return err
}

// recordingReader remembers the last error of the reader it wraps so source
// failures can be told apart from decoding failures
type recordingReader struct {
	r   io.Reader
	err error
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil {
		rr.err = err
	}
	return n, err
}

func (rr *recordingReader) ReadByte() (byte, error) {
	br, ok := rr.r.(io.ByteReader)
	if !ok {
		var b [1]byte
		_, err := io.ReadFull(rr, b[:])
		return b[0], err
	}
	c, err := br.ReadByte()
	if err != nil {
		rr.err = err
	}
	return c, err
}
