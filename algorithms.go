package streamfs

import (
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm
type Algorithm string

const (
	AlgorithmGzip    Algorithm = "gzip"
	AlgorithmZlib    Algorithm = "zlib"
	AlgorithmDeflate Algorithm = "deflate"
	AlgorithmZstd    Algorithm = "zstd"
	AlgorithmLZ4     Algorithm = "lz4"
	AlgorithmBrotli  Algorithm = "brotli"
	AlgorithmSnappy  Algorithm = "snappy"
)

// Algorithms lists every supported algorithm in detection order
var Algorithms = []Algorithm{
	AlgorithmGzip,
	AlgorithmZstd,
	AlgorithmLZ4,
	AlgorithmBrotli,
	AlgorithmSnappy,
	AlgorithmZlib,
	AlgorithmDeflate,
}

// levelRange is the inclusive range of explicit levels; 0 always selects the
// algorithm default
var levelRange = map[Algorithm][2]int{
	AlgorithmGzip:    {1, 9},
	AlgorithmZlib:    {1, 9},
	AlgorithmDeflate: {1, 9},
	AlgorithmZstd:    {1, 22},
	AlgorithmLZ4:     {1, 9},
	AlgorithmBrotli:  {1, 11},
	AlgorithmSnappy:  {0, 0},
}

// Valid reports whether the algorithm is supported
func (a Algorithm) Valid() bool {
	_, ok := levelRange[a]
	return ok
}

// ValidateLevel checks level against the algorithm's range
func ValidateLevel(algo Algorithm, level int) error {
	r, ok := levelRange[algo]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	if level == 0 {
		return nil
	}
	if level < r[0] || level > r[1] {
		return fmt.Errorf("%w: %s accepts %d-%d, got %d", ErrInvalidLevel, algo, r[0], r[1], level)
	}
	return nil
}

// NewCompressor returns a writer that compresses into w. Level 0 selects the
// algorithm default. The writer must be closed to flush the stream trailer.
func NewCompressor(algo Algorithm, w io.Writer, level int) (io.WriteCloser, error) {
	if err := ValidateLevel(algo, level); err != nil {
		return nil, err
	}

	switch algo {
	case AlgorithmGzip:
		return gzip.NewWriterLevel(w, flateLevel(level))
	case AlgorithmZlib:
		return zlib.NewWriterLevel(w, flateLevel(level))
	case AlgorithmDeflate:
		return flate.NewWriter(w, flateLevel(level))
	case AlgorithmZstd:
		opts := []zstd.EOption{}
		if level != 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		return zstd.NewWriter(w, opts...)
	case AlgorithmLZ4:
		zw := lz4.NewWriter(w)
		if level != 0 {
			if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
				return nil, err
			}
		}
		return zw, nil
	case AlgorithmBrotli:
		if level == 0 {
			level = brotli.DefaultCompression
		}
		return brotli.NewWriterLevel(w, level), nil
	case AlgorithmSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// newDecompressor returns a reader that decompresses r
func newDecompressor(algo Algorithm, r io.Reader) (io.ReadCloser, error) {
	switch algo {
	case AlgorithmGzip:
		return gzip.NewReader(r)
	case AlgorithmZlib:
		return zlib.NewReader(r)
	case AlgorithmDeflate:
		return flate.NewReader(r), nil
	case AlgorithmZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case AlgorithmLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case AlgorithmBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case AlgorithmSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

func flateLevel(level int) int {
	if level == 0 {
		return flate.DefaultCompression
	}
	return level
}

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1,
	lz4.Level2,
	lz4.Level3,
	lz4.Level4,
	lz4.Level5,
	lz4.Level6,
	lz4.Level7,
	lz4.Level8,
	lz4.Level9,
}
