package streamfs

import (
	"bytes"

	"github.com/absfs/absfs"
)

// Preset configurations for common use cases

// skipCompressed matches formats that are already compressed
var skipCompressed = []string{
	`\.(jpg|jpeg|png|gif|webp)$`,
	`\.(mp4|mkv|avi|mov|webm)$`,
	`\.(mp3|flac|ogg|m4a|aac)$`,
	`\.(zip|bz2|xz|7z|rar)$`,
}

// FastestConfig returns a configuration optimized for speed
func FastestConfig() *Config {
	return &Config{
		Algorithm:         AlgorithmLZ4,
		AutoDetect:        true,
		PreserveExtension: true,
		StripExtension:    true,
	}
}

// RecommendedConfig returns the recommended configuration for general use.
// Zstd level 3 compresses well at good speed.
func RecommendedConfig() *Config {
	return &Config{
		Algorithm:         AlgorithmZstd,
		Level:             3,
		AutoDetect:        true,
		PreserveExtension: true,
		StripExtension:    true,
		MinSize:           512,
		SkipPatterns:      skipCompressed,
	}
}

// BestCompressionConfig returns a configuration optimized for maximum
// compression, for write-once/read-many content
func BestCompressionConfig() *Config {
	return &Config{
		Algorithm:         AlgorithmBrotli,
		Level:             11,
		AutoDetect:        true,
		PreserveExtension: true,
		StripExtension:    true,
		MinSize:           1024,
		SkipPatterns:      skipCompressed,
	}
}

// CompatibleConfig returns a configuration using gzip for maximum compatibility
func CompatibleConfig() *Config {
	return &Config{
		Algorithm:         AlgorithmGzip,
		Level:             6,
		AutoDetect:        true,
		PreserveExtension: true,
		StripExtension:    true,
		MinSize:           512,
		SkipPatterns:      skipCompressed,
	}
}

// LowCPUConfig returns a configuration optimized for low CPU usage
func LowCPUConfig() *Config {
	return &Config{
		Algorithm:         AlgorithmSnappy,
		AutoDetect:        true,
		PreserveExtension: true,
		StripExtension:    true,
		MinSize:           1024,
		SkipPatterns:      skipCompressed,
	}
}

// NewWithRecommendedConfig creates a new compressed filesystem with recommended settings
func NewWithRecommendedConfig(base absfs.Filer) (*FS, error) {
	return New(base, RecommendedConfig())
}

// NewWithFastestConfig creates a new compressed filesystem optimized for speed
func NewWithFastestConfig(base absfs.Filer) (*FS, error) {
	return New(base, FastestConfig())
}

// NewWithBestCompression creates a new compressed filesystem optimized for compression ratio
func NewWithBestCompression(base absfs.Filer) (*FS, error) {
	return New(base, BestCompressionConfig())
}

// CompressBytes compresses a byte slice using the specified algorithm and level
func CompressBytes(data []byte, algo Algorithm, level int) ([]byte, error) {
	var out bytes.Buffer
	zw, err := NewCompressor(algo, &out, level)
	if err != nil {
		return nil, err
	}

	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// DecompressBytes decompresses a byte slice using the specified algorithm
func DecompressBytes(data []byte, algo Algorithm) ([]byte, error) {
	inf, err := NewInflater(algo)
	if err != nil {
		return nil, err
	}

	src := NewInflaterSource(SourceFromReader(bytes.NewReader(data)), inf)
	return Use(NewBufferedSource(src), func(s BufferedSource) ([]byte, error) {
		return s.ReadAllBytes()
	})
}

// DetectCompressionAlgorithm detects the compression algorithm from data
func DetectCompressionAlgorithm(data []byte) (Algorithm, bool) {
	return IsCompressed(data)
}

// GetCompressionRatio calculates the compression ratio for given original and compressed sizes
// Returns a value between 0 and 1, where lower is better
// E.g., 0.5 means the compressed size is 50% of the original
func GetCompressionRatio(originalSize, compressedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	return float64(compressedSize) / float64(originalSize)
}

// GetCompressionPercentage calculates the compression percentage
// Returns the percentage of space saved (0-100)
// E.g., 50 means 50% space savings
func GetCompressionPercentage(originalSize, compressedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	return (1 - float64(compressedSize)/float64(originalSize)) * 100
}
