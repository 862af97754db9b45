package streamfs

import (
	"bytes"
	"path"
	"strings"
)

// Extension mapping
var extensionMap = map[Algorithm]string{
	AlgorithmGzip:    ".gz",
	AlgorithmZlib:    ".zz",
	AlgorithmDeflate: ".deflate",
	AlgorithmZstd:    ".zst",
	AlgorithmLZ4:     ".lz4",
	AlgorithmBrotli:  ".br",
	AlgorithmSnappy:  ".sz",
}

// Reverse extension mapping (extension -> algorithm)
var reverseExtensionMap = map[string]Algorithm{
	".gz":      AlgorithmGzip,
	".gzip":    AlgorithmGzip,
	".zz":      AlgorithmZlib,
	".deflate": AlgorithmDeflate,
	".zst":     AlgorithmZstd,
	".zstd":    AlgorithmZstd,
	".lz4":     AlgorithmLZ4,
	".br":      AlgorithmBrotli,
	".sz":      AlgorithmSnappy,
	".snappy":  AlgorithmSnappy,
}

// Magic bytes for formats that have them. Brotli, zlib and raw deflate
// streams cannot be recognized reliably and are trusted by extension.
var magicBytes = map[Algorithm][]byte{
	AlgorithmGzip:   {0x1f, 0x8b},
	AlgorithmZstd:   {0x28, 0xb5, 0x2f, 0xfd},
	AlgorithmLZ4:    {0x04, 0x22, 0x4d, 0x18},
	AlgorithmSnappy: {0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59},
}

// maxMagicLen is the longest magic prefix
const maxMagicLen = 10

// GetExtension returns the file extension for an algorithm
func GetExtension(algo Algorithm) string {
	return extensionMap[algo]
}

// DetectAlgorithmFromExtension detects the algorithm from file extension
func DetectAlgorithmFromExtension(name string) (Algorithm, bool) {
	algo, ok := reverseExtensionMap[strings.ToLower(path.Ext(name))]
	return algo, ok
}

// AddExtension adds the compression extension to a filename
func AddExtension(name string, algo Algorithm, preserveOriginal bool) string {
	ext := GetExtension(algo)
	if ext == "" {
		return name
	}

	if preserveOriginal {
		return name + ext
	}

	// Replace original extension
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

// StripExtension removes compression extension from filename
func StripExtension(name string) (string, Algorithm, bool) {
	ext := path.Ext(name)
	if algo, ok := reverseExtensionMap[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(name, ext), algo, true
	}
	return name, "", false
}

// HasCompressionExtension checks if filename has a compression extension
func HasCompressionExtension(name string) bool {
	_, ok := DetectAlgorithmFromExtension(name)
	return ok
}

// IsCompressed checks if data appears to be compressed based on magic bytes
func IsCompressed(data []byte) (Algorithm, bool) {
	for _, algo := range Algorithms {
		magic, ok := magicBytes[algo]
		if ok && bytes.HasPrefix(data, magic) {
			return algo, true
		}
	}
	return "", false
}

// hasMagic reports whether algo streams start with a recognizable prefix
func hasMagic(algo Algorithm) bool {
	_, ok := magicBytes[algo]
	return ok
}
