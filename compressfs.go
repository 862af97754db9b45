package streamfs

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/absfs/absfs"
	"go.uber.org/zap"
)

var ErrAppendNotSupported = errors.New("streamfs: append not supported for compressed files")

// Config holds compression filesystem configuration
type Config struct {
	// Algorithm to use for compression (default: zstd)
	Algorithm Algorithm `yaml:"algorithm"`

	// Compression level, 0 for the algorithm default
	// gzip, zlib, deflate: 1-9
	// zstd: 1-22
	// lz4: 1-9
	// brotli: 1-11
	// snappy: ignored (no levels)
	Level int `yaml:"level"`

	// Regex patterns for files that are stored uncompressed
	// Examples: []string{`\.jpg$`, `\.png$`, `\.mp4$`, `\.zip$`}
	SkipPatterns []string `yaml:"skip_patterns"`

	// Detect compressed content by magic bytes when the name has no
	// compression extension
	AutoDetect bool `yaml:"auto_detect"`

	// Keep the original extension (file.txt.gz vs file.gz)
	PreserveExtension bool `yaml:"preserve_extension"`

	// Find compressed siblings when callers use the plain name
	StripExtension bool `yaml:"strip_extension"`

	// Files smaller than this are stored uncompressed
	MinSize int64 `yaml:"min_size"`

	// Logger receives debug and warning events. Nil disables logging.
	Logger *zap.Logger `yaml:"-"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Algorithm:         AlgorithmZstd,
		Level:             3,
		AutoDetect:        true,
		PreserveExtension: true,
		StripExtension:    true,
		MinSize:           0,
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if err := ValidateLevel(c.Algorithm, c.Level); err != nil {
		return err
	}
	if c.MinSize < 0 {
		return fmt.Errorf("%w: min_size must not be negative, got %d", ErrInvalidArgument, c.MinSize)
	}
	if _, err := compileSkipPatterns(c.SkipPatterns); err != nil {
		return fmt.Errorf("%w: skip_patterns: %w", ErrInvalidArgument, err)
	}
	return nil
}

func compileSkipPatterns(patterns []string) (*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	return regexp.Compile("(?:" + strings.Join(patterns, "|") + ")")
}

// FS wraps an absfs.Filer with transparent compression
type FS struct {
	base   absfs.Filer
	config *Config
	skip   *regexp.Regexp
	log    *zap.Logger
	stats  counters

	mu         sync.RWMutex
	algoCounts map[Algorithm]int64
}

type counters struct {
	filesCompressed   atomic.Int64
	filesDecompressed atomic.Int64
	filesSkipped      atomic.Int64
	bytesRead         atomic.Int64
	bytesWritten      atomic.Int64
	bytesCompressed   atomic.Int64
}

// New creates a new compressed filesystem wrapper. A nil config selects
// DefaultConfig.
func New(base absfs.Filer, config *Config) (*FS, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	skip, err := compileSkipPatterns(config.SkipPatterns)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := *config
	return &FS{
		base:       base,
		config:     &cfg,
		skip:       skip,
		log:        logger.With(zap.String("component", "streamfs")),
		algoCounts: make(map[Algorithm]int64),
	}, nil
}

// Base returns the wrapped file system
func (cfs *FS) Base() absfs.Filer {
	return cfs.base
}

// shouldSkip returns true if the file should not be compressed
func (cfs *FS) shouldSkip(name string) bool {
	if cfs.skip == nil {
		return false
	}
	return cfs.skip.MatchString(name)
}

func (cfs *FS) settings() (Algorithm, int) {
	cfs.mu.RLock()
	defer cfs.mu.RUnlock()
	return cfs.config.Algorithm, cfs.config.Level
}

// SetAlgorithm changes the algorithm used for new files
func (cfs *FS) SetAlgorithm(algo Algorithm) error {
	cfs.mu.Lock()
	defer cfs.mu.Unlock()
	if err := ValidateLevel(algo, cfs.config.Level); err != nil {
		return err
	}
	cfs.config.Algorithm = algo
	return nil
}

// SetLevel changes the level used for new files
func (cfs *FS) SetLevel(level int) error {
	cfs.mu.Lock()
	defer cfs.mu.Unlock()
	if err := ValidateLevel(cfs.config.Algorithm, level); err != nil {
		return err
	}
	cfs.config.Level = level
	return nil
}

func (cfs *FS) countAlgorithm(algo Algorithm) {
	cfs.mu.Lock()
	cfs.algoCounts[algo]++
	cfs.mu.Unlock()
}

// StatsExtension is a snapshot of compression statistics, available as an
// extension under StatsKey
type StatsExtension struct {
	FilesCompressed   int64
	FilesDecompressed int64
	FilesSkipped      int64

	// Uncompressed bytes delivered to readers
	BytesRead int64
	// Uncompressed bytes accepted from writers
	BytesWritten int64
	// Bytes stored after compression
	BytesCompressed int64

	AlgorithmCounts map[Algorithm]int64
}

func (*StatsExtension) FileSystemExtension() {}

// CompressionRatio returns stored bytes over written bytes, 0 if nothing
// was written. Lower is better.
func (s *StatsExtension) CompressionRatio() float64 {
	if s.BytesWritten == 0 {
		return 0
	}
	return float64(s.BytesCompressed) / float64(s.BytesWritten)
}

// StatsKey looks up the *StatsExtension of a compressing file system
var StatsKey = NewExtensionKey[*StatsExtension]("streamfs.stats")

// Stats returns a snapshot of the current statistics
func (cfs *FS) Stats() *StatsExtension {
	cfs.mu.RLock()
	counts := make(map[Algorithm]int64, len(cfs.algoCounts))
	for k, v := range cfs.algoCounts {
		counts[k] = v
	}
	cfs.mu.RUnlock()

	return &StatsExtension{
		FilesCompressed:   cfs.stats.filesCompressed.Load(),
		FilesDecompressed: cfs.stats.filesDecompressed.Load(),
		FilesSkipped:      cfs.stats.filesSkipped.Load(),
		BytesRead:         cfs.stats.bytesRead.Load(),
		BytesWritten:      cfs.stats.bytesWritten.Load(),
		BytesCompressed:   cfs.stats.bytesCompressed.Load(),
		AlgorithmCounts:   counts,
	}
}

// ResetStats resets statistics to zero
func (cfs *FS) ResetStats() {
	cfs.stats.filesCompressed.Store(0)
	cfs.stats.filesDecompressed.Store(0)
	cfs.stats.filesSkipped.Store(0)
	cfs.stats.bytesRead.Store(0)
	cfs.stats.bytesWritten.Store(0)
	cfs.stats.bytesCompressed.Store(0)

	cfs.mu.Lock()
	cfs.algoCounts = make(map[Algorithm]int64)
	cfs.mu.Unlock()
}

// Extension answers StatsKey itself and forwards other keys to the base
func (cfs *FS) Extension(key any) (FileSystemExtension, bool) {
	if key == any(StatsKey) {
		return cfs.Stats(), true
	}
	if efs, ok := cfs.base.(ExtensionFS); ok {
		return efs.Extension(key)
	}
	return nil, false
}
