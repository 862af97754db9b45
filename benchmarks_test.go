package streamfs

import (
	"bytes"
	"io"
	"testing"

	"github.com/absfs/streamfs/internal/memfs"
)

func generateHighlyCompressibleData(size int) []byte {
	data := make([]byte, size)
	pattern := []byte("The quick brown fox jumps over the lazy dog. ")
	for i := range data {
		data[i] = pattern[i%len(pattern)]
	}
	return data
}

// Benchmark write operations through the compressing file system
func benchmarkCompressionWrite(b *testing.B, algo Algorithm, level int, data []byte) {
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cfs, _ := New(memfs.New(), &Config{
			Algorithm:         algo,
			Level:             level,
			PreserveExtension: true,
			StripExtension:    true,
		})

		f, _ := cfs.Create("/test.bin")
		f.Write(data)
		if err := f.Close(); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark streaming decompression through InflaterSource
func benchmarkInflaterSource(b *testing.B, algo Algorithm, dataSize int) {
	compressed := mustCompress(b, generateTestData(dataSize), algo)

	b.ReportAllocs()
	b.SetBytes(int64(dataSize))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		inf, _ := NewInflater(algo)
		src := NewBufferedSource(NewInflaterSource(SourceFromReader(bytes.NewReader(compressed)), inf))
		n, err := src.ReadAll(BlackholeSink())
		if err != nil {
			b.Fatal(err)
		}
		if n != int64(dataSize) {
			b.Fatalf("Expected %d bytes, got %d", dataSize, n)
		}
		src.Close()
	}
}

func benchmarkRoundTrip(b *testing.B, algo Algorithm, level int, dataSize int) {
	data := generateTestData(dataSize)

	b.ReportAllocs()
	b.SetBytes(int64(dataSize))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cfs, _ := New(memfs.New(), &Config{
			Algorithm:         algo,
			Level:             level,
			PreserveExtension: true,
			StripExtension:    true,
		})

		f, _ := cfs.Create("/test.bin")
		f.Write(data)
		f.Close()

		f, _ = cfs.Open("/test.bin")
		io.Copy(io.Discard, f)
		f.Close()
	}
}

func BenchmarkGzipWrite256KB(b *testing.B) {
	benchmarkCompressionWrite(b, AlgorithmGzip, 6, generateTestData(256*1024))
}
func BenchmarkZstdWrite256KB(b *testing.B) {
	benchmarkCompressionWrite(b, AlgorithmZstd, 3, generateTestData(256*1024))
}
func BenchmarkLZ4Write256KB(b *testing.B) {
	benchmarkCompressionWrite(b, AlgorithmLZ4, 0, generateTestData(256*1024))
}
func BenchmarkBrotliWrite256KB(b *testing.B) {
	benchmarkCompressionWrite(b, AlgorithmBrotli, 6, generateTestData(256*1024))
}
func BenchmarkSnappyWrite256KB(b *testing.B) {
	benchmarkCompressionWrite(b, AlgorithmSnappy, 0, generateTestData(256*1024))
}

func BenchmarkZstdWriteHighlyCompressible1MB(b *testing.B) {
	benchmarkCompressionWrite(b, AlgorithmZstd, 3, generateHighlyCompressibleData(1024*1024))
}
func BenchmarkZstdWriteIncompressible1MB(b *testing.B) {
	benchmarkCompressionWrite(b, AlgorithmZstd, 3, generateIncompressibleData(1024*1024))
}

func BenchmarkInflaterSourceGzip1MB(b *testing.B)    { benchmarkInflaterSource(b, AlgorithmGzip, 1024*1024) }
func BenchmarkInflaterSourceZlib1MB(b *testing.B)    { benchmarkInflaterSource(b, AlgorithmZlib, 1024*1024) }
func BenchmarkInflaterSourceDeflate1MB(b *testing.B) { benchmarkInflaterSource(b, AlgorithmDeflate, 1024*1024) }
func BenchmarkInflaterSourceZstd1MB(b *testing.B)    { benchmarkInflaterSource(b, AlgorithmZstd, 1024*1024) }
func BenchmarkInflaterSourceLZ41MB(b *testing.B)     { benchmarkInflaterSource(b, AlgorithmLZ4, 1024*1024) }
func BenchmarkInflaterSourceBrotli1MB(b *testing.B)  { benchmarkInflaterSource(b, AlgorithmBrotli, 1024*1024) }
func BenchmarkInflaterSourceSnappy1MB(b *testing.B)  { benchmarkInflaterSource(b, AlgorithmSnappy, 1024*1024) }

func BenchmarkGzipRoundTrip1MB(b *testing.B) { benchmarkRoundTrip(b, AlgorithmGzip, 6, 1024*1024) }
func BenchmarkZstdRoundTrip1MB(b *testing.B) { benchmarkRoundTrip(b, AlgorithmZstd, 3, 1024*1024) }
func BenchmarkLZ4RoundTrip1MB(b *testing.B)  { benchmarkRoundTrip(b, AlgorithmLZ4, 0, 1024*1024) }

func BenchmarkBlackholeReadAll1MB(b *testing.B) {
	data := generateTestData(1024 * 1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		src := NewBufferedSource(SourceFromReader(bytes.NewReader(data)))
		src.ReadAll(BlackholeSink())
	}
}
