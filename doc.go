// Package streamfs provides pull-based byte streams, a streaming
// decompression adapter, and composable decorators for absfs file systems.
//
// # Streams
//
// A [Source] produces bytes into a [Buffer] and a [Sink] consumes bytes from
// one. [NewBufferedSource] and [NewBufferedSink] add an internal buffer for
// small reads and writes, and [SourceFromReader] / [SinkFromWriter] adapt
// the io package.
//
//	src := streamfs.NewBufferedSource(streamfs.SourceFromReader(r))
//	n, err := src.ReadAll(streamfs.BlackholeSink()) // count and discard
//
// End of stream is (0, io.EOF). A zero-length read returns (0, nil).
//
// # Decompression
//
// [InflaterSource] exposes an [Inflater] as an ordinary Source. The source
// closes the compressed stream it wraps; the inflater belongs to the caller.
//
//	inf, _ := streamfs.NewInflater(streamfs.AlgorithmGzip)
//	src := streamfs.NewInflaterSource(streamfs.SourceFromReader(f), inf)
//	data, err := streamfs.Use(streamfs.NewBufferedSource(src),
//	    func(s streamfs.BufferedSource) ([]byte, error) {
//	        return s.ReadAllBytes()
//	    })
//
// Supported algorithms: gzip, zlib, deflate, zstd, lz4, brotli, snappy.
//
// [Use] closes a resource on every exit path. When the block and Close
// both fail, the result is a [*UseError] carrying the block's error and the
// close error as a suppressed error.
//
// # File System Decorators
//
// [Extend] attaches a typed [FileSystemExtension] to any absfs.Filer and
// [Extension] looks it up. [NewMappedFS] rewrites paths with a
// [PathMapper]; mappers compose with [Chain], where parameters flow from
// outer to inner and results from inner to outer.
//
//	jail := streamfs.NewMappedFS(base, streamfs.Chain(
//	    streamfs.AuditMapper(logger),
//	    streamfs.ChrootMapper("/srv/data"),
//	))
//
// [New] wraps a file system with transparent compression: files are
// compressed on Close and decompressed through an InflaterSource on read.
//
//	cfs, _ := streamfs.New(base, &streamfs.Config{
//	    Algorithm:         streamfs.AlgorithmZstd,
//	    Level:             3,
//	    PreserveExtension: true,
//	    StripExtension:    true,
//	})
//	stats, _ := streamfs.Extension(cfs, streamfs.StatsKey)
//
// None of the types here are safe for concurrent use unless documented.
package streamfs
