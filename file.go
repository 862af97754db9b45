package streamfs

import (
	"io"
	"io/fs"

	"github.com/absfs/absfs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// readFile streams the decompressed content of a stored file. Metadata
// calls go to the stored file.
type readFile struct {
	absfs.File
	cfs    *FS
	name   string
	algo   Algorithm
	source BufferedSource

	bytesRead int64
	closed    bool
}

func newReadFile(cfs *FS, base absfs.File, name string, algo Algorithm, src *InflaterSource) *readFile {
	return &readFile{
		File:   base,
		cfs:    cfs,
		name:   name,
		algo:   algo,
		source: NewBufferedSource(src),
	}
}

// Name returns the name the file was opened with
func (rf *readFile) Name() string {
	return rf.name
}

// Algorithm returns the compression algorithm of the stored file
func (rf *readFile) Algorithm() Algorithm {
	return rf.algo
}

func (rf *readFile) Read(p []byte) (int, error) {
	if rf.closed {
		return 0, &fs.PathError{Op: "read", Path: rf.name, Err: fs.ErrClosed}
	}
	n, err := rf.source.Reader().Read(p)
	if n > 0 {
		rf.bytesRead += int64(n)
		rf.cfs.stats.bytesRead.Add(int64(n))
	}
	if err != nil && err != io.EOF {
		err = &fs.PathError{Op: "read", Path: rf.name, Err: err}
	}
	return n, err
}

func (rf *readFile) ReadAt(b []byte, off int64) (int, error) {
	return 0, &fs.PathError{Op: "readat", Path: rf.name, Err: ErrSeekNotSupported}
}

func (rf *readFile) Write(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "write", Path: rf.name, Err: fs.ErrPermission}
}

func (rf *readFile) WriteAt(b []byte, off int64) (int, error) {
	return 0, &fs.PathError{Op: "writeat", Path: rf.name, Err: fs.ErrPermission}
}

func (rf *readFile) WriteString(s string) (int, error) {
	return rf.Write([]byte(s))
}

// Seek only reports the current position of the decompressed stream
func (rf *readFile) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekCurrent {
		return rf.bytesRead, nil
	}
	return 0, &fs.PathError{Op: "seek", Path: rf.name, Err: ErrSeekNotSupported}
}

func (rf *readFile) Truncate(size int64) error {
	return &fs.PathError{Op: "truncate", Path: rf.name, Err: ErrSeekNotSupported}
}

// Close releases the decompressor and closes the stored file
func (rf *readFile) Close() error {
	if rf.closed {
		return nil
	}
	rf.closed = true

	err := rf.source.Close()
	rf.cfs.stats.filesDecompressed.Add(1)
	rf.cfs.countAlgorithm(rf.algo)
	rf.cfs.log.Debug("decompressed",
		zap.String("name", rf.name),
		zap.String("algorithm", string(rf.algo)),
		zap.Int64("bytes", rf.bytesRead),
	)
	return err
}

// plainFile replays bytes that were peeked while probing for compression
// and then continues with the stored file
type plainFile struct {
	absfs.File
	source BufferedSource
	pos    int64
	closed bool
}

func newPlainFile(base absfs.File, src BufferedSource) *plainFile {
	return &plainFile{File: base, source: src}
}

func (pf *plainFile) Read(p []byte) (int, error) {
	if pf.closed {
		return 0, &fs.PathError{Op: "read", Path: pf.Name(), Err: fs.ErrClosed}
	}
	n, err := pf.source.Reader().Read(p)
	pf.pos += int64(n)
	return n, err
}

// Seek drops the replay buffer and defers to the stored file
func (pf *plainFile) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekCurrent {
		return pf.pos, nil
	}
	if whence == io.SeekCurrent {
		offset += pf.pos
		whence = io.SeekStart
	}
	pos, err := pf.File.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	pf.source.Buffer().Clear()
	pf.pos = pos
	return pos, nil
}

func (pf *plainFile) ReadAt(b []byte, off int64) (int, error) {
	return pf.File.ReadAt(b, off)
}

func (pf *plainFile) Close() error {
	if pf.closed {
		return nil
	}
	pf.closed = true
	return pf.source.Close()
}

// writeFile collects written bytes and stores them compressed on Close
type writeFile struct {
	absfs.File
	cfs    *FS
	name   string
	stored string
	algo   Algorithm
	level  int

	buf    Buffer
	closed bool
}

func newWriteFile(cfs *FS, base absfs.File, name, stored string, algo Algorithm, level int) *writeFile {
	return &writeFile{
		File:   base,
		cfs:    cfs,
		name:   name,
		stored: stored,
		algo:   algo,
		level:  level,
	}
}

// Name returns the name the file was opened with
func (wf *writeFile) Name() string {
	return wf.name
}

// Algorithm returns the compression algorithm used on Close
func (wf *writeFile) Algorithm() Algorithm {
	return wf.algo
}

func (wf *writeFile) Write(p []byte) (int, error) {
	if wf.closed {
		return 0, &fs.PathError{Op: "write", Path: wf.name, Err: fs.ErrClosed}
	}
	return wf.buf.Write(p)
}

func (wf *writeFile) WriteString(s string) (int, error) {
	return wf.Write([]byte(s))
}

func (wf *writeFile) WriteAt(b []byte, off int64) (int, error) {
	return 0, &fs.PathError{Op: "writeat", Path: wf.name, Err: ErrSeekNotSupported}
}

func (wf *writeFile) Read(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: wf.name, Err: fs.ErrPermission}
}

func (wf *writeFile) ReadAt(b []byte, off int64) (int, error) {
	return 0, &fs.PathError{Op: "readat", Path: wf.name, Err: fs.ErrPermission}
}

func (wf *writeFile) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekCurrent {
		return wf.buf.Size(), nil
	}
	return 0, &fs.PathError{Op: "seek", Path: wf.name, Err: ErrSeekNotSupported}
}

func (wf *writeFile) Truncate(size int64) error {
	return &fs.PathError{Op: "truncate", Path: wf.name, Err: ErrSeekNotSupported}
}

// Sync is a no-op; nothing reaches the stored file before Close
func (wf *writeFile) Sync() error {
	if wf.closed {
		return &fs.PathError{Op: "sync", Path: wf.name, Err: fs.ErrClosed}
	}
	return nil
}

// Close stores the collected bytes. Empty files are stored empty, files
// below MinSize are stored plain under the original name.
func (wf *writeFile) Close() error {
	if wf.closed {
		return nil
	}
	wf.closed = true

	size := wf.buf.Size()
	wf.cfs.stats.bytesWritten.Add(size)
	switch {
	case size == 0:
		return wf.File.Close()
	case size < wf.cfs.config.MinSize:
		return wf.storePlain()
	default:
		return wf.storeCompressed()
	}
}

func (wf *writeFile) storeCompressed() error {
	counter := &countingWriter{w: wf.File}
	zw, err := NewCompressor(wf.algo, counter, wf.level)
	if err != nil {
		return multierr.Append(err, wf.File.Close())
	}

	// Closing the sink closes the compressor, which writes the trailer
	sink := NewBufferedSink(SinkFromWriter(zw))
	err = sink.Write(&wf.buf, wf.buf.Size())
	err = multierr.Append(err, sink.Close())
	err = multierr.Append(err, wf.File.Close())
	if err != nil {
		return &fs.PathError{Op: "close", Path: wf.name, Err: err}
	}

	wf.cfs.stats.filesCompressed.Add(1)
	wf.cfs.stats.bytesCompressed.Add(counter.n)
	wf.cfs.countAlgorithm(wf.algo)
	wf.cfs.log.Debug("compressed",
		zap.String("name", wf.name),
		zap.String("stored", wf.stored),
		zap.String("algorithm", string(wf.algo)),
		zap.Int64("bytes", counter.n),
	)
	return nil
}

func (wf *writeFile) storePlain() error {
	_, err := wf.buf.WriteTo(wf.File)
	err = multierr.Append(err, wf.File.Close())
	if err != nil {
		return &fs.PathError{Op: "close", Path: wf.name, Err: err}
	}
	wf.cfs.stats.filesSkipped.Add(1)

	// Drop the compression extension so reads don't try to decompress
	if wf.stored != wf.name && !HasCompressionExtension(wf.name) {
		if err := wf.cfs.base.Rename(wf.stored, wf.name); err != nil {
			wf.cfs.log.Warn("rename of uncompressed file failed",
				zap.String("stored", wf.stored),
				zap.String("name", wf.name),
				zap.Error(err),
			)
			return &fs.PathError{Op: "close", Path: wf.name, Err: err}
		}
	}
	return nil
}

// countingWriter counts bytes written through it
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
