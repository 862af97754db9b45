package streamfs

// BlackholeSink returns a sink that discards everything written to it.
// It never blocks and never fails, which makes it useful for skipping or
// counting bytes:
//
//	n, err := src.ReadAll(streamfs.BlackholeSink())
func BlackholeSink() Sink {
	return blackholeSink{}
}

type blackholeSink struct{}

func (blackholeSink) Write(source *Buffer, byteCount int64) error {
	// Discard what is there even if the caller overstates the count
	return source.Skip(min(max(byteCount, 0), source.Size()))
}

func (blackholeSink) Flush() error      { return nil }
func (blackholeSink) Timeout() *Timeout { return NoTimeout }
func (blackholeSink) Close() error      { return nil }
