package streamfs

import (
	"errors"
	"io"
	"testing"
)

func TestBufferSkip(t *testing.T) {
	var b Buffer
	b.WriteString("hello")

	if err := b.Skip(2); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if got := b.String(); got != "llo" {
		t.Fatalf("Expected %q after skip, got %q", "llo", got)
	}

	if err := b.Skip(10); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Expected io.ErrUnexpectedEOF, got %v", err)
	}
	if b.Size() != 3 {
		t.Fatalf("Failed skip must not consume, size is %d", b.Size())
	}

	if err := b.Skip(-1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestBufferTransfer(t *testing.T) {
	var src, dst Buffer
	src.WriteString("abcdef")

	if n := src.Transfer(&dst, 4); n != 4 {
		t.Fatalf("Expected 4 bytes moved, got %d", n)
	}
	if n := src.Transfer(&dst, 100); n != 2 {
		t.Fatalf("Expected remaining 2 bytes moved, got %d", n)
	}
	if n := src.Transfer(&dst, 1); n != 0 {
		t.Fatalf("Expected nothing moved from empty buffer, got %d", n)
	}
	if dst.String() != "abcdef" || src.Size() != 0 {
		t.Fatalf("Unexpected buffers: src=%q dst=%q", src.String(), dst.String())
	}
}

func TestBufferSnapshotDoesNotConsume(t *testing.T) {
	var b Buffer
	b.WriteString("data")

	snap := b.Snapshot()
	snap[0] = 'X'

	if b.String() != "data" {
		t.Fatalf("Snapshot must be a copy, buffer is %q", b.String())
	}

	p := make([]byte, 0)
	if n, err := b.Read(p); n != 0 || err != nil {
		t.Fatalf("Zero-length read should be (0, nil), got (%d, %v)", n, err)
	}
}
