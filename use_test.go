package streamfs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestUse(t *testing.T) {
	tests := []struct {
		name       string
		blockErr   error
		closeErr   error
		wantIs     error
		wantUseErr bool
		wantResult int
	}{
		{name: "success", wantResult: 42},
		{name: "block fails", blockErr: errBoom, wantIs: errBoom},
		{name: "close fails", closeErr: errCloseBoom, wantIs: errCloseBoom},
		{name: "both fail", blockErr: errBoom, closeErr: errCloseBoom, wantIs: errBoom, wantUseErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &trackingCloser{err: tt.closeErr}
			got, err := Use(c, func(c *trackingCloser) (int, error) {
				if c.closes != 0 {
					t.Fatal("Resource closed before the block ran")
				}
				return 42, tt.blockErr
			})

			if c.closes != 1 {
				t.Fatalf("Expected one close, got %d", c.closes)
			}
			if tt.wantIs == nil {
				if err != nil || got != tt.wantResult {
					t.Fatalf("Expected (%d, nil), got (%d, %v)", tt.wantResult, got, err)
				}
				return
			}
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("Expected %v, got %v", tt.wantIs, err)
			}
			if got != 0 {
				t.Fatalf("Failed Use should return the zero result, got %d", got)
			}

			var ue *UseError
			if errors.As(err, &ue) != tt.wantUseErr {
				t.Fatalf("UseError presence = %v, want %v (err %v)", !tt.wantUseErr, tt.wantUseErr, err)
			}
		})
	}
}

func TestUseSuppressesCloseError(t *testing.T) {
	c := &trackingCloser{err: errCloseBoom}
	_, err := Use(c, func(*trackingCloser) (struct{}, error) {
		return struct{}{}, errBoom
	})

	var ue *UseError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected *UseError, got %T", err)
	}
	if ue.Err != errBoom {
		t.Fatalf("Primary error should be the block's, got %v", ue.Err)
	}
	if len(ue.Suppressed) != 1 || ue.Suppressed[0] != errCloseBoom {
		t.Fatalf("Expected close error suppressed, got %v", ue.Suppressed)
	}
	if errors.Is(err, errCloseBoom) {
		t.Fatal("Suppressed error must not match errors.Is")
	}
	if !strings.Contains(err.Error(), "suppressed: close boom") {
		t.Fatalf("Error text should mention the suppressed error: %q", err.Error())
	}
}

func TestUseNilResource(t *testing.T) {
	var c *trackingCloser
	got, err := Use(c, func(c *trackingCloser) (string, error) {
		if c != nil {
			t.Fatal("Expected the nil resource to be passed through")
		}
		return "ran", nil
	})
	if err != nil || got != "ran" {
		t.Fatalf("Expected (ran, nil), got (%q, %v)", got, err)
	}

	var ic io.Closer
	if _, err := Use(ic, func(io.Closer) (int, error) { return 0, nil }); err != nil {
		t.Fatalf("Nil interface resource failed: %v", err)
	}
}

func TestUseClosesOnPanic(t *testing.T) {
	c := &trackingCloser{}
	defer func() {
		r := recover()
		if r != "kaboom" {
			t.Fatalf("Expected the panic to propagate, got %v", r)
		}
		if c.closes != 1 {
			t.Fatalf("Expected resource closed during panic, got %d closes", c.closes)
		}
	}()

	Use(c, func(*trackingCloser) (int, error) {
		panic("kaboom")
	})
}

func TestUseWithBufferedSource(t *testing.T) {
	raw := newTrackingSource([]byte("scoped"))
	got, err := Use(NewBufferedSource(raw), func(s BufferedSource) ([]byte, error) {
		return s.ReadAllBytes()
	})
	if err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	if string(got) != "scoped" || raw.closes != 1 {
		t.Fatalf("Expected content read and source closed once: got %q, closes=%d", got, raw.closes)
	}
}
