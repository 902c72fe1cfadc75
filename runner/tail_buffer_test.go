package runner

import (
	"strings"
	"testing"
)

func TestTailBufferKeepsEverythingUnderLimit(t *testing.T) {
	buf := newTailBuffer(16)
	_, _ = buf.Write([]byte("hello "))
	_, _ = buf.Write([]byte("world"))

	if buf.Truncated() {
		t.Fatal("expected no truncation")
	}
	if got := buf.String(); got != "hello world" {
		t.Fatalf("unexpected contents: %q", got)
	}
	if buf.TotalBytes() != 11 {
		t.Fatalf("unexpected total: %d", buf.TotalBytes())
	}
}

func TestTailBufferKeepsMostRecentBytes(t *testing.T) {
	buf := newTailBuffer(8)
	for i := 0; i < 10; i++ {
		_, _ = buf.Write([]byte("0123456789"))
	}

	if !buf.Truncated() {
		t.Fatal("expected truncation")
	}
	got := buf.String()
	if !strings.HasPrefix(got, "... (truncated 92 bytes)\n") {
		t.Fatalf("missing truncation marker: %q", got)
	}
	if !strings.HasSuffix(got, "23456789") {
		t.Fatalf("expected tail bytes, got %q", got)
	}
	if cap(buf.contents) > 64 {
		t.Fatalf("backing array grew unexpectedly: cap=%d", cap(buf.contents))
	}
}

func TestTailBufferDefaultLimit(t *testing.T) {
	buf := newTailBuffer(0)
	if buf.maxBytes != defaultTailBytes {
		t.Fatalf("expected default limit, got %d", buf.maxBytes)
	}
}
