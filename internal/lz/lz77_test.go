package lz

import (
	"bytes"
	"testing"
)

func TestLZ77RoundTripRepeatedText(t *testing.T) {
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 4)
	dst := make([]byte, len(src))

	n, ok := EncodeLZ77(dst, src)
	if !ok {
		t.Fatal("EncodeLZ77 bailed unexpectedly")
	}
	if n >= len(src) {
		t.Fatalf("encoded size %d did not shrink below source size %d", n, len(src))
	}

	got := make([]byte, len(src))
	DecodeLZ77(got, dst[:n])
	if !bytes.Equal(got, src) {
		t.Fatalf("round trip mismatch")
	}
}

func TestLZ77BailsOnRandomish(t *testing.T) {
	// These LCG bytes hold no 3-byte sequence repeated within the window,
	// so every byte goes out as a literal: 300 literals plus three run
	// headers is 303 bytes, which does not shrink below the 300-byte input.
	src := make([]byte, 300)
	x := uint32(1)
	for i := range src {
		x = x*1103515245 + 12345
		src[i] = byte(x >> 16)
	}
	dst := make([]byte, len(src)+64)
	n, ok := EncodeLZ77(dst, src)
	if ok {
		t.Fatalf("expected bail on low-redundancy input, got ok with %d bytes", n)
	}
	if n != 0 {
		t.Fatalf("bailed encode returned n = %d, want 0", n)
	}
}

func TestLZ77BailsWhenNotSmaller(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := make([]byte, len(src))
	if _, ok := EncodeLZ77(dst, src); ok {
		t.Fatal("expected bail: 3 incompressible bytes cannot shrink below 3 bytes of token stream")
	}
}

func TestLZ77WindowBoundary(t *testing.T) {
	// A match exactly at the edge of the 256-byte window must still be
	// found; one byte further back must not be.
	src := make([]byte, 256+3+10)
	for i := range src {
		src[i] = byte(i)
	}
	copy(src[256:259], src[0:3])
	dst := make([]byte, len(src))
	n, ok := EncodeLZ77(dst, src)
	if !ok {
		t.Fatal("EncodeLZ77 bailed unexpectedly")
	}
	got := make([]byte, len(src))
	DecodeLZ77(got, dst[:n])
	if !bytes.Equal(got, src) {
		t.Fatalf("round trip mismatch at window boundary")
	}
}
