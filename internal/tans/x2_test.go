package tans

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeStreamX2RoundTrip(t *testing.T) {
	tbEven := Build(skewedFreq(MaxBitsDefault))
	tbOdd := Build(uniformFreq(MaxBitsDefault))

	msg := []byte("the quick brown fox jumps over the lazy dog 0123456789")
	dst := make([]byte, 4096)

	stEven, stOdd, ok := EncodeStreamX2(dst, msg, tbEven.T(), tbOdd.T(), tbEven, tbOdd)
	if !ok {
		t.Fatal("EncodeStreamX2 overflowed unexpectedly")
	}
	if !bytes.Equal(stEven.Payload, stOdd.Payload) {
		t.Fatal("X2 streams should share one physical payload")
	}

	out := make([]byte, len(msg))
	DecodeStreamX2(out, stEven.Payload, stEven.BitLen, stEven.FinalState, stOdd.FinalState, tbEven, tbOdd)

	if !bytes.Equal(out, msg) {
		t.Fatalf("round trip mismatch: got %q, want %q", out, msg)
	}
}

func TestEncodeDecodeStreamX2OddLength(t *testing.T) {
	tbEven := Build(skewedFreq(MaxBitsSmall))
	tbOdd := Build(skewedFreq(MaxBitsSmall))

	msg := []byte("abcde")
	dst := make([]byte, 1024)

	stEven, stOdd, ok := EncodeStreamX2(dst, msg, tbEven.T(), tbOdd.T(), tbEven, tbOdd)
	if !ok {
		t.Fatal("EncodeStreamX2 overflowed unexpectedly")
	}

	out := make([]byte, len(msg))
	DecodeStreamX2(out, stEven.Payload, stEven.BitLen, stEven.FinalState, stOdd.FinalState, tbEven, tbOdd)

	if !bytes.Equal(out, msg) {
		t.Fatalf("round trip mismatch: got %q, want %q", out, msg)
	}
}
