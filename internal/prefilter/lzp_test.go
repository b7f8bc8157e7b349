package prefilter

import (
	"bytes"
	"testing"
)

func TestXORRoundTrip(t *testing.T) {
	var p Predictor
	for i := range p.Table {
		p.Table[i] = byte(i * 37)
	}

	src := []byte("the quick brown fox jumps over the lazy dog, 0123456789")
	residual := make([]byte, len(src))
	XOREncode(residual, src, &p)

	got := make([]byte, len(src))
	XORDecode(got, residual, &p)

	if !bytes.Equal(got, src) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, src)
	}
}

func TestXORDecodeInPlace(t *testing.T) {
	var p Predictor
	for i := range p.Table {
		p.Table[i] = byte(i)
	}
	src := []byte("aaaaaaaaaabbbbbbbbbbcccccccccc")
	residual := make([]byte, len(src))
	XOREncode(residual, src, &p)

	buf := append([]byte(nil), residual...)
	XORDecode(buf, buf, &p)

	if !bytes.Equal(buf, src) {
		t.Fatalf("in-place decode mismatch: got %q, want %q", buf, src)
	}
}

func TestZeroPredictorIsNoOp(t *testing.T) {
	var p Predictor
	src := []byte{1, 2, 3, 4, 5}
	residual := make([]byte, len(src))
	XOREncode(residual, src, &p)
	if !bytes.Equal(residual, src) {
		t.Fatalf("zero predictor should leave bytes unchanged, got %v, want %v", residual, src)
	}
}

func TestPerfectPredictorZerosRepeatedByte(t *testing.T) {
	// A predictor that always guesses the previous byte should reduce a
	// run of identical bytes to a run of zeros (after the first byte).
	var p Predictor
	src := bytes.Repeat([]byte{0x42}, 20)
	for ctx := range p.Table {
		p.Table[ctx] = 0 // guess 0 everywhere except where context says otherwise below
	}
	// Seed every context that the run will actually hit with the correct guess.
	for i := 1; i < len(src); i++ {
		p.Table[Context(i, src)] = src[i-1]
	}

	residual := make([]byte, len(src))
	XOREncode(residual, src, &p)
	for i := 1; i < len(residual); i++ {
		if residual[i] != 0 {
			t.Fatalf("residual[%d] = %#x, want 0 with a perfect predictor", i, residual[i])
		}
	}
}
