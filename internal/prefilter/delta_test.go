package prefilter

import (
	"bytes"
	"testing"
)

func TestDeltaRoundTrip(t *testing.T) {
	prev := make([]byte, 600)
	cur := make([]byte, 600)
	for i := range prev {
		prev[i] = byte(i * 13)
		cur[i] = byte(i*13 + 7 + i%5)
	}

	residual := make([]byte, len(cur))
	DeltaEncode(residual, cur, prev)

	got := make([]byte, len(cur))
	DeltaDecode(got, residual, prev)

	if !bytes.Equal(got, cur) {
		t.Fatalf("round trip mismatch")
	}
}

func TestDeltaIdenticalPacketIsAllZero(t *testing.T) {
	buf := make([]byte, 40)
	for i := range buf {
		buf[i] = byte(i * 3)
	}
	residual := make([]byte, len(buf))
	DeltaEncode(residual, buf, buf)
	for i := range residual {
		if residual[i] != 0 {
			t.Fatalf("residual[%d] = %d, want 0 when cur==prev", i, residual[i])
		}
	}
}

func TestDeltaDecodeInPlace(t *testing.T) {
	prev := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cur := []byte{5, 9, 1, 200, 250, 6, 8, 3, 19, 255}

	buf := make([]byte, len(cur))
	DeltaEncode(buf, cur, prev)
	DeltaDecode(buf, buf, prev)

	if !bytes.Equal(buf, cur) {
		t.Fatalf("in-place decode mismatch: got %v, want %v", buf, cur)
	}
}
