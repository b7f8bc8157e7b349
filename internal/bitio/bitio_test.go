package bitio

import (
	"testing"

	"github.com/netcio/netc/internal/errors"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	vals := []struct {
		v  uint32
		nb uint
	}{
		{1, 1}, {0, 1}, {5, 3}, {0xabcd, 16}, {0, 0}, {7, 3}, {1, 1},
	}

	var buf [64]byte
	var w Writer
	w.Init(buf[:])
	for _, e := range vals {
		if !w.WriteBits(e.v, e.nb) {
			t.Fatalf("WriteBits(%d,%d) overflowed", e.v, e.nb)
		}
	}
	n, ok := w.Flush()
	if !ok {
		t.Fatal("Flush overflowed")
	}

	totalBits := 0
	for _, e := range vals {
		totalBits += int(e.nb)
	}

	var r Reader
	r.Init(buf[:n], totalBits)
	for i := len(vals) - 1; i >= 0; i-- {
		e := vals[i]
		got := r.ReadBits(e.nb)
		want := e.v & ((1 << e.nb) - 1)
		if e.nb > 0 && got != want {
			t.Fatalf("ReadBits(%d) = %d, want %d (index %d)", e.nb, got, want, i)
		}
	}
	if r.BitsAvailable() != 0 {
		t.Fatalf("BitsAvailable = %d, want 0", r.BitsAvailable())
	}
}

func TestWriterOverflow(t *testing.T) {
	var buf [1]byte
	var w Writer
	w.Init(buf[:])
	if !w.WriteBits(0xff, 8) {
		t.Fatal("first byte should fit")
	}
	if w.WriteBits(1, 1) {
		t.Fatal("expected overflow on second byte")
	}
}

func TestReaderUnderflowPanics(t *testing.T) {
	var err error
	func() {
		defer errors.Recover(&err)
		var r Reader
		r.Init(nil, 0)
		r.ReadBits(1)
	}()
	if errors.KindOf(err) != errors.Corrupted {
		t.Fatalf("expected Corrupted error, got %v", err)
	}
}

func TestPartialLastByte(t *testing.T) {
	var buf [2]byte
	var w Writer
	w.Init(buf[:])
	w.WriteBits(0x3, 2)  // bits [0,1] = 1,1
	w.WriteBits(0x5, 3)  // bits [2..4] = 1,0,1
	n, _ := w.Flush()

	var r Reader
	r.Init(buf[:n], 5)
	got := r.ReadBits(3)
	if got != 0x5 {
		t.Fatalf("ReadBits(3) = %d, want 5", got)
	}
	got2 := r.ReadBits(2)
	if got2 != 0x3 {
		t.Fatalf("ReadBits(2) = %d, want 3", got2)
	}
}
