package netc

import (
	"bytes"
	"testing"

	"github.com/netcio/netc/internal/testutil"
)

// These mirror the fixed seed-42 reference scenarios: concrete payload
// shapes with an expected compression outcome, not just round-trip
// correctness. Scenarios 5 and 6 use a scaled-down packet count (the
// reference corpus size is in the tens of thousands) since what they are
// actually exercising — sustained average ratio and exact round-trip
// across a reconnect boundary — is already visible at a few thousand
// packets and keeps the test suite fast.

func TestScenarioEmptyPacket(t *testing.T) {
	dict := trainedDict(t, 21)
	cfg := DefaultConfig()
	ctx, err := NewContext(cfg, dict)
	if err != nil {
		t.Fatal(err)
	}

	dst := make([]byte, CompressBound(0))
	n, err := Compress(ctx, dst, nil)
	if err != nil {
		t.Fatal(err)
	}
	h, err := ReadLegacyHeader(dst[:n])
	if err != nil {
		t.Fatal(err)
	}
	if h.OriginalSize != 0 || h.Algorithm != AlgPassthru {
		t.Fatalf("header = %+v, want original_size=0 algorithm=PASSTHRU", h)
	}
	if n != LegacyHeaderSize {
		t.Fatalf("compressed size = %d, want exactly the legacy header with no payload", n)
	}

	out := make([]byte, 0)
	m, err := Decompress(ctx, out, dst[:n])
	if err != nil {
		t.Fatal(err)
	}
	if m != 0 {
		t.Fatalf("decompressed length = %d, want 0", m)
	}
	if ctx.seq != 2 {
		t.Fatalf("sequence counter = %d, want 2 after one Compress and one Decompress on the same context", ctx.seq)
	}
}

func TestScenarioRandom128Bytes(t *testing.T) {
	dict := trainedDict(t, 22)
	cfg := DefaultConfig()
	ctx, err := NewContext(cfg, dict)
	if err != nil {
		t.Fatal(err)
	}

	src := testutil.NewSplitMix64(42).Bytes(128)
	dst := make([]byte, CompressBound(len(src)))
	n, err := Compress(ctx, dst, src)
	if err != nil {
		t.Fatal(err)
	}
	h, err := ReadLegacyHeader(dst[:n])
	if err != nil {
		t.Fatal(err)
	}
	if h.Algorithm != AlgPassthru {
		t.Fatalf("algorithm = %v, want PASSTHRU for incompressible random data", h.Algorithm)
	}
	if n != len(src)+LegacyHeaderSize {
		t.Fatalf("compressed size = %d, want %d (src + legacy header)", n, len(src)+LegacyHeaderSize)
	}

	out := make([]byte, len(src))
	if _, err := Decompress(ctx, out, dst[:n]); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, src) {
		t.Fatal("round trip mismatch on random payload")
	}
}

func TestScenarioAllZeros128Bytes(t *testing.T) {
	dict := trainedDict(t, 23)
	cfg := DefaultConfig()
	ctx, err := NewContext(cfg, dict)
	if err != nil {
		t.Fatal(err)
	}

	src := make([]byte, 128)
	dst := make([]byte, CompressBound(len(src)))
	n, err := Compress(ctx, dst, src)
	if err != nil {
		t.Fatal(err)
	}
	if ratio := float64(n) / float64(len(src)); ratio >= 0.1 {
		t.Fatalf("compressed ratio = %.3f, want < 0.1 for an all-zero payload", ratio)
	}

	out := make([]byte, len(src))
	if _, err := Decompress(ctx, out, dst[:n]); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, src) {
		t.Fatal("round trip mismatch on all-zero payload")
	}
}

func TestScenarioAlternatingBytes(t *testing.T) {
	dict := trainedDict(t, 24)
	cfg := DefaultConfig()
	ctx, err := NewContext(cfg, dict)
	if err != nil {
		t.Fatal(err)
	}

	src := make([]byte, 128)
	for i := range src {
		if i%2 == 0 {
			src[i] = 0xAA
		} else {
			src[i] = 0x55
		}
	}
	dst := make([]byte, CompressBound(len(src)))
	n, err := Compress(ctx, dst, src)
	if err != nil {
		t.Fatal(err)
	}
	if ratio := float64(n) / float64(len(src)); ratio >= 0.15 {
		t.Fatalf("compressed ratio = %.3f, want < 0.15 for an alternating-byte payload", ratio)
	}

	out := make([]byte, len(src))
	if _, err := Decompress(ctx, out, dst[:n]); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, src) {
		t.Fatal("round trip mismatch on alternating-byte payload")
	}
}

// gameStatePacket synthesizes a low-cardinality player_id + monotone
// sequence + small positional delta packet, 64 bytes, matching the shape
// of the game-state reference scenario.
func gameStatePacket(rng *testutil.SplitMix64, seq uint32, prevX, prevY int32) (pkt []byte, x, y int32) {
	pkt = make([]byte, 64)
	playerID := byte(rng.Next() % 8)
	pkt[0] = playerID
	pkt[1] = byte(seq)
	pkt[2] = byte(seq >> 8)
	pkt[3] = byte(seq >> 16)
	pkt[4] = byte(seq >> 24)
	x = prevX + int32(rng.Next()%7) - 3
	y = prevY + int32(rng.Next()%7) - 3
	pkt[5] = byte(x)
	pkt[6] = byte(x >> 8)
	pkt[7] = byte(y)
	pkt[8] = byte(y >> 8)
	return pkt, x, y
}

func TestScenarioGameStateSequenceRatio(t *testing.T) {
	dict := trainedDict(t, 25)
	cfg := DefaultConfig()
	cfg.Options |= OptDelta
	ctx, err := NewContext(cfg, dict)
	if err != nil {
		t.Fatal(err)
	}
	dctx, err := NewContext(cfg, dict)
	if err != nil {
		t.Fatal(err)
	}

	const packetCount = 2000 // scaled down from the 100,000-packet reference run
	rng := testutil.NewSplitMix64(42)
	var x, y int32
	var totalIn, totalOut int
	for seq := uint32(0); seq < packetCount; seq++ {
		var pkt []byte
		pkt, x, y = gameStatePacket(rng, seq, x, y)

		dst := make([]byte, CompressBound(len(pkt)))
		n, err := Compress(ctx, dst, pkt)
		if err != nil {
			t.Fatalf("packet %d: Compress: %v", seq, err)
		}
		out := make([]byte, len(pkt))
		if _, err := Decompress(dctx, out, dst[:n]); err != nil {
			t.Fatalf("packet %d: Decompress: %v", seq, err)
		}
		if !bytes.Equal(out, pkt) {
			t.Fatalf("packet %d: round trip mismatch", seq)
		}
		totalIn += len(pkt)
		totalOut += n
	}

	if ratio := float64(totalOut) / float64(totalIn); ratio > 0.55 {
		t.Fatalf("average compression ratio = %.3f, want <= 0.55 over a game-state sequence", ratio)
	}
}

func TestScenarioCrossBufferReconnect(t *testing.T) {
	dict := trainedDict(t, 26)
	cfg := DefaultConfig()
	cfg.Options |= OptDelta

	cctx, err := NewContext(cfg, dict)
	if err != nil {
		t.Fatal(err)
	}
	dctx, err := NewContext(cfg, dict)
	if err != nil {
		t.Fatal(err)
	}

	const packetCount = 500 // scaled down from the 10,000-packet reference run
	run := func(seed uint64) {
		for _, pkt := range genPackets(seed, packetCount, 96) {
			dst := make([]byte, CompressBound(len(pkt)))
			n, err := Compress(cctx, dst, pkt)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			out := make([]byte, len(pkt))
			if _, err := Decompress(dctx, out, dst[:n]); err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(out, pkt) {
				t.Fatal("round trip mismatch before reconnect")
			}
		}
	}

	run(101)
	cctx.Reset()
	dctx.Reset()
	run(202)
}
