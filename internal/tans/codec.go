package tans

import (
	"github.com/netcio/netc/internal/bitio"
	"github.com/netcio/netc/internal/errors"
)

// Selector picks the table a stream should use to code the byte at pos,
// given the byte immediately before it (0 if pos==0). Single uses a
// constant table; PCTX keys off pos; bigram keys off prev; a dictionary
// combining both composes the two.
type Selector func(pos int, prev byte) *Table

// Const returns a Selector that always picks tb (the single-table variant).
func Const(tb *Table) Selector {
	return func(int, byte) *Table { return tb }
}

// Stream is one encoded tANS block: the packed renormalization bits plus
// the bookkeeping needed to start decoding (spec §4.5's "final state is
// stored in the packet header area").
type Stream struct {
	Payload    []byte
	BitLen     int
	FinalState uint32
}

// EncodeStream runs one tANS pass over buf.
//
// Per spec §4.5 the state machine is a LIFO stack: inverting it requires
// processing symbols in the reverse of the order they'll be decoded in.
// EncodeStream walks buf from its last byte to its first, so that
// DecodeStream — which reads the resulting bitstream tail-first via
// bitio.Reader — recovers bytes in forward order. Context lookups (prev
// byte, position) always refer to buf's true indices, since the whole
// original buffer is available regardless of which direction encoding
// walks it; DecodeStream mirrors this by looking at the bytes it has
// already produced.
//
// dst must be large enough to hold the packed output; EncodeStream
// reports false (never panics) if it is not, since this runs inside the
// compressor's trial-and-pick loop where an oversized candidate is simply
// discarded.
func EncodeStream(dst []byte, buf []byte, state0 uint32, sel Selector) (Stream, bool) {
	var w bitio.Writer
	w.Init(dst)

	state := state0
	n := len(buf)
	for i := n - 1; i >= 0; i-- {
		var prev byte
		if i > 0 {
			prev = buf[i-1]
		}
		tb := sel(i, prev)
		if tb == nil {
			return Stream{}, false
		}
		ns, ok := tb.EncodeStep(&w, state, buf[i])
		if !ok {
			return Stream{}, false
		}
		state = ns
	}
	bitLen := w.BitLen()

	plen, ok := w.Flush()
	if !ok {
		return Stream{}, false
	}
	return Stream{Payload: dst[:plen], BitLen: bitLen, FinalState: state}, true
}

// DecodeStream inverts EncodeStream, producing exactly n bytes into out.
// It panics with a Corrupted error (via the internal/errors package) on
// any malformed input, consistent with decompression having no fallback
// path.
func DecodeStream(out []byte, payload []byte, bitLen int, finalState uint32, sel Selector) []byte {
	var r bitio.Reader
	r.Init(payload, bitLen)

	state := finalState
	n := len(out)
	for t := 0; t < n; t++ {
		var prev byte
		if t > 0 {
			prev = out[t-1]
		}
		tb := sel(t, prev)
		if tb == nil {
			errors.Panic(errors.Corrupted, "tans: no table selected for position %d", t)
		}
		sym, ns := tb.DecodeStep(&r, state)
		out[t] = sym
		state = ns
	}
	return out
}
