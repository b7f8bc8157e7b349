package tans

import (
	"github.com/netcio/netc/internal/bitio"
)

// EncodeStreamX2 runs two interleaved tANS streams over buf, one for
// even-indexed bytes and one for odd-indexed bytes, sharing a single
// bitstream (spec §4.5's X2 variant: halves the per-symbol renormalization
// overhead at the cost of two live states).
//
// Byte indices still walk from last to first for the same LIFO reason
// EncodeStream does; which of the two state registers advances at each
// step is determined by the index's parity, not by call order.
func EncodeStreamX2(dst []byte, buf []byte, state0Even, state0Odd uint32, tbEven, tbOdd *Table) (Stream, Stream, bool) {
	var w bitio.Writer
	w.Init(dst)

	stateEven, stateOdd := state0Even, state0Odd
	n := len(buf)
	for i := n - 1; i >= 0; i-- {
		var ok bool
		if i%2 == 0 {
			stateEven, ok = tbEven.EncodeStep(&w, stateEven, buf[i])
		} else {
			stateOdd, ok = tbOdd.EncodeStep(&w, stateOdd, buf[i])
		}
		if !ok {
			return Stream{}, Stream{}, false
		}
	}
	bitLen := w.BitLen()
	plen, ok := w.Flush()
	if !ok {
		return Stream{}, Stream{}, false
	}
	payload := dst[:plen]
	return Stream{Payload: payload, BitLen: bitLen, FinalState: stateEven},
		Stream{Payload: payload, BitLen: bitLen, FinalState: stateOdd}, true
}

// DecodeStreamX2 inverts EncodeStreamX2, producing exactly n bytes into out.
func DecodeStreamX2(out []byte, payload []byte, bitLen int, finalStateEven, finalStateOdd uint32, tbEven, tbOdd *Table) []byte {
	var r bitio.Reader
	r.Init(payload, bitLen)

	stateEven, stateOdd := finalStateEven, finalStateOdd
	n := len(out)
	for t := 0; t < n; t++ {
		var sym byte
		if t%2 == 0 {
			sym, stateEven = tbEven.DecodeStep(&r, stateEven)
		} else {
			sym, stateOdd = tbOdd.DecodeStep(&r, stateOdd)
		}
		out[t] = sym
	}
	return out
}
