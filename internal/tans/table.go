package tans

import (
	"math/bits"

	"github.com/netcio/netc/internal/bitio"
	"github.com/netcio/netc/internal/errors"
)

// decodeEntry is one physical table slot: the symbol it decodes to, how
// many bits to consume, and the base the consumed bits are added onto to
// produce the next state.
type decodeEntry struct {
	symbol       uint8
	nbBits       uint8
	newStateBase uint32
}

// Table is a built tANS table for one frequency distribution: a decode
// table indexed by physical slot, and an encode table indexed per-symbol
// by occurrence rank. Table is immutable once returned by Build and safe
// for concurrent use by multiple encoders/decoders (spec's dictionary
// tables are read-only after training).
type Table struct {
	l    uint
	t    uint32
	freq [256]uint16

	decode []decodeEntry
	encode [256][]uint32
}

// L reports the table's log2 size.
func (tb *Table) L() uint { return tb.l }

// T reports the table's size, 1<<L.
func (tb *Table) T() uint32 { return tb.t }

// Build constructs a Table from a normalized frequency distribution.
//
// It spreads symbols across table slots using the direct formula from
// spec §4.4: slot i is owned by the symbol whose cumulative-frequency
// range contains pos = (i*step) mod T. Because step is coprime to T,
// this visits every position in [0,T) exactly once, so no iterative
// placement or collision handling is needed — the result is a pure
// function of the frequency table and is identical on every platform.
//
// The same forward pass that assigns decode entries also assigns each
// symbol's encode sub-table (the standard FSE construction): the
// occurrence counter for a symbol, which ranges over [freq,2*freq), maps
// directly to (nbBits, newStateBase) via its bit length relative to L,
// independent of which physical slot it lands on.
func Build(f Freq) *Table {
	l := f.L
	t := uint32(1) << l
	step := stepFor(l)

	tb := &Table{l: l, t: t, freq: f.Counts}

	var cum [257]uint32
	for i := 0; i < 256; i++ {
		cum[i+1] = cum[i] + uint32(f.Counts[i])
	}
	if cum[256] != t {
		errors.Panic(errors.InvalidArgument, "tans: frequency table sums to %d, want %d", cum[256], t)
	}

	posSymbol := make([]uint8, t)
	sym := 0
	for pos := uint32(0); pos < t; pos++ {
		for cum[sym+1] <= pos {
			sym++
		}
		posSymbol[pos] = uint8(sym)
	}

	slotSymbol := make([]uint8, t)
	for i := uint32(0); i < t; i++ {
		pos := (i * step) % t
		slotSymbol[i] = posSymbol[pos]
	}

	tb.decode = make([]decodeEntry, t)
	for s, c := range f.Counts {
		if c > 0 {
			tb.encode[s] = make([]uint32, c)
		}
	}

	next := make([]uint32, 256)
	for s, c := range f.Counts {
		next[s] = uint32(c)
	}

	for p := uint32(0); p < t; p++ {
		s := slotSymbol[p]
		c := next[s]
		nbBits := uint8(l) - uint8(bits.Len32(c)-1)
		newBase := c << nbBits
		tb.decode[p] = decodeEntry{symbol: s, nbBits: nbBits, newStateBase: newBase}
		tb.encode[s][c-uint32(f.Counts[s])] = t + p
		next[s] = c + 1
	}
	return tb
}

// EncodeStep renormalizes state for symbol, writing the bits this step
// consumes to w, and returns the new state. It reports false if w cannot
// hold the bits (the trial-and-pick failure path; never a hard error).
func (tb *Table) EncodeStep(w *bitio.Writer, state uint32, symbol byte) (uint32, bool) {
	f := uint32(tb.freq[symbol])
	if f == 0 {
		errors.Panic(errors.Corrupted, "tans: symbol %d has zero frequency in table", symbol)
	}
	nbBits := uint(0)
	for (state >> nbBits) >= 2*f {
		nbBits++
	}
	if !w.WriteBits(state&((1<<nbBits)-1), nbBits) {
		return 0, false
	}
	c := state >> nbBits
	return tb.encode[symbol][c-f], true
}

// DecodeStep inverts EncodeStep: given the current state, it recovers the
// symbol that produced it and the state prior to that encode step,
// consuming bits from r. It panics with a Corrupted error if state falls
// outside [T,2T), which can only happen on malformed input.
func (tb *Table) DecodeStep(r *bitio.Reader, state uint32) (symbol byte, newState uint32) {
	if state < tb.t || state >= 2*tb.t {
		errors.Panic(errors.Corrupted, "tans: state %d out of range [%d,%d)", state, tb.t, 2*tb.t)
	}
	e := tb.decode[state-tb.t]
	bitsVal := r.ReadBits(uint(e.nbBits))
	return e.symbol, e.newStateBase + bitsVal
}
