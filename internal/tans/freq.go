// Package tans implements the finite-state entropy codec (tANS): frequency
// normalisation, table construction, and the per-packet encode/decode step
// functions the higher-level netc pipeline composes into its single,
// X2, PCTX, bigram, and 10-bit variants.
//
// The table construction follows the standard tANS/FSE derivation (as used
// by, e.g., zstd's FSE_buildCTable/FSE_buildDTable): a single forward pass
// over table slots simultaneously assigns each slot's decode entry and each
// symbol's encode sub-table entry, using integer-only arithmetic so the
// result is bit-identical across platforms (spec's "no floating point"
// requirement).
package tans

// MaxBits enumerates the two table sizes netc builds: 12-bit tables for the
// default path, 10-bit tables for the small-packet variant.
const (
	MaxBitsDefault = 12
	MaxBitsSmall   = 10
)

// stepFor returns the coprime spread step for a given table log, per
// spec §4.4 (2563 for L=12, 557 for L=10).
func stepFor(l uint) uint32 {
	switch l {
	case MaxBitsDefault:
		return 2563
	case MaxBitsSmall:
		return 557
	default:
		// Any odd value works for a power-of-two table size; derive one
		// deterministically so experimentation with other L values (tests)
		// still produces a valid table.
		return 1 | (uint32(1) << (l - 1))
	}
}

// Freq is a normalized frequency table: Counts sums to exactly 1<<L and
// every entry is >= 1 (spec §3's frequency table invariants).
type Freq struct {
	L      uint
	Counts [256]uint16
}

// Normalize converts raw byte counts into a Freq summing to 1<<L, per
// spec §4.3: Laplace-smooth every count by one so no symbol has
// probability zero, scale to the target sum, then correct rounding drift
// onto the most frequent (lowest-index on ties) symbol — sweeping any
// remaining excess off of whichever symbols can spare it if the direct
// correction would drive that symbol below 2.
func Normalize(raw [256]uint64, l uint) Freq {
	t := uint64(1) << l

	var smoothed [256]uint64
	var total uint64
	for i, c := range raw {
		smoothed[i] = c + 1
		total += smoothed[i]
	}

	var f Freq
	f.L = l

	var sum uint64
	m := 0
	for i, s := range smoothed {
		v := s * t / total
		if v < 1 {
			v = 1
		}
		if v > 65535 {
			v = 65535
		}
		f.Counts[i] = uint16(v)
		sum += v
		if f.Counts[i] > f.Counts[m] {
			m = i
		}
	}

	switch {
	case sum < t:
		f.Counts[m] += uint16(t - sum)
	case sum > t:
		diff := sum - t
		if uint64(f.Counts[m]) >= diff+2 {
			f.Counts[m] -= uint16(diff)
		} else {
			for diff > 0 {
				for i := range f.Counts {
					if diff == 0 {
						break
					}
					if f.Counts[i] > 1 {
						f.Counts[i]--
						diff--
					}
				}
			}
		}
	}
	return f
}

// Rescale re-normalizes an already-built frequency table to a new table
// log, treating its counts as the raw input (spec §4.12's "10-bit table
// rescaled from the winning 12-bit" trial).
func Rescale(f Freq, newL uint) Freq {
	var raw [256]uint64
	for i, c := range f.Counts {
		raw[i] = uint64(c)
	}
	return Normalize(raw, newL)
}
