// Package prefilter implements the two byte-level pre-filters the
// compression pipeline may apply before entropy coding: field-class-aware
// delta prediction against the previous packet, and LZP XOR prediction
// driven by a trained context predictor.
package prefilter

// CtxCount is the number of position buckets dictionaries partition a
// packet into (spec's NETC_CTX_COUNT).
const CtxCount = 16

// bucketStarts holds the start offset of each position bucket. CtxBucket
// returns the index of the last entry not exceeding a given offset, so
// bucket width grows with distance into the packet — short, structured
// headers get fine-grained buckets; payload tails share coarse ones.
var bucketStarts = [CtxCount]int{
	0, 8, 16, 24, 32, 48, 64, 96, 128, 192, 256, 384, 512, 1024, 4096, 16384,
}

// CtxBucket returns the position-bucket index for a byte offset within a
// packet (spec §3's dictionary bucket boundaries).
func CtxBucket(offset int) int {
	b := 0
	for i, start := range bucketStarts {
		if offset < start {
			break
		}
		b = i
	}
	return b
}

// fieldClass enumerates the four ways Delta forms a residual, keyed by
// position bucket.
type fieldClass uint8

const (
	classInt fieldClass = iota
	classFloat
	classBitmask
	classOrdinal
)

// bucketClass assigns each of the 16 position buckets a field class. The
// boundaries approximate where small fixed-protocol headers tend to place
// counters and flags versus where payload floats and trailing ordinal
// fields usually live; the exact split is a modelling choice, not a wire
// format, so it can be revisited without breaking anything that doesn't
// also retrain the affected dictionaries.
var bucketClass = [CtxCount]fieldClass{
	classInt, classInt, classInt, classInt,
	classFloat, classFloat, classFloat, classFloat,
	classBitmask, classBitmask, classBitmask, classBitmask,
	classOrdinal, classOrdinal, classOrdinal, classOrdinal,
}

// DeltaMinSize is the smallest packet length Delta will engage on
// (NETC_DELTA_MIN_SIZE): below this, per-field residual formation doesn't
// amortize its bookkeeping.
const DeltaMinSize = 8
