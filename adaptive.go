package netc

import (
	"github.com/netcio/netc/internal/prefilter"
	"github.com/netcio/netc/internal/tans"
)

// feedAdaptive folds one more plaintext packet into the running
// frequency accumulators and, every adaptiveRebuildInterval packets,
// deterministically rebuilds the context's live dictionary from them.
// Rebuilding reuses Dictionary's own table-builder logic (tans.Normalize
// + tans.Build) so a sender and receiver that have observed the same
// packet sequence compute bit-identical tables without exchanging
// anything beyond the packets themselves — no map iteration or
// unstable sort is involved anywhere in the accumulation or rebuild
// path, since both iterate the fixed-size bucket/class/byte arrays in
// index order.
func (c *Context) feedAdaptive(plaintext []byte) {
	a := c.adaptive
	classMap := defaultBigramClassMap

	var prev byte
	for i, b := range plaintext {
		bucket := prefilter.CtxBucket(i)
		a.unigramRaw[bucket][b]++
		if i > 0 {
			cls := classMap[prev]
			a.bigramRaw[bucket][cls][b]++
		}
		prev = b
	}

	a.sinceBuild++
	if a.sinceBuild < adaptiveRebuildInterval {
		return
	}
	a.sinceBuild = 0
	c.rebuildAdaptive()
}

// rebuildAdaptive recomputes every unigram and bigram table from the
// accumulated counts, seeded by the original (never-mutated) dictionary
// so a bucket/class that has seen zero traffic since the last rebuild
// still has the trained prior instead of degenerating to uniform noise.
func (c *Context) rebuildAdaptive() {
	a := c.adaptive
	live := &Dictionary{ModelID: c.dic.ModelID, HasLZP: c.dic.HasLZP, Predictor: c.dic.Predictor}

	for bucket := 0; bucket < prefilter.CtxCount; bucket++ {
		raw := addCounts(c.dic.Unigram[bucket], a.unigramRaw[bucket])
		f := tans.Normalize(raw, tans.MaxBitsDefault)
		live.Unigram[bucket] = f
		live.UnigramTables[bucket] = tans.Build(f)
		for cls := 0; cls < 4; cls++ {
			rawB := addCounts(c.dic.Bigram[bucket][cls], a.bigramRaw[bucket][cls])
			bf := tans.Normalize(rawB, tans.MaxBitsDefault)
			live.Bigram[bucket][cls] = bf
			live.BigramTables[bucket][cls] = tans.Build(bf)
		}
	}

	a.live = live
	if c.stats != nil {
		c.stats.AdaptiveRebuilds++
	}
}

// addCounts widens a trained frequency table's uint16 counts back out to
// uint64 and adds the freshly observed raw counts on top, giving the
// normalizer a prior-plus-evidence view instead of discarding the
// dictionary's original training entirely on every rebuild.
func addCounts(prior tans.Freq, raw [256]uint64) [256]uint64 {
	var out [256]uint64
	for i := 0; i < 256; i++ {
		out[i] = uint64(prior.Counts[i]) + raw[i]
	}
	return out
}
