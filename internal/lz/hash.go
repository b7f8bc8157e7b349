// Package lz implements the two back-reference coders the compression
// pipeline tries after (or instead of) entropy coding: LZ77 within-packet
// matching over a fixed 256-byte window, and LZ77X, which extends it with
// long back-references into the per-connection ring buffer history.
package lz

import "github.com/dchest/siphash"

// hash3 is the FNV-1a hash of a 3-byte sequence, the literal hash
// function spec §4.8 mandates for LZ77's 1024-entry match table.
func hash3(b0, b1, b2 byte) uint32 {
	const offsetBasis = 2166136261
	const prime = 16777619
	h := uint32(offsetBasis)
	h = (h ^ uint32(b0)) * prime
	h = (h ^ uint32(b1)) * prime
	h = (h ^ uint32(b2)) * prime
	return h
}

// sipKey0, sipKey1 are the fixed process-wide SipHash key for LZ77X's two
// 4096-entry tables (spec leaves this hash function unspecified, naming
// FNV-1a only for LZ77 proper; both sides of a connection must agree on
// the same key, so it is a compile-time constant rather than per-context
// random state).
const (
	sipKey0 uint64 = 0x6e65746320636f6d
	sipKey1 uint64 = 0x707265737321217a
)

func hash3Sip(b0, b1, b2 byte) uint32 {
	h := siphash.Hash(sipKey0, sipKey1, []byte{b0, b1, b2})
	return uint32(h) ^ uint32(h>>32)
}

// chain is a hash-chain match finder: head[h] is the most recent position
// inserted under hash h, and prev[pos] links back to the next-older
// position sharing the same hash (flate's bit_reader feed/consume style
// applied to match finding rather than bit packing).
type chain struct {
	tableSize int
	hashFn    func(b0, b1, b2 byte) uint32
	head      []int32
	prev      []int32
}

// newChain builds a chain using FNV-1a (spec's mandated hash for LZ77's
// own 1024-entry table).
func newChain(tableSize, bufLen int) *chain {
	return newChainWithHash(tableSize, bufLen, hash3)
}

// newChainSip builds a chain using SipHash-2-4 (the LZ77X 4096-entry
// table hash, see sipKey0/sipKey1 above).
func newChainSip(tableSize, bufLen int) *chain {
	return newChainWithHash(tableSize, bufLen, hash3Sip)
}

func newChainWithHash(tableSize, bufLen int, hashFn func(b0, b1, b2 byte) uint32) *chain {
	c := &chain{
		tableSize: tableSize,
		hashFn:    hashFn,
		head:      make([]int32, tableSize),
		prev:      make([]int32, bufLen),
	}
	for i := range c.head {
		c.head[i] = -1
	}
	for i := range c.prev {
		c.prev[i] = -1
	}
	return c
}

func (c *chain) hashAt(buf []byte, pos int) (uint32, bool) {
	if pos+3 > len(buf) {
		return 0, false
	}
	return c.hashFn(buf[pos], buf[pos+1], buf[pos+2]) % uint32(c.tableSize), true
}

// insert records pos as a new match candidate for the 3 bytes starting there.
func (c *chain) insert(buf []byte, pos int) {
	h, ok := c.hashAt(buf, pos)
	if !ok {
		return
	}
	c.prev[pos] = c.head[h]
	c.head[h] = int32(pos)
}

// find returns the longest candidate match for the bytes starting at pos
// within window bytes behind it, comparing against at most maxLen bytes.
// Ties go to the most recently inserted (largest) position, i.e. the
// smallest back-reference distance.
func (c *chain) find(buf []byte, pos, window, maxLen int) (offset, length int) {
	h, ok := c.hashAt(buf, pos)
	if !ok {
		return 0, 0
	}
	cand := c.head[h]
	for cand >= 0 {
		cpos := int(cand)
		dist := pos - cpos
		if dist > window {
			break
		}
		l := matchLen(buf, cpos, pos, maxLen)
		if l > length {
			length = l
			offset = dist
		}
		cand = c.prev[cpos]
	}
	return offset, length
}

func matchLen(buf []byte, a, b, maxLen int) int {
	n := 0
	for n < maxLen && b+n < len(buf) && buf[a+n] == buf[b+n] {
		n++
	}
	return n
}
