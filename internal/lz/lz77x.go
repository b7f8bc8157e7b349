package lz

import "github.com/netcio/netc/internal/errors"

// LZ77X extends within-packet LZ77 with a third token shape that
// back-references the connection's ring buffer history, at the cost of
// one length bit shared between the two reference shapes (spec §4.9):
//   - literal:          0lllllll               (unchanged, 7-bit length)
//   - within-packet ref: 10llllll oooooooo     (6-bit length, 8-bit offset)
//   - ring ref:          11llllll lo hi        (6-bit length, 16-bit offset)
const (
	hashTableLZ77X = 4096
	maxMatchX      = 66 // l+3, l in [0,63]
	matchBiasX     = 3
	ringTailMax    = RingCapacity
)

// EncodeLZ77X compresses src using both within-packet matches and
// back-references into ring (the connection's history up to this point,
// not yet including src itself). It reports false on overflow or if the
// packed size would reach or exceed len(src), the same trial-and-pick
// contract as EncodeLZ77.
func EncodeLZ77X(dst, src []byte, ring *Ring) (int, bool) {
	n := len(src)
	pktChain := newChainSip(hashTableLZ77X, n)

	tail := ring.tail(ringTailMax)
	ringChain := newChainSip(hashTableLZ77X, len(tail))
	for i := range tail {
		ringChain.insert(tail, i)
	}

	out := 0
	emit := func(b byte) bool {
		if out >= len(dst) || out >= n {
			return false
		}
		dst[out] = b
		out++
		return true
	}

	pos := 0
	litStart := -1
	flushLiterals := func(upTo int) bool {
		if litStart < 0 {
			return true
		}
		for litStart < upTo {
			runLen := upTo - litStart
			if runLen > maxLiteralRun {
				runLen = maxLiteralRun
			}
			if !emit(byte(runLen - literalRunBias)) {
				return false
			}
			for i := 0; i < runLen; i++ {
				if !emit(src[litStart+i]) {
					return false
				}
			}
			litStart += runLen
		}
		litStart = -1
		return true
	}

	for pos < n {
		pktOff, pktLen := pktChain.find(src, pos, windowLZ77, maxMatchX)
		ringLen, ringDistBack := bestRingMatch(ringChain, tail, src, pos)

		switch {
		case ringLen >= minMatch && ringLen > pktLen:
			if !flushLiterals(pos) {
				return 0, false
			}
			if !emit(byte(0xC0 | (ringLen - matchBiasX))) {
				return 0, false
			}
			o := ringDistBack - 1
			if !emit(byte(o)) || !emit(byte(o >> 8)) {
				return 0, false
			}
			for i := 0; i < ringLen; i++ {
				pktChain.insert(src, pos+i)
			}
			pos += ringLen
		case pktLen >= minMatch:
			if !flushLiterals(pos) {
				return 0, false
			}
			if !emit(byte(0x80 | (pktLen - matchBiasX))) {
				return 0, false
			}
			if !emit(byte(pktOff - shortOffsetBias)) {
				return 0, false
			}
			for i := 0; i < pktLen; i++ {
				pktChain.insert(src, pos+i)
			}
			pos += pktLen
		default:
			if litStart < 0 {
				litStart = pos
			}
			pktChain.insert(src, pos)
			pos++
		}
	}
	if !flushLiterals(n) {
		return 0, false
	}
	if out >= n {
		return 0, false
	}
	return out, true
}

// bestRingMatch finds the longest match for src[pos:] against the ring
// snapshot tail, using a chain already built over tail. It returns the
// match length and the ring distanceBack (1-based, from the ring's
// current write position) the match starts at.
func bestRingMatch(ringChain *chain, tail []byte, src []byte, pos int) (length, distBack int) {
	if pos+minMatch > len(src) || len(tail) < minMatch {
		return 0, 0
	}
	h, ok := ringChain.hashAt(src, pos)
	if !ok {
		return 0, 0
	}
	cand := ringChain.head[h]
	for cand >= 0 {
		tpos := int(cand)
		l := 0
		for l < maxMatchX && pos+l < len(src) && tpos+l < len(tail) && src[pos+l] == tail[tpos+l] {
			l++
		}
		if l > length {
			length = l
			distBack = len(tail) - tpos
		}
		cand = ringChain.prev[tpos]
	}
	return length, distBack
}

// DecodeLZ77X inverts EncodeLZ77X into exactly len(dst) bytes, reading
// ring back-references from ring (which must hold exactly the history
// the encoder saw: same appends, same order). It panics with a Corrupted
// error on any malformed token.
func DecodeLZ77X(dst, payload []byte, ring *Ring) {
	pos := 0
	p := 0
	for pos < len(dst) {
		if p >= len(payload) {
			errors.Panic(errors.Corrupted, "lz77x: token stream exhausted at output offset %d", pos)
		}
		tok := payload[p]
		p++
		switch {
		case tok&0x80 == 0:
			runLen := int(tok) + literalRunBias
			if pos+runLen > len(dst) || p+runLen > len(payload) {
				errors.Panic(errors.Corrupted, "lz77x: literal run overruns buffer")
			}
			copy(dst[pos:pos+runLen], payload[p:p+runLen])
			pos += runLen
			p += runLen
		case tok&0xC0 == 0x80:
			if p >= len(payload) {
				errors.Panic(errors.Corrupted, "lz77x: truncated within-packet reference")
			}
			length := int(tok&0x3f) + matchBiasX
			offset := int(payload[p]) + shortOffsetBias
			p++
			if offset > pos {
				errors.Panic(errors.Corrupted, "lz77x: within-packet offset %d exceeds output position %d", offset, pos)
			}
			if pos+length > len(dst) {
				errors.Panic(errors.Corrupted, "lz77x: within-packet reference overruns buffer")
			}
			src := pos - offset
			for i := 0; i < length; i++ {
				dst[pos+i] = dst[src+i]
			}
			pos += length
		default: // tok&0xC0 == 0xC0
			if p+1 >= len(payload) {
				errors.Panic(errors.Corrupted, "lz77x: truncated ring reference")
			}
			length := int(tok&0x3f) + matchBiasX
			lo, hi := payload[p], payload[p+1]
			p += 2
			distBack := int(lo) | int(hi)<<8
			distBack++
			if distBack > ring.Len() {
				errors.Panic(errors.Corrupted, "lz77x: ring distance %d exceeds history length %d", distBack, ring.Len())
			}
			if pos+length > len(dst) {
				errors.Panic(errors.Corrupted, "lz77x: ring reference overruns buffer")
			}
			for i := 0; i < length; i++ {
				// A ring match never runs past the newest history byte: the
				// encoder bounds it by the tail length, and ring only gains
				// this packet's bytes after the whole packet decodes — so
				// every byte of a ring match reads purely from history that
				// predates this packet.
				dst[pos+i] = ring.At(distBack - i)
			}
			pos += length
		}
	}
}
