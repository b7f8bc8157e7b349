package lz

import "github.com/netcio/netc/internal/errors"

// Within-packet LZ77 (spec §4.8): a two-shape token stream distinguished
// by the token byte's top bit. There is no long-reference third shape
// here (that only exists once LZ77X's ring buffer adds a third token
// type, see lz77x.go), so the length field gets the full low 7 bits.
const (
	windowLZ77      = 256
	hashTableLZ77   = 1024
	minMatch        = 3
	maxLiteralRun   = 128 // l+1, l in [0,127]
	maxShortMatch   = 130 // l+3, l in [0,127]
	shortMatchBias  = 3
	literalRunBias  = 1
	shortOffsetBias = 1
)

// EncodeLZ77 compresses src into dst using within-packet back-references
// only. It reports false (never panics) if dst is too small or the
// packed output would reach or exceed len(src) — both are ordinary
// trial-and-pick failures, not errors.
func EncodeLZ77(dst, src []byte) (int, bool) {
	n := len(src)
	c := newChain(hashTableLZ77, n)
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
		offset, length := c.find(src, pos, windowLZ77, maxShortMatch)
		if length >= minMatch {
			if !flushLiterals(pos) {
				return 0, false
			}
			if !emit(byte(0x80 | (length - shortMatchBias))) {
				return 0, false
			}
			if !emit(byte(offset - shortOffsetBias)) {
				return 0, false
			}
			for i := 0; i < length; i++ {
				c.insert(src, pos+i)
			}
			pos += length
			continue
		}
		if litStart < 0 {
			litStart = pos
		}
		c.insert(src, pos)
		pos++
	}
	if !flushLiterals(n) {
		return 0, false
	}
	if out >= n {
		return 0, false
	}
	return out, true
}

// DecodeLZ77 expands a token stream produced by EncodeLZ77 into exactly
// len(dst) bytes. It panics with a Corrupted error on any malformed
// token, consistent with decompression's no-fallback contract.
func DecodeLZ77(dst, payload []byte) {
	pos := 0
	p := 0
	for pos < len(dst) {
		if p >= len(payload) {
			errors.Panic(errors.Corrupted, "lz77: token stream exhausted at output offset %d", pos)
		}
		tok := payload[p]
		p++
		if tok&0x80 == 0 {
			runLen := int(tok) + literalRunBias
			if pos+runLen > len(dst) || p+runLen > len(payload) {
				errors.Panic(errors.Corrupted, "lz77: literal run overruns buffer")
			}
			copy(dst[pos:pos+runLen], payload[p:p+runLen])
			pos += runLen
			p += runLen
			continue
		}
		if p >= len(payload) {
			errors.Panic(errors.Corrupted, "lz77: truncated back-reference token")
		}
		length := int(tok&0x7f) + shortMatchBias
		offset := int(payload[p]) + shortOffsetBias
		p++
		if offset > pos {
			errors.Panic(errors.Corrupted, "lz77: back-reference offset %d exceeds output position %d", offset, pos)
		}
		if pos+length > len(dst) {
			errors.Panic(errors.Corrupted, "lz77: back-reference overruns buffer")
		}
		src := pos - offset
		for i := 0; i < length; i++ {
			dst[pos+i] = dst[src+i]
		}
		pos += length
	}
}
