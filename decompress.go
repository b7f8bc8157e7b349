package netc

import (
	ierrors "github.com/netcio/netc/internal/errors"
	"github.com/netcio/netc/internal/lz"
	"github.com/netcio/netc/internal/prefilter"
	"github.com/netcio/netc/internal/tans"
)

func needsDictionary(alg Algorithm) bool {
	switch alg {
	case AlgTANS, AlgTANSPCTX, AlgTANS10, AlgLZP:
		return true
	default:
		return false
	}
}

// decodeMREG inverts mregCandidate's per-bucket-segment body into out,
// recomputing segment boundaries from len(out) the same way the
// compressor did, since the segmentation is a pure function of packet
// length and needs nothing stored on the wire.
func decodeMREG(out, body []byte, dict *Dictionary) {
	segs := bucketSegments(len(out))
	off := 0
	for _, bounds := range segs {
		if off+8 > len(body) {
			ierrors.Panic(ierrors.Corrupted, "mreg: truncated segment header")
		}
		bitLen, finalState, _, err := unpackTansBody(body[off:])
		if err != nil {
			ierrors.Panic(ierrors.Corrupted, "mreg: %s", err.Error())
		}
		payloadLen := (bitLen + 7) / 8
		if off+8+payloadLen > len(body) {
			ierrors.Panic(ierrors.Corrupted, "mreg: truncated segment payload")
		}
		payload := body[off+8 : off+8+payloadLen]
		bucket := prefilter.CtxBucket(bounds[0])
		tb := dict.UnigramTables[bucket]
		tans.DecodeStream(out[bounds[0]:bounds[1]], payload, bitLen, finalState, tans.Const(tb))
		off += 8 + payloadLen
	}
}

// Decompress inverts Compress: it parses the header in whichever form
// ctx is configured for, validates bounds and model compatibility,
// dispatches to the algorithm that produced the payload, inverts any
// pre-filter in the reverse of the order Compress applied it, then
// updates connection state exactly as Compress does (using the
// recovered plaintext), so a stateful sender and receiver stay in
// lockstep regardless of which side produced which bytes.
func Decompress(ctx *Context, dst, src []byte) (n int, err error) {
	defer ierrors.Recover(&err)

	if ctx == nil {
		return 0, ierrors.New(ierrors.NilContext, "nil context")
	}

	var h Header
	var consumed int
	if ctx.cfg.compact() {
		var herr error
		h, consumed, herr = ReadCompactHeader(src)
		if herr != nil {
			return 0, herr
		}
	} else {
		var herr error
		h, herr = ReadLegacyHeader(src)
		if herr != nil {
			return 0, herr
		}
		consumed = LegacyHeaderSize
	}

	if int(h.OriginalSize) > MaxPacketSize {
		return 0, ierrors.New(ierrors.TooBig, "original_size %d exceeds max %d", h.OriginalSize, MaxPacketSize)
	}
	if len(dst) < int(h.OriginalSize) {
		return 0, ierrors.New(ierrors.BufferTooSmall, "dst has %d bytes, need %d", len(dst), h.OriginalSize)
	}

	body := src[consumed:]
	if !ctx.cfg.compact() {
		if len(body) < int(h.CompressedSize) {
			return 0, ierrors.New(ierrors.Corrupted, "truncated payload: have %d, want %d", len(body), h.CompressedSize)
		}
		body = body[:h.CompressedSize]
	}

	var dict *Dictionary
	if needsDictionary(h.Algorithm) {
		dict = ctx.activeDictionary()
		if dict == nil {
			return 0, ierrors.New(ierrors.DictInvalid, "no dictionary bound to context")
		}
		if !ctx.cfg.compact() && h.ModelID != dict.ModelID {
			return 0, ierrors.New(ierrors.VersionMismatch, "model_id %d does not match bound dictionary %d", h.ModelID, dict.ModelID)
		}
	}

	if h.Flags&FlagDelta != 0 && !ctx.cfg.stateful() {
		return 0, ierrors.New(ierrors.InvalidArgument, "delta-filtered packet received by a stateless context")
	}
	var prev []byte
	if h.Flags&FlagDelta != 0 {
		prev = ctx.prevPacket()
		if prev == nil || len(prev) < int(h.OriginalSize) {
			return 0, ierrors.New(ierrors.Corrupted, "delta packet with no usable previous packet on record")
		}
		prev = prev[:h.OriginalSize]
	}

	out := dst[:h.OriginalSize]

	switch {
	case h.Algorithm == AlgPassthru && h.Flags&FlagPassthru == 0:
		copy(out, body)

	case h.Algorithm == AlgPassthru && h.Flags&FlagPassthru != 0 && h.Flags&FlagLZ77 != 0:
		lz.DecodeLZ77(out, body)

	case h.Algorithm == AlgLZ77X:
		lz.DecodeLZ77X(out, body, &ctx.ring)

	case h.Algorithm == AlgLZP:
		prefilter.XORDecode(out, body, &dict.Predictor)

	case h.Algorithm == AlgTANS || h.Algorithm == AlgTANS10:
		bitLen, finalState, payload, uerr := unpackTansBody(body)
		if uerr != nil {
			return 0, uerr
		}
		tb := dict.UnigramTables[h.Bucket]
		if h.Algorithm == AlgTANS10 {
			f := tans.Rescale(dict.Unigram[h.Bucket], tans.MaxBitsSmall)
			tb = tans.Build(f)
		}
		tans.DecodeStream(out, payload, bitLen, finalState, tans.Const(tb))

	case h.Algorithm == AlgTANSPCTX && h.Flags&FlagX2 != 0:
		bitLen, stE, stO, payload, uerr := unpackX2Body(body)
		if uerr != nil {
			return 0, uerr
		}
		bucket := prefilter.CtxBucket(0)
		tb := dict.UnigramTables[bucket]
		tans.DecodeStreamX2(out, payload, bitLen, stE, stO, tb, tb)

	case h.Algorithm == AlgTANSPCTX && h.Flags&FlagMREG != 0:
		decodeMREG(out, body, dict)

	case h.Algorithm == AlgTANSPCTX:
		bitLen, finalState, payload, uerr := unpackTansBody(body)
		if uerr != nil {
			return 0, uerr
		}
		sel := pctxSelector(dict, h.Flags&FlagBigram != 0)
		tans.DecodeStream(out, payload, bitLen, finalState, sel)

	default:
		return 0, ierrors.New(ierrors.Corrupted, "unrecognized algorithm byte (%d, flags %#x)", h.Algorithm, h.Flags)
	}

	if h.Flags&FlagDelta != 0 {
		prefilter.DeltaDecode(out, out, prev)
	}

	ctx.advance(out)
	if ctx.stats != nil {
		ctx.stats.PacketsDecompressed++
		ctx.stats.BytesIn += uint64(consumed + len(body))
		ctx.stats.BytesOut += uint64(len(out))
	}
	return int(h.OriginalSize), nil
}
