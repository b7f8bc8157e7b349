package netc

import (
	"encoding/binary"

	ierrors "github.com/netcio/netc/internal/errors"
	"github.com/netcio/netc/internal/lz"
	"github.com/netcio/netc/internal/prefilter"
	"github.com/netcio/netc/internal/tans"
)

// Trial priority, used only to break ties between candidates of equal
// wire size: lower wins. Passthrough first means a trial whose output is
// only as small as the original loses to sending the packet raw; the
// rest roughly orders cheapest-to-decode first.
const (
	priPassthrough = iota
	priLZ77
	priLZ77X
	priLZP
	priSingleRegion
	priTANS10
	priPCTX
	priX2
	priMREG
)

// candidate is one fully-built trial result from the compressor's
// trial-and-pick loop.
type candidate struct {
	priority   int
	size       int // header + body, using whichever header form cfg selects
	header     Header
	body       []byte
	useCompact bool
}

func tansBufSize(n int) int { return n*2 + 64 }

func finishCandidate(cfg Config, priority int, h Header, body []byte) candidate {
	headerSize := LegacyHeaderSize
	useCompact := false
	if cfg.compact() {
		if cs := compactHeaderSize(h.Algorithm, h.Flags, h.Bucket, h.OriginalSize); cs > 0 {
			headerSize = cs
			useCompact = true
		}
	}
	return candidate{
		priority:   priority,
		size:       headerSize + len(body),
		header:     h,
		body:       body,
		useCompact: useCompact,
	}
}

func pickBest(cands []candidate) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.size < best.size || (c.size == best.size && c.priority < best.priority) {
			best = c
		}
	}
	return best
}

// packTansBody serializes one entropy stream into a self-contained body:
// a 4-byte bit length and 4-byte final state (both wide enough for the
// worst-case expansion of a 65535-byte packet, well beyond what a
// 16-bit field could hold) followed by the packed payload.
func packTansBody(st tans.Stream) []byte {
	out := make([]byte, 8+len(st.Payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(st.BitLen))
	binary.LittleEndian.PutUint32(out[4:8], st.FinalState)
	copy(out[8:], st.Payload)
	return out
}

func unpackTansBody(body []byte) (bitLen int, finalState uint32, payload []byte, err error) {
	if len(body) < 8 {
		return 0, 0, nil, ierrors.New(ierrors.Corrupted, "tans body truncated: %d bytes", len(body))
	}
	bitLen = int(binary.LittleEndian.Uint32(body[0:4]))
	finalState = binary.LittleEndian.Uint32(body[4:8])
	payload = body[8:]
	return bitLen, finalState, payload, nil
}

func packX2Body(stE, stO tans.Stream) []byte {
	out := make([]byte, 12+len(stE.Payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(stE.BitLen))
	binary.LittleEndian.PutUint32(out[4:8], stE.FinalState)
	binary.LittleEndian.PutUint32(out[8:12], stO.FinalState)
	copy(out[12:], stE.Payload)
	return out
}

func unpackX2Body(body []byte) (bitLen int, finalStateEven, finalStateOdd uint32, payload []byte, err error) {
	if len(body) < 12 {
		return 0, 0, 0, nil, ierrors.New(ierrors.Corrupted, "x2 body truncated: %d bytes", len(body))
	}
	bitLen = int(binary.LittleEndian.Uint32(body[0:4]))
	finalStateEven = binary.LittleEndian.Uint32(body[4:8])
	finalStateOdd = binary.LittleEndian.Uint32(body[8:12])
	payload = body[12:]
	return bitLen, finalStateEven, finalStateOdd, payload, nil
}

// bucketSegments partitions [0,n) into contiguous runs that share a
// single context bucket, the same boundaries prefilter.CtxBucket would
// produce, without needing the bucket-start table to be exported.
func bucketSegments(n int) [][2]int {
	if n == 0 {
		return nil
	}
	var segs [][2]int
	start := 0
	for i := 1; i < n; i++ {
		if prefilter.CtxBucket(i) != prefilter.CtxBucket(i-1) {
			segs = append(segs, [2]int{start, i})
			start = i
		}
	}
	segs = append(segs, [2]int{start, n})
	return segs
}

func packMREGBody(segs [][2]int, streams []tans.Stream) []byte {
	size := 0
	for _, st := range streams {
		size += 8 + len(st.Payload)
	}
	out := make([]byte, size)
	off := 0
	for _, st := range streams {
		binary.LittleEndian.PutUint32(out[off:off+4], uint32(st.BitLen))
		binary.LittleEndian.PutUint32(out[off+4:off+8], st.FinalState)
		off += 8
		copy(out[off:off+len(st.Payload)], st.Payload)
		off += len(st.Payload)
	}
	return out
}

func pctxSelector(dict *Dictionary, bigram bool) tans.Selector {
	return func(pos int, prev byte) *tans.Table {
		bucket := prefilter.CtxBucket(pos)
		if bigram {
			return dict.BigramTables[bucket][BigramClass(prev)]
		}
		return dict.UnigramTables[bucket]
	}
}

func passthroughCandidate(cfg Config, src []byte) candidate {
	body := make([]byte, len(src))
	copy(body, src)
	h := Header{OriginalSize: uint16(len(src)), CompressedSize: uint16(len(body)), Algorithm: AlgPassthru}
	return finishCandidate(cfg, priPassthrough, h, body)
}

func lz77Candidate(cfg Config, origLen int, data []byte, delta bool) (candidate, bool) {
	buf := make([]byte, len(data))
	n, ok := lz.EncodeLZ77(buf, data)
	if !ok {
		return candidate{}, false
	}
	flags := FlagPassthru | FlagLZ77
	if delta {
		flags |= FlagDelta
	}
	h := Header{OriginalSize: uint16(origLen), CompressedSize: uint16(n), Algorithm: AlgPassthru, Flags: flags}
	return finishCandidate(cfg, priLZ77, h, buf[:n]), true
}

func lz77xCandidate(cfg Config, origLen int, data []byte, delta bool, ring *lz.Ring) (candidate, bool) {
	buf := make([]byte, len(data))
	n, ok := lz.EncodeLZ77X(buf, data, ring)
	if !ok {
		return candidate{}, false
	}
	flags := Flags(0)
	if delta {
		flags |= FlagDelta
	}
	h := Header{OriginalSize: uint16(origLen), CompressedSize: uint16(n), Algorithm: AlgLZ77X, Flags: flags}
	return finishCandidate(cfg, priLZ77X, h, buf[:n]), true
}

func lzpCandidate(cfg Config, origLen int, data []byte, delta bool, dict *Dictionary) (candidate, bool) {
	if len(data) == 0 || !dict.HasLZP {
		return candidate{}, false
	}
	body := make([]byte, len(data))
	prefilter.XOREncode(body, data, &dict.Predictor)
	flags := FlagDictID
	if delta {
		flags |= FlagDelta
	}
	h := Header{OriginalSize: uint16(origLen), CompressedSize: uint16(len(body)), Algorithm: AlgLZP, Flags: flags}
	return finishCandidate(cfg, priLZP, h, body), true
}

func singleRegionCandidate(cfg Config, origLen int, data []byte, delta bool, dict *Dictionary, tenBit bool) (candidate, bool) {
	if len(data) == 0 {
		return candidate{}, false
	}
	bucket := prefilter.CtxBucket(0)
	if prefilter.CtxBucket(len(data)-1) != bucket {
		return candidate{}, false
	}
	tb := dict.UnigramTables[bucket]
	alg := AlgTANS
	pri := priSingleRegion
	if tenBit {
		f := tans.Rescale(dict.Unigram[bucket], tans.MaxBitsSmall)
		tb = tans.Build(f)
		alg = AlgTANS10
		pri = priTANS10
	}
	buf := make([]byte, tansBufSize(len(data)))
	st, ok := tans.EncodeStream(buf, data, tb.T(), tans.Const(tb))
	if !ok {
		return candidate{}, false
	}
	flags := FlagDictID
	if delta {
		flags |= FlagDelta
	}
	body := packTansBody(st)
	h := Header{OriginalSize: uint16(origLen), Algorithm: alg, Bucket: uint8(bucket), Flags: flags, CompressedSize: uint16(len(body))}
	return finishCandidate(cfg, pri, h, body), true
}

func pctxCandidate(cfg Config, origLen int, data []byte, delta bool, dict *Dictionary, bigram bool) (candidate, bool) {
	if len(data) == 0 {
		return candidate{}, false
	}
	sel := pctxSelector(dict, bigram)
	buf := make([]byte, tansBufSize(len(data)))
	state0 := dict.UnigramTables[prefilter.CtxBucket(0)].T()
	st, ok := tans.EncodeStream(buf, data, state0, sel)
	if !ok {
		return candidate{}, false
	}
	flags := FlagDictID
	if delta {
		flags |= FlagDelta
	}
	if bigram {
		flags |= FlagBigram
	}
	body := packTansBody(st)
	h := Header{OriginalSize: uint16(origLen), Algorithm: AlgTANSPCTX, Flags: flags, CompressedSize: uint16(len(body))}
	return finishCandidate(cfg, priPCTX, h, body), true
}

func x2Candidate(cfg Config, origLen int, data []byte, delta bool, dict *Dictionary) (candidate, bool) {
	if len(data) == 0 {
		return candidate{}, false
	}
	bucket := prefilter.CtxBucket(0)
	tb := dict.UnigramTables[bucket]
	buf := make([]byte, tansBufSize(len(data)))
	stE, stO, ok := tans.EncodeStreamX2(buf, data, tb.T(), tb.T(), tb, tb)
	if !ok {
		return candidate{}, false
	}
	flags := FlagX2 | FlagDictID
	if delta {
		flags |= FlagDelta
	}
	body := packX2Body(stE, stO)
	h := Header{OriginalSize: uint16(origLen), Algorithm: AlgTANSPCTX, Flags: flags, CompressedSize: uint16(len(body))}
	return finishCandidate(cfg, priX2, h, body), true
}

func mregCandidate(cfg Config, origLen int, data []byte, delta bool, dict *Dictionary) (candidate, bool) {
	segs := bucketSegments(len(data))
	if len(segs) < 2 {
		return candidate{}, false // single-region already covers this case
	}
	streams := make([]tans.Stream, 0, len(segs))
	for _, bounds := range segs {
		seg := data[bounds[0]:bounds[1]]
		bucket := prefilter.CtxBucket(bounds[0])
		tb := dict.UnigramTables[bucket]
		buf := make([]byte, tansBufSize(len(seg)))
		st, ok := tans.EncodeStream(buf, seg, tb.T(), tans.Const(tb))
		if !ok {
			return candidate{}, false
		}
		streams = append(streams, st)
	}
	flags := FlagMREG | FlagDictID
	if delta {
		flags |= FlagDelta
	}
	body := packMREGBody(segs, streams)
	h := Header{OriginalSize: uint16(origLen), Algorithm: AlgTANSPCTX, Flags: flags, CompressedSize: uint16(len(body))}
	return finishCandidate(cfg, priMREG, h, body), true
}

// Compress runs the full pipeline (pre-filter selection, entropy/LZ
// trials, smallest-wins pick, header composition, state update) and
// writes the resulting packet into dst, returning the number of bytes
// written.
func Compress(ctx *Context, dst, src []byte) (n int, err error) {
	defer ierrors.Recover(&err)

	if ctx == nil {
		return 0, ierrors.New(ierrors.NilContext, "nil context")
	}
	if len(src) > MaxPacketSize {
		return 0, ierrors.New(ierrors.TooBig, "packet size %d exceeds max %d", len(src), MaxPacketSize)
	}

	dict := ctx.activeDictionary()
	prevPkt := ctx.prevPacket()

	candidates := []candidate{passthroughCandidate(ctx.cfg, src)}

	type variant struct {
		data  []byte
		delta bool
	}
	variants := []variant{{src, false}}
	deltaOK := ctx.cfg.stateful() && ctx.cfg.delta() && prevPkt != nil &&
		len(prevPkt) >= len(src) && len(src) >= prefilter.DeltaMinSize
	if deltaOK && !ctx.cfg.fast() {
		residual := make([]byte, len(src))
		prefilter.DeltaEncode(residual, src, prevPkt[:len(src)])
		variants = append(variants, variant{residual, true})
	}

	for _, v := range variants {
		if c, ok := lz77Candidate(ctx.cfg, len(src), v.data, v.delta); ok {
			candidates = append(candidates, c)
		}
		if ctx.cfg.stateful() {
			if c, ok := lz77xCandidate(ctx.cfg, len(src), v.data, v.delta, &ctx.ring); ok {
				candidates = append(candidates, c)
			}
		}
		if dict == nil {
			continue
		}
		if c, ok := lzpCandidate(ctx.cfg, len(src), v.data, v.delta, dict); ok {
			candidates = append(candidates, c)
		}
		if c, ok := singleRegionCandidate(ctx.cfg, len(src), v.data, v.delta, dict, false); ok {
			candidates = append(candidates, c)
		}
		if !ctx.cfg.fast() {
			if c, ok := singleRegionCandidate(ctx.cfg, len(src), v.data, v.delta, dict, true); ok {
				candidates = append(candidates, c)
			}
		}
		if c, ok := pctxCandidate(ctx.cfg, len(src), v.data, v.delta, dict, false); ok {
			candidates = append(candidates, c)
		}
		if ctx.cfg.bigram() {
			if c, ok := pctxCandidate(ctx.cfg, len(src), v.data, v.delta, dict, true); ok {
				candidates = append(candidates, c)
			}
		}
		// X2 and MREG only ever run on the non-delta variant: the compact
		// header's fixed variant table enumerates plain and
		// bigram-qualified X2/MREG entries but not delta-qualified ones
		// (spec leaves the exact table contents unspecified; this keeps
		// every candidate the pipeline can produce representable in
		// compact form when COMPACT_HDR is set, rather than silently
		// falling back to a legacy header the receiver isn't expecting).
		if !ctx.cfg.fast() && !v.delta {
			if c, ok := x2Candidate(ctx.cfg, len(src), v.data, v.delta, dict); ok {
				candidates = append(candidates, c)
			}
			if c, ok := mregCandidate(ctx.cfg, len(src), v.data, v.delta, dict); ok {
				candidates = append(candidates, c)
			}
		}
	}

	best := pickBest(candidates)

	var headerBuf [LegacyHeaderSize]byte
	var headerLen int
	if best.useCompact {
		hl, ok := WriteCompactHeader(headerBuf[:], best.header)
		if !ok {
			return 0, ierrors.New(ierrors.BufferTooSmall, "compact header encode failed unexpectedly")
		}
		headerLen = hl
	} else {
		best.header.ModelID = modelIDOf(dict)
		best.header.ContextSeq = ctx.seq
		WriteLegacyHeader(headerBuf[:], best.header)
		headerLen = LegacyHeaderSize
	}

	total := headerLen + len(best.body)
	if len(dst) < total {
		return 0, ierrors.New(ierrors.BufferTooSmall, "dst has %d bytes, need %d", len(dst), total)
	}
	copy(dst, headerBuf[:headerLen])
	copy(dst[headerLen:], best.body)

	ctx.advance(src)
	if ctx.stats != nil {
		ctx.stats.PacketsCompressed++
		ctx.stats.BytesIn += uint64(len(src))
		ctx.stats.BytesOut += uint64(total)
		if best.header.Algorithm == AlgPassthru && best.header.Flags&FlagLZ77 == 0 {
			ctx.stats.PassthroughCount++
		}
	}
	return total, nil
}

func modelIDOf(dict *Dictionary) uint8 {
	if dict == nil {
		return 0
	}
	return dict.ModelID
}
