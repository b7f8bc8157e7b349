package netc

import (
	"encoding/binary"

	ierrors "github.com/netcio/netc/internal/errors"
	"github.com/netcio/netc/internal/prefilter"
)

// MaxPacketSize bounds original_size and compressed_size: both are 16-bit
// fields, and nothing upstream ever hands netc a packet larger than a
// single UDP datagram payload.
const MaxPacketSize = 65535

// LegacyHeaderSize is the fixed size of the legacy 8-byte header.
const LegacyHeaderSize = 8

// Algorithm identifies the entropy/match coder that produced a payload.
// Values other than AlgPassthru occupy the low nibble of the wire
// algorithm byte; the high nibble carries the winning context bucket for
// the single-region tANS variants.
type Algorithm uint8

const (
	AlgPassthru Algorithm = 0xFF
	AlgTANS     Algorithm = 0x01
	AlgRANS     Algorithm = 0x02 // reserved, never produced
	AlgTANSPCTX Algorithm = 0x03
	AlgLZP      Algorithm = 0x04
	AlgLZ77X    Algorithm = 0x05
	AlgTANS10   Algorithm = 0x06
)

// Flags is the legacy header's bitmask of pipeline decisions.
type Flags uint8

const (
	FlagDelta Flags = 1 << iota
	FlagBigram
	// FlagPassthru marks a PASSTHRU envelope that actually carries an
	// LZ77 token stream rather than raw bytes (spec §9's wire quirk:
	// standalone LZ77 rides under the PASSTHRU algorithm byte since it
	// has no entropy stage of its own to name a dedicated algorithm id).
	FlagPassthru
	// FlagDictID marks a payload whose algorithm consulted the bound
	// dictionary (LZP, and every tANS variant), per spec §4.14's header
	// composition rule; PASSTHRU and the dictionary-free LZ77/LZ77X paths
	// never set it.
	FlagDictID
	FlagLZ77
	FlagMREG
	FlagX2
)

// Header is the decoded, algorithm-agnostic form of a packet's framing.
// CompressedSize is meaningful only for the legacy wire form; compact
// headers infer it from the enclosing transport datagram's length.
type Header struct {
	OriginalSize   uint16
	CompressedSize uint16
	Flags          Flags
	Algorithm      Algorithm
	Bucket         uint8
	ModelID        uint8
	ContextSeq     uint8
}

// encodeAlgorithmByte packs an algorithm and, for single-region variants,
// a winning context bucket into the legacy header's single algorithm
// byte. PASSTHRU has no bucket and always encodes as the full byte 0xFF.
func encodeAlgorithmByte(alg Algorithm, bucket uint8) byte {
	if alg == AlgPassthru {
		return 0xFF
	}
	return byte(bucket<<4) | byte(alg&0x0F)
}

func decodeAlgorithmByte(b byte) (alg Algorithm, bucket uint8) {
	if b == 0xFF {
		return AlgPassthru, 0
	}
	return Algorithm(b & 0x0F), b >> 4
}

// WriteLegacyHeader encodes h into the fixed 8-byte legacy layout. dst
// must have length at least LegacyHeaderSize.
func WriteLegacyHeader(dst []byte, h Header) {
	binary.LittleEndian.PutUint16(dst[0:2], h.OriginalSize)
	binary.LittleEndian.PutUint16(dst[2:4], h.CompressedSize)
	dst[4] = byte(h.Flags)
	dst[5] = encodeAlgorithmByte(h.Algorithm, h.Bucket)
	dst[6] = h.ModelID
	dst[7] = h.ContextSeq
}

// ReadLegacyHeader decodes the fixed 8-byte legacy layout from the front
// of src.
func ReadLegacyHeader(src []byte) (Header, error) {
	if len(src) < LegacyHeaderSize {
		return Header{}, ierrors.New(ierrors.Corrupted, "legacy header truncated: have %d bytes, need %d", len(src), LegacyHeaderSize)
	}
	alg, bucket := decodeAlgorithmByte(src[5])
	return Header{
		OriginalSize:   binary.LittleEndian.Uint16(src[0:2]),
		CompressedSize: binary.LittleEndian.Uint16(src[2:4]),
		Flags:          Flags(src[4]),
		Algorithm:      alg,
		Bucket:         bucket,
		ModelID:        src[6],
		ContextSeq:     src[7],
	}, nil
}

// compactVariant is one row of the fixed, versioned enumeration that the
// compact header's 7-bit prefix indexes into. Growing this table is
// append-only: existing indices must never change meaning once a
// dictionary/stream using them ships, since the index itself is the wire
// representation.
type compactVariant struct {
	Algorithm Algorithm
	Flags     Flags
	Bucket    uint8
}

var compactVariants = buildCompactVariants()
var compactVariantIndex = buildCompactVariantIndex()

func buildCompactVariants() []compactVariant {
	v := []compactVariant{
		{AlgPassthru, 0, 0},
		{AlgPassthru, FlagPassthru | FlagLZ77, 0},
		{AlgPassthru, FlagPassthru | FlagLZ77 | FlagDelta, 0},
		{AlgLZ77X, 0, 0},
		{AlgLZ77X, FlagDelta, 0},
		{AlgLZP, FlagDictID, 0},
		{AlgLZP, FlagDelta | FlagDictID, 0},
	}
	pctxFlagSets := []Flags{
		FlagDictID,
		FlagDictID | FlagBigram,
		FlagDictID | FlagDelta,
		FlagDictID | FlagDelta | FlagBigram,
		FlagDictID | FlagMREG,
		FlagDictID | FlagMREG | FlagBigram,
		FlagDictID | FlagX2,
		FlagDictID | FlagX2 | FlagBigram,
	}
	for _, f := range pctxFlagSets {
		v = append(v, compactVariant{AlgTANSPCTX, f, 0})
	}
	for bucket := uint8(0); bucket < prefilter.CtxCount; bucket++ {
		v = append(v, compactVariant{AlgTANS, FlagDictID, bucket})
	}
	for bucket := uint8(0); bucket < prefilter.CtxCount; bucket++ {
		v = append(v, compactVariant{AlgTANS, FlagDelta | FlagDictID, bucket})
	}
	for bucket := uint8(0); bucket < prefilter.CtxCount; bucket++ {
		v = append(v, compactVariant{AlgTANS10, FlagDictID, bucket})
	}
	for bucket := uint8(0); bucket < prefilter.CtxCount; bucket++ {
		v = append(v, compactVariant{AlgTANS10, FlagDelta | FlagDictID, bucket})
	}
	return v
}

func buildCompactVariantIndex() map[compactVariant]int {
	m := make(map[compactVariant]int, len(compactVariants))
	for i, cv := range compactVariants {
		m[cv] = i
	}
	return m
}

// maxCompactVariants is the 7-bit prefix's addressable range.
const maxCompactVariants = 128

// compactHeaderSize returns the number of bytes WriteCompactHeader would
// produce for the given variant/size, or 0 if the variant cannot be
// represented compactly.
func compactHeaderSize(alg Algorithm, flags Flags, bucket uint8, originalSize uint16) int {
	idx, ok := compactVariantIndex[compactVariant{alg, flags, bucket}]
	if !ok || idx >= maxCompactVariants {
		return 0
	}
	if originalSize <= 0xFF {
		return 2
	}
	return 3
}

// WriteCompactHeader encodes h into the variable 2- or 3-byte compact layout
// (model_id and context_seq are inferred from the connection and are not
// carried on the wire). It reports false if h's algorithm/flags/bucket
// combination has no compact variant or dst is too small.
//
// Byte 0 is a prefix: the low 7 bits index into compactVariants; the top
// bit is clear when original_size fits in one byte (byte 1 holds it
// directly) and set when it needs two bytes (bytes 1-2, little-endian).
func WriteCompactHeader(dst []byte, h Header) (int, bool) {
	idx, ok := compactVariantIndex[compactVariant{h.Algorithm, h.Flags, h.Bucket}]
	if !ok || idx >= maxCompactVariants {
		return 0, false
	}
	small := h.OriginalSize <= 0xFF
	need := 2
	if !small {
		need = 3
	}
	if len(dst) < need {
		return 0, false
	}
	prefix := byte(idx)
	if !small {
		prefix |= 0x80
	}
	dst[0] = prefix
	if small {
		dst[1] = byte(h.OriginalSize)
		return 2, true
	}
	dst[1] = byte(h.OriginalSize)
	dst[2] = byte(h.OriginalSize >> 8)
	return 3, true
}

// ReadCompactHeader decodes a compact header from the front of src,
// returning the decoded Header and the number of bytes consumed.
// ModelID and ContextSeq are left zero; callers fill them in from the
// active context.
func ReadCompactHeader(src []byte) (Header, int, error) {
	if len(src) < 2 {
		return Header{}, 0, ierrors.New(ierrors.Corrupted, "compact header truncated: have %d bytes", len(src))
	}
	idx := int(src[0] & 0x7F)
	large := src[0]&0x80 != 0
	if idx >= len(compactVariants) {
		return Header{}, 0, ierrors.New(ierrors.Corrupted, "compact header: unknown variant index %d", idx)
	}
	cv := compactVariants[idx]
	var size uint16
	var n int
	if large {
		if len(src) < 3 {
			return Header{}, 0, ierrors.New(ierrors.Corrupted, "compact header truncated: need 3rd size byte")
		}
		size = uint16(src[1]) | uint16(src[2])<<8
		n = 3
	} else {
		size = uint16(src[1])
		n = 2
	}
	return Header{
		OriginalSize: size,
		Flags:        cv.Flags,
		Algorithm:    cv.Algorithm,
		Bucket:       cv.Bucket,
	}, n, nil
}
