package netc

import (
	"encoding/binary"

	"github.com/netcio/netc/internal/crc"
	ierrors "github.com/netcio/netc/internal/errors"
	"github.com/netcio/netc/internal/prefilter"
	"github.com/netcio/netc/internal/tans"
)

// dictMagic is the little-endian encoding of the ASCII bytes "NETC".
const dictMagic uint32 = 'N' | 'E'<<8 | 'T'<<16 | 'C'<<24

// dictVersion is the only blob layout this package writes or accepts.
const dictVersion uint8 = 3

const (
	dictHeaderSize  = 8 // magic(4) + version(1) + model_id(1) + ctx_count(1) + pad(1)
	dictUnigramSize = prefilter.CtxCount * 256 * 2
	dictBigramSize  = prefilter.CtxCount * 4 * 256 * 2
	dictCRCSize     = 4
	dictLZPSize     = 256

	// dictFixedSizeNoLZP is the v3 layout's size when no LZP section is
	// present: 8 + 8192 + 32768 + 4 = 40972 bytes.
	dictFixedSizeNoLZP   = dictHeaderSize + dictUnigramSize + dictBigramSize + dictCRCSize
	dictFixedSizeWithLZP = dictFixedSizeNoLZP + dictLZPSize
)

// Dictionary is a trained, read-only model: 16 position-bucket unigram
// tANS tables, 16x4 bigram sub-tables keyed by the preceding byte's
// class, and an optional LZP predictor. Dictionaries are produced once
// by Train (or Load) and then shared read-only across every Context that
// names their ModelID.
type Dictionary struct {
	ModelID uint8

	Unigram       [prefilter.CtxCount]tans.Freq
	UnigramTables [prefilter.CtxCount]*tans.Table

	Bigram       [prefilter.CtxCount][4]tans.Freq
	BigramTables [prefilter.CtxCount][4]*tans.Table

	HasLZP    bool
	Predictor prefilter.Predictor
}

// TrainOptions controls Train's corpus pass.
type TrainOptions struct {
	// DeriveLZP, when true, also trains an LZP predictor from the same
	// corpus (majority-vote byte per context).
	DeriveLZP bool
	// BigramClassMap overrides the default preceding-byte-to-class
	// mapping used to bucket training counts into bigram sub-tables. Nil
	// uses defaultBigramClassMap. The override is not stored in the
	// Dictionary: Compress, Decompress and adaptive retraining always
	// select sub-tables with defaultBigramClassMap.
	BigramClassMap *[256]uint8
}

// defaultBigramClassMap buckets the preceding byte into one of 4 classes
// by magnitude: low control-ish bytes, ASCII-ish bytes, upper-ASCII, and
// high bytes. It is a coarse, content-agnostic split — good enough to
// separate common byte neighborhoods without requiring any
// protocol-specific knowledge at training time.
var defaultBigramClassMap = buildDefaultBigramClassMap()

func buildDefaultBigramClassMap() [256]uint8 {
	var m [256]uint8
	for i := range m {
		switch {
		case i < 16:
			m[i] = 0
		case i < 128:
			m[i] = 1
		case i < 224:
			m[i] = 2
		default:
			m[i] = 3
		}
	}
	return m
}

// BigramClass returns the bigram sub-table class for a preceding byte.
func BigramClass(prev byte) int { return int(defaultBigramClassMap[prev]) }

// Train builds a Dictionary from a corpus of representative packets.
// modelID must be in [1,254]; 0 and 255 are reserved (0 means "no
// dictionary").
func Train(packets [][]byte, modelID uint8, opts TrainOptions) (*Dictionary, error) {
	if modelID == 0 || modelID == 255 {
		return nil, ierrors.New(ierrors.InvalidArgument, "model_id %d is reserved", modelID)
	}

	classMap := defaultBigramClassMap
	if opts.BigramClassMap != nil {
		classMap = *opts.BigramClassMap
	}

	var rawUni [prefilter.CtxCount][256]uint64
	var rawBi [prefilter.CtxCount][4][256]uint64

	for _, pkt := range packets {
		var prev byte
		for i, b := range pkt {
			bucket := prefilter.CtxBucket(i)
			rawUni[bucket][b]++
			if i > 0 {
				cls := classMap[prev]
				rawBi[bucket][cls][b]++
			}
			prev = b
		}
	}

	d := &Dictionary{ModelID: modelID}
	for bucket := 0; bucket < prefilter.CtxCount; bucket++ {
		f := tans.Normalize(rawUni[bucket], tans.MaxBitsDefault)
		d.Unigram[bucket] = f
		d.UnigramTables[bucket] = tans.Build(f)
		for cls := 0; cls < 4; cls++ {
			bf := tans.Normalize(rawBi[bucket][cls], tans.MaxBitsDefault)
			d.Bigram[bucket][cls] = bf
			d.BigramTables[bucket][cls] = tans.Build(bf)
		}
	}

	if opts.DeriveLZP {
		d.HasLZP = true
		d.Predictor = deriveLZPPredictor(packets)
	}
	return d, nil
}

// deriveLZPPredictor trains a 256-entry byte predictor by majority vote:
// for every context hash observed across the corpus, it picks the byte
// that followed most often, breaking ties toward the lowest byte value.
func deriveLZPPredictor(packets [][]byte) prefilter.Predictor {
	var counts [256][256]uint64
	for _, pkt := range packets {
		for i := range pkt {
			ctx := prefilter.Context(i, pkt)
			counts[ctx][pkt[i]]++
		}
	}
	var p prefilter.Predictor
	for ctx := 0; ctx < 256; ctx++ {
		best := 0
		for b := 1; b < 256; b++ {
			if counts[ctx][b] > counts[ctx][best] {
				best = b
			}
		}
		p.Table[ctx] = byte(best)
	}
	return p
}

// Save serializes d into the versioned, CRC-32-protected v3 blob format.
func (d *Dictionary) Save() []byte {
	size := dictFixedSizeNoLZP
	if d.HasLZP {
		size = dictFixedSizeWithLZP
	}
	buf := make([]byte, size)

	binary.LittleEndian.PutUint32(buf[0:4], dictMagic)
	buf[4] = dictVersion
	buf[5] = d.ModelID
	buf[6] = prefilter.CtxCount
	buf[7] = 0

	off := dictHeaderSize
	for bucket := 0; bucket < prefilter.CtxCount; bucket++ {
		for b := 0; b < 256; b++ {
			binary.LittleEndian.PutUint16(buf[off:off+2], d.Unigram[bucket].Counts[b])
			off += 2
		}
	}
	for bucket := 0; bucket < prefilter.CtxCount; bucket++ {
		for cls := 0; cls < 4; cls++ {
			for b := 0; b < 256; b++ {
				binary.LittleEndian.PutUint16(buf[off:off+2], d.Bigram[bucket][cls].Counts[b])
				off += 2
			}
		}
	}
	// The fixed tables section is checksummed on its own so a streaming
	// writer could emit it and the optional LZP section independently and
	// combine their checksums afterward, rather than re-reading the whole
	// blob once both are in hand.
	sum := crc.Checksum(buf[:off])
	if d.HasLZP {
		copy(buf[off:off+dictLZPSize], d.Predictor.Table[:])
		lzpSum := crc.Checksum(buf[off : off+dictLZPSize])
		sum = crc.Combine(sum, lzpSum, dictLZPSize)
		off += dictLZPSize
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], sum)
	return buf
}

// LoadDictionary parses and validates a serialized dictionary blob,
// rejecting it as DictInvalid on any size, magic, version, ctx_count, or
// CRC mismatch.
func LoadDictionary(blob []byte) (dict *Dictionary, err error) {
	defer ierrors.Recover(&err)

	if len(blob) != dictFixedSizeNoLZP && len(blob) != dictFixedSizeWithLZP {
		return nil, ierrors.New(ierrors.DictInvalid, "bad blob size %d", len(blob))
	}
	if binary.LittleEndian.Uint32(blob[0:4]) != dictMagic {
		return nil, ierrors.New(ierrors.DictInvalid, "bad magic")
	}
	if blob[4] != dictVersion {
		return nil, ierrors.New(ierrors.DictInvalid, "unsupported version %d", blob[4])
	}
	if blob[6] != prefilter.CtxCount {
		return nil, ierrors.New(ierrors.DictInvalid, "bad ctx_count %d", blob[6])
	}

	hasLZP := len(blob) == dictFixedSizeWithLZP
	crcOff := len(blob) - 4
	tablesEnd := dictFixedSizeNoLZP - dictCRCSize
	got := crc.Checksum(blob[:tablesEnd])
	if hasLZP {
		lzpSum := crc.Checksum(blob[tablesEnd:crcOff])
		got = crc.Combine(got, lzpSum, dictLZPSize)
	}
	want := binary.LittleEndian.Uint32(blob[crcOff:])
	if want != got {
		return nil, ierrors.New(ierrors.DictInvalid, "crc mismatch: stored %08x, computed %08x", want, got)
	}

	d := &Dictionary{ModelID: blob[5]}
	off := dictHeaderSize
	for bucket := range d.Unigram {
		var f tans.Freq
		f.L = tans.MaxBitsDefault
		for b := 0; b < 256; b++ {
			f.Counts[b] = binary.LittleEndian.Uint16(blob[off : off+2])
			off += 2
		}
		d.Unigram[bucket] = f
		d.UnigramTables[bucket] = tans.Build(f)
	}
	for bucket := range d.Bigram {
		for cls := 0; cls < 4; cls++ {
			var f tans.Freq
			f.L = tans.MaxBitsDefault
			for b := 0; b < 256; b++ {
				f.Counts[b] = binary.LittleEndian.Uint16(blob[off : off+2])
				off += 2
			}
			d.Bigram[bucket][cls] = f
			d.BigramTables[bucket][cls] = tans.Build(f)
		}
	}
	if hasLZP {
		d.Predictor = prefilter.Predictor{}
		copy(d.Predictor.Table[:], blob[off:off+dictLZPSize])
		d.HasLZP = true
		off += dictLZPSize
	}

	return d, nil
}
