package prefilter

import "github.com/dchest/siphash"

// Predictor is the trained LZP context predictor (spec §3's "256-entry
// byte-predictor indexed by a small context hash"). The zero value
// predicts 0x00 everywhere, which is a valid (if useless) predictor: XOR
// against it is the identity, so an untrained Predictor degrades to a
// no-op filter rather than corrupting data.
type Predictor struct {
	Table [256]byte
}

// lzpKey0, lzpKey1 are the fixed process-wide SipHash key for folding an
// LZP context down to 8 bits (spec leaves the exact hash unspecified
// beyond "small context hash"; a distinct key from internal/lz's SipHash
// tables keeps the two hash spaces independent even though both draw on
// the same library).
const (
	lzpKey0 uint64 = 0x6c7a70636f6e7478
	lzpKey1 uint64 = 0x68617368666f6c64
)

// ctxHash folds a packet position bucket and the one or two preceding
// bytes down to an 8-bit context via SipHash-2-4 (the same hash
// internal/lz uses for its LZ77X tables, applied here to a 3-byte
// context tuple instead of 3 literal bytes). prev2 is the byte two
// positions back, or 0 before the second byte of a packet.
func ctxHash(bucket int, prev1, prev2 byte) uint8 {
	h := siphash.Hash(lzpKey0, lzpKey1, []byte{byte(bucket), prev1, prev2})
	return uint8(h) ^ uint8(h>>8) ^ uint8(h>>16) ^ uint8(h>>24) ^ uint8(h>>32) ^ uint8(h>>40) ^ uint8(h>>48) ^ uint8(h>>56)
}

// Context returns the predictor context for the byte at offset in buf,
// using whatever preceding bytes are available (0 before the packet
// start).
func Context(offset int, buf []byte) uint8 {
	var p1, p2 byte
	if offset >= 1 {
		p1 = buf[offset-1]
	}
	if offset >= 2 {
		p2 = buf[offset-2]
	}
	return ctxHash(CtxBucket(offset), p1, p2)
}

// Predict returns the predicted byte for the context at offset in buf.
func (p *Predictor) Predict(offset int, buf []byte) byte {
	return p.Table[Context(offset, buf)]
}

// XOREncode writes into dst the LZP-XOR residual of src (spec §4.7): each
// byte is XORed with the predictor's guess given the bytes before it in
// src itself. Correctly predicted bytes become 0x00. Unlike XORDecode,
// dst must not alias src: the context for byte i needs the original
// plaintext at i-1 and i-2, which an in-place write would have already
// clobbered with residual bytes.
func XOREncode(dst, src []byte, p *Predictor) {
	for i, b := range src {
		dst[i] = b ^ p.Predict(i, src)
	}
}

// XORDecode inverts XOREncode. It proceeds strictly forward through dst
// so each byte's prediction context is built from already-recovered
// bytes; dst may alias residual, including the in-place case (each
// iteration reads residual[i] before overwriting dst[i], and only reads
// dst at indices already written earlier in the same call).
func XORDecode(dst, residual []byte, p *Predictor) {
	for i, r := range residual {
		dst[i] = r ^ p.Predict(i, dst)
	}
}
