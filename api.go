// Package netc implements a finite-state-entropy packet compressor:
// trained tANS dictionaries, a multi-strategy trial-and-pick compression
// pipeline (delta and LZP pre-filters, within-packet and cross-packet
// LZ77, single- and multi-region tANS, an interleaved two-state variant),
// and a matching decompression state machine, wrapped in a per-connection
// Context that carries the history stateful filters need.
//
// Callers that don't need per-connection history can use the stateless
// CompressOne/DecompressOne helpers instead of managing a Context.
package netc

// ModelID returns the model identifier a trained Dictionary was built
// with.
func ModelID(dict *Dictionary) uint8 { return dict.ModelID }

// Free releases no resources of its own — Dictionary and Context values
// are ordinary garbage-collected Go values — but is provided so callers
// porting a create/destroy lifecycle from another language have a single
// place to call. Destroy is Free's Context counterpart.
func Free(dict *Dictionary) {}

// Destroy is Free's Context counterpart; see Free.
func Destroy(ctx *Context) {}

// CompressOne runs Compress without a persistent Context, for callers
// that don't need stateful pre-filters or LZ77X cross-packet history.
// Every call is independent of every other.
func CompressOne(dict *Dictionary, cfg Config, dst, src []byte) (n int, err error) {
	cfg.Options &^= OptStateful
	cfg.Options |= OptStateless
	cfg.Options &^= OptAdaptive
	ctx, cerr := NewContext(cfg, dict)
	if cerr != nil {
		return 0, cerr
	}
	return Compress(ctx, dst, src)
}

// DecompressOne is CompressOne's decompression counterpart.
func DecompressOne(dict *Dictionary, cfg Config, dst, src []byte) (n int, err error) {
	cfg.Options &^= OptStateful
	cfg.Options |= OptStateless
	cfg.Options &^= OptAdaptive
	ctx, cerr := NewContext(cfg, dict)
	if cerr != nil {
		return 0, cerr
	}
	return Decompress(ctx, dst, src)
}
