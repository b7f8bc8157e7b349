package netc

import (
	"github.com/klauspost/cpuid/v2"

	ierrors "github.com/netcio/netc/internal/errors"
	"github.com/netcio/netc/internal/lz"
	"github.com/netcio/netc/internal/prefilter"
)

// SIMDLevel tags the instruction-set tier a Context's pipeline should
// assume is available. It is advisory: nothing in this package branches
// on it; the Context only records it. When Config.SIMDLevel is 0 it is
// detected once per Context (rather than per packet) the way a production
// codec amortizes a cpuid probe.
type SIMDLevel int

const (
	SIMDAuto SIMDLevel = iota
	SIMDGeneric
	SIMDSSE42
	SIMDAVX2
	SIMDNEON
)

func detectSIMD() SIMDLevel {
	switch {
	case cpuid.CPU.Has(cpuid.AVX2):
		return SIMDAVX2
	case cpuid.CPU.Has(cpuid.SSE42):
		return SIMDSSE42
	case cpuid.CPU.Has(cpuid.ASIMD):
		return SIMDNEON
	default:
		return SIMDGeneric
	}
}

// adaptiveRebuildInterval is how many packets pass between deterministic
// dictionary retrains when OptAdaptive is set.
const adaptiveRebuildInterval = 128

// adaptiveState tracks an adaptive context's mutable, bilaterally-rebuilt
// copy of its starting dictionary.
type adaptiveState struct {
	unigramRaw [prefilter.CtxCount][256]uint64
	bigramRaw  [prefilter.CtxCount][4][256]uint64
	live       *Dictionary
	sinceBuild int
}

// Stats accumulates optional per-context counters (OptStats).
type Stats struct {
	PacketsCompressed   uint64
	PacketsDecompressed uint64
	BytesIn             uint64
	BytesOut            uint64
	PassthroughCount    uint64
	AdaptiveRebuilds    uint64
}

// Context holds all per-connection mutable compression state: history
// used by stateful pre-filters and LZ77X, the rolling sequence counter
// embedded in legacy headers, and (optionally) an adaptive dictionary and
// running statistics. A Context is not safe for concurrent use; callers
// needing concurrency run one Context per connection/goroutine.
type Context struct {
	cfg Config
	dic *Dictionary

	ring     lz.Ring
	prevPkt  [MaxPacketSize]byte
	prevLen  int
	scratch  []byte
	seq      uint8
	simd     SIMDLevel
	adaptive *adaptiveState
	stats    *Stats
}

// NewContext creates a Context bound to dict (which may be nil only if
// cfg never selects a tANS algorithm that needs one — in practice,
// always pass a trained Dictionary). dict is shared read-only across
// contexts unless cfg enables OptAdaptive, in which case this Context
// clones it into a private mutable copy at creation.
func NewContext(cfg Config, dict *Dictionary) (*Context, error) {
	if cfg.RingBufferSize <= 0 {
		cfg.RingBufferSize = defaultRingBufferSize
	}
	if cfg.ArenaSize <= 0 {
		cfg.ArenaSize = defaultArenaSize
	}
	simd := SIMDLevel(cfg.SIMDLevel)
	if simd == SIMDAuto {
		simd = detectSIMD()
	}
	c := &Context{
		cfg:     cfg,
		dic:     dict,
		scratch: make([]byte, cfg.ArenaSize),
		simd:    simd,
	}
	if cfg.stats() {
		c.stats = &Stats{}
	}
	if cfg.adaptive() {
		if dict == nil {
			return nil, ierrors.New(ierrors.InvalidArgument, "adaptive context requires a starting dictionary")
		}
		c.adaptive = &adaptiveState{live: cloneDictionary(dict)}
	}
	return c, nil
}

// Reset clears all history and sequence state but keeps the bound
// dictionary and configuration, as if the Context were freshly created
// for a new connection reusing the same allocations.
func (c *Context) Reset() {
	c.ring.Reset()
	c.prevLen = 0
	c.seq = 0
	if c.adaptive != nil {
		c.adaptive.unigramRaw = [prefilter.CtxCount][256]uint64{}
		c.adaptive.bigramRaw = [prefilter.CtxCount][4][256]uint64{}
		c.adaptive.sinceBuild = 0
		c.adaptive.live = cloneDictionary(c.dic)
	}
}

// Stats returns a snapshot of the Context's counters, or the zero value
// if OptStats was not set.
func (c *Context) Stats() Stats {
	if c.stats == nil {
		return Stats{}
	}
	return *c.stats
}

// activeDictionary returns the dictionary the pipeline should entropy
// code against: the adaptive live copy if enabled, else the bound
// read-only dictionary.
func (c *Context) activeDictionary() *Dictionary {
	if c.adaptive != nil {
		return c.adaptive.live
	}
	return c.dic
}

// prevPacket returns the previously processed packet (for Delta/LZP
// stateful filters), or nil before the first packet.
func (c *Context) prevPacket() []byte {
	if c.prevLen == 0 {
		return nil
	}
	return c.prevPkt[:c.prevLen]
}

// advance records pkt as the new previous packet, appends it to the
// ring buffer history, bumps the sequence counter, and feeds the
// adaptive trainer, if enabled. It is called once per compressed or
// decompressed packet, using the packet's plaintext bytes in both
// directions so a sender and receiver's state stays in lockstep.
func (c *Context) advance(plaintext []byte) {
	if c.cfg.stateful() {
		c.ring.Append(plaintext)
		c.prevLen = copy(c.prevPkt[:], plaintext)
	}
	c.seq++
	if c.adaptive != nil {
		c.feedAdaptive(plaintext)
	}
}

func cloneDictionary(d *Dictionary) *Dictionary {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}
