package netc

// Option is a bitmask of per-context behaviors (spec §6's configuration
// option table).
type Option uint16

const (
	OptStateful Option = 1 << iota
	OptStateless
	OptDelta
	OptBigram
	OptStats
	OptCompactHeader
	OptFastCompress
	OptAdaptive
)

// Config configures a Context. The zero value is not valid; use
// DefaultConfig and override fields, following the same "explicit
// defaults constructor" shape the teacher corpus uses for its codec
// options structs.
type Config struct {
	Options Option

	RingBufferSize   int
	ArenaSize        int
	CompressionLevel int // advisory, 0-9
	SIMDLevel        int // 0=auto, 1=generic, 2=SSE4.2, 3=AVX2, 4=NEON

	_ struct{} // prevents unkeyed struct literals from outside the package
}

const (
	defaultRingBufferSize   = 64 * 1024
	defaultArenaSize        = 2*MaxPacketSize + 64
	defaultCompressionLevel = 6
)

// DefaultConfig returns the baseline stateful, legacy-header
// configuration.
func DefaultConfig() Config {
	return Config{
		Options:          OptStateful,
		RingBufferSize:   defaultRingBufferSize,
		ArenaSize:        defaultArenaSize,
		CompressionLevel: defaultCompressionLevel,
		SIMDLevel:        0,
	}
}

func (c Config) stateful() bool   { return c.Options&OptStateful != 0 }
func (c Config) delta() bool      { return c.Options&OptDelta != 0 }
func (c Config) bigram() bool     { return c.Options&OptBigram != 0 }
func (c Config) stats() bool      { return c.Options&OptStats != 0 }
func (c Config) compact() bool    { return c.Options&OptCompactHeader != 0 }
func (c Config) fast() bool       { return c.Options&OptFastCompress != 0 }
func (c Config) adaptive() bool   { return c.Options&OptAdaptive != 0 }
