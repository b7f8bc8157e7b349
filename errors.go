package netc

import ierrors "github.com/netcio/netc/internal/errors"

// ErrKind classifies why a netc operation failed.
type ErrKind = ierrors.Kind

const (
	ErrNoMemory        = ierrors.NoMemory
	ErrTooBig          = ierrors.TooBig
	ErrCorrupted       = ierrors.Corrupted
	ErrDictInvalid     = ierrors.DictInvalid
	ErrBufferTooSmall  = ierrors.BufferTooSmall
	ErrNilContext      = ierrors.NilContext
	ErrUnsupported     = ierrors.Unsupported
	ErrVersionMismatch = ierrors.VersionMismatch
	ErrInvalidArgument = ierrors.InvalidArgument
)

// KindOf extracts the ErrKind carried by err, or 0 if err is nil or was
// not produced by this package.
func KindOf(err error) ErrKind { return ierrors.KindOf(err) }

// Strerror renders err the way a C caller's errno-style diagnostic would:
// a short, stable, human-readable string. It never panics, even on nil.
func Strerror(err error) string {
	if err == nil {
		return "no error"
	}
	return err.Error()
}

// CompressBound returns an upper bound on the compressed size of a
// srcLen-byte packet, header included. Compression always falls back to
// a PASSTHRU envelope when every pipeline trial loses to the original
// size, so the bound is the original size plus the larger of the two
// header forms plus one byte of encoding slack.
func CompressBound(srcLen int) int {
	if srcLen < 0 {
		return 0
	}
	return srcLen + LegacyHeaderSize + 1
}
