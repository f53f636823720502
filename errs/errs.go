// Package errs defines the sentinel error values returned by the NBL codec.
//
// Every discriminant is a distinct exported error value so callers can branch
// with errors.Is instead of parsing message strings. Call sites wrap a
// sentinel with context using fmt.Errorf("%w: ...", errs.ErrX, ...); the
// sentinel identity survives the wrap.
package errs

import "errors"

var (
	// Truncated / malformed binary structures (C1-C3).
	ErrTruncated             = errors.New("nbl: truncated input")
	ErrBadMagic              = errors.New("nbl: bad magic number")
	ErrUnsupportedVersion    = errors.New("nbl: unsupported container version")
	ErrUnsupportedAttributes = errors.New("nbl: unsupported attributes bitmask")
	ErrMalformedHeader       = errors.New("nbl: malformed header")
	ErrMalformedTexture      = errors.New("nbl: malformed texture descriptor")
	ErrBadIndex              = errors.New("nbl: frame index offsets overlap or escape the file")
	ErrBadKeyframeTable      = errors.New("nbl: keyframe table is not ascending, out of range, or missing frame 0")
	ErrInvalidUTF8           = errors.New("nbl: invalid UTF-8 string")

	// Frame payload / compression (C2, C4).
	ErrBadCompression     = errors.New("nbl: bad or non-Zstd compressed frame")
	ErrFrameTooLarge      = errors.New("nbl: decompressed frame exceeds size ceiling")
	ErrPayloadSizeMismatch = errors.New("nbl: frame payload size does not match particle count")
	ErrUnknownFrameType   = errors.New("nbl: unknown frame type")
	ErrDuplicateParticleID = errors.New("nbl: duplicate particle id within one frame")

	// Playback / encoder (C5, C6).
	ErrDeltaOverflow = errors.New("nbl: quantized delta exceeds range and no keyframe was forced")
	ErrCancelled     = errors.New("nbl: operation cancelled")

	// Writer/encoder lifecycle misuse.
	ErrNotOpenForWrite = errors.New("nbl: writer is not open for writing")
	ErrWriterInvalid   = errors.New("nbl: writer is in an invalid state after a failed push")
)

// FrameError wraps an error with the index of the frame that produced it, per
// the reader's "per-frame errors are reported with the offending frame index"
// policy.
type FrameError struct {
	Frame uint32
	Err   error
}

func (e *FrameError) Error() string {
	return "nbl: frame " + itoa(e.Frame) + ": " + e.Err.Error()
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// WrapFrame wraps err with the frame index if err is non-nil.
func WrapFrame(frame uint32, err error) error {
	if err == nil {
		return nil
	}

	return &FrameError{Frame: frame, Err: err}
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}

	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}

	return string(buf[i:])
}
