package frame

import (
	"fmt"
	"math"

	"github.com/atemukesu/NebulaTools/errs"
)

// Quantization scales (spec §4.3, fixed constants).
const (
	PosScale  = 1000.0
	SizeScale = 100.0

	// MaxQuantizedDelta is the representable range of a 16-bit signed
	// quantized delta: the "32.7-block teleport" bound for position, and
	// the equivalent bound for size. The bound is symmetric (spec §4.6/§8:
	// "±32767: accepted; ±32768 forces a keyframe") even though int16 could
	// otherwise hold -32768 — that value is rejected like +32768 is.
	MaxQuantizedDelta = 32767
	MinQuantizedDelta = -32767
)

// QuantizePos rounds a real-valued per-axis position delta into its stored
// int16 form (scale 1000, round-half-to-even per spec §9). Returns
// errs.ErrDeltaOverflow if the magnitude exceeds the representable range —
// callers use this to decide whether a keyframe must be forced instead
// (spec §4.6's "32.7-block teleport" rule).
func QuantizePos(delta float64) (int16, error) {
	return quantize(delta, PosScale)
}

// DequantizePos converts a stored position delta back to its real value.
func DequantizePos(stored int16) float64 {
	return float64(stored) / PosScale
}

// QuantizeSize rounds a real-valued size delta into its stored int16 form
// (scale 100).
func QuantizeSize(delta float64) (int16, error) {
	return quantize(delta, SizeScale)
}

// DequantizeSize converts a stored size delta back to its real value.
func DequantizeSize(stored int16) float64 {
	return float64(stored) / SizeScale
}

func quantize(delta float64, scale float64) (int16, error) {
	rounded := math.RoundToEven(delta * scale)
	if rounded > MaxQuantizedDelta || rounded < MinQuantizedDelta {
		return 0, fmt.Errorf("%w: %.6f quantizes to %.0f, outside [%d,%d]",
			errs.ErrDeltaOverflow, delta, rounded, MinQuantizedDelta, MaxQuantizedDelta)
	}

	return int16(rounded), nil
}

// SaturateAddU8 adds a signed delta to an unsigned 8-bit component value,
// saturating to [0,255] (spec §9's resolution of the color/tex/seq
// signed-vs-unsigned ambiguity: saturating addition, not wraparound).
func SaturateAddU8(base uint8, delta int8) uint8 {
	v := int(base) + int(delta)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v) //nolint: gosec
	}
}

// ZeroBasisU8 reinterprets a stored signed delta byte as the absolute
// unsigned initial value a spawning particle takes on, per the Zero-Basis
// Principle (spec §4.5): "any signed bit pattern is reinterpreted ... as
// the absolute initial value". Go's same-width signed-to-unsigned
// conversion is exactly this bit-pattern reinterpretation.
func ZeroBasisU8(delta int8) uint8 {
	return uint8(delta) //nolint: gosec
}

// SaturateAddSize adds a real-valued size delta to the current size,
// rounding back to u16 with saturation at [0,65535].
func SaturateAddSize(base uint16, delta float64) uint16 {
	v := math.RoundToEven(float64(base) + delta)
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}
