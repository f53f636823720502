// Package frame implements C4, the NBL frame payload codec: I-Frame and
// P-Frame (de)serialization over the struct-of-arrays layout fixed by
// spec §4.4, including the quantization scales of spec §4.3.
package frame

// ParticleID is a caller-assigned identifier, stable across the lifetime of
// a particle within one animation (spec §3). Uniqueness is scoped to a
// single frame.
type ParticleID = int32

// Type distinguishes the two on-disk frame kinds.
type Type uint8

const (
	// TypeI is a self-contained frame carrying absolute state for every
	// live particle.
	TypeI Type = 0
	// TypeP is a delta frame carrying quantized differences plus
	// lifecycle information through its ID column.
	TypeP Type = 1
)

func (t Type) String() string {
	switch t {
	case TypeI:
		return "I-Frame"
	case TypeP:
		return "P-Frame"
	default:
		return "Unknown"
	}
}

// HeaderSize is the fixed size of Header5 (spec §4.4): u8 FrameType, u32
// ParticleCount.
const HeaderSize = 5

// IFrameBytesPerParticle is the SoA stride of an I-Frame payload: 3*f32 +
// 4*u8 + u16 + u8 + u8 + i32 = 12+4+2+1+1+4 = 24 bytes (spec §4.4).
const IFrameBytesPerParticle = 24

// PFrameBytesPerParticle is the SoA stride of a P-Frame payload: 3*i16 +
// 4*i8 + i16 + i8 + i8 + i32 = 6+4+2+1+1+4 = 18 bytes (spec §4.4).
const PFrameBytesPerParticle = 18
