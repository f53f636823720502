// Package player implements C5, the NBL playback state engine: resolving
// any absolute frame index into a materialized particle set by seeking to
// the nearest preceding I-Frame and replaying P-Frames forward, per spec
// §4.5.
package player

import "github.com/atemukesu/NebulaTools/frame"

// ParticleID identifies a particle, stable across its lifetime within one
// animation (spec §3).
type ParticleID = frame.ParticleID

// ParticleState is the materialized form of one particle (spec §3).
type ParticleState struct {
	Pos    [3]float32
	Col    [4]uint8 // R, G, B, A
	Size   uint16
	TexID  uint8
	SeqIdx uint8
}

// LiveSet is the mapping of currently active ParticleIDs to their
// materialized state at a given frame (spec §3, "Live set" in the
// glossary). It is owned exclusively by one Reader and is not safe for
// concurrent use.
type LiveSet map[ParticleID]ParticleState

// Clone returns a deep copy of the live set, safe for the caller to retain
// across subsequent Seek/StepForward calls (which mutate the Reader's own
// copy in place).
func (l LiveSet) Clone() LiveSet {
	out := make(LiveSet, len(l))
	for k, v := range l {
		out[k] = v
	}

	return out
}
