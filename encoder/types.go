// Package encoder implements C6, the NBL streaming encoder and transcoder:
// it accepts materialized particle frames in order, decides I-Frame vs
// P-Frame, quantizes deltas, and assembles a complete container, fixing up
// the Frame Index and Keyframe Index once the final frame count is known
// (spec §4.6).
package encoder

import "github.com/atemukesu/NebulaTools/section"

// Header carries the caller-supplied File Header fields that are not
// computed by the Writer itself. TotalFrames and the bounding box are
// derived from the pushed frames, TextureCount from the textures passed to
// Create; all are filled in at Finish() (spec §3: "Bounding box ... all live particle positions across
// all frames are contained within it (encoder responsibility)").
type Header struct {
	TargetFPS uint16
}

// Texture is a Texture Block entry, supplied once at Create time.
type Texture = section.Texture
