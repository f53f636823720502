// Package compress wraps Zstandard as the single, context-free compression
// backend for NBL frame chunks (C2).
//
// The container format fixes the wire representation to
// Zstd(Header5‖Payload) per spec §4.4 — there is no per-chunk algorithm
// selector, so unlike the teacher package this exposes exactly one codec
// rather than a pluggable set. Compress and Decompress are both single-shot:
// no dictionary or streaming context is carried between calls, matching
// spec §4.2's "black box, single-frame, context-free" contract.
package compress
