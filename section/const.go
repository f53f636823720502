// Package section implements C3, the NBL metadata codec: the fixed File
// Header, the Texture Block, the Frame Index Table and the Keyframe Index
// Table, exactly as laid out in spec §4.3 and §6.
package section

const (
	// Magic is the eight-byte ASCII magic number at the start of every
	// container.
	Magic = "NEBULAFX"

	// Version is the only supported container version.
	Version = uint16(1)

	// Attributes is the only supported attributes bitmask: both Alpha and
	// Size present (spec §3, §4.3, §9).
	Attributes = uint16(0x03)

	// HeaderSize is the fixed byte size of the File Header.
	HeaderSize = 48

	// FrameIndexEntrySize is the fixed byte size of one Frame Index row
	// (u64 ChunkOffset, u32 ChunkSize).
	FrameIndexEntrySize = 12

	// MaxTexturePathLen is the maximum length-prefixed texture path size,
	// bounded by the 16-bit length prefix.
	MaxTexturePathLen = 65535
)
