package section

import (
	"fmt"

	"github.com/atemukesu/NebulaTools/endian"
	"github.com/atemukesu/NebulaTools/errs"
)

// FileHeader is the fixed 48-byte header at the start of every NBL
// container (spec §6).
type FileHeader struct {
	TargetFPS    uint16
	TotalFrames  uint32
	TextureCount uint16
	BBoxMin      [3]float32
	BBoxMax      [3]float32
}

// NewFileHeader creates a header for a fresh encode. TotalFrames and
// TextureCount are filled in by the encoder at Finish() time; BBoxMin/Max
// default to a degenerate box the encoder grows as frames are pushed.
func NewFileHeader(targetFPS uint16) FileHeader {
	return FileHeader{TargetFPS: targetFPS}
}

// Bytes serializes the header to its fixed 48-byte on-disk form.
func (h FileHeader) Bytes() []byte {
	w := endian.NewWriter(HeaderSize)
	w.WriteBytes([]byte(Magic))
	w.WriteUint16(Version)
	w.WriteUint16(h.TargetFPS)
	w.WriteUint32(h.TotalFrames)
	w.WriteUint16(h.TextureCount)
	w.WriteUint16(Attributes)
	for _, v := range h.BBoxMin {
		w.WriteFloat32(v)
	}
	for _, v := range h.BBoxMax {
		w.WriteFloat32(v)
	}
	w.WriteUint32(0) // reserved

	return w.Bytes()
}

// ParseFileHeader parses and validates the 48-byte header, per spec §4.3:
// Magic must equal "NEBULAFX", Version must equal 1, Attributes must equal
// 3, and the reserved bytes must be zero.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < HeaderSize {
		return FileHeader{}, fmt.Errorf("%w: header needs %d bytes, got %d", errs.ErrTruncated, HeaderSize, len(data))
	}

	c := endian.NewCursor(data[:HeaderSize])

	magic, err := c.ReadBytes(8)
	if err != nil {
		return FileHeader{}, err
	}
	if string(magic) != Magic {
		return FileHeader{}, fmt.Errorf("%w: got %q", errs.ErrBadMagic, magic)
	}

	version, err := c.ReadUint16()
	if err != nil {
		return FileHeader{}, err
	}
	if version != Version {
		return FileHeader{}, fmt.Errorf("%w: got %d, want %d", errs.ErrUnsupportedVersion, version, Version)
	}

	var h FileHeader

	h.TargetFPS, err = c.ReadUint16()
	if err != nil {
		return FileHeader{}, err
	}

	h.TotalFrames, err = c.ReadUint32()
	if err != nil {
		return FileHeader{}, err
	}

	h.TextureCount, err = c.ReadUint16()
	if err != nil {
		return FileHeader{}, err
	}

	attrs, err := c.ReadUint16()
	if err != nil {
		return FileHeader{}, err
	}
	if attrs != Attributes {
		return FileHeader{}, fmt.Errorf("%w: got 0x%02x, want 0x%02x", errs.ErrUnsupportedAttributes, attrs, Attributes)
	}

	for i := range h.BBoxMin {
		h.BBoxMin[i], err = c.ReadFloat32()
		if err != nil {
			return FileHeader{}, err
		}
	}
	for i := range h.BBoxMax {
		h.BBoxMax[i], err = c.ReadFloat32()
		if err != nil {
			return FileHeader{}, err
		}
	}

	reserved, err := c.ReadUint32()
	if err != nil {
		return FileHeader{}, err
	}
	if reserved != 0 {
		return FileHeader{}, fmt.Errorf("%w: reserved bytes must be zero", errs.ErrMalformedHeader)
	}

	if h.BBoxMin[0] > h.BBoxMax[0] || h.BBoxMin[1] > h.BBoxMax[1] || h.BBoxMin[2] > h.BBoxMax[2] {
		return FileHeader{}, fmt.Errorf("%w: BBoxMin must be <= BBoxMax componentwise", errs.ErrMalformedHeader)
	}

	return h, nil
}
