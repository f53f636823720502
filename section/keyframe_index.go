package section

import (
	"fmt"

	"github.com/atemukesu/NebulaTools/endian"
	"github.com/atemukesu/NebulaTools/errs"
)

// EncodeKeyframeIndex serializes the Keyframe Index Table: a u32 count
// followed by that many strictly ascending u32 frame indexes.
func EncodeKeyframeIndex(keyframes []uint32) []byte {
	w := endian.NewWriter(4 + len(keyframes)*4)
	w.WriteUint32(uint32(len(keyframes))) //nolint: gosec
	for _, k := range keyframes {
		w.WriteUint32(k)
	}

	return w.Bytes()
}

// ParseKeyframeIndex reads the Keyframe Index Table starting at offset and
// validates it per spec §4.3/§8: strictly ascending, first element 0 (unless
// the table is empty, which is only valid for a zero-frame animation), and
// every index < totalFrames.
func ParseKeyframeIndex(data []byte, offset int, totalFrames uint32) ([]uint32, int, error) {
	c := endian.NewCursor(data)
	c.Seek(offset)

	count, err := c.ReadUint32()
	if err != nil {
		return nil, 0, err
	}

	if count == 0 {
		if totalFrames != 0 {
			return nil, 0, fmt.Errorf("%w: keyframe count 0 only valid for an empty animation", errs.ErrBadKeyframeTable)
		}

		return nil, c.Pos(), nil
	}

	keyframes := make([]uint32, count)
	var prev uint32
	for i := range keyframes {
		v, err := c.ReadUint32()
		if err != nil {
			return nil, 0, err
		}

		if v >= totalFrames {
			return nil, 0, fmt.Errorf("%w: keyframe %d out of range [0,%d)", errs.ErrBadKeyframeTable, v, totalFrames)
		}

		if i == 0 {
			if v != 0 {
				return nil, 0, fmt.Errorf("%w: first keyframe must be 0, got %d", errs.ErrBadKeyframeTable, v)
			}
		} else if v <= prev {
			return nil, 0, fmt.Errorf("%w: keyframe index %d is not strictly ascending after %d", errs.ErrBadKeyframeTable, v, prev)
		}

		keyframes[i] = v
		prev = v
	}

	return keyframes, c.Pos(), nil
}
