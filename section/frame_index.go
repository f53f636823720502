package section

import (
	"fmt"
	"sort"

	"github.com/atemukesu/NebulaTools/endian"
	"github.com/atemukesu/NebulaTools/errs"
)

// FrameIndexEntry locates one compressed frame chunk in the container.
type FrameIndexEntry struct {
	ChunkOffset uint64
	ChunkSize   uint32
}

// EncodeFrameIndex serializes the Frame Index Table: exactly len(entries)
// rows of (u64 ChunkOffset, u32 ChunkSize), in frame order.
func EncodeFrameIndex(entries []FrameIndexEntry) []byte {
	w := endian.NewWriter(len(entries) * FrameIndexEntrySize)
	for _, e := range entries {
		w.WriteUint64(e.ChunkOffset)
		w.WriteUint32(e.ChunkSize)
	}

	return w.Bytes()
}

// ParseFrameIndex reads totalFrames entries starting at offset and validates
// them against fileSize and the end of the metadata region, per spec §4.3:
// every ChunkOffset >= dataStart, every ChunkOffset+ChunkSize <= fileSize,
// and entries strictly non-overlapping when sorted by offset. The entire
// table is loaded eagerly, as required.
func ParseFrameIndex(data []byte, offset int, totalFrames int, dataStart int64, fileSize int64) ([]FrameIndexEntry, int, error) {
	c := endian.NewCursor(data)
	c.Seek(offset)

	entries := make([]FrameIndexEntry, totalFrames)
	for i := range entries {
		chunkOffset, err := c.ReadUint64()
		if err != nil {
			return nil, 0, err
		}

		chunkSize, err := c.ReadUint32()
		if err != nil {
			return nil, 0, err
		}

		entries[i] = FrameIndexEntry{ChunkOffset: chunkOffset, ChunkSize: chunkSize}
	}

	if err := validateFrameIndex(entries, dataStart, fileSize); err != nil {
		return nil, 0, err
	}

	return entries, c.Pos(), nil
}

func validateFrameIndex(entries []FrameIndexEntry, dataStart int64, fileSize int64) error {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return entries[order[a]].ChunkOffset < entries[order[b]].ChunkOffset
	})

	var prevEnd int64
	for rank, idx := range order {
		e := entries[idx]
		if int64(e.ChunkOffset) < dataStart {
			return fmt.Errorf("%w: frame %d offset %d precedes data region start %d", errs.ErrBadIndex, idx, e.ChunkOffset, dataStart)
		}

		end := int64(e.ChunkOffset) + int64(e.ChunkSize)
		if end > fileSize {
			return fmt.Errorf("%w: frame %d chunk [%d,%d) exceeds file size %d", errs.ErrBadIndex, idx, e.ChunkOffset, end, fileSize)
		}

		if rank > 0 && int64(e.ChunkOffset) < prevEnd {
			return fmt.Errorf("%w: frame %d chunk overlaps previous chunk ending at %d", errs.ErrBadIndex, idx, prevEnd)
		}

		prevEnd = end
	}

	return nil
}
