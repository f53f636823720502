package section

import (
	"errors"
	"testing"

	"github.com/atemukesu/NebulaTools/errs"
	"github.com/stretchr/testify/require"
)

func TestFrameIndexRoundTrip(t *testing.T) {
	entries := []FrameIndexEntry{
		{ChunkOffset: 100, ChunkSize: 20},
		{ChunkOffset: 120, ChunkSize: 30},
	}

	data := EncodeFrameIndex(entries)
	require.Len(t, data, len(entries)*FrameIndexEntrySize)

	parsed, next, err := ParseFrameIndex(data, 0, len(entries), 100, 150)
	require.NoError(t, err)
	require.Equal(t, entries, parsed)
	require.Equal(t, len(data), next)
}

func TestFrameIndexOverlapRejected(t *testing.T) {
	entries := []FrameIndexEntry{
		{ChunkOffset: 100, ChunkSize: 30},
		{ChunkOffset: 120, ChunkSize: 10},
	}
	data := EncodeFrameIndex(entries)

	_, _, err := ParseFrameIndex(data, 0, len(entries), 100, 200)
	require.True(t, errors.Is(err, errs.ErrBadIndex))
}

func TestFrameIndexEscapesFileRejected(t *testing.T) {
	entries := []FrameIndexEntry{{ChunkOffset: 100, ChunkSize: 1000}}
	data := EncodeFrameIndex(entries)

	_, _, err := ParseFrameIndex(data, 0, len(entries), 100, 200)
	require.True(t, errors.Is(err, errs.ErrBadIndex))
}

func TestFrameIndexPrecedesDataStartRejected(t *testing.T) {
	entries := []FrameIndexEntry{{ChunkOffset: 50, ChunkSize: 10}}
	data := EncodeFrameIndex(entries)

	_, _, err := ParseFrameIndex(data, 0, len(entries), 100, 200)
	require.True(t, errors.Is(err, errs.ErrBadIndex))
}
