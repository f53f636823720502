package section

import (
	"errors"
	"testing"

	"github.com/atemukesu/NebulaTools/errs"
	"github.com/stretchr/testify/require"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	h := FileHeader{
		TargetFPS:    30,
		TotalFrames:  180,
		TextureCount: 2,
		BBoxMin:      [3]float32{-1, -2, -3},
		BBoxMax:      [3]float32{1, 2, 3},
	}

	data := h.Bytes()
	require.Len(t, data, HeaderSize)

	parsed, err := ParseFileHeader(data)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestParseFileHeaderBadMagic(t *testing.T) {
	h := NewFileHeader(30)
	data := h.Bytes()
	data[0] = 'X'

	_, err := ParseFileHeader(data)
	require.True(t, errors.Is(err, errs.ErrBadMagic))
}

func TestParseFileHeaderTruncated(t *testing.T) {
	_, err := ParseFileHeader(make([]byte, 10))
	require.True(t, errors.Is(err, errs.ErrTruncated))
}

func TestParseFileHeaderBadBBox(t *testing.T) {
	h := FileHeader{BBoxMin: [3]float32{5, 0, 0}, BBoxMax: [3]float32{1, 0, 0}}
	data := h.Bytes()

	_, err := ParseFileHeader(data)
	require.True(t, errors.Is(err, errs.ErrMalformedHeader))
}

func TestParseFileHeaderReservedMustBeZero(t *testing.T) {
	h := NewFileHeader(60)
	data := h.Bytes()
	data[HeaderSize-1] = 0x01

	_, err := ParseFileHeader(data)
	require.True(t, errors.Is(err, errs.ErrMalformedHeader))
}
