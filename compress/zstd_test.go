package compress

import (
	"errors"
	"testing"

	"github.com/atemukesu/NebulaTools/errs"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	c := NewCodec()
	data := []byte("particle animation chunk payload, repeated repeated repeated")

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.NotEmpty(t, compressed)

	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestDecompressEmpty(t *testing.T) {
	c := NewCodec()
	out, err := c.Decompress(nil)
	require.True(t, errors.Is(err, errs.ErrBadCompression))
	require.Nil(t, out)
}

func TestDecompressBadMagic(t *testing.T) {
	c := NewCodec()
	_, err := c.Decompress([]byte{0x00, 0x01, 0x02, 0x03, 0x04})
	require.True(t, errors.Is(err, errs.ErrBadCompression))
}

func TestDecompressFrameTooLarge(t *testing.T) {
	c := NewCodec(WithMaxFrameSize(4))
	data := make([]byte, 1024)

	compressed, err := c.Compress(data)
	require.NoError(t, err)

	_, err = c.Decompress(compressed)
	require.True(t, errors.Is(err, errs.ErrFrameTooLarge))
}

func TestCompressIsStateless(t *testing.T) {
	c := NewCodec()
	a, err := c.Compress([]byte("aaaa"))
	require.NoError(t, err)
	b, err := c.Compress([]byte("aaaa"))
	require.NoError(t, err)
	require.Equal(t, a, b)
}
