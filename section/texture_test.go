package section

import (
	"errors"
	"testing"

	"github.com/atemukesu/NebulaTools/errs"
	"github.com/stretchr/testify/require"
)

func TestTextureBlockRoundTrip(t *testing.T) {
	textures := []Texture{
		{Path: "minecraft:textures/particle/flame.png", Rows: 1, Cols: 1},
		{Path: "minecraft:textures/particle/smoke.png", Rows: 4, Cols: 4},
	}

	data, err := EncodeTextureBlock(textures)
	require.NoError(t, err)

	parsed, next, err := ParseTextureBlock(data, 0, len(textures))
	require.NoError(t, err)
	require.Equal(t, textures, parsed)
	require.Equal(t, len(data), next)
}

func TestTextureBlockZeroRowsInvalid(t *testing.T) {
	_, err := EncodeTextureBlock([]Texture{{Path: "a.png", Rows: 0, Cols: 1}})
	require.True(t, errors.Is(err, errs.ErrMalformedTexture))
}

func TestTextureBlockEmpty(t *testing.T) {
	data, err := EncodeTextureBlock(nil)
	require.NoError(t, err)
	require.Empty(t, data)

	parsed, next, err := ParseTextureBlock(data, 0, 0)
	require.NoError(t, err)
	require.Empty(t, parsed)
	require.Equal(t, 0, next)
}
