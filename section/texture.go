package section

import (
	"fmt"

	"github.com/atemukesu/NebulaTools/endian"
	"github.com/atemukesu/NebulaTools/errs"
)

// Texture is one entry of the Texture Block: a sprite-sheet descriptor
// referenced by a particle's tex_id (spec §3, §4.3).
type Texture struct {
	Path string
	Rows uint8
	Cols uint8
}

// EncodeTextureBlock serializes TextureCount entries of
// (length-prefixed path, rows, cols) in order.
func EncodeTextureBlock(textures []Texture) ([]byte, error) {
	w := endian.NewWriter(len(textures) * 16)
	for _, t := range textures {
		if len(t.Path) > MaxTexturePathLen {
			return nil, fmt.Errorf("%w: path length %d exceeds %d", errs.ErrMalformedTexture, len(t.Path), MaxTexturePathLen)
		}
		if t.Rows == 0 || t.Cols == 0 {
			return nil, fmt.Errorf("%w: rows and cols must be >= 1", errs.ErrMalformedTexture)
		}

		w.WriteString(t.Path)
		w.WriteUint8(t.Rows)
		w.WriteUint8(t.Cols)
	}

	return w.Bytes(), nil
}

// ParseTextureBlock reads textureCount entries starting at offset in data
// and returns the parsed textures plus the offset just past the block.
func ParseTextureBlock(data []byte, offset int, textureCount int) ([]Texture, int, error) {
	c := endian.NewCursor(data)
	c.Seek(offset)

	textures := make([]Texture, textureCount)
	for i := range textures {
		path, err := c.ReadString()
		if err != nil {
			return nil, 0, err
		}

		rows, err := c.ReadUint8()
		if err != nil {
			return nil, 0, err
		}

		cols, err := c.ReadUint8()
		if err != nil {
			return nil, 0, err
		}

		if rows == 0 || cols == 0 {
			return nil, 0, fmt.Errorf("%w: texture %d has rows=%d cols=%d", errs.ErrMalformedTexture, i, rows, cols)
		}

		textures[i] = Texture{Path: path, Rows: rows, Cols: cols}
	}

	return textures, c.Pos(), nil
}
