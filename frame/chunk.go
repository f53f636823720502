package frame

import (
	"fmt"

	"github.com/atemukesu/NebulaTools/endian"
	"github.com/atemukesu/NebulaTools/errs"
)

// BuildChunk prepends Header5 to payload. The compressor is then called once
// on the concatenation — spec §4.4 makes this an explicit interop contract:
// compressing the header and payload separately is a hard error on decode.
func BuildChunk(frameType Type, particleCount uint32, payload []byte) []byte {
	w := endian.NewWriter(HeaderSize + len(payload))
	w.WriteUint8(uint8(frameType))
	w.WriteUint32(particleCount)
	w.WriteBytes(payload)

	return w.Bytes()
}

// ParseChunk splits a decompressed chunk into its FrameType, ParticleCount
// and Payload, per spec §4.4.
func ParseChunk(data []byte) (frameType Type, particleCount uint32, payload []byte, err error) {
	c := endian.NewCursor(data)

	ft, err := c.ReadUint8()
	if err != nil {
		return 0, 0, nil, err
	}

	if ft != uint8(TypeI) && ft != uint8(TypeP) {
		return 0, 0, nil, fmt.Errorf("%w: 0x%02x", errs.ErrUnknownFrameType, ft)
	}

	n, err := c.ReadUint32()
	if err != nil {
		return 0, 0, nil, err
	}

	rest, err := c.ReadBytes(c.Remaining())
	if err != nil {
		return 0, 0, nil, err
	}

	return Type(ft), n, rest, nil
}
