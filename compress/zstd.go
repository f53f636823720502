package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/atemukesu/NebulaTools/errs"
)

// DefaultMaxFrameSize is the safety ceiling on a single decompressed frame
// chunk (spec §4.2: "implementation picks a safety ceiling, e.g. 256 MiB").
const DefaultMaxFrameSize = 256 * 1024 * 1024

// zstdMagic is the four-byte little-endian Zstandard frame magic number.
var zstdMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

// Codec compresses and decompresses single, independently-coded frame
// chunks. It carries no state between calls other than pooled
// encoder/decoder instances for allocation reuse.
type Codec struct {
	maxFrameSize int
	log          *zap.Logger

	encoders sync.Pool
	decoders sync.Pool
}

// NewCodec creates a Codec with the default 256 MiB decompression ceiling
// and a no-op logger. Use the With* options to override either.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{
		maxFrameSize: DefaultMaxFrameSize,
		log:          zap.NewNop(),
	}

	c.encoders.New = func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("compress: failed to create zstd encoder: %v", err))
		}

		return enc
	}

	c.decoders.New = func() any {
		// No WithDecoderMaxMemory here: the library enforces that ceiling by
		// inspecting the frame header's declared content size and failing
		// with zstd.ErrDecoderSizeExceeded *before* DecodeAll returns any
		// output, which would surface as errs.ErrBadCompression instead of
		// errs.ErrFrameTooLarge. The post-decode length check below is the
		// sole enforcement point for maxFrameSize.
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("compress: failed to create zstd decoder: %v", err))
		}

		return dec
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CodecOption configures a Codec at construction time.
type CodecOption func(*Codec)

// WithMaxFrameSize overrides the decompression size ceiling.
func WithMaxFrameSize(n int) CodecOption {
	return func(c *Codec) { c.maxFrameSize = n }
}

// WithLogger attaches a structured logger for zstd decode-failure warnings.
func WithLogger(log *zap.Logger) CodecOption {
	return func(c *Codec) {
		if log != nil {
			c.log = log
		}
	}
}

// Compress compresses data in one shot using a pooled encoder. The returned
// slice is newly allocated; the input is not modified.
func (c *Codec) Compress(data []byte) ([]byte, error) {
	enc := c.encoders.Get().(*zstd.Encoder) //nolint: forcetypeassert
	defer c.encoders.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

// Decompress decompresses a single Zstd frame. It rejects input lacking the
// Zstd magic number with errs.ErrBadCompression and rejects output larger
// than the configured ceiling with errs.ErrFrameTooLarge.
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 || data[0] != zstdMagic[0] || data[1] != zstdMagic[1] ||
		data[2] != zstdMagic[2] || data[3] != zstdMagic[3] {
		return nil, fmt.Errorf("%w: missing zstd magic number", errs.ErrBadCompression)
	}

	dec := c.decoders.Get().(*zstd.Decoder) //nolint: forcetypeassert
	defer c.decoders.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		c.log.Warn("zstd decode failed", zap.Error(err), zap.Int("input_len", len(data)))

		return nil, fmt.Errorf("%w: %v", errs.ErrBadCompression, err)
	}

	if len(out) > c.maxFrameSize {
		return nil, fmt.Errorf("%w: decompressed %d bytes exceeds ceiling %d", errs.ErrFrameTooLarge, len(out), c.maxFrameSize)
	}

	return out, nil
}
