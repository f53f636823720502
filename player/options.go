package player

import (
	"go.uber.org/zap"

	"github.com/atemukesu/NebulaTools/compress"
)

type config struct {
	maxFrameSize int
	log          *zap.Logger
}

func defaultConfig() config {
	return config{
		maxFrameSize: compress.DefaultMaxFrameSize,
		log:          zap.NewNop(),
	}
}

// Option configures a Reader at Open time.
type Option func(*config)

// WithMaxFrameSize overrides the decompression size ceiling (spec §4.2)
// used when decompressing each frame chunk.
func WithMaxFrameSize(n int) Option {
	return func(c *config) { c.maxFrameSize = n }
}

// WithLogger attaches a structured logger. The default is a no-op logger —
// logging never gates correctness or changes materialized state.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}
