package encoder

import (
	"go.uber.org/zap"

	"github.com/atemukesu/NebulaTools/player"
)

// defaultMaxGOPLength bounds a GOP at 300 frames (10s at 30fps) absent an
// explicit WithMaxGOPLength, per spec §4.6's "caller-configured maximum GOP
// length" cadence rule.
const defaultMaxGOPLength = 300

type config struct {
	maxGOPLength int
	log          *zap.Logger
	keyframeHint func(prev, cur player.LiveSet) bool
}

func defaultConfig() config {
	return config{
		maxGOPLength: defaultMaxGOPLength,
		log:          zap.NewNop(),
	}
}

// Option configures a Writer at Create time.
type Option func(*config)

// WithMaxGOPLength overrides the maximum GOP length: the number of frames
// from one keyframe (inclusive) to the next (exclusive) (spec §4.6, cadence
// rule (c)). Values <= 0 are ignored.
func WithMaxGOPLength(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxGOPLength = n
		}
	}
}

// WithLogger attaches a structured logger. The default is a no-op logger —
// logging never gates correctness or changes the produced bytes.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithKeyframeHint registers a predicate consulted on every PushFrame that
// is not already a keyframe by the forceKey flag, the initial-frame rule or
// the max-GOP rule: when it returns true for
// the transition from prev to cur, the frame is encoded as an I-Frame. This
// lets an embedder force a keyframe on domain events (e.g. a scene cut) it
// detects but that PushFrame's caller doesn't already know about inline.
func WithKeyframeHint(hint func(prev, cur player.LiveSet) bool) Option {
	return func(c *config) { c.keyframeHint = hint }
}
