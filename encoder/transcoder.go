package encoder

import (
	"context"

	"go.uber.org/zap"

	"github.com/atemukesu/NebulaTools/player"
)

// transcoderConfig holds a Transcoder's retiming configuration.
type transcoderConfig struct {
	stride int
	log    *zap.Logger
}

func defaultTranscoderConfig() transcoderConfig {
	return transcoderConfig{stride: 1, log: zap.NewNop()}
}

// TranscoderOption configures a Transcoder at construction time.
type TranscoderOption func(*transcoderConfig)

// WithFrameStride keeps every n-th source frame and drops the rest — the
// retiming half of spec §4.6's transcoder mode ("retiming ... dropping or
// duplicating frames ... is allowed"). n=1, the default, keeps every frame.
// Values <= 0 are ignored.
func WithFrameStride(n int) TranscoderOption {
	return func(c *transcoderConfig) {
		if n > 0 {
			c.stride = n
		}
	}
}

// WithTranscoderLogger attaches a structured logger for the per-GOP
// summary line.
func WithTranscoderLogger(log *zap.Logger) TranscoderOption {
	return func(c *transcoderConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Transcoder drives C6's transcoder mode: it resolves every frame of a
// Reader in order, applies a per-particle transform, and re-encodes
// through a Writer. When WithFrameStride drops frames, any surviving frame
// that followed a source keyframe is forced to re-key in the output —
// mandatory per spec §4.6 ("re-keyframing is mandatory when frames are
// dropped to preserve the ... invariant") since the output's own keyframe
// positions no longer line up with the source's once frames go missing.
type Transcoder struct {
	cfg transcoderConfig
}

// NewTranscoder creates a Transcoder with the given retiming options.
func NewTranscoder(opts ...TranscoderOption) *Transcoder {
	cfg := defaultTranscoderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Transcoder{cfg: cfg}
}

// Run drives r frame-by-frame into w, applying transform to every
// materialized particle (nil means identity), and calls w.Finish() on
// completion. A failure anywhere leaves w in whatever state PushFrame left
// it in (spec §7's all-or-nothing policy) and is returned without calling
// Finish().
func (t *Transcoder) Run(ctx context.Context, r *player.Reader, w *Writer, transform func(player.ParticleState) player.ParticleState) error {
	if transform == nil {
		transform = identityTransform
	}

	total := r.TotalFrames()
	if total == 0 {
		return w.Finish()
	}

	keySet := make(map[uint32]struct{}, len(r.Keyframes()))
	for _, k := range r.Keyframes() {
		keySet[k] = struct{}{}
	}

	var pendingForce bool
	gopStart := uint32(0)

	live, err := r.Seek(ctx, 0)
	if err != nil {
		return err
	}
	if _, err := t.step(ctx, 0, w, live, transform, keySet, &pendingForce); err != nil {
		return err
	}

	for f := uint32(1); f < total; f++ {
		live, err = r.StepForward(ctx)
		if err != nil {
			return err
		}

		forced, err := t.step(ctx, f, w, live, transform, keySet, &pendingForce)
		if err != nil {
			return err
		}
		if forced {
			t.cfg.log.Info("transcode gop flushed", zap.Uint32("source_start", gopStart), zap.Uint32("source_end", f))
			gopStart = f
		}
	}

	t.cfg.log.Info("transcode gop flushed", zap.Uint32("source_start", gopStart), zap.Uint32("source_end", total-1))

	return w.Finish()
}

// step applies one source frame's worth of decision logic: a keyframe
// boundary in the source sets pendingForce so that the next *kept* frame
// re-keys in the output, then pushes the frame unless WithFrameStride says
// to drop it. It reports whether this call resulted in a forced keyframe
// being pushed (false for a dropped frame).
func (t *Transcoder) step(
	ctx context.Context,
	f uint32,
	w *Writer,
	live player.LiveSet,
	transform func(player.ParticleState) player.ParticleState,
	keySet map[uint32]struct{},
	pendingForce *bool,
) (bool, error) {
	if _, isSrcKey := keySet[f]; isSrcKey {
		*pendingForce = true
	}

	if t.cfg.stride > 1 && f%uint32(t.cfg.stride) != 0 { //nolint: gosec
		return false, nil
	}

	out := make(player.LiveSet, len(live))
	for id, st := range live {
		out[id] = transform(st)
	}

	force := *pendingForce
	*pendingForce = false

	if err := w.PushFrame(ctx, out, force); err != nil {
		return false, err
	}

	return force, nil
}

func identityTransform(s player.ParticleState) player.ParticleState { return s }

// Transcode is the convenience 1:1 transcode driver (no retiming): it
// keeps every source frame and re-keys the output at every source keyframe;
// w's own cadence rules (max GOP length, teleport, hint) may add further
// keyframes. Equivalent to NewTranscoder().Run(ctx, r, w, transform).
func Transcode(ctx context.Context, r *player.Reader, w *Writer, transform func(player.ParticleState) player.ParticleState) error {
	return NewTranscoder().Run(ctx, r, w, transform)
}
