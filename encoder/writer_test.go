package encoder

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atemukesu/NebulaTools/errs"
	"github.com/atemukesu/NebulaTools/player"
)

// seekableBuffer is an in-memory io.WriteSeeker, the minimal sink a Writer
// needs — no fixture files, per the reader tests' conventions.
type seekableBuffer struct {
	buf []byte
	pos int64
}

func (s *seekableBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	n := copy(s.buf[s.pos:], p)
	s.pos += int64(n)

	return n, nil
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.buf)) + offset
	}

	return s.pos, nil
}

func state(x, y, z float32, r, g, b, a uint8, size uint16) player.ParticleState {
	return player.ParticleState{Pos: [3]float32{x, y, z}, Col: [4]uint8{r, g, b, a}, Size: size}
}

func TestWriterRoundTripReadableByReader(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, []Texture{{Path: "a.png", Rows: 1, Cols: 1}})
	require.NoError(t, err)

	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(0, 0, 0, 255, 255, 255, 255, 100),
	}, false))
	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(0.5, 0, 0, 255, 255, 255, 255, 100),
	}, false))
	require.NoError(t, w.Finish())

	r, err := player.Open(bytes.NewReader(sink.buf), int64(len(sink.buf)))
	require.NoError(t, err)
	require.Equal(t, uint32(2), r.TotalFrames())
	require.Len(t, r.Textures(), 1)

	live, err := r.Seek(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 0.5, live[1].Pos[0], 1e-6)
}

func TestWriterForcesKeyframeOnTeleport(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(0, 0, 0, 0, 0, 0, 0, 0),
	}, false))

	// A 40-block jump exceeds the +-32.767 representable delta range and
	// must force a new I-Frame instead of erroring.
	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(40, 0, 0, 0, 0, 0, 0, 0),
	}, false))

	require.Equal(t, []uint32{0, 1}, w.keyframes)

	require.NoError(t, w.Finish())

	r, err := player.Open(bytes.NewReader(sink.buf), int64(len(sink.buf)))
	require.NoError(t, err)

	live, err := r.Seek(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 40, live[1].Pos[0], 1e-6)
}

func TestWriterForcesKeyframeOnNegativeTeleport(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(0, 0, 0, 0, 0, 0, 0, 0),
	}, false))

	// A -40-block jump must force a keyframe exactly as the +40-block case
	// does — the teleport bound is symmetric, not skewed toward int16's
	// full negative range.
	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(-40, 0, 0, 0, 0, 0, 0, 0),
	}, false))

	require.Equal(t, []uint32{0, 1}, w.keyframes)

	require.NoError(t, w.Finish())

	r, err := player.Open(bytes.NewReader(sink.buf), int64(len(sink.buf)))
	require.NoError(t, err)

	live, err := r.Seek(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, -40, live[1].Pos[0], 1e-6)
}

func TestWriterForcesKeyframeOnColorOverflow(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(0, 0, 0, 0, 0, 0, 0, 0),
	}, false))

	// A color jump of 200 exceeds an int8 delta's [-128,127] range.
	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(0, 0, 0, 200, 0, 0, 0, 0),
	}, false))

	require.Equal(t, []uint32{0, 1}, w.keyframes)
}

func TestWriterMaxGOPLength(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, nil, WithMaxGOPLength(3))
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
			1: state(float32(i), 0, 0, 0, 0, 0, 0, 0),
		}, false))
	}

	require.Equal(t, []uint32{0, 3, 6}, w.keyframes)
}

func TestWriterKeyframeHint(t *testing.T) {
	sink := &seekableBuffer{}

	hintCalls := 0
	hint := func(_, cur player.LiveSet) bool {
		hintCalls++

		return len(cur) == 0
	}

	w, err := Create(sink, Header{TargetFPS: 30}, nil, WithKeyframeHint(hint))
	require.NoError(t, err)

	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(0, 0, 0, 0, 0, 0, 0, 0),
	}, false))
	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{}, false))

	require.Equal(t, []uint32{0, 1}, w.keyframes)
	require.Positive(t, hintCalls)
}

func TestWriterPushFrameAfterFinishFails(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{1: state(0, 0, 0, 0, 0, 0, 0, 0)}, false))
	require.NoError(t, w.Finish())

	err = w.PushFrame(context.Background(), player.LiveSet{1: state(0, 0, 0, 0, 0, 0, 0, 0)}, false)
	require.ErrorIs(t, err, errs.ErrNotOpenForWrite)
}

func TestWriterInvalidAfterCancelledContext(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = w.PushFrame(ctx, player.LiveSet{1: state(0, 0, 0, 0, 0, 0, 0, 0)}, false)
	require.ErrorIs(t, err, errs.ErrCancelled)

	err = w.PushFrame(context.Background(), player.LiveSet{1: state(0, 0, 0, 0, 0, 0, 0, 0)}, false)
	require.ErrorIs(t, err, errs.ErrWriterInvalid)
}

func TestCreateRejectsMalformedTexture(t *testing.T) {
	sink := &seekableBuffer{}

	_, err := Create(sink, Header{TargetFPS: 30}, []Texture{{Path: "a.png", Rows: 0, Cols: 1}})
	require.ErrorIs(t, err, errs.ErrMalformedTexture)
}

func TestWriterEmptyAnimationFinish(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := player.Open(bytes.NewReader(sink.buf), int64(len(sink.buf)))
	require.NoError(t, err)
	require.Equal(t, uint32(0), r.TotalFrames())
}

func TestWriterBoundingBox(t *testing.T) {
	sink := &seekableBuffer{}

	w, err := Create(sink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(-5, 2, 0, 0, 0, 0, 0, 0),
	}, false))
	require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
		1: state(5, -2, 1, 0, 0, 0, 0, 0),
	}, false))
	require.NoError(t, w.Finish())

	r, err := player.Open(bytes.NewReader(sink.buf), int64(len(sink.buf)))
	require.NoError(t, err)

	h := r.Header()
	require.Equal(t, [3]float32{-5, -2, 0}, h.BBoxMin)
	require.Equal(t, [3]float32{5, 2, 1}, h.BBoxMax)
}
