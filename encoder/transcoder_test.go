package encoder

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atemukesu/NebulaTools/player"
)

// buildSource encodes a small multi-keyframe animation to transcode from.
func buildSource(t *testing.T) []byte {
	t.Helper()

	sink := &seekableBuffer{}
	w, err := Create(sink, Header{TargetFPS: 30}, nil, WithMaxGOPLength(3))
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.NoError(t, w.PushFrame(context.Background(), player.LiveSet{
			1: state(float32(i), 0, 0, 0, 0, 0, 0, 0),
		}, false))
	}
	require.NoError(t, w.Finish())

	return sink.buf
}

func TestTranscodeIdentityPreservesPlayback(t *testing.T) {
	src := buildSource(t)

	r, err := player.Open(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)

	dstSink := &seekableBuffer{}
	w, err := Create(dstSink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	require.NoError(t, Transcode(context.Background(), r, w, nil))

	out, err := player.Open(bytes.NewReader(dstSink.buf), int64(len(dstSink.buf)))
	require.NoError(t, err)
	require.Equal(t, uint32(6), out.TotalFrames())

	live, err := out.Seek(context.Background(), 5)
	require.NoError(t, err)
	require.InDelta(t, 5, live[1].Pos[0], 1e-6)
}

func TestTranscodeAppliesTransform(t *testing.T) {
	src := buildSource(t)

	r, err := player.Open(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)

	dstSink := &seekableBuffer{}
	w, err := Create(dstSink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	offset := func(s player.ParticleState) player.ParticleState {
		s.Pos[1] += 100
		return s
	}

	require.NoError(t, Transcode(context.Background(), r, w, offset))

	out, err := player.Open(bytes.NewReader(dstSink.buf), int64(len(dstSink.buf)))
	require.NoError(t, err)

	live, err := out.Seek(context.Background(), 0)
	require.NoError(t, err)
	require.InDelta(t, 100, live[1].Pos[1], 1e-6)
}

func TestTranscodeFrameStrideDropsAndReKeys(t *testing.T) {
	src := buildSource(t)

	r, err := player.Open(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)
	// maxGOPLength=3 means one I-Frame followed by two P-Frames per GOP.
	require.Equal(t, []uint32{0, 3}, r.Keyframes())

	dstSink := &seekableBuffer{}
	w, err := Create(dstSink, Header{TargetFPS: 30}, nil)
	require.NoError(t, err)

	// stride=2 keeps source frames 0, 2, 4, dropping 1, 3 and 5 — frame 3
	// being a source keyframe boundary. The output's third frame (source
	// frame 4) must still be forced to re-key even though, on delta size
	// alone, it would otherwise qualify as an ordinary P-Frame.
	tc := NewTranscoder(WithFrameStride(2))
	require.NoError(t, tc.Run(context.Background(), r, w, nil))

	require.Equal(t, []uint32{0, 2}, w.keyframes)

	out, err := player.Open(bytes.NewReader(dstSink.buf), int64(len(dstSink.buf)))
	require.NoError(t, err)
	require.Equal(t, uint32(3), out.TotalFrames())

	for outF, wantX := range map[uint32]float32{0: 0, 1: 2, 2: 4} {
		live, err := out.Seek(context.Background(), outF)
		require.NoError(t, err)
		require.InDelta(t, wantX, live[1].Pos[0], 1e-6)
	}
}
