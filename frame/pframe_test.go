package frame

import (
	"errors"
	"testing"

	"github.com/atemukesu/NebulaTools/errs"
	"github.com/stretchr/testify/require"
)

func samplePFrame() *PFramePayload {
	return &PFramePayload{
		DX: []int16{10, -5}, DY: []int16{0, 20}, DZ: []int16{-30, 0},
		DR: []int8{5, -10}, DG: []int8{0, 1}, DB: []int8{-1, 2}, DA: []int8{0, 0},
		DSize:   []int16{50, -50},
		DTexID:  []int8{1, 0},
		DSeqIdx: []int8{0, 1},
		ID:      []ParticleID{3, 4}, // two independent rows; engine decides update-vs-spawn
	}
}

func TestPFrameRoundTrip(t *testing.T) {
	in := samplePFrame()
	payload, err := EncodePFramePayload(in)
	require.NoError(t, err)
	require.Len(t, payload, 2*PFrameBytesPerParticle)

	out, err := DecodePFramePayload(payload, 2)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestPFrameSizeMismatch(t *testing.T) {
	in := samplePFrame()
	payload, err := EncodePFramePayload(in)
	require.NoError(t, err)

	_, err = DecodePFramePayload(payload[:len(payload)-1], 2)
	require.True(t, errors.Is(err, errs.ErrPayloadSizeMismatch))
}

func TestPFrameDuplicateID(t *testing.T) {
	in := samplePFrame()
	in.ID = []ParticleID{3, 3}

	payload, err := EncodePFramePayload(in)
	require.NoError(t, err)

	_, err = DecodePFramePayload(payload, 2)
	require.True(t, errors.Is(err, errs.ErrDuplicateParticleID))
}

func TestPFrameColumnLengthMismatch(t *testing.T) {
	in := samplePFrame()
	in.DY = in.DY[:1]

	_, err := EncodePFramePayload(in)
	require.True(t, errors.Is(err, errs.ErrPayloadSizeMismatch))
}

func TestPFrameEmpty(t *testing.T) {
	in := &PFramePayload{}
	payload, err := EncodePFramePayload(in)
	require.NoError(t, err)
	require.Empty(t, payload)

	out, err := DecodePFramePayload(payload, 0)
	require.NoError(t, err)
	require.Equal(t, 0, out.N())
}
