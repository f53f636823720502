package frame

import (
	"fmt"

	"github.com/atemukesu/NebulaTools/endian"
	"github.com/atemukesu/NebulaTools/errs"
)

// PFramePayload is the parsed struct-of-arrays body of a P-Frame (FrameType
// 1): quantized deltas plus the ID column that drives C5's lifecycle rules
// (spec §4.4, §4.5).
//
// ID[i] is a plain ParticleID, exactly like an I-Frame's ID column — there
// is no sign-based or otherwise encoded lifecycle tag. Whether a row is an
// Update, a Spawn, or contributes to a Despawn is determined entirely by
// the playback state engine comparing this frame's ID column against the
// previous live set (spec §4.5): present in both is an Update, present only
// here is a Spawn (Zero-Basis Principle), and a previously-live ID absent
// from this column is a Despawn.
type PFramePayload struct {
	DX, DY, DZ       []int16 // quantized position delta, scale 1000
	DR, DG, DB, DA   []int8  // color delta / zero-basis byte
	DSize            []int16 // quantized size delta, scale 100
	DTexID, DSeqIdx  []int8  // tex/seq delta / zero-basis byte
	ID               []ParticleID
}

// N returns the row count.
func (p *PFramePayload) N() int { return len(p.ID) }

// EncodePFramePayload serializes a P-Frame payload in the SoA order of spec
// §4.4: DX[N] DY[N] DZ[N] (i16), DR[N] DG[N] DB[N] DA[N] (i8), DSize[N]
// (i16), DTexID[N] DSeqIdx[N] (i8), ID[N] (i32).
func EncodePFramePayload(p *PFramePayload) ([]byte, error) {
	n := p.N()
	if err := checkLens(n, map[string]int{
		"DX": len(p.DX), "DY": len(p.DY), "DZ": len(p.DZ),
		"DR": len(p.DR), "DG": len(p.DG), "DB": len(p.DB), "DA": len(p.DA),
		"DSize": len(p.DSize), "DTexID": len(p.DTexID), "DSeqIdx": len(p.DSeqIdx),
	}); err != nil {
		return nil, err
	}

	w := endian.NewWriter(n * PFrameBytesPerParticle)
	for _, v := range p.DX {
		w.WriteInt16(v)
	}
	for _, v := range p.DY {
		w.WriteInt16(v)
	}
	for _, v := range p.DZ {
		w.WriteInt16(v)
	}
	for _, v := range p.DR {
		w.WriteInt8(v)
	}
	for _, v := range p.DG {
		w.WriteInt8(v)
	}
	for _, v := range p.DB {
		w.WriteInt8(v)
	}
	for _, v := range p.DA {
		w.WriteInt8(v)
	}
	for _, v := range p.DSize {
		w.WriteInt16(v)
	}
	for _, v := range p.DTexID {
		w.WriteInt8(v)
	}
	for _, v := range p.DSeqIdx {
		w.WriteInt8(v)
	}
	for _, v := range p.ID {
		w.WriteInt32(v)
	}

	return w.Bytes(), nil
}

// DecodePFramePayload parses a P-Frame payload for n rows. Payload length
// must equal exactly n*18 bytes (spec §4.4); otherwise
// errs.ErrPayloadSizeMismatch. Duplicate IDs within one P-Frame's ID column
// are rejected with errs.ErrDuplicateParticleID — spec §3 scopes uniqueness
// to a single frame, and a frame naming the same ID twice has no
// well-defined replay order.
func DecodePFramePayload(payload []byte, n uint32) (*PFramePayload, error) {
	want := int(n) * PFrameBytesPerParticle
	if len(payload) != want {
		return nil, fmt.Errorf("%w: P-Frame with %d rows wants %d bytes, got %d",
			errs.ErrPayloadSizeMismatch, n, want, len(payload))
	}

	c := endian.NewCursor(payload)
	out := &PFramePayload{
		DX: make([]int16, n), DY: make([]int16, n), DZ: make([]int16, n),
		DR: make([]int8, n), DG: make([]int8, n), DB: make([]int8, n), DA: make([]int8, n),
		DSize: make([]int16, n), DTexID: make([]int8, n), DSeqIdx: make([]int8, n),
		ID: make([]ParticleID, n),
	}

	var err error
	for i := range out.DX {
		if out.DX[i], err = c.ReadInt16(); err != nil {
			return nil, err
		}
	}
	for i := range out.DY {
		if out.DY[i], err = c.ReadInt16(); err != nil {
			return nil, err
		}
	}
	for i := range out.DZ {
		if out.DZ[i], err = c.ReadInt16(); err != nil {
			return nil, err
		}
	}
	for i := range out.DR {
		if out.DR[i], err = c.ReadInt8(); err != nil {
			return nil, err
		}
	}
	for i := range out.DG {
		if out.DG[i], err = c.ReadInt8(); err != nil {
			return nil, err
		}
	}
	for i := range out.DB {
		if out.DB[i], err = c.ReadInt8(); err != nil {
			return nil, err
		}
	}
	for i := range out.DA {
		if out.DA[i], err = c.ReadInt8(); err != nil {
			return nil, err
		}
	}
	for i := range out.DSize {
		if out.DSize[i], err = c.ReadInt16(); err != nil {
			return nil, err
		}
	}
	for i := range out.DTexID {
		if out.DTexID[i], err = c.ReadInt8(); err != nil {
			return nil, err
		}
	}
	for i := range out.DSeqIdx {
		if out.DSeqIdx[i], err = c.ReadInt8(); err != nil {
			return nil, err
		}
	}

	seen := make(map[ParticleID]struct{}, n)
	for i := range out.ID {
		v, err := c.ReadInt32()
		if err != nil {
			return nil, err
		}

		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("%w: particle %d", errs.ErrDuplicateParticleID, v)
		}
		seen[v] = struct{}{}

		out.ID[i] = v
	}

	return out, nil
}
