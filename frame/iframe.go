package frame

import (
	"fmt"

	"github.com/atemukesu/NebulaTools/endian"
	"github.com/atemukesu/NebulaTools/errs"
)

// IFramePayload is the parsed struct-of-arrays body of an I-Frame (FrameType
// 0): absolute particle state for every live particle, in a fixed row order
// shared across all columns (spec §3, §4.4).
type IFramePayload struct {
	X, Y, Z        []float32
	R, G, B, A     []uint8
	Size           []uint16
	TexID, SeqIdx  []uint8
	ID             []ParticleID
}

// N returns the particle count.
func (p *IFramePayload) N() int { return len(p.ID) }

// EncodeIFramePayload serializes an I-Frame payload in the exact SoA order
// of spec §4.4: X[N] Y[N] Z[N], R[N] G[N] B[N] A[N], Size[N], TexID[N],
// SeqIdx[N], ParticleID[N]. No padding.
func EncodeIFramePayload(p *IFramePayload) ([]byte, error) {
	n := p.N()
	if err := checkLens(n, map[string]int{
		"X": len(p.X), "Y": len(p.Y), "Z": len(p.Z),
		"R": len(p.R), "G": len(p.G), "B": len(p.B), "A": len(p.A),
		"Size": len(p.Size), "TexID": len(p.TexID), "SeqIdx": len(p.SeqIdx),
	}); err != nil {
		return nil, err
	}

	w := endian.NewWriter(n * IFrameBytesPerParticle)
	for _, v := range p.X {
		w.WriteFloat32(v)
	}
	for _, v := range p.Y {
		w.WriteFloat32(v)
	}
	for _, v := range p.Z {
		w.WriteFloat32(v)
	}
	for _, v := range p.R {
		w.WriteUint8(v)
	}
	for _, v := range p.G {
		w.WriteUint8(v)
	}
	for _, v := range p.B {
		w.WriteUint8(v)
	}
	for _, v := range p.A {
		w.WriteUint8(v)
	}
	for _, v := range p.Size {
		w.WriteUint16(v)
	}
	for _, v := range p.TexID {
		w.WriteUint8(v)
	}
	for _, v := range p.SeqIdx {
		w.WriteUint8(v)
	}
	for _, v := range p.ID {
		w.WriteInt32(v)
	}

	return w.Bytes(), nil
}

// DecodeIFramePayload parses an I-Frame payload for n particles. Payload
// length must equal exactly n*24 bytes (spec §4.4); otherwise
// errs.ErrPayloadSizeMismatch.
func DecodeIFramePayload(payload []byte, n uint32) (*IFramePayload, error) {
	want := int(n) * IFrameBytesPerParticle
	if len(payload) != want {
		return nil, fmt.Errorf("%w: I-Frame with %d particles wants %d bytes, got %d",
			errs.ErrPayloadSizeMismatch, n, want, len(payload))
	}

	c := endian.NewCursor(payload)
	out := &IFramePayload{
		X: make([]float32, n), Y: make([]float32, n), Z: make([]float32, n),
		R: make([]uint8, n), G: make([]uint8, n), B: make([]uint8, n), A: make([]uint8, n),
		Size: make([]uint16, n), TexID: make([]uint8, n), SeqIdx: make([]uint8, n),
		ID: make([]ParticleID, n),
	}

	var err error
	for i := range out.X {
		if out.X[i], err = c.ReadFloat32(); err != nil {
			return nil, err
		}
	}
	for i := range out.Y {
		if out.Y[i], err = c.ReadFloat32(); err != nil {
			return nil, err
		}
	}
	for i := range out.Z {
		if out.Z[i], err = c.ReadFloat32(); err != nil {
			return nil, err
		}
	}
	for i := range out.R {
		if out.R[i], err = c.ReadUint8(); err != nil {
			return nil, err
		}
	}
	for i := range out.G {
		if out.G[i], err = c.ReadUint8(); err != nil {
			return nil, err
		}
	}
	for i := range out.B {
		if out.B[i], err = c.ReadUint8(); err != nil {
			return nil, err
		}
	}
	for i := range out.A {
		if out.A[i], err = c.ReadUint8(); err != nil {
			return nil, err
		}
	}
	for i := range out.Size {
		if out.Size[i], err = c.ReadUint16(); err != nil {
			return nil, err
		}
	}
	for i := range out.TexID {
		if out.TexID[i], err = c.ReadUint8(); err != nil {
			return nil, err
		}
	}
	for i := range out.SeqIdx {
		if out.SeqIdx[i], err = c.ReadUint8(); err != nil {
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

func checkLens(n int, cols map[string]int) error {
	for name, l := range cols {
		if l != n {
			return fmt.Errorf("%w: column %s has %d entries, want %d", errs.ErrPayloadSizeMismatch, name, l, n)
		}
	}

	return nil
}
