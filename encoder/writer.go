package encoder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/atemukesu/NebulaTools/compress"
	"github.com/atemukesu/NebulaTools/errs"
	"github.com/atemukesu/NebulaTools/frame"
	"github.com/atemukesu/NebulaTools/internal/pool"
	"github.com/atemukesu/NebulaTools/player"
	"github.com/atemukesu/NebulaTools/section"
)

// Writer is C6's streaming encoder: it accepts materialized frames in
// order via PushFrame, decides I-Frame vs P-Frame cadence, and assembles
// the final container on Finish(). A Writer is not safe for concurrent use
// and is not reusable after Finish().
type Writer struct {
	sink io.WriteSeeker
	cfg  config

	codec *compress.Codec

	header   Header
	textures []Texture

	prevLive            player.LiveSet
	totalFrames         uint32
	framesSinceKeyframe int
	keyframes           []uint32
	chunks              [][]byte

	bboxMin, bboxMax [3]float32
	bboxSet          bool

	invalid  bool
	finished bool
}

// Create opens a Writer over sink for a fresh encode. textures is the
// complete, fixed Texture Block — spec §4.3 gives no mechanism for
// appending textures mid-stream. The container is not written to sink
// until Finish() succeeds.
func Create(sink io.WriteSeeker, header Header, textures []Texture, opts ...Option) (*Writer, error) {
	for i, t := range textures {
		if t.Rows == 0 || t.Cols == 0 {
			return nil, fmt.Errorf("%w: texture %d has rows=%d cols=%d", errs.ErrMalformedTexture, i, t.Rows, t.Cols)
		}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Writer{
		sink:     sink,
		cfg:      cfg,
		codec:    compress.NewCodec(compress.WithLogger(cfg.log)),
		header:   header,
		textures: textures,
	}, nil
}

// PushFrame encodes one more frame of the animation. live is the
// materialized absolute state for every particle alive at this frame;
// forceKey requests an I-Frame regardless of cadence (spec §4.6, rule a).
// A failed PushFrame leaves the Writer permanently invalid (spec §7:
// "the writer is all-or-nothing per frame") — the caller must discard the
// output and start over.
func (w *Writer) PushFrame(ctx context.Context, live player.LiveSet, forceKey bool) error {
	if w.finished {
		return errs.ErrNotOpenForWrite
	}
	if w.invalid {
		return errs.ErrWriterInvalid
	}

	select {
	case <-ctx.Done():
		w.invalid = true

		return errs.ErrCancelled
	default:
	}

	useIFrame, trigger := w.decideKeyframe(live, forceKey)

	var (
		frameType    frame.Type
		chunkPayload []byte
		err          error
	)

	if !useIFrame {
		var pPayload *frame.PFramePayload

		pPayload, trigger, useIFrame, err = w.tryBuildPFrame(live)
		if err != nil {
			w.invalid = true

			return err
		}

		if !useIFrame {
			chunkPayload, err = frame.EncodePFramePayload(pPayload)
			if err != nil {
				w.invalid = true

				return err
			}
			frameType = frame.TypeP
		}
	}

	if useIFrame {
		chunkPayload, err = frame.EncodeIFramePayload(w.buildIFrame(live))
		if err != nil {
			w.invalid = true

			return err
		}
		frameType = frame.TypeI

		w.keyframes = append(w.keyframes, w.totalFrames)
		w.framesSinceKeyframe = 0
		w.cfg.log.Info("forced keyframe", zap.Uint32("frame", w.totalFrames), zap.String("trigger", trigger))
	} else {
		w.framesSinceKeyframe++
	}

	compressed, err := w.compressChunk(frameType, uint32(len(live)), chunkPayload) //nolint: gosec
	if err != nil {
		w.invalid = true

		return err
	}

	w.chunks = append(w.chunks, compressed)
	w.updateBBox(live)
	w.prevLive = live.Clone()
	w.totalFrames++

	return nil
}

// decideKeyframe applies the first three of spec §4.6's cadence rules
// (everything except the teleport/overflow rule, which can only be known
// after attempting to build the P-Frame's deltas).
func (w *Writer) decideKeyframe(live player.LiveSet, forceKey bool) (bool, string) {
	switch {
	case forceKey:
		return true, "forced"
	case w.totalFrames == 0:
		return true, "initial"
	case w.framesSinceKeyframe+1 >= w.cfg.maxGOPLength:
		return true, "max-gop"
	case w.cfg.keyframeHint != nil && w.cfg.keyframeHint(w.prevLive, live):
		return true, "hint"
	default:
		return false, ""
	}
}

// Finish fixes up the Frame Index and Keyframe Index now that TotalFrames
// is known, assembles the complete container in one pooled buffer (mirrors
// the teacher's Finish() two-pass-in-memory assembly), and writes it to
// sink in a single pass. The Writer cannot be reused afterward.
func (w *Writer) Finish() error {
	if w.invalid {
		return errs.ErrWriterInvalid
	}
	if w.finished {
		return errs.ErrNotOpenForWrite
	}
	w.finished = true

	header := section.FileHeader{
		TargetFPS:    w.header.TargetFPS,
		TotalFrames:  w.totalFrames,
		TextureCount: uint16(len(w.textures)), //nolint: gosec
		BBoxMin:      w.bboxMin,
		BBoxMax:      w.bboxMax,
	}
	headerBytes := header.Bytes()

	textureBlock, err := section.EncodeTextureBlock(w.textures)
	if err != nil {
		return err
	}

	keyframeBytes := section.EncodeKeyframeIndex(w.keyframes)

	dataStart := len(headerBytes) + len(textureBlock) + len(w.chunks)*section.FrameIndexEntrySize + len(keyframeBytes)

	entries := make([]section.FrameIndexEntry, len(w.chunks))
	offset := dataStart
	for i, c := range w.chunks {
		entries[i] = section.FrameIndexEntry{ChunkOffset: uint64(offset), ChunkSize: uint32(len(c))} //nolint: gosec
		offset += len(c)
	}
	frameIndexBytes := section.EncodeFrameIndex(entries)

	buf := pool.GetChunkSetBuffer()
	defer pool.PutChunkSetBuffer(buf)

	buf.Reset()
	buf.ExtendOrGrow(offset)
	out := buf.Bytes()

	n := copy(out, headerBytes)
	n += copy(out[n:], textureBlock)
	n += copy(out[n:], frameIndexBytes)
	n += copy(out[n:], keyframeBytes)
	for _, c := range w.chunks {
		n += copy(out[n:], c)
	}

	if _, err := w.sink.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("nbl: seeking to start of sink: %w", err)
	}
	if _, err := w.sink.Write(out); err != nil {
		return fmt.Errorf("nbl: writing container: %w", err)
	}

	w.cfg.log.Info("encoder finished", zap.Uint32("total_frames", w.totalFrames), zap.Int("keyframes", len(w.keyframes)))

	return nil
}

// tryBuildPFrame attempts to compute this frame's quantized deltas against
// w.prevLive. It reports overflowed=true (not an error) when any delta overflows
// its representable range — position/size per spec §4.6's teleport rule,
// and color/tex/seq under this encoder's symmetric generalization of it
// (see DESIGN.md) — signaling the caller to fall back to an I-Frame instead.
func (w *Writer) tryBuildPFrame(live player.LiveSet) (payload *frame.PFramePayload, trigger string, overflowed bool, err error) {
	ids := sortedIDs(live)
	n := len(ids)

	out := &frame.PFramePayload{
		DX: make([]int16, n), DY: make([]int16, n), DZ: make([]int16, n),
		DR: make([]int8, n), DG: make([]int8, n), DB: make([]int8, n), DA: make([]int8, n),
		DSize: make([]int16, n), DTexID: make([]int8, n), DSeqIdx: make([]int8, n),
		ID: make([]player.ParticleID, n),
	}

	for i, id := range ids {
		cur := live[id]
		prev, hadPrev := w.prevLive[id]

		var prevPos [3]float32
		var prevCol [4]uint8
		var prevSize uint16
		var prevTex, prevSeq uint8
		if hadPrev {
			prevPos, prevCol, prevSize, prevTex, prevSeq = prev.Pos, prev.Col, prev.Size, prev.TexID, prev.SeqIdx
		}

		dx, qerr := frame.QuantizePos(float64(cur.Pos[0] - prevPos[0]))
		if qerr != nil {
			return overflowTrigger(qerr, "teleport")
		}
		dy, qerr := frame.QuantizePos(float64(cur.Pos[1] - prevPos[1]))
		if qerr != nil {
			return overflowTrigger(qerr, "teleport")
		}
		dz, qerr := frame.QuantizePos(float64(cur.Pos[2] - prevPos[2]))
		if qerr != nil {
			return overflowTrigger(qerr, "teleport")
		}
		dSize, qerr := frame.QuantizeSize(float64(cur.Size) - float64(prevSize))
		if qerr != nil {
			return overflowTrigger(qerr, "teleport")
		}

		dr, ok := colorDelta(hadPrev, prevCol[0], cur.Col[0])
		if !ok {
			return nil, "color-overflow", true, nil
		}
		dg, ok := colorDelta(hadPrev, prevCol[1], cur.Col[1])
		if !ok {
			return nil, "color-overflow", true, nil
		}
		db, ok := colorDelta(hadPrev, prevCol[2], cur.Col[2])
		if !ok {
			return nil, "color-overflow", true, nil
		}
		da, ok := colorDelta(hadPrev, prevCol[3], cur.Col[3])
		if !ok {
			return nil, "color-overflow", true, nil
		}
		dtex, ok := colorDelta(hadPrev, prevTex, cur.TexID)
		if !ok {
			return nil, "color-overflow", true, nil
		}
		dseq, ok := colorDelta(hadPrev, prevSeq, cur.SeqIdx)
		if !ok {
			return nil, "color-overflow", true, nil
		}

		out.DX[i], out.DY[i], out.DZ[i] = dx, dy, dz
		out.DR[i], out.DG[i], out.DB[i], out.DA[i] = dr, dg, db, da
		out.DSize[i] = dSize
		out.DTexID[i], out.DSeqIdx[i] = dtex, dseq
		out.ID[i] = id
	}

	return out, "", false, nil
}

// overflowTrigger distinguishes the expected ErrDeltaOverflow signal (which
// simply forces a keyframe) from a genuinely unexpected error (which must
// propagate as a PushFrame failure).
func overflowTrigger(err error, trigger string) (*frame.PFramePayload, string, bool, error) {
	if errors.Is(err, errs.ErrDeltaOverflow) {
		return nil, trigger, true, nil
	}

	return nil, "", false, err
}

// colorDelta computes the stored int8 for one color/tex/seq component. When
// the particle has no previous state (a spawn), the result is the raw
// bit-pattern reinterpretation the Zero-Basis Principle expects on decode
// (spec §4.5) — never an overflow, since cur is always a valid uint8.
func colorDelta(hadPrev bool, prev, cur uint8) (int8, bool) {
	if !hadPrev {
		return int8(cur), true //nolint: gosec
	}

	d := int(cur) - int(prev)
	if d < -128 || d > 127 {
		return 0, false
	}

	return int8(d), true //nolint: gosec
}

// buildIFrame materializes live's absolute state in sorted-ID row order.
func (w *Writer) buildIFrame(live player.LiveSet) *frame.IFramePayload {
	ids := sortedIDs(live)
	n := len(ids)

	out := &frame.IFramePayload{
		X: make([]float32, n), Y: make([]float32, n), Z: make([]float32, n),
		R: make([]uint8, n), G: make([]uint8, n), B: make([]uint8, n), A: make([]uint8, n),
		Size: make([]uint16, n), TexID: make([]uint8, n), SeqIdx: make([]uint8, n),
		ID: make([]player.ParticleID, n),
	}

	for i, id := range ids {
		s := live[id]
		out.X[i], out.Y[i], out.Z[i] = s.Pos[0], s.Pos[1], s.Pos[2]
		out.R[i], out.G[i], out.B[i], out.A[i] = s.Col[0], s.Col[1], s.Col[2], s.Col[3]
		out.Size[i] = s.Size
		out.TexID[i], out.SeqIdx[i] = s.TexID, s.SeqIdx
		out.ID[i] = id
	}

	return out
}

// sortedIDs gives frames a deterministic, reproducible row order across
// encodes of the same logical input (spec §3 leaves the order to the
// encoder's choice but fixes it per frame).
func sortedIDs(live player.LiveSet) []player.ParticleID {
	ids := make([]player.ParticleID, 0, len(live))
	for id := range live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// compressChunk prepends Header5 to payload using a pooled scratch buffer
// (internal/pool's chunk-scratch pool, reused across every PushFrame call)
// and compresses the concatenation in one shot, per spec §4.4's
// interop contract.
func (w *Writer) compressChunk(ft frame.Type, n uint32, payload []byte) ([]byte, error) {
	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	buf.Reset()
	buf.ExtendOrGrow(frame.HeaderSize + len(payload))
	raw := buf.Bytes()
	raw[0] = uint8(ft)
	binary.LittleEndian.PutUint32(raw[1:5], n)
	copy(raw[5:], payload)

	return w.codec.Compress(raw)
}

// updateBBox grows the running bounding box to cover every particle
// position seen so far, satisfying spec §3's encoder-owned BBoxMin/BBoxMax
// invariant.
func (w *Writer) updateBBox(live player.LiveSet) {
	for _, s := range live {
		if !w.bboxSet {
			w.bboxMin, w.bboxMax = s.Pos, s.Pos
			w.bboxSet = true

			continue
		}

		for i := range 3 {
			if s.Pos[i] < w.bboxMin[i] {
				w.bboxMin[i] = s.Pos[i]
			}
			if s.Pos[i] > w.bboxMax[i] {
				w.bboxMax[i] = s.Pos[i]
			}
		}
	}
}
