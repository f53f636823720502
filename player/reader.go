package player

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/atemukesu/NebulaTools/compress"
	"github.com/atemukesu/NebulaTools/errs"
	"github.com/atemukesu/NebulaTools/frame"
	"github.com/atemukesu/NebulaTools/section"
)

// Reader is C5, the playback state engine: it owns the header and index
// tables for one animation, plus the current live set and frame position
// (spec §4.5). A Reader is not safe for concurrent use.
type Reader struct {
	src  io.ReaderAt
	size int64
	cfg  config

	codec *compress.Codec

	header     section.FileHeader
	textures   []section.Texture
	frameIndex []section.FrameIndexEntry
	keyframes  []uint32

	live         LiveSet
	currentFrame uint32
	hasPosition  bool

	scratch []byte // reused chunk-decompression input buffer
}

// Open parses the header and index tables of src (size bytes total) and
// returns a Reader positioned before frame 0. The entire Frame Index and
// Keyframe Index are loaded eagerly, per spec §4.3; frame chunk payloads are
// decompressed lazily on Seek/StepForward.
func Open(src io.ReaderAt, size int64, opts ...Option) (*Reader, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Reader{
		src:   src,
		size:  size,
		cfg:   cfg,
		codec: compress.NewCodec(compress.WithMaxFrameSize(cfg.maxFrameSize), compress.WithLogger(cfg.log)),
	}

	if err := r.loadMetadata(); err != nil {
		return nil, err
	}

	return r, nil
}

// Header returns the parsed File Header.
func (r *Reader) Header() section.FileHeader { return r.header }

// Textures returns the parsed Texture Block.
func (r *Reader) Textures() []section.Texture { return r.textures }

// TotalFrames returns the animation's frame count.
func (r *Reader) TotalFrames() uint32 { return r.header.TotalFrames }

// Keyframes returns the strictly ascending keyframe positions.
func (r *Reader) Keyframes() []uint32 { return r.keyframes }

// metaReader sequentially consumes bytes from src via ReadAt, accumulating
// them into a single contiguous buffer so that section.Parse* — which
// operate on byte slices with offsets, matching the teacher's in-memory
// decode style — can validate the metadata region as a whole once its true
// length is known (the Texture Block has variable-length paths, so that
// length cannot be computed up front).
type metaReader struct {
	src io.ReaderAt
	off int64
	max int64
	buf []byte
}

func (m *metaReader) read(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	if m.off+int64(n) > m.max {
		return nil, fmt.Errorf("%w: metadata region needs %d more bytes at offset %d, file has %d",
			errs.ErrTruncated, n, m.off, m.max)
	}

	chunk := make([]byte, n)
	if _, err := m.src.ReadAt(chunk, m.off); err != nil {
		return nil, fmt.Errorf("nbl: reading metadata at offset %d: %w", m.off, err)
	}

	m.off += int64(n)
	start := len(m.buf)
	m.buf = append(m.buf, chunk...)

	return m.buf[start:], nil
}

func (r *Reader) loadMetadata() error {
	mr := &metaReader{src: r.src, max: r.size}

	hdrBytes, err := mr.read(section.HeaderSize)
	if err != nil {
		return err
	}

	header, err := section.ParseFileHeader(hdrBytes)
	if err != nil {
		return err
	}
	r.header = header

	textureBlockStart := len(mr.buf)
	for i := 0; i < int(header.TextureCount); i++ {
		lenBytes, err := mr.read(2)
		if err != nil {
			return err
		}
		pathLen := int(binary.LittleEndian.Uint16(lenBytes))

		if pathLen > 0 {
			pathBytes, err := mr.read(pathLen)
			if err != nil {
				return err
			}
			if !utf8.Valid(pathBytes) {
				return fmt.Errorf("%w: texture %d path", errs.ErrInvalidUTF8, i)
			}
		}

		if _, err := mr.read(2); err != nil { // rows, cols
			return err
		}
	}

	textures, _, err := section.ParseTextureBlock(mr.buf, textureBlockStart, int(header.TextureCount))
	if err != nil {
		return err
	}
	r.textures = textures

	frameIndexStart := len(mr.buf)
	frameIndexLen := int(header.TotalFrames) * section.FrameIndexEntrySize
	if _, err := mr.read(frameIndexLen); err != nil {
		return err
	}

	keyframeIndexStart := len(mr.buf)
	countBytes, err := mr.read(4)
	if err != nil {
		return err
	}
	keyframeCount := binary.LittleEndian.Uint32(countBytes)
	if _, err := mr.read(int(keyframeCount) * 4); err != nil {
		return err
	}

	dataStart := int64(len(mr.buf))

	frameIndex, _, err := section.ParseFrameIndex(mr.buf, frameIndexStart, int(header.TotalFrames), dataStart, r.size)
	if err != nil {
		return err
	}
	r.frameIndex = frameIndex

	keyframes, _, err := section.ParseKeyframeIndex(mr.buf, keyframeIndexStart, header.TotalFrames)
	if err != nil {
		return err
	}
	if header.TotalFrames > 0 && len(keyframes) == 0 {
		return fmt.Errorf("%w: non-empty animation with no keyframes", errs.ErrBadKeyframeTable)
	}
	r.keyframes = keyframes

	return nil
}

// readChunk decompresses the frame at index f and splits it into its
// FrameType, ParticleCount and payload.
func (r *Reader) readChunk(f uint32) (frame.Type, uint32, []byte, error) {
	entry := r.frameIndex[f]

	need := int(entry.ChunkSize)
	if cap(r.scratch) < need {
		r.scratch = make([]byte, need)
	}
	buf := r.scratch[:need]

	if _, err := r.src.ReadAt(buf, int64(entry.ChunkOffset)); err != nil {
		return 0, 0, nil, fmt.Errorf("nbl: reading chunk %d at offset %d: %w", f, entry.ChunkOffset, err)
	}

	decompressed, err := r.codec.Decompress(buf)
	if err != nil {
		return 0, 0, nil, err
	}

	return frame.ParseChunk(decompressed)
}

// findKeyframe returns the greatest keyframe k <= target by binary search
// over the strictly ascending keyframe table (spec §4.5).
func (r *Reader) findKeyframe(target uint32) (uint32, error) {
	if len(r.keyframes) == 0 {
		return 0, fmt.Errorf("%w: no keyframes to seek from", errs.ErrBadKeyframeTable)
	}

	idx := sort.Search(len(r.keyframes), func(i int) bool { return r.keyframes[i] > target })
	if idx == 0 {
		return 0, fmt.Errorf("%w: no keyframe at or before frame %d", errs.ErrBadKeyframeTable, target)
	}

	return r.keyframes[idx-1], nil
}

// Seek resolves target to its materialized live set: it loads the nearest
// preceding keyframe's I-Frame wholesale, then replays every P-Frame up to
// and including target (spec §4.5). ctx is checked between frames;
// cancellation surfaces errs.ErrCancelled and leaves the reader positioned
// at whatever frame it last completed.
func (r *Reader) Seek(ctx context.Context, target uint32) (LiveSet, error) {
	if target >= r.header.TotalFrames {
		return nil, fmt.Errorf("%w: frame %d out of range [0,%d)", errs.ErrBadIndex, target, r.header.TotalFrames)
	}

	k, err := r.findKeyframe(target)
	if err != nil {
		return nil, err
	}

	r.cfg.log.Debug("seek: loading keyframe", zap.Uint32("keyframe", k), zap.Uint32("target", target))

	if err := r.loadIFrame(k); err != nil {
		return nil, errs.WrapFrame(k, err)
	}

	for f := k + 1; f <= target; f++ {
		select {
		case <-ctx.Done():
			return nil, errs.ErrCancelled
		default:
		}

		if err := r.applyFrame(f); err != nil {
			r.cfg.log.Warn("step failed", zap.Uint32("frame", f), zap.Error(err))

			return nil, errs.WrapFrame(f, err)
		}
	}

	return r.live, nil
}

// StepForward applies exactly the next frame after the reader's current
// position. The reader must already be positioned (via a prior Seek).
func (r *Reader) StepForward(ctx context.Context) (LiveSet, error) {
	if !r.hasPosition {
		return nil, fmt.Errorf("%w: StepForward called before any Seek", errs.ErrBadIndex)
	}

	next := r.currentFrame + 1
	if next >= r.header.TotalFrames {
		return nil, fmt.Errorf("%w: frame %d out of range [0,%d)", errs.ErrBadIndex, next, r.header.TotalFrames)
	}

	select {
	case <-ctx.Done():
		return nil, errs.ErrCancelled
	default:
	}

	if err := r.applyFrame(next); err != nil {
		r.cfg.log.Warn("step failed", zap.Uint32("frame", next), zap.Error(err))

		return nil, errs.WrapFrame(next, err)
	}

	return r.live, nil
}

// loadIFrame replaces live wholesale with the I-Frame at k.
func (r *Reader) loadIFrame(k uint32) error {
	ft, n, payload, err := r.readChunk(k)
	if err != nil {
		return err
	}
	if ft != frame.TypeI {
		return fmt.Errorf("%w: keyframe %d is not an I-Frame", errs.ErrUnknownFrameType, k)
	}

	data, err := frame.DecodeIFramePayload(payload, n)
	if err != nil {
		return err
	}

	live := make(LiveSet, n)
	for i := 0; i < data.N(); i++ {
		live[data.ID[i]] = ParticleState{
			Pos:    [3]float32{data.X[i], data.Y[i], data.Z[i]},
			Col:    [4]uint8{data.R[i], data.G[i], data.B[i], data.A[i]},
			Size:   data.Size[i],
			TexID:  data.TexID[i],
			SeqIdx: data.SeqIdx[i],
		}
	}

	r.live = live
	r.currentFrame = k
	r.hasPosition = true

	return nil
}

// applyFrame advances the live set by exactly one frame, whether it is an
// I-Frame or a P-Frame (spec §4.5).
func (r *Reader) applyFrame(f uint32) error {
	ft, n, payload, err := r.readChunk(f)
	if err != nil {
		return err
	}

	switch ft {
	case frame.TypeI:
		return r.loadIFrame(f)
	case frame.TypeP:
		return r.applyPFrame(f, n, payload)
	default:
		return fmt.Errorf("%w: frame type %d", errs.ErrUnknownFrameType, ft)
	}
}

// applyPFrame applies Update/Spawn/Despawn set operations over the current
// live set against this P-Frame's ID column (spec §4.5). The partition
// into the three sets is determined purely by presence of each ID in the
// live set before this frame is applied, not by any encoding on ID itself.
func (r *Reader) applyPFrame(f uint32, n uint32, payload []byte) error {
	data, err := frame.DecodePFramePayload(payload, n)
	if err != nil {
		return err
	}

	present := make(map[ParticleID]struct{}, data.N())

	for i := 0; i < data.N(); i++ {
		id := data.ID[i]
		present[id] = struct{}{}

		prev, isUpdate := r.live[id]
		if !isUpdate {
			// Spawn: Zero-Basis Principle — the delta is interpreted as
			// the absolute initial value (spec §4.5).
			r.live[id] = ParticleState{
				Pos: [3]float32{
					float32(frame.DequantizePos(data.DX[i])),
					float32(frame.DequantizePos(data.DY[i])),
					float32(frame.DequantizePos(data.DZ[i])),
				},
				Col: [4]uint8{
					frame.ZeroBasisU8(data.DR[i]),
					frame.ZeroBasisU8(data.DG[i]),
					frame.ZeroBasisU8(data.DB[i]),
					frame.ZeroBasisU8(data.DA[i]),
				},
				Size:   frame.SaturateAddSize(0, frame.DequantizeSize(data.DSize[i])),
				TexID:  frame.ZeroBasisU8(data.DTexID[i]),
				SeqIdx: frame.ZeroBasisU8(data.DSeqIdx[i]),
			}

			continue
		}

		r.live[id] = ParticleState{
			Pos: [3]float32{
				prev.Pos[0] + float32(frame.DequantizePos(data.DX[i])),
				prev.Pos[1] + float32(frame.DequantizePos(data.DY[i])),
				prev.Pos[2] + float32(frame.DequantizePos(data.DZ[i])),
			},
			Col: [4]uint8{
				frame.SaturateAddU8(prev.Col[0], data.DR[i]),
				frame.SaturateAddU8(prev.Col[1], data.DG[i]),
				frame.SaturateAddU8(prev.Col[2], data.DB[i]),
				frame.SaturateAddU8(prev.Col[3], data.DA[i]),
			},
			Size:   frame.SaturateAddSize(prev.Size, frame.DequantizeSize(data.DSize[i])),
			TexID:  frame.SaturateAddU8(prev.TexID, data.DTexID[i]),
			SeqIdx: frame.SaturateAddU8(prev.SeqIdx, data.DSeqIdx[i]),
		}
	}

	// Despawn: any previously-live ID absent from this frame's column.
	for id := range r.live {
		if _, ok := present[id]; !ok {
			delete(r.live, id)
		}
	}

	r.currentFrame = f

	return nil
}
