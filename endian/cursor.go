package endian

import (
	"math"
	"unicode/utf8"

	"github.com/atemukesu/NebulaTools/errs"
)

// Cursor is a bounds-checked sequential reader over a byte slice (Writer is
// its append-side counterpart). Together they implement C1: little-endian fixed-width primitives, IEEE-754 float32, and
// length-prefixed UTF-8 strings (a 16-bit unsigned byte count).
//
// Reads past the end of the underlying slice return errs.ErrTruncated rather
// than panicking; decoding an ill-formed string returns errs.ErrInvalidUTF8.
// A zero-length string is valid and decodes to "".
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor wraps data for sequential reads starting at offset 0.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Seek repositions the cursor to an absolute offset. It does not validate
// that offset lies within the buffer; the next read will fail with
// errs.ErrTruncated if it does not.
func (c *Cursor) Seek(offset int) { c.pos = offset }

func (c *Cursor) require(n int) error {
	if c.Remaining() < n {
		return errs.ErrTruncated
	}

	return nil
}

// ReadBytes returns the next n bytes without copying and advances the cursor.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}

	b := c.data[c.pos : c.pos+n]
	c.pos += n

	return b, nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (c *Cursor) ReadUint8() (uint8, error) {
	b, err := c.ReadBytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadInt8 reads a signed 8-bit integer.
func (c *Cursor) ReadInt8() (int8, error) {
	v, err := c.ReadUint8()
	return int8(v), err //nolint: gosec
}

// ReadUint16 reads a little-endian unsigned 16-bit integer.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}

	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// ReadInt16 reads a little-endian signed 16-bit integer.
func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err //nolint: gosec
}

// ReadUint32 reads a little-endian unsigned 32-bit integer.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}

	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// ReadInt32 reads a little-endian signed 32-bit integer.
func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err //nolint: gosec
}

// ReadUint64 reads a little-endian unsigned 64-bit integer.
func (c *Cursor) ReadUint64() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}

	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	return v, nil
}

// ReadInt64 reads a little-endian signed 64-bit integer.
func (c *Cursor) ReadInt64() (int64, error) {
	v, err := c.ReadUint64()
	return int64(v), err //nolint: gosec
}

// ReadFloat32 reads a little-endian IEEE-754 32-bit float.
func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(v), nil
}

// ReadString reads a 16-bit length-prefixed UTF-8 string (0..=65535 bytes).
func (c *Cursor) ReadString() (string, error) {
	n, err := c.ReadUint16()
	if err != nil {
		return "", err
	}

	if n == 0 {
		return "", nil
	}

	b, err := c.ReadBytes(int(n))
	if err != nil {
		return "", err
	}

	if !utf8.Valid(b) {
		return "", errs.ErrInvalidUTF8
	}

	return string(b), nil
}

// Writer accumulates little-endian primitives into a growable byte slice. It
// is the append-side counterpart to Cursor, used by section and frame
// encoders to build fixed-layout structures without per-field allocations.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with the given initial capacity hint.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) WriteUint8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) WriteInt8(v int8)     { w.buf = append(w.buf, uint8(v)) } //nolint: gosec
func (w *Writer) WriteBytes(b []byte)  { w.buf = append(w.buf, b...) }

func (w *Writer) WriteUint16(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) } //nolint: gosec

func (w *Writer) WriteUint32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) } //nolint: gosec

func (w *Writer) WriteUint64(v uint64) {
	for i := range 8 {
		w.buf = append(w.buf, byte(v>>(8*i)))
	}
}

func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) } //nolint: gosec

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteString writes a 16-bit length-prefixed UTF-8 string. The caller is
// responsible for ensuring len(s) <= 65535; this mirrors the on-disk format's
// own limit (spec §1: Texture descriptor path <= 65535 bytes).
func (w *Writer) WriteString(s string) {
	w.WriteUint16(uint16(len(s))) //nolint: gosec
	w.buf = append(w.buf, s...)
}
