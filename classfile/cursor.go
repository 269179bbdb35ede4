// Package classfile holds the byte-level plumbing shared by the assembly
// packages: big-endian read and write cursors over class file data and the
// error taxonomy every package reports through.
package classfile

import (
	"encoding/binary"
	"io"
)

// ---------------------------------------------------------------------------
// Reader: big-endian input cursor
// ---------------------------------------------------------------------------

// Reader reads big-endian class file data from a byte slice. Pos is relative
// to the start of the slice, which matters for switch padding: construct a
// Reader over exactly the code array when decoding instructions.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the total size of the underlying data.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// HasMore returns true if there are unread bytes.
func (r *Reader) HasMore() bool {
	return r.pos < len(r.data)
}

func (r *Reader) need(n int, what string) error {
	if r.pos+n > len(r.data) {
		return Errorf(KindMalformed, "read", "unexpected end of data reading %s at pos %d", what, r.pos)
	}
	return nil
}

// ReadU1 reads an unsigned byte.
func (r *Reader) ReadU1() (uint8, error) {
	if err := r.need(1, "u1"); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadS1 reads a signed byte.
func (r *Reader) ReadS1() (int8, error) {
	b, err := r.ReadU1()
	return int8(b), err
}

// ReadU2 reads an unsigned 16-bit value.
func (r *Reader) ReadU2() (uint16, error) {
	if err := r.need(2, "u2"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadS2 reads a signed 16-bit value.
func (r *Reader) ReadS2() (int16, error) {
	v, err := r.ReadU2()
	return int16(v), err
}

// ReadU4 reads an unsigned 32-bit value.
func (r *Reader) ReadU4() (uint32, error) {
	if err := r.need(4, "u4"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadS4 reads a signed 32-bit value.
func (r *Reader) ReadS4() (int32, error) {
	v, err := r.ReadU4()
	return int32(v), err
}

// ReadU8 reads an unsigned 64-bit value.
func (r *Reader) ReadU8() (uint64, error) {
	if err := r.need(8, "u8"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadBytes reads n raw bytes. The returned slice is a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, Errorf(KindMalformed, "read", "negative length %d", n)
	}
	if err := r.need(n, "bytes"); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n, "padding"); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// ---------------------------------------------------------------------------
// Writer: big-endian output sink
// ---------------------------------------------------------------------------

// Writer accumulates big-endian class file data in memory.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Bytes returns the written data. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteU1 appends an unsigned byte.
func (w *Writer) WriteU1(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteS1 appends a signed byte.
func (w *Writer) WriteS1(v int8) {
	w.buf = append(w.buf, byte(v))
}

// WriteU2 appends an unsigned 16-bit value.
func (w *Writer) WriteU2(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// WriteS2 appends a signed 16-bit value.
func (w *Writer) WriteS2(v int16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
}

// WriteU4 appends an unsigned 32-bit value.
func (w *Writer) WriteU4(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// WriteS4 appends a signed 32-bit value.
func (w *Writer) WriteS4(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

// WriteU8 appends an unsigned 64-bit value.
func (w *Writer) WriteU8(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

// Write appends raw bytes. It never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteTo copies the written data to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.buf)
	return int64(n), err
}
