// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package bitstream reads and writes between 1 and 32 bits at a time on top of a byte-oriented stream.  Within
each octet, bits are addressed most significant first.  A Writer must be closed exactly once; closing pads any
partial final octet with zero bits in its low positions.
*/
package bitstream

import (
	"errors"
	"io"

	"github.com/icza/bitio"
)

// MaxBits is the largest number of bits that can be moved by a single WriteBits or ReadBits call.
const MaxBits = 32

var (
	ErrBitCount = errors.New("bitstream: bit count out of range")
	ErrClosed   = errors.New("bitstream: write to closed writer")
)

type flusher interface {
	Flush() error
}

// Writer appends variable-width bit fields to an underlying io.Writer.
type Writer struct {
	out    io.Writer
	bw     *bitio.Writer
	bits   int64
	closed bool
}

// NewWriter constructs a Writer on top of out.  Bytes written directly to out before the first WriteBits call
// precede the bit stream.
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out: out,
		bw:  bitio.NewWriter(out),
	}
}

// WriteBits appends the count low-order bits of value, most significant first.
func (w *Writer) WriteBits(count uint8, value uint32) error {
	if w.closed {
		return ErrClosed
	}
	if count < 1 || count > MaxBits {
		return ErrBitCount
	}

	v := uint64(value) & (uint64(1)<<count - 1)
	if err := w.bw.WriteBits(v, count); err != nil {
		return err
	}

	w.bits += int64(count)
	return nil
}

// BitsWritten returns the number of payload bits written so far, not counting padding.
func (w *Writer) BitsWritten() int64 {
	return w.bits
}

// Close writes out any buffered partial octet, zero-padded in its low bits, and flushes the underlying writer
// if it buffers.  It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	if err := w.bw.Close(); err != nil {
		return err
	}

	if f, ok := w.out.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Reader extracts variable-width bit fields from an underlying io.Reader.
type Reader struct {
	br   *bitio.Reader
	bits int64
}

// NewReader constructs a Reader on top of in.  If in is an io.ByteReader it is read from directly, so bytes
// consumed from it beforehand (for instance a fixed header) are skipped by the bit stream.
func NewReader(in io.Reader) *Reader {
	return &Reader{br: bitio.NewReader(in)}
}

// ReadBits returns the next count bits in the low-order bits of the result.  If the source runs out before
// count bits could be supplied, ReadBits returns io.EOF; bits consumed by a failed call are lost.
func (r *Reader) ReadBits(count uint8) (uint32, error) {
	if count < 1 || count > MaxBits {
		return 0, ErrBitCount
	}

	v, err := r.br.ReadBits(count)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return 0, io.EOF
	case err != nil:
		return 0, err
	}

	r.bits += int64(count)
	return uint32(v), nil
}

// BitsRead returns the number of bits successfully returned so far.
func (r *Reader) BitsRead() int64 {
	return r.bits
}
