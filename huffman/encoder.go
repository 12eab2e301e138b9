// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package huffman

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parhuff/parhuff/bitstream"
)

// Encoder holds state for a single Huffman encoding.  The header goes out with the first Write or Close; Close
// terminates the stream with the EOF code and must be called exactly once.
type Encoder struct {
	table       *CodeTable
	dst         io.Writer
	bw          *bitstream.Writer
	wroteHeader bool
	err         error
}

// NewEncoder constructs an encoder writing to dst with the given code table.  The table must hold a code for
// EOF and for every byte that will be written.
func NewEncoder(dst io.Writer, table *CodeTable) *Encoder {
	return &Encoder{
		table: table,
		dst:   dst,
	}
}

func (enc *Encoder) start() error {
	if enc.wroteHeader {
		return nil
	}
	enc.wroteHeader = true

	if err := enc.table.WriteHeader(enc.dst); err != nil {
		return err
	}
	enc.bw = bitstream.NewWriter(enc.dst)
	return nil
}

func (enc *Encoder) put(sym Symbol) error {
	code := enc.table.codes[sym]
	if code.BitLength == 0 {
		return fmt.Errorf("%w: %v", ErrNoCode, sym)
	}
	return enc.bw.WriteBits(code.BitLength, code.Bits)
}

// Write encodes every byte of p.  After an error the encoder stays failed.
func (enc *Encoder) Write(p []byte) (n int, err error) {
	if enc.err != nil {
		return 0, enc.err
	}
	if enc.err = enc.start(); enc.err != nil {
		return 0, enc.err
	}

	for n < len(p) {
		if enc.err = enc.put(Symbol(p[n])); enc.err != nil {
			return n, enc.err
		}
		n++
	}
	return n, nil
}

// Close writes the EOF code, pads the last octet and flushes dst if it buffers.  It does not close dst.
func (enc *Encoder) Close() error {
	if enc.err != nil {
		return enc.err
	}
	if enc.err = enc.start(); enc.err != nil {
		return enc.err
	}
	if enc.err = enc.put(EOF); enc.err != nil {
		return enc.err
	}

	enc.err = enc.bw.Close()
	if enc.err == nil {
		enc.err = bitstream.ErrClosed
		return nil
	}
	return enc.err
}

// BitsWritten returns the number of payload bits written after the header, not counting padding.
func (enc *Encoder) BitsWritten() int64 {
	if enc.bw == nil {
		return 0
	}
	return enc.bw.BitsWritten()
}

// CompressBytes encodes src in memory with a code derived from its own byte counts.
func CompressBytes(src []byte) ([]byte, error) {
	var counts Counts
	counts.AddBytes(src)
	counts[EOF]++

	table, err := NewCodeTable(&counts)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	enc := NewEncoder(&out, table)
	if _, err := enc.Write(src); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
