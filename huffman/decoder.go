// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package huffman

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/parhuff/parhuff/bitstream"
)

// Decoder holds state for a single Huffman decoding.  It reads the header up front, rebuilds the tree from
// the code lengths alone, then yields source bytes through Read until the EOF symbol is reached.
type Decoder struct {
	table *CodeTable
	root  *Node
	br    *bitstream.Reader
	err   error
}

// NewDecoder reads and validates the header from src.  If src is not an io.ByteReader it is wrapped in a
// bufio.Reader, so the decoder may consume bytes past the end of the stream.
func NewDecoder(src io.Reader) (*Decoder, error) {
	if _, ok := src.(io.ByteReader); !ok {
		src = bufio.NewReader(src)
	}

	table, err := ReadHeader(src)
	if err != nil {
		return nil, err
	}

	root, err := TreeFromCodes(table.Symbols())
	if err != nil {
		return nil, err
	}

	return &Decoder{
		table: table,
		root:  root,
		br:    bitstream.NewReader(src),
	}, nil
}

// Table returns the code table described by the header.
func (dec *Decoder) Table() *CodeTable {
	return dec.table
}

// Root returns the decoding tree rebuilt from the header.
func (dec *Decoder) Root() *Node {
	return dec.root
}

func (dec *Decoder) next() (Symbol, error) {
	cur := dec.root
	for !cur.leaf {
		bit, err := dec.br.ReadBits(1)
		if err == io.EOF {
			return 0, ErrTruncated
		} else if err != nil {
			return 0, err
		}

		if bit == 0 {
			cur = cur.Lo
		} else {
			cur = cur.Hi
		}
		if cur == nil {
			return 0, fmt.Errorf("%w: bit sequence matches no code", ErrCorrupt)
		}
	}
	return cur.Symbol, nil
}

// Read decodes up to len(p) bytes into p.  It returns io.EOF once the EOF symbol has been decoded, and an
// error matching ErrCorrupt if the data ends or goes astray before that.
func (dec *Decoder) Read(p []byte) (n int, err error) {
	if dec.err != nil {
		return 0, dec.err
	}

	for n < len(p) {
		sym, err := dec.next()
		if err != nil {
			dec.err = err
			return n, err
		}
		if sym == EOF {
			dec.err = io.EOF
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}

		p[n] = byte(sym)
		n++
	}
	return n, nil
}

// ExpandBytes decodes a complete compressed stream held in memory.
func ExpandBytes(src []byte) ([]byte, error) {
	dec, err := NewDecoder(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(dec); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
