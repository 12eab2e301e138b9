// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package huffman

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Code is a codeword: the BitLength low-order bits of Bits, sent most significant first.  A zero BitLength
// marks an unused symbol.
type Code struct {
	BitLength uint8
	Bits      uint32
}

// CodeTable maps every symbol to its code.  It is immutable once built.
type CodeTable struct {
	codes   [SymbolRange]Code
	symbols []ByteSymbolCode
}

// AssignCodes gives each symbol its canonical code.  Symbols are sorted by (bit length, symbol value); the
// first gets the all-zero code of its length, and each following code is the previous one plus one, shifted
// left by the growth in length.  symbols is sorted in place and its Code fields filled in.  An assignment that
// runs out of codewords yields ErrCorrupt.
func AssignCodes(symbols []ByteSymbolCode) (*CodeTable, error) {
	sort.Slice(symbols, func(i, j int) bool {
		return canonicalLess(symbols[i], symbols[j])
	})

	table := &CodeTable{symbols: symbols}
	code := int64(-1)
	prevBits := uint8(1)
	for i := range symbols {
		bsc := &symbols[i]
		if bsc.BitLength < 1 || bsc.BitLength > MaxBitLength {
			return nil, fmt.Errorf("%w: bad bit length %d for symbol %v", ErrCorrupt, bsc.BitLength, bsc.Symbol)
		}
		if table.codes[bsc.Symbol].BitLength != 0 {
			return nil, fmt.Errorf("%w: symbol %v listed twice", ErrCorrupt, bsc.Symbol)
		}

		code = (code + 1) << (bsc.BitLength - prevBits)
		prevBits = bsc.BitLength
		if code >= int64(1)<<bsc.BitLength {
			return nil, fmt.Errorf("%w: code lengths over-subscribed at symbol %v", ErrCorrupt, bsc.Symbol)
		}

		bsc.Code = uint32(code)
		table.codes[bsc.Symbol] = Code{bsc.BitLength, bsc.Code}
	}

	return table, nil
}

// Lookup returns the code of sym.
func (table *CodeTable) Lookup(sym Symbol) Code {
	return table.codes[sym]
}

// Symbols returns the used symbols in canonical order.
func (table *CodeTable) Symbols() []ByteSymbolCode {
	return table.symbols
}

// complete reports whether the codes cover the whole code space, that is, whether the last canonical code is
// all ones.  A lone symbol of length 1 is allowed to leave half the space unused.
func (table *CodeTable) complete() bool {
	n := len(table.symbols)
	if n == 0 {
		return false
	}
	if n == 1 {
		return table.symbols[0].BitLength == 1
	}

	last := table.symbols[n-1]
	return uint64(last.Code) == uint64(1)<<last.BitLength-1
}

// Header returns the code length of every symbol in ascending symbol order.
func (table *CodeTable) Header() []byte {
	header := make([]byte, HeaderSize)
	for sym, code := range table.codes {
		header[sym] = code.BitLength
	}
	return header
}

// WriteHeader writes the HeaderSize-octet code length table to w.
func (table *CodeTable) WriteHeader(w io.Writer) error {
	_, err := w.Write(table.Header())
	return err
}

func (table *CodeTable) String() string {
	parts := make([]string, len(table.symbols))
	for i, bsc := range table.symbols {
		parts[i] = "\t" + bsc.String() + "\n"
	}
	return "CODES{\n" + strings.Join(parts, "") + "}"
}

// ParseHeader reads the used symbols and their bit lengths out of a header, in canonical order.
func ParseHeader(header []byte) ([]ByteSymbolCode, error) {
	if len(header) != HeaderSize {
		return nil, fmt.Errorf("%w: header of %d octets", ErrCorrupt, len(header))
	}

	var symbols []ByteSymbolCode
	for sym, bits := range header {
		if bits == 0 {
			continue
		}
		if bits > MaxBitLength {
			return nil, fmt.Errorf("%w: bad bit length %d for symbol %v", ErrCorrupt, bits, Symbol(sym))
		}
		symbols = append(symbols, ByteSymbolCode{Symbol: Symbol(sym), BitLength: bits})
	}

	if header[EOF] == 0 {
		return nil, fmt.Errorf("%w: no code for end-of-stream symbol", ErrCorrupt)
	}

	sort.Slice(symbols, func(i, j int) bool {
		return canonicalLess(symbols[i], symbols[j])
	})
	return symbols, nil
}

// ReadHeader reads a header from r and derives the code table it describes.
func ReadHeader(r io.Reader) (*CodeTable, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: short header", ErrTruncated)
		}
		return nil, err
	}

	symbols, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}

	table, err := AssignCodes(symbols)
	if err != nil {
		return nil, err
	}
	if !table.complete() {
		return nil, fmt.Errorf("%w: code lengths leave part of the code space unused", ErrCorrupt)
	}
	return table, nil
}

// NewCodeTable runs the whole compression-side derivation: tree, bit lengths, canonical codes.
func NewCodeTable(counts *Counts) (*CodeTable, error) {
	root, err := BuildTree(counts)
	if err != nil {
		return nil, err
	}

	symbols, err := Lengths(root)
	if err != nil {
		return nil, err
	}

	return AssignCodes(symbols)
}
