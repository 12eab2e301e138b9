// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package huffman implements canonical Huffman coding over the 256 byte values plus a synthetic end-of-stream
symbol.

A compressed stream starts with a header of HeaderSize octets, one per symbol in ascending order, holding that
symbol's code length in bits or zero if the symbol is unused.  The codes themselves are never stored: both
sides derive them from the lengths alone by canonical assignment.  The header is followed by the codes of the
source bytes, most significant bit first, then the code of EOF, with the final octet zero-padded.
*/
package huffman

import (
	"errors"
	"fmt"
)

// Symbol is one unit of the coding alphabet: a byte value, or EOF.
type Symbol uint16

const (
	// SymbolRange is the size of the alphabet.
	SymbolRange = 257

	// EOF terminates every encoded stream.  It never occurs in source bytes.
	EOF Symbol = SymbolRange - 1

	// HeaderSize is the length in octets of the code-length table that prefixes a compressed stream.
	HeaderSize = SymbolRange

	// MaxBitLength is the longest code the format can carry.
	MaxBitLength = 32
)

func (sym Symbol) String() string {
	if sym == EOF {
		return "EoF"
	}
	return fmt.Sprintf("%03d", uint16(sym))
}

var (
	ErrCorrupt     = errors.New("huffman: corrupt compressed data")
	ErrTruncated   = fmt.Errorf("%w: bit stream ended before end-of-stream symbol", ErrCorrupt)
	ErrCodeTooLong = errors.New("huffman: code length exceeds 32 bits")
	ErrEmptyTable  = errors.New("huffman: no symbol has a non-zero weight")
	ErrNoCode      = errors.New("huffman: symbol has no code in table")
)

// Counts holds one weight per symbol.
type Counts [SymbolRange]uint64

// AddBytes counts every octet of p.
func (counts *Counts) AddBytes(p []byte) {
	for _, b := range p {
		counts[b]++
	}
}

// ByteSymbolCode associates a used symbol with its code.  Code holds the BitLength low-order bits of the
// codeword.
type ByteSymbolCode struct {
	Symbol    Symbol
	BitLength uint8
	Code      uint32
}

func (bsc ByteSymbolCode) String() string {
	return fmt.Sprintf("%v:%0*b", bsc.Symbol, int(bsc.BitLength), bsc.Code)
}

// canonicalLess orders symbols by code length, then by symbol value.
func canonicalLess(a, b ByteSymbolCode) bool {
	if a.BitLength != b.BitLength {
		return a.BitLength < b.BitLength
	}
	return a.Symbol < b.Symbol
}
