// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package huffman_test

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parhuff/parhuff/bitstream"
	"github.com/parhuff/parhuff/huffman"
)

const (
	randSeed   = 0x5a025ca11825a5e7
	iterations = 20
)

func countsOf(src []byte) *huffman.Counts {
	var counts huffman.Counts
	counts.AddBytes(src)
	counts[huffman.EOF]++
	return &counts
}

func lengthsBySymbol(t *testing.T, counts *huffman.Counts) map[huffman.Symbol]uint8 {
	root, err := huffman.BuildTree(counts)
	require.NoError(t, err)
	symbols, err := huffman.Lengths(root)
	require.NoError(t, err)

	lengths := make(map[huffman.Symbol]uint8)
	for _, bsc := range symbols {
		lengths[bsc.Symbol] = bsc.BitLength
	}
	return lengths
}

func showBinaryOctets(b []byte) string {
	parts := make([]string, len(b))
	for i, x := range b {
		parts[i] = fmt.Sprintf("%08b", x)
	}
	return strings.Join(parts, " ")
}

func TestSmallScenario(t *testing.T) {
	src := []byte{0x00, 0x00, 0x01}
	counts := countsOf(src)

	root, err := huffman.BuildTree(counts)
	require.NoError(t, err)
	require.False(t, root.IsLeaf())
	assert.True(t, root.Lo.IsLeaf())
	assert.Equal(t, huffman.Symbol(0x00), root.Lo.Symbol)
	assert.Equal(t, huffman.Symbol(0x01), root.Hi.Lo.Symbol)
	assert.Equal(t, huffman.EOF, root.Hi.Hi.Symbol)

	lengths := lengthsBySymbol(t, counts)
	assert.Equal(t, map[huffman.Symbol]uint8{0x00: 1, 0x01: 2, huffman.EOF: 2}, lengths)

	out, err := huffman.CompressBytes(src)
	require.NoError(t, err)
	require.Len(t, out, huffman.HeaderSize+1)
	assert.Equal(t, byte(1), out[0x00])
	assert.Equal(t, byte(2), out[0x01])
	assert.Equal(t, byte(2), out[huffman.EOF])
	// 0 0 10 11, padded
	assert.Equal(t, byte(0x2c), out[huffman.HeaderSize], showBinaryOctets(out[huffman.HeaderSize:]))

	back, err := huffman.ExpandBytes(out)
	require.NoError(t, err)
	assert.Equal(t, src, back)
}

func TestTieBreakLeavesFirst(t *testing.T) {
	var counts huffman.Counts
	counts[0] = 1
	counts[1] = 1
	counts[2] = 2
	counts[huffman.EOF] = 2

	// The merged {0,1} node weighs 2 like the leaves 2 and EOF, which must be merged first.
	lengths := lengthsBySymbol(t, &counts)
	for sym, bits := range lengths {
		assert.Equal(t, uint8(2), bits, "symbol %v", sym)
	}
}

func TestTieBreakCreationOrder(t *testing.T) {
	var counts huffman.Counts
	counts[5] = 1
	counts[9] = 1
	counts[200] = 1

	root, err := huffman.BuildTree(&counts)
	require.NoError(t, err)
	assert.Equal(t, huffman.Symbol(200), root.Lo.Symbol)
	assert.Equal(t, huffman.Symbol(5), root.Hi.Lo.Symbol)
	assert.Equal(t, huffman.Symbol(9), root.Hi.Hi.Symbol)
	assert.Equal(t, uint64(3), root.Weight)
}

func TestBuildTreeEmpty(t *testing.T) {
	var counts huffman.Counts
	_, err := huffman.BuildTree(&counts)
	assert.ErrorIs(t, err, huffman.ErrEmptyTable)
}

func TestSingleLeafRoot(t *testing.T) {
	counts := countsOf(nil)

	root, err := huffman.BuildTree(counts)
	require.NoError(t, err)
	require.True(t, root.IsLeaf())
	assert.Equal(t, huffman.EOF, root.Symbol)
	assert.Equal(t, uint8(1), root.BitLength)

	out, err := huffman.CompressBytes(nil)
	require.NoError(t, err)
	require.Len(t, out, huffman.HeaderSize+1)
	assert.Equal(t, byte(0), out[huffman.HeaderSize])

	back, err := huffman.ExpandBytes(out)
	require.NoError(t, err)
	assert.Empty(t, back)
}

func TestRepeatedByte(t *testing.T) {
	for _, n := range []int{1, 7, 8, 100, 1000} {
		src := bytes.Repeat([]byte{0x41}, n)

		lengths := lengthsBySymbol(t, countsOf(src))
		assert.Equal(t, map[huffman.Symbol]uint8{0x41: 1, huffman.EOF: 1}, lengths)

		out, err := huffman.CompressBytes(src)
		require.NoError(t, err)
		assert.Equal(t, huffman.HeaderSize+(n+1+7)/8, len(out), "n=%d", n)

		back, err := huffman.ExpandBytes(out)
		require.NoError(t, err)
		assert.Equal(t, src, back)
	}
}

func randomData(rng *rand.Rand) []byte {
	data := make([]byte, rng.Intn(5000))
	alphabet := 1 + rng.Intn(256)
	for i := range data {
		// Skew towards small values so code lengths vary.
		data[i] = byte(rng.Intn(1 + rng.Intn(alphabet)))
	}
	return data
}

func TestLoopback(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))

	for iteration := 0; iteration < iterations; iteration++ {
		dataIn := randomData(rng)

		huffed, err := huffman.CompressBytes(dataIn)
		require.NoError(t, err, "iteration #%d", iteration)

		dataOut, err := huffman.ExpandBytes(huffed)
		require.NoError(t, err, "iteration #%d", iteration)
		require.Equal(t, dataIn, dataOut, "iteration #%d: %d -> %d bytes", iteration, len(dataIn), len(huffed))
	}
}

func TestCanonicalOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))

	for iteration := 0; iteration < iterations; iteration++ {
		var counts huffman.Counts
		for sym := range counts {
			if rng.Intn(3) > 0 {
				counts[sym] = uint64(rng.Intn(10000))
			}
		}
		counts[huffman.EOF] = 1

		table, err := huffman.NewCodeTable(&counts)
		require.NoError(t, err)
		symbols := table.Symbols()

		for i := 1; i < len(symbols); i++ {
			prev, cur := symbols[i-1], symbols[i]
			require.True(t, prev.BitLength < cur.BitLength ||
				(prev.BitLength == cur.BitLength && prev.Symbol < cur.Symbol))
			// Left-align both codes to compare them numerically.
			prevAligned := uint64(prev.Code) << (huffman.MaxBitLength - prev.BitLength)
			curAligned := uint64(cur.Code) << (huffman.MaxBitLength - cur.BitLength)
			require.Less(t, prevAligned, curAligned)
		}

		for i, a := range symbols {
			for j, b := range symbols {
				if i == j || a.BitLength > b.BitLength {
					continue
				}
				prefix := b.Code >> (b.BitLength - a.BitLength)
				require.NotEqual(t, a.Code, prefix, "%v is a prefix of %v", a, b)
			}
		}

		for _, bsc := range symbols {
			code := table.Lookup(bsc.Symbol)
			assert.Equal(t, bsc.BitLength, code.BitLength)
			assert.Equal(t, bsc.Code, code.Bits)
		}
	}
}

func TestAssignCodesKnownLengths(t *testing.T) {
	symbols := []huffman.ByteSymbolCode{
		{Symbol: 'd', BitLength: 3},
		{Symbol: 'a', BitLength: 2},
		{Symbol: 'c', BitLength: 3},
		{Symbol: 'b', BitLength: 2},
		{Symbol: huffman.EOF, BitLength: 2},
	}

	table, err := huffman.AssignCodes(symbols)
	require.NoError(t, err)
	assert.Equal(t, huffman.Code{BitLength: 2, Bits: 0x0}, table.Lookup('a'))
	assert.Equal(t, huffman.Code{BitLength: 2, Bits: 0x1}, table.Lookup('b'))
	assert.Equal(t, huffman.Code{BitLength: 2, Bits: 0x2}, table.Lookup(huffman.EOF))
	assert.Equal(t, huffman.Code{BitLength: 3, Bits: 0x6}, table.Lookup('c'))
	assert.Equal(t, huffman.Code{BitLength: 3, Bits: 0x7}, table.Lookup('d'))
	assert.Equal(t, huffman.Code{}, table.Lookup('e'))
}

// TestHeaderSelfDescription decodes the payload using nothing but the tree a Decoder rebuilds from the
// header octets.
func TestHeaderSelfDescription(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))
	dataIn := randomData(rng)

	huffed, err := huffman.CompressBytes(dataIn)
	require.NoError(t, err)

	symbols, err := huffman.ParseHeader(huffed[:huffman.HeaderSize])
	require.NoError(t, err)
	want, err := huffman.AssignCodes(symbols)
	require.NoError(t, err)

	dec, err := huffman.NewDecoder(bytes.NewReader(huffed))
	require.NoError(t, err)
	assert.Equal(t, want.Symbols(), dec.Table().Symbols())
	assert.Equal(t, want.Header(), huffed[:huffman.HeaderSize])

	root := dec.Root()
	require.False(t, root.IsLeaf())

	br := bitstream.NewReader(bytes.NewReader(huffed[huffman.HeaderSize:]))
	var dataOut []byte
	cur := root
	for {
		bit, err := br.ReadBits(1)
		require.NoError(t, err)
		if bit == 0 {
			cur = cur.Lo
		} else {
			cur = cur.Hi
		}
		require.NotNil(t, cur)
		if !cur.IsLeaf() {
			continue
		}
		assert.Equal(t, want.Lookup(cur.Symbol).BitLength, cur.BitLength)
		if cur.Symbol == huffman.EOF {
			break
		}
		dataOut = append(dataOut, byte(cur.Symbol))
		cur = root
	}
	assert.Equal(t, dataIn, dataOut)
}

func TestTruncationDetected(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))

	for iteration := 0; iteration < iterations; iteration++ {
		huffed, err := huffman.CompressBytes(randomData(rng))
		require.NoError(t, err)

		_, err = huffman.ExpandBytes(huffed[:len(huffed)-1])
		require.ErrorIs(t, err, huffman.ErrTruncated, "iteration #%d", iteration)
		require.ErrorIs(t, err, huffman.ErrCorrupt)
	}

	_, err := huffman.ExpandBytes(make([]byte, huffman.HeaderSize-1))
	assert.ErrorIs(t, err, huffman.ErrTruncated)
}

func TestCorruptHeaders(t *testing.T) {
	cases := []struct {
		name  string
		build func(header []byte)
	}{
		{"no symbols", func(header []byte) {}},
		{"no end of stream", func(header []byte) {
			header['a'] = 1
			header['b'] = 1
		}},
		{"over-subscribed", func(header []byte) {
			header['a'] = 1
			header['b'] = 1
			header[huffman.EOF] = 1
		}},
		{"incomplete", func(header []byte) {
			header['a'] = 2
			header[huffman.EOF] = 2
		}},
		{"lone long code", func(header []byte) {
			header[huffman.EOF] = 2
		}},
		{"too long", func(header []byte) {
			header['a'] = 1
			header[huffman.EOF] = huffman.MaxBitLength + 1
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			header := make([]byte, huffman.HeaderSize)
			c.build(header)
			_, err := huffman.NewDecoder(bytes.NewReader(append(header, 0xff)))
			assert.ErrorIs(t, err, huffman.ErrCorrupt)
		})
	}
}

func TestUnusedBranchIsCorrupt(t *testing.T) {
	header := make([]byte, huffman.HeaderSize)
	header[huffman.EOF] = 1

	// A lone symbol owns code 0; a leading 1 bit leads nowhere.
	_, err := huffman.ExpandBytes(append(header, 0x80))
	assert.ErrorIs(t, err, huffman.ErrCorrupt)
	assert.NotErrorIs(t, err, huffman.ErrTruncated)
}

func TestCodeTooLong(t *testing.T) {
	var counts huffman.Counts
	a, b := uint64(1), uint64(1)
	for sym := 0; sym < huffman.MaxBitLength+2; sym++ {
		counts[sym] = a
		a, b = b, a+b
	}

	// Fibonacci weights build a maximally deep tree: n leaves, depth n-1.
	root, err := huffman.BuildTree(&counts)
	require.NoError(t, err)
	_, err = huffman.Lengths(root)
	assert.ErrorIs(t, err, huffman.ErrCodeTooLong)

	counts[huffman.MaxBitLength+1] = 0
	table, err := huffman.NewCodeTable(&counts)
	require.NoError(t, err)
	assert.Equal(t, uint8(huffman.MaxBitLength), table.Lookup(0).BitLength)
}

func TestEncoderRejectsUncodedByte(t *testing.T) {
	table, err := huffman.NewCodeTable(countsOf([]byte("abc")))
	require.NoError(t, err)

	enc := huffman.NewEncoder(io.Discard, table)
	_, err = enc.Write([]byte("abd"))
	assert.ErrorIs(t, err, huffman.ErrNoCode)
	assert.ErrorIs(t, enc.Close(), huffman.ErrNoCode)
}

func TestDecoderStreaming(t *testing.T) {
	dataIn := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 50))
	huffed, err := huffman.CompressBytes(dataIn)
	require.NoError(t, err)

	dec, err := huffman.NewDecoder(bytes.NewReader(huffed))
	require.NoError(t, err)

	var dataOut []byte
	p := make([]byte, 7)
	for {
		n, err := dec.Read(p)
		dataOut = append(dataOut, p[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, dataIn, dataOut)

	n, err := dec.Read(p)
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}
