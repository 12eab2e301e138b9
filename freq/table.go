// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package freq

import (
	"bufio"
	"fmt"
	"io"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"github.com/parhuff/parhuff/huffman"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Table counts occurrences of every symbol.  Slots are updated atomically, so any number of goroutines may
// Add to it at once.
type Table struct {
	slots [huffman.SymbolRange]atomic.Uint64
}

// Add adds n to the count of sym.
func (table *Table) Add(sym huffman.Symbol, n uint64) {
	table.slots[sym].Add(n)
}

// Get returns the count of sym.
func (table *Table) Get(sym huffman.Symbol) uint64 {
	return table.slots[sym].Load()
}

// Counts copies the table out for tree building.
func (table *Table) Counts() *huffman.Counts {
	var counts huffman.Counts
	for sym := range counts {
		counts[sym] = table.slots[sym].Load()
	}
	return &counts
}

// merge adds the non-zero entries of local into the table, visiting symbols in ascending order starting at
// start and wrapping around.  Workers starting at different points tend to touch different slots at any
// given moment.
func (table *Table) merge(local *huffman.Counts, start int) {
	for i := 0; i < huffman.SymbolRange; i++ {
		sym := (start + i) % huffman.SymbolRange
		if local[sym] > 0 {
			table.slots[sym].Add(local[sym])
		}
	}
}

// WriteTo writes one "symbol: count" line per symbol, byte values as three decimal digits and the last line
// labeled EoF.
func (table *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for sym := 0; sym < huffman.SymbolRange; sym++ {
		n, err := fmt.Fprintf(bw, "%v: %d\n", huffman.Symbol(sym), table.Get(huffman.Symbol(sym)))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

type tableJSON struct {
	Counts []uint64 `json:"counts"`
}

// MarshalJSON encodes the table as {"counts": [...]} with one entry per symbol, EOF last.
func (table *Table) MarshalJSON() ([]byte, error) {
	counts := table.Counts()
	return json.Marshal(tableJSON{Counts: counts[:]})
}

// UnmarshalJSON replaces the table contents with a dump produced by MarshalJSON.
func (table *Table) UnmarshalJSON(data []byte) error {
	var tj tableJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	if len(tj.Counts) != huffman.SymbolRange {
		return fmt.Errorf("freq: table has %d entries, want %d", len(tj.Counts), huffman.SymbolRange)
	}

	for sym, cnt := range tj.Counts {
		table.slots[sym].Store(cnt)
	}
	return nil
}

// WriteJSON writes the MarshalJSON form of the table to w, followed by a newline.
func (table *Table) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(table)
}
