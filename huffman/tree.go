// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package huffman

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"
)

// Node is either a leaf carrying a Symbol, or an internal node owning exactly two children.  Lo is taken on a
// zero bit, Hi on a one bit.  Trees rebuilt from a header may have a root whose Hi is nil when only one symbol
// is in use.
type Node struct {
	Symbol    Symbol
	Weight    uint64
	BitLength uint8
	Lo, Hi    *Node

	leaf bool
	seq  int
}

func (node *Node) IsLeaf() bool {
	return node.leaf
}

func (node *Node) String() string {
	if node.leaf {
		return fmt.Sprintf("%v(%d)", node.Symbol, node.Weight)
	}

	var parts []string
	for _, child := range []*Node{node.Lo, node.Hi} {
		if child == nil {
			parts = append(parts, "-")
		} else {
			parts = append(parts, child.String())
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// nodeQueue is a min-heap ordered by (weight, leaves before internal nodes, creation order).  The creation
// order makes the key total, so the tree shape depends on nothing but the weights.
type nodeQueue []*Node

func (q nodeQueue) Len() int {
	return len(q)
}

func (q nodeQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	switch {
	case a.Weight != b.Weight:
		return a.Weight < b.Weight
	case a.leaf != b.leaf:
		return a.leaf
	default:
		return a.seq < b.seq
	}
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *nodeQueue) Push(x interface{}) {
	*q = append(*q, x.(*Node))
}

func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return node
}

// BuildTree builds a Huffman tree with one leaf per symbol of non-zero weight by repeatedly merging the two
// lightest nodes.  If only one symbol is in use the root is that leaf, stamped with a bit length of 1.
func BuildTree(counts *Counts) (*Node, error) {
	var q nodeQueue
	seq := 0
	for sym, cnt := range counts {
		if cnt == 0 {
			continue
		}
		q = append(q, &Node{Symbol: Symbol(sym), Weight: cnt, leaf: true, seq: seq})
		seq++
	}

	if len(q) == 0 {
		return nil, ErrEmptyTable
	}

	heap.Init(&q)
	for q.Len() > 1 {
		lo := heap.Pop(&q).(*Node)
		hi := heap.Pop(&q).(*Node)
		heap.Push(&q, &Node{Weight: lo.Weight + hi.Weight, Lo: lo, Hi: hi, seq: seq})
		seq++
	}

	root := q[0]
	if root.leaf {
		root.BitLength = 1
	}
	return root, nil
}

// Lengths stamps every leaf of root with its depth and returns the used symbols sorted canonically, by bit
// length then symbol value.  The Code fields are left zero; see AssignCodes.
func Lengths(root *Node) ([]ByteSymbolCode, error) {
	var symbols []ByteSymbolCode

	if root.leaf {
		root.BitLength = 1
	} else {
		root.BitLength = 0
	}

	stack := []*Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.leaf {
			symbols = append(symbols, ByteSymbolCode{Symbol: node.Symbol, BitLength: node.BitLength})
			continue
		}

		if node.BitLength >= MaxBitLength {
			return nil, ErrCodeTooLong
		}
		for _, child := range []*Node{node.Lo, node.Hi} {
			child.BitLength = node.BitLength + 1
			stack = append(stack, child)
		}
	}

	sort.Slice(symbols, func(i, j int) bool {
		return canonicalLess(symbols[i], symbols[j])
	})
	return symbols, nil
}

// TreeFromCodes grows a decoding tree by walking each symbol's code from the root, creating internal nodes
// on demand and placing the symbol as a leaf at the end of the path.  The root is always an internal node.
// Codes that collide or are prefixes of each other yield ErrCorrupt.
func TreeFromCodes(symbols []ByteSymbolCode) (*Node, error) {
	root := &Node{}
	for _, bsc := range symbols {
		if bsc.BitLength < 1 || bsc.BitLength > MaxBitLength {
			return nil, fmt.Errorf("%w: bad bit length %d for symbol %v", ErrCorrupt, bsc.BitLength, bsc.Symbol)
		}

		cur := root
		for b := int(bsc.BitLength) - 1; b >= 0; b-- {
			if cur.leaf {
				return nil, fmt.Errorf("%w: code of %v extends code of %v", ErrCorrupt, bsc.Symbol, cur.Symbol)
			}

			next := &cur.Lo
			if (bsc.Code>>uint(b))&1 != 0 {
				next = &cur.Hi
			}

			if b == 0 {
				if *next != nil {
					return nil, fmt.Errorf("%w: code of %v is not a leaf position", ErrCorrupt, bsc.Symbol)
				}
				*next = &Node{Symbol: bsc.Symbol, BitLength: bsc.BitLength, leaf: true}
				break
			}

			if *next == nil {
				*next = &Node{}
			}
			cur = *next
		}
	}

	return root, nil
}
