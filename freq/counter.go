// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package freq builds symbol frequency tables for Huffman coding by scanning a file with several workers at once.

The file is split into contiguous ranges, one per worker.  Each worker reads its range through its own file
handle into private counts, then merges them into the shared Table.  EOF is counted exactly once, before any
worker starts.
*/
package freq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/op/go-logging"

	"github.com/parhuff/parhuff/huffman"
	"github.com/parhuff/parhuff/proc"
)

var log = logging.MustGetLogger("parhuff/freq")

// statFile sizes the file before it is partitioned.
var statFile = os.Stat

// DefaultBufferSize is the read buffer used by each worker when none is given.
const DefaultBufferSize = 64 * 1024

var (
	ErrWorkers = errors.New("freq: worker count must be positive")
	ErrShrunk  = errors.New("freq: file shrank while being counted")
)

// Range is a contiguous run of bytes within a file.
type Range struct {
	Offset, Length int64
}

// Partition splits size bytes into workers ranges of size/workers bytes each, the remainder going to the
// last range.
func Partition(size int64, workers int) []Range {
	chunk := size / int64(workers)
	ranges := make([]Range, workers)
	for id := range ranges {
		ranges[id] = Range{int64(id) * chunk, chunk}
	}
	ranges[workers-1].Length += size % int64(workers)
	return ranges
}

// Counter scans files with a fixed number of workers.
type Counter struct {
	Workers    int
	BufferSize int
}

// CountFile returns the frequency table of the file at path.  Any worker failure fails the whole count and
// no partial table is returned.
func (c *Counter) CountFile(ctx context.Context, path string) (*Table, error) {
	if c.Workers < 1 {
		return nil, ErrWorkers
	}
	bufSize := c.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	info, err := statFile(path)
	if err != nil {
		return nil, err
	}

	table := new(Table)
	table.Add(huffman.EOF, 1)

	ranges := Partition(info.Size(), c.Workers)
	err = proc.ForkJoin(ctx, c.Workers, func(ctx context.Context, id int) error {
		var local huffman.Counts
		if err := countRange(ctx, path, ranges[id], bufSize, &local); err != nil {
			return fmt.Errorf("freq: worker #%d: %w", id, err)
		}

		table.merge(&local, id*huffman.SymbolRange/c.Workers)
		log.Debugf("worker #%d counted %d bytes at offset %d", id, ranges[id].Length, ranges[id].Offset)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return table, nil
}

func countRange(ctx context.Context, path string, r Range, bufSize int, local *huffman.Counts) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(r.Offset, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, bufSize)
	for remaining := r.Length; remaining > 0; {
		if err := ctx.Err(); err != nil {
			return err
		}

		want := int64(len(buf))
		if remaining < want {
			want = remaining
		}

		n, err := io.ReadFull(f, buf[:want])
		local.AddBytes(buf[:n])
		remaining -= int64(n)

		switch {
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			return ErrShrunk
		case err != nil:
			return err
		}
	}
	return nil
}

// CountFile counts the file at path with the given number of workers and the default buffer size.
func CountFile(ctx context.Context, path string, workers int) (*Table, error) {
	c := Counter{Workers: workers}
	return c.CountFile(ctx, path)
}
