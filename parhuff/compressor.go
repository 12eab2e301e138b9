// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package parhuff compresses and expands files with canonical Huffman coding, counting byte frequencies with
several concurrent workers.

A Compressor is handed its configuration and a logger on construction; progress messages go to that logger,
stamped with the time elapsed since the current operation started.  Output files are written under a
temporary name and renamed into place only when the operation succeeds.
*/
package parhuff

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/op/go-logging"

	"github.com/parhuff/parhuff/freq"
	"github.com/parhuff/parhuff/huffman"
)

// Default output name suffixes for each operation.
const (
	CompressedSuffix = ".hfm"
	ExpandedSuffix   = ".out"
	FreqTableSuffix  = ".txt"
)

// Stats summarizes a compression.
type Stats struct {
	InputSize  int64
	OutputSize int64
	// Ratio is OutputSize as a rounded percentage of InputSize, or 0 for an empty input.
	Ratio int64
}

// FreqFormat selects the layout of a frequency table dump.
type FreqFormat int

const (
	FreqText FreqFormat = iota
	FreqJSON
)

type Compressor struct {
	cfg Config
	log *logging.Logger
}

// New validates cfg and returns a Compressor reporting progress to log.
func New(cfg *Config, log *logging.Logger) (*Compressor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Compressor{cfg: *cfg, log: log}, nil
}

func (c *Compressor) counter() *freq.Counter {
	return &freq.Counter{Workers: c.cfg.Workers, BufferSize: c.cfg.BufferSize}
}

// Compress writes the Huffman-coded form of the file at in to out.
func (c *Compressor) Compress(ctx context.Context, in, out string) (*Stats, error) {
	if err := checkPaths(in, out); err != nil {
		return nil, err
	}

	p := newProgress(c.log, c.cfg.Quiet)
	p.logf("Starting compression of file %s with %d task%s",
		filepath.Base(in), c.cfg.Workers, plural(c.cfg.Workers))

	table, err := c.counter().CountFile(ctx, in)
	if err != nil {
		return nil, err
	}
	p.logf("Frequency table completed")

	root, err := huffman.BuildTree(table.Counts())
	if err != nil {
		return nil, err
	}
	p.logf("Huffman tree completed")

	symbols, err := huffman.Lengths(root)
	if err != nil {
		return nil, err
	}
	p.logf("Bit table completed")

	codes, err := huffman.AssignCodes(symbols)
	if err != nil {
		return nil, err
	}
	p.logf("Code table completed")

	stats, err := c.encode(ctx, in, out, codes)
	if err != nil {
		return nil, err
	}
	p.logf("Compression completed to file %s with ratio %d%%", filepath.Base(out), stats.Ratio)
	return stats, nil
}

func (c *Compressor) encode(ctx context.Context, in, out string, codes *huffman.CodeTable) (*Stats, error) {
	src, err := os.Open(in)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := createOutput(out, c.cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	defer dst.abort()

	enc := huffman.NewEncoder(dst, codes)
	inSize, err := io.CopyBuffer(enc, &contextReader{ctx, src}, make([]byte, c.cfg.BufferSize))
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", in, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", in, err)
	}
	if err := dst.commit(); err != nil {
		return nil, err
	}

	outSize := int64(huffman.HeaderSize) + (enc.BitsWritten()+7)/8
	stats := &Stats{InputSize: inSize, OutputSize: outSize}
	if inSize > 0 {
		stats.Ratio = int64(math.Round(float64(outSize) / float64(inSize) * 100))
	}
	return stats, nil
}

// Expand decodes the compressed file at in and writes the original bytes to out.
func (c *Compressor) Expand(ctx context.Context, in, out string) error {
	if err := checkPaths(in, out); err != nil {
		return err
	}

	p := newProgress(c.log, c.cfg.Quiet)
	p.logf("Starting extraction of file %s", filepath.Base(in))

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := huffman.NewDecoder(bufio.NewReaderSize(f, c.cfg.BufferSize))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", in, err)
	}
	p.logf("Huffman tree completed")

	dst, err := createOutput(out, c.cfg.BufferSize)
	if err != nil {
		return err
	}
	defer dst.abort()

	if _, err := io.CopyBuffer(dst, &contextReader{ctx, dec}, make([]byte, c.cfg.BufferSize)); err != nil {
		return fmt.Errorf("decoding %s: %w", in, err)
	}
	if err := dst.commit(); err != nil {
		return err
	}

	p.logf("Extraction completed to file %s", filepath.Base(out))
	return nil
}

// PrintFreqTable writes the frequency table of the file at in to out.
func (c *Compressor) PrintFreqTable(ctx context.Context, in, out string, format FreqFormat) error {
	if err := checkPaths(in, out); err != nil {
		return err
	}

	p := newProgress(c.log, c.cfg.Quiet)
	p.logf("Building frequency table of file %s with %d task%s",
		filepath.Base(in), c.cfg.Workers, plural(c.cfg.Workers))

	table, err := c.counter().CountFile(ctx, in)
	if err != nil {
		return err
	}

	dst, err := createOutput(out, c.cfg.BufferSize)
	if err != nil {
		return err
	}
	defer dst.abort()

	switch format {
	case FreqJSON:
		err = table.WriteJSON(dst)
	default:
		_, err = table.WriteTo(dst)
	}
	if err != nil {
		return err
	}
	if err := dst.commit(); err != nil {
		return err
	}

	p.logf("Frequency table saved to file %s", filepath.Base(out))
	return nil
}

// contextReader stops a long copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
