// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package parhuff

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/dchest/uniuri"
)

// outputFile is written under a temporary name next to its destination and only renamed into place by
// commit, so a failed operation never leaves a file that looks complete.
type outputFile struct {
	*bufio.Writer
	f        *os.File
	path     string
	tempPath string
	done     bool
}

func createOutput(path string, bufSize int) (*outputFile, error) {
	dir, base := filepath.Split(path)
	tempPath := filepath.Join(dir, "."+base+"."+uniuri.NewLen(12)+".tmp")

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return nil, err
	}

	return &outputFile{
		Writer:   bufio.NewWriterSize(f, bufSize),
		f:        f,
		path:     path,
		tempPath: tempPath,
	}, nil
}

func (out *outputFile) commit() error {
	if err := out.Flush(); err != nil {
		return err
	}
	if err := out.f.Sync(); err != nil {
		return err
	}
	if err := out.f.Close(); err != nil {
		return err
	}
	out.done = true

	if err := os.Rename(out.tempPath, out.path); err != nil {
		os.Remove(out.tempPath)
		return err
	}
	return nil
}

// abort discards the output unless it has been committed.  It is safe to defer unconditionally.
func (out *outputFile) abort() {
	if out.done {
		return
	}
	out.done = true
	out.f.Close()
	os.Remove(out.tempPath)
}
