// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package parhuff

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/parhuff/parhuff/freq"
)

// Config controls a Compressor.  Start from Default and modify it.
type Config struct {
	// Workers is the number of concurrent frequency counting tasks.
	Workers int
	// Quiet reduces progress messages to their timestamps.
	Quiet bool
	// BufferSize is the size of every read and write buffer.
	BufferSize int
}

func Default() *Config {
	return &Config{
		Workers:    1,
		Quiet:      false,
		BufferSize: freq.DefaultBufferSize,
	}
}

func (cfg *Config) Validate() error {
	if cfg.Workers < 1 {
		return &ParameterError{ParameterInvalid, "worker count", strconv.Itoa(cfg.Workers)}
	}
	if cfg.BufferSize < 1 {
		return &ParameterError{ParameterInvalid, "buffer size", strconv.Itoa(cfg.BufferSize)}
	}
	return nil
}

// ParameterErrorHow describes whether the data element referenced in a ParameterError is missing, unexpected
// (present but without a known interpretation), or invalid (present when expected but with an uninterpretable
// value).
type ParameterErrorHow int

const (
	ParameterErrorUnknown ParameterErrorHow = iota
	ParameterMissing
	ParameterUnexpected
	ParameterInvalid
)

// ParameterError describes a problem relating to a specific configuration element or path.
type ParameterError struct {
	How      ParameterErrorHow
	Kind     string
	Specific string
}

func (pe *ParameterError) Error() string {
	var str string
	switch pe.How {
	case ParameterErrorUnknown:
		str = "??? "
	case ParameterMissing:
		str = "missing "
	case ParameterUnexpected:
		str = "unexpected "
	case ParameterInvalid:
		str = "invalid "
	}

	str += pe.Kind
	if pe.Specific != "" {
		str += " '" + pe.Specific + "'"
	}
	return str
}

func checkPaths(in, out string) error {
	switch {
	case in == "":
		return &ParameterError{ParameterMissing, "input path", ""}
	case out == "":
		return &ParameterError{ParameterMissing, "output path", ""}
	case samePath(in, out):
		return &ParameterError{ParameterInvalid, "output path", out}
	}
	return nil
}

// samePath reports whether in and out name the same file, either lexically or, when both exist, on disk.
func samePath(in, out string) bool {
	absIn, errIn := filepath.Abs(in)
	absOut, errOut := filepath.Abs(out)
	if errIn == nil && errOut == nil && absIn == absOut {
		return true
	}

	inInfo, err := os.Stat(in)
	if err != nil {
		return false
	}
	outInfo, err := os.Stat(out)
	if err != nil {
		return false
	}
	return os.SameFile(inInfo, outInfo)
}
