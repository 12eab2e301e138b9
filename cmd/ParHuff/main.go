// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../../LICENSE.md.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/op/go-logging"

	"github.com/parhuff/parhuff/parhuff"
)

const progName = "ParHuff"
const usageMessageRaw = `
Usage: ParHuff [-d] SUBCOMMAND [OPTIONS...] INPUT

Subcommands:
  compress [-t TASKS] [-q] [-o FILE] INPUT
    Compress INPUT using Huffman coding, counting byte frequencies with
    TASKS concurrent tasks (default 1).  Output goes to FILE, or to
    INPUT.hfm if no FILE is given.

  expand [-q] [-o FILE] INPUT
    Extract the Huffman coded INPUT to FILE, or to INPUT.out if no FILE
    is given.

  freqtable [-t TASKS] [-q] [-json] [-o FILE] INPUT
    Build the byte frequency table of INPUT with TASKS concurrent tasks
    and save it in FILE, or in INPUT.txt if no FILE is given.

Options:
  -q, -quiet     log only the elapsed time of each step
  -d, -debug     enable debug logging
`

var log = logging.MustGetLogger("ParHuff")

type nullWriter struct{}

func (n *nullWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

var ourFlags *flag.FlagSet

func usageMessage() string {
	return strings.TrimLeft(usageMessageRaw, "\n")
}

func usageErrorf(detailFmt string, detailArgs ...interface{}) {
	detail := fmt.Sprintf(detailFmt, detailArgs...)
	fmt.Fprintf(os.Stderr, "%s: %s\n%s", progName, detail, usageMessage())
	os.Exit(64)
}

func exitError(err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", progName, err.Error())
	os.Exit(1)
}

var argI int = 0

func nextArg(expected string) string {
	if !(argI < ourFlags.NArg()) {
		usageErrorf("not enough arguments; expected %s", expected)
	}
	arg := ourFlags.Arg(argI)
	argI++
	return arg
}

func remainingArgs() []string {
	slice := ourFlags.Args()[argI:]
	argI = ourFlags.NArg()
	return slice
}

func endOfArgs() {
	if argI < ourFlags.NArg() {
		usageErrorf("too many arguments at %d (\"%s\")", argI, ourFlags.Arg(argI))
	}
}

// subcommand holds the flags shared by every subcommand; not all of them apply to each.
type subcommand struct {
	cfg        *parhuff.Config
	outputPath string
	inputPath  string
	json       bool
}

func parseSubcommand(withTasks, withJSON bool) *subcommand {
	sub := &subcommand{cfg: parhuff.Default()}

	subFlags := flag.NewFlagSet(progName, flag.ContinueOnError)
	subFlags.Usage = func() {}
	subFlags.SetOutput(&nullWriter{})

	subFlags.StringVar(&sub.outputPath, "o", "", "")
	subFlags.StringVar(&sub.outputPath, "output", "", "")
	subFlags.BoolVar(&sub.cfg.Quiet, "q", false, "")
	subFlags.BoolVar(&sub.cfg.Quiet, "quiet", false, "")
	if withTasks {
		subFlags.IntVar(&sub.cfg.Workers, "t", 1, "")
		subFlags.IntVar(&sub.cfg.Workers, "tasks", 1, "")
	}
	if withJSON {
		subFlags.BoolVar(&sub.json, "json", false, "")
	}

	argErr := subFlags.Parse(remainingArgs())
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}

	ourFlags = subFlags
	argI = 0
	sub.inputPath = nextArg("INPUT")
	endOfArgs()

	if err := sub.cfg.Validate(); err != nil {
		usageErrorf("%s", err.Error())
	}
	return sub
}

func (sub *subcommand) output(suffix string) string {
	if sub.outputPath != "" {
		return sub.outputPath
	}
	return sub.inputPath + suffix
}

func compressFromArgs(ctx context.Context) (func() error, error) {
	sub := parseSubcommand(true, false)
	c, err := parhuff.New(sub.cfg, log)
	if err != nil {
		return nil, err
	}

	return func() error {
		_, err := c.Compress(ctx, sub.inputPath, sub.output(parhuff.CompressedSuffix))
		return err
	}, nil
}

func expandFromArgs(ctx context.Context) (func() error, error) {
	sub := parseSubcommand(false, false)
	c, err := parhuff.New(sub.cfg, log)
	if err != nil {
		return nil, err
	}

	return func() error {
		return c.Expand(ctx, sub.inputPath, sub.output(parhuff.ExpandedSuffix))
	}, nil
}

func freqtableFromArgs(ctx context.Context) (func() error, error) {
	sub := parseSubcommand(true, true)
	c, err := parhuff.New(sub.cfg, log)
	if err != nil {
		return nil, err
	}

	format := parhuff.FreqText
	if sub.json {
		format = parhuff.FreqJSON
	}
	return func() error {
		return c.PrintFreqTable(ctx, sub.inputPath, sub.output(parhuff.FreqTableSuffix), format)
	}, nil
}

var leveledLogBackend logging.Leveled

func startLogging() {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{color:bold}%{level:6s}%{color:reset} %{module:-20s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.INFO, "")
	logging.SetBackend(leveled)
	leveledLogBackend = leveled
}

func main() {
	startLogging()

	var err error
	ourFlags = flag.NewFlagSet(progName, flag.ContinueOnError)
	ourFlags.Usage = func() {}
	ourFlags.SetOutput(&nullWriter{})

	var debugLogging bool
	ourFlags.BoolVar(&debugLogging, "debug", false, "")
	ourFlags.BoolVar(&debugLogging, "d", false, "")

	argErr := ourFlags.Parse(os.Args[1:])
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}

	if debugLogging {
		leveledLogBackend.SetLevel(logging.DEBUG, "")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var requestedCommand func() error
	subcommandArg := nextArg("SUBCOMMAND")
	switch subcommandArg {
	default:
		usageErrorf("unrecognized subcommand \"%s\"", subcommandArg)
	case "compress":
		requestedCommand, err = compressFromArgs(ctx)
	case "expand":
		requestedCommand, err = expandFromArgs(ctx)
	case "freqtable":
		requestedCommand, err = freqtableFromArgs(ctx)
	}

	if err != nil {
		exitError(err)
	}

	err = requestedCommand()
	if err != nil {
		stop()
		exitError(err)
	}
}
