// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloudeng.io/cmdutil"
	"cloudeng.io/errors"
	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/stunts-tools/stunpack"
)

type decompressFlags struct {
	format    string
	dialect   string
	maxPasses int
	verbosity int
	quiet     bool
	output    string
}

func decompressCmd() *cobra.Command {
	var fl decompressFlags
	cmd := &cobra.Command{
		Use:     "decompress FILE...",
		Aliases: []string{"unpack"},
		Short:   "decode one or more Stunts resource files",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(cmd.Context(), &fl, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&fl.format, "format", "f", "auto", "container format: auto, stunts, rpck or eac")
	flags.StringVarP(&fl.dialect, "dialect", "s", "auto", "Stunts Huffman bit-stream dialect: auto, stunts1.0 or stunts1.1 (only meaningful with -f stunts)")
	flags.IntVarP(&fl.maxPasses, "passes", "p", 0, "limit decompression to this many container passes (0 means unlimited)")
	flags.CountVarP(&fl.verbosity, "verbose", "v", "increase verbosity (-v progress, -vv diagnostics, -vvv trace)")
	flags.BoolVarP(&fl.quiet, "quiet", "q", false, "suppress all diagnostic output")
	flags.StringVarP(&fl.output, "output", "o", "", "output file (\"-\" for stdout), valid only for a single input file; defaults to FILE.out beside each input")
	return cmd
}

func parseFormat(s string) (stunpack.FormatTag, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return stunpack.FormatAuto, nil
	case "stunts":
		return stunpack.FormatStunts, nil
	case "rpck":
		return stunpack.FormatRPck, nil
	case "eac":
		return stunpack.FormatEAC, nil
	}
	return stunpack.FormatAuto, fmt.Errorf("unknown format %q", s)
}

func parseDialect(s string) (stunpack.Dialect, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return stunpack.DialectAuto, nil
	case "stunts1.0", "1.0", "v1.0":
		return stunpack.DialectV10, nil
	case "stunts1.1", "1.1", "v1.1":
		return stunpack.DialectV11, nil
	}
	return stunpack.DialectAuto, fmt.Errorf("unknown dialect %q", s)
}

func runDecompress(ctx context.Context, fl *decompressFlags, args []string) error {
	if fl.output != "" && len(args) > 1 {
		return fmt.Errorf("-o/--output may only be used with a single input file")
	}

	formatTag, err := parseFormat(fl.format)
	if err != nil {
		return err
	}
	dialect, err := parseDialect(fl.dialect)
	if err != nil {
		return err
	}
	if dialect != stunpack.DialectAuto && formatTag != stunpack.FormatStunts {
		return fmt.Errorf("-s/--dialect is only valid with -f stunts")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt)

	verbosity := fl.verbosity
	if fl.quiet {
		verbosity = 0
	}

	isTTY := terminal.IsTerminal(int(os.Stdout.Fd()))

	errs := &errors.M{}
	for _, arg := range args {
		outPath := fl.output
		if outPath == "" {
			outPath = defaultOutputPath(arg)
		}
		if err := decompressFile(ctx, arg, outPath, formatTag, dialect, fl.maxPasses, verbosity, isTTY); err != nil {
			errs.Append(fmt.Errorf("%s: %w", arg, err))
		}
	}
	return errs.Err()
}

// defaultOutputPath mirrors the reference decoder's convention of writing
// alongside the input with a .out suffix rather than requiring -o for
// every file in a multi-file invocation.
func defaultOutputPath(in string) string {
	return in + ".out"
}

func decompressFile(ctx context.Context, inPath, outPath string, format stunpack.FormatTag, dialect stunpack.Dialect, maxPasses, verbosity int, isTTY bool) error {
	src, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if verbosity == 1 {
		w := os.Stdout
		if outPath == "-" || !isTTY {
			w = os.Stderr
		}
		bar = progressbar.NewOptions(100, progressbar.OptionSetWriter(w))
	}

	logSink := func(ev stunpack.Event) {
		switch {
		case bar != nil && ev.Level == stunpack.LogInfo:
			if pct, ok := ev.Fields["progress"].(int); ok {
				bar.Set(pct)
				return
			}
		case verbosity >= 1:
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", filepath.Base(inPath), ev.Level, ev.Message)
		}
	}

	c := stunpack.New(stunpack.Format{
		Type: format,
		Stunts: stunpack.StuntsOptions{
			Dialect:   dialect,
			MaxPasses: maxPasses,
		},
	}, stunpack.WithVerbosity(verbosity), stunpack.WithLogSink(logSink))
	defer c.Teardown()

	c.SetSource(src)
	if result := c.DecompressContext(ctx); result != stunpack.ResultOK {
		if err := c.Err(); err != nil {
			return err
		}
		return fmt.Errorf("decompression failed: %s", result)
	}

	if bar != nil {
		bar.Finish()
	}

	out := c.TakeOutput()
	if outPath == "-" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outPath, out, 0644)
}
