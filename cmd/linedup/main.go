package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const longDesc = `Find duplicate lines of text in one or more text files.

The duplicated text can be at different levels of indention,
but otherwise needs to be identical.`

type options struct {
	lines   uint32
	print   bool
	json    bool
	globs   []string
	ignore  string
	threads int
}

// exitError carries a specific process exit status for fatal conditions
// that must be distinguishable from plain usage errors.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "linedup",
		Short:        "find duplicate text",
		Long:         longDesc,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.lines < 1 {
				return fmt.Errorf("--lines must be at least 1")
			}
			return run(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Uint32VarP(&opts.lines, "lines", "l", 6, "minimum number of duplicate lines")
	cmd.Flags().BoolVarP(&opts.print, "print", "p", false, "print duplicate text")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "output JSON")
	cmd.Flags().StringArrayVarP(&opts.globs, "file", "f", nil,
		`pattern or file eg. "**/*.go" recursive, "*.py", "file.ext", can repeat`)
	cmd.Flags().StringVarP(&opts.ignore, "ignore", "i", "",
		"file containing hash values to ignore, one per line")
	cmd.Flags().IntVarP(&opts.threads, "threads", "t", 0,
		"number of worker threads, 0 to match CPU cores")
	cmd.MarkFlagRequired("file")

	return cmd
}

// run drives the whole pipeline: discovery, per-file signature and window
// hashing, collision aggregation, canonicalization and the report.
func run(w io.Writer, opts *options) error {
	workers := opts.threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ignores := make(map[uint64]bool)
	if opts.ignore != "" {
		var err error
		if ignores, err = loadIgnoreHashes(opts.ignore); err != nil {
			return err
		}
	}

	reg := NewFileRegistry()
	if err := discoverFiles(opts.globs, reg); err != nil {
		return err
	}

	fileSigs, index := processFiles(reg, opts.lines, workers)
	groups := findCollisions(index, fileSigs, opts.lines, workers)
	final := finalizeReport(groups, workers)

	if opts.json {
		return writeJSONReport(w, final, reg, ignores)
	}
	printTextReport(w, final, reg, ignores, opts.print)
	return nil
}

func main() {
	cmd := newRootCmd()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}
