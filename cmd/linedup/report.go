package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for console output
type Theme struct {
	Rule     lipgloss.Style
	Hash     lipgloss.Style
	Location lipgloss.Style
	LineNum  lipgloss.Style
	Summary  lipgloss.Style
	Dim      lipgloss.Style
}

// DefaultTheme is the default color scheme
var DefaultTheme = Theme{
	Rule:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Hash:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Location: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	LineNum:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
	Summary:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")),
	Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

var theme = DefaultTheme

// finalizeReport canonicalizes every group in parallel, keeps one group per
// distinct signature, and orders the survivors by size for presentation.
// The signature pass is sequential and deterministic: after the descending
// sort the largest match for a signature is always the one kept.
func finalizeReport(groups []*Collision, workers int) []*Collision {
	work := make(chan *Collision, len(groups))
	for _, g := range groups {
		work <- g
	}
	close(work)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range work {
				g.scrub()
			}
		}()
	}
	wg.Wait()

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.NumLines != b.NumLines {
			return a.NumLines > b.NumLines
		}
		if a.Files[0].Line != b.Files[0].Line {
			return a.Files[0].Line < b.Files[0].Line
		}
		return a.Files[0].File < b.Files[0].File
	})

	seen := make(map[uint64]bool, len(groups))
	kept := groups[:0]
	for _, g := range groups {
		if !seen[g.Sig] {
			seen[g.Sig] = true
			kept = append(kept, g)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.NumLines != b.NumLines {
			return a.NumLines < b.NumLines
		}
		if a.Files[0].Line != b.Files[0].Line {
			return a.Files[0].Line < b.Files[0].Line
		}
		return a.Files[0].File < b.Files[0].File
	})

	return kept
}

// printTextReport writes one block per reported group, smallest matches
// first, followed by the summary totals. Groups whose key is in the ignore
// set are counted but not shown.
func printTextReport(w io.Writer, groups []*Collision, reg *FileRegistry, ignores map[uint64]bool, printText bool) {
	var totalLines, ignored uint64

	for _, g := range groups {
		if ignores[g.Key] {
			ignored++
			continue
		}
		totalLines += uint64(g.NumLines) * uint64(len(g.Files)-1)

		fmt.Fprintf(w, "%s\n", theme.Rule.Render(strings.Repeat("*", 80)))
		fmt.Fprintf(w, "Hash signature = %s\n", theme.Hash.Render(strconv.FormatUint(g.Key, 10)))
		fmt.Fprintf(w, "Found %s copy & pasted lines in the following files:\n",
			theme.Summary.Render(strconv.FormatUint(uint64(g.NumLines), 10)))
		for _, o := range g.Files {
			fmt.Fprintf(w, "Between lines %s and %s in %s\n",
				theme.LineNum.Render(strconv.FormatUint(uint64(o.Line+1), 10)),
				theme.LineNum.Render(strconv.FormatUint(uint64(o.Line+g.NumLines), 10)),
				theme.Location.Render(reg.Path(o.File)))
		}
		if printText && len(g.Files) > 0 {
			printDupText(w, reg.Path(g.Files[0].File), g.Files[0].Line, g.NumLines)
		}
	}

	fmt.Fprintf(w, "Found %s duplicate lines in %s chunks in %s files, %s chunks ignored.\n",
		theme.Summary.Render(strconv.FormatUint(totalLines, 10)),
		theme.Summary.Render(strconv.Itoa(len(groups)-int(ignored))),
		theme.Summary.Render(strconv.Itoa(reg.Len())),
		theme.Summary.Render(strconv.FormatUint(ignored, 10)))
}

// printDupText dumps the duplicated block, read back from the first
// occurrence, as a rendered fenced code block.
func printDupText(w io.Writer, path string, start, count uint32) {
	lines := readFileLines(path, start, count)
	var sb strings.Builder
	sb.WriteString("```\n")
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
	renderMarkdown(w, sb.String())
}

// renderMarkdown renders md for the terminal, falling back to the plain
// text when rendering is unavailable.
func renderMarkdown(w io.Writer, md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err == nil {
		if out, rerr := r.Render(md); rerr == nil {
			fmt.Fprint(w, out)
			return
		}
	}
	fmt.Fprint(w, md)
}

// readFileLines returns count lines of a file starting at the zero-based
// start line. The file was readable during scanning but may have changed;
// read problems end the dump early with a warning.
func readFileLines(path string, start, count uint32) []string {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Error processing file %s reason %v\n", path, err)
		return nil
	}
	defer f.Close()

	var out []string
	reader := bufio.NewReader(f)
	end := start + count
	for line := uint32(0); line < end; {
		buf, err := reader.ReadBytes('\n')
		if len(buf) > 0 {
			if line >= start {
				out = append(out, strings.TrimRight(string(buf), "\n"))
			}
			line++
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "WARNING: Error processing file %s reason %v\n", path, err)
			}
			break
		}
	}
	return out
}

// JSON output structures

type reportFile struct {
	Path string
	Line uint32
}

// MarshalJSON emits the occurrence as a [path, line] pair.
func (f reportFile) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Path, f.Line})
}

type reportDuplicate struct {
	Key      uint64       `json:"key"`
	NumLines uint32       `json:"num_lines"`
	Files    []reportFile `json:"files"`
}

type reportResults struct {
	NumLines   uint64            `json:"num_lines"`
	NumIgnored uint64            `json:"num_ignored"`
	Duplicates []reportDuplicate `json:"duplicates"`
}

// writeJSONReport serializes every group with file ids resolved back to
// paths. Ignored groups stay in the duplicates list; they are excluded only
// from the duplicated-line total.
func writeJSONReport(w io.Writer, groups []*Collision, reg *FileRegistry, ignores map[uint64]bool) error {
	var totalLines, ignored uint64
	duplicates := make([]reportDuplicate, 0, len(groups))

	for _, g := range groups {
		if ignores[g.Key] {
			ignored++
		} else {
			totalLines += uint64(g.NumLines) * uint64(len(g.Files)-1)
		}
		files := make([]reportFile, len(g.Files))
		for i, o := range g.Files {
			files[i] = reportFile{Path: reg.Path(o.File), Line: o.Line}
		}
		duplicates = append(duplicates, reportDuplicate{
			Key:      g.Key,
			NumLines: g.NumLines,
			Files:    files,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reportResults{
		NumLines:   totalLines,
		NumIgnored: ignored,
		Duplicates: duplicates,
	})
}
