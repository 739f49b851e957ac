package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func uniqueLines(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s line %d", prefix, i)
	}
	return out
}

func runDetection(t *testing.T, reg *FileRegistry, minLines uint32) []*Collision {
	t.Helper()
	fileSigs, index := processFiles(reg, minLines, 4)
	groups := findCollisions(index, fileSigs, minLines, 4)
	return finalizeReport(groups, 4)
}

func TestDetectSharedBlockAcrossTwoFiles(t *testing.T) {
	dir := t.TempDir()
	shared := uniqueLines("shared", 10)

	a := writeLines(t, dir, "a.txt",
		append(append(uniqueLines("alpha", 5), shared...), uniqueLines("alpha tail", 2)...))
	b := writeLines(t, dir, "b.txt",
		append(append(uniqueLines("beta", 5), shared...), "beta tail"))

	reg := NewFileRegistry()
	_, _, err := reg.Register(a)
	require.NoError(t, err)
	_, _, err = reg.Register(b)
	require.NoError(t, err)

	groups := runDetection(t, reg, 6)
	require.Len(t, groups, 1)
	assert.Equal(t, uint32(10), groups[0].NumLines)
	assert.Equal(t, []Occurrence{{File: 0, Line: 5}, {File: 1, Line: 5}}, groups[0].Files)
}

func TestDetectRepeatedBlockWithinOneFile(t *testing.T) {
	// An eight line block occurring twice back to back. The earliest pair of
	// seeds extends into a self-overlap and is vetoed; the survivors start
	// one and two lines in, describe the same duplication, and collapse to a
	// single group.
	dir := t.TempDir()
	block := uniqueLines("body", 8)
	lines := append(append(append([]string{}, block...), block...), uniqueLines("tail", 4)...)
	path := writeLines(t, dir, "repeat.txt", lines)

	reg := NewFileRegistry()
	_, _, err := reg.Register(path)
	require.NoError(t, err)

	groups := runDetection(t, reg, 6)
	require.Len(t, groups, 1)
	assert.Equal(t, uint32(7), groups[0].NumLines)
	assert.Equal(t, []Occurrence{{File: 0, Line: 1}, {File: 0, Line: 9}}, groups[0].Files)
	assert.False(t, overlap(groups[0].Files[0], groups[0].Files[1], groups[0].NumLines))
}

func TestDetectMinLinesAboveFileLength(t *testing.T) {
	dir := t.TempDir()
	shared := uniqueLines("shared", 10)
	a := writeLines(t, dir, "a.txt", shared)
	b := writeLines(t, dir, "b.txt", shared)

	reg := NewFileRegistry()
	_, _, err := reg.Register(a)
	require.NoError(t, err)
	_, _, err = reg.Register(b)
	require.NoError(t, err)

	groups := runDetection(t, reg, 50)
	assert.Empty(t, groups)
}

func TestDetectNoDuplication(t *testing.T) {
	dir := t.TempDir()
	a := writeLines(t, dir, "a.txt", uniqueLines("alpha", 20))
	b := writeLines(t, dir, "b.txt", uniqueLines("beta", 20))

	reg := NewFileRegistry()
	_, _, err := reg.Register(a)
	require.NoError(t, err)
	_, _, err = reg.Register(b)
	require.NoError(t, err)

	groups := runDetection(t, reg, 6)
	assert.Empty(t, groups)
}

func TestDetectWhitespaceInsensitive(t *testing.T) {
	dir := t.TempDir()
	shared := uniqueLines("shared", 8)
	indented := make([]string, len(shared))
	for i, s := range shared {
		indented[i] = "    " + s + "  "
	}

	a := writeLines(t, dir, "a.txt", append(uniqueLines("alpha", 3), shared...))
	b := writeLines(t, dir, "b.txt", append(uniqueLines("beta", 3), indented...))

	reg := NewFileRegistry()
	_, _, err := reg.Register(a)
	require.NoError(t, err)
	_, _, err = reg.Register(b)
	require.NoError(t, err)

	groups := runDetection(t, reg, 6)
	require.Len(t, groups, 1)
	assert.Equal(t, uint32(8), groups[0].NumLines)
}

func TestResultMapFoldsByKey(t *testing.T) {
	rm := newResultMap()
	rm.fold(&Collision{Key: 5, NumLines: 6, Files: []Occurrence{{0, 0}, {1, 0}}})
	rm.fold(&Collision{Key: 5, NumLines: 6, Files: []Occurrence{{2, 4}, {0, 0}}})
	rm.fold(&Collision{Key: 9, NumLines: 8, Files: []Occurrence{{0, 20}, {1, 20}}})

	groups := rm.collect()
	require.Len(t, groups, 2)
	for _, g := range groups {
		if g.Key == 5 {
			assert.Len(t, g.Files, 4)
		}
	}
}
