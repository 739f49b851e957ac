package main

import (
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Occurrence is one location where a duplicated block starts.
type Occurrence struct {
	File uint32 // registry id
	Line uint32 // zero-based start line
}

// Collision records one duplicated block of text: a content hash over the
// matched lines, how many lines match, and every location the block was
// found at. Sig identifies the underlying duplication independently of
// which window hash first discovered it.
type Collision struct {
	Key      uint64
	NumLines uint32
	Files    []Occurrence
	Sig      uint64
}

// overlap reports whether two occurrences reference the same file with line
// ranges that intersect, for a block of n lines. The same physical text
// matching itself is never a useful duplication.
func overlap(a, b Occurrence, n uint32) bool {
	return a.File == b.File &&
		(a.Line == b.Line ||
			(b.Line >= a.Line && b.Line <= a.Line+n) ||
			(a.Line >= b.Line && a.Line <= b.Line+n))
}

// maximize walks forward from a known collision point in two files while the
// line signatures keep matching, producing the maximal collision for the
// pair. It returns nil when the pair overlaps itself before or after
// extension, or when line-wise verification falls short of minLines (a
// window hash collision over differing lines).
func maximize(fileSigs [][]uint64, a, b Occurrence, minLines uint32) *Collision {
	if overlap(a, b, minLines) {
		return nil
	}

	sa := fileSigs[a.File]
	sb := fileSigs[b.File]
	d := xxhash.New()
	var buf [8]byte
	var offset uint32

	for {
		ai := int(a.Line) + int(offset)
		bi := int(b.Line) + int(offset)
		if ai >= len(sa) || bi >= len(sb) || sa[ai] != sb[bi] {
			break
		}
		binary.LittleEndian.PutUint64(buf[:], sa[ai])
		d.Write(buf[:])
		offset++
	}

	// The pre-extension check used only the window length; the extended
	// ranges can still collide.
	if offset < minLines || overlap(a, b, offset) {
		return nil
	}

	return &Collision{
		Key:      d.Sum64(),
		NumLines: offset,
		Files:    []Occurrence{a, b},
	}
}

// scrub canonicalizes a collision in place: occurrences are sorted and
// deduplicated, same-file self-overlaps are collapsed, and the group
// signature is recomputed. Running scrub twice is a no-op.
func (c *Collision) scrub() {
	sort.Slice(c.Files, func(i, j int) bool {
		if c.Files[i].Line == c.Files[j].Line {
			return c.Files[i].File < c.Files[j].File
		}
		return c.Files[i].Line < c.Files[j].Line
	})
	c.Files = dedupOccurrences(c.Files)
	c.removeOverlapSameFile()
	c.computeSig()
}

// dedupOccurrences drops exact duplicates from a sorted occurrence list.
func dedupOccurrences(occs []Occurrence) []Occurrence {
	out := occs[:0]
	for i, o := range occs {
		if i == 0 || o != occs[i-1] {
			out = append(out, o)
		}
	}
	return out
}

// removeOverlapSameFile collapses overlapping occurrences when every
// occurrence in the group refers to the same file. This gets ugly for files
// containing a repeating sequence separated by fewer lines than the match
// length, e.g. firmware blobs stored as hex text; the walk from the end
// keeps one representative per overlapping run.
func (c *Collision) removeOverlapSameFile() {
	if len(c.Files) == 0 {
		return
	}
	first := c.Files[0].File
	for _, o := range c.Files {
		if o.File != first {
			return
		}
	}

	var keep []Occurrence
	files := c.Files
	for len(files) > 0 {
		cur := files[len(files)-1]
		files = files[:len(files)-1]
		if len(files) == 0 {
			keep = append(keep, cur)
			break
		}
		next := files[len(files)-1]
		if !(cur.Line >= next.Line && cur.Line <= next.Line+c.NumLines) {
			keep = append(keep, cur)
		}
	}
	// The walk collected in reverse.
	for i, j := 0, len(keep)-1; i < j; i, j = i+1, j-1 {
		keep[i], keep[j] = keep[j], keep[i]
	}
	c.Files = keep
}

// computeSig hashes the ordered (end line, file id) pairs of the surviving
// occurrences. The content key is deliberately excluded: two groups that
// describe the same physical duplication, seeded from different windows,
// collapse to one signature.
func (c *Collision) computeSig() {
	d := xxhash.New()
	for _, o := range c.Files {
		end := o.Line + 1 + c.NumLines
		d.WriteString(strconv.FormatUint(uint64(end), 10))
		d.WriteString(strconv.FormatUint(uint64(o.File), 10))
	}
	c.Sig = d.Sum64()
}
