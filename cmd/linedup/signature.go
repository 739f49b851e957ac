package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// lineSignatures hashes every line of r, one 64-bit value per line, after
// trimming leading and trailing whitespace. Input is split on line-feed
// bytes; invalid UTF-8 is decoded lossily so near-binary files still yield
// stable signatures. A read error truncates the sequence with a warning.
func lineSignatures(r io.Reader, name string) []uint64 {
	var sigs []uint64
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			// A failed read may hand back partial bytes; they are not a
			// line and must not contribute a signature.
			fmt.Fprintf(os.Stderr, "WARNING: Error processing file %s reason %v\n", name, err)
			return sigs
		}
		if len(line) > 0 {
			text := strings.ToValidUTF8(string(line), "�")
			sigs = append(sigs, xxhash.Sum64String(strings.TrimSpace(text)))
		}
		if err != nil {
			return sigs
		}
	}
}

// fileSignatures returns the per-line signature sequence for one file. A
// file that cannot be opened contributes an empty sequence; neither open nor
// read failures are fatal to the run.
func fileSignatures(path string) []uint64 {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to open %s, reason %v\n", path, err)
		return nil
	}
	defer f.Close()
	return lineSignatures(f, path)
}

// windowEntry is one emitted window hash and the zero-based line it starts at.
type windowEntry struct {
	hash uint64
	line uint32
}

// windowHash hashes the minLines consecutive line signatures starting at
// offset.
func windowHash(sigs []uint64, offset, minLines int) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, s := range sigs[offset : offset+minLines] {
		binary.LittleEndian.PutUint64(buf[:], s)
		d.Write(buf[:])
	}
	return d.Sum64()
}

// rollingHashes slides a fixed window of minLines signatures over a file,
// emitting one hash per start offset in offset order. An offset whose hash
// equals the immediately preceding one is skipped, which compresses long
// runs of identical lines without suppressing non-adjacent repeats.
func rollingHashes(sigs []uint64, minLines int) []windowEntry {
	if len(sigs) <= minLines {
		return nil
	}
	entries := make([]windowEntry, 0, len(sigs)-minLines)
	var prev uint64
	for i := 0; i < len(sigs)-minLines; i++ {
		h := windowHash(sigs, i, minLines)
		if h != prev {
			entries = append(entries, windowEntry{hash: h, line: uint32(i)})
		}
		prev = h
	}
	return entries
}
