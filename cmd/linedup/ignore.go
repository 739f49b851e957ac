package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadIgnoreHashes reads group keys to suppress from the report, one
// decimal value per line. Blank lines and lines starting with '#' are
// skipped; a line that fails to parse is reported and skipped. Failing to
// open the file at all is fatal.
func loadIgnoreHashes(path string) (map[uint64]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &exitError{code: 2, msg: fmt.Sprintf("unable to open ignore file %s, reason: %v", path, err)}
	}
	defer f.Close()

	ignores := make(map[uint64]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: Ignore file contains invalid hash value %q\n", line)
			continue
		}
		ignores[v] = true
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Error processing file %s reason %v\n", path, err)
	}
	return ignores, nil
}
