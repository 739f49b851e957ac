package main

import "math"

// FileRegistry maps canonical file paths to dense integer ids and back.
// Each path is stored once; every hot data structure refers to files by id,
// which keeps occurrences small and turns path comparisons into integer
// comparisons.
type FileRegistry struct {
	names []string
	ids   map[string]uint32
}

func NewFileRegistry() *FileRegistry {
	return &FileRegistry{ids: make(map[string]uint32)}
}

// Register assigns the next dense id to path. A path that is already known
// returns its existing id and added=false. Ids are never reused.
func (r *FileRegistry) Register(path string) (id uint32, added bool, err error) {
	if id, ok := r.ids[path]; ok {
		return id, false, nil
	}
	if uint64(len(r.names)) > math.MaxUint32 {
		return 0, false, &exitError{code: 2, msg: "number of files processed exceeds the 32-bit id space"}
	}
	id = uint32(len(r.names))
	r.names = append(r.names, path)
	r.ids[path] = id
	return id, true, nil
}

// Path returns the canonical path for a registered id.
func (r *FileRegistry) Path(id uint32) string {
	return r.names[id]
}

// Len returns the number of registered files.
func (r *FileRegistry) Len() int {
	return len(r.names)
}
