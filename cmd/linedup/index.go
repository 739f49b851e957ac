package main

import "sync"

// indexShardCount is a power of two so a hash picks its shard with a mask.
const indexShardCount = 64

// collisionIndex is a sharded multimap from window hash to every location
// that hash was seen at. Per-shard locking keeps concurrent per-file
// inserts from serializing on a single mutex.
type collisionIndex struct {
	shards [indexShardCount]indexShard
}

type indexShard struct {
	mu      sync.Mutex
	buckets map[uint64][]Occurrence
}

func newCollisionIndex() *collisionIndex {
	ix := &collisionIndex{}
	for i := range ix.shards {
		ix.shards[i].buckets = make(map[uint64][]Occurrence)
	}
	return ix
}

// insert appends an occurrence to the bucket for hash, creating the bucket
// on first sight.
func (ix *collisionIndex) insert(hash uint64, occ Occurrence) {
	s := &ix.shards[hash&(indexShardCount-1)]
	s.mu.Lock()
	s.buckets[hash] = append(s.buckets[hash], occ)
	s.mu.Unlock()
}

// addFile registers every emitted window hash of one file.
func (ix *collisionIndex) addFile(fid uint32, windows []windowEntry) {
	for _, w := range windows {
		ix.insert(w.hash, Occurrence{File: fid, Line: w.line})
	}
}

// shrink drops every bucket holding a single occurrence; no duplication is
// possible there. Shards are filtered in parallel, each locked
// independently, to bound peak memory before aggregation.
func (ix *collisionIndex) shrink(workers int) {
	work := make(chan *indexShard, indexShardCount)
	for i := range ix.shards {
		work <- &ix.shards[i]
	}
	close(work)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				s.mu.Lock()
				for hash, occs := range s.buckets {
					if len(occs) < 2 {
						delete(s.buckets, hash)
					}
				}
				s.mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

// collisions returns the occurrence list of every surviving bucket.
func (ix *collisionIndex) collisions() [][]Occurrence {
	var out [][]Occurrence
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.Lock()
		for _, occs := range s.buckets {
			out = append(out, occs)
		}
		s.mu.Unlock()
	}
	return out
}
