package main

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// resultShardCount is a power of two so a content key picks its shard with
// a mask.
const resultShardCount = 64

// resultMap folds maximized collisions into groups keyed by content hash.
// A duplication discovered from many different colliding windows converges
// into a single entry whose occurrence list keeps growing; folding
// serializes per shard, never globally.
type resultMap struct {
	shards [resultShardCount]resultShard
}

type resultShard struct {
	mu sync.Mutex
	m  map[uint64]*Collision
}

func newResultMap() *resultMap {
	rm := &resultMap{}
	for i := range rm.shards {
		rm.shards[i].m = make(map[uint64]*Collision)
	}
	return rm
}

// fold merges one maximized collision into the map: an existing entry for
// the same content key absorbs the new occurrences, otherwise the collision
// becomes the entry.
func (rm *resultMap) fold(c *Collision) {
	s := &rm.shards[c.Key&(resultShardCount-1)]
	s.mu.Lock()
	if existing, ok := s.m[c.Key]; ok {
		existing.Files = append(existing.Files, c.Files...)
	} else {
		s.m[c.Key] = c
	}
	s.mu.Unlock()
}

// collect returns every folded group.
func (rm *resultMap) collect() []*Collision {
	var out []*Collision
	for i := range rm.shards {
		s := &rm.shards[i]
		s.mu.Lock()
		for _, c := range s.m {
			out = append(out, c)
		}
		s.mu.Unlock()
	}
	return out
}

// processFiles computes line signatures and window hashes for every
// registered file in parallel, merging the window hashes into a shared
// collision index. Each task writes only its own slot of the returned
// slice, which is indexed by file id.
func processFiles(reg *FileRegistry, minLines uint32, workers int) ([][]uint64, *collisionIndex) {
	fileSigs := make([][]uint64, reg.Len())
	index := newCollisionIndex()

	var g errgroup.Group
	g.SetLimit(workers)
	for fid := 0; fid < reg.Len(); fid++ {
		fid := fid
		g.Go(func() error {
			sigs := fileSignatures(reg.Path(uint32(fid)))
			fileSigs[fid] = sigs
			index.addFile(uint32(fid), rollingHashes(sigs, int(minLines)))
			return nil
		})
	}
	_ = g.Wait()

	return fileSigs, index
}

// walkCollisions runs every unordered occurrence pair of one bucket through
// maximize and folds the survivors into results.
func walkCollisions(bucket []Occurrence, fileSigs [][]uint64, minLines uint32, results *resultMap) {
	for i := 0; i < len(bucket)-1; i++ {
		for j := i + 1; j < len(bucket); j++ {
			if c := maximize(fileSigs, bucket[i], bucket[j], minLines); c != nil {
				results.fold(c)
			}
		}
	}
}

// findCollisions shrinks the index down to buckets that can actually hold
// duplicates, then aggregates all pairwise matches, one bucket per task.
func findCollisions(index *collisionIndex, fileSigs [][]uint64, minLines uint32, workers int) []*Collision {
	index.shrink(workers)
	buckets := index.collisions()
	results := newResultMap()

	work := make(chan []Occurrence, len(buckets))
	for _, b := range buckets {
		work <- b
	}
	close(work)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for bucket := range work {
				walkCollisions(bucket, fileSigs, minLines, results)
			}
		}()
	}
	wg.Wait()

	return results.collect()
}
