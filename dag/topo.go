package dag

import "github.com/tos-network/daglayer/common"

// RankGroup is one rank's worth of BlockInfo, as streamed by TopoSort.
type RankGroup struct {
	Rank   uint64
	Blocks []BlockInfo
}

// TopoSort produces, lazily, one RankGroup per rank in [startRank,
// endRank] ascending, both bounds inclusive (spec §4.B). The returned
// channel is closed when the range is exhausted or when done is closed by
// the caller to cancel early.
func (s *Storage) TopoSort(startRank, endRank uint64, done <-chan struct{}) <-chan RankGroup {
	out := make(chan RankGroup)
	go func() {
		defer close(out)
		for r := startRank; r <= endRank; r++ {
			group := s.rankGroup(r)
			select {
			case out <- group:
			case <-done:
				return
			}
		}
	}()
	return out
}

// TopoSortTail yields the top k ranks currently in storage.
func (s *Storage) TopoSortTail(k uint64, done <-chan struct{}) <-chan RankGroup {
	s.mu.RLock()
	top := s.maxRank
	s.mu.RUnlock()
	start := uint64(0)
	if top+1 > k {
		start = top + 1 - k
	}
	return s.TopoSort(start, top, done)
}

func (s *Storage) rankGroup(r uint64) RankGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hashes := s.rankIndex[r]
	blocks := make([]BlockInfo, 0, len(hashes))
	for _, h := range hashes {
		m := s.messages[h]
		blocks = append(blocks, BlockInfo{
			Hash:         m.Hash,
			ValidatorID:  m.ValidatorID,
			Rank:         m.Rank,
			KeyBlockHash: m.KeyBlockHash,
		})
	}
	return RankGroup{Rank: r, Blocks: blocks}
}
