package validation

import (
	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/dag"
)

// minBaseRank returns the smallest rank among creator's known equivocating
// messages across every era, memoized in storage's LRU cache (spec §9
// "Equivocation memoization"). Only a found base rank is cached; a creator
// with no equivocation is scanned again on the next call.
func minBaseRank(storage *dag.Storage, behavior *dag.EraObservedBehavior, creator common.ValidatorID) (uint64, bool) {
	if cached, ok := storage.EquivCache().Get(creator); ok {
		v := cached.(cachedBaseRank)
		return v.rank, v.known
	}
	var (
		min   uint64
		found bool
	)
	for _, era := range behavior.KeyBlockHashes() {
		beh := behavior.BehaviorOf(era, creator)
		if beh.Kind != dag.Equivocated {
			continue
		}
		for _, w := range []uint64{beh.Witness1.Rank, beh.Witness2.Rank} {
			if !found || w < min {
				min = w
				found = true
			}
		}
	}
	if found {
		storage.EquivCache().Add(creator, cachedBaseRank{rank: min, known: found})
	}
	return min, found
}

type cachedBaseRank struct {
	rank  uint64
	known bool
}

// isSwimlaneAncestor reports whether a is reachable from b by following
// validatorPrevBlockHash links (the GLOSSARY "swimlane").
func isSwimlaneAncestor(storage *dag.Storage, a common.Hash, b *dag.Message) bool {
	cur := b
	for cur.HasValidatorPrev {
		if cur.ValidatorPrevBlockHash == a {
			return true
		}
		prev, ok := storage.Get(cur.ValidatorPrevBlockHash)
		if !ok || prev.Rank < mustRank(storage, a) {
			return false
		}
		cur = prev
	}
	return false
}

func mustRank(storage *dag.Storage, h common.Hash) uint64 {
	if m, ok := storage.Get(h); ok {
		return m.Rank
	}
	return 0
}

// checkSwimlane implements spec §4.E.2 "Swimlane": if the creator is a
// known equivocator, the block's j-past-cone may cite at most one of the
// creator's prior latest messages.
func (p *Pipeline) checkSwimlane(m *dag.Message) error {
	behavior := p.Storage.GetRepresentation().Behavior()
	base, known := minBaseRank(p.Storage, behavior, m.ValidatorID)
	if !known {
		return nil
	}

	cone := jPastCone(p.Storage, m.Justifications)
	var candidates []*dag.Message
	for h := range cone {
		msg, ok := p.Storage.Get(h)
		if !ok || msg.ValidatorID != m.ValidatorID || msg.Rank < base {
			continue
		}
		candidates = append(candidates, msg)
	}

	var tips []*dag.Message
	for _, c := range candidates {
		isAncestorOfOther := false
		for _, other := range candidates {
			if other.Hash == c.Hash {
				continue
			}
			if isSwimlaneAncestor(p.Storage, c.Hash, other) {
				isAncestorOfOther = true
				break
			}
		}
		if !isAncestorOfOther {
			tips = append(tips, c)
		}
	}

	if len(dedupeByHash(tips)) >= 2 {
		return &dag.InvalidBlock{Reason: dag.SwimlaneMerged, Hash: m.Hash}
	}
	return nil
}

func dedupeByHash(msgs []*dag.Message) []*dag.Message {
	seen := make(map[common.Hash]bool, len(msgs))
	out := make([]*dag.Message, 0, len(msgs))
	for _, m := range msgs {
		if !seen[m.Hash] {
			seen[m.Hash] = true
			out = append(out, m)
		}
	}
	return out
}
