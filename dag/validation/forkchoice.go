package validation

import (
	"bytes"
	"sort"

	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/dag"
)

// Weight returns a validator's voting weight, used by the LMD-GHOST walk.
// A nil Weight treats every validator as weight 1.
type Weight func(id common.ValidatorID) uint64

// ExpectedParents runs LMD-GHOST over latestTips starting from genesis to
// compute the canonical parent list: element 0 is the main parent (the
// GHOST head), the remainder are the other latest tips not already in the
// main parent's p-past-cone, included as secondary parents so their
// justifications get merged (spec §4.E.2 "Parents canonicality").
func ExpectedParents(storage *dag.Storage, genesis common.Hash, latestTips []common.Hash, weight Weight) []common.Hash {
	if weight == nil {
		weight = func(common.ValidatorID) uint64 { return 1 }
	}
	main := ghostHead(storage, genesis, latestTips, weight)
	mainCone := pPastCone(storage, []common.Hash{main})

	var secondary []common.Hash
	for _, t := range latestTips {
		if t == main || mainCone[t] {
			continue
		}
		secondary = append(secondary, t)
	}
	sort.Slice(secondary, func(i, j int) bool { return bytes.Compare(secondary[i][:], secondary[j][:]) < 0 })

	return append([]common.Hash{main}, secondary...)
}

// ghostHead walks from genesis to a tip, at each step following the child
// (among ancestors of latestTips) with the greatest subtree weight. Ties
// broken by hash ascending for determinism.
func ghostHead(storage *dag.Storage, genesis common.Hash, latestTips []common.Hash, weight Weight) common.Hash {
	votesByBlock := make(map[common.Hash]uint64)
	for _, tip := range latestTips {
		m, ok := storage.Get(tip)
		if !ok {
			continue
		}
		w := weight(m.ValidatorID)
		for h := range pPastCone(storage, []common.Hash{tip}) {
			votesByBlock[h] += w
		}
	}

	cur := genesis
	for {
		children := storage.Children(cur)
		var best common.Hash
		var bestWeight uint64
		found := false
		for _, c := range children {
			w, ok := votesByBlock[c]
			if !ok {
				continue
			}
			if !found || w > bestWeight || (w == bestWeight && bytes.Compare(c[:], best[:]) < 0) {
				best, bestWeight, found = c, w, true
			}
		}
		if !found {
			return cur
		}
		cur = best
	}
}
