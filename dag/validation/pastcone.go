package validation

import (
	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/dag"
)

// pPastCone returns the transitive closure of parents starting at roots,
// including the roots themselves (spec GLOSSARY "p-past-cone").
func pPastCone(storage *dag.Storage, roots []common.Hash) map[common.Hash]bool {
	visited := make(map[common.Hash]bool, len(roots)*4)
	queue := append([]common.Hash(nil), roots...)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if visited[h] {
			continue
		}
		visited[h] = true
		m, ok := storage.Get(h)
		if !ok {
			continue
		}
		queue = append(queue, m.Parents...)
	}
	return visited
}

// jPastCone returns the transitive closure of justifications starting at
// roots, including the roots (spec GLOSSARY "j-past-cone").
func jPastCone(storage *dag.Storage, roots []common.Hash) map[common.Hash]bool {
	visited := make(map[common.Hash]bool, len(roots)*4)
	queue := append([]common.Hash(nil), roots...)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if visited[h] {
			continue
		}
		visited[h] = true
		m, ok := storage.Get(h)
		if !ok {
			continue
		}
		queue = append(queue, m.Justifications...)
	}
	return visited
}
