package dag

import "github.com/tos-network/daglayer/common"

// ActiveEraPredicate decides whether an era is still active, for the
// purposes of latestGlobal(). The DAG storage itself treats every era as
// active; era lifecycle is a consensus-layer concern supplied by the
// caller (spec §4.C).
type ActiveEraPredicate func(keyBlockHash common.Hash) bool

// AllErasActive is the default predicate storage uses internally: every
// era the storage has ever seen counts as active.
func AllErasActive(common.Hash) bool { return true }

// EraTip is the per-era tip view — the only correct basis for equivocation
// detection (spec §4.C, §9).
type EraTip struct {
	era     common.Hash
	latest  map[common.ValidatorID][]common.Hash // hash handle, read-only snapshot
	byHash  map[common.Hash]*Message
}

// GlobalTip is the cross-era tip view. A validator with >=2 entries here
// may simply have sibling messages in different eras — never treat this as
// equivocation (spec §4.C).
type GlobalTip struct {
	latest map[common.ValidatorID][]common.Hash
	byHash map[common.Hash]*Message
}

// GetRepresentation returns an internally-consistent snapshot handle over
// the current storage state (spec §4.B getRepresentation).
type Representation struct {
	storage *Storage
}

func (s *Storage) GetRepresentation() *Representation { return &Representation{storage: s} }

// LatestInEra restricted to one era (spec §4.C).
func (r *Representation) LatestInEra(keyBlockHash common.Hash) *EraTip {
	s := r.storage
	s.mu.RLock()
	defer s.mu.RUnlock()

	tip := &EraTip{era: keyBlockHash, latest: make(map[common.ValidatorID][]common.Hash), byHash: make(map[common.Hash]*Message)}
	for key, set := range s.latest {
		if key.era != keyBlockHash {
			continue
		}
		hashes := make([]common.Hash, 0, set.Cardinality())
		for h := range set.Iter() {
			hash := h.(common.Hash)
			hashes = append(hashes, hash)
			tip.byHash[hash] = s.messages[hash]
		}
		tip.latest[key.val] = hashes
	}
	return tip
}

// LatestGlobal is the union over all active eras (spec §4.C). active may
// be nil, meaning AllErasActive.
func (r *Representation) LatestGlobal(active ActiveEraPredicate) *GlobalTip {
	if active == nil {
		active = AllErasActive
	}
	s := r.storage
	s.mu.RLock()
	defer s.mu.RUnlock()

	tip := &GlobalTip{latest: make(map[common.ValidatorID][]common.Hash), byHash: make(map[common.Hash]*Message)}
	for key, set := range s.latest {
		if !active(key.era) {
			continue
		}
		for h := range set.Iter() {
			hash := h.(common.Hash)
			tip.latest[key.val] = append(tip.latest[key.val], hash)
			tip.byHash[hash] = s.messages[hash]
		}
	}
	return tip
}

// LatestMessageHash returns the latest-message hash set for v.
func (e *EraTip) LatestMessageHash(v common.ValidatorID) []common.Hash { return e.latest[v] }

// LatestMessage returns the latest messages for v.
func (e *EraTip) LatestMessage(v common.ValidatorID) []*Message {
	return resolve(e.latest[v], e.byHash)
}

// LatestMessageHashes returns every validator's latest-message hash set.
func (e *EraTip) LatestMessageHashes() map[common.ValidatorID][]common.Hash { return e.latest }

// LatestMessages returns every validator's latest messages.
func (e *EraTip) LatestMessages() map[common.ValidatorID][]*Message {
	out := make(map[common.ValidatorID][]*Message, len(e.latest))
	for v, hashes := range e.latest {
		out[v] = resolve(hashes, e.byHash)
	}
	return out
}

// Equivocators returns every validator with >=2 latest messages in this
// era (spec §4.C derived operation).
func (e *EraTip) Equivocators() []common.ValidatorID {
	var out []common.ValidatorID
	for v, hashes := range e.latest {
		if len(hashes) >= 2 {
			out = append(out, v)
		}
	}
	return out
}

// Equivocations returns the full message sets of every equivocator.
func (e *EraTip) Equivocations() map[common.ValidatorID][]*Message {
	out := make(map[common.ValidatorID][]*Message)
	for v, hashes := range e.latest {
		if len(hashes) >= 2 {
			out[v] = resolve(hashes, e.byHash)
		}
	}
	return out
}

func (g *GlobalTip) LatestMessageHash(v common.ValidatorID) []common.Hash { return g.latest[v] }
func (g *GlobalTip) LatestMessage(v common.ValidatorID) []*Message        { return resolve(g.latest[v], g.byHash) }
func (g *GlobalTip) LatestMessageHashes() map[common.ValidatorID][]common.Hash {
	return g.latest
}
func (g *GlobalTip) LatestMessages() map[common.ValidatorID][]*Message {
	out := make(map[common.ValidatorID][]*Message, len(g.latest))
	for v, hashes := range g.latest {
		out[v] = resolve(hashes, g.byHash)
	}
	return out
}

func resolve(hashes []common.Hash, byHash map[common.Hash]*Message) []*Message {
	out := make([]*Message, 0, len(hashes))
	for _, h := range hashes {
		if m, ok := byHash[h]; ok {
			out = append(out, m)
		}
	}
	return out
}
