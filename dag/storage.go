package dag

import (
	"sync"

	mapset "github.com/deckarep/golang-set"
	lru "github.com/hashicorp/golang-lru"

	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/log"
	"github.com/tos-network/daglayer/tosdb/leveldb"
)

var storageLog = log.New("component", "dag-storage")

// BlockInfo is the lightweight record topoSort streams out: enough to walk
// the DAG structurally without paying for the full message body.
type BlockInfo struct {
	Hash           common.Hash
	ValidatorID    common.ValidatorID
	Rank           uint64
	KeyBlockHash   common.Hash
}

type eraValidatorKey struct {
	era common.Hash
	val common.ValidatorID
}

// Storage is the append-only DAG store (spec §4.B). All mutation goes
// through insert/checkpoint/clear under a single writer lock; reads may
// proceed concurrently via RLock.
type Storage struct {
	mu sync.RWMutex

	messages map[common.Hash]*Message

	// children(p) = direct (first-hop) children of p, i.e. messages whose
	// Parents list contains p.
	children map[common.Hash]mapset.Set

	// justificationRev(h) = every message naming h in its Justifications.
	justificationRev map[common.Hash]mapset.Set

	// rankIndex[r] holds every message hash at rank r, insertion order
	// within a rank is unspecified but stable for a given storage state.
	rankIndex map[uint64][]common.Hash
	maxRank   uint64

	// latest[(era,validator)] is the current latest-message set (spec
	// §4.B "Latest-messages update rule").
	latest map[eraValidatorKey]mapset.Set

	// eras holds every keyBlockHash registered through RegisterEra; Insert
	// never adds to it.
	eras map[common.Hash]bool

	// equivCache memoizes minBaseRank per validator for swimlane checks
	// (spec §9 "Equivocation memoization").
	equivCache *lru.Cache

	ckpt *leveldb.Store
}

const equivCacheSize = 4096

// NewStorage builds an empty DAG store. ckptPath is the path of the
// checkpoint durability store; an empty path uses an in-memory store.
func NewStorage(ckptPath string) (*Storage, error) {
	c, err := lru.New(equivCacheSize)
	if err != nil {
		return nil, err
	}
	ckpt, err := leveldb.Open(ckptPath)
	if err != nil {
		return nil, err
	}
	return &Storage{
		messages:         make(map[common.Hash]*Message),
		children:         make(map[common.Hash]mapset.Set),
		justificationRev: make(map[common.Hash]mapset.Set),
		rankIndex:        make(map[uint64][]common.Hash),
		latest:           make(map[eraValidatorKey]mapset.Set),
		eras:             make(map[common.Hash]bool),
		equivCache:       c,
		ckpt:             ckpt,
	}, nil
}

// Contains reports whether hash is already stored.
func (s *Storage) Contains(hash common.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.messages[hash]
	return ok
}

// Get returns the message for hash, if present.
func (s *Storage) Get(hash common.Hash) (*Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[hash]
	return m, ok
}

// RegisterEra marks keyBlockHash as a known era-defining message. Insert
// rejects a message whose KeyBlockHash is unregistered (spec invariant
// §3-5).
func (s *Storage) RegisterEra(keyBlockHash common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eras[keyBlockHash] = true
}

func (s *Storage) hasEra(keyBlockHash common.Hash) bool {
	return s.eras[keyBlockHash]
}

// computeRank returns 1 + max(rank of every dependency), or 0 when deps is
// empty (genesis). Caller holds at least a read lock.
func (s *Storage) computeRank(deps []common.Hash) (uint64, error) {
	if len(deps) == 0 {
		return 0, nil
	}
	var max uint64
	seen := false
	for _, h := range deps {
		m, ok := s.messages[h]
		if !ok {
			return 0, ErrMissingDependency
		}
		if !seen || m.Rank > max {
			max = m.Rank
			seen = true
		}
	}
	return max + 1, nil
}

// PendingRank returns the rank a message depending on deps would be
// assigned by Insert, without inserting anything. Ingestion code outside
// this package (the initial synchronizer's scheduler, in particular) calls
// this twice — once over Parents+Justifications, once over Justifications
// alone — to build the rank/jRank pair FromBlockSummary needs.
func (s *Storage) PendingRank(deps []common.Hash) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.computeRank(deps)
}

// Insert atomically verifies and stores m (spec §4.B insert). It is
// idempotent: re-inserting an identical message succeeds as a no-op.
func (s *Storage) Insert(m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.messages[m.Hash]; ok {
		if existing.SequenceNumber == m.SequenceNumber && existing.ValidatorID == m.ValidatorID {
			return nil // idempotent re-insert
		}
		return ErrCorrupt
	}

	if !m.IsGenesis() {
		if !s.hasEra(m.KeyBlockHash) {
			return ErrMissingDependency
		}
		deps := dependencySet(m)
		for _, h := range deps {
			if _, ok := s.messages[h]; !ok {
				return ErrMissingDependency
			}
		}
		wantRank, err := s.computeRank(deps)
		if err != nil {
			return err
		}
		if wantRank != m.Rank {
			return ErrCorrupt
		}
		wantJRank, err := s.computeRank(m.Justifications)
		if err != nil {
			return err
		}
		if wantJRank != m.JRank {
			return ErrCorrupt
		}
		if m.HasValidatorPrev {
			prev, ok := s.messages[m.ValidatorPrevBlockHash]
			if !ok {
				return ErrMissingDependency
			}
			if prev.ValidatorID != m.ValidatorID || prev.SequenceNumber != m.SequenceNumber-1 {
				return ErrCorrupt
			}
		} else if m.SequenceNumber != 1 {
			// seqNum(∅) is defined as 0, so a validator's first message
			// (no prior) must carry seqNum == 1.
			return ErrCorrupt
		}
	}

	s.messages[m.Hash] = m
	if m.Rank > s.maxRank {
		s.maxRank = m.Rank
	}
	s.rankIndex[m.Rank] = append(s.rankIndex[m.Rank], m.Hash)

	for _, p := range m.Parents {
		s.indexChild(p, m.Hash)
	}
	for _, j := range m.Justifications {
		s.indexJustification(j, m.Hash)
	}

	if !m.ValidatorID.IsZero() {
		s.updateLatest(m)
	}

	storageLog.Debug("inserted message", "hash", m.Hash, "rank", m.Rank, "validator", m.ValidatorID)
	return nil
}

func dependencySet(m *Message) []common.Hash {
	seen := make(map[common.Hash]bool, len(m.Parents)+len(m.Justifications))
	out := make([]common.Hash, 0, len(m.Parents)+len(m.Justifications))
	for _, h := range m.Parents {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, h := range m.Justifications {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

func (s *Storage) indexChild(parent, child common.Hash) {
	set, ok := s.children[parent]
	if !ok {
		set = mapset.NewThreadUnsafeSet()
		s.children[parent] = set
	}
	set.Add(child)
}

func (s *Storage) indexJustification(target, citer common.Hash) {
	set, ok := s.justificationRev[target]
	if !ok {
		set = mapset.NewThreadUnsafeSet()
		s.justificationRev[target] = set
	}
	set.Add(citer)
}

// updateLatest applies the latest-messages update rule (spec §4.B) for m's
// (era, validator). Caller holds the write lock.
func (s *Storage) updateLatest(m *Message) {
	key := eraValidatorKey{era: m.KeyBlockHash, val: m.ValidatorID}
	cur, ok := s.latest[key]
	if !ok {
		cur = mapset.NewThreadUnsafeSet()
		s.latest[key] = cur
	}
	for h := range cur.Iter() {
		hash := h.(common.Hash)
		if hash == m.Hash {
			continue
		}
		if s.isJustificationAncestor(hash, m) {
			cur.Remove(hash)
		}
	}
	cur.Add(m.Hash)
}

// isJustificationAncestor reports whether ancestor is reachable from m via
// the transitive closure of justifications (the "j-past-cone"). Caller
// holds the write lock; ranks strictly increase along a justification edge
// so the search always terminates.
func (s *Storage) isJustificationAncestor(ancestor common.Hash, m *Message) bool {
	target, ok := s.messages[ancestor]
	if !ok {
		return false
	}
	visited := map[common.Hash]bool{m.Hash: true}
	queue := append([]common.Hash(nil), m.Justifications...)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if visited[h] {
			continue
		}
		visited[h] = true
		if h == ancestor {
			return true
		}
		cur, ok := s.messages[h]
		if !ok || cur.Rank < target.Rank {
			continue
		}
		queue = append(queue, cur.Justifications...)
	}
	return false
}

// Children returns the direct (first-hop) children of p.
func (s *Storage) Children(p common.Hash) []common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.children[p]
	if !ok {
		return nil
	}
	out := make([]common.Hash, 0, set.Cardinality())
	for h := range set.Iter() {
		out = append(out, h.(common.Hash))
	}
	return out
}

// JustificationToBlocks returns every message naming h in its
// justifications.
func (s *Storage) JustificationToBlocks(h common.Hash) []common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.justificationRev[h]
	if !ok {
		return nil
	}
	out := make([]common.Hash, 0, set.Cardinality())
	for v := range set.Iter() {
		out = append(out, v.(common.Hash))
	}
	return out
}

// EquivCache exposes the per-validator memoization cache for the
// validation pipeline's swimlane check.
func (s *Storage) EquivCache() *lru.Cache { return s.equivCache }

// Checkpoint records the current maximum rank in the checkpoint store.
// Messages and indices are held in memory only and are not written to the
// store, so inserted messages do not survive a restart.
func (s *Storage) Checkpoint() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ckpt.WriteCheckpoint(s.maxRank)
}

// Clear removes all state. Test-only.
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make(map[common.Hash]*Message)
	s.children = make(map[common.Hash]mapset.Set)
	s.justificationRev = make(map[common.Hash]mapset.Set)
	s.rankIndex = make(map[uint64][]common.Hash)
	s.latest = make(map[eraValidatorKey]mapset.Set)
	s.eras = make(map[common.Hash]bool)
	s.maxRank = 0
	s.equivCache.Purge()
}
