package dag

import "github.com/tos-network/daglayer/common"

// AllLatestMessages snapshots every era's latest-message map, the input
// ClassifyLatestMessages expects (spec §4.D).
func (r *Representation) AllLatestMessages() map[common.Hash]map[common.ValidatorID][]*Message {
	s := r.storage
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[common.Hash]map[common.ValidatorID][]*Message)
	for key, set := range s.latest {
		byVal, ok := out[key.era]
		if !ok {
			byVal = make(map[common.ValidatorID][]*Message)
			out[key.era] = byVal
		}
		msgs := make([]*Message, 0, set.Cardinality())
		for h := range set.Iter() {
			msgs = append(msgs, s.messages[h.(common.Hash)])
		}
		byVal[key.val] = msgs
	}
	return out
}

// Behavior classifies the current storage state in one call.
func (r *Representation) Behavior() *EraObservedBehavior {
	return ClassifyLatestMessages(r.AllLatestMessages())
}
