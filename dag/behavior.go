package dag

import (
	"bytes"
	"sort"

	"github.com/tos-network/daglayer/common"
)

// BehaviorKind tags an ObservedValidatorBehavior variant (spec §3, §9: a
// native sum type, not subclass dispatch).
type BehaviorKind uint8

const (
	Empty BehaviorKind = iota
	Honest
	Equivocated
)

// ObservedValidatorBehavior collapses a validator's latest messages in one
// era into a 3-variant tag. Only Kind's value determines which of
// Message/Witness1/Witness2 are meaningful:
//   - Empty:       none meaningful.
//   - Honest:      Message is set.
//   - Equivocated: Witness1 and Witness2 are set (two witnesses suffice;
//     further equivocating messages add no information, spec §9).
type ObservedValidatorBehavior struct {
	Kind     BehaviorKind
	Message  *Message
	Witness1 *Message
	Witness2 *Message
}

func classify(messages []*Message) ObservedValidatorBehavior {
	switch len(messages) {
	case 0:
		return ObservedValidatorBehavior{Kind: Empty}
	case 1:
		return ObservedValidatorBehavior{Kind: Honest, Message: messages[0]}
	default:
		sorted := append([]*Message(nil), messages...)
		sort.Slice(sorted, func(i, j int) bool {
			return bytes.Compare(sorted[i].Hash[:], sorted[j].Hash[:]) < 0
		})
		return ObservedValidatorBehavior{Kind: Equivocated, Witness1: sorted[0], Witness2: sorted[1]}
	}
}

// EraObservedBehavior is the classifier's output: a tag per (era,
// validator) (spec §4.D).
type EraObservedBehavior struct {
	byEra map[common.Hash]map[common.ValidatorID]ObservedValidatorBehavior
}

// ClassifyLatestMessages builds an EraObservedBehavior from a raw
// era->validator->messages map (spec §4.D).
func ClassifyLatestMessages(latest map[common.Hash]map[common.ValidatorID][]*Message) *EraObservedBehavior {
	out := &EraObservedBehavior{byEra: make(map[common.Hash]map[common.ValidatorID]ObservedValidatorBehavior)}
	for era, byVal := range latest {
		m := make(map[common.ValidatorID]ObservedValidatorBehavior, len(byVal))
		for v, msgs := range byVal {
			m[v] = classify(msgs)
		}
		out.byEra[era] = m
	}
	return out
}

// KeyBlockHashes returns every era present in this classification.
func (b *EraObservedBehavior) KeyBlockHashes() []common.Hash {
	out := make([]common.Hash, 0, len(b.byEra))
	for era := range b.byEra {
		out = append(out, era)
	}
	return out
}

// ValidatorsInEra returns every validator observed in the given era.
func (b *EraObservedBehavior) ValidatorsInEra(keyBlockHash common.Hash) []common.ValidatorID {
	byVal := b.byEra[keyBlockHash]
	out := make([]common.ValidatorID, 0, len(byVal))
	for v := range byVal {
		out = append(out, v)
	}
	return out
}

// LatestMessagesInEra returns the raw per-validator message sets the
// classifier saw for keyBlockHash (both witnesses for equivocators).
func (b *EraObservedBehavior) LatestMessagesInEra(keyBlockHash common.Hash) map[common.ValidatorID][]*Message {
	byVal := b.byEra[keyBlockHash]
	out := make(map[common.ValidatorID][]*Message, len(byVal))
	for v, beh := range byVal {
		switch beh.Kind {
		case Honest:
			out[v] = []*Message{beh.Message}
		case Equivocated:
			out[v] = []*Message{beh.Witness1, beh.Witness2}
		}
	}
	return out
}

// EquivocatorsVisibleInEras unions equivocators across the requested eras
// (spec §4.D).
func (b *EraObservedBehavior) EquivocatorsVisibleInEras(eras []common.Hash) []common.ValidatorID {
	seen := make(map[common.ValidatorID]bool)
	var out []common.ValidatorID
	for _, era := range eras {
		for v, beh := range b.byEra[era] {
			if beh.Kind == Equivocated && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// BehaviorOf returns the tag for a single (era, validator) pair.
func (b *EraObservedBehavior) BehaviorOf(era common.Hash, v common.ValidatorID) ObservedValidatorBehavior {
	return b.byEra[era][v]
}
