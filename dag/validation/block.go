package validation

import (
	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/dag"
	"github.com/tos-network/daglayer/params"
	"github.com/tos-network/daglayer/validator"
)

// ValidateFullBlock runs the body + DAG-aware checks of spec §4.E.2.
// Callers must have already run ValidateSummary and obtained a Message via
// dag.FromBlockSummary (with rank computed by the caller, matching
// storage's pending-insert convention) before calling this.
//
// preStateHash and effects are the inputs the execution engine needs to
// recompute post-state; they are supplied by the caller since the DAG
// layer itself never executes.
func (p *Pipeline) ValidateFullBlock(fb *dag.FullBlock, preStateHash common.Hash, effects []byte) error {
	m := fb.Message

	if m.MessageType == dag.Block && fb.Body == nil {
		return p.reject(m.Hash, &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: m.Hash})
	}

	if !m.IsGenesis() {
		if ok, err := validator.BondedSender(p.StateView, m.ValidatorID.Bytes()); !ok {
			return p.reject(m.Hash, &dag.InvalidBlock{Reason: dag.InvalidBondsCache, Hash: m.Hash, Err: err})
		}
	}

	if err := p.checkMissingBlocks(m); err != nil {
		return p.reject(m.Hash, err)
	}
	if err := p.checkTimestamp(m); err != nil {
		return p.reject(m.Hash, err)
	}
	if err := p.checkRank(m); err != nil {
		return p.reject(m.Hash, err)
	}
	if err := p.checkValidatorPrev(m); err != nil {
		return p.reject(m.Hash, err)
	}
	if err := p.checkSequenceNumber(m); err != nil {
		return p.reject(m.Hash, err)
	}
	if !m.IsGenesis() {
		if err := p.checkSwimlane(m); err != nil {
			return p.reject(m.Hash, err)
		}
	}

	if HashBody(fb.Body) != m.BodyHash {
		return p.reject(m.Hash, &dag.InvalidBlock{Reason: dag.InvalidBlockHash, Hash: m.Hash})
	}

	pCone := pPastCone(p.Storage, m.Parents)

	if fb.Body != nil {
		if uint32(len(fb.Body.Deploys)) != m.DeployCount {
			return p.reject(m.Hash, &dag.InvalidBlock{Reason: dag.InvalidDeployCount, Hash: m.Hash})
		}
		if err := p.checkDeploys(m, fb.Body, pCone); err != nil {
			return p.reject(m.Hash, err)
		}
	}

	if p.HasGenesis {
		if err := p.checkParentsCanonical(m); err != nil {
			return p.reject(m.Hash, err)
		}
	}

	if p.ExecEngine != nil {
		if err := p.checkTransactions(m, preStateHash, effects); err != nil {
			return p.reject(m.Hash, err)
		}
	}

	return nil
}

func (p *Pipeline) checkMissingBlocks(m *dag.Message) error {
	for _, h := range append(append([]common.Hash(nil), m.Parents...), m.Justifications...) {
		if p.Storage.Contains(h) {
			continue
		}
		if p.BlockStore != nil && p.BlockStore.Contains(h) {
			continue
		}
		return &dag.InvalidBlock{Reason: dag.MissingBlocks, Hash: m.Hash}
	}
	return nil
}

func (p *Pipeline) checkTimestamp(m *dag.Message) error {
	var maxDepTs uint64
	for _, h := range append(append([]common.Hash(nil), m.Parents...), m.Justifications...) {
		if dep, ok := p.Storage.Get(h); ok && dep.Timestamp > maxDepTs {
			maxDepTs = dep.Timestamp
		}
	}
	if m.Timestamp < maxDepTs {
		return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: m.Hash}
	}
	if m.Timestamp > p.now()+uint64(params.TimestampDrift.Milliseconds()) {
		return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: m.Hash}
	}
	return nil
}

func (p *Pipeline) checkRank(m *dag.Message) error {
	deps := append(append([]common.Hash(nil), m.Parents...), m.Justifications...)
	var max uint64
	for _, h := range deps {
		if dep, ok := p.Storage.Get(h); ok && dep.Rank > max {
			max = dep.Rank
		}
	}
	if m.Rank != max+1 {
		return &dag.InvalidBlock{Reason: dag.InvalidBlockNumber, Hash: m.Hash}
	}
	return nil
}

func (p *Pipeline) checkValidatorPrev(m *dag.Message) error {
	if !m.HasValidatorPrev {
		return nil
	}
	prev, ok := p.Storage.Get(m.ValidatorPrevBlockHash)
	if !ok || prev.ValidatorID != m.ValidatorID {
		return &dag.InvalidBlock{Reason: dag.InvalidPrevBlockHash, Hash: m.Hash}
	}
	cone := jPastCone(p.Storage, m.Justifications)
	if !cone[m.ValidatorPrevBlockHash] {
		return &dag.InvalidBlock{Reason: dag.InvalidPrevBlockHash, Hash: m.Hash}
	}
	return nil
}

func (p *Pipeline) checkSequenceNumber(m *dag.Message) error {
	if m.IsGenesis() {
		if m.SequenceNumber != 0 {
			return &dag.InvalidBlock{Reason: dag.InvalidSequenceNumber, Hash: m.Hash}
		}
		return nil
	}
	if !m.HasValidatorPrev {
		// No prior message from this validator: seqNum(∅) is defined as 0,
		// so the formula's seqNum(prev)+1 requires exactly 1 here.
		if m.SequenceNumber != 1 {
			return &dag.InvalidBlock{Reason: dag.InvalidSequenceNumber, Hash: m.Hash}
		}
		return nil
	}
	prev, ok := p.Storage.Get(m.ValidatorPrevBlockHash)
	if !ok || m.SequenceNumber != prev.SequenceNumber+1 {
		return &dag.InvalidBlock{Reason: dag.InvalidSequenceNumber, Hash: m.Hash}
	}
	return nil
}

func (p *Pipeline) checkDeploys(m *dag.Message, body *dag.Body, pCone map[common.Hash]bool) error {
	if m.MessageType == dag.Ballot {
		if len(body.Deploys) != 0 {
			return &dag.InvalidBlock{Reason: dag.InvalidDeployCount, Hash: m.Hash}
		}
		return nil
	}
	for i := range body.Deploys {
		d := &body.Deploys[i]
		if err := checkDeployHash(d); err != nil {
			return err
		}
		if err := checkDeploySignatures(d); err != nil {
			return err
		}
		if err := checkDeployHeader(d, m.ChainName, m.Timestamp, pCone); err != nil {
			return err
		}
	}
	if err := checkDeployUniqueness(m.Hash, body.Deploys, p.BlockStore, pCone); err != nil {
		return err
	}
	return nil
}

// checkParentsCanonical recomputes the fork-choice head from the tip set
// m's creator actually cited (m.Justifications), one tip per validator —
// never from the live DAG's current latest messages, which may have moved
// on since m was created and would otherwise reject a correctly-produced
// block purely because validation happened later (spec §4.E.2 "Parents
// canonicality").
func (p *Pipeline) checkParentsCanonical(m *dag.Message) error {
	byValidator := make(map[common.ValidatorID]common.Hash)
	for _, j := range m.Justifications {
		dep, ok := p.Storage.Get(j)
		if !ok {
			continue
		}
		if cur, seen := byValidator[dep.ValidatorID]; !seen || dep.Rank > mustRank(p.Storage, cur) {
			byValidator[dep.ValidatorID] = j
		}
	}
	tips := make([]common.Hash, 0, len(byValidator))
	for _, h := range byValidator {
		tips = append(tips, h)
	}
	expected := ExpectedParents(p.Storage, p.GenesisHash, dedupeHashes(tips), nil)
	if !hashSliceEqual(expected, m.Parents) {
		return &dag.InvalidBlock{Reason: dag.InvalidParents, Hash: m.Hash}
	}
	return nil
}

func (p *Pipeline) checkTransactions(m *dag.Message, preStateHash common.Hash, effects []byte) error {
	postState, bondSet, err := p.ExecEngine.Commit(preStateHash, effects, m.ProtocolVersion)
	if err != nil {
		return &dag.InvalidBlock{Reason: dag.InvalidTransaction, Hash: m.Hash, Err: err}
	}
	if postState != m.PostStateHash {
		return &dag.InvalidBlock{Reason: dag.InvalidPostStateHash, Hash: m.Hash}
	}
	if !bondSetEqual(bondSet, m.BondSet) {
		return &dag.InvalidBlock{Reason: dag.InvalidBondsCache, Hash: m.Hash}
	}
	return nil
}

func bondSetEqual(a, b []common.ValidatorID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[common.ValidatorID]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

func dedupeHashes(in []common.Hash) []common.Hash {
	seen := make(map[common.Hash]bool, len(in))
	out := make([]common.Hash, 0, len(in))
	for _, h := range in {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

func hashSliceEqual(a, b []common.Hash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
