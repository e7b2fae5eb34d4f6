package validation

import (
	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/crypto"
	"github.com/tos-network/daglayer/dag"
	"github.com/tos-network/daglayer/log"
)

var validationLog = log.New("component", "dag-validation")

// ValidateSummary runs the header-only checks of spec §4.E.1, in order,
// short-circuiting on the first failure.
func (p *Pipeline) ValidateSummary(s *dag.BlockSummary) error {
	if err := p.checkFormat(s); err != nil {
		return p.reject(s.Hash, err)
	}
	if err := p.checkProtocolVersion(s); err != nil {
		return p.reject(s.Hash, err)
	}
	if err := p.checkSignature(s); err != nil {
		return p.reject(s.Hash, err)
	}
	if err := p.checkSummaryHash(s); err != nil {
		return p.reject(s.Hash, err)
	}
	if err := p.checkChainName(s); err != nil {
		return p.reject(s.Hash, err)
	}
	if err := p.checkBallotShape(s); err != nil {
		return p.reject(s.Hash, err)
	}
	return nil
}

func (p *Pipeline) reject(hash common.Hash, err error) error {
	var ib *dag.InvalidBlock
	if e, ok := err.(*dag.InvalidBlock); ok {
		ib = e
	} else {
		ib = &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: hash, Err: err}
	}
	validationLog.Warn("rejected block", "hash", ib.Hash, "reason", ib.Reason.String(), "cause", ib.Err)
	return ib
}

func (p *Pipeline) checkFormat(s *dag.BlockSummary) error {
	if s.Hash.IsZero() {
		return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: s.Hash}
	}
	if s.ChainName == "" || s.PostStateHash.IsZero() || s.BodyHash.IsZero() {
		return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: s.Hash}
	}
	if s.TreatAsGenesis {
		if len(s.Signature) != 0 || s.SignatureAlg != "" {
			return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: s.Hash}
		}
	} else {
		if len(s.Signature) == 0 || s.SignatureAlg == "" {
			return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: s.Hash}
		}
	}
	return nil
}

func (p *Pipeline) checkProtocolVersion(s *dag.BlockSummary) error {
	if p.Config == nil {
		return nil
	}
	want := p.Config.VersionAt(s.Rank)
	if want != "" && s.ProtocolVersion != want {
		return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: s.Hash}
	}
	return nil
}

func (p *Pipeline) checkSignature(s *dag.BlockSummary) error {
	if s.TreatAsGenesis {
		return nil
	}
	ok, err := crypto.Verify(crypto.Algorithm(s.SignatureAlg), s.Hash.Bytes(), s.Signature, s.ValidatorID.Bytes())
	if err != nil {
		return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: s.Hash, Err: err}
	}
	if !ok {
		return &dag.InvalidBlock{Reason: dag.InvalidUnslashableBlock, Hash: s.Hash}
	}
	return nil
}

func (p *Pipeline) checkSummaryHash(s *dag.BlockSummary) error {
	if HashHeader(s) != s.Hash {
		return &dag.InvalidBlock{Reason: dag.InvalidBlockHash, Hash: s.Hash}
	}
	return nil
}

func (p *Pipeline) checkChainName(s *dag.BlockSummary) error {
	if p.Config != nil && s.ChainName != p.Config.ChainName {
		return &dag.InvalidBlock{Reason: dag.InvalidChainName, Hash: s.Hash}
	}
	return nil
}

func (p *Pipeline) checkBallotShape(s *dag.BlockSummary) error {
	if s.MessageType == dag.Ballot && len(s.Parents) != 1 {
		return &dag.InvalidBlock{Reason: dag.InvalidParents, Hash: s.Hash}
	}
	return nil
}
