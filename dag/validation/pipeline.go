package validation

import (
	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/dag"
	"github.com/tos-network/daglayer/params"
	"github.com/tos-network/daglayer/validator"
)

// BlockStorage is the external on-disk block store the DAG layer consumes
// raw blocks from (spec §6). Persistence itself is out of scope here.
type BlockStorage interface {
	Contains(hash common.Hash) bool
	Get(hash common.Hash) (*dag.FullBlock, bool)
	FindBlockHashesWithDeployHash(h common.Hash) []common.Hash
}

// ExecutionEngine is the external RPC-style collaborator that computes
// post-state (spec §6).
type ExecutionEngine interface {
	Commit(preStateHash common.Hash, effects []byte, protocolVersion string) (postStateHash common.Hash, bondSet []common.ValidatorID, err error)
}

// Clock abstracts "now" so tests can pin a timestamp.
type Clock func() uint64

// Pipeline is the validation pipeline (spec §4.E): it holds everything the
// structural and DAG-aware checks need and nothing more.
type Pipeline struct {
	Config       *params.ChainConfig
	Storage      *dag.Storage
	BlockStore   BlockStorage
	ExecEngine   ExecutionEngine
	StateView    validator.StateView
	GenesisHash  common.Hash
	HasGenesis   bool
	Now          Clock
}

// NewPipeline constructs a validation pipeline. Now is left nil, so the
// pipeline reads the current wall clock in milliseconds.
func NewPipeline(cfg *params.ChainConfig, storage *dag.Storage, blockStore BlockStorage, exec ExecutionEngine, stateView validator.StateView) *Pipeline {
	return &Pipeline{
		Config:     cfg,
		Storage:    storage,
		BlockStore: blockStore,
		ExecEngine: exec,
		StateView:  stateView,
	}
}

func (p *Pipeline) now() uint64 {
	if p.Now != nil {
		return p.Now()
	}
	return nowMillis()
}
