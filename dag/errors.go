package dag

import (
	"errors"
	"fmt"

	"github.com/tos-network/daglayer/common"
)

// Reason is the taxonomy of block validation failures (spec §7). Each
// carries a distinct surface effect a caller branches on via errors.As.
type Reason int

const (
	// MissingBlocks is retry-eligible: stash the block, fetch its deps.
	MissingBlocks Reason = iota
	// InvalidUnslashableBlock is dropped silently, no validator penalty.
	InvalidUnslashableBlock
	// The remaining reasons are all slashable.
	InvalidBlockHash
	InvalidBlockNumber
	InvalidSequenceNumber
	InvalidPrevBlockHash
	SwimlaneMerged
	InvalidParents
	InvalidDeployHash
	InvalidDeploySignature
	InvalidDeployHeader
	InvalidDeployCount
	InvalidRepeatDeploy
	DeployExpired
	DeployFromFuture
	DeployDependencyNotMet
	InvalidChainName
	InvalidBondsCache
	InvalidPreStateHash
	InvalidPostStateHash
	InvalidTransaction
	InvalidTargetHash
	NeglectedInvalidBlock
)

func (r Reason) String() string {
	switch r {
	case MissingBlocks:
		return "MissingBlocks"
	case InvalidUnslashableBlock:
		return "InvalidUnslashableBlock"
	case InvalidBlockHash:
		return "InvalidBlockHash"
	case InvalidBlockNumber:
		return "InvalidBlockNumber"
	case InvalidSequenceNumber:
		return "InvalidSequenceNumber"
	case InvalidPrevBlockHash:
		return "InvalidPrevBlockHash"
	case SwimlaneMerged:
		return "SwimlaneMerged"
	case InvalidParents:
		return "InvalidParents"
	case InvalidDeployHash:
		return "InvalidDeployHash"
	case InvalidDeploySignature:
		return "InvalidDeploySignature"
	case InvalidDeployHeader:
		return "InvalidDeployHeader"
	case InvalidDeployCount:
		return "InvalidDeployCount"
	case InvalidRepeatDeploy:
		return "InvalidRepeatDeploy"
	case DeployExpired:
		return "DeployExpired"
	case DeployFromFuture:
		return "DeployFromFuture"
	case DeployDependencyNotMet:
		return "DeployDependencyNotMet"
	case InvalidChainName:
		return "InvalidChainName"
	case InvalidBondsCache:
		return "InvalidBondsCache"
	case InvalidPreStateHash:
		return "InvalidPreStateHash"
	case InvalidPostStateHash:
		return "InvalidPostStateHash"
	case InvalidTransaction:
		return "InvalidTransaction"
	case InvalidTargetHash:
		return "InvalidTargetHash"
	case NeglectedInvalidBlock:
		return "NeglectedInvalidBlock"
	default:
		return "UnknownReason"
	}
}

// Droppable reports whether r is a summary-stage failure that should be
// discarded without penalizing the creator (spec §4.E.1).
func (r Reason) Droppable() bool { return r == InvalidUnslashableBlock }

// Slashable reports whether r should result in a recorded invalid block and
// validator penalty (spec §7). MissingBlocks and dropped-unslashable
// reasons are excluded.
func (r Reason) Slashable() bool {
	return r != MissingBlocks && r != InvalidUnslashableBlock
}

// InvalidBlock is the typed error the validation pipeline raises. The
// first failing check aborts the remaining ones.
type InvalidBlock struct {
	Reason Reason
	Hash   common.Hash
	Err    error // underlying cause, if any
}

func (e *InvalidBlock) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid block %s: %s: %v", e.Hash, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid block %s: %s", e.Hash, e.Reason)
}

func (e *InvalidBlock) Unwrap() error { return e.Err }

// Is supports errors.Is(err, &dag.InvalidBlock{Reason: ...}) style checks:
// it matches any *InvalidBlock target with the same Reason.
func (e *InvalidBlock) Is(target error) bool {
	var ib *InvalidBlock
	if errors.As(target, &ib) {
		return ib.Reason == e.Reason
	}
	return false
}

// Storage-level errors (component B).
var (
	// ErrMissingDependency means a parent or justification is absent from
	// storage.
	ErrMissingDependency = errors.New("dag: missing dependency")
	// ErrCorrupt means an inserted message violates a DAG invariant (rank,
	// jRank, or its validator-prev/sequence-number link), or a different
	// message arrived under an already-stored hash — fatal per spec §7.
	ErrCorrupt = errors.New("dag: corrupt storage state")
)

// SynchronizationError aborts an initial-sync attempt (spec §4.F, §7).
type SynchronizationError struct {
	Peer string
	Err  error
}

func (e *SynchronizationError) Error() string {
	return fmt.Sprintf("sync: peer %s: %v", e.Peer, e.Err)
}

func (e *SynchronizationError) Unwrap() error { return e.Err }
