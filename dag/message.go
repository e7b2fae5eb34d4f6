// Package dag implements the block DAG layer: message storage, per-era tip
// views, equivocation classification, and the validation pipeline that
// guards insertion into the DAG.
package dag

import (
	"errors"

	"github.com/tos-network/daglayer/common"
)

// MessageType distinguishes a block (carries deploys, modifies state) from
// a ballot (a vote, exactly one parent, no deploys).
type MessageType uint8

const (
	Block MessageType = iota
	Ballot
)

func (t MessageType) String() string {
	if t == Ballot {
		return "ballot"
	}
	return "block"
}

// ErrEmptyParents is returned by FromBlockSummary when a non-genesis
// message has no parents.
var ErrEmptyParents = errors.New("dag: non-genesis message has no parents")

// ErrBallotShape is returned by FromBlockSummary when a ballot does not
// have exactly one parent.
var ErrBallotShape = errors.New("dag: ballot must have exactly one parent")

// BlockSummary is the header-only wire shape a message is built from,
// before the full body has been downloaded (spec §6).
type BlockSummary struct {
	Hash          common.Hash
	ValidatorID   common.ValidatorID
	Parents       []common.Hash
	Justifications []common.Hash
	Rank           uint64
	SequenceNumber uint64
	ValidatorPrevBlockHash common.Hash
	HasValidatorPrev       bool
	Timestamp     uint64
	KeyBlockHash  common.Hash
	MessageType   MessageType

	BodyHash        common.Hash
	PostStateHash   common.Hash
	ProtocolVersion string
	ChainName       string
	Signature       []byte
	SignatureAlg    string
	BondSet         []common.ValidatorID

	TreatAsGenesis bool
	DeployCount    uint32
}

// Message is the immutable DAG vertex (spec §3). It is constructed only via
// FromBlockSummary, after a rank has been computed.
type Message struct {
	Hash           common.Hash
	ValidatorID    common.ValidatorID
	Parents        []common.Hash
	Justifications []common.Hash
	Rank           uint64
	JRank          uint64
	SequenceNumber uint64
	// ValidatorPrevBlockHash is meaningful only when HasValidatorPrev is set;
	// a validator's first message has SequenceNumber == 1 and no prior.
	ValidatorPrevBlockHash common.Hash
	HasValidatorPrev       bool
	Timestamp              uint64
	KeyBlockHash           common.Hash
	MessageType            MessageType

	BodyHash        common.Hash
	PostStateHash   common.Hash
	ProtocolVersion string
	ChainName       string
	Signature       []byte
	SignatureAlg    string
	BondSet         []common.ValidatorID
	DeployCount     uint32
}

// IsGenesis reports whether m has no parents — the only case in which that
// is legal.
func (m *Message) IsGenesis() bool { return len(m.Parents) == 0 }

// MainParent returns the first element of Parents, or the zero hash for a
// genesis-like message.
func (m *Message) MainParent() common.Hash {
	if len(m.Parents) == 0 {
		return common.Hash{}
	}
	return m.Parents[0]
}

// FromBlockSummary constructs a Message from a validated summary plus a
// pre-computed rank/jRank pair (the rank computation needs storage lookups
// the message model itself does not own — see storage.computeRank).
func FromBlockSummary(s *BlockSummary, rank, jRank uint64) (*Message, error) {
	if !s.TreatAsGenesis && len(s.Parents) == 0 {
		return nil, ErrEmptyParents
	}
	if s.MessageType == Ballot && len(s.Parents) != 1 {
		return nil, ErrBallotShape
	}
	return &Message{
		Hash:                   s.Hash,
		ValidatorID:            s.ValidatorID,
		Parents:                append([]common.Hash(nil), s.Parents...),
		Justifications:         append([]common.Hash(nil), s.Justifications...),
		Rank:                   rank,
		JRank:                  jRank,
		SequenceNumber:         s.SequenceNumber,
		ValidatorPrevBlockHash: s.ValidatorPrevBlockHash,
		HasValidatorPrev:       s.HasValidatorPrev,
		Timestamp:              s.Timestamp,
		KeyBlockHash:           s.KeyBlockHash,
		MessageType:            s.MessageType,
		BodyHash:               s.BodyHash,
		PostStateHash:          s.PostStateHash,
		ProtocolVersion:        s.ProtocolVersion,
		ChainName:              s.ChainName,
		Signature:              append([]byte(nil), s.Signature...),
		SignatureAlg:           s.SignatureAlg,
		BondSet:                append([]common.ValidatorID(nil), s.BondSet...),
		DeployCount:            s.DeployCount,
	}, nil
}

// Deploy is a single state-modifying transaction carried by a Block.
type Deploy struct {
	DeployHash   common.Hash
	BodyHash     common.Hash
	ChainName    string
	Timestamp    uint64
	TTL          uint64 // milliseconds
	Dependencies []common.Hash
	Approvals    []DeployApproval
}

// DeployApproval is one signature over a deploy by an approving account.
type DeployApproval struct {
	SignerPubKey []byte
	Algorithm    string
	Signature    []byte
}

// Body is the full payload a Block carries; a Ballot has a nil Body.
type Body struct {
	Deploys []Deploy
}

// FullBlock pairs a validated Message with its body, as consumed by
// full-block validation and storage.
type FullBlock struct {
	Message *Message
	Body    *Body
}
