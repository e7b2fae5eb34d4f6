// Package validation implements the block validation pipeline: summary
// (header-only) validation and full-block (body + DAG-aware) validation
// (spec §4.E).
package validation

import (
	"encoding/binary"

	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/crypto"
	"github.com/tos-network/daglayer/dag"
)

// canonicalHeaderBytes produces the fixed byte layout a header hashes
// from. The exact layout is pinned by an external wire schema shared with
// peers (spec §6); this is that schema, expressed with encoding/binary
// since no complete serialization codec was available for it (see
// DESIGN.md).
func canonicalHeaderBytes(s *dag.BlockSummary) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, s.ValidatorID.Bytes()...)
	for _, p := range s.Parents {
		buf = append(buf, p.Bytes()...)
	}
	for _, j := range s.Justifications {
		buf = append(buf, j.Bytes()...)
	}
	var rank, seq [8]byte
	binary.BigEndian.PutUint64(rank[:], s.Rank)
	buf = append(buf, rank[:]...)
	binary.BigEndian.PutUint64(seq[:], s.SequenceNumber)
	buf = append(buf, seq[:]...)
	if s.HasValidatorPrev {
		buf = append(buf, s.ValidatorPrevBlockHash.Bytes()...)
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], s.Timestamp)
	buf = append(buf, ts[:]...)
	buf = append(buf, s.KeyBlockHash.Bytes()...)
	buf = append(buf, byte(s.MessageType))
	buf = append(buf, s.BodyHash.Bytes()...)
	buf = append(buf, s.PostStateHash.Bytes()...)
	buf = append(buf, []byte(s.ProtocolVersion)...)
	buf = append(buf, []byte(s.ChainName)...)
	return buf
}

// HashHeader returns the canonical hash of s's header (spec §3 invariant
// 4, §4.E.1 step 4).
func HashHeader(s *dag.BlockSummary) common.Hash {
	return crypto.Hash(canonicalHeaderBytes(s))
}

// canonicalDeployHeaderBytes is the equivalent schema for a deploy header.
func canonicalDeployHeaderBytes(d *dag.Deploy) []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, []byte(d.ChainName)...)
	var ts, ttl [8]byte
	binary.BigEndian.PutUint64(ts[:], d.Timestamp)
	binary.BigEndian.PutUint64(ttl[:], d.TTL)
	buf = append(buf, ts[:]...)
	buf = append(buf, ttl[:]...)
	for _, dep := range d.Dependencies {
		buf = append(buf, dep.Bytes()...)
	}
	return buf
}

// HashDeployHeader returns the canonical hash of d's header.
func HashDeployHeader(d *dag.Deploy) common.Hash {
	return crypto.Hash(canonicalDeployHeaderBytes(d))
}

// HashBody returns the canonical hash of a block body: the concatenation
// of its deploy hashes, in order.
func HashBody(body *dag.Body) common.Hash {
	if body == nil {
		return crypto.Hash(nil)
	}
	buf := make([]byte, 0, len(body.Deploys)*common.HashLength)
	for _, d := range body.Deploys {
		buf = append(buf, d.DeployHash.Bytes()...)
	}
	return crypto.Hash(buf)
}
