package validation

import (
	stded25519 "crypto/ed25519"
	"testing"

	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/dag"
	"github.com/tos-network/daglayer/params"
)

func signedSummary(t *testing.T, pub stded25519.PublicKey, priv stded25519.PrivateKey, chainName string) *dag.BlockSummary {
	t.Helper()
	s := &dag.BlockSummary{
		ValidatorID:     common.BytesToValidatorID(pub),
		Parents:         []common.Hash{hashByte(1)},
		Rank:            1,
		SequenceNumber:  1,
		Timestamp:       1000,
		KeyBlockHash:    hashByte(1),
		BodyHash:        hashByte(9),
		PostStateHash:   hashByte(10),
		ProtocolVersion: "v1",
		ChainName:       chainName,
		SignatureAlg:    "ed25519",
	}
	s.Hash = HashHeader(s)
	s.Signature = stded25519.Sign(priv, s.Hash.Bytes())
	return s
}

func hashByte(b byte) common.Hash {
	var h common.Hash
	h[common.HashLength-1] = b
	return h
}

func TestValidateSummaryAcceptsWellFormedBlock(t *testing.T) {
	pub, priv, err := stded25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cfg := &params.ChainConfig{ChainName: "testnet", Versions: []params.VersionAtRank{{ActivationRank: 0, Version: "v1"}}}
	p := &Pipeline{Config: cfg}

	s := signedSummary(t, pub, priv, "testnet")
	if err := p.ValidateSummary(s); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}
}

func TestValidateSummaryRejectsWrongChainName(t *testing.T) {
	pub, priv, err := stded25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cfg := &params.ChainConfig{ChainName: "testnet", Versions: []params.VersionAtRank{{ActivationRank: 0, Version: "v1"}}}
	p := &Pipeline{Config: cfg}

	s := signedSummary(t, pub, priv, "othernet")
	err = p.ValidateSummary(s)
	var ib *dag.InvalidBlock
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if ib, _ = err.(*dag.InvalidBlock); ib == nil || ib.Reason != dag.InvalidChainName {
		t.Fatalf("expected InvalidChainName, got %v", err)
	}
}

func TestValidateSummaryRejectsTamperedSignature(t *testing.T) {
	pub, priv, err := stded25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	p := &Pipeline{}
	s := signedSummary(t, pub, priv, "testnet")
	s.Signature[0] ^= 0xFF

	err = p.ValidateSummary(s)
	ib, ok := err.(*dag.InvalidBlock)
	if !ok || ib.Reason != dag.InvalidUnslashableBlock {
		t.Fatalf("expected rejection of tampered signature, got %v", err)
	}
}

func TestValidateSummaryRejectsBallotWithMultipleParents(t *testing.T) {
	pub, priv, err := stded25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	s := signedSummary(t, pub, priv, "testnet")
	s.MessageType = dag.Ballot
	s.Parents = []common.Hash{hashByte(1), hashByte(2)}
	s.Hash = HashHeader(s)
	s.Signature = stded25519.Sign(priv, s.Hash.Bytes())

	p := &Pipeline{}
	err = p.ValidateSummary(s)
	ib, ok := err.(*dag.InvalidBlock)
	if !ok || ib.Reason != dag.InvalidParents {
		t.Fatalf("expected InvalidParents, got %v", err)
	}
}

func TestHashHeaderRoundTrip(t *testing.T) {
	pub, priv, err := stded25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	s := signedSummary(t, pub, priv, "testnet")
	if HashHeader(s) != s.Hash {
		t.Fatalf("hash(canonicalEncode(header)) != blockHash")
	}
}
