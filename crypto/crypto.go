// Package crypto supplies the hash function and the closed set of signature
// verification algorithms the validation pipeline is allowed to invoke
// (spec §6 "Consumed from cryptography").
package crypto

import (
	stded25519 "crypto/ed25519"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/tos-network/daglayer/common"
)

// Algorithm names the closed set of signature schemes the DAG layer
// understands. Anything else is rejected by summary validation.
type Algorithm string

const (
	Ed25519   Algorithm = "ed25519"
	Secp256k1 Algorithm = "secp256k1"
)

var ErrUnsupportedAlgorithm = errors.New("crypto: unsupported signature algorithm")

// Hash returns the Keccak256 digest of data as a BlockHash.
func Hash(data []byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return common.BytesToHash(h.Sum(nil))
}

// Verify checks sig over data under pubKey using the named algorithm.
// Genesis-like messages (empty signature) must be special-cased by the
// caller; Verify never treats an empty signature as valid.
func Verify(alg Algorithm, data, sig, pubKey []byte) (bool, error) {
	switch alg {
	case Ed25519:
		if len(pubKey) != stded25519.PublicKeySize {
			return false, nil
		}
		return stded25519.Verify(stded25519.PublicKey(pubKey), data, sig), nil
	case Secp256k1:
		return verifySecp256k1(data, sig, pubKey)
	default:
		return false, ErrUnsupportedAlgorithm
	}
}

func verifySecp256k1(data, sig, pubKey []byte) (bool, error) {
	pk, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return false, nil
	}
	parsed, err := btcecdsa.ParseDERSignature(sig)
	if err != nil {
		return false, nil
	}
	digest := sha3.Sum256(data)
	return parsed.Verify(digest[:], pk), nil
}
