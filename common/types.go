// Package common holds the fixed-length identifiers shared across the DAG
// layer: block hashes and validator ids.
package common

import (
	"encoding/hex"
	"fmt"
)

// HashLength is the length in bytes of a BlockHash.
const HashLength = 32

// Hash is a content-addressed, fixed-length identifier of a message.
type Hash [HashLength]byte

// BytesToHash keeps the last HashLength bytes of b (cropping from the left)
// or left-zero-pads a shorter b into a Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash parses a "0x"-prefixed or bare hex string into a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) Hex() string { return h.String() }

// ValidatorID is the creator's public key. Unlike Hash it is not
// fixed-length: different signature algorithms use different key sizes.
type ValidatorID string

func BytesToValidatorID(b []byte) ValidatorID { return ValidatorID(b) }

func (v ValidatorID) Bytes() []byte { return []byte(v) }

func (v ValidatorID) String() string {
	return "0x" + hex.EncodeToString([]byte(v))
}

func (v ValidatorID) IsZero() bool { return len(v) == 0 }

func fromHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("common: invalid hex string %q: %v", s, err))
	}
	return b
}
