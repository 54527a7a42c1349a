package ledger

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// Signers is the set of already-authenticated identities that approved a
// transition.
type Signers []ed25519.PublicKey

func NewSigners(keys ...ed25519.PublicKey) Signers {
	return Signers(keys)
}

// Contains returns whether key signed the transition
func (s Signers) Contains(key ed25519.PublicKey) bool {
	if len(key) == 0 {
		return false
	}

	for _, signer := range s {
		if bytes.Equal(signer, key) {
			return true
		}
	}
	return false
}

func (s Signers) StringSlice() []string {
	res := make([]string, len(s))
	for i, signer := range s {
		res[i] = base58.Encode(signer)
	}
	return res
}
