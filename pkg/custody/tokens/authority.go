package tokens

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/solana"
)

// Authority is proof that the caller may move funds out of a holding account
// or mint new tokens.
type Authority interface {
	// Key is the public key the proof resolves to
	Key() ed25519.PublicKey

	authorize(tx *ledger.Transaction, owner ed25519.PublicKey) error
}

type signerAuthority struct {
	key ed25519.PublicKey
}

// SignerAuthority is an authority proven by a transition signature
func SignerAuthority(key ed25519.PublicKey) Authority {
	return &signerAuthority{key: key}
}

func (a *signerAuthority) Key() ed25519.PublicKey {
	return a.key
}

func (a *signerAuthority) authorize(tx *ledger.Transaction, owner ed25519.PublicKey) error {
	if !bytes.Equal(a.key, owner) {
		return custody.ErrUnauthorized
	}
	if !tx.IsSigner(a.key) {
		return custody.ErrUnauthorized
	}
	return nil
}

func (a *signerAuthority) String() string {
	return base58.Encode(a.key)
}

type programAuthority struct {
	program ed25519.PublicKey
	seeds   [][]byte
	key     ed25519.PublicKey
}

// ProgramAuthority is an authority proven by the seeds (bump included) of a
// program derived address. Programs sign for the accounts they own this way.
func ProgramAuthority(program ed25519.PublicKey, seeds ...[]byte) Authority {
	key, err := solana.CreateProgramAddress(program, seeds...)
	if err != nil {
		key = nil
	}

	return &programAuthority{
		program: program,
		seeds:   seeds,
		key:     key,
	}
}

func (a *programAuthority) Key() ed25519.PublicKey {
	return a.key
}

func (a *programAuthority) authorize(_ *ledger.Transaction, owner ed25519.PublicKey) error {
	if a.key == nil || !bytes.Equal(a.key, owner) {
		return custody.ErrUnauthorized
	}
	return nil
}

func (a *programAuthority) String() string {
	if a.key == nil {
		return "<invalid>"
	}
	return base58.Encode(a.key)
}
