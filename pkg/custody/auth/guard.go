package auth

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/solana"
)

// Require fails with custody.ErrUnauthorized unless the expected authority
// signed the transition.
func Require(tx *ledger.Transaction, expected ed25519.PublicKey) error {
	if !tx.IsSigner(expected) {
		return custody.ErrUnauthorized
	}
	return nil
}

// RequireAdmin gates administrative entry points. An empty admin key permits
// any signer acting as the caller.
func RequireAdmin(tx *ledger.Transaction, admin, caller ed25519.PublicKey) error {
	if len(admin) > 0 && !bytes.Equal(admin, caller) {
		return custody.ErrUnauthorized
	}
	return Require(tx, caller)
}

// RequireAddress fails with custody.ErrAddressMismatch unless the
// caller-supplied account equals the expected address.
func RequireAddress(actual, expected ed25519.PublicKey) error {
	if len(actual) != ed25519.PublicKeySize || !bytes.Equal(actual, expected) {
		return custody.ErrAddressMismatch
	}
	return nil
}

// RequireProgramAddress re-derives a program address from its seeds and a
// stored bump, failing with custody.ErrAddressMismatch when it doesn't equal
// the caller-supplied account.
func RequireProgramAddress(actual, program ed25519.PublicKey, bump uint8, seeds ...[]byte) error {
	if !solana.VerifyProgramAddress(actual, program, bump, seeds...) {
		return custody.ErrAddressMismatch
	}
	return nil
}
