package token

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
)

// GetAssociatedAccount returns the canonical holding account address for
// owner and mint, derived from seeds [owner, token program, mint].
func GetAssociatedAccount(owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	address, _, err := GetAssociatedAccountAndBump(owner, mint)
	return address, err
}

func GetAssociatedAccountAndBump(owner, mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(AssociatedTokenAccountProgramKey, owner, ProgramKey, mint)
}

// VerifyAssociatedAccount checks address against owner and mint using a stored bump
func VerifyAssociatedAccount(address, owner, mint ed25519.PublicKey, bump uint8) bool {
	return solana.VerifyProgramAddress(address, AssociatedTokenAccountProgramKey, bump, owner, ProgramKey, mint)
}
