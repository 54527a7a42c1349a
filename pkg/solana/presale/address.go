package presale_vault

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/custody-server/pkg/solana"
)

var (
	VaultPrefix = []byte("vault")
)

type GetVaultAddressArgs struct {
	Mint  ed25519.PublicKey
	Index uint64
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		GetVaultSeeds(args.Mint, args.Index)...,
	)
}

// GetVaultSeeds returns the seeds, excluding the bump, used to derive a vault
// address. The same seeds with the bump appended sign for the vault.
func GetVaultSeeds(mint ed25519.PublicKey, index uint64) [][]byte {
	indexBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(indexBytes, index)

	return [][]byte{
		VaultPrefix,
		mint,
		indexBytes,
	}
}

// GetVaultSignerSeeds returns the full seed list, bump included
func GetVaultSignerSeeds(mint ed25519.PublicKey, index uint64, bump uint8) [][]byte {
	return append(GetVaultSeeds(mint, index), []byte{bump})
}
