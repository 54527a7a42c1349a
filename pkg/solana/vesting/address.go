package vesting_reserve

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/solana"
)

const (
	MaxReserveTypeLength = 32
)

var (
	VestingAccountPrefix = []byte("vesting_account")
	ReservePrefix        = []byte("reserve")
)

type GetVestingAccountAddressArgs struct {
	ReserveType string
}

func GetVestingAccountAddress(args *GetVestingAccountAddressArgs) (ed25519.PublicKey, uint8, error) {
	seeds, err := GetVestingAccountSeeds(args.ReserveType)
	if err != nil {
		return nil, 0, err
	}

	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		seeds...,
	)
}

// GetVestingAccountSeeds returns the seeds, excluding the bump, used to derive
// a vesting account address.
func GetVestingAccountSeeds(reserveType string) ([][]byte, error) {
	if len(reserveType) == 0 || len(reserveType) > MaxReserveTypeLength {
		return nil, ErrInvalidReserveType
	}

	return [][]byte{
		VestingAccountPrefix,
		[]byte(reserveType),
	}, nil
}

type GetReserveAddressArgs struct {
	VestingAccount ed25519.PublicKey
	Beneficiary    ed25519.PublicKey
}

func GetReserveAddress(args *GetReserveAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		GetReserveSeeds(args.VestingAccount, args.Beneficiary)...,
	)
}

func GetReserveSeeds(vestingAccount, beneficiary ed25519.PublicKey) [][]byte {
	return [][]byte{
		ReservePrefix,
		vestingAccount,
		beneficiary,
	}
}
